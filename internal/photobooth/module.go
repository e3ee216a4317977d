// Package photobooth provides the AI photo generation bounded context
// module: synchronous generation, status polling and the template
// catalog.
package photobooth

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"event_leads_backend/internal/events"
	apphttp "event_leads_backend/internal/http"
	"event_leads_backend/internal/photobooth/handler"
	"event_leads_backend/internal/photobooth/repository"
	"event_leads_backend/internal/photobooth/service"
	"event_leads_backend/internal/photobooth/source"
	"event_leads_backend/internal/photobooth/templatecache"
	"event_leads_backend/platform/config"
	"event_leads_backend/platform/logger"
	"event_leads_backend/platform/validator"
)

// Config is the configuration surface the module needs.
type Config interface {
	config.GenAIConfig
	config.RedisConfig
}

// Module is the photobooth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repo
}

// NewModule creates and initializes the photobooth module. rdb may be
// nil when Redis is not configured; the template cache then degrades to
// database reads.
func NewModule(
	pool *pgxpool.Pool,
	rdb *redis.Client,
	leads service.LeadDirectory,
	renderer service.Renderer,
	store service.VariantStore,
	bus events.Bus,
	cfg Config,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	cache := templatecache.New(rdb, repo, cfg.GetTemplateCacheTTL(), log)

	svc := service.New(service.Deps{
		Generations: repo,
		Templates:   repo,
		Lister:      cache,
		Leads:       leads,
		Fetcher:     source.NewFetcher(source.DefaultMaxBytes),
		Renderer:    renderer,
		Store:       store,
		Bus:         bus,
		Log:         log,
		Deadline:    cfg.GetGenerationDeadline(),
		Variants:    cfg.GetGenerationVariants(),
		CapPerLead:  cfg.GetGenerationCapPerLead(),
	})

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "photobooth"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the persistence layer, used by the scheduler's
// stale-generation reaper.
func (m *Module) Repository() *repository.Repo {
	return m.repo
}

// RegisterRoutes mounts photobooth routes on the provided router context.
// The generate route sits behind the stricter per-IP limiter because a
// single request fans out into several model calls.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	photos := ctx.V1.Group("/photos")
	photos.POST("/generate", ctx.GenerateRateLimiter.RateLimit(), m.handler.Generate)
	photos.GET("/generations/:id", m.handler.Status)
	photos.GET("/templates", m.handler.Templates)
}

var _ apphttp.Module = (*Module)(nil)
