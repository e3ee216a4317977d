// Package rewards provides the reward issuance bounded context module,
// covering the prize wheel and the survey gift.
package rewards

import (
	"event_leads_backend/internal/events"
	apphttp "event_leads_backend/internal/http"
	"event_leads_backend/internal/rewards/catalog"
	"event_leads_backend/internal/rewards/handler"
	"event_leads_backend/internal/rewards/repository"
	"event_leads_backend/internal/rewards/service"
	"event_leads_backend/platform/logger"
	"event_leads_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the rewards bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the rewards module with all its dependencies.
// The catalog is loaded once by the composition root and passed in read-only.
func NewModule(pool *pgxpool.Pool, leads service.LeadDirectory, cfg *catalog.Config, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, leads, bus, log)
	h := handler.New(svc, val, cfg)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "rewards"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts reward routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/roulette/spin", m.handler.Spin)

	survey := ctx.V1.Group("/survey")
	survey.GET("/questions", m.handler.Questions)
	survey.POST("/submit", m.handler.SubmitSurvey)
}

var _ apphttp.Module = (*Module)(nil)
