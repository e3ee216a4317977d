// Package leads provides the lead identity bounded context module.
// It owns creation and update of lead records; other modules reference
// leads by identifier only and never create them.
package leads

import (
	"event_leads_backend/internal/events"
	apphttp "event_leads_backend/internal/http"
	"event_leads_backend/internal/leads/handler"
	"event_leads_backend/internal/leads/repository"
	"event_leads_backend/internal/leads/service"
	"event_leads_backend/platform/config"
	"event_leads_backend/platform/logger"
	"event_leads_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.LeadsRepository
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, bus events.Bus, cfg config.RegistrationConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val, cfg.GetRegistrationURL())

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for use by other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/leads")
	group.POST("/register", m.handler.Register)
	group.GET("/qr", m.handler.QRCode)
}

var _ apphttp.Module = (*Module)(nil)
