package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"event_leads_backend/internal/photobooth/service"
	"event_leads_backend/internal/photobooth/transport"
	"event_leads_backend/platform/apperr"
	"event_leads_backend/platform/httpkit"
	"event_leads_backend/platform/validator"
)

// Handler handles HTTP requests for photo generations.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new photobooth handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Generate runs a photo generation synchronously and returns its
// terminal result.
// POST /api/v1/photos/generate
func (h *Handler) Generate(c *gin.Context) {
	var req transport.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.BadRequest(c, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.BadRequest(c, "validation failed", err.Error())
		return
	}

	gen, err := h.svc.Generate(c.Request.Context(), req.LeadID, req.PhotoURL, req.TemplateSlug)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.GenerateResponse{
		GenerationID: gen.ID,
		Status:       gen.Status,
		Variants:     transport.NewVariantViews(gen.Variants),
	})
}

// Status projects a persisted generation for polling clients.
// GET /api/v1/photos/generations/:id
func (h *Handler) Status(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid generation id").WithCode(service.CodeGenerationNotFound))
		return
	}

	gen, err := h.svc.Status(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.StatusResponse{
		GenerationID: gen.ID,
		Status:       gen.Status,
		Variants:     transport.NewVariantViews(gen.Variants),
		ErrorMessage: gen.ErrorMessage,
		CreatedAt:    gen.CreatedAt.Format(time.RFC3339),
	}
	if gen.CompletedAt != nil {
		resp.CompletedAt = gen.CompletedAt.Format(time.RFC3339)
	}

	httpkit.OK(c, resp)
}

// Templates lists the available photo templates.
// GET /api/v1/photos/templates
func (h *Handler) Templates(c *gin.Context) {
	templates, err := h.svc.Templates(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	c.Header("Cache-Control", "public, max-age=300")
	httpkit.OK(c, transport.TemplatesResponse{Templates: transport.NewTemplateViews(templates)})
}
