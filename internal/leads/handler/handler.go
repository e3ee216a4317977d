package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"event_leads_backend/internal/leads/service"
	"event_leads_backend/internal/leads/transport"
	"event_leads_backend/platform/httpkit"
	"event_leads_backend/platform/validator"
)

const msgInvalidRequest = "invalid request"

// Handler handles HTTP requests for lead registration.
type Handler struct {
	svc             *service.Service
	val             *validator.Validator
	registrationURL string
}

// New creates a new leads handler.
func New(svc *service.Service, val *validator.Validator, registrationURL string) *Handler {
	return &Handler{svc: svc, val: val, registrationURL: registrationURL}
}

// Register resolves a contact into a lead, creating one on first touch.
// POST /api/v1/leads/register
func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.BadRequest(c, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.BadRequest(c, "validation failed", err.Error())
		return
	}

	lead, err := h.svc.Resolve(c.Request.Context(), service.ResolveParams{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Origin:  req.Origin,
		Consent: req.Consent,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.RegisterResponse{LeadID: lead.ID, Name: lead.Name})
}

// QRCode serves a PNG QR code pointing at the registration page,
// for printing on booth signage.
// GET /api/v1/leads/qr
func (h *Handler) QRCode(c *gin.Context) {
	png, err := qrcode.Encode(h.registrationURL, qrcode.Medium, 512)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to render QR code", nil)
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}
