package handler

import (
	"github.com/gin-gonic/gin"

	"event_leads_backend/internal/rewards/catalog"
	"event_leads_backend/internal/rewards/repository"
	"event_leads_backend/internal/rewards/service"
	"event_leads_backend/internal/rewards/transport"
	"event_leads_backend/platform/httpkit"
	"event_leads_backend/platform/validator"
)

const msgInvalidRequest = "invalid request"

// Handler handles HTTP requests for the two reward domains.
type Handler struct {
	svc      *service.Service
	val      *validator.Validator
	roulette service.Domain
	survey   service.Domain
	catalog  *catalog.Config
}

// New creates a new rewards handler.
func New(svc *service.Service, val *validator.Validator, cfg *catalog.Config) *Handler {
	return &Handler{
		svc: svc,
		val: val,
		roulette: service.Domain{
			Slug:    "roleta",
			Table:   repository.TablePrizeWheelSpins,
			Catalog: cfg.Roulette.Prizes,
		},
		survey: service.Domain{
			Slug:       "pesquisa",
			Table:      repository.TableSurveyResponses,
			Catalog:    cfg.Survey.Prizes,
			HasAnswers: true,
		},
		catalog: cfg,
	}
}

// Spin issues (or replays) the lead's prize wheel reward.
// POST /api/v1/roulette/spin
func (h *Handler) Spin(c *gin.Context) {
	var req transport.SpinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.BadRequest(c, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.BadRequest(c, "validation failed", err.Error())
		return
	}

	result, err := h.svc.Issue(c.Request.Context(), h.roulette, req.LeadID, nil)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.SpinResponse{
		Prize:       result.Prize,
		AlreadySpun: result.Replayed,
		IssuedAt:    result.IssuedAt,
	})
}

// SubmitSurvey validates required answers, then issues the survey gift.
// POST /api/v1/survey/submit
func (h *Handler) SubmitSurvey(c *gin.Context) {
	var req transport.SubmitSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.BadRequest(c, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.BadRequest(c, "validation failed", err.Error())
		return
	}
	if err := service.ValidateAnswers(h.catalog.Survey.Questions, req.Answers); httpkit.HandleError(c, err) {
		return
	}

	result, err := h.svc.Issue(c.Request.Context(), h.survey, req.LeadID, req.Answers)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.SubmitSurveyResponse{
		Gift:            result.Prize,
		AlreadyAnswered: result.Replayed,
		IssuedAt:        result.IssuedAt,
	})
}

// Questions lists the survey questions.
// GET /api/v1/survey/questions
func (h *Handler) Questions(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=300")
	httpkit.OK(c, transport.QuestionsResponse{Questions: h.catalog.Survey.Questions})
}
