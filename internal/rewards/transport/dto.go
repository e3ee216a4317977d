package transport

import (
	"github.com/google/uuid"

	"event_leads_backend/internal/rewards/catalog"
)

// SpinRequest asks for the lead's prize wheel outcome.
type SpinRequest struct {
	LeadID uuid.UUID `json:"leadId" validate:"required"`
}

// SpinResponse returns the lead's single prize wheel reward.
// AlreadySpun is true when a previous spin's prize was replayed.
type SpinResponse struct {
	Prize       catalog.Prize `json:"prize"`
	AlreadySpun bool          `json:"alreadySpun"`
	IssuedAt    string        `json:"issuedAt"`
}

// SubmitSurveyRequest carries the survey answers keyed by question ID.
type SubmitSurveyRequest struct {
	LeadID  uuid.UUID         `json:"leadId" validate:"required"`
	Answers map[string]string `json:"answers" validate:"required"`
}

// SubmitSurveyResponse returns the lead's single survey gift.
type SubmitSurveyResponse struct {
	Gift            catalog.Prize `json:"gift"`
	AlreadyAnswered bool          `json:"alreadyAnswered"`
	IssuedAt        string        `json:"issuedAt"`
}

// QuestionsResponse lists the survey questions for the client form.
type QuestionsResponse struct {
	Questions []catalog.Question `json:"questions"`
}
