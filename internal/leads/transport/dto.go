package transport

import "github.com/google/uuid"

// RegisterRequest contains data for registering an event attendee.
type RegisterRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=120"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Phone   string `json:"phone" validate:"required,min=10,max=20"`
	Origin  string `json:"origin,omitempty" validate:"omitempty,max=40"`
	Consent bool   `json:"consent"`
}

// RegisterResponse returns the resolved lead.
type RegisterResponse struct {
	LeadID uuid.UUID `json:"leadId"`
	Name   string    `json:"name"`
}
