package transport

import (
	"github.com/google/uuid"

	"event_leads_backend/internal/photobooth/repository"
)

// GenerateRequest asks for a styled photo generation.
type GenerateRequest struct {
	LeadID       uuid.UUID `json:"leadId" validate:"required"`
	PhotoURL     string    `json:"photoUrl" validate:"required,url"`
	TemplateSlug string    `json:"templateSlug" validate:"required"`
}

// GenerateResponse returns the identifier to poll for results.
type GenerateResponse struct {
	GenerationID uuid.UUID `json:"generationId"`
	Status       string    `json:"status"`
	Variants     []VariantView `json:"variants"`
}

// VariantView is the client-facing shape of one variant slot.
type VariantView struct {
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
}

// StatusResponse projects a persisted generation for polling clients.
type StatusResponse struct {
	GenerationID uuid.UUID     `json:"generationId"`
	Status       string        `json:"status"`
	Variants     []VariantView `json:"variants"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	CreatedAt    string        `json:"createdAt"`
	CompletedAt  string        `json:"completedAt,omitempty"`
}

// TemplateView is the public shape of a template catalog entry.
// The prompt stays server-side.
type TemplateView struct {
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	PreviewURL string `json:"previewUrl,omitempty"`
}

// TemplatesResponse lists the available photo templates.
type TemplatesResponse struct {
	Templates []TemplateView `json:"templates"`
}

// NewVariantViews maps persisted variants to their client shape.
func NewVariantViews(variants []repository.Variant) []VariantView {
	views := make([]VariantView, len(variants))
	for i, v := range variants {
		views[i] = VariantView{Status: v.Status, URL: v.URL}
	}
	return views
}

// NewTemplateViews maps catalog templates to their public shape.
func NewTemplateViews(templates []repository.Template) []TemplateView {
	views := make([]TemplateView, len(templates))
	for i, t := range templates {
		views[i] = TemplateView{Slug: t.Slug, Name: t.Name, PreviewURL: t.PreviewURL}
	}
	return views
}
