package adapters

import (
	"context"

	"github.com/google/uuid"

	leadsservice "event_leads_backend/internal/leads/service"
	photoboothservice "event_leads_backend/internal/photobooth/service"
)

// PhotoboothLeadDirectory adapts the leads service for generation
// precondition checks.
type PhotoboothLeadDirectory struct {
	leads *leadsservice.Service
}

func NewPhotoboothLeadDirectory(leads *leadsservice.Service) *PhotoboothLeadDirectory {
	return &PhotoboothLeadDirectory{leads: leads}
}

func (a *PhotoboothLeadDirectory) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return a.leads.Exists(ctx, id)
}

var _ photoboothservice.LeadDirectory = (*PhotoboothLeadDirectory)(nil)
