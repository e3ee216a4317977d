// Package adapters wires module ports to each other's services without
// the modules importing one another directly.
package adapters

import (
	"context"

	"github.com/google/uuid"

	leadsservice "event_leads_backend/internal/leads/service"
	rewardsservice "event_leads_backend/internal/rewards/service"
)

// RewardsLeadDirectory adapts the leads service for reward issuance
// lookups.
type RewardsLeadDirectory struct {
	leads *leadsservice.Service
}

func NewRewardsLeadDirectory(leads *leadsservice.Service) *RewardsLeadDirectory {
	return &RewardsLeadDirectory{leads: leads}
}

func (a *RewardsLeadDirectory) Lookup(ctx context.Context, id uuid.UUID) (rewardsservice.Lead, error) {
	lead, err := a.leads.GetByID(ctx, id)
	if err != nil {
		return rewardsservice.Lead{}, err
	}
	return rewardsservice.Lead{
		ID:    lead.ID,
		Name:  lead.Name,
		Email: lead.Email,
	}, nil
}

var _ rewardsservice.LeadDirectory = (*RewardsLeadDirectory)(nil)
