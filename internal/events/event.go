// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"event_leads_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadRegistered is published when a new lead record is created.
// It is not published on re-registration of an existing contact.
type LeadRegistered struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Phone   string    `json:"phone"`
	Origin  string    `json:"origin"`
	Consent bool      `json:"consent"`
}

func (e LeadRegistered) EventName() string { return "leads.lead.registered" }

// =============================================================================
// Rewards Domain Events
// =============================================================================

// RewardIssued is published when a reward is durably written for a lead.
// Replays of an already-issued reward do not publish this event.
type RewardIssued struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	LeadEmail string    `json:"leadEmail"`
	LeadName  string    `json:"leadName"`
	Domain    string    `json:"domain"`
	PrizeSlug string    `json:"prizeSlug"`
	PrizeName string    `json:"prizeName"`
}

func (e RewardIssued) EventName() string { return "rewards.reward.issued" }

// =============================================================================
// Photobooth Domain Events
// =============================================================================

// GenerationFinished is published when a photo generation reaches a
// terminal status, successful or not.
type GenerationFinished struct {
	BaseEvent
	GenerationID uuid.UUID `json:"generationId"`
	LeadID       uuid.UUID `json:"leadId"`
	Status       string    `json:"status"`
	VariantURLs  []string  `json:"variantUrls,omitempty"`
}

func (e GenerationFinished) EventName() string { return "photobooth.generation.finished" }
