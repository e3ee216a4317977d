// Package service implements lead identity resolution.
//
// All entry channels (QR registration, roulette, survey, AI photo) converge
// here: a person is one lead, deduplicated by email or phone, and concurrent
// registrations of the same contact must settle on a single row. There is no
// in-process coordination; the leads table's uniqueness constraints arbitrate
// and losing writers recover the winner's row.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"event_leads_backend/internal/events"
	"event_leads_backend/internal/leads/repository"
	"event_leads_backend/internal/shared/upsert"
	"event_leads_backend/platform/apperr"
	"event_leads_backend/platform/logger"
	"event_leads_backend/platform/phone"
)

// Service resolves contact identities into lead records.
type Service struct {
	repo repository.LeadsRepository
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new leads service.
func New(repo repository.LeadsRepository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// ResolveParams carries the contact fields of a registration attempt.
type ResolveParams struct {
	Name    string
	Email   string
	Phone   string
	Origin  string
	Consent bool
}

// Resolve returns the single lead for the given contact, creating the record
// only when no lead matches the email or phone yet.
//
// Re-registration with a known contact updates the display name in place;
// email and phone are identity keys and are never modified once set.
func (s *Service) Resolve(ctx context.Context, params ResolveParams) (repository.Lead, error) {
	normalized, err := normalizeParams(params)
	if err != nil {
		return repository.Lead{}, err
	}

	lead, created, err := upsert.Resolve(ctx,
		func(ctx context.Context) (repository.Lead, bool, error) {
			return s.repo.FindByContact(ctx, normalized.Email, normalized.Phone)
		},
		func(ctx context.Context) (repository.Lead, error) {
			return s.repo.Insert(ctx, normalized)
		},
		func(err error) bool { return errors.Is(err, repository.ErrDuplicateContact) },
	)
	if err != nil {
		return repository.Lead{}, err
	}

	if created {
		s.bus.Publish(ctx, events.LeadRegistered{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			Name:      lead.Name,
			Email:     lead.Email,
			Phone:     lead.Phone,
			Origin:    lead.Origin,
			Consent:   lead.Consent,
		})
		return lead, nil
	}

	if lead.Name != normalized.Name {
		if err := s.repo.UpdateName(ctx, lead.ID, normalized.Name); err != nil {
			return repository.Lead{}, err
		}
		lead.Name = normalized.Name
	}

	return lead, nil
}

// GetByID returns a lead by identifier.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	return s.repo.GetByID(ctx, id)
}

// Exists reports whether a lead exists.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// normalizeParams re-validates presence and normalizes contact fields.
// The transport layer already checks shape; the service never trusts it
// since other modules call Resolve directly.
func normalizeParams(params ResolveParams) (repository.CreateParams, error) {
	name := strings.TrimSpace(params.Name)
	email := strings.ToLower(strings.TrimSpace(params.Email))
	digits := phone.NormalizeDigits(params.Phone)

	if name == "" {
		return repository.CreateParams{}, apperr.Validation("name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return repository.CreateParams{}, apperr.Validation("a valid email is required")
	}
	if !phone.IsValidDigits(digits) {
		return repository.CreateParams{}, apperr.Validation("phone must have 10 or 11 digits")
	}
	if !params.Consent {
		return repository.CreateParams{}, apperr.ConsentRequired("consent is required to participate")
	}

	origin := strings.TrimSpace(params.Origin)
	if origin == "" {
		origin = "qr"
	}

	return repository.CreateParams{
		Name:    name,
		Email:   email,
		Phone:   digits,
		Origin:  origin,
		Consent: params.Consent,
	}, nil
}
