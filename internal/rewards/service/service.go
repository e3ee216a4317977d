// Package service implements at-most-once reward issuance.
//
// A lead gets exactly one durable reward per domain. The draw may run more
// than once under a race, but only the first committed insert is
// authoritative; losing writers discard their draw and return the winner's
// prize. No caller can ever observe two different rewards for the same lead
// in the same domain.
package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"event_leads_backend/internal/events"
	"event_leads_backend/internal/rewards/catalog"
	"event_leads_backend/internal/rewards/repository"
	"event_leads_backend/internal/shared/upsert"
	"event_leads_backend/platform/apperr"
	"event_leads_backend/platform/logger"
)

// Lead is the subset of lead data the rewards module needs.
type Lead struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// LeadDirectory looks up leads owned by the leads module.
type LeadDirectory interface {
	Lookup(ctx context.Context, id uuid.UUID) (Lead, error)
}

// Domain describes one reward track. It is passed explicitly into Issue so
// the issuer never branches on a domain flag internally.
type Domain struct {
	Slug       string
	Table      string
	Catalog    catalog.Catalog
	HasAnswers bool
}

// Result is the outcome of an issuance call.
type Result struct {
	Prize    catalog.Prize
	IssuedAt string
	// Replayed reports that the lead already had a reward in this domain
	// and the persisted one was returned instead of a fresh draw.
	Replayed bool
}

// Service issues rewards with at-most-once semantics per (lead, domain).
type Service struct {
	repo  repository.IssuanceRepository
	leads LeadDirectory
	bus   events.Bus
	log   *logger.Logger
	// uniform returns a sample in [0,1); injectable for deterministic tests.
	uniform func() float64
}

// New creates a new rewards service.
func New(repo repository.IssuanceRepository, leads LeadDirectory, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		leads:   leads,
		bus:     bus,
		log:     log,
		uniform: rand.Float64,
	}
}

// WithUniform overrides the random source. Test hook.
func (s *Service) WithUniform(fn func() float64) *Service {
	s.uniform = fn
	return s
}

// Issue returns the lead's single reward for the domain, drawing and
// persisting a new one only when none exists yet.
func (s *Service) Issue(ctx context.Context, domain Domain, leadID uuid.UUID, answers map[string]string) (Result, error) {
	if leadID == uuid.Nil {
		return Result{}, apperr.Validation("leadId is required")
	}

	lead, err := s.leads.Lookup(ctx, leadID)
	if err != nil {
		return Result{}, err
	}

	if domain.HasAnswers {
		answers = trimAnswers(answers)
	} else {
		answers = nil
	}

	iss, created, err := upsert.Resolve(ctx,
		func(ctx context.Context) (repository.Issuance, bool, error) {
			return s.repo.FindByLead(ctx, domain.Table, leadID)
		},
		func(ctx context.Context) (repository.Issuance, error) {
			prize := domain.Catalog.Draw(s.uniform())
			return s.repo.Insert(ctx, domain.Table, repository.InsertParams{
				LeadID:    leadID,
				PrizeSlug: prize.Slug,
				PrizeName: prize.Name,
				Answers:   answers,
			})
		},
		func(err error) bool { return errors.Is(err, repository.ErrAlreadyIssued) },
	)
	if err != nil {
		return Result{}, err
	}

	prize, ok := domain.Catalog.Find(iss.PrizeSlug)
	if !ok {
		// Catalog rotated between events; fall back to the persisted names.
		prize = catalog.Prize{Slug: iss.PrizeSlug, Name: iss.PrizeName}
	}

	s.log.RewardIssued(domain.Slug, leadID.String(), prize.Slug, !created)

	if created {
		s.bus.Publish(ctx, events.RewardIssued{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    leadID,
			LeadEmail: lead.Email,
			LeadName:  lead.Name,
			Domain:    domain.Slug,
			PrizeSlug: prize.Slug,
			PrizeName: prize.Name,
		})
	}

	return Result{
		Prize:    prize,
		IssuedAt: iss.IssuedAt.Format("2006-01-02T15:04:05Z07:00"),
		Replayed: !created,
	}, nil
}

// ValidateAnswers rejects a survey submission that leaves any required
// question unanswered. This runs before the issuer is ever consulted.
func ValidateAnswers(questions []catalog.Question, answers map[string]string) error {
	var missing []string
	for _, q := range questions {
		if !q.Required {
			continue
		}
		if strings.TrimSpace(answers[q.ID]) == "" {
			missing = append(missing, q.ID)
		}
	}
	if len(missing) > 0 {
		return apperr.Validation("required questions are unanswered").WithDetails(missing)
	}
	return nil
}

func trimAnswers(answers map[string]string) map[string]string {
	trimmed := make(map[string]string, len(answers))
	for k, v := range answers {
		trimmed[k] = strings.TrimSpace(v)
	}
	return trimmed
}
