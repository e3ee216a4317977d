package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"event_leads_backend/internal/events"
	"event_leads_backend/platform/logger"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []string
	err   error
	label string
}

func (f *fakeSender) SendRewardEmail(_ context.Context, toEmail, _, _, domainLabel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, toEmail)
	f.label = domainLabel
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeConsent struct {
	consent map[uuid.UUID]bool
	err     error
}

func (f fakeConsent) HasConsent(_ context.Context, id uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.consent[id], nil
}

func rewardEvent(leadID uuid.UUID, email string) events.RewardIssued {
	return events.RewardIssued{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		LeadEmail: email,
		LeadName:  "Ana Silva",
		Domain:    "roleta",
		PrizeSlug: "caneca",
		PrizeName: "Caneca",
	}
}

func TestHandleSendsRewardEmailWithConsent(t *testing.T) {
	leadID := uuid.New()
	sender := &fakeSender{}
	m := New(sender, fakeConsent{consent: map[uuid.UUID]bool{leadID: true}}, true, logger.New("development"))

	if err := m.Handle(context.Background(), rewardEvent(leadID, "ana@x.com")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.count() != 1 {
		t.Fatalf("expected one email, got %d", sender.count())
	}
	if sender.label != "roleta de prêmios" {
		t.Fatalf("domain label = %q", sender.label)
	}
}

func TestHandleSkipsWithoutConsent(t *testing.T) {
	leadID := uuid.New()
	sender := &fakeSender{}
	m := New(sender, fakeConsent{consent: map[uuid.UUID]bool{}}, true, logger.New("development"))

	if err := m.Handle(context.Background(), rewardEvent(leadID, "ana@x.com")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.count() != 0 {
		t.Fatalf("no email may be sent without consent")
	}
}

func TestHandleSkipsWhenDisabledOrNoEmail(t *testing.T) {
	leadID := uuid.New()
	sender := &fakeSender{}
	consent := fakeConsent{consent: map[uuid.UUID]bool{leadID: true}}

	disabled := New(sender, consent, false, logger.New("development"))
	disabled.Handle(context.Background(), rewardEvent(leadID, "ana@x.com"))

	enabled := New(sender, consent, true, logger.New("development"))
	enabled.Handle(context.Background(), rewardEvent(leadID, ""))

	if sender.count() != 0 {
		t.Fatalf("expected no emails, got %d", sender.count())
	}
}

func TestHandleSwallowsDeliveryFailure(t *testing.T) {
	leadID := uuid.New()
	sender := &fakeSender{err: errors.New("smtp down")}
	m := New(sender, fakeConsent{consent: map[uuid.UUID]bool{leadID: true}}, true, logger.New("development"))

	if err := m.Handle(context.Background(), rewardEvent(leadID, "ana@x.com")); err != nil {
		t.Fatalf("delivery failures must not propagate, got %v", err)
	}
}
