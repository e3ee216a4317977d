// Package notification sends emails in response to domain events.
// It subscribes to the event bus and inverts the dependency: domain
// modules never know about email providers or templates.
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"event_leads_backend/internal/events"
	"event_leads_backend/platform/logger"
)

// Sender delivers reward notification emails.
type Sender interface {
	SendRewardEmail(ctx context.Context, toEmail, leadName, prizeName, domainLabel string) error
}

// ConsentReader reports whether a lead opted into receiving emails.
type ConsentReader interface {
	HasConsent(ctx context.Context, leadID uuid.UUID) (bool, error)
}

// sendBudget bounds each delivery attempt. Handlers run on a background
// context, so without this a hung SMTP server would pin goroutines.
const sendBudget = 30 * time.Second

// domainLabels maps reward domain slugs to the wording used in emails.
var domainLabels = map[string]string{
	"roleta":   "roleta de prêmios",
	"pesquisa": "pesquisa de satisfação",
}

// Module delivers best-effort notifications. Failures are logged and
// never propagate back into the issuing flow.
type Module struct {
	sender  Sender
	consent ConsentReader
	enabled bool
	log     *logger.Logger
}

// New creates the notification module. enabled=false turns the module
// into a no-op, useful for local runs without an SMTP server.
func New(sender Sender, consent ConsentReader, enabled bool, log *logger.Logger) *Module {
	return &Module{sender: sender, consent: consent, enabled: enabled, log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// RegisterHandlers subscribes the module to the events it reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.RewardIssued{}.EventName(), m)
}

// Handle dispatches an incoming domain event.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.RewardIssued:
		m.handleRewardIssued(ctx, e)
	}
	return nil
}

func (m *Module) handleRewardIssued(ctx context.Context, e events.RewardIssued) {
	if !m.enabled || e.LeadEmail == "" {
		return
	}

	ok, err := m.consent.HasConsent(ctx, e.LeadID)
	if err != nil {
		m.log.Warn("consent lookup failed, skipping reward email",
			"lead_id", e.LeadID.String(), "error", err)
		return
	}
	if !ok {
		return
	}

	label := domainLabels[e.Domain]
	if label == "" {
		label = e.Domain
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendBudget)
	defer cancel()

	if err := m.sender.SendRewardEmail(sendCtx, e.LeadEmail, e.LeadName, e.PrizeName, label); err != nil {
		m.log.Warn("reward email delivery failed",
			"lead_id", e.LeadID.String(), "domain", e.Domain, "error", err)
		return
	}

	m.log.Info("reward email sent",
		"lead_id", e.LeadID.String(), "domain", e.Domain, "prize", e.PrizeSlug)
}

var _ events.Handler = (*Module)(nil)
