package adapters

import (
	"context"

	"github.com/google/uuid"

	leadsservice "event_leads_backend/internal/leads/service"
	"event_leads_backend/internal/notification"
)

// NotificationConsentReader adapts the leads service for consent checks
// before emails go out.
type NotificationConsentReader struct {
	leads *leadsservice.Service
}

func NewNotificationConsentReader(leads *leadsservice.Service) *NotificationConsentReader {
	return &NotificationConsentReader{leads: leads}
}

func (a *NotificationConsentReader) HasConsent(ctx context.Context, leadID uuid.UUID) (bool, error) {
	lead, err := a.leads.GetByID(ctx, leadID)
	if err != nil {
		return false, err
	}
	return lead.Consent, nil
}

var _ notification.ConsentReader = (*NotificationConsentReader)(nil)
