package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"event_leads_backend/internal/events"
	"event_leads_backend/internal/leads/repository"
	"event_leads_backend/platform/apperr"
	"event_leads_backend/platform/logger"
)

// fakeRepo emulates the leads table with its uniqueness constraints on
// email and phone, including the duplicate-insert signal under races.
type fakeRepo struct {
	mu    sync.Mutex
	leads map[uuid.UUID]repository.Lead
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: make(map[uuid.UUID]repository.Lead)}
}

func (f *fakeRepo) FindByContact(_ context.Context, email, phone string) (repository.Lead, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.leads {
		if l.Email == email || l.Phone == phone {
			return l, true, nil
		}
	}
	return repository.Lead{}, false, nil
}

func (f *fakeRepo) Insert(_ context.Context, params repository.CreateParams) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.leads {
		if l.Email == params.Email || l.Phone == params.Phone {
			return repository.Lead{}, fmt.Errorf("insert lead: %w", repository.ErrDuplicateContact)
		}
	}
	l := repository.Lead{
		ID:      uuid.New(),
		Name:    params.Name,
		Email:   params.Email,
		Phone:   params.Phone,
		Origin:  params.Origin,
		Consent: params.Consent,
	}
	f.leads[l.ID] = l
	return l, nil
}

func (f *fakeRepo) UpdateName(_ context.Context, id uuid.UUID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[id]
	if !ok {
		return apperr.NotFound("lead not found")
	}
	l.Name = name
	f.leads[id] = l
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	return l, nil
}

func (f *fakeRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.leads[id]
	return ok, nil
}

func newTestService(repo repository.LeadsRepository) *Service {
	log := logger.New("development")
	return New(repo, events.NewInMemoryBus(log), log)
}

func validParams() ResolveParams {
	return ResolveParams{
		Name:    "Ana Silva",
		Email:   "ana@x.com",
		Phone:   "11987654321",
		Origin:  "qr",
		Consent: true,
	}
}

func TestResolveCreatesLeadOnFirstContact(t *testing.T) {
	svc := newTestService(newFakeRepo())

	lead, err := svc.Resolve(context.Background(), validParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.ID == uuid.Nil {
		t.Fatalf("expected a lead id")
	}
	if lead.Email != "ana@x.com" || lead.Phone != "11987654321" {
		t.Fatalf("unexpected contact fields: %q %q", lead.Email, lead.Phone)
	}
}

func TestResolveIsIdempotentForSameContact(t *testing.T) {
	svc := newTestService(newFakeRepo())

	first, err := svc.Resolve(context.Background(), validParams())
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	second, err := svc.Resolve(context.Background(), validParams())
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same lead id, got %s and %s", first.ID, second.ID)
	}
}

func TestResolveMatchesByEmailOrPhoneAlone(t *testing.T) {
	svc := newTestService(newFakeRepo())

	first, err := svc.Resolve(context.Background(), validParams())
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}

	byEmail := validParams()
	byEmail.Phone = "11900000000"
	got, err := svc.Resolve(context.Background(), byEmail)
	if err != nil {
		t.Fatalf("resolve by email failed: %v", err)
	}
	if got.ID != first.ID {
		t.Fatalf("email match should return existing lead")
	}
	if got.Phone != first.Phone {
		t.Fatalf("contact fields must stay immutable, phone changed to %q", got.Phone)
	}

	byPhone := validParams()
	byPhone.Email = "outra@x.com"
	got, err = svc.Resolve(context.Background(), byPhone)
	if err != nil {
		t.Fatalf("resolve by phone failed: %v", err)
	}
	if got.ID != first.ID {
		t.Fatalf("phone match should return existing lead")
	}
}

func TestResolveUpdatesNameOnReRegistration(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	first, err := svc.Resolve(context.Background(), validParams())
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}

	renamed := validParams()
	renamed.Name = "Ana S. Oliveira"
	got, err := svc.Resolve(context.Background(), renamed)
	if err != nil {
		t.Fatalf("re-registration failed: %v", err)
	}
	if got.ID != first.ID {
		t.Fatalf("expected the same lead")
	}
	if got.Name != "Ana S. Oliveira" {
		t.Fatalf("expected updated name, got %q", got.Name)
	}

	stored, _ := repo.GetByID(context.Background(), first.ID)
	if stored.Name != "Ana S. Oliveira" {
		t.Fatalf("name update was not persisted")
	}
}

func TestResolveNormalizesContactFields(t *testing.T) {
	svc := newTestService(newFakeRepo())

	params := validParams()
	params.Email = "  Ana@X.COM "
	params.Phone = "+55 (11) 98765-4321"

	lead, err := svc.Resolve(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.Email != "ana@x.com" {
		t.Fatalf("expected normalized email, got %q", lead.Email)
	}
	if lead.Phone != "11987654321" {
		t.Fatalf("expected normalized phone, got %q", lead.Phone)
	}
}

func TestResolveValidation(t *testing.T) {
	svc := newTestService(newFakeRepo())

	cases := []struct {
		name   string
		mutate func(*ResolveParams)
		kind   apperr.Kind
	}{
		{"missing name", func(p *ResolveParams) { p.Name = " " }, apperr.KindValidation},
		{"missing email", func(p *ResolveParams) { p.Email = "" }, apperr.KindValidation},
		{"malformed email", func(p *ResolveParams) { p.Email = "not-an-email" }, apperr.KindValidation},
		{"short phone", func(p *ResolveParams) { p.Phone = "119876" }, apperr.KindValidation},
		{"no consent", func(p *ResolveParams) { p.Consent = false }, apperr.KindConsentRequired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := validParams()
			tc.mutate(&params)
			_, err := svc.Resolve(context.Background(), params)
			if !apperr.Is(err, tc.kind) {
				t.Fatalf("expected kind %v, got %v", tc.kind, err)
			}
		})
	}
}

func TestResolveConcurrentRegistrationsConverge(t *testing.T) {
	const n = 16
	svc := newTestService(newFakeRepo())

	ids := make([]uuid.UUID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lead, err := svc.Resolve(context.Background(), validParams())
			if err != nil {
				t.Errorf("resolver %d failed: %v", i, err)
				return
			}
			ids[i] = lead.ID
		}(i)
	}
	wg.Wait()

	distinct := make(map[uuid.UUID]struct{})
	for _, id := range ids {
		distinct[id] = struct{}{}
	}
	if len(distinct) != 1 {
		t.Fatalf("expected one lead across %d concurrent registrations, got %d", n, len(distinct))
	}
}
