package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"event_leads_backend/internal/events"
	"event_leads_backend/internal/photobooth/imagegen"
	"event_leads_backend/internal/photobooth/repository"
	"event_leads_backend/internal/photobooth/source"
	"event_leads_backend/platform/apperr"
	"event_leads_backend/platform/logger"
)

// fakeGenRepo stores generations in memory and records every terminal write.
type fakeGenRepo struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]repository.Generation
	finishes []repository.FinishParams
	// finishCtxErr captures ctx.Err() as seen by Finish, to assert the
	// terminal write runs detached from the caller's cancellation.
	finishCtxErr error
}

func newFakeGenRepo() *fakeGenRepo {
	return &fakeGenRepo{rows: make(map[uuid.UUID]repository.Generation)}
}

func (f *fakeGenRepo) CountByLead(_ context.Context, leadID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, g := range f.rows {
		if g.LeadID == leadID {
			count++
		}
	}
	return count, nil
}

func (f *fakeGenRepo) Create(_ context.Context, params repository.CreateParams) (repository.Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := repository.Generation{
		ID:           uuid.New(),
		LeadID:       params.LeadID,
		TemplateSlug: params.TemplateSlug,
		SourceURL:    params.SourceURL,
		Status:       repository.StatusProcessing,
		CreatedAt:    time.Now(),
	}
	for slot := 1; slot <= params.Slots; slot++ {
		g.Variants = append(g.Variants, repository.Variant{Slot: slot, Status: repository.VariantPending})
	}
	f.rows[g.ID] = g
	return g, nil
}

func (f *fakeGenRepo) Finish(ctx context.Context, params repository.FinishParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishCtxErr = ctx.Err()
	g, ok := f.rows[params.GenerationID]
	if !ok || g.Status != repository.StatusProcessing {
		return nil
	}
	g.Status = params.Status
	g.ErrorMessage = params.ErrorMessage
	now := time.Now()
	g.CompletedAt = &now
	for _, v := range params.Variants {
		g.Variants[v.Slot-1] = repository.Variant{Slot: v.Slot, Status: v.Status, URL: v.URL}
	}
	f.rows[params.GenerationID] = g
	f.finishes = append(f.finishes, params)
	return nil
}

func (f *fakeGenRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Generation, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.rows[id]
	return g, ok, nil
}

func (f *fakeGenRepo) ReapStale(context.Context, time.Duration, string) (int, error) {
	return 0, nil
}

func (f *fakeGenRepo) rowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeTemplates struct{}

func (fakeTemplates) ListTemplates(context.Context) ([]repository.Template, error) {
	return []repository.Template{{Slug: "heroi", Name: "Herói", Prompt: "comic book hero style", Active: true}}, nil
}

func (f fakeTemplates) GetTemplate(ctx context.Context, slug string) (repository.Template, bool, error) {
	templates, _ := f.ListTemplates(ctx)
	for _, t := range templates {
		if t.Slug == slug {
			return t, true, nil
		}
	}
	return repository.Template{}, false, nil
}

type fakeLister struct{ fakeTemplates }

func (f fakeLister) List(ctx context.Context) ([]repository.Template, error) {
	return f.ListTemplates(ctx)
}

type fakeLeads struct{ known map[uuid.UUID]bool }

func (f fakeLeads) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return f.known[id], nil
}

type fakeFetcher struct{ err error }

func (f fakeFetcher) Fetch(context.Context, string) (source.Image, error) {
	if f.err != nil {
		return source.Image{}, f.err
	}
	return source.Image{Data: []byte("jpeg-bytes"), MIMEType: "image/jpeg", Orientation: 1}, nil
}

type fakeRenderer struct {
	fn func(ctx context.Context) (imagegen.Rendered, error)
}

func (f fakeRenderer) Render(ctx context.Context, _ string, _ source.Image) (imagegen.Rendered, error) {
	return f.fn(ctx)
}

type fakeStore struct{ err error }

func (f fakeStore) UploadVariant(_ context.Context, generationID uuid.UUID, slot int, _ []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("https://cdn.example.com/%s/%d.png", generationID, slot), nil
}

func okRenderer() fakeRenderer {
	return fakeRenderer{fn: func(context.Context) (imagegen.Rendered, error) {
		return imagegen.Rendered{Data: []byte("png-bytes"), MIMEType: "image/png"}, nil
	}}
}

func newTestService(repo *fakeGenRepo, leadID uuid.UUID, renderer Renderer, store VariantStore, fetcher PhotoFetcher) *Service {
	log := logger.New("development")
	return New(Deps{
		Generations: repo,
		Templates:   fakeTemplates{},
		Lister:      fakeLister{},
		Leads:       fakeLeads{known: map[uuid.UUID]bool{leadID: true}},
		Fetcher:     fetcher,
		Renderer:    renderer,
		Store:       store,
		Bus:         events.NewInMemoryBus(log),
		Log:         log,
		Deadline:    5 * time.Second,
		Variants:    3,
		CapPerLead:  3,
	})
}

func TestGenerateCompletesAllVariants(t *testing.T) {
	leadID := uuid.New()
	repo := newFakeGenRepo()
	svc := newTestService(repo, leadID, okRenderer(), fakeStore{}, fakeFetcher{})

	gen, err := svc.Generate(context.Background(), leadID, "https://example.com/foto.jpg", "heroi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.Status != repository.StatusCompleted {
		t.Fatalf("status = %q, want completed", gen.Status)
	}
	if len(gen.Variants) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(gen.Variants))
	}
	for _, v := range gen.Variants {
		if v.Status != repository.VariantCompleted || v.URL == "" {
			t.Fatalf("variant %d not completed with url: %+v", v.Slot, v)
		}
	}

	stored, found, _ := repo.GetByID(context.Background(), gen.ID)
	if !found || stored.Status != repository.StatusCompleted {
		t.Fatalf("terminal state not persisted: found=%v status=%q", found, stored.Status)
	}
	if stored.CompletedAt == nil {
		t.Fatalf("completed_at not stamped")
	}
}

func TestGenerateUnknownLeadCreatesNoRow(t *testing.T) {
	repo := newFakeGenRepo()
	svc := newTestService(repo, uuid.New(), okRenderer(), fakeStore{}, fakeFetcher{})

	_, err := svc.Generate(context.Background(), uuid.New(), "https://example.com/foto.jpg", "heroi")
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if appErr.Code() != CodeLeadNotFound {
		t.Fatalf("code = %q, want %q", appErr.Code(), CodeLeadNotFound)
	}
	if repo.rowCount() != 0 {
		t.Fatalf("no generation row may be created for an unknown lead")
	}
}

func TestGenerateEnforcesPerLeadCap(t *testing.T) {
	leadID := uuid.New()
	repo := newFakeGenRepo()
	svc := newTestService(repo, leadID, okRenderer(), fakeStore{}, fakeFetcher{})

	for i := 0; i < 3; i++ {
		if _, err := svc.Generate(context.Background(), leadID, "https://example.com/foto.jpg", "heroi"); err != nil {
			t.Fatalf("generation %d failed: %v", i+1, err)
		}
	}

	_, err := svc.Generate(context.Background(), leadID, "https://example.com/foto.jpg", "heroi")
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindLimitReached {
		t.Fatalf("expected limit-reached error, got %v", err)
	}
	if appErr.Code() != CodeGenerationLimit {
		t.Fatalf("code = %q, want %q", appErr.Code(), CodeGenerationLimit)
	}
	if repo.rowCount() != 3 {
		t.Fatalf("over-cap call must not create a row, have %d", repo.rowCount())
	}
}

func TestGenerateFailedAttemptsCountTowardCap(t *testing.T) {
	leadID := uuid.New()
	repo := newFakeGenRepo()
	failing := fakeRenderer{fn: func(context.Context) (imagegen.Rendered, error) {
		return imagegen.Rendered{}, errors.New("model unavailable")
	}}
	svc := newTestService(repo, leadID, failing, fakeStore{}, fakeFetcher{})

	for i := 0; i < 3; i++ {
		if _, err := svc.Generate(context.Background(), leadID, "https://example.com/foto.jpg", "heroi"); err == nil {
			t.Fatalf("generation %d should have failed", i+1)
		}
	}

	_, err := svc.Generate(context.Background(), leadID, "https://example.com/foto.jpg", "heroi")
	if !apperr.Is(err, apperr.KindLimitReached) {
		t.Fatalf("failed runs must count toward the cap, got %v", err)
	}
}

func TestGenerateInvalidPhotoCreatesNoRow(t *testing.T) {
	leadID := uuid.New()
	repo := newFakeGenRepo()
	svc := newTestService(repo, leadID, okRenderer(), fakeStore{}, fakeFetcher{err: errors.New("content type text/html not supported")})

	_, err := svc.Generate(context.Background(), leadID, "https://example.com/pagina.html", "heroi")
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Code() != CodeInvalidPhoto {
		t.Fatalf("expected INVALID_PHOTO, got %v", err)
	}
	if repo.rowCount() != 0 {
		t.Fatalf("no generation row may be created for an invalid photo")
	}
}

func TestGenerateUnknownTemplateRejected(t *testing.T) {
	leadID := uuid.New()
	repo := newFakeGenRepo()
	svc := newTestService(repo, leadID, okRenderer(), fakeStore{}, fakeFetcher{})

	_, err := svc.Generate(context.Background(), leadID, "https://example.com/foto.jpg", "inexistente")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.rowCount() != 0 {
		t.Fatalf("no generation row may be created for an unknown template")
	}
}

func TestGenerateAllRendersFailIsExternalError(t *testing.T) {
	leadID := uuid.New()
	repo := newFakeGenRepo()
	failing := fakeRenderer{fn: func(context.Context) (imagegen.Rendered, error) {
		return imagegen.Rendered{}, errors.New("model unavailable")
	}}
	svc := newTestService(repo, leadID, failing, fakeStore{}, fakeFetcher{})

	_, err := svc.Generate(context.Background(), leadID, "https://example.com/foto.jpg", "heroi")
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindExternal {
		t.Fatalf("expected external error, got %v", err)
	}
	if appErr.Code() != CodeAIError {
		t.Fatalf("code = %q, want %q", appErr.Code(), CodeAIError)
	}

	// The terminal record must exist and be pollable despite the 502.
	if len(repo.finishes) != 1 {
		t.Fatalf("expected one terminal write, got %d", len(repo.finishes))
	}
	fin := repo.finishes[0]
	if fin.Status != repository.StatusFailed || fin.ErrorMessage == "" {
		t.Fatalf("terminal write = %+v, want failed with message", fin)
	}
}

func TestGeneratePartialSuccessIsCompleted(t *testing.T) {
	leadID := uuid.New()
	repo := newFakeGenRepo()

	var calls int
	var mu sync.Mutex
	flaky := fakeRenderer{fn: func(context.Context) (imagegen.Rendered, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			return imagegen.Rendered{Data: []byte("png"), MIMEType: "image/png"}, nil
		}
		return imagegen.Rendered{}, errors.New("model unavailable")
	}}
	svc := newTestService(repo, leadID, flaky, fakeStore{}, fakeFetcher{})

	gen, err := svc.Generate(context.Background(), leadID, "https://example.com/foto.jpg", "heroi")
	if err != nil {
		t.Fatalf("one completed variant must yield success, got %v", err)
	}
	if gen.Status != repository.StatusCompleted {
		t.Fatalf("status = %q, want completed", gen.Status)
	}

	completed := 0
	for _, v := range gen.Variants {
		if v.Status == repository.VariantCompleted {
			completed++
		}
	}
	if completed != 1 {
		t.Fatalf("expected exactly 1 completed variant, got %d", completed)
	}
}

func TestGenerateUploadFailureIsInternal(t *testing.T) {
	leadID := uuid.New()
	repo := newFakeGenRepo()
	svc := newTestService(repo, leadID, okRenderer(), fakeStore{err: errors.New("bucket gone")}, fakeFetcher{})

	_, err := svc.Generate(context.Background(), leadID, "https://example.com/foto.jpg", "heroi")
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("storage failures are internal, got %v", err)
	}
	if len(repo.finishes) != 1 || repo.finishes[0].Status != repository.StatusFailed {
		t.Fatalf("terminal failed write missing: %+v", repo.finishes)
	}
}

func TestGenerateSurvivesCallerCancellation(t *testing.T) {
	leadID := uuid.New()
	repo := newFakeGenRepo()

	ctx, cancel := context.WithCancel(context.Background())
	// The renderer cancels the caller mid-run, as a dropped HTTP
	// connection would.
	renderer := fakeRenderer{fn: func(context.Context) (imagegen.Rendered, error) {
		cancel()
		return imagegen.Rendered{Data: []byte("png"), MIMEType: "image/png"}, nil
	}}
	svc := newTestService(repo, leadID, renderer, fakeStore{}, fakeFetcher{})

	gen, err := svc.Generate(ctx, leadID, "https://example.com/foto.jpg", "heroi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, found, _ := repo.GetByID(context.Background(), gen.ID)
	if !found || stored.Status != repository.StatusCompleted {
		t.Fatalf("terminal state must be written despite cancellation, got found=%v status=%q", found, stored.Status)
	}
	if repo.finishCtxErr != nil {
		t.Fatalf("terminal write ran on a canceled context: %v", repo.finishCtxErr)
	}
}

func TestStatusProjectsPersistedRecord(t *testing.T) {
	leadID := uuid.New()
	repo := newFakeGenRepo()
	svc := newTestService(repo, leadID, okRenderer(), fakeStore{}, fakeFetcher{})

	gen, err := svc.Generate(context.Background(), leadID, "https://example.com/foto.jpg", "heroi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, err := svc.Status(context.Background(), gen.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Status != repository.StatusCompleted || view.CompletedAt == nil {
		t.Fatalf("status view not terminal: %+v", view)
	}
	if len(view.Variants) != 3 {
		t.Fatalf("expected 3 variants in view, got %d", len(view.Variants))
	}
}

func TestStatusUnknownGeneration(t *testing.T) {
	repo := newFakeGenRepo()
	svc := newTestService(repo, uuid.New(), okRenderer(), fakeStore{}, fakeFetcher{})

	_, err := svc.Status(context.Background(), uuid.New())
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Code() != CodeGenerationNotFound {
		t.Fatalf("expected GENERATION_NOT_FOUND, got %v", err)
	}
}
