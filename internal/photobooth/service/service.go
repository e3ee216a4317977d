// Package service implements the AI photo generation orchestrator and
// the generation status reader.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"event_leads_backend/internal/events"
	"event_leads_backend/internal/photobooth/imagegen"
	"event_leads_backend/internal/photobooth/repository"
	"event_leads_backend/internal/photobooth/source"
	"event_leads_backend/platform/apperr"
	"event_leads_backend/platform/logger"
)

// Stable error codes surfaced to clients of the generation endpoints.
const (
	CodeLeadNotFound       = "LEAD_NOT_FOUND"
	CodeInvalidPhoto       = "INVALID_PHOTO"
	CodeGenerationLimit    = "GENERATION_LIMIT"
	CodeAIError            = "AI_ERROR"
	CodeGenerationNotFound = "GENERATION_NOT_FOUND"
)

// finishWriteBudget bounds the terminal write so a slow database cannot
// hold the handler past the generation deadline indefinitely.
const finishWriteBudget = 15 * time.Second

// LeadDirectory is the lookup port into the leads module.
type LeadDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// PhotoFetcher downloads and validates the source photo.
type PhotoFetcher interface {
	Fetch(ctx context.Context, url string) (source.Image, error)
}

// Renderer produces one styled variant from the source photo.
type Renderer interface {
	Render(ctx context.Context, prompt string, img source.Image) (imagegen.Rendered, error)
}

// VariantStore persists a rendered variant and returns its public URL.
type VariantStore interface {
	UploadVariant(ctx context.Context, generationID uuid.UUID, slot int, data []byte, contentType string) (string, error)
}

// TemplateLister serves the template catalog, possibly from a cache.
type TemplateLister interface {
	List(ctx context.Context) ([]repository.Template, error)
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Generations repository.GenerationRepository
	Templates   repository.TemplateRepository
	Lister      TemplateLister
	Leads       LeadDirectory
	Fetcher     PhotoFetcher
	Renderer    Renderer
	Store       VariantStore
	Bus         events.Bus
	Log         *logger.Logger

	// Deadline is the hard ceiling for the whole generation run.
	Deadline time.Duration
	// Variants is how many output slots each generation attempts.
	Variants int
	// CapPerLead bounds generation rows per lead, failed runs included.
	CapPerLead int
}

// Service orchestrates photo generations and reads their status.
type Service struct {
	deps Deps
}

// New creates the photobooth service.
func New(deps Deps) *Service {
	if deps.Variants < 1 {
		deps.Variants = 1
	}
	return &Service{deps: deps}
}

// variantOutcome is the in-memory result of one slot's render+upload.
type variantOutcome struct {
	url string
	err error
	// internal marks failures in our own infrastructure (storage, bugs)
	// as opposed to the external model call.
	internal bool
}

// Generate runs one photo generation end to end and blocks until the
// terminal record is written. The caller disconnecting does not abort
// the run: the work and the terminal write proceed on a detached
// context so a later status poll never finds the row stuck in
// processing.
//
// The cap check and the row insert are two separate statements, so two
// simultaneous requests from the same lead can race one generation past
// the cap. The window is a handful of milliseconds against a human
// pressing a button; the cap is a cost guard, not an invariant worth a
// serializable transaction.
func (s *Service) Generate(ctx context.Context, leadID uuid.UUID, photoURL, templateSlug string) (repository.Generation, error) {
	exists, err := s.deps.Leads.Exists(ctx, leadID)
	if err != nil {
		return repository.Generation{}, apperr.Wrap(apperr.KindInternal, "failed to verify lead", err).WithOp("photobooth.Generate")
	}
	if !exists {
		return repository.Generation{}, apperr.NotFound("lead not found").WithCode(CodeLeadNotFound)
	}

	tmpl, found, err := s.deps.Templates.GetTemplate(ctx, templateSlug)
	if err != nil {
		return repository.Generation{}, apperr.Wrap(apperr.KindInternal, "failed to load template", err).WithOp("photobooth.Generate")
	}
	if !found {
		return repository.Generation{}, apperr.Validation(fmt.Sprintf("unknown photo template %q", templateSlug))
	}

	count, err := s.deps.Generations.CountByLead(ctx, leadID)
	if err != nil {
		return repository.Generation{}, apperr.Wrap(apperr.KindInternal, "failed to count generations", err).WithOp("photobooth.Generate")
	}
	if count >= s.deps.CapPerLead {
		return repository.Generation{}, apperr.LimitReached("photo generation limit reached for this lead").WithCode(CodeGenerationLimit)
	}

	img, err := s.deps.Fetcher.Fetch(ctx, photoURL)
	if err != nil {
		return repository.Generation{}, apperr.Wrap(apperr.KindValidation, "source photo could not be used", err).WithCode(CodeInvalidPhoto)
	}

	gen, err := s.deps.Generations.Create(ctx, repository.CreateParams{
		LeadID:       leadID,
		TemplateSlug: tmpl.Slug,
		SourceURL:    photoURL,
		Slots:        s.deps.Variants,
	})
	if err != nil {
		return repository.Generation{}, apperr.Wrap(apperr.KindInternal, "failed to create generation", err).WithOp("photobooth.Generate")
	}

	s.deps.Log.GenerationEvent("started", gen.ID.String(), leadID.String(), nil)

	// From here on the caller's cancellation must not reach the work:
	// the row exists and has to end terminal no matter what the client
	// connection does.
	detached := context.WithoutCancel(ctx)
	outcomes := s.renderVariants(detached, tmpl.Prompt, img, gen.ID)

	return s.finish(detached, gen, outcomes)
}

// renderVariants runs all slots concurrently under one shared deadline.
// Slots fail independently; one bad render does not cancel the rest.
func (s *Service) renderVariants(ctx context.Context, prompt string, img source.Image, generationID uuid.UUID) []variantOutcome {
	runCtx, cancel := context.WithTimeout(ctx, s.deps.Deadline)
	defer cancel()

	outcomes := make([]variantOutcome, s.deps.Variants)

	var g errgroup.Group
	for i := 0; i < s.deps.Variants; i++ {
		slot := i
		g.Go(func() error {
			rendered, err := s.deps.Renderer.Render(runCtx, prompt, img)
			if err != nil {
				outcomes[slot] = variantOutcome{err: fmt.Errorf("render: %w", err)}
				return nil
			}

			url, err := s.deps.Store.UploadVariant(runCtx, generationID, slot+1, rendered.Data, rendered.MIMEType)
			if err != nil {
				outcomes[slot] = variantOutcome{err: fmt.Errorf("store variant: %w", err), internal: true}
				return nil
			}

			outcomes[slot] = variantOutcome{url: url}
			return nil
		})
	}
	g.Wait()

	return outcomes
}

// finish writes the terminal record, publishes the domain event and
// maps the overall outcome onto the caller's error surface.
func (s *Service) finish(detached context.Context, gen repository.Generation, outcomes []variantOutcome) (repository.Generation, error) {
	var (
		results      = make([]repository.VariantResult, len(outcomes))
		urls         []string
		firstErr     error
		externalFail bool
	)
	for i, out := range outcomes {
		if out.err == nil {
			results[i] = repository.VariantResult{Slot: i + 1, Status: repository.VariantCompleted, URL: out.url}
			urls = append(urls, out.url)
			continue
		}
		results[i] = repository.VariantResult{Slot: i + 1, Status: repository.VariantFailed}
		if firstErr == nil {
			firstErr = out.err
		}
		if !out.internal {
			externalFail = true
		}
	}

	status := repository.StatusCompleted
	errorMessage := ""
	if len(urls) == 0 {
		status = repository.StatusFailed
		errorMessage = firstErr.Error()
	}

	// Bounded on its own: the run deadline may already be spent, but
	// this write is the one thing that must still happen.
	writeCtx, cancel := context.WithTimeout(detached, finishWriteBudget)
	defer cancel()

	if err := s.deps.Generations.Finish(writeCtx, repository.FinishParams{
		GenerationID: gen.ID,
		Status:       status,
		ErrorMessage: errorMessage,
		Variants:     results,
	}); err != nil {
		s.deps.Log.GenerationEvent("finish_write_failed", gen.ID.String(), gen.LeadID.String(), err)
		return repository.Generation{}, apperr.Wrap(apperr.KindInternal, "failed to persist generation outcome", err).WithOp("photobooth.Generate")
	}

	now := time.Now()
	gen.Status = status
	gen.ErrorMessage = errorMessage
	gen.CompletedAt = &now
	for i, res := range results {
		gen.Variants[i] = repository.Variant{Slot: res.Slot, Status: res.Status, URL: res.URL}
	}

	s.deps.Bus.Publish(detached, events.GenerationFinished{
		BaseEvent:    events.NewBaseEvent(),
		GenerationID: gen.ID,
		LeadID:       gen.LeadID,
		Status:       status,
		VariantURLs:  urls,
	})

	if status == repository.StatusFailed {
		s.deps.Log.GenerationEvent("failed", gen.ID.String(), gen.LeadID.String(), firstErr)
		details := map[string]string{"generationId": gen.ID.String()}
		if externalFail {
			return repository.Generation{}, apperr.Wrap(apperr.KindExternal, "image generation failed", firstErr).
				WithCode(CodeAIError).WithDetails(details)
		}
		return repository.Generation{}, apperr.Wrap(apperr.KindInternal, "image generation failed", firstErr).
			WithDetails(details)
	}

	s.deps.Log.GenerationEvent("completed", gen.ID.String(), gen.LeadID.String(), nil)
	return gen, nil
}

// Status returns the persisted generation record for polling clients.
func (s *Service) Status(ctx context.Context, id uuid.UUID) (repository.Generation, error) {
	gen, found, err := s.deps.Generations.GetByID(ctx, id)
	if err != nil {
		return repository.Generation{}, apperr.Wrap(apperr.KindInternal, "failed to load generation", err).WithOp("photobooth.Status")
	}
	if !found {
		return repository.Generation{}, apperr.NotFound("generation not found").WithCode(CodeGenerationNotFound)
	}
	return gen, nil
}

// Templates returns the active template catalog.
func (s *Service) Templates(ctx context.Context) ([]repository.Template, error) {
	templates, err := s.deps.Lister.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load templates", err).WithOp("photobooth.Templates")
	}
	return templates, nil
}
