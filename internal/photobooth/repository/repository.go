// Package repository provides PostgreSQL persistence for AI photo
// generations, their variants and the template catalog.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Generation statuses.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Variant statuses.
const (
	VariantPending   = "pending"
	VariantCompleted = "completed"
	VariantFailed    = "failed"
)

// Variant is one attempted output image of a generation.
type Variant struct {
	Slot   int
	Status string
	URL    string
}

// Generation is a photo generation request with its variant slots.
type Generation struct {
	ID           uuid.UUID
	LeadID       uuid.UUID
	TemplateSlug string
	SourceURL    string
	Status       string
	ErrorMessage string
	Variants     []Variant
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

// Template is an entry of the photo template catalog.
type Template struct {
	Slug       string    `json:"slug"`
	Name       string    `json:"name"`
	Prompt     string    `json:"-"`
	PreviewURL string    `json:"previewUrl"`
	Active     bool      `json:"-"`
	SortOrder  int       `json:"-"`
	CreatedAt  time.Time `json:"-"`
}

// CreateParams contains the fields for inserting a new generation.
type CreateParams struct {
	LeadID       uuid.UUID
	TemplateSlug string
	SourceURL    string
	Slots        int
}

// VariantResult is the terminal outcome of one variant slot.
type VariantResult struct {
	Slot   int
	Status string
	URL    string
}

// FinishParams contains the terminal state written for a generation.
type FinishParams struct {
	GenerationID uuid.UUID
	Status       string
	ErrorMessage string
	Variants     []VariantResult
}

// GenerationRepository is the persistence boundary for the photobooth module.
type GenerationRepository interface {
	// CountByLead returns how many generation rows exist for a lead,
	// terminal failures included.
	CountByLead(ctx context.Context, leadID uuid.UUID) (int, error)
	// Create inserts a processing generation row together with its
	// pending variant slots in one transaction.
	Create(ctx context.Context, params CreateParams) (Generation, error)
	// Finish writes the terminal status of a generation and its variants
	// in one transaction. Rows already terminal are left untouched.
	Finish(ctx context.Context, params FinishParams) error
	// GetByID returns a generation with its variants ordered by slot.
	// The bool reports whether a row was found.
	GetByID(ctx context.Context, id uuid.UUID) (Generation, bool, error)
	// ReapStale marks processing generations older than the cutoff as
	// failed, returning how many rows were reaped.
	ReapStale(ctx context.Context, olderThan time.Duration, message string) (int, error)
}

// TemplateRepository is the read boundary for the template catalog.
type TemplateRepository interface {
	// ListTemplates returns the active templates in display order.
	ListTemplates(ctx context.Context) ([]Template, error)
	// GetTemplate returns an active template by slug.
	// The bool reports whether a row was found.
	GetTemplate(ctx context.Context, slug string) (Template, bool, error)
}

// Repo implements GenerationRepository and TemplateRepository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new photobooth repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var (
	_ GenerationRepository = (*Repo)(nil)
	_ TemplateRepository   = (*Repo)(nil)
)

// CountByLead returns how many generation rows exist for a lead.
func (r *Repo) CountByLead(ctx context.Context, leadID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM ai_photo_generations WHERE lead_id = $1`, leadID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count generations by lead: %w", err)
	}
	return count, nil
}

// Create inserts a processing generation row with its pending variant slots.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Generation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Generation{}, fmt.Errorf("begin create generation: %w", err)
	}
	defer tx.Rollback(ctx)

	var g Generation
	err = tx.QueryRow(ctx, `
		INSERT INTO ai_photo_generations (lead_id, template_slug, source_url, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, lead_id, template_slug, source_url, status, created_at`,
		params.LeadID, params.TemplateSlug, params.SourceURL, StatusProcessing,
	).Scan(&g.ID, &g.LeadID, &g.TemplateSlug, &g.SourceURL, &g.Status, &g.CreatedAt)
	if err != nil {
		return Generation{}, fmt.Errorf("insert generation: %w", err)
	}

	g.Variants = make([]Variant, 0, params.Slots)
	for slot := 1; slot <= params.Slots; slot++ {
		_, err = tx.Exec(ctx, `
			INSERT INTO ai_photo_variants (generation_id, slot, status)
			VALUES ($1, $2, $3)`,
			g.ID, slot, VariantPending,
		)
		if err != nil {
			return Generation{}, fmt.Errorf("insert variant slot %d: %w", slot, err)
		}
		g.Variants = append(g.Variants, Variant{Slot: slot, Status: VariantPending})
	}

	if err := tx.Commit(ctx); err != nil {
		return Generation{}, fmt.Errorf("commit create generation: %w", err)
	}
	return g, nil
}

// Finish writes the terminal status of a generation and its variants.
func (r *Repo) Finish(ctx context.Context, params FinishParams) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin finish generation: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, v := range params.Variants {
		_, err = tx.Exec(ctx, `
			UPDATE ai_photo_variants
			SET status = $3, url = NULLIF($4, '')
			WHERE generation_id = $1 AND slot = $2`,
			params.GenerationID, v.Slot, v.Status, v.URL,
		)
		if err != nil {
			return fmt.Errorf("finish variant slot %d: %w", v.Slot, err)
		}
	}

	// The status guard keeps terminal rows immutable: a late writer
	// (e.g. the stale reaper racing the orchestrator) loses silently.
	result, err := tx.Exec(ctx, `
		UPDATE ai_photo_generations
		SET status = $2, error_message = NULLIF($3, ''), completed_at = NOW()
		WHERE id = $1 AND status = $4`,
		params.GenerationID, params.Status, params.ErrorMessage, StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("finish generation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil
	}

	return tx.Commit(ctx)
}

// GetByID returns a generation with its variants ordered by slot.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Generation, bool, error) {
	var (
		g        Generation
		errorMsg *string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, template_slug, source_url, status, error_message, created_at, completed_at
		FROM ai_photo_generations
		WHERE id = $1`, id,
	).Scan(&g.ID, &g.LeadID, &g.TemplateSlug, &g.SourceURL, &g.Status, &errorMsg, &g.CreatedAt, &g.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Generation{}, false, nil
		}
		return Generation{}, false, fmt.Errorf("get generation by id: %w", err)
	}
	if errorMsg != nil {
		g.ErrorMessage = *errorMsg
	}

	rows, err := r.pool.Query(ctx, `
		SELECT slot, status, COALESCE(url, '')
		FROM ai_photo_variants
		WHERE generation_id = $1
		ORDER BY slot`, id,
	)
	if err != nil {
		return Generation{}, false, fmt.Errorf("list generation variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.Slot, &v.Status, &v.URL); err != nil {
			return Generation{}, false, fmt.Errorf("scan generation variant: %w", err)
		}
		g.Variants = append(g.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return Generation{}, false, fmt.Errorf("iterate generation variants: %w", err)
	}

	return g, true, nil
}

// ReapStale marks processing generations older than the cutoff as failed.
// A crash mid-call is the only path that leaves a row in processing, so
// anything old enough is an interrupted run, not an in-flight one.
func (r *Repo) ReapStale(ctx context.Context, olderThan time.Duration, message string) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin reap stale: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE ai_photo_variants v
		SET status = $1
		FROM ai_photo_generations g
		WHERE v.generation_id = g.id
		  AND v.status = $2
		  AND g.status = $3
		  AND g.created_at < $4`,
		VariantFailed, VariantPending, StatusProcessing, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("reap stale variants: %w", err)
	}

	result, err := tx.Exec(ctx, `
		UPDATE ai_photo_generations
		SET status = $1, error_message = $2, completed_at = NOW()
		WHERE status = $3 AND created_at < $4`,
		StatusFailed, message, StatusProcessing, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("reap stale generations: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit reap stale: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// ListTemplates returns the active templates in display order.
func (r *Repo) ListTemplates(ctx context.Context) ([]Template, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT slug, name, prompt, COALESCE(preview_url, ''), active, sort_order, created_at
		FROM ai_photo_templates
		WHERE active
		ORDER BY sort_order, slug`,
	)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.Slug, &t.Name, &t.Prompt, &t.PreviewURL, &t.Active, &t.SortOrder, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}

	return templates, nil
}

// GetTemplate returns an active template by slug.
func (r *Repo) GetTemplate(ctx context.Context, slug string) (Template, bool, error) {
	var t Template
	err := r.pool.QueryRow(ctx, `
		SELECT slug, name, prompt, COALESCE(preview_url, ''), active, sort_order, created_at
		FROM ai_photo_templates
		WHERE slug = $1 AND active`, slug,
	).Scan(&t.Slug, &t.Name, &t.Prompt, &t.PreviewURL, &t.Active, &t.SortOrder, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Template{}, false, nil
		}
		return Template{}, false, fmt.Errorf("get template: %w", err)
	}
	return t, true, nil
}
