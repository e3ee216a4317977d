// Package repository provides PostgreSQL persistence for leads.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"event_leads_backend/platform/apperr"
)

const leadNotFoundMessage = "lead not found"

// pgUniqueViolation is the Postgres error code for a unique constraint violation.
const pgUniqueViolation = "23505"

// ErrDuplicateContact signals that an insert lost a race against a concurrent
// writer inserting the same email or phone. Callers recover by re-querying.
var ErrDuplicateContact = errors.New("lead contact already exists")

// Lead is a registered event attendee.
type Lead struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	Origin    string
	Consent   bool
	CreatedAt time.Time
}

// CreateParams contains the fields for inserting a new lead.
type CreateParams struct {
	Name    string
	Email   string
	Phone   string
	Origin  string
	Consent bool
}

// LeadsRepository is the persistence boundary for the leads module.
type LeadsRepository interface {
	// FindByContact returns the lead matching the email OR the phone.
	// The bool reports whether a row was found.
	FindByContact(ctx context.Context, email, phone string) (Lead, bool, error)
	// Insert creates a new lead row. Returns ErrDuplicateContact when a
	// uniqueness constraint on email or phone rejects the write.
	Insert(ctx context.Context, params CreateParams) (Lead, error)
	// UpdateName replaces the display name of an existing lead.
	UpdateName(ctx context.Context, id uuid.UUID, name string) error
	// GetByID returns a lead by identifier, apperr.NotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	// Exists reports whether a lead row exists.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Repo implements LeadsRepository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ LeadsRepository = (*Repo)(nil)

// FindByContact returns the lead matching the email OR the phone.
func (r *Repo) FindByContact(ctx context.Context, email, phone string) (Lead, bool, error) {
	query := `
		SELECT id, name, email, phone, origin, consent, created_at
		FROM leads
		WHERE email = $1 OR phone = $2
		LIMIT 1`

	var l Lead
	err := r.pool.QueryRow(ctx, query, email, phone).Scan(
		&l.ID, &l.Name, &l.Email, &l.Phone, &l.Origin, &l.Consent, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, false, nil
		}
		return Lead{}, false, fmt.Errorf("find lead by contact: %w", err)
	}

	return l, true, nil
}

// Insert creates a new lead row.
func (r *Repo) Insert(ctx context.Context, params CreateParams) (Lead, error) {
	query := `
		INSERT INTO leads (name, email, phone, origin, consent)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, email, phone, origin, consent, created_at`

	var l Lead
	err := r.pool.QueryRow(ctx, query,
		params.Name, params.Email, params.Phone, params.Origin, params.Consent,
	).Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.Origin, &l.Consent, &l.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Lead{}, fmt.Errorf("insert lead: %w", ErrDuplicateContact)
		}
		return Lead{}, fmt.Errorf("insert lead: %w", err)
	}

	return l, nil
}

// UpdateName replaces the display name of an existing lead.
// Contact fields are identity keys and are never updated by this path.
func (r *Repo) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	result, err := r.pool.Exec(ctx, `UPDATE leads SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("update lead name: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMessage)
	}
	return nil
}

// GetByID returns a lead by identifier.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	query := `
		SELECT id, name, email, phone, origin, consent, created_at
		FROM leads
		WHERE id = $1`

	var l Lead
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.Name, &l.Email, &l.Phone, &l.Origin, &l.Consent, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return Lead{}, fmt.Errorf("get lead by id: %w", err)
	}

	return l, nil
}

// Exists reports whether a lead row exists.
func (r *Repo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM leads WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check lead exists: %w", err)
	}
	return exists, nil
}
