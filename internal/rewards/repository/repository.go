// Package repository provides PostgreSQL persistence for reward issuances.
//
// Each reward domain (prize wheel, survey gift) has its own table with a
// uniqueness constraint on lead_id. That constraint is the only arbiter of
// the at-most-once guarantee: concurrent issuers race on the insert and the
// loser reads back the winner's row.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// ErrAlreadyIssued signals that an insert lost the issuance race for a lead.
var ErrAlreadyIssued = errors.New("reward already issued for lead")

// Issuance is the durable reward of a lead within one domain.
type Issuance struct {
	LeadID    uuid.UUID
	PrizeSlug string
	PrizeName string
	IssuedAt  time.Time
}

// InsertParams contains the fields for persisting a new issuance.
// Answers is only written for domains that record survey answers.
type InsertParams struct {
	LeadID    uuid.UUID
	PrizeSlug string
	PrizeName string
	Answers   map[string]string
}

// Tables backing the two reward domains. The table name is interpolated
// into SQL, so only these constants may ever be passed in.
const (
	TablePrizeWheelSpins = "prize_wheel_spins"
	TableSurveyResponses = "survey_responses"
)

// IssuanceRepository is the persistence boundary for the rewards module.
type IssuanceRepository interface {
	// FindByLead returns the issuance for a lead within the given table.
	// The bool reports whether a row was found.
	FindByLead(ctx context.Context, table string, leadID uuid.UUID) (Issuance, bool, error)
	// Insert persists a new issuance. Returns ErrAlreadyIssued when the
	// lead_id uniqueness constraint rejects the write.
	Insert(ctx context.Context, table string, params InsertParams) (Issuance, error)
}

// Repo implements IssuanceRepository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new rewards repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ IssuanceRepository = (*Repo)(nil)

// FindByLead returns the issuance for a lead within the given table.
func (r *Repo) FindByLead(ctx context.Context, table string, leadID uuid.UUID) (Issuance, bool, error) {
	if err := checkTable(table); err != nil {
		return Issuance{}, false, err
	}

	query := fmt.Sprintf(`
		SELECT lead_id, prize_slug, prize_name, created_at
		FROM %s
		WHERE lead_id = $1`, table)

	var iss Issuance
	err := r.pool.QueryRow(ctx, query, leadID).Scan(
		&iss.LeadID, &iss.PrizeSlug, &iss.PrizeName, &iss.IssuedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Issuance{}, false, nil
		}
		return Issuance{}, false, fmt.Errorf("find issuance in %s: %w", table, err)
	}

	return iss, true, nil
}

// Insert persists a new issuance row.
func (r *Repo) Insert(ctx context.Context, table string, params InsertParams) (Issuance, error) {
	if err := checkTable(table); err != nil {
		return Issuance{}, err
	}

	var (
		query string
		args  []interface{}
	)
	if params.Answers != nil {
		answers, err := json.Marshal(params.Answers)
		if err != nil {
			return Issuance{}, fmt.Errorf("marshal answers: %w", err)
		}
		query = fmt.Sprintf(`
			INSERT INTO %s (lead_id, prize_slug, prize_name, answers)
			VALUES ($1, $2, $3, $4)
			RETURNING lead_id, prize_slug, prize_name, created_at`, table)
		args = []interface{}{params.LeadID, params.PrizeSlug, params.PrizeName, answers}
	} else {
		query = fmt.Sprintf(`
			INSERT INTO %s (lead_id, prize_slug, prize_name)
			VALUES ($1, $2, $3)
			RETURNING lead_id, prize_slug, prize_name, created_at`, table)
		args = []interface{}{params.LeadID, params.PrizeSlug, params.PrizeName}
	}

	var iss Issuance
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&iss.LeadID, &iss.PrizeSlug, &iss.PrizeName, &iss.IssuedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Issuance{}, fmt.Errorf("insert issuance in %s: %w", table, ErrAlreadyIssued)
		}
		return Issuance{}, fmt.Errorf("insert issuance in %s: %w", table, err)
	}

	return iss, nil
}

func checkTable(table string) error {
	switch table {
	case TablePrizeWheelSpins, TableSurveyResponses:
		return nil
	default:
		return fmt.Errorf("unknown issuance table %q", table)
	}
}
