package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"LeadScanner/internal/domain"
	"LeadScanner/internal/ports"
)

const (
	leadsTable    = "leads"
	schemaTimeout = 10 * time.Second
)

const schemaDDL = `CREATE TABLE IF NOT EXISTS leads (
    id          TEXT PRIMARY KEY,
    run_id      TEXT NOT NULL,
    company     TEXT NOT NULL,
    summary     TEXT NOT NULL,
    product     TEXT NOT NULL,
    category    TEXT NOT NULL DEFAULT '',
    pitch       TEXT NOT NULL DEFAULT '',
    roi         TEXT NOT NULL DEFAULT '',
    score       INTEGER NOT NULL CHECK (score BETWEEN 0 AND 100),
    grade       TEXT NOT NULL,
    confidence  TEXT NOT NULL,
    origin      TEXT NOT NULL,
    sources     JSONB NOT NULL,
    assumptions TEXT[] NOT NULL DEFAULT '{}',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS leads_run_id_idx ON leads (run_id);`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var leadColumns = []string{
	"id", "run_id", "company", "summary", "product", "category", "pitch", "roi",
	"score", "grade", "confidence", "origin", "sources", "assumptions",
}

// PostgresRepository persists finished leads into Postgres.
type PostgresRepository struct {
	db     *sql.DB
	ensure func() error
}

var (
	_ ports.LeadRepository = (*PostgresRepository)(nil)
	_ ports.LeadReader     = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a sql.DB implementation. The schema is created
// at most once per repository; the first outcome, success or failure, is kept.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	r := &PostgresRepository{db: db}
	r.ensure = sync.OnceValue(r.createSchema)
	return r
}

// EnsureSchema creates the leads table on first use.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.ensure()
}

func (r *PostgresRepository) createSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("create leads schema: %w", err)
	}
	return nil
}

// SaveLeads inserts the leads of one run in a single statement.
func (r *PostgresRepository) SaveLeads(ctx context.Context, runID string, leads []domain.LeadCandidate) error {
	if r.db == nil || len(leads) == 0 {
		return nil
	}

	insert := psql.Insert(leadsTable).Columns(leadColumns...)
	for _, lead := range leads {
		sources, err := json.Marshal(lead.Sources)
		if err != nil {
			return fmt.Errorf("marshal sources of %s: %w", lead.ID, err)
		}
		insert = insert.Values(
			lead.ID,
			runID,
			lead.Company,
			lead.Summary,
			lead.Product,
			lead.Category,
			lead.Pitch,
			lead.ROI,
			lead.Score,
			string(lead.Grade),
			string(lead.Confidence),
			string(lead.Origin),
			sources,
			pq.Array(nonNil(lead.Assumptions)),
		)
	}

	query, args, err := insert.Suffix("ON CONFLICT (id) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert leads: %w", err)
	}
	return nil
}

// LeadsByRun returns the leads of one run, best first.
func (r *PostgresRepository) LeadsByRun(ctx context.Context, runID string) ([]domain.LeadCandidate, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := psql.Select(leadColumns...).
		From(leadsTable).
		Where(sq.Eq{"run_id": runID}).
		OrderBy("score DESC", "company").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	var leads []domain.LeadCandidate
	for rows.Next() {
		var (
			lead    domain.LeadCandidate
			run     string
			sources []byte
		)
		if err := rows.Scan(
			&lead.ID, &run, &lead.Company, &lead.Summary, &lead.Product, &lead.Category,
			&lead.Pitch, &lead.ROI, &lead.Score, &lead.Grade, &lead.Confidence, &lead.Origin,
			&sources, pq.Array(&lead.Assumptions),
		); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		if err := json.Unmarshal(sources, &lead.Sources); err != nil {
			return nil, fmt.Errorf("decode sources of %s: %w", lead.ID, err)
		}
		leads = append(leads, lead)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return leads, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
