package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo appends events to the audit_events table (insert-only).
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (id, type, lead_id, correlation_id, detail, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`
	_, err := r.db.ExecContext(ctx, q, e.ID, e.Type, e.LeadID, e.CorrelationID, e.Detail, e.CreatedAt)
	return err
}
