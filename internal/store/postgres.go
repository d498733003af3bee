package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"voca-platform/internal/leads"
	"voca-platform/internal/wallet"
	"voca-platform/pkg/utils"

	"github.com/google/uuid"
)

// Postgres implements Store on the tables created by internal/db
// migrations: leads, wallet_balance (single-row projection, id=1),
// wallet_ledger (append-only, UNIQUE idempotency_key).
type Postgres struct {
	db *sql.DB
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, clock: time.Now}
}

func (s *Postgres) GetBalance(ctx context.Context) (int64, error) {
	const q = `SELECT balance FROM wallet_balance WHERE id = 1`
	var bal int64
	if err := s.db.QueryRowContext(ctx, q).Scan(&bal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return bal, nil
}

func (s *Postgres) InsertLeads(ctx context.Context, ls []leads.Lead) (int, error) {
	if len(ls) == 0 {
		return 0, nil
	}
	const q = `
INSERT INTO leads (id, name, phone, status, correlation_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,'',$5,$6)
`
	now := s.clock().UTC()
	count := 0
	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		for _, l := range ls {
			id := l.ID
			if id == "" {
				id = uuid.NewString()
			}
			status := l.Status
			if status == "" {
				status = leads.StatusPending
			}
			if _, err := tx.ExecContext(ctx, q, id, l.Name, l.Phone, status, now, now); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

const leadColumns = `id, name, phone, status, correlation_id,
       COALESCE(summary,''), COALESCE(sentiment,''), COALESCE(duration,''), COALESCE(recording_url,''),
       created_at, updated_at`

func scanLead(scan func(dest ...any) error) (leads.Lead, error) {
	var l leads.Lead
	err := scan(
		&l.ID,
		&l.Name,
		&l.Phone,
		&l.Status,
		&l.CorrelationID,
		&l.Summary,
		&l.Sentiment,
		&l.DurationLabel,
		&l.RecordingURL,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	return l, err
}

func (s *Postgres) ListLeadsByStatus(ctx context.Context, status leads.Status) ([]leads.Lead, error) {
	const q = `
SELECT ` + leadColumns + `
FROM leads
WHERE status = $1
ORDER BY created_at, id
`
	rows, err := s.db.QueryContext(ctx, q, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]leads.Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Postgres) BulkTransition(ctx context.Context, from, to leads.Status) (int64, error) {
	const q = `UPDATE leads SET status = $2, updated_at = $3 WHERE status = $1`
	res, err := s.db.ExecContext(ctx, q, from, to, s.clock().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Postgres) ClaimLead(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, ErrInvalidArgument
	}
	// Conditional flip: the WHERE clause is the claim. Zero rows means a
	// concurrent claimer (or an earlier pass) got there first.
	const q = `
UPDATE leads SET status = $2, updated_at = $3
WHERE id = $1 AND status = $4
`
	res, err := s.db.ExecContext(ctx, q, id, leads.StatusCalling, s.clock().UTC(), leads.StatusReady)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Postgres) AssignCorrelationID(ctx context.Context, id, correlationID string) error {
	if id == "" || correlationID == "" {
		return ErrInvalidArgument
	}
	const q = `
UPDATE leads SET correlation_id = $2, updated_at = $3
WHERE id = $1 AND correlation_id = ''
`
	res, err := s.db.ExecContext(ctx, q, id, correlationID, s.clock().UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) SetLeadStatus(ctx context.Context, id string, status leads.Status) error {
	if id == "" {
		return ErrInvalidArgument
	}
	const q = `UPDATE leads SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, q, id, status, s.clock().UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) CompleteLead(ctx context.Context, correlationID string, res leads.CompletionResult, costCredits int64) (bool, error) {
	if correlationID == "" {
		return false, ErrInvalidArgument
	}
	if costCredits < 0 {
		return false, ErrInvalidArgument
	}

	now := s.clock().UTC()
	found := false

	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		// Idempotency: a ledger entry keyed by this correlation id means the
		// event was already reconciled; re-delivery is a no-op.
		const findLedger = `
SELECT id FROM wallet_ledger WHERE idempotency_key = $1 LIMIT 1
`
		var existing string
		err := tx.QueryRowContext(ctx, findLedger, correlationID).Scan(&existing)
		if err == nil {
			found = true
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		const updateLead = `
UPDATE leads
SET status = $2, summary = $3, sentiment = $4, recording_url = $5, duration = $6, updated_at = $7
WHERE correlation_id = $1
RETURNING id
`
		var leadID string
		err = tx.QueryRowContext(ctx, updateLead,
			correlationID,
			leads.StatusCompleted,
			res.Summary,
			res.Sentiment,
			res.RecordingURL,
			res.DurationLabel,
			now,
		).Scan(&leadID)
		if errors.Is(err, sql.ErrNoRows) {
			// Stray event: no lead carries this correlation id. Not an error.
			return nil
		}
		if err != nil {
			return err
		}
		found = true

		const insertLedger = `
INSERT INTO wallet_ledger (id, type, amount, external_ref, idempotency_key, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`
		entry := wallet.LedgerEntry{
			ID:             uuid.NewString(),
			Type:           wallet.EntryTypeDebit,
			Credits:        -costCredits,
			ExternalRef:    leadID,
			IdempotencyKey: correlationID,
			CreatedAt:      now,
		}
		if _, err := tx.ExecContext(ctx, insertLedger,
			entry.ID, entry.Type, entry.Credits, entry.ExternalRef, entry.IdempotencyKey, entry.CreatedAt,
		); err != nil {
			return err
		}

		const debit = `
UPDATE wallet_balance SET balance = balance - $1, updated_at = $2 WHERE id = 1
`
		if _, err := tx.ExecContext(ctx, debit, costCredits, now); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func (s *Postgres) FailStaleCalling(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `
UPDATE leads SET status = $2, updated_at = $3
WHERE status = $1 AND updated_at < $4
`
	res, err := s.db.ExecContext(ctx, q, leads.StatusCalling, leads.StatusFailed, s.clock().UTC(), cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Postgres) LeadCounts(ctx context.Context) (LeadCounts, error) {
	const q = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE status = $1),
       COUNT(*) FILTER (WHERE status IN ($2, $3, $4))
FROM leads
`
	var c LeadCounts
	err := s.db.QueryRowContext(ctx, q,
		leads.StatusCompleted,
		leads.StatusPending, leads.StatusReady, leads.StatusCalling,
	).Scan(&c.Total, &c.Completed, &c.Pending)
	if err != nil {
		return LeadCounts{}, err
	}
	return c, nil
}

func (s *Postgres) SentimentCounts(ctx context.Context) ([]SentimentCount, error) {
	const q = `
SELECT COALESCE(sentiment,''), COUNT(*)
FROM leads
WHERE status = $1
GROUP BY sentiment
ORDER BY COUNT(*) DESC
`
	rows, err := s.db.QueryContext(ctx, q, leads.StatusCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SentimentCount, 0)
	for rows.Next() {
		var sc SentimentCount
		if err := rows.Scan(&sc.Sentiment, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *Postgres) RecentLeads(ctx context.Context, limit int) ([]leads.Lead, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
SELECT ` + leadColumns + `
FROM leads
ORDER BY created_at DESC, id DESC
LIMIT $1
`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]leads.Lead, 0, limit)
	for rows.Next() {
		l, err := scanLead(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
