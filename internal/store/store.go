// Package store is the narrow persistence boundary shared by the
// dispatcher, the completion reconciler and the HTTP surface.
//
// Concurrency contract: every operation is safe under concurrent
// invocation. The two hazardous writes are each atomic at this layer:
// - ClaimLead is a conditional ready->calling flip (no read-then-write),
//   so a lead can be claimed at most once;
// - CompleteLead pairs the lead update, the ledger entry and the balance
//   decrement in a single transaction, keyed idempotent by correlation id.
package store

import (
	"context"
	"errors"
	"time"

	"voca-platform/internal/leads"
)

var (
	ErrNotFound        = errors.New("store: not found")
	ErrInvalidArgument = errors.New("store: invalid argument")
)

// LeadCounts is the dashboard aggregate over lead statuses.
// Pending groups the non-terminal statuses (pending, ready, calling).
type LeadCounts struct {
	Total     int64 `json:"total_leads"`
	Completed int64 `json:"completed_calls"`
	Pending   int64 `json:"pending_calls"`
}

// SentimentCount is the per-sentiment tally among completed calls.
type SentimentCount struct {
	Sentiment string `json:"sentiment"`
	Count     int64  `json:"count"`
}

type Store interface {
	// GetBalance returns the current credit balance.
	GetBalance(ctx context.Context) (int64, error)

	// InsertLeads persists imported leads and returns the count inserted.
	InsertLeads(ctx context.Context, ls []leads.Lead) (int, error)

	// ListLeadsByStatus returns a snapshot of leads in the given status.
	ListLeadsByStatus(ctx context.Context, status leads.Status) ([]leads.Lead, error)

	// BulkTransition moves every lead in from-status to to-status and
	// returns the count affected (campaign start: pending -> ready).
	BulkTransition(ctx context.Context, from, to leads.Status) (int64, error)

	// ClaimLead atomically flips a lead from ready to calling.
	// Returns false when the lead was not in ready state (already claimed).
	ClaimLead(ctx context.Context, id string) (bool, error)

	// AssignCorrelationID records the dial correlation id on a claimed
	// lead. The id is set exactly once; a second assignment is ErrNotFound.
	AssignCorrelationID(ctx context.Context, id, correlationID string) error

	// SetLeadStatus force-sets a lead's status (dispatch failure path).
	SetLeadStatus(ctx context.Context, id string, status leads.Status) error

	// CompleteLead finalizes the lead matching correlationID and debits
	// the balance by costCredits in one transaction. Returns false when no
	// lead matched (stray event). Duplicate delivery of the same
	// correlation id debits at most once and returns true.
	CompleteLead(ctx context.Context, correlationID string, res leads.CompletionResult, costCredits int64) (bool, error)

	// FailStaleCalling fails leads stuck in calling state since before
	// cutoff. Returns the count reaped.
	FailStaleCalling(ctx context.Context, cutoff time.Time) (int64, error)

	// Dashboard read model.
	LeadCounts(ctx context.Context) (LeadCounts, error)
	SentimentCounts(ctx context.Context) ([]SentimentCount, error)
	RecentLeads(ctx context.Context, limit int) ([]leads.Lead, error)
}
