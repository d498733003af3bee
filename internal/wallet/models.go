package wallet

import "time"

// The platform runs a single prepaid credit pool. Balance is expressed in
// whole credit units and is monotonically decreasing except for external
// top-ups (performed out of band, directly against storage).
//
// Money invariant: the balance is only ever decremented by completion
// reconciliation, and never without a corresponding ledger entry.

// Balance is the current credit balance snapshot.
type Balance struct {
	Credits   int64     `json:"credits" db:"balance"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// LedgerEntry is an immutable append-only record of a balance change.
//
// IdempotencyKey makes money posting safe under duplicate delivery: call
// usage debits are keyed by the call's correlation id, so a re-delivered
// completion event posts at most once.
type LedgerEntry struct {
	ID   string    `json:"id" db:"id"`
	Type EntryType `json:"type" db:"type"`

	// Credits is the signed amount: credits are positive, debits negative.
	Credits int64 `json:"credits" db:"amount"`

	// ExternalRef links the entry to its source (e.g. a lead id).
	ExternalRef string `json:"external_ref,omitempty" db:"external_ref"`

	IdempotencyKey string `json:"idempotency_key" db:"idempotency_key"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EntryType string

const (
	EntryTypeCredit EntryType = "credit" // top-up, adjustment
	EntryTypeDebit  EntryType = "debit"  // call usage charge
)
