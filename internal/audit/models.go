package audit

import "time"

// Event is an immutable, append-only record of a call-lifecycle action.
//
// Invariants:
// - Events are never updated or deleted.
// - Capture is best-effort; dispatch and reconciliation must never block
//   on audit failures.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// LeadID and CorrelationID are set when known; stray completion
	// events carry only a correlation id.
	LeadID        string `json:"lead_id,omitempty" db:"lead_id"`
	CorrelationID string `json:"correlation_id,omitempty" db:"correlation_id"`

	// Detail is free-form context (error text, counts).
	Detail string `json:"detail,omitempty" db:"detail"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeLeadsImported   EventType = "leads_imported"
	EventTypeCampaignStarted EventType = "campaign_started"
	EventTypeLeadClaimed     EventType = "lead_claimed"
	EventTypeCallDispatched  EventType = "call_dispatched"
	EventTypeDispatchFailed  EventType = "dispatch_failed"
	EventTypeCallCompleted   EventType = "call_completed"
	EventTypeCallReaped      EventType = "call_reaped"
)
