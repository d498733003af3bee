package leads

import "time"

// Lead is a contact record targeted for an outbound campaign call.
//
// Lifecycle invariant: pending -> ready -> calling -> completed|failed.
// No transition ever moves a lead backward. CorrelationID is set exactly
// once, at dispatch time, and is non-empty iff the lead has reached
// calling or a terminal state through dispatch.
type Lead struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Phone string `json:"phone" db:"phone"`

	Status Status `json:"status" db:"status"`

	// CorrelationID is the voice-AI call id linking this lead to its
	// eventual completion event.
	CorrelationID string `json:"call_id,omitempty" db:"correlation_id"`

	// Outcome fields, populated on completion.
	Summary   string `json:"summary,omitempty" db:"summary"`
	Sentiment string `json:"sentiment,omitempty" db:"sentiment"`

	// DurationLabel is the human-readable billed duration (e.g. "2 min").
	DurationLabel string `json:"duration,omitempty" db:"duration"`

	RecordingURL string `json:"recording_url,omitempty" db:"recording_url"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	// StatusPending is the initial state after bulk import.
	StatusPending Status = "pending"
	// StatusReady marks a lead eligible for dispatch (campaign started).
	StatusReady Status = "ready"
	// StatusCalling marks a claimed lead with a call in flight.
	StatusCalling Status = "calling"
	// StatusCompleted is terminal: a completion event was reconciled.
	StatusCompleted Status = "completed"
	// StatusFailed is terminal: dispatch failed (or the call was reaped).
	StatusFailed Status = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CompletionResult carries the outcome fields extracted from a
// call-ended event, ready to be written onto the matching lead.
type CompletionResult struct {
	Summary       string
	Sentiment     string
	RecordingURL  string
	DurationLabel string
}
