// Package reconciler consumes the voice-AI provider's out-of-band
// call-ended notifications and folds them into lead state and billing.
//
// Invocations carry no ordering guarantee relative to each other or to
// dispatcher passes; all state coordination happens at the store, where
// the completion write is transactional and keyed idempotent by
// correlation id.
package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"voca-platform/internal/audit"
	"voca-platform/internal/leads"
	"voca-platform/internal/pricing"
	"voca-platform/internal/store"
)

// EventCallEnded is the only event type that mutates state. Every other
// type is accepted and ignored.
const EventCallEnded = "call.ended"

// fallbackDurationSeconds substitutes for an unparseable duration value;
// the request must still succeed.
const fallbackDurationSeconds = 60

const (
	defaultSummary   = "No summary available"
	defaultSentiment = "Unknown"
)

// ErrMissingCallID marks a call.ended payload without a correlation id.
// The HTTP layer maps it to a client error.
var ErrMissingCallID = errors.New("reconciler: call.ended event missing callId")

// Event is the provider webhook payload.
type Event struct {
	Event string      `json:"event"`
	Call  CallPayload `json:"call"`
}

// CallPayload carries the terminal call facts. Duration stays raw because
// the provider delivers it either as an integer (seconds) or a string
// with a unit suffix ("42s").
type CallPayload struct {
	CallID       string          `json:"callId"`
	ShortSummary string          `json:"shortSummary"`
	Sentiment    string          `json:"sentiment"`
	RecordingURL string          `json:"recordingUrl"`
	Duration     json.RawMessage `json:"duration"`
}

// SlotReleaser frees the concurrent-call slot held since dispatch.
type SlotReleaser interface {
	Release(ctx context.Context)
}

type Reconciler struct {
	store   store.Store
	calc    pricing.Calculator
	log     *slog.Logger
	audit   *audit.Service
	limiter SlotReleaser
}

type Option func(*Reconciler)

func WithLogger(l *slog.Logger) Option    { return func(r *Reconciler) { r.log = l } }
func WithAudit(a *audit.Service) Option   { return func(r *Reconciler) { r.audit = a } }
func WithLimiter(s SlotReleaser) Option   { return func(r *Reconciler) { r.limiter = s } }

func New(st store.Store, calc pricing.Calculator, opts ...Option) *Reconciler {
	r := &Reconciler{store: st, calc: calc, log: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleEvent processes one provider notification. Non-terminal events
// are a no-op. Duplicate delivery of the same terminal event debits the
// balance at most once.
func (r *Reconciler) HandleEvent(ctx context.Context, ev Event) error {
	if ev.Event != EventCallEnded {
		r.log.Debug("ignoring non-terminal event", "event", ev.Event)
		return nil
	}
	if ev.Call.CallID == "" {
		return ErrMissingCallID
	}

	seconds := ParseDurationSeconds(ev.Call.Duration)
	cost, billedMinutes := r.calc.CallCost(seconds)

	res := leads.CompletionResult{
		Summary:       orDefault(ev.Call.ShortSummary, defaultSummary),
		Sentiment:     orDefault(ev.Call.Sentiment, defaultSentiment),
		RecordingURL:  ev.Call.RecordingURL,
		DurationLabel: pricing.DurationLabel(billedMinutes),
	}

	found, err := r.store.CompleteLead(ctx, ev.Call.CallID, res, cost)
	if err != nil {
		return fmt.Errorf("reconciler: complete lead: %w", err)
	}
	if !found {
		// Stray or early event: no lead carries this correlation id.
		r.log.Warn("completion event matched no lead", "correlation_id", ev.Call.CallID)
		return nil
	}

	if r.limiter != nil {
		r.limiter.Release(ctx)
	}
	r.audit.Record(ctx, audit.EventTypeCallCompleted, "", ev.Call.CallID,
		fmt.Sprintf("billed %d min, cost %d credits", billedMinutes, cost))
	r.log.Info("call reconciled",
		"correlation_id", ev.Call.CallID,
		"duration_seconds", seconds,
		"billed_minutes", billedMinutes,
		"cost", cost,
		"sentiment", res.Sentiment,
	)
	return nil
}

// ParseDurationSeconds leniently extracts a duration from the provider
// payload: a JSON number is taken as seconds, a string has its unit
// suffix stripped ("42s" -> 42). Anything unparseable falls back to 60
// seconds; a missing value means zero.
func ParseDurationSeconds(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		cleaned := strings.ReplaceAll(strings.TrimSpace(s), "s", "")
		if v, err := strconv.Atoi(cleaned); err == nil {
			return v
		}
	}

	return fallbackDurationSeconds
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
