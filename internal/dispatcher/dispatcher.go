// Package dispatcher runs the campaign loop: it polls for ready leads,
// gates dispatch on the credit balance, claims each lead and hands it to
// the dialer.
//
// Double-dispatch safety rests on ordering, not timing: the claim (an
// atomic ready->calling flip at the store) happens before any network
// call, so a lead that reaches the dialer can never be picked up again.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"voca-platform/internal/audit"
	"voca-platform/internal/dialer"
	"voca-platform/internal/leads"
	"voca-platform/internal/store"
)

// Config carries the dispatch policy knobs.
type Config struct {
	// MinBalance gates dispatch: when the balance is below it, a pass
	// touches no leads.
	MinBalance int64

	PollInterval  time.Duration
	IdleInterval  time.Duration
	ErrorInterval time.Duration

	// StuckCallTimeout, when positive, fails leads left in calling state
	// longer than this at the top of each pass.
	StuckCallTimeout time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	if out.MinBalance <= 0 {
		out.MinBalance = 10
	}
	if out.PollInterval <= 0 {
		out.PollInterval = 5 * time.Second
	}
	if out.IdleInterval <= 0 {
		out.IdleInterval = 10 * time.Second
	}
	if out.ErrorInterval <= 0 {
		out.ErrorInterval = 10 * time.Second
	}
	return out
}

// SlotAcquirer bounds concurrent in-flight calls. Implementations must be
// safe for concurrent use; see RedisLimiter.
type SlotAcquirer interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context)
}

type Dispatcher struct {
	store  store.Store
	dialer dialer.Dialer
	cfg    Config

	log     *slog.Logger
	limiter SlotAcquirer
	audit   *audit.Service
	clock   func() time.Time
}

type Option func(*Dispatcher)

func WithLogger(l *slog.Logger) Option      { return func(d *Dispatcher) { d.log = l } }
func WithLimiter(l SlotAcquirer) Option     { return func(d *Dispatcher) { d.limiter = l } }
func WithAudit(a *audit.Service) Option     { return func(d *Dispatcher) { d.audit = a } }
func WithClock(c func() time.Time) Option   { return func(d *Dispatcher) { d.clock = c } }

func New(st store.Store, dl dialer.Dialer, cfg Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:  st,
		dialer: dl,
		cfg:    cfg.withDefaults(),
		log:    slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run is the never-terminating campaign loop. It returns only when ctx is
// cancelled; store and provider failures are logged and retried after a
// backoff. Process lifecycle belongs to an external supervisor.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.log.Info("dispatcher started",
		"min_balance", d.cfg.MinBalance,
		"poll_interval", d.cfg.PollInterval,
	)
	for {
		wait, err := d.runPass(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.log.Error("dispatch pass failed", "err", err)
			wait = d.cfg.ErrorInterval
		}
		if !sleepCtx(ctx, wait) {
			return ctx.Err()
		}
	}
}

// runPass performs one iteration and returns how long to sleep before the
// next. Per-lead dispatch failures are contained inside dispatch; only
// store-level failures surface as pass errors.
func (d *Dispatcher) runPass(ctx context.Context) (time.Duration, error) {
	d.reapStuckCalls(ctx)

	balance, err := d.store.GetBalance(ctx)
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	if balance < d.cfg.MinBalance {
		d.log.Warn("balance below threshold, pausing dispatch", "balance", balance, "min_balance", d.cfg.MinBalance)
		return d.cfg.IdleInterval, nil
	}

	ready, err := d.store.ListLeadsByStatus(ctx, leads.StatusReady)
	if err != nil {
		return 0, fmt.Errorf("list ready leads: %w", err)
	}

	for _, l := range ready {
		// The snapshot can be long and calls are slow; re-check the
		// balance before each claim and leave the remainder for the next
		// pass once it drops below the threshold.
		balance, err := d.store.GetBalance(ctx)
		if err != nil {
			return 0, fmt.Errorf("re-check balance: %w", err)
		}
		if balance < d.cfg.MinBalance {
			d.log.Warn("balance depleted mid-pass, deferring remaining leads", "balance", balance)
			break
		}
		d.dispatch(ctx, l)
	}

	return d.cfg.PollInterval, nil
}

// dispatch claims one lead and dials it. Any failure downgrades only this
// lead to failed; the pass continues.
func (d *Dispatcher) dispatch(ctx context.Context, l leads.Lead) {
	log := d.log.With("lead_id", l.ID, "phone", l.Phone)

	if d.limiter != nil {
		ok, err := d.limiter.Acquire(ctx)
		if err != nil {
			log.Warn("call slot acquire failed, deferring lead", "err", err)
			return
		}
		if !ok {
			log.Debug("concurrent call cap reached, deferring lead")
			return
		}
	}

	claimed, err := d.store.ClaimLead(ctx, l.ID)
	if err != nil {
		log.Error("lead claim failed", "err", err)
		d.releaseSlot(ctx)
		return
	}
	if !claimed {
		// Raced with another pass; the lead is no longer ready.
		d.releaseSlot(ctx)
		return
	}
	d.audit.Record(ctx, audit.EventTypeLeadClaimed, l.ID, "", "")
	log.Info("lead claimed, dialing")

	correlationID, err := d.dialer.Dial(ctx, l.Phone, l.Name)
	if err != nil {
		log.Error("dial failed", "err", err)
		d.failLead(ctx, l.ID, err)
		d.releaseSlot(ctx)
		return
	}

	if err := d.store.AssignCorrelationID(ctx, l.ID, correlationID); err != nil {
		// Without the correlation id the completion event can never be
		// matched back; the lead would hang in calling forever.
		log.Error("correlation id persist failed", "correlation_id", correlationID, "err", err)
		d.failLead(ctx, l.ID, err)
		d.releaseSlot(ctx)
		return
	}

	d.audit.Record(ctx, audit.EventTypeCallDispatched, l.ID, correlationID, "")
	log.Info("call dispatched", "correlation_id", correlationID)
}

func (d *Dispatcher) failLead(ctx context.Context, id string, cause error) {
	if err := d.store.SetLeadStatus(ctx, id, leads.StatusFailed); err != nil {
		d.log.Error("failed-state write failed", "lead_id", id, "err", err)
	}
	d.audit.Record(ctx, audit.EventTypeDispatchFailed, id, "", cause.Error())
}

func (d *Dispatcher) reapStuckCalls(ctx context.Context) {
	if d.cfg.StuckCallTimeout <= 0 {
		return
	}
	cutoff := d.clock().Add(-d.cfg.StuckCallTimeout)
	n, err := d.store.FailStaleCalling(ctx, cutoff)
	if err != nil {
		d.log.Warn("stuck call reap failed", "err", err)
		return
	}
	if n > 0 {
		d.log.Warn("reaped stuck calls", "count", n, "older_than", d.cfg.StuckCallTimeout)
		d.audit.Record(ctx, audit.EventTypeCallReaped, "", "", fmt.Sprintf("reaped %d calls", n))
	}
}

func (d *Dispatcher) releaseSlot(ctx context.Context) {
	if d.limiter != nil {
		d.limiter.Release(ctx)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
