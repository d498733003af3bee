package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"voca-platform/internal/leads"
	"voca-platform/internal/wallet"

	"github.com/google/uuid"
)

// Memory is an in-memory Store for tests and early development.
// It mirrors the Postgres semantics, including the conditional claim and
// the idempotent completion debit. Not intended for production use.
type Memory struct {
	mu sync.Mutex

	leads   map[string]leads.Lead
	order   []string // insertion order, for stable listings
	balance int64
	ledger  []wallet.LedgerEntry
	byKey   map[string]int // idempotency_key -> ledger index

	// Clock is injectable for deterministic tests.
	Clock func() time.Time
}

func NewMemory(initialBalance int64) *Memory {
	return &Memory{
		leads:   map[string]leads.Lead{},
		balance: initialBalance,
		byKey:   map[string]int{},
		Clock:   time.Now,
	}
}

func (m *Memory) now() time.Time { return m.Clock().UTC() }

func (m *Memory) GetBalance(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance, nil
}

func (m *Memory) InsertLeads(ctx context.Context, ls []leads.Lead) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for _, l := range ls {
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		if l.Status == "" {
			l.Status = leads.StatusPending
		}
		if l.CreatedAt.IsZero() {
			l.CreatedAt = now
		}
		l.UpdatedAt = now
		m.leads[l.ID] = l
		m.order = append(m.order, l.ID)
	}
	return len(ls), nil
}

func (m *Memory) ListLeadsByStatus(ctx context.Context, status leads.Status) ([]leads.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]leads.Lead, 0)
	for _, id := range m.order {
		if l := m.leads[id]; l.Status == status {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *Memory) BulkTransition(ctx context.Context, from, to leads.Status) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var n int64
	for id, l := range m.leads {
		if l.Status == from {
			l.Status = to
			l.UpdatedAt = now
			m.leads[id] = l
			n++
		}
	}
	return n, nil
}

func (m *Memory) ClaimLead(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok || l.Status != leads.StatusReady {
		return false, nil
	}
	l.Status = leads.StatusCalling
	l.UpdatedAt = m.now()
	m.leads[id] = l
	return true, nil
}

func (m *Memory) AssignCorrelationID(ctx context.Context, id, correlationID string) error {
	if id == "" || correlationID == "" {
		return ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok || l.CorrelationID != "" {
		return ErrNotFound
	}
	l.CorrelationID = correlationID
	l.UpdatedAt = m.now()
	m.leads[id] = l
	return nil
}

func (m *Memory) SetLeadStatus(ctx context.Context, id string, status leads.Status) error {
	if id == "" {
		return ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return ErrNotFound
	}
	l.Status = status
	l.UpdatedAt = m.now()
	m.leads[id] = l
	return nil
}

func (m *Memory) CompleteLead(ctx context.Context, correlationID string, res leads.CompletionResult, costCredits int64) (bool, error) {
	if correlationID == "" {
		return false, ErrInvalidArgument
	}
	if costCredits < 0 {
		return false, ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, done := m.byKey[correlationID]; done {
		return true, nil
	}

	var target string
	for _, id := range m.order {
		if m.leads[id].CorrelationID == correlationID {
			target = id
			break
		}
	}
	if target == "" {
		return false, nil
	}

	now := m.now()
	l := m.leads[target]
	l.Status = leads.StatusCompleted
	l.Summary = res.Summary
	l.Sentiment = res.Sentiment
	l.RecordingURL = res.RecordingURL
	l.DurationLabel = res.DurationLabel
	l.UpdatedAt = now
	m.leads[target] = l

	m.ledger = append(m.ledger, wallet.LedgerEntry{
		ID:             uuid.NewString(),
		Type:           wallet.EntryTypeDebit,
		Credits:        -costCredits,
		ExternalRef:    target,
		IdempotencyKey: correlationID,
		CreatedAt:      now,
	})
	m.byKey[correlationID] = len(m.ledger) - 1
	m.balance -= costCredits
	return true, nil
}

func (m *Memory) FailStaleCalling(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var n int64
	for id, l := range m.leads {
		if l.Status == leads.StatusCalling && l.UpdatedAt.Before(cutoff) {
			l.Status = leads.StatusFailed
			l.UpdatedAt = now
			m.leads[id] = l
			n++
		}
	}
	return n, nil
}

func (m *Memory) LeadCounts(ctx context.Context) (LeadCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c LeadCounts
	for _, l := range m.leads {
		c.Total++
		switch l.Status {
		case leads.StatusCompleted:
			c.Completed++
		case leads.StatusPending, leads.StatusReady, leads.StatusCalling:
			c.Pending++
		case leads.StatusFailed:
			// counted in total only
		}
	}
	return c, nil
}

func (m *Memory) SentimentCounts(ctx context.Context) ([]SentimentCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tally := map[string]int64{}
	for _, l := range m.leads {
		if l.Status == leads.StatusCompleted {
			tally[l.Sentiment]++
		}
	}
	out := make([]SentimentCount, 0, len(tally))
	for sentiment, count := range tally {
		out = append(out, SentimentCount{Sentiment: sentiment, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Sentiment < out[j].Sentiment
	})
	return out, nil
}

func (m *Memory) RecentLeads(ctx context.Context, limit int) ([]leads.Lead, error) {
	if limit <= 0 {
		limit = 10
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]leads.Lead, 0, limit)
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.leads[m.order[i]])
	}
	return out, nil
}

// Lead returns a copy of the stored lead, for test assertions.
func (m *Memory) Lead(id string) (leads.Lead, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	return l, ok
}

// Ledger returns a copy of the posted entries, for test assertions.
func (m *Memory) Ledger() []wallet.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]wallet.LedgerEntry, len(m.ledger))
	copy(out, m.ledger)
	return out
}

// SetBalance overrides the balance, for test setup.
func (m *Memory) SetBalance(v int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance = v
}
