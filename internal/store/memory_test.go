package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"voca-platform/internal/leads"
)

func seed(t *testing.T, m *Memory, ls ...leads.Lead) {
	t.Helper()
	if _, err := m.InsertLeads(context.Background(), ls); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestClaimLead_OnlyReadyLeadsClaimable(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(1000)
	seed(t, m,
		leads.Lead{ID: "a", Name: "A", Phone: "1", Status: leads.StatusReady},
		leads.Lead{ID: "b", Name: "B", Phone: "2", Status: leads.StatusPending},
	)

	if ok, err := m.ClaimLead(ctx, "a"); err != nil || !ok {
		t.Fatalf("ready lead should claim: ok=%v err=%v", ok, err)
	}
	if ok, _ := m.ClaimLead(ctx, "a"); ok {
		t.Fatalf("second claim of same lead must lose")
	}
	if ok, _ := m.ClaimLead(ctx, "b"); ok {
		t.Fatalf("pending lead must not claim")
	}
	if ok, _ := m.ClaimLead(ctx, "missing"); ok {
		t.Fatalf("unknown lead must not claim")
	}
}

func TestBulkTransition(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(1000)
	seed(t, m,
		leads.Lead{ID: "a", Name: "A", Phone: "1", Status: leads.StatusPending},
		leads.Lead{ID: "b", Name: "B", Phone: "2", Status: leads.StatusPending},
		leads.Lead{ID: "c", Name: "C", Phone: "3", Status: leads.StatusCompleted},
	)

	n, err := m.BulkTransition(ctx, leads.StatusPending, leads.StatusReady)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 transitions, got %d", n)
	}
	if l, _ := m.Lead("c"); l.Status != leads.StatusCompleted {
		t.Fatalf("completed lead must be untouched, got %s", l.Status)
	}
}

func TestAssignCorrelationID_SetOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(1000)
	seed(t, m, leads.Lead{ID: "a", Name: "A", Phone: "1", Status: leads.StatusReady})

	if err := m.AssignCorrelationID(ctx, "a", "uv-1"); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	if err := m.AssignCorrelationID(ctx, "a", "uv-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second assign must fail with ErrNotFound, got %v", err)
	}
	if l, _ := m.Lead("a"); l.CorrelationID != "uv-1" {
		t.Fatalf("correlation id overwritten: %q", l.CorrelationID)
	}
}

func TestCompleteLead_TransactionalAndIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(1000)
	seed(t, m, leads.Lead{ID: "a", Name: "A", Phone: "1", Status: leads.StatusReady})
	if ok, _ := m.ClaimLead(ctx, "a"); !ok {
		t.Fatalf("claim failed")
	}
	if err := m.AssignCorrelationID(ctx, "a", "uv-1"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	res := leads.CompletionResult{Summary: "ok", Sentiment: "Positive", DurationLabel: "2 min"}
	found, err := m.CompleteLead(ctx, "uv-1", res, 10)
	if err != nil || !found {
		t.Fatalf("complete: found=%v err=%v", found, err)
	}

	l, _ := m.Lead("a")
	if l.Status != leads.StatusCompleted || l.Summary != "ok" {
		t.Fatalf("unexpected lead after completion: %+v", l)
	}
	if bal, _ := m.GetBalance(ctx); bal != 990 {
		t.Fatalf("expected balance 990, got %d", bal)
	}

	entries := m.Ledger()
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Credits != -10 || e.IdempotencyKey != "uv-1" || e.ExternalRef != "a" {
		t.Fatalf("unexpected ledger entry: %+v", e)
	}

	// Replays land on the idempotency key and change nothing.
	found, err = m.CompleteLead(ctx, "uv-1", res, 10)
	if err != nil || !found {
		t.Fatalf("replay: found=%v err=%v", found, err)
	}
	if bal, _ := m.GetBalance(ctx); bal != 990 {
		t.Fatalf("replay must not debit again, balance %d", bal)
	}
	if len(m.Ledger()) != 1 {
		t.Fatalf("replay must not add ledger entries")
	}
}

func TestCompleteLead_UnknownCorrelationID(t *testing.T) {
	m := NewMemory(1000)
	found, err := m.CompleteLead(context.Background(), "stray", leads.CompletionResult{}, 10)
	if err != nil {
		t.Fatalf("stray completion must not error: %v", err)
	}
	if found {
		t.Fatalf("stray completion must report not found")
	}
	if bal, _ := m.GetBalance(context.Background()); bal != 1000 {
		t.Fatalf("stray completion must not debit, balance %d", bal)
	}
}

func TestFailStaleCalling(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	m := NewMemory(1000)
	m.Clock = func() time.Time { return base }
	seed(t, m,
		leads.Lead{ID: "old", Name: "Old", Phone: "1", Status: leads.StatusReady},
		leads.Lead{ID: "new", Name: "New", Phone: "2", Status: leads.StatusReady},
	)
	if ok, _ := m.ClaimLead(ctx, "old"); !ok {
		t.Fatalf("claim old")
	}

	m.Clock = func() time.Time { return base.Add(45 * time.Minute) }
	if ok, _ := m.ClaimLead(ctx, "new"); !ok {
		t.Fatalf("claim new")
	}

	n, err := m.FailStaleCalling(ctx, base.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("reap: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 reaped, got %d", n)
	}
	if l, _ := m.Lead("old"); l.Status != leads.StatusFailed {
		t.Fatalf("old lead should be failed, got %s", l.Status)
	}
	if l, _ := m.Lead("new"); l.Status != leads.StatusCalling {
		t.Fatalf("fresh call must survive the reaper, got %s", l.Status)
	}
}

func TestLeadCountsAndSentiments(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(1000)
	seed(t, m,
		leads.Lead{ID: "a", Name: "A", Phone: "1", Status: leads.StatusCompleted, Sentiment: "Positive"},
		leads.Lead{ID: "b", Name: "B", Phone: "2", Status: leads.StatusCompleted, Sentiment: "Positive"},
		leads.Lead{ID: "c", Name: "C", Phone: "3", Status: leads.StatusCompleted, Sentiment: "Negative"},
		leads.Lead{ID: "d", Name: "D", Phone: "4", Status: leads.StatusPending},
		leads.Lead{ID: "e", Name: "E", Phone: "5", Status: leads.StatusCalling},
		leads.Lead{ID: "f", Name: "F", Phone: "6", Status: leads.StatusFailed},
	)

	counts, err := m.LeadCounts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Total != 6 || counts.Completed != 3 || counts.Pending != 2 {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	sentiments, err := m.SentimentCounts(ctx)
	if err != nil {
		t.Fatalf("sentiments: %v", err)
	}
	if len(sentiments) != 2 {
		t.Fatalf("expected 2 sentiment buckets, got %d", len(sentiments))
	}
	if sentiments[0].Sentiment != "Positive" || sentiments[0].Count != 2 {
		t.Fatalf("expected Positive first with 2, got %+v", sentiments[0])
	}
	if sentiments[1].Sentiment != "Negative" || sentiments[1].Count != 1 {
		t.Fatalf("expected Negative with 1, got %+v", sentiments[1])
	}
}

func TestRecentLeads_NewestFirstCapped(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(1000)
	for i := 0; i < 12; i++ {
		seed(t, m, leads.Lead{
			ID:     string(rune('a' + i)),
			Name:   "L",
			Phone:  "1",
			Status: leads.StatusPending,
		})
	}

	recent, err := m.RecentLeads(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 10 {
		t.Fatalf("expected 10 recent leads, got %d", len(recent))
	}
	if recent[0].ID != string(rune('a'+11)) {
		t.Fatalf("expected newest lead first, got %q", recent[0].ID)
	}
}
