package reporting

import (
	"context"
	"testing"

	"voca-platform/internal/leads"
	"voca-platform/internal/store"
)

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory(9990)
	if _, err := m.InsertLeads(ctx, []leads.Lead{
		{ID: "a", Name: "A", Phone: "1", Status: leads.StatusCompleted, Sentiment: "Positive"},
		{ID: "b", Name: "B", Phone: "2", Status: leads.StatusCompleted, Sentiment: "Negative"},
		{ID: "c", Name: "C", Phone: "3", Status: leads.StatusPending},
		{ID: "d", Name: "D", Phone: "4", Status: leads.StatusFailed},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := NewService(m)
	dash, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	mt := dash.Metrics
	if mt.TotalLeads != 4 || mt.CompletedCalls != 2 || mt.PendingCalls != 1 {
		t.Fatalf("unexpected metrics: %+v", mt)
	}
	if mt.CallTime != "4 min" {
		t.Fatalf("expected call time %q, got %q", "4 min", mt.CallTime)
	}
	if mt.Credits != 9990 {
		t.Fatalf("expected credits 9990, got %d", mt.Credits)
	}
	if len(dash.RecentCalls) != 4 {
		t.Fatalf("expected 4 recent calls, got %d", len(dash.RecentCalls))
	}
	if len(dash.SentimentCounts) != 2 {
		t.Fatalf("expected 2 sentiment buckets, got %d", len(dash.SentimentCounts))
	}
}

func TestDashboard_RequiresStore(t *testing.T) {
	svc := NewService(nil)
	if _, err := svc.Dashboard(context.Background()); err == nil {
		t.Fatalf("expected error without store")
	}
}
