package audit

import (
	"context"
	"testing"
)

func TestRecord_AppendsEvent(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	svc.Record(context.Background(), EventTypeCallDispatched, "lead-1", "uv-1", "")

	events := repo.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Type != EventTypeCallDispatched || e.LeadID != "lead-1" || e.CorrelationID != "uv-1" {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamp: %+v", e)
	}
}

func TestRecord_NilServiceIsSafe(t *testing.T) {
	var svc *Service
	// Must not panic; audit is optional everywhere it is injected.
	svc.Record(context.Background(), EventTypeLeadClaimed, "lead-1", "", "")
}
