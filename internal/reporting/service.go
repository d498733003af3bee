// Package reporting builds the dashboard read model.
package reporting

import (
	"context"
	"errors"
	"fmt"

	"voca-platform/internal/leads"
	"voca-platform/internal/store"
)

// approxMinutesPerCall drives the "call time" headline number. It is a
// fixed per-call estimate, not a sum of measured durations.
const approxMinutesPerCall = 2

const recentCallsLimit = 10

// Metrics is the dashboard headline block.
type Metrics struct {
	TotalLeads     int64 `json:"total_leads"`
	CompletedCalls int64 `json:"completed_calls"`
	PendingCalls   int64 `json:"pending_calls"`

	// CallTime is the approximate total call time label.
	CallTime string `json:"call_time"`

	// Credits is the current wallet balance.
	Credits int64 `json:"credits"`
}

type Dashboard struct {
	Metrics         Metrics                `json:"metrics"`
	RecentCalls     []leads.Lead           `json:"recent_calls"`
	SentimentCounts []store.SentimentCount `json:"sentiment_counts"`
}

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service { return &Service{store: st} }

// Dashboard aggregates lead counts, the sentiment breakdown among
// completed calls, the most recent leads and the credit balance.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	if s.store == nil {
		return Dashboard{}, errors.New("reporting: store not configured")
	}

	counts, err := s.store.LeadCounts(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("reporting: lead counts: %w", err)
	}
	recent, err := s.store.RecentLeads(ctx, recentCallsLimit)
	if err != nil {
		return Dashboard{}, fmt.Errorf("reporting: recent leads: %w", err)
	}
	sentiments, err := s.store.SentimentCounts(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("reporting: sentiment counts: %w", err)
	}
	balance, err := s.store.GetBalance(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("reporting: balance: %w", err)
	}

	return Dashboard{
		Metrics: Metrics{
			TotalLeads:     counts.Total,
			CompletedCalls: counts.Completed,
			PendingCalls:   counts.Pending,
			CallTime:       fmt.Sprintf("%d min", counts.Completed*approxMinutesPerCall),
			Credits:        balance,
		},
		RecentCalls:     recent,
		SentimentCounts: sentiments,
	}, nil
}
