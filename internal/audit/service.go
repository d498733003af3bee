package audit

import (
	"context"
	"time"

	"voca-platform/pkg/logger"

	"github.com/google/uuid"
)

// Repository abstracts audit persistence. Implementations are append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// Record appends an event. Failures are logged and swallowed: audit is
// observability, not control flow.
func (s *Service) Record(ctx context.Context, typ EventType, leadID, correlationID, detail string) {
	if s == nil || s.repo == nil {
		return
	}
	e := Event{
		ID:            uuid.NewString(),
		Type:          typ,
		LeadID:        leadID,
		CorrelationID: correlationID,
		Detail:        detail,
		CreatedAt:     s.clock().UTC(),
	}
	if err := s.repo.Append(ctx, e); err != nil {
		logger.From(ctx).Warn("audit append failed", "type", typ, "err", err)
	}
}
