package dispatcher

import (
	"context"
	"log/slog"
	"time"

	"voca-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

const callSlotKey = "campaign:active_calls"

// RedisLimiter caps concurrent in-flight calls with an atomic counter in
// redis. The TTL keeps a crashed process (or a lost completion event)
// from pinning slots forever.
type RedisLimiter struct {
	rdb   *redis.Client
	limit int
	ttl   time.Duration
	log   *slog.Logger
}

func NewRedisLimiter(rdb *redis.Client, limit int, ttl time.Duration, log *slog.Logger) *RedisLimiter {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &RedisLimiter{rdb: rdb, limit: limit, ttl: ttl, log: log}
}

func (l *RedisLimiter) Acquire(ctx context.Context) (bool, error) {
	return utils.AcquireCallSlot(ctx, l.rdb, callSlotKey, l.limit, l.ttl)
}

// Release frees a slot. Errors are logged only: the TTL reclaims slots a
// failed release would leak.
func (l *RedisLimiter) Release(ctx context.Context) {
	if err := utils.ReleaseCallSlot(ctx, l.rdb, callSlotKey); err != nil {
		l.log.Warn("call slot release failed", "err", err)
	}
}
