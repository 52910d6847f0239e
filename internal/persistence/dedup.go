package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper remembers external message ids so that duplicate webhook
// deliveries become no-ops upstream of the gate logic.
type Deduper interface {
	// FirstSeen records the id and reports whether this delivery is the
	// first one. A second call with the same id within the TTL returns false.
	FirstSeen(ctx context.Context, externalMessageID string) (bool, error)
}

type redisDeduper struct {
	client   *redis.Client
	ttl      time.Duration
	logger   *zap.Logger
	fallback *memoryDeduper
}

// NewRedisDeduper builds a Deduper backed by Redis SETNX. When Redis is
// unreachable it degrades to a process-local table rather than letting
// duplicates through.
func NewRedisDeduper(client *redis.Client, ttl time.Duration, logger *zap.Logger) Deduper {
	return &redisDeduper{
		client:   client,
		ttl:      ttl,
		logger:   logger,
		fallback: newMemoryDeduper(ttl),
	}
}

func (d *redisDeduper) FirstSeen(ctx context.Context, externalMessageID string) (bool, error) {
	if externalMessageID == "" {
		return true, nil
	}
	if d.client != nil {
		ok, err := d.client.SetNX(ctx, "inbox:dedup:"+externalMessageID, 1, d.ttl).Result()
		if err == nil {
			return ok, nil
		}
		d.logger.Warn("dedup redis unavailable, using local table", zap.Error(err))
	}
	return d.fallback.FirstSeen(ctx, externalMessageID)
}

// memoryDeduper is the process-local fallback, also used directly in tests.
type memoryDeduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
}

// NewMemoryDeduper builds a purely in-process Deduper.
func NewMemoryDeduper(ttl time.Duration) Deduper {
	return newMemoryDeduper(ttl)
}

func newMemoryDeduper(ttl time.Duration) *memoryDeduper {
	return &memoryDeduper{ttl: ttl, seen: make(map[string]time.Time)}
}

func (d *memoryDeduper) FirstSeen(_ context.Context, externalMessageID string) (bool, error) {
	if externalMessageID == "" {
		return true, nil
	}
	now := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, at := range d.seen {
		if now.Sub(at) > d.ttl {
			delete(d.seen, id)
		}
	}
	if _, ok := d.seen[externalMessageID]; ok {
		return false, nil
	}
	d.seen[externalMessageID] = now
	return true, nil
}
