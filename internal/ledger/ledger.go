// Package ledger records which scheduled occurrences have been dispatched.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/glizzus/campus-bot/internal/schedule"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "campus-bot:fired:"

// RedisLedger claims occurrences with SET NX, so that every bot instance sharing
// the Redis server sees the same claims.
type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLedger(client *redis.Client, ttl time.Duration) *RedisLedger {
	return &RedisLedger{client: client, ttl: ttl}
}

func (l *RedisLedger) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := l.client.SetNX(ctx, keyPrefix+key, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", key, err)
	}
	return ok, nil
}

var _ schedule.Ledger = (*RedisLedger)(nil)

// MemoryLedger keeps claims in process memory. Claims never expire.
type MemoryLedger struct {
	mu      sync.Mutex
	claimed map[string]struct{}
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		claimed: make(map[string]struct{}),
	}
}

func (l *MemoryLedger) Claim(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.claimed[key]; ok {
		return false, nil
	}
	l.claimed[key] = struct{}{}
	return true, nil
}

var _ schedule.Ledger = (*MemoryLedger)(nil)
