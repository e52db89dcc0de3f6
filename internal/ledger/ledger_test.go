package ledger_test

import (
	"testing"
	"time"

	"github.com/glizzus/campus-bot/internal/ledger"
	"github.com/glizzus/campus-bot/internal/schedule"
	"github.com/redis/go-redis/v9"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestMemoryLedgerClaimsOnce(t *testing.T) {
	l := ledger.NewMemoryLedger()
	key := schedule.LedgerKey(schedule.RoshHashana, time.Date(2026, 9, 12, 9, 0, 0, 0, time.UTC))

	first, err := l.Claim(t.Context(), key)
	if err != nil || !first {
		t.Fatalf("first claim = (%t, %v); want (true, nil)", first, err)
	}
	second, err := l.Claim(t.Context(), key)
	if err != nil || second {
		t.Fatalf("second claim = (%t, %v); want (false, nil)", second, err)
	}
}

func TestRedisLedgerClaimsOnce(t *testing.T) {
	ctx := t.Context()
	redisContainer, err := tcredis.Run(ctx, "redis:7")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	defer func() {
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate redis container: %v", err)
		}
	}()

	connStr, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	opts, err := redis.ParseURL(connStr)
	if err != nil {
		t.Fatalf("failed to parse redis url: %v", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	// Two ledgers over the same server behave like two bot instances.
	a := ledger.NewRedisLedger(client, time.Minute)
	b := ledger.NewRedisLedger(client, time.Minute)
	key := schedule.LedgerKey(schedule.NewAcademicYear, time.Date(2026, 8, 9, 13, 0, 0, 0, time.UTC))

	claimed, err := a.Claim(ctx, key)
	if err != nil || !claimed {
		t.Fatalf("first claim = (%t, %v); want (true, nil)", claimed, err)
	}
	claimed, err = b.Claim(ctx, key)
	if err != nil || claimed {
		t.Fatalf("second claim = (%t, %v); want (false, nil)", claimed, err)
	}

	ttl, err := client.TTL(ctx, "campus-bot:fired:"+key).Result()
	if err != nil {
		t.Fatalf("failed to read ttl: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("expected the claim to expire within a minute, got %v", ttl)
	}
}
