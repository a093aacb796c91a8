package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Guard decides whether this process may run the firing for a schedule period
type Guard interface {
	Acquire(ctx context.Context, periodKey string) (bool, error)
}

// LocalGuard always grants. It is used for single-replica deployments.
type LocalGuard struct{}

func (LocalGuard) Acquire(context.Context, string) (bool, error) {
	return true, nil
}

// RedisGuard claims a period with SETNX so only one replica fires it
type RedisGuard struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
	owner  string
}

// NewRedisGuard creates a RedisGuard. Claims expire after ttl.
func NewRedisGuard(client goredis.UniversalClient, prefix string, ttl time.Duration) *RedisGuard {
	owner, err := os.Hostname()
	if err != nil || owner == "" {
		owner = "unknown"
	}
	return &RedisGuard{client: client, prefix: prefix, ttl: ttl, owner: fmt.Sprintf("%s:%d", owner, os.Getpid())}
}

// Connect opens a Redis client and checks it with PING
func Connect(ctx context.Context, opts *goredis.UniversalOptions) (goredis.UniversalClient, error) {
	c := goredis.NewUniversalClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return c, nil
}

func (g *RedisGuard) Key(periodKey string) string {
	return g.prefix + "scheduler:" + periodKey
}

func (g *RedisGuard) Acquire(ctx context.Context, periodKey string) (bool, error) {
	cmd := g.client.SetNX(ctx, g.Key(periodKey), g.owner, g.ttl)
	if err := cmd.Err(); err != nil {
		return false, fmt.Errorf("failed to claim period %s: %w", periodKey, err)
	}
	return cmd.Val(), nil
}
