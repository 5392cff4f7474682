// Package redis implements the storage side of the agent on Redis:
// chainstream checkpoints, the block idempotency guard and the findings
// stream.
package redis

import (
	"context"
	"time"

	"github.com/gabapcia/transferwatch/internal/pkg/resilience/retry"

	redis "github.com/redis/go-redis/v9"
)

const defaultFindingsStreamMaxLen = 100_000

type client struct {
	conn *redis.Client

	retry                retry.Retry
	findingsStreamMaxLen int64
}

func (c *client) Close() error {
	return c.conn.Close()
}

type config struct {
	retry                retry.Retry
	findingsStreamMaxLen int64
}

type Option func(*config)

// NewClient connects to Redis and pings it before returning.
func NewClient(ctx context.Context, addr, username, password string, db int, opts ...Option) (*client, error) {
	cfg := config{
		retry:                retry.New(retry.WithDelay(100*time.Millisecond), retry.WithMaxDelay(time.Second)),
		findingsStreamMaxLen: defaultFindingsStreamMaxLen,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	conn := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})

	if err := conn.Ping(ctx).Err(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &client{
		conn:                 conn,
		retry:                cfg.retry,
		findingsStreamMaxLen: cfg.findingsStreamMaxLen,
	}, nil
}

// WithRetry sets the retry policy used when publishing reports.
func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

// WithFindingsStreamMaxLen caps the findings stream (approximate trimming).
// Zero disables trimming. Default: 100000.
func WithFindingsStreamMaxLen(n int64) Option {
	return func(c *config) {
		c.findingsStreamMaxLen = n
	}
}
