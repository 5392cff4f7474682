// Package retry runs operations with exponential backoff on top of
// avast/retry-go.
//
//	r := retry.New(retry.WithAttempts(5), retry.WithDelay(500*time.Millisecond))
//	if errs := r.Execute(ctx, publish); errs != nil {
//	    return errors.Join(errs...)
//	}
package retry

import (
	"context"
	"errors"
	"time"

	retry "github.com/avast/retry-go/v4"
)

// Retry executes an operation until it succeeds, the attempts are exhausted
// or the context is done.
type Retry interface {
	// Execute runs operation with retries. It returns nil on success and the
	// error of every failed attempt otherwise (including the context error
	// when ctx ends the loop early).
	Execute(ctx context.Context, operation func() error) []error
}

// config holds the retry settings.
type config struct {
	attempts uint          // total attempts, including the first
	delay    time.Duration // base backoff delay
	maxDelay time.Duration // backoff cap
}

// Option configures a Retry.
type Option func(*config)

type retrier struct {
	cfg config
}

var _ Retry = (*retrier)(nil)

// New returns a Retry. Defaults: 3 attempts, 1s base delay, 5s max delay.
func New(opts ...Option) Retry {
	cfg := config{
		attempts: 3,
		delay:    1 * time.Second,
		maxDelay: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &retrier{cfg: cfg}
}

func (r *retrier) Execute(ctx context.Context, operation func() error) []error {
	err := retry.Do(operation,
		retry.Attempts(r.cfg.attempts),
		retry.Delay(r.cfg.delay),
		retry.MaxDelay(r.cfg.maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(false),
		retry.Context(ctx),
	)
	if err == nil {
		return nil
	}

	var retryErr retry.Error
	if errors.As(err, &retryErr) {
		return retryErr.WrappedErrors()
	}

	return []error{err}
}

// WithAttempts sets the total number of attempts. Default: 3.
func WithAttempts(n uint) Option {
	return func(c *config) {
		c.attempts = n
	}
}

// WithDelay sets the base backoff delay. Default: 1s.
func WithDelay(d time.Duration) Option {
	return func(c *config) {
		c.delay = d
	}
}

// WithMaxDelay caps the backoff delay. Default: 5s.
func WithMaxDelay(d time.Duration) Option {
	return func(c *config) {
		c.maxDelay = d
	}
}
