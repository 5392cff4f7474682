// Package agent is the host runtime around the transfer rule. It reads
// observed blocks from chainstream, runs every transaction through the
// rule, and publishes one Report per finding.
package agent

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gabapcia/transferwatch/internal/chainstream"
	"github.com/gabapcia/transferwatch/internal/finding"
	"github.com/gabapcia/transferwatch/internal/pkg/resilience/retry"
	"github.com/gabapcia/transferwatch/internal/transferrule"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	instrumentationName      = "github.com/gabapcia/transferwatch/internal/agent"
	defaultMaxProcessingTime = 5 * time.Minute
	releaseClaimTimeout      = 5 * time.Second
)

// ErrServiceAlreadyStarted is returned if Start is called on a running service.
var ErrServiceAlreadyStarted = errors.New("service already started")

var tracer = otel.Tracer(instrumentationName)

// Service is the agent lifecycle.
type Service interface {
	// Start starts chainstream and the block consumer.
	// Returns ErrServiceAlreadyStarted if the service is running.
	Start(ctx context.Context) error

	// Close stops the consumer and chainstream. Safe to call when not started.
	Close()
}

type closeFunc func()

type service struct {
	mu        sync.Mutex
	isStarted bool
	closeFunc closeFunc

	chainstream       chainstream.Service
	handleTransaction transferrule.HandleTransaction[finding.Finding]
	findingPublisher  FindingPublisher

	maxProcessingTime time.Duration
	idempotencyGuard  IdempotencyGuard
	retry             retry.Retry

	transactionsEvaluated metric.Int64Counter
	findingsEmitted       metric.Int64Counter
}

var _ Service = (*service)(nil)

func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return ErrServiceAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)

	blocksCh, err := s.chainstream.Start(ctx)
	if err != nil {
		cancel()
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.handleBlocks(ctx, blocksCh)
	}()

	s.closeFunc = func() {
		cancel()
		s.chainstream.Close()
		wg.Wait()
	}
	s.isStarted = true
	return nil
}

func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeFunc != nil {
		s.closeFunc()
	}

	s.closeFunc = nil
	s.isStarted = false
}

type config struct {
	maxProcessingTime time.Duration
	idempotencyGuard  IdempotencyGuard
	retry             retry.Retry
	meterProvider     metric.MeterProvider
}

type Option func(*config)

// New wires the agent. handle is the rule every transaction goes through;
// publisher receives the reports of each block.
func New(stream chainstream.Service, handle transferrule.HandleTransaction[finding.Finding], publisher FindingPublisher, opts ...Option) *service {
	cfg := config{
		maxProcessingTime: defaultMaxProcessingTime,
		idempotencyGuard:  nopIdempotencyGuard{},
		retry:             retry.New(retry.WithAttempts(5), retry.WithDelay(time.Second), retry.WithMaxDelay(30*time.Second)),
		meterProvider:     otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	meter := cfg.meterProvider.Meter(instrumentationName)

	return &service{
		chainstream:           stream,
		handleTransaction:     handle,
		findingPublisher:      publisher,
		maxProcessingTime:     cfg.maxProcessingTime,
		idempotencyGuard:      cfg.idempotencyGuard,
		retry:                 cfg.retry,
		transactionsEvaluated: newCounter(meter, "transferwatch.transactions.evaluated", "Transactions run through the transfer rule"),
		findingsEmitted:       newCounter(meter, "transferwatch.findings.emitted", "Findings raised by the transfer rule"),
	}
}

// newCounter falls back to a no-op counter if the instrument cannot be created.
func newCounter(meter metric.Meter, name, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		return noop.Int64Counter{}
	}
	return counter
}

// WithMaxProcessingTime sets how long a block claim is held. Default: 5m.
func WithMaxProcessingTime(d time.Duration) Option {
	return func(c *config) {
		c.maxProcessingTime = d
	}
}

func WithIdempotencyGuard(g IdempotencyGuard) Option {
	return func(c *config) {
		c.idempotencyGuard = g
	}
}

// WithRetry sets the backoff used while a block keeps failing. The block is
// retried until it succeeds or the agent stops.
func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *config) {
		c.meterProvider = mp
	}
}
