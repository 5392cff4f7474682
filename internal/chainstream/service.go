// Package chainstream subscribes to one or more blockchain networks and
// merges their blocks into a single stream of ObservedBlock values.
//
// Failed heights can be retried through a retry.Retry; heights that keep
// failing are handed to a dispatch failure handler. The consumer commits
// each block once it is done with it, and Start resumes after the last commit.
package chainstream

import (
	"context"
	"errors"
	"sync"

	"github.com/gabapcia/transferwatch/internal/pkg/logger"
	"github.com/gabapcia/transferwatch/internal/pkg/resilience/retry"
)

var ErrServiceAlreadyStarted = errors.New("service already started")

const (
	dispatchFailureChannelBufferSize = 5
	retryFailureChannelBufferSize    = 5
	observedBlockChannelBufferSize   = 10
)

type Service interface {
	// Start launches the network subscriptions and returns the merged block
	// stream. The channel is closed by Close.
	Start(ctx context.Context) (<-chan ObservedBlock, error)

	// Commit saves block as the checkpoint of its network. Call it only
	// after the block was fully handled.
	Commit(ctx context.Context, block ObservedBlock) error

	// Close stops every goroutine started by Start and waits for them.
	Close()
}

type closeFunc func()
type dispatchFailureHandler func(ctx context.Context, dispatchFailure BlockDispatchFailure)

type service struct {
	mu        sync.Mutex
	isStarted bool
	closeFunc closeFunc
	wg        sync.WaitGroup

	networks          map[string]Blockchain
	checkpointStorage CheckpointStorage

	retry                  retry.Retry
	dispatchFailureHandler dispatchFailureHandler
}

var _ Service = (*service)(nil)

// goRun runs f in a goroutine tracked by the service WaitGroup.
func (s *service) goRun(f func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		f()
	}()
}

func (s *service) Start(ctx context.Context) (<-chan ObservedBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return nil, ErrServiceAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)

	var (
		dispatchFailureCh = make(chan BlockDispatchFailure, dispatchFailureChannelBufferSize)
		observedBlockCh   = make(chan ObservedBlock, observedBlockChannelBufferSize)
	)

	// Output is closed only after every producer has returned.
	stop := func() {
		cancel()
		s.wg.Wait()
		close(observedBlockCh)
	}

	s.goRun(func() { s.handleDispatchFailures(ctx, dispatchFailureCh) })

	errorSubmissionCh := dispatchFailureCh
	if s.retry != nil {
		retryFailureCh := make(chan BlockDispatchFailure, retryFailureChannelBufferSize)
		s.goRun(func() { s.retryFailedBlockFetches(ctx, retryFailureCh, observedBlockCh, dispatchFailureCh) })
		errorSubmissionCh = retryFailureCh
	}

	if err := s.launchAllNetworkSubscriptions(ctx, observedBlockCh, errorSubmissionCh); err != nil {
		stop()
		return nil, err
	}

	s.closeFunc = stop
	s.isStarted = true
	return observedBlockCh, nil
}

func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeFunc != nil {
		s.closeFunc()
	}
	s.isStarted = false
	s.closeFunc = nil
}

type config struct {
	retry                  retry.Retry
	checkpointStorage      CheckpointStorage
	dispatchFailureHandler dispatchFailureHandler
}

type Option func(*config)

// New builds a Service over networks, keyed by network name.
// By default failures are not retried and checkpoints are not persisted.
func New(networks map[string]Blockchain, opts ...Option) *service {
	cfg := config{
		retry:                  nil,
		checkpointStorage:      nopCheckpoint{},
		dispatchFailureHandler: defaultOnDispatchFailure,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		networks:               networks,
		checkpointStorage:      cfg.checkpointStorage,
		retry:                  cfg.retry,
		dispatchFailureHandler: cfg.dispatchFailureHandler,
	}
}

func defaultOnDispatchFailure(ctx context.Context, dispatchFailure BlockDispatchFailure) {
	logger.Error(ctx, "block dispatch failure",
		"block.network", dispatchFailure.Network,
		"block.height", dispatchFailure.Height,
		"block.errors", dispatchFailure.Errors,
	)
}

func WithDispatchFailureHandler(f dispatchFailureHandler) Option {
	return func(c *config) {
		if f != nil {
			c.dispatchFailureHandler = f
		}
	}
}

func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

func WithCheckpointStorage(cs CheckpointStorage) Option {
	return func(c *config) {
		c.checkpointStorage = cs
	}
}
