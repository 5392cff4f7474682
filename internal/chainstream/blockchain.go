package chainstream

import (
	"context"
	"errors"

	"github.com/gabapcia/transferwatch/internal/pkg/types"
	"github.com/gabapcia/transferwatch/internal/pkg/x/chflow"
)

// ErrNetworkNotRegistered is returned when a retry targets a network with no client.
var ErrNetworkNotRegistered = errors.New("network not registered")

// BlockchainEvent is emitted by a Blockchain subscription for every height it
// processes. Block is the zero value when Err is set.
type BlockchainEvent struct {
	Height types.Hex // block height (always set)
	Block  Block     // block contents
	Err    error     // fetch or decode error
}

// Blockchain is a source of blocks for a single network.
type Blockchain interface {
	// FetchBlockByHeight retrieves the block at the specified height.
	FetchBlockByHeight(ctx context.Context, height types.Hex) (Block, error)

	// Subscribe streams blocks from fromHeight (inclusive). An empty
	// fromHeight starts at the latest known block.
	//
	// The returned channel is closed when ctx is canceled.
	Subscribe(ctx context.Context, fromHeight types.Hex) (<-chan BlockchainEvent, error)
}

// BlockDispatchFailure describes a height that could not be delivered.
//
// Errors holds the original subscription error followed by the error of
// every retry attempt, if retries are enabled. Use errors.Join(f.Errors...)
// for a single combined error.
type BlockDispatchFailure struct {
	Network string    // name of the blockchain network
	Height  types.Hex // block height that failed to be dispatched
	Errors  []error   // all errors encountered for this height
}

// handleDispatchFailures passes every terminal failure to the configured
// handler until ctx is canceled.
func (s *service) handleDispatchFailures(ctx context.Context, failuresCh <-chan BlockDispatchFailure) {
	for {
		failure, ok := chflow.Receive(ctx, failuresCh)
		if !ok {
			return
		}

		s.dispatchFailureHandler(ctx, failure)
	}
}

// fetchObservedBlock fetches height from the client registered for network.
func (s *service) fetchObservedBlock(ctx context.Context, network string, height types.Hex) (ObservedBlock, error) {
	client, ok := s.networks[network]
	if !ok {
		return ObservedBlock{}, ErrNetworkNotRegistered
	}

	block, err := client.FetchBlockByHeight(ctx, height)
	if err != nil {
		return ObservedBlock{}, err
	}

	return ObservedBlock{Network: network, Block: block}, nil
}

// retryFailedBlockFetches re-fetches each height received on retryCh:
//   - On success the recovered block joins the regular flow on blocksCh.
//   - On persistent failure the retry errors are appended and the failure
//     is forwarded to failuresCh.
func (s *service) retryFailedBlockFetches(ctx context.Context, retryCh <-chan BlockDispatchFailure, blocksCh chan<- ObservedBlock, failuresCh chan<- BlockDispatchFailure) {
	for {
		failure, ok := chflow.Receive(ctx, retryCh)
		if !ok {
			return
		}

		var recovered ObservedBlock
		retryErrs := s.retry.Execute(ctx, func() error {
			block, err := s.fetchObservedBlock(ctx, failure.Network, failure.Height)
			if err != nil {
				return err
			}

			recovered = block
			return nil
		})

		if retryErrs == nil {
			if ok := chflow.Send(ctx, blocksCh, recovered); !ok {
				return
			}
			continue
		}

		failure.Errors = append(failure.Errors, retryErrs...)
		if ok := chflow.Send(ctx, failuresCh, failure); !ok {
			return
		}
	}
}

// dispatchSubscriptionEvents routes the events of one network subscription:
// blocks go to blocksCh, errors are wrapped in a BlockDispatchFailure and
// sent to errorsCh.
func (s *service) dispatchSubscriptionEvents(ctx context.Context, network string, eventsCh <-chan BlockchainEvent, blocksCh chan<- ObservedBlock, errorsCh chan<- BlockDispatchFailure) {
	for {
		event, ok := chflow.Receive(ctx, eventsCh)
		if !ok {
			return
		}

		if event.Err != nil {
			failure := BlockDispatchFailure{
				Network: network,
				Height:  event.Height,
				Errors:  []error{event.Err},
			}
			if ok := chflow.Send(ctx, errorsCh, failure); !ok {
				return
			}

			continue
		}

		observedBlock := ObservedBlock{Network: network, Block: event.Block}
		if ok := chflow.Send(ctx, blocksCh, observedBlock); !ok {
			return
		}
	}
}

// launchAllNetworkSubscriptions subscribes every registered network and
// starts one dispatcher goroutine per subscription. A network with a
// checkpoint resumes at the height right after it.
func (s *service) launchAllNetworkSubscriptions(ctx context.Context, blocksCh chan<- ObservedBlock, errorsCh chan<- BlockDispatchFailure) error {
	for network, client := range s.networks {
		startHeight, err := s.checkpointStorage.LoadLatestCheckpoint(ctx, network)
		if err != nil && !errors.Is(err, ErrNoCheckpointFound) {
			return err
		}

		if !startHeight.IsEmpty() {
			startHeight = startHeight.Add(1)
		}

		eventsCh, err := client.Subscribe(ctx, startHeight)
		if err != nil {
			return err
		}

		s.goRun(func() {
			s.dispatchSubscriptionEvents(ctx, network, eventsCh, blocksCh, errorsCh)
		})
	}

	return nil
}
