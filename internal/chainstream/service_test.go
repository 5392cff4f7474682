package chainstream

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/gabapcia/transferwatch/internal/pkg/logger"
	"github.com/gabapcia/transferwatch/internal/pkg/resilience/retry"
	"github.com/gabapcia/transferwatch/internal/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	_ = logger.Init("error")
}

const testTimeout = time.Second

func receiveWithin[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed before a value arrived")
		return v
	case <-time.After(testTimeout):
		require.FailNow(t, "timed out waiting for a value")
	}

	var zero T
	return zero
}

func sampleBlock(height types.Hex) Block {
	return Block{
		Height: height,
		Hash:   "0xblock" + height.String(),
		Transactions: []Transaction{
			{Hash: "0xtx1", From: "0xaaa", To: "0xbbb", Value: big.NewInt(100)},
		},
	}
}

func TestService_Start(t *testing.T) {
	t.Run("successful start with no networks", func(t *testing.T) {
		svc := New(map[string]Blockchain{})

		outputCh, err := svc.Start(t.Context())
		require.NoError(t, err)
		assert.NotNil(t, outputCh)

		svc.Close()

		_, ok := <-outputCh
		assert.False(t, ok, "output should be closed after Close")
	})

	t.Run("starts from latest block without checkpoint", func(t *testing.T) {
		mockStorage := NewCheckpointStorageMock(t)
		mockBlockchain := NewBlockchainMock(t)
		svc := New(map[string]Blockchain{"ethereum": mockBlockchain}, WithCheckpointStorage(mockStorage))

		eventsCh := make(chan BlockchainEvent, 1)
		mockStorage.EXPECT().LoadLatestCheckpoint(mock.Anything, "ethereum").Return(types.Hex(""), ErrNoCheckpointFound).Once()
		mockBlockchain.EXPECT().Subscribe(mock.Anything, types.Hex("")).Return((<-chan BlockchainEvent)(eventsCh), nil).Once()

		outputCh, err := svc.Start(t.Context())
		require.NoError(t, err)

		eventsCh <- BlockchainEvent{Height: "0x10", Block: sampleBlock("0x10")}

		observed := receiveWithin(t, outputCh)
		assert.Equal(t, "ethereum", observed.Network)
		assert.Equal(t, sampleBlock("0x10"), observed.Block)

		svc.Close()
	})

	t.Run("resumes right after an existing checkpoint", func(t *testing.T) {
		mockStorage := NewCheckpointStorageMock(t)
		mockBlockchain := NewBlockchainMock(t)
		svc := New(map[string]Blockchain{"ethereum": mockBlockchain}, WithCheckpointStorage(mockStorage))

		eventsCh := make(chan BlockchainEvent)
		mockStorage.EXPECT().LoadLatestCheckpoint(mock.Anything, "ethereum").Return(types.Hex("0x100"), nil).Once()
		mockBlockchain.EXPECT().Subscribe(mock.Anything, types.Hex("0x101")).Return((<-chan BlockchainEvent)(eventsCh), nil).Once()

		_, err := svc.Start(t.Context())
		require.NoError(t, err)

		close(eventsCh)
		svc.Close()
	})

	t.Run("returns error when already started", func(t *testing.T) {
		svc := New(map[string]Blockchain{})

		_, err := svc.Start(t.Context())
		require.NoError(t, err)

		outputCh, err := svc.Start(t.Context())
		assert.ErrorIs(t, err, ErrServiceAlreadyStarted)
		assert.Nil(t, outputCh)

		svc.Close()
	})

	t.Run("returns error when checkpoint load fails", func(t *testing.T) {
		mockStorage := NewCheckpointStorageMock(t)
		mockBlockchain := NewBlockchainMock(t)
		svc := New(map[string]Blockchain{"ethereum": mockBlockchain}, WithCheckpointStorage(mockStorage))

		checkpointErr := errors.New("database connection failed")
		mockStorage.EXPECT().LoadLatestCheckpoint(mock.Anything, "ethereum").Return(types.Hex(""), checkpointErr).Once()

		outputCh, err := svc.Start(t.Context())
		assert.ErrorIs(t, err, checkpointErr)
		assert.Nil(t, outputCh)

		t.Run("can start again after a failed start", func(t *testing.T) {
			mockStorage.EXPECT().LoadLatestCheckpoint(mock.Anything, "ethereum").Return(types.Hex(""), checkpointErr).Once()

			_, err := svc.Start(t.Context())
			assert.ErrorIs(t, err, checkpointErr)
			assert.NotErrorIs(t, err, ErrServiceAlreadyStarted)
		})
	})

	t.Run("returns error when subscription fails", func(t *testing.T) {
		mockBlockchain := NewBlockchainMock(t)
		svc := New(map[string]Blockchain{"ethereum": mockBlockchain})

		subscribeErr := errors.New("connection refused")
		mockBlockchain.EXPECT().Subscribe(mock.Anything, types.Hex("")).Return(nil, subscribeErr).Once()

		outputCh, err := svc.Start(t.Context())
		assert.ErrorIs(t, err, subscribeErr)
		assert.Nil(t, outputCh)
	})
}

func TestService_DispatchFailures(t *testing.T) {
	t.Run("failure goes to the handler when retry is disabled", func(t *testing.T) {
		mockBlockchain := NewBlockchainMock(t)
		failuresCh := make(chan BlockDispatchFailure, 1)
		svc := New(
			map[string]Blockchain{"ethereum": mockBlockchain},
			WithDispatchFailureHandler(func(_ context.Context, f BlockDispatchFailure) { failuresCh <- f }),
		)

		fetchErr := errors.New("block not found")
		eventsCh := make(chan BlockchainEvent, 1)
		mockBlockchain.EXPECT().Subscribe(mock.Anything, types.Hex("")).Return((<-chan BlockchainEvent)(eventsCh), nil).Once()

		_, err := svc.Start(t.Context())
		require.NoError(t, err)

		eventsCh <- BlockchainEvent{Height: "0x20", Err: fetchErr}

		failure := receiveWithin(t, failuresCh)
		assert.Equal(t, "ethereum", failure.Network)
		assert.Equal(t, types.Hex("0x20"), failure.Height)
		assert.Equal(t, []error{fetchErr}, failure.Errors)

		svc.Close()
	})

	t.Run("recovered block joins the stream", func(t *testing.T) {
		mockBlockchain := NewBlockchainMock(t)
		svc := New(
			map[string]Blockchain{"ethereum": mockBlockchain},
			WithRetry(retry.New(retry.WithAttempts(2), retry.WithDelay(time.Millisecond))),
			WithDispatchFailureHandler(func(context.Context, BlockDispatchFailure) {
				t.Error("handler should not be called for a recovered block")
			}),
		)

		eventsCh := make(chan BlockchainEvent, 1)
		mockBlockchain.EXPECT().Subscribe(mock.Anything, types.Hex("")).Return((<-chan BlockchainEvent)(eventsCh), nil).Once()
		mockBlockchain.EXPECT().FetchBlockByHeight(mock.Anything, types.Hex("0x30")).Return(sampleBlock("0x30"), nil).Once()

		outputCh, err := svc.Start(t.Context())
		require.NoError(t, err)

		eventsCh <- BlockchainEvent{Height: "0x30", Err: errors.New("timeout")}

		observed := receiveWithin(t, outputCh)
		assert.Equal(t, "ethereum", observed.Network)
		assert.Equal(t, types.Hex("0x30"), observed.Height)

		svc.Close()
	})

	t.Run("persistent failure carries every retry error", func(t *testing.T) {
		mockBlockchain := NewBlockchainMock(t)
		failuresCh := make(chan BlockDispatchFailure, 1)
		svc := New(
			map[string]Blockchain{"ethereum": mockBlockchain},
			WithRetry(retry.New(retry.WithAttempts(2), retry.WithDelay(time.Millisecond), retry.WithMaxDelay(2*time.Millisecond))),
			WithDispatchFailureHandler(func(_ context.Context, f BlockDispatchFailure) { failuresCh <- f }),
		)

		originalErr := errors.New("timeout")
		fetchErr := errors.New("node unavailable")
		eventsCh := make(chan BlockchainEvent, 1)
		mockBlockchain.EXPECT().Subscribe(mock.Anything, types.Hex("")).Return((<-chan BlockchainEvent)(eventsCh), nil).Once()
		mockBlockchain.EXPECT().FetchBlockByHeight(mock.Anything, types.Hex("0x40")).Return(Block{}, fetchErr).Times(2)

		_, err := svc.Start(t.Context())
		require.NoError(t, err)

		eventsCh <- BlockchainEvent{Height: "0x40", Err: originalErr}

		failure := receiveWithin(t, failuresCh)
		require.Len(t, failure.Errors, 3)
		assert.Equal(t, originalErr, failure.Errors[0])
		assert.ErrorIs(t, errors.Join(failure.Errors...), fetchErr)

		svc.Close()
	})
}

func TestService_Close(t *testing.T) {
	t.Run("close without start", func(t *testing.T) {
		svc := New(map[string]Blockchain{})
		assert.NotPanics(t, svc.Close)
	})

	t.Run("close twice", func(t *testing.T) {
		svc := New(map[string]Blockchain{})
		_, err := svc.Start(t.Context())
		require.NoError(t, err)

		assert.NotPanics(t, func() {
			svc.Close()
			svc.Close()
		})
	})

	t.Run("restart after close", func(t *testing.T) {
		svc := New(map[string]Blockchain{})

		_, err := svc.Start(t.Context())
		require.NoError(t, err)
		svc.Close()

		outputCh, err := svc.Start(t.Context())
		require.NoError(t, err)
		assert.NotNil(t, outputCh)
		svc.Close()
	})

	t.Run("close with a pending unread block", func(t *testing.T) {
		mockBlockchain := NewBlockchainMock(t)
		svc := New(map[string]Blockchain{"ethereum": mockBlockchain})

		eventsCh := make(chan BlockchainEvent, observedBlockChannelBufferSize*3)
		mockBlockchain.EXPECT().Subscribe(mock.Anything, types.Hex("")).Return((<-chan BlockchainEvent)(eventsCh), nil).Once()

		_, err := svc.Start(t.Context())
		require.NoError(t, err)

		for i := range cap(eventsCh) {
			height := types.HexFromInt(int64(i))
			eventsCh <- BlockchainEvent{Height: height, Block: sampleBlock(height)}
		}

		assert.NotPanics(t, svc.Close)
	})
}

func TestService_fetchObservedBlock(t *testing.T) {
	t.Run("unregistered network", func(t *testing.T) {
		svc := New(map[string]Blockchain{})

		_, err := svc.fetchObservedBlock(t.Context(), "polygon", "0x1")
		assert.ErrorIs(t, err, ErrNetworkNotRegistered)
	})

	t.Run("registered network", func(t *testing.T) {
		mockBlockchain := NewBlockchainMock(t)
		svc := New(map[string]Blockchain{"ethereum": mockBlockchain})

		mockBlockchain.EXPECT().FetchBlockByHeight(mock.Anything, types.Hex("0x1")).Return(sampleBlock("0x1"), nil).Once()

		observed, err := svc.fetchObservedBlock(t.Context(), "ethereum", "0x1")
		require.NoError(t, err)
		assert.Equal(t, ObservedBlock{Network: "ethereum", Block: sampleBlock("0x1")}, observed)
	})
}
