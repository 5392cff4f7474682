package chainstream

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabapcia/transferwatch/internal/pkg/types"
)

// ErrNoCheckpointFound is returned by LoadLatestCheckpoint when nothing has
// been saved for the network yet.
var ErrNoCheckpointFound = errors.New("no checkpoint found for network")

// CheckpointStorage persists the latest committed block height per network
// so the stream can resume after a restart.
type CheckpointStorage interface {
	// SaveCheckpoint overwrites the checkpoint of network with height.
	SaveCheckpoint(ctx context.Context, network string, height types.Hex) error

	// LoadLatestCheckpoint returns the saved height, or ErrNoCheckpointFound.
	LoadLatestCheckpoint(ctx context.Context, network string) (types.Hex, error)
}

// Commit records block as fully handled by the consumer. The next Start
// resumes at the height right after the last committed block of each network,
// so blocks that were forwarded but never committed are delivered again.
func (s *service) Commit(ctx context.Context, block ObservedBlock) error {
	if err := s.checkpointStorage.SaveCheckpoint(ctx, block.Network, block.Height); err != nil {
		return fmt.Errorf("save checkpoint of %s at %s: %w", block.Network, block.Height, err)
	}
	return nil
}

// nopCheckpoint is the default CheckpointStorage. It saves nothing and
// always reports that no checkpoint exists.
type nopCheckpoint struct{}

func (nopCheckpoint) SaveCheckpoint(context.Context, string, types.Hex) error {
	return nil
}

func (nopCheckpoint) LoadLatestCheckpoint(context.Context, string) (types.Hex, error) {
	return "", ErrNoCheckpointFound
}
