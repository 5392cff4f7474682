package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabapcia/transferwatch/internal/chainstream"
	"github.com/gabapcia/transferwatch/internal/pkg/types"

	"github.com/redis/go-redis/v9"
)

// checkpointKeyFormat is "chainstream:checkpoint:<network>".
const checkpointKeyFormat = "chainstream:checkpoint:%s"

func chainstreamCheckpointKey(network string) string {
	return fmt.Sprintf(checkpointKeyFormat, network)
}

// SaveCheckpoint stores the height of the last committed block of network.
// The key never expires.
func (c *client) SaveCheckpoint(ctx context.Context, network string, height types.Hex) error {
	return c.conn.Set(ctx, chainstreamCheckpointKey(network), height.String(), 0).Err()
}

// LoadLatestCheckpoint returns chainstream.ErrNoCheckpointFound for a network
// that never committed a block.
func (c *client) LoadLatestCheckpoint(ctx context.Context, network string) (types.Hex, error) {
	raw, err := c.conn.Get(ctx, chainstreamCheckpointKey(network)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", chainstream.ErrNoCheckpointFound
	case err != nil:
		return "", err
	}

	height, err := types.HexFromString(raw)
	if err != nil {
		return "", fmt.Errorf("checkpoint of %s: %w", network, err)
	}
	return height, nil
}

var _ chainstream.CheckpointStorage = new(client)
