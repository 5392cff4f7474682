// Package ethereum implements chainstream.Blockchain for Ethereum-compatible
// nodes on top of a JSON-RPC client.
package ethereum

import (
	"time"

	"github.com/gabapcia/transferwatch/internal/chainstream"
	"github.com/gabapcia/transferwatch/internal/pkg/transport/jsonrpc"
)

const (
	// averageNumberOfTransactionsPerBlock defines the default buffer size for the event channel.
	averageNumberOfTransactionsPerBlock = 200

	// averageBlockTime defines the expected time between blocks in Ethereum.
	averageBlockTime = 12 * time.Second
)

// client talks to an Ethereum node through conn.
type client struct {
	conn         jsonrpc.Client
	pollInterval time.Duration
}

var _ chainstream.Blockchain = (*client)(nil)

type config struct {
	pollInterval time.Duration
}

type Option func(*config)

// NewClient creates an Ethereum blockchain client over conn.
func NewClient(conn jsonrpc.Client, opts ...Option) *client {
	cfg := config{
		pollInterval: averageBlockTime,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &client{
		conn:         conn,
		pollInterval: cfg.pollInterval,
	}
}

// WithPollInterval sets how often Subscribe asks the node for new blocks.
// Default: 12s.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}
