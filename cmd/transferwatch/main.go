package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gabapcia/transferwatch/internal/agent"
	"github.com/gabapcia/transferwatch/internal/chainstream"
	"github.com/gabapcia/transferwatch/internal/config"
	"github.com/gabapcia/transferwatch/internal/finding"
	"github.com/gabapcia/transferwatch/internal/handlers/cli"
	"github.com/gabapcia/transferwatch/internal/infra/blockchain/ethereum"
	redisstorage "github.com/gabapcia/transferwatch/internal/infra/storage/redis"
	"github.com/gabapcia/transferwatch/internal/pkg/logger"
	"github.com/gabapcia/transferwatch/internal/pkg/resilience/retry"
	"github.com/gabapcia/transferwatch/internal/pkg/telemetry"
	"github.com/gabapcia/transferwatch/internal/pkg/transport/jsonrpc"
	"github.com/gabapcia/transferwatch/internal/transferrule"
)

const shutdownTimeout = 10 * time.Second

// newAgentProvider wires the agent against the configured node and Redis.
func newAgentProvider(cfg config.Config, handle transferrule.HandleTransaction[finding.Finding]) cli.AgentProvider {
	return func(ctx context.Context) (agent.Service, func(), error) {
		storage, err := redisstorage.NewClient(ctx,
			cfg.Redis.Addr,
			cfg.Redis.Username,
			cfg.Redis.Password,
			cfg.Redis.DB,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}

		cleanup := func() {
			if err := storage.Close(); err != nil {
				logger.Error(ctx, "error closing redis client", "error", err)
			}
		}

		node := ethereum.NewClient(jsonrpc.NewClient(cfg.Ethereum.RPCEndpoint))
		stream := chainstream.New(
			map[string]chainstream.Blockchain{cfg.Ethereum.Network: node},
			chainstream.WithCheckpointStorage(storage),
			chainstream.WithRetry(retry.New()),
		)

		return agent.New(stream, handle, storage, agent.WithIdempotencyGuard(storage)), cleanup, nil
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	shutdown := telemetry.ShutdownFunc(telemetry.NopShutdown)
	if cfg.TelemetryEnabled {
		if shutdown, err = telemetry.Init(ctx, cfg.ServiceName); err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := shutdown(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "error shutting down telemetry:", err)
		}
	}()

	// Init after telemetry so entries reach the OTLP log pipeline too.
	if err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	rule, err := transferrule.New(cfg.Rule.Options()...)
	if err != nil {
		return fmt.Errorf("build transfer rule: %w", err)
	}

	factory, err := finding.NewFactory(finding.LargeTransfer(rule.ValueThreshold()))
	if err != nil {
		return fmt.Errorf("build finding factory: %w", err)
	}

	handle, err := transferrule.ProvideWithRule[finding.Finding](rule, factory)
	if err != nil {
		return fmt.Errorf("build transfer handler: %w", err)
	}

	ctx = logger.Derive(ctx, "service.name", cfg.ServiceName)
	return cli.Run(ctx, newAgentProvider(cfg, handle), handle)
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
