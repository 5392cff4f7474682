package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gabapcia/transferwatch/internal/pkg/logger"

	"github.com/urfave/cli/v3"
)

// startPipelineCommand returns the command that runs the agent.
//
//	transferwatch start
//
// The process runs until it receives SIGINT or SIGTERM, or ctx is canceled.
func startPipelineCommand(newAgent AgentProvider) *cli.Command {
	return &cli.Command{
		Name:        "start",
		Description: "Starts the agent: chain ingestion, transfer evaluation and report publishing.",
		Usage:       "Runs the agent. Terminates gracefully on Ctrl+C or termination signals.",
		Action: func(ctx context.Context, c *cli.Command) error {
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			a, cleanup, err := newAgent(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.Start(ctx); err != nil {
				return err
			}
			defer a.Close()

			logger.Info(ctx, "agent started")

			select {
			case sig := <-quit:
				logger.Info(ctx, "shutting down", "signal", sig.String())
			case <-ctx.Done():
				logger.Info(ctx, "shutting down", "reason", ctx.Err())
			}
			return nil
		},
	}
}
