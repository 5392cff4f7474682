package cli

import (
	"context"
	"os"

	"github.com/gabapcia/transferwatch/internal/agent"
	"github.com/gabapcia/transferwatch/internal/finding"
	"github.com/gabapcia/transferwatch/internal/transferrule"

	"github.com/urfave/cli/v3"
)

// AgentProvider builds the agent on demand. cleanup releases what the agent
// needs (connections, clients) and is called after the agent is closed.
type AgentProvider func(ctx context.Context) (a agent.Service, cleanup func(), err error)

// newApp builds the root command with every subcommand registered.
func newApp(newAgent AgentProvider, handle transferrule.HandleTransaction[finding.Finding]) *cli.Command {
	return &cli.Command{
		EnableShellCompletion: true,
		Name:                  "transferwatch",
		Description:           "Watches native-currency transfers and reports the ones that match the configured rule.",
		Usage:                 "transferwatch [command] [flags]",
		Commands: []*cli.Command{
			startPipelineCommand(newAgent),
			evaluateTransactionCommand(handle),
		},
	}
}

// Run executes the transferwatch CLI with os.Args.
//
//   - `start`: runs the agent until SIGINT or SIGTERM.
//   - `evaluate`: runs a single transaction through the rule.
func Run(ctx context.Context, newAgent AgentProvider, handle transferrule.HandleTransaction[finding.Finding]) error {
	return newApp(newAgent, handle).Run(ctx, os.Args)
}
