package cli

import (
	"context"
	"encoding/json"

	"github.com/gabapcia/transferwatch/internal/config"
	"github.com/gabapcia/transferwatch/internal/finding"
	"github.com/gabapcia/transferwatch/internal/pkg/validator"
	"github.com/gabapcia/transferwatch/internal/transferrule"

	"github.com/urfave/cli/v3"
)

// evaluateTransactionCommand returns the command that runs one transaction
// through the configured rule and prints the findings as a JSON array.
//
//	transferwatch evaluate --from 0xABC... --to 0xDEF... --value 0x8ac7230489e80000
func evaluateTransactionCommand(handle transferrule.HandleTransaction[finding.Finding]) *cli.Command {
	return &cli.Command{
		Name:        "evaluate",
		Description: "Evaluate a single transaction against the configured transfer rule.",
		Usage:       "Prints the findings raised for the transaction. Omit --to for a contract creation.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "hash",
				Usage: "Transaction hash, informational only",
			},
			&cli.StringFlag{
				Name:     "from",
				Usage:    "Sender address",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "to",
				Usage: "Recipient address",
			},
			&cli.StringFlag{
				Name:     "value",
				Usage:    "Transferred amount in wei, decimal or 0x-prefixed hex",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			var (
				from = c.String("from")
				to   = c.String("to")
			)

			if err := validator.Var("from", from, "eth_addr"); err != nil {
				return err
			}
			if err := validator.Var("to", to, "omitempty,eth_addr"); err != nil {
				return err
			}

			value, err := config.ParseWeiAmount(c.String("value"))
			if err != nil {
				return err
			}

			findings := handle(transferrule.Transaction{
				Hash:  c.String("hash"),
				From:  from,
				To:    to,
				Value: value.Int(),
			})

			encoder := json.NewEncoder(c.Root().Writer)
			encoder.SetIndent("", "  ")
			return encoder.Encode(findings)
		},
	}
}
