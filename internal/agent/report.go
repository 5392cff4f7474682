package agent

import (
	"context"
	"math/big"
	"time"

	"github.com/gabapcia/transferwatch/internal/chainstream"
	"github.com/gabapcia/transferwatch/internal/finding"
	"github.com/gabapcia/transferwatch/internal/pkg/types"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
)

// Report wraps a finding with the chain context it was raised for.
type Report struct {
	ReportID    string          `json:"reportId"`     // UUIDv7, unique per report
	Network     string          `json:"network"`      // Network name (e.g., "ethereum")
	BlockHeight types.Hex       `json:"blockHeight"`  // Height of the block holding the transaction
	BlockHash   string          `json:"blockHash"`    // Hash of the block holding the transaction
	TxHash      string          `json:"txHash"`       // Transaction hash
	From        string          `json:"from"`         // Sender address
	To          string          `json:"to,omitempty"` // Recipient address, empty for contract creation
	Value       *hexutil.Big    `json:"value"`        // Transferred amount in wei, hex encoded
	Finding     finding.Finding `json:"finding"`      // Finding produced by the rule
	ReportedAt  time.Time       `json:"reportedAt"`   // UTC creation time
}

// newReport builds the Report for a finding raised on tx.
func newReport(block chainstream.ObservedBlock, tx chainstream.Transaction, f finding.Finding) Report {
	value := new(big.Int)
	if tx.Value != nil {
		value.Set(tx.Value)
	}

	return Report{
		ReportID:    uuid.Must(uuid.NewV7()).String(),
		Network:     block.Network,
		BlockHeight: block.Height,
		BlockHash:   block.Hash,
		TxHash:      tx.Hash,
		From:        tx.From,
		To:          tx.To,
		Value:       (*hexutil.Big)(value),
		Finding:     f,
		ReportedAt:  time.Now().UTC(),
	}
}

// FindingPublisher delivers reports to an external sink (a stream, a queue,
// a webhook).
type FindingPublisher interface {
	// PublishReports delivers every report of a block. A non-nil error means
	// the block must not be marked as complete.
	PublishReports(ctx context.Context, reports []Report) error
}
