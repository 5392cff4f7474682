package chainstream

import (
	"math/big"

	"github.com/gabapcia/transferwatch/internal/pkg/types"
)

// Transaction is the subset of a chain transaction the pipeline carries.
type Transaction struct {
	Hash  string   // Transaction hash
	From  string   // Sender address
	To    string   // Recipient address, empty for contract creation
	Value *big.Int // Transferred native amount in wei
}

// Block represents a blockchain block with its height, hash,
// and the transactions included in it.
type Block struct {
	Height       types.Hex     // Block height represented as a hex string
	Hash         string        // Unique block hash
	Transactions []Transaction // Transactions in block order
}

// ObservedBlock is a Block annotated with the network it was read from.
// It is the output of the chainstream Service.
type ObservedBlock struct {
	Network string // Name of the blockchain network (e.g., "ethereum", "sepolia")
	Block
}
