package ethereum

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/gabapcia/transferwatch/internal/chainstream"
	"github.com/gabapcia/transferwatch/internal/pkg/logger"
	"github.com/gabapcia/transferwatch/internal/pkg/types"
	"github.com/gabapcia/transferwatch/internal/pkg/x/chflow"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrBlockNotFound is returned when the node has no block at the requested height yet.
var ErrBlockNotFound = errors.New("block not found")

type (
	// TransactionResponse is a transaction object as returned by
	// eth_getBlockByNumber with full transactions.
	TransactionResponse struct {
		Type             string       `json:"type"`
		ChainID          string       `json:"chainId"`
		Nonce            string       `json:"nonce"`
		Gas              string       `json:"gas"`
		GasPrice         string       `json:"gasPrice"`
		To               string       `json:"to"`
		Value            *hexutil.Big `json:"value"`
		Input            string       `json:"input"`
		Hash             string       `json:"hash"`
		BlockHash        string       `json:"blockHash"`
		BlockNumber      string       `json:"blockNumber"`
		TransactionIndex string       `json:"transactionIndex"`
		From             string       `json:"from"`
	}

	// BlockResponse is a block object as returned by eth_getBlockByNumber.
	BlockResponse struct {
		Hash          string                `json:"hash"`
		ParentHash    string                `json:"parentHash"`
		Miner         string                `json:"miner"`
		Number        types.Hex             `json:"number"`
		GasLimit      string                `json:"gasLimit"`
		GasUsed       string                `json:"gasUsed"`
		Timestamp     string                `json:"timestamp"`
		BaseFeePerGas string                `json:"baseFeePerGas"`
		Size          string                `json:"size"`
		Transactions  []TransactionResponse `json:"transactions"`
	}
)

// toChainstreamTransaction keeps the fields the pipeline needs. A missing
// value decodes as zero and a missing to (contract creation) stays empty.
func (t TransactionResponse) toChainstreamTransaction() chainstream.Transaction {
	value := new(big.Int)
	if t.Value != nil {
		value.Set(t.Value.ToInt())
	}

	return chainstream.Transaction{
		Hash:  t.Hash,
		From:  t.From,
		To:    t.To,
		Value: value,
	}
}

func (b BlockResponse) toChainstreamBlock() chainstream.Block {
	transactions := make([]chainstream.Transaction, len(b.Transactions))
	for i, t := range b.Transactions {
		transactions[i] = t.toChainstreamTransaction()
	}

	return chainstream.Block{
		Height:       b.Number,
		Hash:         b.Hash,
		Transactions: transactions,
	}
}

// getLatestBlockNumber fetches the latest block number from the node.
func (c *client) getLatestBlockNumber(ctx context.Context) (types.Hex, error) {
	data, err := c.conn.Fetch(ctx, "eth_blockNumber")
	if err != nil {
		return "", err
	}

	var blockNumber types.Hex
	return blockNumber, json.Unmarshal(data, &blockNumber)
}

// getBlockByNumber retrieves a full block, transactions included.
func (c *client) getBlockByNumber(ctx context.Context, blockNumber types.Hex) (BlockResponse, error) {
	data, err := c.conn.Fetch(ctx, "eth_getBlockByNumber", blockNumber, true)
	if err != nil {
		return BlockResponse{}, err
	}

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return BlockResponse{}, fmt.Errorf("%w: %s", ErrBlockNotFound, blockNumber)
	}

	var blockResponse BlockResponse
	return blockResponse, json.Unmarshal(data, &blockResponse)
}

// FetchBlockByHeight implements chainstream.Blockchain.
func (c *client) FetchBlockByHeight(ctx context.Context, height types.Hex) (chainstream.Block, error) {
	block, err := c.getBlockByNumber(ctx, height)
	if err != nil {
		return chainstream.Block{}, err
	}

	return block.toChainstreamBlock(), nil
}

// pollNewBlocks emits one event per height in [fromBlockNumber, latest] and
// returns the height to start from on the next call.
//
// When the latest block number cannot be read the failure is logged and
// fromBlockNumber is returned unchanged. A failed block fetch is emitted as
// an error event for that height and the poll moves on.
func (c *client) pollNewBlocks(ctx context.Context, fromBlockNumber types.Hex, eventsCh chan<- chainstream.BlockchainEvent) types.Hex {
	latestBlockNumber, err := c.getLatestBlockNumber(ctx)
	if err != nil {
		logger.Warn(ctx, "failed to read latest block number",
			"block.height", fromBlockNumber,
			"error", err,
		)
		return fromBlockNumber
	}

	if fromBlockNumber.Int() > latestBlockNumber.Int() {
		return fromBlockNumber
	}

	currentBlockNumber := fromBlockNumber
	for currentBlockNumber.Int() <= latestBlockNumber.Int() {
		event := chainstream.BlockchainEvent{Height: currentBlockNumber}

		block, err := c.FetchBlockByHeight(ctx, currentBlockNumber)
		if err != nil {
			event.Err = err
		} else {
			event.Block = block
		}

		if ok := chflow.Send(ctx, eventsCh, event); !ok {
			return currentBlockNumber
		}

		currentBlockNumber = currentBlockNumber.Add(1)
	}

	return currentBlockNumber
}

// Subscribe implements chainstream.Blockchain. It polls the node every poll
// interval; an empty fromHeight starts at the latest block at call time.
func (c *client) Subscribe(ctx context.Context, fromHeight types.Hex) (<-chan chainstream.BlockchainEvent, error) {
	if fromHeight.IsEmpty() {
		latestBlockNumber, err := c.getLatestBlockNumber(ctx)
		if err != nil {
			return nil, err
		}

		fromHeight = latestBlockNumber
	}

	eventsCh := make(chan chainstream.BlockchainEvent, averageNumberOfTransactionsPerBlock)
	go func() {
		defer close(eventsCh)

		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fromHeight = c.pollNewBlocks(ctx, fromHeight, eventsCh)
			}
		}
	}()

	return eventsCh, nil
}
