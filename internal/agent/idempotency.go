package agent

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrStillInProgress indicates that the block is being evaluated by another instance.
	ErrStillInProgress = errors.New("processing still in progress")

	// ErrAlreadyFinished indicates that the block was already evaluated and reported.
	ErrAlreadyFinished = errors.New("processing already finished")
)

// IdempotencyGuard makes sure each block is evaluated and reported once,
// across restarts and parallel agent instances.
type IdempotencyGuard interface {
	// ClaimBlock claims a block for evaluation. The claim expires after ttl
	// so a crashed instance does not hold a block forever.
	//
	// It returns ErrStillInProgress or ErrAlreadyFinished when the block must
	// be skipped. Any other error is a failure of the guard itself.
	ClaimBlock(ctx context.Context, network, blockHash string, ttl time.Duration) error

	// MarkBlockComplete records that the reports for a block were published.
	// Completed blocks are never claimed again.
	MarkBlockComplete(ctx context.Context, network, blockHash string) error

	// ReleaseBlock drops an in-progress claim so the block can be claimed
	// again right away. Completed blocks stay completed.
	ReleaseBlock(ctx context.Context, network, blockHash string) error
}

// nopIdempotencyGuard allows every claim and stores nothing.
type nopIdempotencyGuard struct{}

var _ IdempotencyGuard = (*nopIdempotencyGuard)(nil)

func (nopIdempotencyGuard) ClaimBlock(context.Context, string, string, time.Duration) error {
	return nil
}

func (nopIdempotencyGuard) MarkBlockComplete(context.Context, string, string) error {
	return nil
}

func (nopIdempotencyGuard) ReleaseBlock(context.Context, string, string) error {
	return nil
}
