package agent

import (
	"context"
	"errors"

	"github.com/gabapcia/transferwatch/internal/chainstream"
	"github.com/gabapcia/transferwatch/internal/pkg/logger"
	"github.com/gabapcia/transferwatch/internal/pkg/x/chflow"
	"github.com/gabapcia/transferwatch/internal/transferrule"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// evaluateBlock runs the rule against every transaction of block and
// returns one Report per finding.
func (s *service) evaluateBlock(ctx context.Context, block chainstream.ObservedBlock) []Report {
	var reports []Report
	for _, tx := range block.Transactions {
		for _, f := range s.handleTransaction(transferrule.Transaction(tx)) {
			reports = append(reports, newReport(block, tx, f))
		}
	}

	networkAttr := metric.WithAttributes(attribute.String("block.network", block.Network))
	s.transactionsEvaluated.Add(ctx, int64(len(block.Transactions)), networkAttr)
	s.findingsEmitted.Add(ctx, int64(len(reports)), networkAttr)

	return reports
}

// processBlock claims block, evaluates its transactions, publishes the
// resulting reports and marks the block as complete.
//
// ErrStillInProgress and ErrAlreadyFinished are returned unchanged when the
// claim is refused. When publishing fails the claim is released. A failure to
// mark the block complete is only logged.
func (s *service) processBlock(ctx context.Context, block chainstream.ObservedBlock) error {
	ctx, span := tracer.Start(ctx, "agent.processBlock", trace.WithAttributes(
		attribute.String("block.network", block.Network),
		attribute.String("block.height", block.Height.String()),
		attribute.String("block.hash", block.Hash),
	))
	defer span.End()

	if err := s.idempotencyGuard.ClaimBlock(ctx, block.Network, block.Hash, s.maxProcessingTime); err != nil {
		return err
	}

	reports := s.evaluateBlock(ctx, block)
	span.SetAttributes(attribute.Int("findings", len(reports)))

	if len(reports) > 0 {
		if err := s.findingPublisher.PublishReports(ctx, reports); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "publish reports")
			s.releaseBlock(ctx, block)
			return err
		}
	}

	if err := s.idempotencyGuard.MarkBlockComplete(ctx, block.Network, block.Hash); err != nil {
		logger.Error(ctx, "error marking block as complete", "error", err)
	}

	return nil
}

// releaseBlock drops the claim of block, also when ctx is already canceled.
func (s *service) releaseBlock(ctx context.Context, block chainstream.ObservedBlock) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseClaimTimeout)
	defer cancel()

	if err := s.idempotencyGuard.ReleaseBlock(releaseCtx, block.Network, block.Hash); err != nil {
		logger.Error(ctx, "error releasing block claim", "error", err)
	}
}

// settleBlock processes block until it succeeds or ctx is done. A block that
// was already finished counts as settled. It reports whether the block was
// settled.
func (s *service) settleBlock(ctx context.Context, block chainstream.ObservedBlock) bool {
	for {
		errs := s.retry.Execute(ctx, func() error {
			err := s.processBlock(ctx, block)
			if errors.Is(err, ErrAlreadyFinished) {
				logger.Debug(ctx, "skipping block", "reason", err)
				return nil
			}
			return err
		})
		if errs == nil {
			return true
		}

		if ctx.Err() != nil {
			return false
		}

		logger.Error(ctx, "error processing block, retrying", "error", errors.Join(errs...))
	}
}

// handleBlocks consumes blocksCh until it is closed or ctx is canceled.
//
// Blocks are handled one at a time and committed to chainstream only once
// settled, so a block interrupted by shutdown is delivered again on the next
// start.
func (s *service) handleBlocks(ctx context.Context, blocksCh <-chan chainstream.ObservedBlock) {
	for {
		block, ok := chflow.Receive(ctx, blocksCh)
		if !ok {
			return
		}

		blockCtx := logger.Derive(ctx,
			"block.network", block.Network,
			"block.height", block.Height,
			"block.hash", block.Hash,
		)

		if !s.settleBlock(blockCtx, block) {
			return
		}

		if err := s.chainstream.Commit(blockCtx, block); err != nil {
			logger.Error(blockCtx, "error committing block", "error", err)
		}
	}
}
