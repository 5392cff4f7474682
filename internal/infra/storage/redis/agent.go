package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gabapcia/transferwatch/internal/agent"

	"github.com/redis/go-redis/v9"
)

const (
	// agentKeyPrefix namespaces the block idempotency keys of the agent.
	agentKeyPrefix = "agent"

	// agentIdempotencyClaimed is held by a block while it is evaluated.
	agentIdempotencyClaimed = "claimed"

	// agentIdempotencyDone marks a block whose reports were published.
	agentIdempotencyDone = "done"

	// findingsStream is the Redis stream reports are appended to.
	findingsStream = "transferwatch:findings"
)

// releaseClaimScript deletes KEYS[1] only while it still holds the claim
// value ARGV[1], so a completed block is never reopened.
var releaseClaimScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// agentIdempotencyKey returns "agent:idempotency:<network>:<blockHash>".
func agentIdempotencyKey(network, blockHash string) string {
	return fmt.Sprintf("%s:idempotency:%s:%s", agentKeyPrefix, network, blockHash)
}

// ClaimBlock reserves a block for evaluation with a SETNX that expires after ttl.
//
// It returns agent.ErrAlreadyFinished when the key holds "done" and
// agent.ErrStillInProgress when another claim is still alive.
func (c *client) ClaimBlock(ctx context.Context, network, blockHash string, ttl time.Duration) error {
	key := agentIdempotencyKey(network, blockHash)

	val, err := c.conn.Get(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	if val == agentIdempotencyDone {
		return agent.ErrAlreadyFinished
	}

	ok, err := c.conn.SetNX(ctx, key, agentIdempotencyClaimed, ttl).Result()
	if err != nil {
		return err
	}

	if !ok {
		return agent.ErrStillInProgress
	}

	return nil
}

// MarkBlockComplete overwrites the claim with "done" and no expiration.
func (c *client) MarkBlockComplete(ctx context.Context, network, blockHash string) error {
	key := agentIdempotencyKey(network, blockHash)
	return c.conn.Set(ctx, key, agentIdempotencyDone, 0).Err()
}

// ReleaseBlock drops a claim that is still in progress.
func (c *client) ReleaseBlock(ctx context.Context, network, blockHash string) error {
	key := agentIdempotencyKey(network, blockHash)
	return releaseClaimScript.Run(ctx, c.conn, []string{key}, agentIdempotencyClaimed).Err()
}

var _ agent.IdempotencyGuard = new(client)

// reportStreamValues encodes a report as the field set of a stream entry.
// The full report is kept as JSON under "payload"; the other fields allow
// filtering without decoding it.
func reportStreamValues(report agent.Report) (map[string]any, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"reportId": report.ReportID,
		"network":  report.Network,
		"alertId":  report.Finding.AlertID,
		"txHash":   report.TxHash,
		"payload":  string(payload),
	}, nil
}

// PublishReports appends every report to the findings stream in a single
// MULTI/EXEC transaction. The transaction is retried as a whole.
func (c *client) PublishReports(ctx context.Context, reports []agent.Report) error {
	if len(reports) == 0 {
		return nil
	}

	entries := make([]map[string]any, len(reports))
	for i, report := range reports {
		values, err := reportStreamValues(report)
		if err != nil {
			return fmt.Errorf("encode report %s: %w", report.ReportID, err)
		}
		entries[i] = values
	}

	errs := c.retry.Execute(ctx, func() error {
		_, err := c.conn.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, values := range entries {
				pipe.XAdd(ctx, &redis.XAddArgs{
					Stream: findingsStream,
					MaxLen: c.findingsStreamMaxLen,
					Approx: c.findingsStreamMaxLen > 0,
					Values: values,
				})
			}
			return nil
		})
		return err
	})
	if errs != nil {
		return errors.Join(errs...)
	}

	return nil
}

var _ agent.FindingPublisher = new(client)
