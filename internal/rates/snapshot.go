package rates

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"ratewatch-telegram-bot/internal/types"
)

// Snapshots is the evaluator's entry point: one batched fetch serving
// every requested symbol. Symbols the bank did not quote are simply
// absent from the result; a failure of the fetch as a whole is reported
// as types.ErrSnapshotUnavailable so the sweep aborts instead of
// evaluating against stale or fabricated data.
func (c *Client) Snapshots(ctx context.Context, symbols []string) (map[string]types.Snapshot, error) {
	if len(symbols) == 0 {
		return map[string]types.Snapshot{}, nil
	}

	quotes, dateStr, err := c.RatesForDate(ctx, time.Now())
	if err != nil {
		return nil, errors.Wrapf(types.ErrSnapshotUnavailable, "%v", err)
	}

	asOf := cbrDate(dateStr, time.Now())
	snapshots := make(map[string]types.Snapshot, len(symbols))
	for _, symbol := range symbols {
		if rate, ok := quotes[symbol]; ok {
			snapshots[symbol] = types.Snapshot{Value: rate.Value, AsOf: asOf}
		}
	}
	return snapshots, nil
}
