// Package alert implements the periodic sweep over outstanding threshold
// alerts: one consistent batch of rate snapshots per sweep, inclusive
// threshold comparison, and fire-once delivery where deleting the alert
// row is the commit point.
package alert

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"ratewatch-telegram-bot/internal/types"
)

// Store is the slice of the database the evaluator needs.
type Store interface {
	ActiveAlerts() []types.Alert
	DeleteAlert(alertID int64) error
}

// SnapshotProvider returns one fresh observation per requested symbol.
// Symbols without a quote are absent from the map; a failure of the batch
// as a whole is an error.
type SnapshotProvider interface {
	Snapshots(ctx context.Context, symbols []string) (map[string]types.Snapshot, error)
}

// Notifier delivers one message to one chat. Errors are per-recipient and
// never abort the batch.
type Notifier interface {
	Notify(chatID int64, text string) error
}

// Metrics are optional counters surfaced on /metrics.
type Metrics struct {
	Sweeps           prometheus.Counter
	Fired            prometheus.Counter
	DeliveryFailures prometheus.Counter
}

// Evaluator runs the sweep. One instance, driven by the cron schedule.
type Evaluator struct {
	store    Store
	rates    SnapshotProvider
	notifier Notifier
	metrics  Metrics
}

func NewEvaluator(store Store, rates SnapshotProvider, notifier Notifier, metrics Metrics) *Evaluator {
	return &Evaluator{store: store, rates: rates, notifier: notifier, metrics: metrics}
}

// Sweep evaluates every outstanding alert against a single batch of
// snapshots. It returns an error only when the batch fetch failed and the
// sweep was aborted; per-alert problems are logged and skipped so the job
// always makes forward progress.
func (e *Evaluator) Sweep(ctx context.Context) error {
	if e.metrics.Sweeps != nil {
		e.metrics.Sweeps.Inc()
	}

	alerts := e.store.ActiveAlerts()
	if len(alerts) == 0 {
		log.Debug("no active alerts, sweep is a no-op")
		return nil
	}

	snapshots, err := e.rates.Snapshots(ctx, distinctSymbols(alerts))
	if err != nil {
		// no partial evaluation against stale or default data
		log.Errorf("aborting sweep, snapshot fetch failed: %v", err)
		return err
	}

	fired := 0
	for _, a := range alerts {
		snapshot, ok := snapshots[a.FromCurrency]
		if !ok {
			// unknown is not false: leave the alert for a future sweep
			log.Warnf("no snapshot for %s, skipping alert %d", a.FromCurrency, a.ID)
			continue
		}

		if !a.ConditionMet(snapshot.Value) {
			continue
		}

		if err := e.notifier.Notify(a.UserID, TriggeredMessage(a, snapshot.Value)); err != nil {
			// retained for retry on the next sweep
			if e.metrics.DeliveryFailures != nil {
				e.metrics.DeliveryFailures.Inc()
			}
			log.Errorf("failed to notify user %d for alert %d: %v", a.UserID, a.ID, err)
			continue
		}

		// Delivery succeeded; deletion commits the firing. If the delete
		// fails here the alert may notify twice, which is the documented
		// trade-off over losing the notification.
		if err := e.store.DeleteAlert(a.ID); err != nil {
			log.Errorf("failed to delete fired alert %d, duplicate possible: %v", a.ID, err)
		}
		if e.metrics.Fired != nil {
			e.metrics.Fired.Inc()
		}
		fired++
	}

	log.Infof("sweep done: %d alerts checked, %d fired", len(alerts), fired)
	return nil
}

func distinctSymbols(alerts []types.Alert) []string {
	seen := make(map[string]struct{}, len(alerts))
	var symbols []string
	for _, a := range alerts {
		if _, ok := seen[a.FromCurrency]; ok {
			continue
		}
		seen[a.FromCurrency] = struct{}{}
		symbols = append(symbols, a.FromCurrency)
	}
	return symbols
}
