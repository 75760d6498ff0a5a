package alert

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// sweepTimeout bounds one sweep end to end: the batch fetch plus every
// delivery attempt.
const sweepTimeout = 5 * time.Minute

// Schedule registers the evaluator on the shared cron. SkipIfStillRunning
// keeps ticks non-reentrant: a sweep that outlives its interval suppresses
// the next tick instead of overlapping it.
func Schedule(c *cron.Cron, spec string, e *Evaluator) error {
	job := cron.NewChain(
		cron.SkipIfStillRunning(cron.VerbosePrintfLogger(log.StandardLogger())),
	).Then(cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		// sweep errors are already logged; the next tick retries
		_ = e.Sweep(ctx)
	}))

	if _, err := c.AddJob(spec, job); err != nil {
		return err
	}
	log.Infof("alert sweep scheduled: %s", spec)
	return nil
}
