// Package digest broadcasts a morning summary of the official rates to
// every known chat.
package digest

import (
	"context"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"ratewatch-telegram-bot/internal/commands"
	"ratewatch-telegram-bot/internal/rates"
	"ratewatch-telegram-bot/internal/types"
)

const (
	buildTimeout = 2 * time.Minute
	// Telegram throttles bulk sends, so recipients are paced.
	sendDelay = 50 * time.Millisecond
)

// Store lists the digest recipients.
type Store interface {
	AllUsers() ([]types.User, error)
}

// Sender delivers one digest message.
type Sender interface {
	Notify(chatID int64, text string) error
}

// Digest composes and broadcasts the daily summary.
type Digest struct {
	store  Store
	rates  *rates.Client
	sender Sender
}

func New(store Store, ratesClient *rates.Client, sender Sender) *Digest {
	return &Digest{store: store, rates: ratesClient, sender: sender}
}

// Run builds the digest once and sends it to every user. A recipient
// that cannot be reached is logged and skipped, the broadcast continues.
func (d *Digest) Run(ctx context.Context) {
	users, err := d.store.AllUsers()
	if err != nil {
		log.Errorf("digest: failed to list recipients: %v", err)
		return
	}
	if len(users) == 0 {
		log.Debug("digest: no recipients, skipping")
		return
	}

	text, err := d.build(ctx)
	if err != nil {
		log.Errorf("digest: failed to build message: %v", err)
		return
	}

	sent := 0
	for _, u := range users {
		if ctx.Err() != nil {
			log.Warnf("digest: cancelled after %d of %d recipients", sent, len(users))
			return
		}
		if err := d.sender.Notify(u.UserID, text); err != nil {
			log.Errorf("digest: failed to deliver to %d: %v", u.UserID, err)
			continue
		}
		sent++
		time.Sleep(sendDelay)
	}
	log.Infof("digest sent to %d of %d recipients", sent, len(users))
}

func (d *Digest) build(ctx context.Context) (string, error) {
	ratesText, err := commands.CommandRates(ctx, d.rates)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("🌅 *Good morning\\! Daily digest*\n\n")
	sb.WriteString(ratesText)

	// The key rate is a nice-to-have here, a scrape failure must not
	// sink the whole digest.
	if keyRateText, err := commands.CommandKeyRate(ctx, d.rates); err == nil {
		sb.WriteString("\n\n")
		sb.WriteString(keyRateText)
	} else {
		log.Warnf("digest: key rate omitted: %v", err)
	}

	return sb.String(), nil
}

// Schedule registers the broadcast on the shared cron runner. A tick
// that arrives while the previous broadcast is still going is skipped.
func Schedule(c *cron.Cron, spec string, d *Digest) (cron.EntryID, error) {
	job := cron.NewChain(
		cron.SkipIfStillRunning(cron.VerbosePrintfLogger(log.StandardLogger())),
	).Then(cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
		defer cancel()
		d.Run(ctx)
	}))
	return c.AddJob(spec, job)
}
