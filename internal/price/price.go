// Package price keeps an in-memory cache of cryptocurrency quotes,
// refreshed in the background from the CoinPaprika API. The cache only
// feeds presentation commands; alert evaluation never reads from it.
package price

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Info is the subset of a ticker the bot displays.
type Info struct {
	ID        string
	Name      string
	Symbol    string
	PriceUSD  float64
	MarketCap float64
	Change24h float64
	FetchedAt time.Time
}

// Cache polls CoinPaprika and serves quotes to the /crypto command.
type Cache struct {
	client   *coinpaprika.Client
	interval time.Duration

	mu       sync.RWMutex
	bySymbol map[string]Info
	ranked   []Info
}

func NewCache(client *coinpaprika.Client, interval time.Duration) *Cache {
	return &Cache{
		client:   client,
		interval: interval,
		bySymbol: make(map[string]Info),
	}
}

// Start runs the refresh loop until the context is cancelled. Failures
// back off and retry; the previous snapshot stays served in the meantime.
func (c *Cache) Start(ctx context.Context) {
	go func() {
		b := &backoff.Backoff{Min: 10 * time.Second, Max: 2 * time.Minute, Jitter: true}
		for {
			wait := c.interval
			if err := c.refresh(); err != nil {
				wait = b.Duration()
				log.Errorf("crypto price refresh failed: %v", err)
			} else {
				b.Reset()
			}

			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return
			}
		}
	}()
	log.Info("crypto price updater started")
}

func (c *Cache) refresh() error {
	tickers, err := c.client.Tickers.List(&coinpaprika.TickersOptions{Quotes: "USD"})
	if err != nil {
		return errors.Wrap(err, "could not list tickers")
	}

	now := time.Now()
	bySymbol := make(map[string]Info, len(tickers))
	var ranked []Info
	for _, t := range tickers {
		if t.ID == nil || t.Name == nil || t.Symbol == nil {
			continue
		}
		usd, ok := t.Quotes["USD"]
		if !ok || usd.Price == nil {
			continue
		}

		info := Info{
			ID:        *t.ID,
			Name:      *t.Name,
			Symbol:    strings.ToUpper(*t.Symbol),
			PriceUSD:  *usd.Price,
			FetchedAt: now,
		}
		if usd.MarketCap != nil {
			info.MarketCap = *usd.MarketCap
		}
		if usd.PercentChange24h != nil {
			info.Change24h = *usd.PercentChange24h
		}

		if _, seen := bySymbol[info.Symbol]; !seen {
			bySymbol[info.Symbol] = info
		}
		ranked = append(ranked, info)
	}

	if len(ranked) == 0 {
		return errors.New("empty ticker list")
	}

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].MarketCap > ranked[j].MarketCap })

	c.mu.Lock()
	c.bySymbol = bySymbol
	c.ranked = ranked
	c.mu.Unlock()

	log.Debugf("crypto prices updated: %d tickers", len(ranked))
	return nil
}

// Get returns the cached quote for one symbol (e.g. "BTC").
func (c *Cache) Get(symbol string) (Info, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.bySymbol[strings.ToUpper(symbol)]
	return info, ok
}

// Top returns the n largest assets by market cap.
func (c *Cache) Top(n int) []Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n > len(c.ranked) {
		n = len(c.ranked)
	}
	return append([]Info(nil), c.ranked[:n]...)
}
