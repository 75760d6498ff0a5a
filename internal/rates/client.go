// Package rates fetches observations from the Bank of Russia: daily
// currency quotes, the key interest rate and precious metal prices.
// Every call returns typed, validated structs so malformed upstream data
// stops at this boundary.
package rates

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
)

const DefaultBaseURL = "https://www.cbr.ru/"

const fetchAttempts = 3

// Client talks to the CBR endpoints. One instance is shared by the
// command handlers, the evaluator and the daily digest.
type Client struct {
	http    *http.Client
	baseURL string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// get fetches one URL with bounded retries. The per-request timeout comes
// from the embedded http.Client, the context bounds the whole call.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	b := &backoff.Backoff{Min: 500 * time.Millisecond, Max: 5 * time.Second, Jitter: true}

	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(b.Duration()):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errors.Wrap(err, "could not build request")
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = errors.Errorf("unexpected status %d from %s", resp.StatusCode, url)
			continue
		}
		return body, nil
	}
	return nil, errors.Wrapf(lastErr, "giving up after %d attempts", fetchAttempts)
}
