package digest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"ratewatch-telegram-bot/internal/rates"
	"ratewatch-telegram-bot/internal/types"
)

const digestDailyXML = `<?xml version="1.0" encoding="UTF-8"?>
<ValCurs Date="29.08.2026" name="Foreign Currency Market">
  <Valute ID="R01235">
    <NumCode>840</NumCode><CharCode>USD</CharCode>
    <Nominal>1</Nominal><Name>US Dollar</Name><Value>81,4510</Value>
  </Valute>
</ValCurs>`

const digestKeyRatePage = `<html><body>
<table class="data">
  <tr><th>Date</th><th>Rate</th></tr>
  <tr><td>28.08.2026</td><td>16,50</td></tr>
</table>
</body></html>`

type fakeStore struct {
	users []types.User
	err   error
}

func (s *fakeStore) AllUsers() ([]types.User, error) { return s.users, s.err }

type fakeSender struct {
	sent    []int64
	texts   []string
	failFor map[int64]bool
}

func (s *fakeSender) Notify(chatID int64, text string) error {
	if s.failFor[chatID] {
		return errors.Wrap(types.ErrDelivery, "chat unreachable")
	}
	s.sent = append(s.sent, chatID)
	s.texts = append(s.texts, text)
	return nil
}

func newTestRates(t *testing.T) *rates.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/scripts/XML_daily.asp":
			fmt.Fprint(w, digestDailyXML)
		case "/hd_base/KeyRate/":
			fmt.Fprint(w, digestKeyRatePage)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return rates.NewClient(srv.URL+"/", 2*time.Second)
}

func TestDigest_Broadcast(t *testing.T) {
	store := &fakeStore{users: []types.User{{UserID: 1}, {UserID: 2}}}
	sender := &fakeSender{}

	d := New(store, newTestRates(t), sender)
	d.Run(context.Background())

	require.Equal(t, []int64{1, 2}, sender.sent)
	require.Contains(t, sender.texts[0], "Daily digest")
	require.Contains(t, sender.texts[0], "USD")
	require.Contains(t, sender.texts[0], "Key interest rate")
}

func TestDigest_SkipsUnreachableRecipient(t *testing.T) {
	store := &fakeStore{users: []types.User{{UserID: 1}, {UserID: 2}, {UserID: 3}}}
	sender := &fakeSender{failFor: map[int64]bool{2: true}}

	d := New(store, newTestRates(t), sender)
	d.Run(context.Background())

	require.Equal(t, []int64{1, 3}, sender.sent)
}

func TestDigest_NoRecipients(t *testing.T) {
	var fetched int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetched++
	}))
	defer srv.Close()

	d := New(&fakeStore{}, rates.NewClient(srv.URL+"/", time.Second), &fakeSender{})
	d.Run(context.Background())

	require.Zero(t, fetched, "an empty recipient list must not trigger a fetch")
}

func TestDigest_StoreError(t *testing.T) {
	store := &fakeStore{err: errors.Wrap(types.ErrStorage, "boom")}
	sender := &fakeSender{}

	d := New(store, newTestRates(t), sender)
	d.Run(context.Background())

	require.Empty(t, sender.sent)
}
