package rates

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ratewatch-telegram-bot/internal/types"
)

const dailyXML = `<?xml version="1.0" encoding="UTF-8"?>
<ValCurs Date="%s" name="Foreign Currency Market">
  <Valute ID="R01235">
    <NumCode>840</NumCode><CharCode>USD</CharCode>
    <Nominal>1</Nominal><Name>US Dollar</Name><Value>%s</Value>
  </Valute>
  <Valute ID="R01239">
    <NumCode>978</NumCode><CharCode>EUR</CharCode>
    <Nominal>1</Nominal><Name>Euro</Name><Value>90,1000</Value>
  </Valute>
  <Valute ID="R01820">
    <NumCode>392</NumCode><CharCode>JPY</CharCode>
    <Nominal>100</Nominal><Name>Japanese Yen</Name><Value>54,5000</Value>
  </Valute>
  <Valute ID="R09999">
    <NumCode>999</NumCode><CharCode>XXX</CharCode>
    <Nominal>1</Nominal><Name>Unlisted</Name><Value>1,0000</Value>
  </Valute>
</ValCurs>`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 2*time.Second)
}

func TestRatesForDate(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/scripts/XML_daily.asp", r.URL.Path)
		require.NotEmpty(t, r.URL.Query().Get("date_req"))
		fmt.Fprintf(w, dailyXML, "29.08.2026", "81,4510")
	}))

	quotes, date, err := client.RatesForDate(context.Background(), time.Now())
	require.NoError(t, err)
	require.Equal(t, "29.08.2026", date)

	require.InDelta(t, 81.451, quotes["USD"].Value, 1e-9)
	require.Equal(t, "US Dollar", quotes["USD"].Name)

	// per-100 nominal is normalized to a single unit
	require.InDelta(t, 0.545, quotes["JPY"].Value, 1e-9)

	// currencies outside the supported set are dropped at the boundary
	_, ok := quotes["XXX"]
	require.False(t, ok)
}

func TestRatesWithTomorrow_ChangeCalc(t *testing.T) {
	today := time.Now().Format("02/01/2006")
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("date_req") == today {
			fmt.Fprintf(w, dailyXML, "29.08.2026", "80,0000")
			return
		}
		fmt.Fprintf(w, dailyXML, "30.08.2026", "82,0000")
	}))

	daily, err := client.RatesWithTomorrow(context.Background())
	require.NoError(t, err)
	require.NotNil(t, daily.Tomorrow)

	change := daily.Changes["USD"]
	require.InDelta(t, 2.0, change.Change, 1e-9)
	require.InDelta(t, 2.5, change.ChangePercent, 1e-9)
}

func TestRatesWithTomorrow_NotYetPublished(t *testing.T) {
	// the bank answers a future date request with the current publication
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, dailyXML, "29.08.2026", "80,0000")
	}))

	daily, err := client.RatesWithTomorrow(context.Background())
	require.NoError(t, err)
	require.Nil(t, daily.Tomorrow)
	require.Nil(t, daily.Changes)
	require.InDelta(t, 80.0, daily.Today["USD"].Value, 1e-9)
}

func TestSnapshots_Batched(t *testing.T) {
	var calls int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprintf(w, dailyXML, "29.08.2026", "81,0000")
	}))

	snapshots, err := client.Snapshots(context.Background(), []string{"USD", "EUR", "NOK"})
	require.NoError(t, err)
	require.Equal(t, 1, calls, "one fetch must serve all symbols")

	require.InDelta(t, 81.0, snapshots["USD"].Value, 1e-9)
	require.InDelta(t, 90.1, snapshots["EUR"].Value, 1e-9)
	require.Equal(t, time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), snapshots["USD"].AsOf)

	// unquoted symbol is absent, not zero-valued
	_, ok := snapshots["NOK"]
	require.False(t, ok)
}

func TestSnapshots_Unavailable(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.Snapshots(context.Background(), []string{"USD"})
	require.ErrorIs(t, err, types.ErrSnapshotUnavailable)
}

func TestSnapshots_NoSymbolsNoFetch(t *testing.T) {
	var calls int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	snapshots, err := client.Snapshots(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, snapshots)
	require.Zero(t, calls)
}

func TestParseCBRFloat(t *testing.T) {
	v, err := parseCBRFloat(" 81,4510 ")
	require.NoError(t, err)
	require.InDelta(t, 81.451, v, 1e-9)

	_, err = parseCBRFloat("n/a")
	require.Error(t, err)
}
