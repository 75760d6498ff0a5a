package alert

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ratewatch-telegram-bot/internal/types"
)

type fakeStore struct {
	alerts  map[int64]types.Alert
	deleted []int64
}

func newFakeStore(alerts ...types.Alert) *fakeStore {
	s := &fakeStore{alerts: make(map[int64]types.Alert)}
	for _, a := range alerts {
		s.alerts[a.ID] = a
	}
	return s
}

func (s *fakeStore) ActiveAlerts() []types.Alert {
	var out []types.Alert
	for _, a := range s.alerts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *fakeStore) DeleteAlert(alertID int64) error {
	delete(s.alerts, alertID)
	s.deleted = append(s.deleted, alertID)
	return nil
}

type fakeProvider struct {
	snapshots map[string]types.Snapshot
	err       error
	calls     int
	requested [][]string
}

func (p *fakeProvider) Snapshots(_ context.Context, symbols []string) (map[string]types.Snapshot, error) {
	p.calls++
	p.requested = append(p.requested, symbols)
	if p.err != nil {
		return nil, p.err
	}
	return p.snapshots, nil
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeNotifier struct {
	sent    []sentMessage
	failFor map[int64]error
}

func (n *fakeNotifier) Notify(chatID int64, text string) error {
	if err, ok := n.failFor[chatID]; ok {
		return err
	}
	n.sent = append(n.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func usdAlert(id, userID int64, threshold float64, dir types.Direction) types.Alert {
	return types.Alert{
		ID: id, UserID: userID,
		FromCurrency: "USD", ToCurrency: "RUB",
		Threshold: threshold, Direction: dir,
		CreatedAt: time.Now(),
	}
}

func snapshot(value float64) types.Snapshot {
	return types.Snapshot{Value: value, AsOf: time.Now()}
}

func TestSweep_FiresAboveAndDeletes(t *testing.T) {
	// scenario A: USD->RUB threshold 80 above, observed 81
	store := newFakeStore(usdAlert(1, 1, 80, types.DirectionAbove))
	provider := &fakeProvider{snapshots: map[string]types.Snapshot{"USD": snapshot(81)}}
	notifier := &fakeNotifier{}

	e := NewEvaluator(store, provider, notifier, Metrics{})
	require.NoError(t, e.Sweep(context.Background()))

	require.Len(t, notifier.sent, 1)
	require.Equal(t, int64(1), notifier.sent[0].chatID)
	require.Contains(t, notifier.sent[0].text, "USD")
	require.Empty(t, store.ActiveAlerts())
}

func TestSweep_ConditionFalseRetains(t *testing.T) {
	// scenario B: observed 79 does not cross an above-80 threshold
	store := newFakeStore(usdAlert(1, 1, 80, types.DirectionAbove))
	provider := &fakeProvider{snapshots: map[string]types.Snapshot{"USD": snapshot(79)}}
	notifier := &fakeNotifier{}

	e := NewEvaluator(store, provider, notifier, Metrics{})
	require.NoError(t, e.Sweep(context.Background()))

	require.Empty(t, notifier.sent)
	require.Len(t, store.ActiveAlerts(), 1)
}

func TestSweep_BoundaryIsInclusiveBothDirections(t *testing.T) {
	store := newFakeStore(
		usdAlert(1, 1, 80, types.DirectionAbove),
		usdAlert(2, 2, 80, types.DirectionBelow),
	)
	provider := &fakeProvider{snapshots: map[string]types.Snapshot{"USD": snapshot(80)}}
	notifier := &fakeNotifier{}

	e := NewEvaluator(store, provider, notifier, Metrics{})
	require.NoError(t, e.Sweep(context.Background()))

	require.Len(t, notifier.sent, 2)
	require.Empty(t, store.ActiveAlerts())
}

func TestSweep_OneBatchServesAllAlerts(t *testing.T) {
	// scenario C: two alerts on the same symbol, one fetch, one value
	store := newFakeStore(
		usdAlert(1, 1, 80, types.DirectionAbove),
		usdAlert(2, 2, 90, types.DirectionAbove),
	)
	provider := &fakeProvider{snapshots: map[string]types.Snapshot{"USD": snapshot(85)}}
	notifier := &fakeNotifier{}

	e := NewEvaluator(store, provider, notifier, Metrics{})
	require.NoError(t, e.Sweep(context.Background()))

	require.Equal(t, 1, provider.calls)
	require.Equal(t, []string{"USD"}, provider.requested[0])

	// 85 fires the above-80 alert, not the above-90 one
	require.Len(t, notifier.sent, 1)
	require.Equal(t, int64(1), notifier.sent[0].chatID)
	require.Len(t, store.ActiveAlerts(), 1)
	require.Equal(t, int64(2), store.ActiveAlerts()[0].ID)
}

func TestSweep_AtMostOnceDelivery(t *testing.T) {
	store := newFakeStore(usdAlert(1, 1, 80, types.DirectionAbove))
	provider := &fakeProvider{snapshots: map[string]types.Snapshot{"USD": snapshot(81)}}
	notifier := &fakeNotifier{}

	e := NewEvaluator(store, provider, notifier, Metrics{})
	require.NoError(t, e.Sweep(context.Background()))
	require.NoError(t, e.Sweep(context.Background()))
	require.NoError(t, e.Sweep(context.Background()))

	require.Len(t, notifier.sent, 1)
	require.Equal(t, []int64{1}, store.deleted)
}

func TestSweep_SnapshotFetchFailureAbortsSweep(t *testing.T) {
	store := newFakeStore(usdAlert(1, 1, 80, types.DirectionAbove))
	provider := &fakeProvider{err: types.ErrSnapshotUnavailable}
	notifier := &fakeNotifier{}

	e := NewEvaluator(store, provider, notifier, Metrics{})
	err := e.Sweep(context.Background())
	require.ErrorIs(t, err, types.ErrSnapshotUnavailable)

	require.Empty(t, notifier.sent)
	require.Len(t, store.ActiveAlerts(), 1)
}

func TestSweep_MissingSymbolSkippedNotDeleted(t *testing.T) {
	store := newFakeStore(
		usdAlert(1, 1, 80, types.DirectionAbove),
		types.Alert{ID: 2, UserID: 2, FromCurrency: "KZT", ToCurrency: "RUB", Threshold: 0.2, Direction: types.DirectionAbove},
	)
	provider := &fakeProvider{snapshots: map[string]types.Snapshot{"USD": snapshot(81)}}
	notifier := &fakeNotifier{}

	e := NewEvaluator(store, provider, notifier, Metrics{})
	require.NoError(t, e.Sweep(context.Background()))

	// USD alert fired, KZT alert survives untouched
	require.Len(t, notifier.sent, 1)
	remaining := store.ActiveAlerts()
	require.Len(t, remaining, 1)
	require.Equal(t, "KZT", remaining[0].FromCurrency)
}

func TestSweep_DeliveryFailureRetainsAlert(t *testing.T) {
	store := newFakeStore(
		usdAlert(1, 1, 80, types.DirectionAbove),
		usdAlert(2, 2, 80, types.DirectionAbove),
	)
	provider := &fakeProvider{snapshots: map[string]types.Snapshot{"USD": snapshot(81)}}
	notifier := &fakeNotifier{failFor: map[int64]error{1: types.ErrDelivery}}

	e := NewEvaluator(store, provider, notifier, Metrics{})
	require.NoError(t, e.Sweep(context.Background()))

	// user 2 got theirs, user 1's alert is retained for the next sweep
	require.Len(t, notifier.sent, 1)
	require.Equal(t, int64(2), notifier.sent[0].chatID)
	remaining := store.ActiveAlerts()
	require.Len(t, remaining, 1)
	require.Equal(t, int64(1), remaining[0].ID)

	// recipient recovers: the retained alert fires on the next sweep
	notifier.failFor = nil
	require.NoError(t, e.Sweep(context.Background()))
	require.Len(t, notifier.sent, 2)
	require.Empty(t, store.ActiveAlerts())
}

func TestSweep_EmptyStoreSkipsFetch(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{}
	notifier := &fakeNotifier{}

	e := NewEvaluator(store, provider, notifier, Metrics{})
	require.NoError(t, e.Sweep(context.Background()))
	require.Zero(t, provider.calls)
}

func TestDistinctSymbols(t *testing.T) {
	alerts := []types.Alert{
		usdAlert(1, 1, 80, types.DirectionAbove),
		usdAlert(2, 2, 85, types.DirectionAbove),
		{ID: 3, UserID: 3, FromCurrency: "EUR", ToCurrency: "RUB", Threshold: 90, Direction: types.DirectionBelow},
	}
	require.Equal(t, []string{"USD", "EUR"}, distinctSymbols(alerts))
}
