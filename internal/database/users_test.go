package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ratewatch-telegram-bot/internal/types"
)

func TestUpsertUser_RefreshesDisplayFields(t *testing.T) {
	db, err := New(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.UpsertUser(types.User{UserID: 7, FirstName: "Ann"}))
	require.NoError(t, db.UpsertUser(types.User{UserID: 7, FirstName: "Anna", Username: "anna"}))

	users, err := db.AllUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "Anna", users[0].FirstName)
	require.Equal(t, "anna", users[0].Username)
}

func TestMetricsRoundTrip(t *testing.T) {
	db, err := New(":memory:")
	require.NoError(t, err)
	defer db.Close()

	v, err := db.GetMetric("alerts_fired")
	require.NoError(t, err)
	require.Zero(t, v)

	require.NoError(t, db.SaveMetric("alerts_fired", 12))
	require.NoError(t, db.SaveMetric("alerts_fired", 14))

	v, err = db.GetMetric("alerts_fired")
	require.NoError(t, err)
	require.Equal(t, 14.0, v)
}
