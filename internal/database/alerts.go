package database

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ratewatch-telegram-bot/internal/types"
)

// InsertAlert stores a new threshold alert and returns its id.
// Malformed parameters surface as types.ErrValidation, persistence
// failures as types.ErrStorage.
func (db *DB) InsertAlert(userID int64, fromCurrency, toCurrency string, threshold float64, direction types.Direction) (int64, error) {
	if threshold <= 0 {
		return 0, errors.Wrap(types.ErrValidation, "threshold must be positive")
	}
	if _, ok := types.ParseDirection(string(direction)); !ok {
		return 0, errors.Wrapf(types.ErrValidation, "unknown direction %q", direction)
	}

	res, err := db.conn.Exec(
		`INSERT INTO alerts (user_id, from_currency, to_currency, threshold, direction, created_at)
		 VALUES (?, ?, ?, ?, ?, ?);`,
		userID, fromCurrency, toCurrency, threshold, string(direction),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, errors.Wrapf(types.ErrStorage, "failed to insert alert: %v", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrapf(types.ErrStorage, "failed to read alert id: %v", err)
	}

	log.Debugf("alert %d inserted: user=%d %s/%s %s %.4f", id, userID, fromCurrency, toCurrency, direction, threshold)
	return id, nil
}

// AlertsByUser returns one user's alerts, newest first. Storage errors on
// this read path are logged and degrade to an empty list so callers stay
// non-fatal.
func (db *DB) AlertsByUser(userID int64) []types.Alert {
	alerts, err := db.queryAlerts(`SELECT id, user_id, from_currency, to_currency, threshold, direction, created_at
		FROM alerts WHERE user_id = ? ORDER BY id DESC;`, userID)
	if err != nil {
		log.Errorf("failed to list alerts for user %d: %v", userID, err)
		return nil
	}
	return alerts
}

// ActiveAlerts returns every outstanding alert for the evaluator's sweep.
// Same degrade-to-empty policy as AlertsByUser: a storage hiccup must not
// crash the periodic job.
func (db *DB) ActiveAlerts() []types.Alert {
	alerts, err := db.queryAlerts(`SELECT id, user_id, from_currency, to_currency, threshold, direction, created_at
		FROM alerts ORDER BY id;`)
	if err != nil {
		log.Errorf("failed to list active alerts: %v", err)
		return nil
	}
	return alerts
}

// DeleteAlert removes one alert. Deleting an id that does not exist is a
// no-op, which makes the user-clear vs evaluator-fire race benign.
func (db *DB) DeleteAlert(alertID int64) error {
	if _, err := db.conn.Exec(`DELETE FROM alerts WHERE id = ?;`, alertID); err != nil {
		return errors.Wrapf(types.ErrStorage, "failed to delete alert %d: %v", alertID, err)
	}
	return nil
}

// ClearAlertsForUser removes all of one user's alerts. Idempotent.
func (db *DB) ClearAlertsForUser(userID int64) error {
	if _, err := db.conn.Exec(`DELETE FROM alerts WHERE user_id = ?;`, userID); err != nil {
		return errors.Wrapf(types.ErrStorage, "failed to clear alerts for user %d: %v", userID, err)
	}
	return nil
}

func (db *DB) queryAlerts(query string, args ...any) ([]types.Alert, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []types.Alert
	for rows.Next() {
		var a types.Alert
		var direction, createdAt string
		if err := rows.Scan(&a.ID, &a.UserID, &a.FromCurrency, &a.ToCurrency, &a.Threshold, &direction, &createdAt); err != nil {
			return nil, err
		}
		a.Direction = types.Direction(direction)
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			a.CreatedAt = t
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
