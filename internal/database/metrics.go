package database

import (
	"database/sql"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// SaveMetric persists one counter value so it survives restarts.
func (db *DB) SaveMetric(metricName string, value float64) error {
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO metrics (metric_name, metric_value) VALUES (?, ?);`,
		metricName, value,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to save metric %s", metricName)
	}
	return nil
}

// GetMetric loads a persisted counter value, defaulting to 0 when the
// metric was never saved.
func (db *DB) GetMetric(metricName string) (float64, error) {
	var value float64
	err := db.conn.QueryRow(
		`SELECT metric_value FROM metrics WHERE metric_name = ?;`, metricName,
	).Scan(&value)
	if err == sql.ErrNoRows {
		log.Debugf("metric %s not found, defaulting to 0", metricName)
		return 0, nil
	} else if err != nil {
		return 0, errors.Wrapf(err, "failed to get metric %s", metricName)
	}
	return value, nil
}
