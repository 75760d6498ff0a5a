package database

import (
	"database/sql"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// DB wraps the sqlite handle. Constructed once in main and passed to the
// bot, the evaluator and the digest job.
type DB struct {
	conn *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id INTEGER PRIMARY KEY,
	first_name TEXT NOT NULL DEFAULT '',
	username TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS alerts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
	from_currency TEXT NOT NULL,
	to_currency TEXT NOT NULL,
	threshold REAL NOT NULL,
	direction TEXT NOT NULL CHECK (direction IN ('above', 'below')),
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_alerts_user_id ON alerts(user_id);

CREATE TABLE IF NOT EXISTS metrics (
	metric_name TEXT NOT NULL PRIMARY KEY,
	metric_value REAL NOT NULL
);`

// New opens the database at path and ensures the schema exists.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open database")
	}

	// cascading alert deletion relies on foreign keys being enforced
	if _, err := conn.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, errors.Wrap(err, "could not enable foreign keys")
	}

	if _, err := conn.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "could not create schema")
	}

	log.Debug("database initialized")
	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	if db == nil || db.conn == nil {
		return nil
	}
	return db.conn.Close()
}
