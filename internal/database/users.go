package database

import (
	"github.com/pkg/errors"

	"ratewatch-telegram-bot/internal/types"
)

// UpsertUser records a chat identity, refreshing the display fields on
// every interaction.
func (db *DB) UpsertUser(u types.User) error {
	_, err := db.conn.Exec(
		`INSERT INTO users (user_id, first_name, username) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET first_name = excluded.first_name, username = excluded.username;`,
		u.UserID, u.FirstName, u.Username,
	)
	if err != nil {
		return errors.Wrapf(types.ErrStorage, "failed to upsert user %d: %v", u.UserID, err)
	}
	return nil
}

// AllUsers returns every known user, for the daily digest broadcast.
func (db *DB) AllUsers() ([]types.User, error) {
	rows, err := db.conn.Query(`SELECT user_id, first_name, username FROM users ORDER BY user_id;`)
	if err != nil {
		return nil, errors.Wrapf(types.ErrStorage, "failed to query users: %v", err)
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		var u types.User
		if err := rows.Scan(&u.UserID, &u.FirstName, &u.Username); err != nil {
			return nil, errors.Wrapf(types.ErrStorage, "failed to scan user row: %v", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(types.ErrStorage, "failed to iterate users: %v", err)
	}
	return users, nil
}

// DeleteUser removes a user row; the foreign key cascades to their alerts.
func (db *DB) DeleteUser(userID int64) error {
	if _, err := db.conn.Exec(`DELETE FROM users WHERE user_id = ?;`, userID); err != nil {
		return errors.Wrapf(types.ErrStorage, "failed to delete user %d: %v", userID, err)
	}
	return nil
}
