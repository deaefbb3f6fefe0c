package database

import (
	"context"
	"database/sql"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_code VARCHAR(16) PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		user_code VARCHAR(16) NOT NULL REFERENCES users(user_code) ON DELETE CASCADE,
		message TEXT NOT NULL,
		sensitivity VARCHAR(50),
		delivery VARCHAR(50),
		timestamp_utc TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_user_code_timestamp ON messages(user_code, timestamp_utc DESC)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_code VARCHAR(16) PRIMARY KEY,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_code VARCHAR(16) NOT NULL REFERENCES users(user_code) ON DELETE CASCADE,
		message TEXT NOT NULL,
		sensitivity VARCHAR(50),
		delivery VARCHAR(50),
		timestamp_utc DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_user_code_timestamp ON messages(user_code, timestamp_utc DESC)`,
}

// Migrate creates the users and messages tables if they do not exist yet.
func (sdb *SQLDatabase) Migrate(ctx context.Context) error {
	schema := postgresSchema
	if sdb.driver == DriverSQLite {
		schema = sqliteSchema
	}

	return WithTx(ctx, sdb, func(tx *sql.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to initialize schema: %w", err)
			}
		}
		return nil
	})
}
