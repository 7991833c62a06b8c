package sqlite

import (
	"context"
	"database/sql"
)

// EnsureSchema creates the service tables if they do not exist.
// Timestamps are stored as Unix milliseconds so range predicates compare numerically.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS regions (
            kind TEXT NOT NULL,
            code TEXT NOT NULL,
            is_active INTEGER NOT NULL,
            nop_period INTEGER NOT NULL,
            op_period INTEGER NOT NULL,
            created_at INTEGER NOT NULL,
            PRIMARY KEY(kind, code)
        );`,
		`CREATE TABLE IF NOT EXISTS accounts (
            id TEXT PRIMARY KEY,
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            email_verified INTEGER NOT NULL DEFAULT 0,
            tier TEXT NOT NULL,
            created_at INTEGER NOT NULL,
            identity_status TEXT NOT NULL,
            identity_attempts INTEGER NOT NULL DEFAULT 0,
            next_identity_attempt_at INTEGER NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS accounts_pending_idx ON accounts(identity_status, next_identity_attempt_at);`,
		`CREATE TABLE IF NOT EXISTS orders (
            number TEXT PRIMARY KEY,
            region TEXT NOT NULL,
            region_kind TEXT NOT NULL,
            plaintiffs TEXT NOT NULL,
            defendants TEXT NOT NULL,
            notify INTEGER NOT NULL,
            requester TEXT NOT NULL,
            started_at INTEGER NOT NULL,
            nop_end_at INTEGER NOT NULL,
            op_end_at INTEGER NOT NULL,
            updated_at INTEGER NOT NULL,
            payload TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS notifications (
            id TEXT PRIMARY KEY,
            email TEXT NOT NULL,
            title TEXT NOT NULL,
            content TEXT NOT NULL,
            is_read INTEGER NOT NULL DEFAULT 0,
            created_at INTEGER NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS notifications_email_idx ON notifications(email, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
