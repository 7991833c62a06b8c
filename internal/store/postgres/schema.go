package postgres

import (
	"context"
	"database/sql"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS regions (
        kind        TEXT        NOT NULL,
        code        TEXT        NOT NULL,
        is_active   BOOLEAN     NOT NULL,
        nop_period  INTEGER     NOT NULL,
        op_period   INTEGER     NOT NULL,
        created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
        PRIMARY KEY (kind, code)
    )`,
	`CREATE TABLE IF NOT EXISTS accounts (
        id                       TEXT        PRIMARY KEY,
        email                    TEXT        NOT NULL UNIQUE,
        password_hash            TEXT        NOT NULL,
        first_name               TEXT        NOT NULL DEFAULT '',
        last_name                TEXT        NOT NULL DEFAULT '',
        email_verified           BOOLEAN     NOT NULL DEFAULT false,
        tier                     TEXT        NOT NULL,
        created_at               TIMESTAMPTZ NOT NULL DEFAULT now(),
        identity_status          TEXT        NOT NULL,
        identity_attempts        INTEGER     NOT NULL DEFAULT 0,
        next_identity_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE INDEX IF NOT EXISTS accounts_pending_idx
        ON accounts (next_identity_attempt_at) WHERE identity_status = 'pending'`,
	`CREATE TABLE IF NOT EXISTS orders (
        number      TEXT        PRIMARY KEY,
        region      TEXT        NOT NULL,
        region_kind TEXT        NOT NULL,
        plaintiffs  JSONB       NOT NULL,
        defendants  JSONB       NOT NULL,
        notify      BOOLEAN     NOT NULL,
        requester   TEXT        NOT NULL,
        started_at  TIMESTAMPTZ NOT NULL,
        nop_end_at  TIMESTAMPTZ NOT NULL,
        op_end_at   TIMESTAMPTZ NOT NULL,
        updated_at  TIMESTAMPTZ NOT NULL,
        payload     JSONB       NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS notifications (
        id         TEXT        PRIMARY KEY,
        email      TEXT        NOT NULL,
        title      TEXT        NOT NULL,
        content    TEXT        NOT NULL,
        is_read    BOOLEAN     NOT NULL DEFAULT false,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE INDEX IF NOT EXISTS notifications_email_idx ON notifications (email, created_at DESC)`,
}

// EnsureSchema applies the idempotent DDL above.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
