package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upInit, downInit)
}

func upInit(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS social_accounts (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL,
		platform        TEXT NOT NULL,
		enabled         BOOLEAN NOT NULL DEFAULT TRUE,
		credentials_ref TEXT NOT NULL DEFAULT '',
		display_name    TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE posts (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL,
		body          TEXT NOT NULL,
		media         TEXT NOT NULL DEFAULT '[]',
		status        TEXT NOT NULL,
		scheduled_for BIGINT,
		due_at        BIGINT,
		claimed_at    BIGINT,
		claimed_by    TEXT NOT NULL DEFAULT '',
		claim_token   TEXT NOT NULL DEFAULT '',
		created_at    BIGINT NOT NULL,
		updated_at    BIGINT NOT NULL
	);

	CREATE INDEX posts_status_due_at_idx ON posts (status, due_at);
	CREATE INDEX posts_user_created_at_idx ON posts (user_id, created_at DESC);
	`)
	return err
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	DROP TABLE IF EXISTS posts;
	DROP TABLE IF EXISTS social_accounts;
	`)
	return err
}
