package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upDeliveryTargets, downDeliveryTargets)
}

func upDeliveryTargets(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE TABLE delivery_targets (
		post_id         TEXT NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
		account_id      TEXT NOT NULL,
		platform        TEXT NOT NULL,
		status          TEXT NOT NULL,
		attempts        INTEGER NOT NULL DEFAULT 0,
		last_error      TEXT NOT NULL DEFAULT '',
		last_error_kind TEXT NOT NULL DEFAULT '',
		last_attempt_at BIGINT,
		sent_at         BIGINT,
		next_attempt_at BIGINT,
		external_id     TEXT NOT NULL DEFAULT '',
		created_at      BIGINT NOT NULL,
		updated_at      BIGINT NOT NULL,
		PRIMARY KEY (post_id, account_id)
	);

	CREATE INDEX delivery_targets_status_idx ON delivery_targets (status);
	`)
	return err
}

func downDeliveryTargets(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS delivery_targets;`)
	return err
}
