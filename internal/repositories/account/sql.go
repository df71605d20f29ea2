package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/orgball2608/crosspost/internal/domain"
	"github.com/orgball2608/crosspost/internal/repositories"
	"github.com/orgball2608/crosspost/internal/storage"
	"github.com/orgball2608/crosspost/pkg/logger"

	sq "github.com/Masterminds/squirrel"
)

const accountsTable = "social_accounts"

var accountColumns = []string{"id", "user_id", "platform", "enabled", "credentials_ref", "display_name"}

type SQLDirectory struct {
	db     *storage.DB
	logger logger.Logger
}

func NewSQLDirectory(db *storage.DB, logger logger.Logger) *SQLDirectory {
	return &SQLDirectory{
		db:     db,
		logger: logger.WithComponent("AccountDirectory"),
	}
}

var _ Directory = (*SQLDirectory)(nil)

func (d *SQLDirectory) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	query, args, err := d.db.Builder().
		Select(accountColumns...).
		From(accountsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	acc, err := scanAccount(d.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	return acc, nil
}

func (d *SQLDirectory) GetAccounts(ctx context.Context, ids []string) (map[string]domain.Account, error) {
	out := make(map[string]domain.Account, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := d.db.Builder().
		Select(accountColumns...).
		From(accountsTable).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out[acc.ID] = *acc
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertAccount writes an account row. The engine never calls it; it exists for
// operator bootstrap and tests.
func (d *SQLDirectory) UpsertAccount(ctx context.Context, acc domain.Account) error {
	query, args, err := d.db.Builder().
		Insert(accountsTable).
		Columns(accountColumns...).
		Values(acc.ID, acc.UserID, acc.Platform, acc.Enabled, acc.CredentialsRef, acc.DisplayName).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			platform = EXCLUDED.platform,
			enabled = EXCLUDED.enabled,
			credentials_ref = EXCLUDED.credentials_ref,
			display_name = EXCLUDED.display_name`).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert account %s: %w", acc.ID, err)
	}
	d.logger.Debug("Account upserted", "account_id", acc.ID, "platform", acc.Platform)
	return nil
}

func scanAccount(row repositories.Scanner) (*domain.Account, error) {
	var acc domain.Account
	if err := row.Scan(&acc.ID, &acc.UserID, &acc.Platform, &acc.Enabled, &acc.CredentialsRef, &acc.DisplayName); err != nil {
		return nil, err
	}
	return &acc, nil
}
