// Package storage opens the configured SQL backend for the repositories.
//
// Drivers:
//   - "postgres": pgx pool exposed through database/sql, schema managed by goose
//   - "sqlite": embedded modernc.org/sqlite file for single-node deployments and tests
//
// Both backends store timestamps as unix milliseconds so the repositories can
// share their queries.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/orgball2608/crosspost/pkg/config"
	"github.com/orgball2608/crosspost/pkg/logger"
	"github.com/orgball2608/crosspost/pkg/pgx"
	"go.uber.org/fx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB is a database handle plus the placeholder dialect its queries need.
type DB struct {
	*sql.DB
	Driver string
}

// Builder returns a squirrel statement builder using the driver's placeholders.
func (db *DB) Builder() sq.StatementBuilderType {
	if db.Driver == DriverSQLite {
		return sq.StatementBuilder.PlaceholderFormat(sq.Question)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

type Opts struct {
	fx.In
	LC     fx.Lifecycle
	Logger logger.Logger
	Config *config.Config
}

// New opens the configured backend and ties it to the fx lifecycle.
func New(opts Opts) (*DB, error) {
	log := opts.Logger.WithComponent("Storage")

	switch opts.Config.Storage.Driver {
	case DriverPostgres:
		pool, err := pgx.New(pgx.Opts{LC: opts.LC, Logger: log, Config: opts.Config})
		if err != nil {
			return nil, err
		}
		db := &DB{DB: stdlib.OpenDBFromPool(pool), Driver: DriverPostgres}
		opts.LC.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return MigratePostgres(ctx, opts.Config, log)
			},
			OnStop: func(ctx context.Context) error {
				return db.Close()
			},
		})
		return db, nil
	case DriverSQLite:
		db, err := OpenSQLite(context.Background(), opts.Config.Storage.SqlitePath)
		if err != nil {
			return nil, err
		}
		log.Info("Opened sqlite store", "path", opts.Config.Storage.SqlitePath)
		opts.LC.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return db.Close()
			},
		})
		return db, nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", opts.Config.Storage.Driver)
	}
}

// IsUniqueViolation reports a primary key or unique constraint conflict on either backend.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
