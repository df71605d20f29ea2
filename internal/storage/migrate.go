package storage

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	_ "github.com/orgball2608/crosspost/internal/migrations"
	"github.com/orgball2608/crosspost/pkg/config"
	"github.com/orgball2608/crosspost/pkg/logger"
	"github.com/pressly/goose/v3"
)

// MigratePostgres applies the registered goose migrations.
func MigratePostgres(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return err
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return err
	}
	log.Info("Postgres schema up to date", "version", version)
	return nil
}
