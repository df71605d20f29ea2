package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	_ "github.com/lib/pq"
	_ "github.com/orgball2608/crosspost/internal/migrations"
	"github.com/orgball2608/crosspost/internal/domain"
	"github.com/orgball2608/crosspost/internal/repositories/account"
	"github.com/orgball2608/crosspost/internal/storage"
	"github.com/orgball2608/crosspost/pkg/config"
	"github.com/orgball2608/crosspost/pkg/logger"
	"github.com/pressly/goose/v3"
)

// seedFile is the operator bootstrap list of destination accounts.
type seedFile struct {
	Accounts []struct {
		ID             string `yaml:"id"`
		UserID         string `yaml:"user_id"`
		Platform       string `yaml:"platform"`
		Enabled        *bool  `yaml:"enabled"`
		CredentialsRef string `yaml:"credentials_ref"`
		DisplayName    string `yaml:"display_name"`
	} `yaml:"accounts"`
}

func main() {
	seed := flag.String("seed", "", "YAML file with accounts to upsert after migrating")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: migrate [-seed accounts.yaml] [up|down|status|reset|create <name>]")
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	// The create command needs no database
	if command == "create" {
		if flag.NArg() < 2 {
			log.Fatal("Usage: migrate create <name>")
		}
		createMigration(flag.Arg(1))
		return
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	ctx := context.Background()

	if cfg.Storage.Driver == storage.DriverSQLite {
		// The sqlite schema is embedded and applied on open.
		db, err := storage.OpenSQLite(ctx, cfg.Storage.SqlitePath)
		if err != nil {
			log.Fatalf("Failed to open sqlite: %v", err)
		}
		defer db.Close()
		fmt.Printf("SQLite schema ready at %s\n", cfg.Storage.SqlitePath)
		seedAccounts(ctx, db, *seed)
		return
	}

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("Failed to set dialect: %v", err)
	}

	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	switch command {
	case "up":
		if err := goose.UpContext(ctx, db, "."); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		fmt.Println("Migrations applied successfully")
	case "down":
		if err := goose.DownContext(ctx, db, "."); err != nil {
			log.Fatalf("Failed to rollback migration: %v", err)
		}
		fmt.Println("Migration rollback successful")
	case "status":
		if err := goose.StatusContext(ctx, db, "."); err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}
	case "reset":
		if err := goose.ResetContext(ctx, db, "."); err != nil {
			log.Fatalf("Failed to reset migrations: %v", err)
		}
		fmt.Println("All migrations have been rolled back")
	default:
		log.Fatalf("Unknown command: %s", command)
	}

	seedAccounts(ctx, &storage.DB{DB: db, Driver: storage.DriverPostgres}, *seed)
}

func seedAccounts(ctx context.Context, db *storage.DB, path string) {
	if path == "" {
		return
	}
	var f seedFile
	if err := cleanenv.ReadConfig(path, &f); err != nil {
		log.Fatalf("Failed to read seed file: %v", err)
	}

	dir := account.NewSQLDirectory(db, logger.New(logger.Opts{}))
	for _, a := range f.Accounts {
		enabled := a.Enabled == nil || *a.Enabled
		err := dir.UpsertAccount(ctx, domain.Account{
			ID:             a.ID,
			UserID:         a.UserID,
			Platform:       a.Platform,
			Enabled:        enabled,
			CredentialsRef: a.CredentialsRef,
			DisplayName:    a.DisplayName,
		})
		if err != nil {
			log.Fatalf("Failed to upsert account %s: %v", a.ID, err)
		}
	}
	fmt.Printf("Seeded %d accounts\n", len(f.Accounts))
}

func createMigration(name string) {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("Failed to get working directory: %v", err)
	}

	migrationsDir := filepath.Join(wd, "internal", "migrations")
	fmt.Printf("Creating migration in: %s\n", migrationsDir)

	if err := goose.Create(nil, migrationsDir, name, "go"); err != nil {
		log.Fatalf("Failed to create migration: %v", err)
	}
}
