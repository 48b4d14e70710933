// Command migrate applies the embedded PostgreSQL migrations. Run the server
// with USE_MIGRATIONS=true when the schema is managed this way.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"studentquiz/config"
	"studentquiz/migrations"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	command := flag.String("command", "up", "migration command: up, down or version")
	steps := flag.Int("steps", 0, "number of migrations to apply or roll back (0 means all)")
	flag.Parse()

	if err := run(*command, *steps); err != nil {
		slog.Error("migration failed", "command", *command, "error", err)
		os.Exit(1)
	}
}

func run(command string, steps int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DBKind != config.DBKindPostgres {
		return fmt.Errorf("migrations target postgres, DB_KIND is %q", cfg.DBKind)
	}

	db, err := sql.Open("postgres", cfg.PostgresURL())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, cfg.DBName, driver)
	if err != nil {
		return err
	}

	switch command {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	case "version":
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("no migrations to apply")
	} else if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		slog.Info("database has no migrations applied")
		return nil
	}
	if err != nil {
		return err
	}
	slog.Info("migration state", "version", version, "dirty", dirty)
	return nil
}
