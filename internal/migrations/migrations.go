package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var MigrationFiles embed.FS

// RunMigrations brings the events table up to date against db. There is
// a single baseline migration in this schema (0001_create_events), so
// a dirty flag always means that one migration was interrupted midway —
// forcing back to its own version is always the correct recovery, with
// no intermediate migrations to worry about skipping.
//
// If autoMigrate is false, RunMigrations applies no migrations: after the
// dirty-state recovery above, it logs the current version and returns;
// operators run `migrate` by hand instead.
func RunMigrations(db *sql.DB, autoMigrate bool) error {
	sourceDriver, err := iofs.New(MigrationFiles, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get current events-table schema version: %w", err)
	}

	if dirty {
		slog.Warn("[eventlog/postgres] events table left dirty by an interrupted migration",
			"version", version,
			"action", "forcing back to this version before retrying",
		)
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to recover dirty events-table schema at version %d: %w", version, err)
		}
		slog.Info("[eventlog/postgres] recovered events-table schema", "version", version)
	}

	if !autoMigrate {
		slog.Info("[eventlog/postgres] auto-migration disabled, leaving events-table schema as is",
			"current_version", version,
			"dirty", dirty,
		)
		return nil
	}

	slog.Info("[eventlog/postgres] applying events-table migrations", "current_version", version)

	err = m.Up()
	if err != nil {
		if err == migrate.ErrNoChange {
			slog.Info("[eventlog/postgres] events-table schema already up to date", "version", version)
			return nil
		}
		return fmt.Errorf("failed to migrate events table: %w", err)
	}

	newVersion, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get events-table schema version after migrating: %w", err)
	}

	slog.Info("[eventlog/postgres] events-table migration complete",
		"from_version", version,
		"to_version", newVersion,
	)

	return nil
}
