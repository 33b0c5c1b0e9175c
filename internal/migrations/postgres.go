// Package migrations owns the embedded SQL schema for the PostgreSQL
// usage-statistics backend and applies it with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql
var schemaFS embed.FS

// withMigrator builds a migrator over the embedded schema, runs fn, and folds
// the source/database close errors into the result. The caller's *sql.DB
// stays open; only the migrator's own connection is released.
func withMigrator(db *sql.DB, fn func(*migrate.Migrate) error) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("postgres driver: %w", err)
	}
	source, err := iofs.New(schemaFS, "sql")
	if err != nil {
		return fmt.Errorf("embedded schema: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	runErr := fn(m)
	srcErr, dbErr := m.Close()
	return errors.Join(runErr, srcErr, dbErr)
}

// Apply brings the usage schema up to date. An already-current database is
// not an error.
func Apply(db *sql.DB) error {
	return withMigrator(db, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("apply migrations: %w", err)
		}
		return nil
	})
}

// Rollback undoes the last steps migrations, at least one.
func Rollback(db *sql.DB, steps int) error {
	if steps <= 0 {
		steps = 1
	}
	return withMigrator(db, func(m *migrate.Migrate) error {
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("roll back %d step(s): %w", steps, err)
		}
		return nil
	})
}

// State reports the schema version and whether a failed migration left it
// dirty. A database with no applied migrations reports version 0.
func State(db *sql.DB) (version uint, dirty bool, err error) {
	err = withMigrator(db, func(m *migrate.Migrate) error {
		v, d, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			return nil
		}
		if verr != nil {
			return fmt.Errorf("schema version: %w", verr)
		}
		version, dirty = v, d
		return nil
	})
	return version, dirty, err
}
