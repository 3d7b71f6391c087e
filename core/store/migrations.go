package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

func gooseSetup(driver string) (string, error) {
	dialect, dir := "sqlite3", "migrations/sqlite"
	if driver == DriverPostgres {
		dialect, dir = "postgres", "migrations/postgres"
	}
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("store: set goose dialect: %w", err)
	}
	return dir, nil
}

// Migrate applies all pending schema migrations for the given driver.
func Migrate(db *sql.DB, driver string) error {
	dir, err := gooseSetup(driver)
	if err != nil {
		return err
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("store: apply migrations: %w", err)
	}
	return nil
}

// MigrateCommand runs an arbitrary goose command (up, down, status, version,
// redo) against the embedded migrations.
func MigrateCommand(ctx context.Context, db *sql.DB, driver, command string, args ...string) error {
	dir, err := gooseSetup(driver)
	if err != nil {
		return err
	}
	return goose.RunContext(ctx, command, db, dir, args...)
}
