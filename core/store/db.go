package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"crimevision/config"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to the configured database. The sqlite driver creates the
// parent directory of the database file when missing.
func Open(cfg *config.AppConfig) (*sql.DB, error) {
	switch cfg.DBDriver {
	case DriverSQLite:
		return OpenSQLite(cfg.DBPath)
	case DriverPostgres:
		db, err := sql.Open("pgx", cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("store: open postgres: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("store: unknown db driver %q", cfg.DBDriver)
	}
}

// OpenSQLite opens a sqlite database at the given path via the pure-Go
// modernc driver. ":memory:" is accepted for tests.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create db dir: %w", err)
			}
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY between the pool's connections.
	db.SetMaxOpenConns(1)
	return db, nil
}

// rebind converts `?` placeholders to the `$n` form when targeting postgres.
// Store queries are written once with `?` and rebound per driver.
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
