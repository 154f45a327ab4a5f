package executor

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/querykit/internal/dialect"
)

// drivers maps dialect names to registered database/sql driver names.
var drivers = map[string]string{
	"sqlite":   "sqlite3",
	"postgres": "postgres",
	"mysql":    "mysql",
}

// DriverName returns the database/sql driver for a dialect. The generic
// dialect has no driver.
func DriverName(d dialect.Dialect) (string, error) {
	name, ok := drivers[d.Name()]
	if !ok {
		return "", fmt.Errorf("dialect %q cannot be executed: no database driver", d.Name())
	}
	return name, nil
}

// Open connects to dsn with the driver of the named dialect and checks the
// connection.
//
// SQLite databases are configured with:
//   - a single connection (one writer, and ":memory:" is per connection)
//   - a 5-second busy timeout for lock contention
//   - foreign key enforcement
func Open(ctx context.Context, dialectName, dsn string) (*sql.DB, dialect.Dialect, error) {
	d, err := dialect.Lookup(dialectName)
	if err != nil {
		return nil, nil, err
	}
	driver, err := DriverName(d)
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s database: %w", d.Name(), err)
	}

	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("connect to %s database: %w", d.Name(), err)
	}

	if driver == "sqlite3" {
		if err := applyPragmas(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	return db, d, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}
