package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver selects the SQL backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// Options configures the connection pool.
type Options struct {
	Driver       Driver
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	PingTimeout  time.Duration
}

// Open opens a pool for the configured driver and verifies it with a ping.
// For SQLite the parent directory of the database file is created first.
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	switch opts.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	if opts.Driver == DriverSQLite {
		if dir := filepath.Dir(sqlitePath(opts.DSN)); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
	}

	db, err := sql.Open(string(opts.Driver), opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", opts.Driver, err)
	}

	if opts.Driver == DriverSQLite {
		// one writer at a time; busy_timeout covers the rest
		db.SetMaxOpenConns(1)
	} else {
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			db.SetMaxIdleConns(opts.MaxIdleConns)
		}
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// sqlitePath strips the query string from a SQLite DSN.
func sqlitePath(dsn string) string {
	path, _, _ := strings.Cut(dsn, "?")
	return path
}
