// Package sqldb provides a SQL-backed implementation of the storage.Store
// interface. It runs on SQLite (pure Go driver, the default) or PostgreSQL.
package sqldb

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/runpool/internal/storage"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on top of sqlx.
type Store struct {
	db     *sqlx.DB
	driver string
}

// Options tunes the connection pool. Zero values keep driver defaults.
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
}

// Open connects to the database and runs migrations.
//
// For SQLite the dsn is a file path; parent directories are created and the
// pool is limited to one connection so writers never contend for the file
// lock. For PostgreSQL the dsn is a libpq connection string or URL.
func Open(ctx context.Context, driverName, dsn string, opts Options) (*Store, error) {
	switch driverName {
	case DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = "file:" + dsn + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		opts.MaxOpenConns = 1
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driverName)
	}

	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	db.SetConnMaxLifetime(time.Hour)

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db, driver: driverName}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return classify(s.db.PingContext(ctx))
}

// Driver returns the name of the driver in use.
func (s *Store) Driver() string {
	return s.driver
}

// q rewrites ? placeholders for the active driver.
func (s *Store) q(query string) string {
	return s.db.Rebind(query)
}

// classify maps driver errors onto the storage error kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", storage.ErrConflict, err)
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %v", storage.ErrTransient, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// connection exceptions, serialization failures, deadlocks, shutdown
		switch {
		case strings.HasPrefix(string(pqErr.Code), "08"),
			pqErr.Code == "40001",
			pqErr.Code == "40P01",
			pqErr.Code == "57P01":
			return true
		}
	}
	return false
}

// rowsChanged reports whether an update touched at least one row.
func rowsChanged(res interface{ RowsAffected() (int64, error) }) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}
