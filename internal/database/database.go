package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	// Registers the "postgres" database/sql driver.
	_ "github.com/lib/pq"
	// Registers the "sqlite3" database/sql driver.
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverPostgres is the lib/pq driver name.
	DriverPostgres = "postgres"
	// DriverPgx is the pgx stdlib driver name.
	DriverPgx = "pgx"
	// DriverSQLite is the mattn/go-sqlite3 driver name.
	DriverSQLite = "sqlite3"
)

// ErrUnsupportedDriver is returned when a driver other than postgres, pgx or sqlite3 is requested.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Database is the subset of *sql.DB the repositories depend on.
type Database interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) (*sql.Row, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	PingContext(ctx context.Context) error
	Close() error
}

// SQLDatabase implements the Database interface on top of a *sql.DB connection pool.
type SQLDatabase struct {
	db     *sql.DB
	driver string
}

// PoolOption configures the connection pool of a database handle.
type PoolOption func(*poolOptions)

type poolOptions struct {
	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
}

// WithMaxOpenConns sets the maximum number of open connections.
func WithMaxOpenConns(n int) PoolOption {
	return func(o *poolOptions) {
		o.maxOpenConns = n
	}
}

// WithMaxIdleConns sets the maximum number of idle connections.
func WithMaxIdleConns(n int) PoolOption {
	return func(o *poolOptions) {
		o.maxIdleConns = n
	}
}

// WithConnMaxLifetime sets the maximum amount of time a connection may be reused.
func WithConnMaxLifetime(d time.Duration) PoolOption {
	return func(o *poolOptions) {
		o.connMaxLifetime = d
	}
}

func applyPoolOptions(db *sql.DB, opts []PoolOption) {
	o := &poolOptions{
		maxOpenConns: 10,
		maxIdleConns: 1,
	}
	for _, opt := range opts {
		opt(o)
	}

	db.SetMaxOpenConns(o.maxOpenConns)
	db.SetMaxIdleConns(o.maxIdleConns)
	db.SetConnMaxLifetime(o.connMaxLifetime)
}

// NewSQLDatabase opens a connection pool for the given driver and verifies that the database is reachable.
func NewSQLDatabase(ctx context.Context, driver, connectionString string, opts ...PoolOption) (*SQLDatabase, error) {
	dsn, err := prepareDSN(driver, connectionString)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	applyPoolOptions(db, opts)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to check database connection: %w", err)
	}

	return &SQLDatabase{
		db:     db,
		driver: driver,
	}, nil
}

// prepareDSN validates the driver and, for SQLite, turns on foreign key enforcement for every pooled connection.
func prepareDSN(driver, connectionString string) (string, error) {
	switch driver {
	case DriverPostgres, DriverPgx:
		return connectionString, nil
	case DriverSQLite:
		if strings.Contains(connectionString, "_foreign_keys=") || strings.Contains(connectionString, "_fk=") {
			return connectionString, nil
		}
		sep := "?"
		if strings.Contains(connectionString, "?") {
			sep = "&"
		}
		return connectionString + sep + "_foreign_keys=on", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// Driver returns the name of the driver the pool was opened with.
func (sdb *SQLDatabase) Driver() string {
	return sdb.driver
}

// ExecContext executes a query that doesn't return rows.
func (sdb *SQLDatabase) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return sdb.db.ExecContext(ctx, query, args...)
}

// QueryRowContext retrieves a single row.
func (sdb *SQLDatabase) QueryRowContext(ctx context.Context, query string, args ...any) (*sql.Row, error) {
	return sdb.db.QueryRowContext(ctx, query, args...), nil
}

// QueryContext executes a query that returns multiple rows.
func (sdb *SQLDatabase) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return sdb.db.QueryContext(ctx, query, args...)
}

// BeginTx starts a transaction on a connection taken from the pool.
func (sdb *SQLDatabase) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return sdb.db.BeginTx(ctx, opts)
}

// PingContext verifies that a connection to the database can be established.
func (sdb *SQLDatabase) PingContext(ctx context.Context) error {
	return sdb.db.PingContext(ctx)
}

// Close drains the pool and closes every connection.
func (sdb *SQLDatabase) Close() error {
	if err := sdb.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

// WithTx runs fn inside a transaction. The transaction is committed when fn returns nil
// and rolled back when fn returns an error or panics.
func WithTx(ctx context.Context, db Database, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back transaction: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
