// Package driver is the thin boundary between scry's compiler and a
// real database connection: it opens the connection and defines the
// interfaces the dispatcher holds it through. Introspection queries
// live in the catalog package and query execution in the dispatcher.
// The compiler never imports this package directly — the dispatcher
// wires it in — so the core stays testable against fakes.
package driver

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

// Rows is a minimal result-set interface that *sql.Rows satisfies.
// DB.QueryContext returns *sql.Rows itself, not this interface.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Columns() ([]string, error)
	Err() error
	Close() error
}

// DB is the contract the dispatcher depends on (the catalog loader
// takes its own narrower querier, which a DB also satisfies).
// Open returns one backed by lib/pq; tests can substitute their own.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	PingContext(ctx context.Context) error
	Close() error
}

// Open connects to dsn using the pq driver, mirroring the original's
// plain psycopg2.connect(dsn) — one connection string, no pool tuning.
func Open(dsn string) (*sql.DB, error) {
	return open("postgres", dsn)
}

// OpenPGX connects to dsn using the pgx stdlib driver instead of
// lib/pq. Both produce an identical *sql.DB from the dispatcher's
// point of view; OpenPGX exists for deployments that want pgx's
// connection handling (binary protocol, better type support) without
// touching any other layer.
func OpenPGX(dsn string) (*sql.DB, error) {
	return open("pgx", dsn)
}

func open(driverName, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}
