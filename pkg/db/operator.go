// Package db defines the contract of the PostgreSQL database that keeps
// per-source download limits and the export log.
package db

import (
	"context"

	"github.com/gnames/gnexport/pkg/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Operator defines the interface for basic database management operations.
// It manages the connection lifecycle and exposes the pgxpool.Pool for
// components that run their own SQL (quota lookups, audit inserts, schema
// creation).
type Operator interface {
	// Connect establishes a connection pool to the database.
	Connect(context.Context, *config.DatabaseConfig) error

	// Close closes the database connection pool.
	Close() error

	// Pool returns the underlying pgxpool.Pool.
	Pool() *pgxpool.Pool

	// TableExists checks if a table exists in the database.
	TableExists(ctx context.Context, tableName string) (bool, error)
}
