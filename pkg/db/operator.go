// Package db defines the low-level database contract. Implementations
// (internal/iodb) own the pgx connection pool; higher components use
// Pool() for transactions, advisory locks and bulk operations.
package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scholdb/scholdb/pkg/config"
)

// Operator manages the database connection lifecycle.
type Operator interface {
	// Connect establishes a connection pool to the database.
	Connect(ctx context.Context, cfg *config.DatabaseConfig) error

	// Close closes the database connection pool.
	Close() error

	// Pool returns the underlying pgxpool.Pool. Components use it for
	// transactions, per-id advisory locks and custom queries.
	Pool() *pgxpool.Pool

	// TableExists checks if a table exists in the database.
	TableExists(ctx context.Context, tableName string) (bool, error)

	// HasTables checks if the public schema contains any tables. Used
	// to decide whether schema creation needs confirmation.
	HasTables(ctx context.Context) (bool, error)

	// DropAllTables drops all tables in the public schema. Used when
	// recreating the schema from scratch.
	DropAllTables(ctx context.Context) error
}
