// Package ioschema implements schema management. This is an impure I/O
// package that wraps GORM AutoMigrate.
package ioschema

import (
	"context"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/scholdb/scholdb/pkg/db"
	"github.com/scholdb/scholdb/pkg/schema"
	"github.com/scholdb/scholdb/pkg/scholdb"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// manager implements scholdb.SchemaManager using GORM AutoMigrate.
type manager struct {
	operator db.Operator
}

// NewManager creates a new SchemaManager.
func NewManager(op db.Operator) scholdb.SchemaManager {
	return &manager{operator: op}
}

// Create creates the database schema using GORM AutoMigrate over the
// shared pgx pool.
func (m *manager) Create(ctx context.Context) error {
	pool := m.operator.Pool()
	if pool == nil {
		return NotConnectedError()
	}

	sqlDB := stdlib.OpenDBFromPool(pool)

	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{Conn: sqlDB}),
		&gorm.Config{},
	)
	if err != nil {
		return GORMConnectionError(err)
	}

	if err := schema.Migrate(gormDB.WithContext(ctx)); err != nil {
		return CreateSchemaError(err)
	}

	return nil
}
