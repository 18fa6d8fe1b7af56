package iodb

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/scholdb/scholdb/pkg/config"
	"github.com/scholdb/scholdb/pkg/errcode"
)

// ConnectionError creates an error for a failed PostgreSQL connection.
func ConnectionError(cfg *config.DatabaseConfig, err error) error {
	msg := `Cannot connect to PostgreSQL

<em>Host:</em> %s:%d
<em>Database:</em> %s
<em>User:</em> %s

<em>How to fix:</em>
  1. Check PostgreSQL is running
  2. Verify connection settings (scholdb.yaml or SCHOLDB_DATABASE_*)
  3. Verify the database exists and the user can access it`

	vars := []any{cfg.Host, cfg.Port, cfg.Database, cfg.User}

	return &gn.Error{
		Code: errcode.DBConnectionError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("cannot connect to database: %w", err),
	}
}

// NotConnectedError creates an error for operations attempted without a
// database connection.
func NotConnectedError() error {
	msg := "Operation attempted without database connection"
	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("not connected to database"),
	}
}

// TableCheckError creates an error for a failed table existence check.
func TableCheckError(err error) error {
	msg := "Cannot check database tables"
	return &gn.Error{
		Code: errcode.DBTableCheckError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("table check failed: %w", err),
	}
}

// QueryError creates an error for a failed catalog query.
func QueryError(err error) error {
	msg := "Database query failed"
	return &gn.Error{
		Code: errcode.DBQueryError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("query failed: %w", err),
	}
}
