package ioschema

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/scholdb/scholdb/pkg/errcode"
)

// NotConnectedError creates an error for schema operations attempted
// without a database connection.
func NotConnectedError() error {
	msg := "Schema operation attempted without database connection"
	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("not connected to database"),
	}
}

// GORMConnectionError creates an error for a failed GORM session over
// the shared pool.
func GORMConnectionError(err error) error {
	msg := "Cannot open GORM session for schema management"
	return &gn.Error{
		Code: errcode.SchemaGORMConnectionError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("gorm connection failed: %w", err),
	}
}

// CreateSchemaError creates an error for a failed AutoMigrate run.
func CreateSchemaError(err error) error {
	msg := `Cannot create database schema

<em>How to fix:</em>
  1. Check the database user owns the public schema
  2. Re-run <em>scholdb create</em> after fixing permissions`
	return &gn.Error{
		Code: errcode.SchemaCreateError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("schema creation failed: %w", err),
	}
}
