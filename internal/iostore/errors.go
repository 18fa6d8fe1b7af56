package iostore

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/scholdb/scholdb/pkg/errcode"
	"github.com/scholdb/scholdb/pkg/ident"
)

// NotConnectedError creates an error for store operations attempted
// without a database connection.
func NotConnectedError() error {
	msg := "Entity store used without database connection"
	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("not connected to database"),
	}
}

// TxError creates an error for a failed transaction begin or commit.
func TxError(err error) error {
	msg := "Database transaction failed"
	return &gn.Error{
		Code: errcode.DBTxError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("transaction: %w", err),
	}
}

// TxConflictError creates an error for a transaction conflict that
// survived all retry attempts.
func TxConflictError(attempts int, err error) error {
	msg := "Transaction conflict persisted after <em>%d</em> attempts"
	return &gn.Error{
		Code: errcode.DBTxConflictError,
		Msg:  msg,
		Vars: []any{attempts},
		Err:  fmt.Errorf("conflict after %d attempts: %w", attempts, err),
	}
}

// LockError creates an error for a failed advisory lock acquisition.
func LockError(id ident.HashID, err error) error {
	msg := "Cannot lock id <em>%s</em>"
	return &gn.Error{
		Code: errcode.DBQueryError,
		Msg:  msg,
		Vars: []any{id.String()},
		Err:  fmt.Errorf("advisory lock %s: %w", id, err),
	}
}

// UpsertError creates an error for a failed entity read or write.
func UpsertError(table string, id ident.HashID, err error) error {
	msg := "Cannot upsert <em>%s</em> row <em>%s</em>"
	return &gn.Error{
		Code: errcode.StoreUpsertError,
		Msg:  msg,
		Vars: []any{table, id.String()},
		Err:  fmt.Errorf("upsert %s %s: %w", table, id, err),
	}
}

// NotFoundError creates an error for a lookup of an id with no row.
func NotFoundError(kind string, id ident.HashID) error {
	msg := "No <em>%s</em> found for id <em>%s</em>"
	return &gn.Error{
		Code: errcode.StoreNotFoundError,
		Msg:  msg,
		Vars: []any{kind, id.String()},
		Err:  fmt.Errorf("%s %s not found", kind, id),
	}
}

// LinkKindError creates an error for a relation kind Link does not
// support, or malformed relation attributes.
func LinkKindError(kind string, err error) error {
	msg := "Cannot link relation kind <em>%s</em>"
	return &gn.Error{
		Code: errcode.StoreLinkError,
		Msg:  msg,
		Vars: []any{kind},
		Err:  fmt.Errorf("link %s: %w", kind, err),
	}
}

// LinkError creates an error for a failed relation row write.
func LinkError(err error) error {
	msg := "Cannot write relation row"
	return &gn.Error{
		Code: errcode.StoreLinkError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("relation: %w", err),
	}
}
