package iocanon

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/scholdb/scholdb/pkg/errcode"
	"github.com/scholdb/scholdb/pkg/ident"
)

// NotConnectedError creates an error for index operations attempted
// without a database connection.
func NotConnectedError() error {
	msg := "Canonical index used without database connection"
	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("not connected to database"),
	}
}

// ResolveError creates an error for a failed id resolution.
func ResolveError(id ident.HashID, err error) error {
	msg := "Cannot resolve id <em>%s</em>"
	return &gn.Error{
		Code: errcode.CanonResolveError,
		Msg:  msg,
		Vars: []any{id.String()},
		Err:  fmt.Errorf("resolve %s: %w", id, err),
	}
}

// RedirectError creates an error for a failed redirect registration.
func RedirectError(old, new ident.HashID, err error) error {
	msg := "Cannot redirect <em>%s</em> to <em>%s</em>"
	return &gn.Error{
		Code: errcode.CanonRedirectError,
		Msg:  msg,
		Vars: []any{old.String(), new.String()},
		Err:  fmt.Errorf("redirect %s -> %s: %w", old, new, err),
	}
}

// RedirectSelfError creates an error for a redirect of an id to itself.
func RedirectSelfError(id ident.HashID) error {
	msg := "Refusing to redirect <em>%s</em> to itself"
	return &gn.Error{
		Code: errcode.CanonCycleError,
		Msg:  msg,
		Vars: []any{id.String()},
		Err:  fmt.Errorf("self redirect of %s", id),
	}
}

// CycleError creates an error for a redirect that would close a cycle.
// It indicates a bug or data corruption, never business as usual, so
// callers abort the enclosing transaction.
func CycleError(old, new ident.HashID) error {
	msg := `Redirect cycle detected between <em>%s</em> and <em>%s</em>

The merge was aborted and no state was changed. This points at a bug or
at index corruption; please report it.`
	return &gn.Error{
		Code: errcode.CanonCycleError,
		Msg:  msg,
		Vars: []any{old.String(), new.String()},
		Err:  fmt.Errorf("redirect cycle %s <-> %s", old, new),
	}
}
