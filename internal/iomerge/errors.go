package iomerge

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/scholdb/scholdb/pkg/errcode"
	"github.com/scholdb/scholdb/pkg/ident"
	"github.com/scholdb/scholdb/pkg/schema"
)

// NotConnectedError creates an error for merge operations attempted
// without a database connection.
func NotConnectedError() error {
	msg := "Merge engine used without database connection"
	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("not connected to database"),
	}
}

// KindError creates an error for a merge of an unknown entity kind.
func KindError(kind string) error {
	msg := "Unknown entity kind <em>%s</em>"
	return &gn.Error{
		Code: errcode.MergeKindError,
		Msg:  msg,
		Vars: []any{kind},
		Err:  fmt.Errorf("unknown kind %q", kind),
	}
}

// EmptyGroupError creates an error for a merge group with no usable
// rows.
func EmptyGroupError(kind schema.Kind) error {
	msg := "No <em>%s</em> rows to merge"
	return &gn.Error{
		Code: errcode.MergeEmptyGroupError,
		Msg:  msg,
		Vars: []any{string(kind)},
		Err:  fmt.Errorf("empty %s merge group", kind),
	}
}

// ApplyError creates an error for a failed read or write of an entity
// row during a merge.
func ApplyError(kind schema.Kind, id ident.HashID, err error) error {
	msg := "Cannot apply merge to <em>%s</em> row <em>%s</em>"
	return &gn.Error{
		Code: errcode.MergeApplyError,
		Msg:  msg,
		Vars: []any{string(kind), id.String()},
		Err:  fmt.Errorf("merge %s %s: %w", kind, id, err),
	}
}

// RewriteError creates an error for a failed foreign key rewrite.
func RewriteError(table string, old, new ident.HashID, err error) error {
	msg := "Cannot rewrite <em>%s</em> rows from <em>%s</em> to <em>%s</em>"
	return &gn.Error{
		Code: errcode.MergeApplyError,
		Msg:  msg,
		Vars: []any{table, old.String(), new.String()},
		Err:  fmt.Errorf("rewrite %s %s -> %s: %w", table, old, new, err),
	}
}

// DetectError creates an error for a failed duplicate detection run.
func DetectError(strategy string, kind schema.Kind, err error) error {
	msg := "Duplicate detection <em>%s</em> failed for <em>%s</em>"
	return &gn.Error{
		Code: errcode.MergeDetectError,
		Msg:  msg,
		Vars: []any{strategy, string(kind)},
		Err:  fmt.Errorf("detect %s %s: %w", strategy, kind, err),
	}
}

// StrategyError creates an error for an unknown or inapplicable
// detection strategy.
func StrategyError(strategy string, kind schema.Kind) error {
	msg := "Detection strategy <em>%s</em> is not available for <em>%s</em>"
	return &gn.Error{
		Code: errcode.MergeDetectError,
		Msg:  msg,
		Vars: []any{strategy, string(kind)},
		Err:  fmt.Errorf("strategy %q unavailable for %s", strategy, kind),
	}
}
