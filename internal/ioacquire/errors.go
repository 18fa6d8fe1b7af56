package ioacquire

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/scholdb/scholdb/pkg/errcode"
)

// UnknownConnectorError creates an error for a connector name that is
// not registered.
func UnknownConnectorError(name string) error {
	msg := "Unknown connector <em>%s</em>"
	return &gn.Error{
		Code: errcode.ConnectorUnknownError,
		Msg:  msg,
		Vars: []any{name},
		Err:  fmt.Errorf("connector %q not registered", name),
	}
}

// BatchError creates an error for an acquisition batch that could not
// run at all.
func BatchError(err error) error {
	msg := "Acquisition batch failed"
	return &gn.Error{
		Code: errcode.AcquireBatchError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("batch: %w", err),
	}
}
