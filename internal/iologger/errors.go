package iologger

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/scholdb/scholdb/pkg/errcode"
)

// CreateLogFileError creates an error for a log file that cannot be
// opened or created.
func CreateLogFileError(path string, err error) error {
	msg := "Cannot create log file <em>%s</em>"
	return &gn.Error{
		Code: errcode.CreateLogFileError,
		Msg:  msg,
		Vars: []any{path},
		Err:  fmt.Errorf("cannot create log file: %w", err),
	}
}
