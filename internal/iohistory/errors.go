package iohistory

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/scholdb/scholdb/pkg/errcode"
)

// CreateDirError creates an error for a history directory that cannot
// be created.
func CreateDirError(dir string, err error) error {
	msg := "Cannot create history directory <em>%s</em>"
	return &gn.Error{
		Code: errcode.CreateDirError,
		Msg:  msg,
		Vars: []any{dir},
		Err:  fmt.Errorf("mkdir %s: %w", dir, err),
	}
}

// AppendError creates an error for a failed history log write.
func AppendError(path string, err error) error {
	msg := "Cannot append to history log <em>%s</em>"
	return &gn.Error{
		Code: errcode.HistoryAppendError,
		Msg:  msg,
		Vars: []any{path},
		Err:  fmt.Errorf("append %s: %w", path, err),
	}
}

// ReplayError creates an error for a failed history replay.
func ReplayError(path string, err error) error {
	msg := "Cannot replay history from <em>%s</em>"
	return &gn.Error{
		Code: errcode.HistoryReplayError,
		Msg:  msg,
		Vars: []any{path},
		Err:  fmt.Errorf("replay %s: %w", path, err),
	}
}
