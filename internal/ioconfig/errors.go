package ioconfig

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/scholdb/scholdb/pkg/errcode"
)

// ReadConfigError creates an error for a config file that exists but
// cannot be read or parsed.
func ReadConfigError(path string, err error) error {
	msg := `Cannot read config file <em>%s</em>

<em>How to fix:</em>
  1. Check the file is valid YAML
  2. Check file permissions`
	return &gn.Error{
		Code: errcode.ReadFileError,
		Msg:  msg,
		Vars: []any{path},
		Err:  fmt.Errorf("cannot read config file: %w", err),
	}
}

// UnmarshalConfigError creates an error for config contents that do not
// match the expected structure.
func UnmarshalConfigError(err error) error {
	msg := "Config file does not match the expected structure"
	return &gn.Error{
		Code: errcode.ReadFileError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("cannot unmarshal config: %w", err),
	}
}
