package ioconnect

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/scholdb/scholdb/pkg/errcode"
)

// SourcesError creates an error for an unreadable or unparsable
// sources.yaml.
func SourcesError(path string, err error) error {
	msg := "Cannot load connector sources from <em>%s</em>"
	return &gn.Error{
		Code: errcode.ConnectorConfigError,
		Msg:  msg,
		Vars: []any{path},
		Err:  fmt.Errorf("sources %s: %w", path, err),
	}
}

// TypeError creates an error for a source declaring an unknown
// connector type.
func TypeError(name, typ string) error {
	msg := "Source <em>%s</em> declares unknown connector type <em>%s</em>"
	return &gn.Error{
		Code: errcode.ConnectorConfigError,
		Msg:  msg,
		Vars: []any{name, typ},
		Err:  fmt.Errorf("source %q: unknown type %q", name, typ),
	}
}

// FailureError creates an error for a connector that failed while
// producing candidates. The acquirer isolates it to the connector's
// summary.
func FailureError(name string, err error) error {
	msg := "Connector <em>%s</em> failed"
	return &gn.Error{
		Code: errcode.ConnectorFailureError,
		Msg:  msg,
		Vars: []any{name},
		Err:  fmt.Errorf("connector %s: %w", name, err),
	}
}

// DataError creates an error for failed connector-private state access.
func DataError(scraper, tag string, err error) error {
	msg := "Cannot access data <em>%s</em> of connector <em>%s</em>"
	return &gn.Error{
		Code: errcode.ConnectorConfigError,
		Msg:  msg,
		Vars: []any{tag, scraper},
		Err:  fmt.Errorf("scraper data %s/%s: %w", scraper, tag, err),
	}
}
