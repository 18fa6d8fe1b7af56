// Package connector defines the uniform contract source connectors
// expose to the core, plus the explicit registry that maps connector
// names to implementations.
//
// Connectors run outside the transactional merge path: they are lazy,
// finite producers that may fail and terminate early without corrupting
// state already persisted.
package connector

import (
	"context"
)

// Params narrows a query to a connector.
type Params struct {
	// Search is a free-text query (title words, author names).
	Search string

	// Limit caps the number of candidates produced. Zero means the
	// connector's own default.
	Limit int
}

// AuthorQuery identifies an author for targeted acquisition. Prepare
// enriches it with cross-source ids and aliases.
type AuthorQuery struct {
	Name    string            `json:"name"`
	Aliases []string          `json:"aliases,omitempty"`
	IDs     map[string]string `json:"ids,omitempty"` // link type -> id
}

// Item is one element of a candidate stream. Exactly one of Candidate
// and Err is set; an Err item is always the last one.
type Item struct {
	Candidate *Candidate
	Err       error
}

// Stream is a lazy, finite sequence of candidates.
type Stream <-chan Item

// Connector is a source adapter. Implementations must stop producing
// promptly when the context is cancelled.
type Connector interface {
	// Name returns the registry name of the connector.
	Name() string

	// Query emits candidate papers matching the params.
	Query(ctx context.Context, p Params) Stream
}

// Preparer is implemented by connectors that can enrich author queries
// with cross-source ids and aliases for later targeted querying.
type Preparer interface {
	Prepare(ctx context.Context, queries []AuthorQuery) ([]AuthorQuery, error)
}

// Acquirer is implemented by connectors that can fetch the papers of
// specific authors.
type Acquirer interface {
	Acquire(ctx context.Context, queries []AuthorQuery) Stream
}

// Emit sends an item unless the context is done. It reports whether the
// consumer is still listening.
func Emit(ctx context.Context, ch chan<- Item, it Item) bool {
	select {
	case ch <- it:
		return true
	case <-ctx.Done():
		return false
	}
}
