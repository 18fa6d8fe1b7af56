// Package scholdb defines the public contracts of the identity and merge
// engine. Implementations live in internal/io* packages; pure logic and
// models live in the other pkg/ packages.
package scholdb

import (
	"context"

	"github.com/scholdb/scholdb/pkg/connector"
	"github.com/scholdb/scholdb/pkg/ident"
	"github.com/scholdb/scholdb/pkg/schema"
)

// IngestStats counts what one candidate ingestion did.
type IngestStats struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// Add accumulates another stats value.
func (s *IngestStats) Add(other *IngestStats) {
	s.Created += other.Created
	s.Updated += other.Updated
	s.Unchanged += other.Unchanged
}

// Store persists entities and relations keyed by content-addressed ids.
//
// Ingest applies one candidate bundle (paper, authors, venue, release,
// links, topics) inside a single transaction: a crash mid-bundle leaves
// no partially applied relations. Re-sighting an id merges fields (fill
// if null, otherwise prefer the higher quality source); a later source
// omitting a field never erases it.
type Store interface {
	// Ingest upserts a candidate and all its relations atomically.
	Ingest(ctx context.Context, c *connector.Candidate) (*IngestStats, error)

	// GetPaper fetches a paper after resolving the id through the
	// canonical index. Returns a StoreNotFoundError when absent.
	GetPaper(ctx context.Context, id ident.HashID) (*schema.Paper, error)

	// Link upserts one relation row between two entities, resolving
	// both ids through the canonical index first. Relation kinds:
	// "paper_author" (attrs["position"]), "paper_topic",
	// "paper_release", "author_institution". Linking twice is a no-op.
	Link(ctx context.Context, parent, child ident.HashID, kind string,
		attrs map[string]string) error

	// Flag attaches or removes a curation flag on a paper. Flags come
	// from human operators only.
	Flag(ctx context.Context, paperID ident.HashID, flag string, on bool) error
}

// Resolver maintains the canonical-ID index: hashid -> canonical id,
// self-mapping for live rows. Every read path must resolve an id before
// trusting it; the store keeps raw ids and is agnostic to redirection.
type Resolver interface {
	// Resolve follows redirects to the terminal fixpoint:
	// Resolve(Resolve(x)) == Resolve(x). Paths are compressed on the
	// way so repeated resolutions are O(1) amortized. An id never seen
	// before resolves to itself.
	Resolve(ctx context.Context, id ident.HashID) (ident.HashID, error)

	// Redirect registers old -> new. Only the merge engine calls it.
	// A redirect that would close a cycle fails with a CanonCycleError.
	Redirect(ctx context.Context, old, new ident.HashID) error
}

// FieldDecision records which candidate supplied the value of one field
// of a surviving row.
type FieldDecision struct {
	Field  string `json:"field"`
	Source string `json:"source"` // id of the contributing candidate
}

// MergeOutcome describes one consolidation.
type MergeOutcome struct {
	Kind      schema.Kind     `json:"kind"`
	Inputs    []string        `json:"inputs"`
	Surviving string          `json:"surviving"`
	NoOp      bool            `json:"no_op,omitempty"`
	Fields    []FieldDecision `json:"fields,omitempty"`
	Rewritten int64           `json:"relations_rewritten"`
}

// Merger consolidates a group of ids believed to represent the same
// real-world entity into exactly one surviving row, rewriting every
// foreign key that pointed at a non-surviving row. It trusts its input
// group; duplicate detection quality is a Detector concern.
type Merger interface {
	Merge(ctx context.Context, kind schema.Kind, ids []ident.HashID) (*MergeOutcome, error)
}

// Detector proposes candidate groups of ids to merge. Strategies:
// "bylink" (identical (type, url) pair on the same kind), "byname"
// (squashed-name equality), "manual" (explicit curator ids).
type Detector interface {
	Detect(ctx context.Context, strategy string, kind schema.Kind) ([][]ident.HashID, error)
}

// ConnectorSummary reports one connector's part of an ingestion batch.
type ConnectorSummary struct {
	Connector string      `json:"connector"`
	Stats     IngestStats `json:"stats"`
	Failed    bool        `json:"failed,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// RunSummary is the machine-readable result of a batch command.
type RunSummary struct {
	Connectors []ConnectorSummary `json:"connectors,omitempty"`
	Merged     int                `json:"merged"`
	Skipped    int                `json:"skipped"`
	Created    int                `json:"created"`
	Updated    int                `json:"updated"`
}

// SchemaManager manages the database schema via GORM AutoMigrate.
// Schema management is idempotent and safe to run multiple times.
type SchemaManager interface {
	// Create creates the initial database schema.
	Create(ctx context.Context) error
}

// Acquirer runs ingestion batches over registered connectors.
// Connector failures are isolated: one unreachable source never aborts
// the batch, it only shows up in the summary.
type Acquirer interface {
	RunBatch(ctx context.Context, connectors []string, limit int) (*RunSummary, error)
}
