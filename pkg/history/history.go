// Package history defines the append-only history log format: one JSON
// object per line, in files whose names start with a sortable timestamp
// so that lexicographic filename ordering equals chronological ordering.
//
// The log records every ingested candidate and every merge decision and
// is sufficient to rebuild the entire store from scratch by replaying
// entries through the same upsert and merge code paths used live.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/scholdb/scholdb/pkg/connector"
	"github.com/scholdb/scholdb/pkg/scholdb"
)

// Op names the operation a log entry records.
type Op string

const (
	OpIngest Op = "ingest"
	OpMerge  Op = "merge"
	OpFlag   Op = "flag"
)

// Event is one line of the history log.
type Event struct {
	Op Op        `json:"op"`
	At time.Time `json:"at"`

	// Ingest carries the raw incoming candidate for OpIngest.
	Ingest *connector.Candidate `json:"ingest,omitempty"`

	// Merge carries the consolidation decision for OpMerge: the full
	// input set, the surviving id and the field provenance.
	Merge *scholdb.MergeOutcome `json:"merge,omitempty"`

	// Flag carries a curator flag change for OpFlag.
	Flag *FlagChange `json:"flag,omitempty"`
}

// FlagChange records a human curation flag being set or removed.
type FlagChange struct {
	PaperID string `json:"paper_id"`
	Flag    string `json:"flag"`
	On      bool   `json:"on"`
}

// Log appends events durably. Writes are ordered before the commit of
// the transaction they describe (log-then-commit): a crash between log
// write and commit is recovered by replay, a crash before the log write
// means the operation never happened.
type Log interface {
	Append(ctx context.Context, events ...Event) error
}

// ReplayStats summarizes one replay run.
type ReplayStats struct {
	Files     int `json:"files"`
	Entries   int `json:"entries"`
	Ingested  int `json:"ingested"`
	Merged    int `json:"merged"`
	Flagged   int `json:"flagged"`
	Divergent int `json:"divergent"`
}

// filenameFormat keeps every timestamp the same width, so the plain
// string ordering of filenames is also their time ordering.
const filenameFormat = "2006-01-02T15-04-05.000000000Z"

// Filename builds the log file name for a batch started at the given
// time. The timestamp prefix sorts lexicographically.
func Filename(at time.Time, op Op) string {
	return fmt.Sprintf("%s-%s.jsonl", at.UTC().Format(filenameFormat), op)
}

// After reports whether the file name sorts after the given prefix.
// This is a pure string comparison, not date parsing: a prefix like
// "2023-01-01" selects any file named from that string onward whether or
// not it is a calendar-valid date. The string semantics keep replay
// selection simple and total-order-safe.
func After(filename, prefix string) bool {
	if prefix == "" {
		return true
	}
	return filename > prefix
}
