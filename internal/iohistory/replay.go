package iohistory

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/gnames/gnfmt"
	"github.com/scholdb/scholdb/pkg/history"
	"github.com/scholdb/scholdb/pkg/ident"
	"github.com/scholdb/scholdb/pkg/scholdb"
)

// maxLineSize bounds one history line. Candidates with long abstracts
// fit comfortably; anything past this is a corrupt file.
const maxLineSize = 4 * 1024 * 1024

// Replayer rebuilds store state by feeding logged events through the
// same ingestion and merge code paths used live. Replay is idempotent:
// re-ingesting a candidate lands on the same rows, re-merging a merged
// group is a no-op.
type Replayer struct {
	dir    string
	store  scholdb.Store
	merger scholdb.Merger
}

// NewReplayer creates a replayer over the given history directory.
func NewReplayer(
	dir string, store scholdb.Store, merger scholdb.Merger,
) *Replayer {
	return &Replayer{dir: dir, store: store, merger: merger}
}

// Replay applies every log file sorting after the given prefix, oldest
// first. The prefix is compared as a plain string against filenames; an
// empty prefix selects everything.
//
// Divergence between a logged merge outcome and the replayed one is
// counted and logged, never fatal: the log is the source of truth for
// what happened, the replay shows what the current code does.
func (r *Replayer) Replay(
	ctx context.Context, after string,
) (*history.ReplayStats, error) {
	files, err := r.selectFiles(after)
	if err != nil {
		return nil, err
	}

	stats := &history.ReplayStats{Files: len(files)}
	if len(files) == 0 {
		return stats, nil
	}

	bar := pb.Full.Start(len(files))
	bar.Set("prefix", "Replaying history ")
	bar.Set(pb.CleanOnFinish, true)
	defer bar.Finish()

	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := r.replayFile(ctx, name, stats); err != nil {
			return stats, err
		}
		bar.Increment()
	}
	return stats, nil
}

// selectFiles lists the history files to replay in chronological order.
func (r *Replayer) selectFiles(after string) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ReplayError(r.dir, err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		if history.After(name, after) {
			files = append(files, name)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (r *Replayer) replayFile(
	ctx context.Context, name string, stats *history.ReplayStats,
) error {
	path := filepath.Join(r.dir, name)
	f, err := os.Open(path)
	if err != nil {
		return ReplayError(path, err)
	}
	defer f.Close()

	enc := gnfmt.GNjson{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event history.Event
		if err := enc.Decode(line, &event); err != nil {
			return ReplayError(path, err)
		}
		stats.Entries++

		if err := r.applyEvent(ctx, &event, stats); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return ReplayError(path, err)
	}
	return nil
}

func (r *Replayer) applyEvent(
	ctx context.Context, event *history.Event, stats *history.ReplayStats,
) error {
	switch event.Op {
	case history.OpIngest:
		if event.Ingest == nil {
			return nil
		}
		if _, err := r.store.Ingest(ctx, event.Ingest); err != nil {
			return err
		}
		stats.Ingested++

	case history.OpMerge:
		if event.Merge == nil {
			return nil
		}
		ids := make([]ident.HashID, 0, len(event.Merge.Inputs))
		for _, s := range event.Merge.Inputs {
			id, err := ident.Parse(s)
			if err != nil {
				return ReplayError(s, err)
			}
			ids = append(ids, id)
		}

		outcome, err := r.merger.Merge(ctx, event.Merge.Kind, ids)
		if err != nil {
			return err
		}
		stats.Merged++

		if outcome.Surviving != event.Merge.Surviving {
			stats.Divergent++
			slog.Warn("replayed merge diverged from log",
				"kind", event.Merge.Kind,
				"logged", event.Merge.Surviving,
				"replayed", outcome.Surviving,
			)
		}

	case history.OpFlag:
		if event.Flag == nil {
			return nil
		}
		id, err := ident.Parse(event.Flag.PaperID)
		if err != nil {
			return ReplayError(event.Flag.PaperID, err)
		}
		err = r.store.Flag(ctx, id, event.Flag.Flag, event.Flag.On)
		if err != nil {
			return err
		}
		stats.Flagged++

	default:
		slog.Warn("unknown history op skipped", "op", event.Op)
	}
	return nil
}
