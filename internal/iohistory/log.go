// Package iohistory implements the append-only history log on the file
// system, and replay of that log through the live ingestion and merge
// code paths. Log writes happen before the transaction they describe
// commits, so a logged operation is never lost and an unlogged one
// never happened.
package iohistory

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gnames/gnfmt"
	"github.com/scholdb/scholdb/pkg/history"
)

// Writer appends events to JSONL files in the history directory. One
// file per operation type per writer session; the timestamped filename
// keeps lexicographic directory order equal to chronological order.
type Writer struct {
	dir string

	mu    sync.Mutex
	files map[history.Op]*os.File
	enc   gnfmt.GNjson
}

// NewWriter creates a history log writer, creating the directory when
// missing.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, CreateDirError(dir, err)
	}
	return &Writer{
		dir:   dir,
		files: make(map[history.Op]*os.File),
	}, nil
}

// Append writes events to the log and syncs them to disk before
// returning. Callers commit their transaction only after Append
// succeeds.
func (w *Writer) Append(ctx context.Context, events ...history.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, e := range events {
		if err := ctx.Err(); err != nil {
			return err
		}

		f, err := w.file(e.Op, e.At)
		if err != nil {
			return err
		}

		line, err := w.enc.Encode(e)
		if err != nil {
			return AppendError(w.dir, err)
		}
		if _, err := f.Write(append(line, '\n')); err != nil {
			return AppendError(w.dir, err)
		}
		if err := f.Sync(); err != nil {
			return AppendError(w.dir, err)
		}
	}
	return nil
}

// Close closes every open log file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	for op, f := range w.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(w.files, op)
	}
	return firstErr
}

// file returns the session file for an op, opening it on first use. The
// file is named after the first event it records.
func (w *Writer) file(op history.Op, at time.Time) (*os.File, error) {
	if f, ok := w.files[op]; ok {
		return f, nil
	}

	if at.IsZero() {
		at = time.Now().UTC()
	}
	path := filepath.Join(w.dir, history.Filename(at, op))
	f, err := os.OpenFile(path,
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, AppendError(path, err)
	}
	w.files[op] = f
	return f, nil
}
