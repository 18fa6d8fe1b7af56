package ioconnect

import (
	"bufio"
	"context"
	"os"

	"github.com/gnames/gnfmt"
	"github.com/scholdb/scholdb/pkg/connector"
)

// maxLineSize bounds one dump line; abstracts fit with room to spare.
const maxLineSize = 4 * 1024 * 1024

// jsonlConnector reads candidates from a local JSONL dump, one
// candidate object per line. The same format the history log uses for
// ingest payloads, so a history file's payloads can be re-fed directly.
type jsonlConnector struct {
	src Source
}

// NewJSONL creates a connector over a local JSONL dump file.
func NewJSONL(src Source) connector.Connector {
	return &jsonlConnector{src: src}
}

func (j *jsonlConnector) Name() string { return j.src.Name }

func (j *jsonlConnector) Query(
	ctx context.Context, p connector.Params,
) connector.Stream {
	ch := make(chan connector.Item)

	go func() {
		defer close(ch)

		f, err := os.Open(j.src.Path)
		if err != nil {
			connector.Emit(ctx, ch,
				connector.Item{Err: FailureError(j.src.Name, err)})
			return
		}
		defer f.Close()

		enc := gnfmt.GNjson{}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

		sent := 0
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var c connector.Candidate
			if err := enc.Decode(line, &c); err != nil {
				connector.Emit(ctx, ch,
					connector.Item{Err: FailureError(j.src.Name, err)})
				return
			}
			if c.Quality == 0 {
				c.Quality = j.src.Quality
			}
			if !matchesSearch(p.Search, c.Title) {
				continue
			}

			if !connector.Emit(ctx, ch, connector.Item{Candidate: &c}) {
				return
			}
			sent++
			if p.Limit > 0 && sent >= p.Limit {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			connector.Emit(ctx, ch,
				connector.Item{Err: FailureError(j.src.Name, err)})
		}
	}()

	return ch
}
