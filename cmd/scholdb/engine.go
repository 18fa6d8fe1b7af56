package main

import (
	"context"
	"fmt"
	"os"

	"github.com/scholdb/scholdb/internal/iodb"
	"github.com/scholdb/scholdb/internal/iohistory"
	"github.com/scholdb/scholdb/pkg/db"
)

// connectOperator opens the shared connection pool.
func connectOperator(ctx context.Context) (db.Operator, error) {
	op := iodb.NewPgxOperator()
	if err := op.Connect(ctx, &getConfig().Database); err != nil {
		return nil, err
	}
	return op, nil
}

// historyWriter opens the append-only history log under the home dir.
func historyWriter() (*iohistory.Writer, error) {
	return iohistory.NewWriter(getConfig().HistoryDir())
}

// defaultSourcesYAML is written on first use so 'scholdb acquire' has a
// template to edit instead of a missing-file error.
const defaultSourcesYAML = `# ScholDB connector sources.
# Types: jsonl (local JSONL dump), sqlite (local SQLite dump),
# openalex (HTTP API). Quality drives field precedence during merges.
connectors:
  - name: openalex
    type: openalex
    quality: 2
#  - name: localdump
#    type: jsonl
#    path: /path/to/papers.jsonl
#    quality: 1
`

// ensureSourcesFile writes the example sources.yaml when none exists.
func ensureSourcesFile() (string, error) {
	path := getConfig().SourcesFile()
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(getConfig().HomeDir, 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(defaultSourcesYAML), 0644); err != nil {
		return "", err
	}
	fmt.Printf("Generated default sources file at: %s\n", path)
	return path, nil
}
