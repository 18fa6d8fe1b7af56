package ioconnect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSources(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSources(t *testing.T) {
	path := writeSources(t, `
connectors:
  - name: openalex
    type: openalex
    quality: 2
    rate_limit: 5
  - name: s2dump
    type: sqlite
    path: /data/s2.db
    quality: 1
  - name: localdump
    type: jsonl
    path: /data/papers.jsonl
    quality: 1
`)

	s, err := LoadSources(path)
	require.NoError(t, err)
	require.Len(t, s.Connectors, 3)
	assert.Equal(t, "openalex", s.Connectors[0].Name)
	assert.Equal(t, 2, s.Connectors[0].Quality)
	assert.Equal(t, 5.0, s.Connectors[0].RateLimit)
	assert.Equal(t, "/data/s2.db", s.Connectors[1].Path)
}

func TestLoadSourcesMissing(t *testing.T) {
	_, err := LoadSources("/nonexistent/sources.yaml")
	assert.NotNil(t, err)
}

func TestLoadSourcesBadYAML(t *testing.T) {
	path := writeSources(t, "connectors: [unterminated")
	_, err := LoadSources(path)
	assert.NotNil(t, err)
}

func TestBuildRegistry(t *testing.T) {
	s := &Sources{Connectors: []Source{
		{Name: "oa", Type: "openalex", Quality: 2},
		{Name: "dump", Type: "jsonl", Path: "/tmp/p.jsonl", Quality: 1},
		{Name: "db", Type: "sqlite", Path: "/tmp/p.db", Quality: 1},
	}}

	reg, err := BuildRegistry(s, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"db", "dump", "oa"}, reg.Names())
}

func TestBuildRegistryUnknownType(t *testing.T) {
	s := &Sources{Connectors: []Source{
		{Name: "mystery", Type: "gopher"},
	}}
	_, err := BuildRegistry(s, nil)
	assert.NotNil(t, err, "a typo in sources.yaml fails loudly")
}

func TestBuildRegistryDuplicateName(t *testing.T) {
	s := &Sources{Connectors: []Source{
		{Name: "dump", Type: "jsonl", Path: "/a.jsonl"},
		{Name: "dump", Type: "jsonl", Path: "/b.jsonl"},
	}}
	_, err := BuildRegistry(s, nil)
	assert.NotNil(t, err)
}
