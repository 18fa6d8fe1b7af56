package ioconnect

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/scholdb/scholdb/pkg/connector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDump(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "papers.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0644))
	return path
}

func drain(t *testing.T, s connector.Stream) []*connector.Candidate {
	t.Helper()
	var out []*connector.Candidate
	for item := range s {
		require.Nil(t, item.Err)
		out = append(out, item.Candidate)
	}
	return out
}

func TestJSONLQuery(t *testing.T) {
	path := writeDump(t, `{"title":"Attention Is All You Need","quality":2}
{"title":"BERT: Pre-training of Deep Bidirectional Transformers"}
`)
	c := NewJSONL(Source{Name: "dump", Type: "jsonl", Path: path, Quality: 1})
	assert.Equal(t, "dump", c.Name())

	got := drain(t, c.Query(context.Background(), connector.Params{}))
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Quality, "explicit quality is kept")
	assert.Equal(t, 1, got[1].Quality, "source quality fills the default")
}

func TestJSONLLimit(t *testing.T) {
	path := writeDump(t, `{"title":"One"}
{"title":"Two"}
{"title":"Three"}
`)
	c := NewJSONL(Source{Name: "dump", Path: path})
	got := drain(t, c.Query(context.Background(),
		connector.Params{Limit: 2}))
	assert.Len(t, got, 2)
}

func TestJSONLSearch(t *testing.T) {
	path := writeDump(t, `{"title":"Attention Is All You Need"}
{"title":"Unrelated Work"}
`)
	c := NewJSONL(Source{Name: "dump", Path: path})
	got := drain(t, c.Query(context.Background(),
		connector.Params{Search: "attention"}))
	require.Len(t, got, 1)
	assert.Equal(t, "Attention Is All You Need", got[0].Title)
}

func TestJSONLMissingFile(t *testing.T) {
	c := NewJSONL(Source{Name: "dump", Path: "/nonexistent/papers.jsonl"})
	var errs int
	for item := range c.Query(context.Background(), connector.Params{}) {
		if item.Err != nil {
			errs++
		}
	}
	assert.Equal(t, 1, errs, "a missing dump is one terminal error item")
}

func TestJSONLCancel(t *testing.T) {
	path := writeDump(t, `{"title":"One"}
{"title":"Two"}
`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewJSONL(Source{Name: "dump", Path: path})
	got := 0
	for range c.Query(ctx, connector.Params{}) {
		got++
	}
	assert.Equal(t, 0, got, "a cancelled context stops production")
}

func TestMatchesSearch(t *testing.T) {
	assert.True(t, matchesSearch("", "anything"))
	assert.True(t, matchesSearch("ATTENTION", "Attention Is All You Need"))
	assert.False(t, matchesSearch("bert", "Attention Is All You Need"))
}
