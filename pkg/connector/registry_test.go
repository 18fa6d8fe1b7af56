package connector_test

import (
	"context"
	"testing"

	"github.com/scholdb/scholdb/pkg/connector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConnector struct {
	name string
}

func (f *fakeConnector) Name() string { return f.name }

func (f *fakeConnector) Query(
	ctx context.Context, p connector.Params,
) connector.Stream {
	ch := make(chan connector.Item)
	close(ch)
	return ch
}

func TestRegistry(t *testing.T) {
	reg := connector.NewRegistry()

	require.NoError(t, reg.Register(&fakeConnector{name: "openalex"}))
	require.NoError(t, reg.Register(&fakeConnector{name: "jsonl"}))

	t.Run("lookup by name", func(t *testing.T) {
		c, ok := reg.Get("openalex")
		require.True(t, ok)
		assert.Equal(t, "openalex", c.Name())

		_, ok = reg.Get("missing")
		assert.False(t, ok)
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		err := reg.Register(&fakeConnector{name: "jsonl"})
		assert.Error(t, err)
	})

	t.Run("names are sorted", func(t *testing.T) {
		assert.Equal(t, []string{"jsonl", "openalex"}, reg.Names())
	})
}

func TestCandidateAuthorNames(t *testing.T) {
	c := &connector.Candidate{
		Title: "Foo Bar",
		Authors: []connector.CandidateAuthor{
			{Name: "A. Smith"},
			{Name: "B. Jones"},
		},
	}
	assert.Equal(t, []string{"A. Smith", "B. Jones"}, c.AuthorNames())
}
