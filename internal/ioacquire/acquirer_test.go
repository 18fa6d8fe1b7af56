package ioacquire

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/scholdb/scholdb/pkg/config"
	"github.com/scholdb/scholdb/pkg/connector"
	"github.com/scholdb/scholdb/pkg/ident"
	"github.com/scholdb/scholdb/pkg/schema"
	"github.com/scholdb/scholdb/pkg/scholdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConnector emits a fixed candidate list, then optionally an error.
type fakeConnector struct {
	name       string
	candidates []*connector.Candidate
	err        error
}

func (f *fakeConnector) Name() string { return f.name }

func (f *fakeConnector) Query(
	ctx context.Context, p connector.Params,
) connector.Stream {
	ch := make(chan connector.Item)
	go func() {
		defer close(ch)
		n := len(f.candidates)
		if p.Limit > 0 && p.Limit < n {
			n = p.Limit
		}
		for _, c := range f.candidates[:n] {
			if !connector.Emit(ctx, ch, connector.Item{Candidate: c}) {
				return
			}
		}
		if f.err != nil {
			connector.Emit(ctx, ch, connector.Item{Err: f.err})
		}
	}()
	return ch
}

// countingStore counts ingestions without a database.
type countingStore struct {
	mu       sync.Mutex
	ingested []*connector.Candidate
	fail     bool
}

func (s *countingStore) Ingest(
	_ context.Context, c *connector.Candidate,
) (*scholdb.IngestStats, error) {
	if s.fail {
		return nil, errors.New("store down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ingested = append(s.ingested, c)
	return &scholdb.IngestStats{Created: 1}, nil
}

func (s *countingStore) GetPaper(
	_ context.Context, id ident.HashID,
) (*schema.Paper, error) {
	return &schema.Paper{ID: id.String()}, nil
}

func (s *countingStore) Link(
	context.Context, ident.HashID, ident.HashID, string, map[string]string,
) error {
	return nil
}

func (s *countingStore) Flag(
	context.Context, ident.HashID, string, bool,
) error {
	return nil
}

func setupAcquirer(
	t *testing.T, store scholdb.Store, conns ...connector.Connector,
) scholdb.Acquirer {
	t.Helper()

	reg := connector.NewRegistry()
	for _, c := range conns {
		require.NoError(t, reg.Register(c))
	}
	cfg := config.New(config.OptJobsNumber(2))
	return New(cfg, reg, store, nil, nil)
}

// fakeState records connector bookkeeping saves.
type fakeState struct {
	mu    sync.Mutex
	saved map[string]any
}

func (f *fakeState) Save(
	_ context.Context, scraper, _ string, _ int, payload any,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = make(map[string]any)
	}
	f.saved[scraper] = payload
	return nil
}

func papers(titles ...string) []*connector.Candidate {
	out := make([]*connector.Candidate, len(titles))
	for i, title := range titles {
		out[i] = &connector.Candidate{Title: title}
	}
	return out
}

func TestRunBatch(t *testing.T) {
	store := &countingStore{}
	a := setupAcquirer(t, store,
		&fakeConnector{
			name:       "openalex",
			candidates: papers("Paper One", "Paper Two"),
		},
		&fakeConnector{
			name:       "dblp",
			candidates: papers("Paper Three"),
		},
	)

	summary, err := a.RunBatch(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Created)
	assert.Equal(t, 0, summary.Skipped)
	assert.Len(t, summary.Connectors, 2)
	assert.Len(t, store.ingested, 3)

	for _, c := range store.ingested {
		assert.NotEmpty(t, c.Scraper,
			"provenance is stamped before ingestion")
	}
}

func TestRunBatchLimit(t *testing.T) {
	store := &countingStore{}
	a := setupAcquirer(t, store, &fakeConnector{
		name:       "openalex",
		candidates: papers("One", "Two", "Three", "Four"),
	})

	summary, err := a.RunBatch(context.Background(), nil, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Created)
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	store := &countingStore{}
	a := setupAcquirer(t, store,
		&fakeConnector{
			name:       "flaky",
			candidates: papers("Partial"),
			err:        errors.New("rate limited"),
		},
		&fakeConnector{
			name:       "solid",
			candidates: papers("Good One", "Good Two"),
		},
	)

	summary, err := a.RunBatch(context.Background(), nil, 0)
	require.NoError(t, err, "a failing connector never aborts the batch")
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 3, summary.Created,
		"candidates before the failure are kept")

	var flaky scholdb.ConnectorSummary
	for _, cs := range summary.Connectors {
		if cs.Connector == "flaky" {
			flaky = cs
		}
	}
	assert.True(t, flaky.Failed)
	assert.Contains(t, flaky.Error, "rate limited")
}

func TestRunBatchUnknownConnector(t *testing.T) {
	store := &countingStore{}
	a := setupAcquirer(t, store)

	summary, err := a.RunBatch(
		context.Background(), []string{"nope"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, summary.Connectors, 1)
	assert.True(t, summary.Connectors[0].Failed)
}

func TestRunBatchSavesConnectorState(t *testing.T) {
	store := &countingStore{}
	state := &fakeState{}

	reg := connector.NewRegistry()
	require.NoError(t, reg.Register(&fakeConnector{
		name:       "openalex",
		candidates: papers("Paper One"),
	}))
	require.NoError(t, reg.Register(&fakeConnector{
		name: "flaky",
		err:  errors.New("down"),
	}))

	cfg := config.New(config.OptJobsNumber(2))
	a := New(cfg, reg, store, nil, state)

	_, err := a.RunBatch(context.Background(), nil, 0)
	require.NoError(t, err)

	assert.Contains(t, state.saved, "openalex",
		"successful connectors record their last batch")
	assert.NotContains(t, state.saved, "flaky",
		"failed connectors keep their previous state")
}

func TestRunBatchStoreFailure(t *testing.T) {
	store := &countingStore{fail: true}
	a := setupAcquirer(t, store, &fakeConnector{
		name:       "openalex",
		candidates: papers("Doomed"),
	})

	summary, err := a.RunBatch(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Created)
}
