package iocanon

import (
	"context"
	"testing"

	"github.com/scholdb/scholdb/internal/iodb"
	"github.com/scholdb/scholdb/internal/ioschema"
	"github.com/scholdb/scholdb/internal/iotesting"
	"github.com/scholdb/scholdb/pkg/db"
	"github.com/scholdb/scholdb/pkg/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupCanonTest connects to the test database and recreates the schema.
func setupCanonTest(t *testing.T) db.Operator {
	t.Helper()

	ctx := context.Background()
	cfg := iotesting.GetTestConfig()

	op := iodb.NewPgxOperator()
	err := op.Connect(ctx, &cfg.Database)
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(func() { op.Close() })

	require.NoError(t, op.DropAllTables(ctx))
	require.NoError(t, ioschema.NewManager(op).Create(ctx))
	return op
}

// canonicalOf reads the raw index row for an id; valid is false for a
// self-mapping (NULL canonical).
func canonicalOf(
	t *testing.T, op db.Operator, id ident.HashID,
) (string, bool) {
	t.Helper()

	var canonical *string
	err := op.Pool().QueryRow(context.Background(),
		`SELECT canonical FROM canonical_id WHERE hashid = $1`,
		id.String()).Scan(&canonical)
	require.NoError(t, err)
	if canonical == nil {
		return "", false
	}
	return *canonical, true
}

func TestResolveUnknown_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	op := setupCanonTest(t)

	id := ident.ForPaper("Never Seen Before", nil)
	live, err := New(op).Resolve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, live, "an unregistered id resolves to itself")
}

func TestResolveSelfMapping_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	op := setupCanonTest(t)

	id := ident.ForPaper("A Registered Paper", nil)
	require.NoError(t, EnsureKnown(ctx, op.Pool(), id))

	live, err := Resolve(ctx, op.Pool(), id)
	require.NoError(t, err)
	assert.Equal(t, id, live)
}

func TestResolveChainCompression_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	op := setupCanonTest(t)
	pool := op.Pool()

	a := ident.ForPaper("Paper A", nil)
	b := ident.ForPaper("Paper B", nil)
	c := ident.ForPaper("Paper C", nil)
	d := ident.ForPaper("Paper D", nil)

	// Build the chain a -> b -> c -> d directly, bypassing Redirect's
	// own collapsing, to exercise a multi-hop walk.
	_, err := pool.Exec(ctx, `
		INSERT INTO canonical_id (hashid, canonical)
		VALUES ($1, $2), ($3, $4), ($5, $6), ($7, NULL)`,
		a.String(), b.String(),
		b.String(), c.String(),
		c.String(), d.String(),
		d.String())
	require.NoError(t, err)

	live, err := Resolve(ctx, pool, a)
	require.NoError(t, err)
	assert.Equal(t, d, live, "resolution follows the chain to the root")

	// Fixpoint: resolving the result again changes nothing.
	again, err := Resolve(ctx, pool, live)
	require.NoError(t, err)
	assert.Equal(t, live, again)

	// The walk compressed the path: every traversed node now points
	// directly at the root.
	for _, id := range []ident.HashID{a, b, c} {
		canonical, ok := canonicalOf(t, op, id)
		require.True(t, ok)
		assert.Equal(t, d.String(), canonical,
			"%s points straight at the root after resolution", id)
	}
}

func TestRedirectRefusesSelf_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	op := setupCanonTest(t)

	id := ident.ForPaper("Paper A", nil)
	err := Redirect(ctx, op.Pool(), id, id)
	assert.NotNil(t, err, "an id cannot redirect to itself")
}

func TestRedirectRefusesCycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	op := setupCanonTest(t)
	pool := op.Pool()

	a := ident.ForPaper("Paper A", nil)
	b := ident.ForPaper("Paper B", nil)
	require.NoError(t, Redirect(ctx, pool, a, b))

	// a already resolves to b, so pointing b back at a would close a
	// loop.
	err := Redirect(ctx, pool, b, a)
	assert.NotNil(t, err, "a redirect closing a cycle is refused")

	// The refused write left the index intact.
	live, err := Resolve(ctx, pool, a)
	require.NoError(t, err)
	assert.Equal(t, b, live)
}

func TestResolveCorruptedIndex_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	op := setupCanonTest(t)
	pool := op.Pool()

	a := ident.ForPaper("Paper A", nil)
	b := ident.ForPaper("Paper B", nil)

	// A two-cycle can only exist if the index was corrupted outside the
	// Redirect path; resolution must fail instead of spinning.
	_, err := pool.Exec(ctx, `
		INSERT INTO canonical_id (hashid, canonical)
		VALUES ($1, $2), ($3, $4)`,
		a.String(), b.String(),
		b.String(), a.String())
	require.NoError(t, err)

	_, err = Resolve(ctx, pool, a)
	assert.NotNil(t, err, "a cyclic chain is reported, not walked forever")
}

func TestEnsureKnownKeepsRedirects_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	op := setupCanonTest(t)
	pool := op.Pool()

	a := ident.ForPaper("Paper A", nil)
	b := ident.ForPaper("Paper B", nil)
	require.NoError(t, Redirect(ctx, pool, a, b))

	// Re-sighting a retired id must not resurrect it as live.
	require.NoError(t, EnsureKnown(ctx, pool, a))

	live, err := Resolve(ctx, pool, a)
	require.NoError(t, err)
	assert.Equal(t, b, live)
}
