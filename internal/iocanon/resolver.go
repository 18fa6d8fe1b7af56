// Package iocanon implements the canonical-ID index: the mapping from
// any id ever issued to the currently-live id. Every read path in the
// system resolves ids here before trusting them; the entity store keeps
// raw ids and is agnostic to redirection.
package iocanon

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/scholdb/scholdb/pkg/db"
	"github.com/scholdb/scholdb/pkg/ident"
	"github.com/scholdb/scholdb/pkg/scholdb"
)

// maxChain bounds redirect-chain walks. Chains stay short because of
// path compression; hitting the bound means the index is corrupted.
const maxChain = 64

// resolver implements scholdb.Resolver on the shared pool.
type resolver struct {
	operator db.Operator
}

// New creates a Resolver backed by the canonical_id table.
func New(op db.Operator) scholdb.Resolver {
	return &resolver{operator: op}
}

func (r *resolver) Resolve(
	ctx context.Context, id ident.HashID,
) (ident.HashID, error) {
	pool := r.operator.Pool()
	if pool == nil {
		return id, NotConnectedError()
	}
	return Resolve(ctx, pool, id)
}

func (r *resolver) Redirect(
	ctx context.Context, old, new ident.HashID,
) error {
	pool := r.operator.Pool()
	if pool == nil {
		return NotConnectedError()
	}
	return Redirect(ctx, pool, old, new)
}

// Resolve follows redirects from id to the terminal fixpoint and
// compresses the traversed path so the next resolution of any node on
// it is a single lookup. An id without an index row resolves to itself.
func Resolve(
	ctx context.Context, q db.Querier, id ident.HashID,
) (ident.HashID, error) {
	cur := id
	var path []ident.HashID

	for range maxChain {
		var canonical sql.NullString
		err := q.QueryRow(ctx,
			`SELECT canonical FROM canonical_id WHERE hashid = $1`,
			cur.String(),
		).Scan(&canonical)

		switch {
		case errors.Is(err, pgx.ErrNoRows):
			// Never redirected, never registered: live by definition.
			return compress(ctx, q, path, cur)
		case err != nil:
			return id, ResolveError(cur, err)
		}

		if !canonical.Valid {
			// Self-mapping: cur is the live row.
			return compress(ctx, q, path, cur)
		}

		next, err := ident.Parse(canonical.String)
		if err != nil {
			return id, ResolveError(cur, err)
		}
		path = append(path, cur)
		cur = next
	}

	return id, CycleError(id, cur)
}

// compress rewrites every traversed node to point directly at the root,
// making repeated resolutions O(1) amortized.
func compress(
	ctx context.Context,
	q db.Querier,
	path []ident.HashID,
	root ident.HashID,
) (ident.HashID, error) {
	if len(path) < 2 {
		// Nothing to shorten: the path is empty or already direct.
		return root, nil
	}

	ids := make([]string, 0, len(path)-1)
	for _, id := range path[:len(path)-1] {
		ids = append(ids, id.String())
	}

	_, err := q.Exec(ctx,
		`UPDATE canonical_id SET canonical = $1 WHERE hashid = ANY($2)`,
		root.String(), ids,
	)
	if err != nil {
		return root, ResolveError(root, err)
	}
	return root, nil
}

// Redirect registers old -> new. Only the merge engine calls it. The
// redirect graph must stay acyclic with every path terminating at a row
// that is not itself redirected, so a new target resolving back to the
// old id is rejected loudly.
func Redirect(
	ctx context.Context, q db.Querier, old, new ident.HashID,
) error {
	if old == new {
		return RedirectSelfError(old)
	}

	target, err := Resolve(ctx, q, new)
	if err != nil {
		return err
	}
	if target == old {
		return CycleError(old, new)
	}

	// The target keeps (or gains) a self-mapping, so resolution always
	// terminates at a true canonical row.
	_, err = q.Exec(ctx, `
		INSERT INTO canonical_id (hashid, canonical)
		VALUES ($1, NULL)
		ON CONFLICT (hashid) DO NOTHING`,
		new.String(),
	)
	if err != nil {
		return RedirectError(old, new, err)
	}

	_, err = q.Exec(ctx, `
		INSERT INTO canonical_id (hashid, canonical)
		VALUES ($1, $2)
		ON CONFLICT (hashid) DO UPDATE SET canonical = EXCLUDED.canonical`,
		old.String(), new.String(),
	)
	if err != nil {
		return RedirectError(old, new, err)
	}
	return nil
}

// EnsureKnown registers self-mappings for freshly sighted ids. Existing
// rows, redirected or not, are left alone.
func EnsureKnown(
	ctx context.Context, q db.Querier, ids ...ident.HashID,
) error {
	for _, id := range ids {
		_, err := q.Exec(ctx, `
			INSERT INTO canonical_id (hashid, canonical)
			VALUES ($1, NULL)
			ON CONFLICT (hashid) DO NOTHING`,
			id.String(),
		)
		if err != nil {
			return RedirectError(id, id, err)
		}
	}
	return nil
}
