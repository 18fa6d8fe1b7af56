package iostore

import (
	"context"
	"sort"

	"github.com/scholdb/scholdb/pkg/db"
	"github.com/scholdb/scholdb/pkg/ident"
)

// LockIDs takes transaction-scoped advisory locks for every id, after
// deduplicating and sorting ascending. The fixed ascending order is
// what keeps two concurrent operations sharing ids from deadlocking:
// both queue on the smallest shared id first.
//
// Callers must run inside a transaction; the locks release on commit or
// rollback.
func LockIDs(ctx context.Context, q db.Querier, ids []ident.HashID) error {
	seen := make(map[ident.HashID]bool, len(ids))
	uniq := make([]ident.HashID, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		uniq = append(uniq, id)
	}

	sort.Slice(uniq, func(i, j int) bool {
		return uniq[i].Less(uniq[j])
	})

	for _, id := range uniq {
		_, err := q.Exec(ctx,
			`SELECT pg_advisory_xact_lock($1)`, id.LockKey())
		if err != nil {
			return LockError(id, err)
		}
	}
	return nil
}
