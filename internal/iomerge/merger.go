// Package iomerge implements the merge engine: consolidation of groups
// of ids believed to represent the same real-world entity into exactly
// one surviving row, with every foreign key rewritten and the retired
// ids redirected through the canonical index.
//
// Merges run inside a single transaction under per-id advisory locks.
// Non-surviving rows are kept, never deleted; the canonical index is
// what retires them.
package iomerge

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/scholdb/scholdb/internal/iocanon"
	"github.com/scholdb/scholdb/internal/iostore"
	"github.com/scholdb/scholdb/pkg/config"
	"github.com/scholdb/scholdb/pkg/db"
	"github.com/scholdb/scholdb/pkg/history"
	"github.com/scholdb/scholdb/pkg/ident"
	"github.com/scholdb/scholdb/pkg/schema"
	"github.com/scholdb/scholdb/pkg/scholdb"
)

// merger implements scholdb.Merger.
type merger struct {
	operator db.Operator
	log      history.Log
	attempts int
}

// New creates the merge engine. Merge outcomes are appended to the
// history log before the transaction commits, so a logged merge is
// always at least as old as its effects.
func New(cfg *config.Config, op db.Operator, log history.Log) scholdb.Merger {
	return &merger{
		operator: op,
		log:      log,
		attempts: cfg.Acquire.RetryAttempts,
	}
}

func (m *merger) Merge(
	ctx context.Context, kind schema.Kind, ids []ident.HashID,
) (*scholdb.MergeOutcome, error) {
	if !kind.Valid() {
		return nil, KindError(string(kind))
	}
	if len(ids) == 0 {
		return nil, EmptyGroupError(kind)
	}

	if m.operator.Pool() == nil {
		return nil, NotConnectedError()
	}

	var outcome *scholdb.MergeOutcome
	err := iostore.WithRetry(ctx, m.attempts, func() error {
		var err error
		outcome, err = m.mergeOnce(ctx, kind, ids)
		return err
	})
	return outcome, err
}

func (m *merger) mergeOnce(
	ctx context.Context, kind schema.Kind, ids []ident.HashID,
) (*scholdb.MergeOutcome, error) {
	tx, err := m.operator.Pool().Begin(ctx)
	if err != nil {
		return nil, iostore.TxError(err)
	}
	defer tx.Rollback(ctx)

	// Locks are taken in two phases: the raw inputs first, then what
	// they resolve to, each phase in ascending id order. Two merges
	// whose phases interleave can still deadlock across phases;
	// Postgres reports 40P01 and the WithRetry wrapper around
	// mergeOnce is the recovery path.
	if err := iostore.LockIDs(ctx, tx, ids); err != nil {
		return nil, err
	}

	// Inputs may have been merged before; work on what they resolve to.
	inputs, err := resolveGroup(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	if err := iostore.LockIDs(ctx, tx, inputs); err != nil {
		return nil, err
	}

	outcome := &scholdb.MergeOutcome{Kind: kind}
	for _, id := range ids {
		outcome.Inputs = append(outcome.Inputs, id.String())
	}

	if len(inputs) < 2 {
		// The whole group already collapsed to one live row.
		outcome.NoOp = true
		if len(inputs) == 1 {
			outcome.Surviving = inputs[0].String()
		}
		return outcome, nil
	}

	rows, err := loadRows(ctx, tx, kind, inputs)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, EmptyGroupError(kind)
	}

	p := planMerge(kind, rows)
	outcome.Surviving = p.surviving.String()
	outcome.Fields = p.fields

	if err := writeSurviving(ctx, tx, kind, &p.merged); err != nil {
		return nil, err
	}

	relations := append(relationsFor(kind),
		relation{"scraper", "hashid", []string{"hashid", "scraper"}})
	for _, id := range inputs {
		if id == p.surviving {
			continue
		}
		for _, rel := range relations {
			n, err := rewriteRelation(ctx, tx, rel, id, p.surviving)
			if err != nil {
				return nil, err
			}
			outcome.Rewritten += n
		}
	}

	// Collapse chains ending at any input, then retire the inputs.
	if err := collapseChains(ctx, tx, inputs, p.surviving); err != nil {
		return nil, err
	}
	for _, id := range inputs {
		if id == p.surviving {
			continue
		}
		if err := iocanon.Redirect(ctx, tx, id, p.surviving); err != nil {
			return nil, err
		}
	}

	if m.log != nil {
		event := history.Event{
			Op:    history.OpMerge,
			At:    time.Now().UTC(),
			Merge: outcome,
		}
		if err := m.log.Append(ctx, event); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, iostore.TxError(err)
	}
	return outcome, nil
}

// resolveGroup resolves every id through the canonical index and
// deduplicates, keeping first-seen order.
func resolveGroup(
	ctx context.Context, q db.Querier, ids []ident.HashID,
) ([]ident.HashID, error) {
	seen := make(map[ident.HashID]bool, len(ids))
	out := make([]ident.HashID, 0, len(ids))
	for _, id := range ids {
		live, err := iocanon.Resolve(ctx, q, id)
		if err != nil {
			return nil, err
		}
		if seen[live] {
			continue
		}
		seen[live] = true
		out = append(out, live)
	}
	return out, nil
}

// loadRows reads the merge-relevant columns of every input row that
// exists. Ids without a row are silently dropped from the group.
func loadRows(
	ctx context.Context,
	q db.Querier,
	kind schema.Kind,
	ids []ident.HashID,
) ([]row, error) {
	var rows []row
	for _, id := range ids {
		r := row{id: id}
		var err error
		switch kind {
		case schema.KindPaper:
			err = q.QueryRow(ctx, `
				SELECT title, abstract, citation_count, quality
				FROM paper WHERE id = $1`, id.String(),
			).Scan(&r.name, &r.abstract, &r.cites, &r.quality)
		case schema.KindVenue:
			err = q.QueryRow(ctx, `
				SELECT name, type, date, date_precision, quality
				FROM venue WHERE id = $1`, id.String(),
			).Scan(&r.name, &r.venueType, &r.date, &r.precision, &r.quality)
		case schema.KindRelease:
			err = q.QueryRow(ctx, `
				SELECT venue_id, date, date_precision, quality
				FROM "release" WHERE id = $1`, id.String(),
			).Scan(&r.venueID, &r.date, &r.precision, &r.quality)
		default:
			err = q.QueryRow(ctx,
				`SELECT name, quality FROM "`+string(kind)+
					`" WHERE id = $1`, id.String(),
			).Scan(&r.name, &r.quality)
		}

		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, ApplyError(kind, id, err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// writeSurviving upserts the merged row under the surviving id.
func writeSurviving(
	ctx context.Context, q db.Querier, kind schema.Kind, r *row,
) error {
	var err error
	now := time.Now().UTC()

	switch kind {
	case schema.KindPaper:
		_, err = q.Exec(ctx, `
			INSERT INTO paper
				(id, title, abstract, citation_count, quality, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE
			SET title = EXCLUDED.title, abstract = EXCLUDED.abstract,
				citation_count = EXCLUDED.citation_count,
				quality = EXCLUDED.quality, updated_at = EXCLUDED.updated_at`,
			r.id.String(), r.name, r.abstract, r.cites, r.quality, now)
	case schema.KindVenue:
		_, err = q.Exec(ctx, `
			INSERT INTO venue
				(id, name, type, date, date_precision, quality, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, type = EXCLUDED.type,
				date = EXCLUDED.date,
				date_precision = EXCLUDED.date_precision,
				quality = EXCLUDED.quality, updated_at = EXCLUDED.updated_at`,
			r.id.String(), r.name, r.venueType, r.date, r.precision,
			r.quality, now)
	case schema.KindRelease:
		_, err = q.Exec(ctx, `
			INSERT INTO "release"
				(id, venue_id, date, date_precision, quality, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE
			SET venue_id = EXCLUDED.venue_id, date = EXCLUDED.date,
				date_precision = EXCLUDED.date_precision,
				quality = EXCLUDED.quality, updated_at = EXCLUDED.updated_at`,
			r.id.String(), r.venueID, r.date, r.precision, r.quality, now)
	default:
		_, err = q.Exec(ctx, `
			INSERT INTO "`+string(kind)+`" (id, name, quality, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, quality = EXCLUDED.quality,
				updated_at = EXCLUDED.updated_at`,
			r.id.String(), r.name, r.quality, now)
	}

	if err != nil {
		return ApplyError(kind, r.id, err)
	}
	return nil
}

// rewriteRelation repoints one relation table from old to new,
// dropping rows that would duplicate an existing (or just rewritten)
// row under the new id. Returns the number of rows repointed.
func rewriteRelation(
	ctx context.Context,
	q db.Querier,
	rel relation,
	old, new ident.HashID,
) (int64, error) {
	if rel.keyCols == nil {
		// Plain foreign key, no uniqueness to preserve.
		tag, err := q.Exec(ctx,
			`UPDATE "`+rel.table+`" SET `+rel.column+` = $1 WHERE `+
				rel.column+` = $2`,
			new.String(), old.String())
		if err != nil {
			return 0, RewriteError(rel.table, old, new, err)
		}
		return tag.RowsAffected(), nil
	}

	var conds []string
	for _, k := range rel.keyCols {
		if k == rel.column {
			conds = append(conds, "d."+k+" = $1")
		} else {
			conds = append(conds, "d."+k+" = t."+k)
		}
	}

	tag, err := q.Exec(ctx, `
		UPDATE "`+rel.table+`" t SET `+rel.column+` = $1
		WHERE t.`+rel.column+` = $2
		AND NOT EXISTS (
			SELECT 1 FROM "`+rel.table+`" d
			WHERE `+strings.Join(conds, " AND ")+`
		)`,
		new.String(), old.String())
	if err != nil {
		return 0, RewriteError(rel.table, old, new, err)
	}
	rewritten := tag.RowsAffected()

	// Leftovers are exact duplicates of rows already under the new id.
	_, err = q.Exec(ctx,
		`DELETE FROM "`+rel.table+`" WHERE `+rel.column+` = $1`,
		old.String())
	if err != nil {
		return 0, RewriteError(rel.table, old, new, err)
	}
	return rewritten, nil
}

// collapseChains repoints every index row whose canonical is one of the
// retired inputs directly at the surviving id, keeping resolution depth
// bounded regardless of merge history.
func collapseChains(
	ctx context.Context,
	q db.Querier,
	inputs []ident.HashID,
	surviving ident.HashID,
) error {
	olds := make([]string, 0, len(inputs))
	for _, id := range inputs {
		if id == surviving {
			continue
		}
		olds = append(olds, id.String())
	}
	if len(olds) == 0 {
		return nil
	}

	_, err := q.Exec(ctx,
		`UPDATE canonical_id SET canonical = $1 WHERE canonical = ANY($2)`,
		surviving.String(), olds)
	if err != nil {
		return iocanon.RedirectError(inputs[0], surviving, err)
	}
	return nil
}
