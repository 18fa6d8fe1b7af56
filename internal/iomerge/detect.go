package iomerge

import (
	"context"

	"github.com/scholdb/scholdb/pkg/db"
	"github.com/scholdb/scholdb/pkg/ident"
	"github.com/scholdb/scholdb/pkg/schema"
	"github.com/scholdb/scholdb/pkg/scholdb"
)

// Detection strategies. Manual merges bypass detection: curators hand
// explicit ids to the merge engine.
const (
	StrategyByLink = "bylink"
	StrategyByName = "byname"
)

// linkTables maps kinds to their typed-identifier tables for the
// bylink strategy.
var linkTables = map[schema.Kind]relation{
	schema.KindPaper:  {table: "paper_link", column: "paper_id"},
	schema.KindAuthor: {table: "author_link", column: "author_id"},
	schema.KindVenue:  {table: "venue_link", column: "venue_id"},
}

// detector implements scholdb.Detector.
type detector struct {
	operator db.Operator
}

// NewDetector creates a duplicate detector. It only proposes groups;
// deciding to merge them is the caller's business.
func NewDetector(op db.Operator) scholdb.Detector {
	return &detector{operator: op}
}

func (d *detector) Detect(
	ctx context.Context, strategy string, kind schema.Kind,
) ([][]ident.HashID, error) {
	if !kind.Valid() {
		return nil, KindError(string(kind))
	}
	if d.operator.Pool() == nil {
		return nil, NotConnectedError()
	}

	switch strategy {
	case StrategyByLink:
		return d.detectByLink(ctx, kind)
	case StrategyByName:
		return d.detectByName(ctx, kind)
	}
	return nil, StrategyError(strategy, kind)
}

// detectByLink groups ids sharing an identical (type, url) pair. Two
// rows carrying the same DOI are the same paper no matter what their
// titles hash to.
func (d *detector) detectByLink(
	ctx context.Context, kind schema.Kind,
) ([][]ident.HashID, error) {
	lt, ok := linkTables[kind]
	if !ok {
		return nil, StrategyError(StrategyByLink, kind)
	}

	rows, err := d.operator.Pool().Query(ctx, `
		SELECT array_agg(DISTINCT `+lt.column+`)
		FROM `+lt.table+`
		GROUP BY type, url
		HAVING count(DISTINCT `+lt.column+`) > 1`)
	if err != nil {
		return nil, DetectError(StrategyByLink, kind, err)
	}
	defer rows.Close()

	var groups [][]ident.HashID
	for rows.Next() {
		var raw []string
		if err := rows.Scan(&raw); err != nil {
			return nil, DetectError(StrategyByLink, kind, err)
		}
		group, err := parseGroup(raw)
		if err != nil {
			return nil, DetectError(StrategyByLink, kind, err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, DetectError(StrategyByLink, kind, err)
	}
	return groups, nil
}

// detectByName groups ids whose squashed names are equal. Squashing
// happens on the Go side so the grouping matches the identity hash
// normalization exactly.
func (d *detector) detectByName(
	ctx context.Context, kind schema.Kind,
) ([][]ident.HashID, error) {
	var query string
	switch kind {
	case schema.KindPaper:
		query = `SELECT id, title FROM paper`
	case schema.KindRelease:
		return nil, StrategyError(StrategyByName, kind)
	default:
		query = `SELECT id, name FROM "` + string(kind) + `"`
	}

	rows, err := d.operator.Pool().Query(ctx, query)
	if err != nil {
		return nil, DetectError(StrategyByName, kind, err)
	}
	defer rows.Close()

	byName := make(map[string][]ident.HashID)
	for rows.Next() {
		var rawID, name string
		if err := rows.Scan(&rawID, &name); err != nil {
			return nil, DetectError(StrategyByName, kind, err)
		}
		id, err := ident.Parse(rawID)
		if err != nil {
			return nil, DetectError(StrategyByName, kind, err)
		}
		key := ident.Squash(name)
		if key == "" {
			continue
		}
		byName[key] = append(byName[key], id)
	}
	if err := rows.Err(); err != nil {
		return nil, DetectError(StrategyByName, kind, err)
	}

	var groups [][]ident.HashID
	for _, group := range byName {
		if len(group) > 1 {
			groups = append(groups, group)
		}
	}
	return groups, nil
}

func parseGroup(raw []string) ([]ident.HashID, error) {
	group := make([]ident.HashID, 0, len(raw))
	for _, s := range raw {
		id, err := ident.Parse(s)
		if err != nil {
			return nil, err
		}
		group = append(group, id)
	}
	return group, nil
}
