package iomerge

import (
	"database/sql"
	"sort"

	"github.com/scholdb/scholdb/pkg/ident"
	"github.com/scholdb/scholdb/pkg/schema"
	"github.com/scholdb/scholdb/pkg/scholdb"
)

// row carries the merge-relevant columns of one entity row. Only the
// fields of the row's kind are populated.
type row struct {
	id        ident.HashID
	name      string // title for papers
	abstract  string
	venueType string
	venueID   string
	cites     int
	quality   int
	date      sql.NullTime
	precision schema.DatePrecision
}

// mergePlan is the pure outcome of planning one consolidation: the
// surviving id, the merged field values and the provenance of each.
type mergePlan struct {
	surviving ident.HashID
	merged    row
	fields    []scholdb.FieldDecision
}

// planMerge computes the surviving id and field values for a group of
// rows of one kind. It is deterministic: the same group in any order
// produces the same plan.
//
// The surviving id is the smallest candidate id with the mutability tag
// cleared, marking it merge-assigned. Field values follow the ingestion
// precedence: highest quality wins, null never overwrites.
func planMerge(kind schema.Kind, rows []row) *mergePlan {
	ids := make([]ident.HashID, len(rows))
	for i, r := range rows {
		ids[i] = r.id
	}

	// Quality desc, id asc on ties. The id tie-break keeps the plan
	// stable across input orderings.
	ordered := make([]row, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].quality != ordered[j].quality {
			return ordered[i].quality > ordered[j].quality
		}
		return ordered[i].id.Less(ordered[j].id)
	})

	p := &mergePlan{surviving: ident.Min(ids).Untagged()}
	p.merged.id = p.surviving

	switch kind {
	case schema.KindPaper:
		p.merged.name = p.pickString("title", ordered,
			func(r row) string { return r.name })
		p.merged.abstract = p.pickString("abstract", ordered,
			func(r row) string { return r.abstract })
		p.merged.cites = p.pickMax("citation_count", ordered,
			func(r row) int { return r.cites })
	case schema.KindVenue:
		p.merged.name = p.pickString("name", ordered,
			func(r row) string { return r.name })
		p.merged.venueType = p.pickString("type", ordered,
			func(r row) string { return r.venueType })
		p.merged.date, p.merged.precision = p.pickDate(ordered)
	case schema.KindRelease:
		p.merged.venueID = p.pickString("venue_id", ordered,
			func(r row) string { return r.venueID })
		p.merged.date, p.merged.precision = p.pickDate(ordered)
	default:
		// author, institution, topic
		p.merged.name = p.pickString("name", ordered,
			func(r row) string { return r.name })
	}
	p.merged.quality = p.pickMax("quality", ordered,
		func(r row) int { return r.quality })

	return p
}

// pickString takes the first non-empty value in precedence order and
// records which row supplied it.
func (p *mergePlan) pickString(
	field string, ordered []row, get func(row) string,
) string {
	for _, r := range ordered {
		if v := get(r); v != "" {
			p.fields = append(p.fields, scholdb.FieldDecision{
				Field:  field,
				Source: r.id.String(),
			})
			return v
		}
	}
	return ""
}

// pickMax takes the maximum value and records the first row holding it.
func (p *mergePlan) pickMax(
	field string, ordered []row, get func(row) int,
) int {
	max := 0
	var src ident.HashID
	for _, r := range ordered {
		if v := get(r); v > max {
			max = v
			src = r.id
		}
	}
	if max > 0 {
		p.fields = append(p.fields, scholdb.FieldDecision{
			Field:  field,
			Source: src.String(),
		})
	}
	return max
}

// pickDate takes the first valid date in precedence order, carrying its
// precision.
func (p *mergePlan) pickDate(
	ordered []row,
) (sql.NullTime, schema.DatePrecision) {
	for _, r := range ordered {
		if r.date.Valid {
			p.fields = append(p.fields, scholdb.FieldDecision{
				Field:  "date",
				Source: r.id.String(),
			})
			return r.date, r.precision
		}
	}
	return sql.NullTime{}, schema.PrecisionUnknown
}

// relation describes one table holding foreign keys into an entity
// table. keyCols lists the primary key columns used for duplicate
// elimination during rewrites.
type relation struct {
	table   string
	column  string
	keyCols []string
}

// relationsFor maps an entity kind to every table referencing it.
func relationsFor(kind schema.Kind) []relation {
	switch kind {
	case schema.KindPaper:
		return []relation{
			{"paper_link", "paper_id", []string{"paper_id", "type", "url"}},
			{"paper_flag", "paper_id", []string{"paper_id", "flag"}},
			{"paper_author", "paper_id",
				[]string{"paper_id", "author_id"}},
			{"paper_author_institution", "paper_id",
				[]string{"paper_id", "author_id", "institution_id"}},
			{"paper_release", "paper_id",
				[]string{"paper_id", "release_id"}},
			{"paper_topic", "paper_id", []string{"paper_id", "topic_id"}},
		}
	case schema.KindAuthor:
		return []relation{
			{"author_link", "author_id",
				[]string{"author_id", "type", "url"}},
			{"author_alias", "author_id", []string{"author_id", "alias"}},
			{"author_institution", "author_id",
				[]string{"author_id", "institution_id"}},
			{"paper_author", "author_id",
				[]string{"paper_id", "author_id"}},
			{"paper_author_institution", "author_id",
				[]string{"paper_id", "author_id", "institution_id"}},
		}
	case schema.KindVenue:
		return []relation{
			{"venue_link", "venue_id", []string{"venue_id", "type", "url"}},
			{"venue_alias", "venue_id", []string{"venue_id", "alias"}},
			{"release", "venue_id", nil},
		}
	case schema.KindInstitution:
		return []relation{
			{"institution_alias", "institution_id",
				[]string{"institution_id", "alias"}},
			{"author_institution", "institution_id",
				[]string{"author_id", "institution_id"}},
			{"paper_author_institution", "institution_id",
				[]string{"paper_id", "author_id", "institution_id"}},
		}
	case schema.KindTopic:
		return []relation{
			{"paper_topic", "topic_id", []string{"paper_id", "topic_id"}},
		}
	case schema.KindRelease:
		return []relation{
			{"paper_release", "release_id",
				[]string{"paper_id", "release_id"}},
		}
	}
	return nil
}
