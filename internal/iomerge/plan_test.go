package iomerge

import (
	"database/sql"
	"testing"
	"time"

	"github.com/scholdb/scholdb/pkg/ident"
	"github.com/scholdb/scholdb/pkg/schema"
	"github.com/stretchr/testify/assert"
)

func paperRows() []row {
	return []row{
		{
			id:      ident.ForPaper("Attention Is All You Need", nil),
			name:    "Attention is all you need",
			cites:   500,
			quality: 1,
		},
		{
			id:       ident.ForPaper("Attention Is All You Need.", nil),
			name:     "Attention Is All You Need",
			abstract: "The dominant sequence transduction models...",
			cites:    90000,
			quality:  2,
		},
	}
}

func TestPlanMergeSurviving(t *testing.T) {
	rows := paperRows()
	p := planMerge(schema.KindPaper, rows)

	want := ident.Min([]ident.HashID{rows[0].id, rows[1].id}).Untagged()
	assert.Equal(t, want, p.surviving,
		"surviving id is the smallest input, tagged merge-assigned")
	assert.False(t, p.surviving.ContentDerived())
}

func TestPlanMergeFields(t *testing.T) {
	rows := paperRows()
	p := planMerge(schema.KindPaper, rows)

	assert.Equal(t, "Attention Is All You Need", p.merged.name,
		"higher quality title wins")
	assert.Equal(t,
		"The dominant sequence transduction models...", p.merged.abstract,
		"missing fields fill from any source")
	assert.Equal(t, 90000, p.merged.cites, "aggregates keep the max")
	assert.Equal(t, 2, p.merged.quality)

	bySrc := make(map[string]string)
	for _, f := range p.fields {
		bySrc[f.Field] = f.Source
	}
	assert.Equal(t, rows[1].id.String(), bySrc["title"])
	assert.Equal(t, rows[1].id.String(), bySrc["abstract"])
	assert.Equal(t, rows[1].id.String(), bySrc["citation_count"])
}

func TestPlanMergeDeterministic(t *testing.T) {
	rows := paperRows()
	forward := planMerge(schema.KindPaper, rows)
	reversed := planMerge(schema.KindPaper, []row{rows[1], rows[0]})

	assert.Equal(t, forward.surviving, reversed.surviving,
		"plan does not depend on input order")
	assert.Equal(t, forward.merged, reversed.merged)
}

func TestPlanMergeQualityTie(t *testing.T) {
	a := row{id: ident.ForAuthor("A. Vaswani"), name: "A. Vaswani", quality: 1}
	b := row{id: ident.ForAuthor("Ashish Vaswani"), name: "Ashish Vaswani", quality: 1}

	forward := planMerge(schema.KindAuthor, []row{a, b})
	reversed := planMerge(schema.KindAuthor, []row{b, a})
	assert.Equal(t, forward.merged.name, reversed.merged.name,
		"equal quality ties break on id, not input order")
}

func TestPlanMergeVenueDate(t *testing.T) {
	dated := row{
		id:      ident.ForVenue("NeurIPS"),
		name:    "NeurIPS",
		quality: 1,
		date: sql.NullTime{
			Time:  time.Date(2017, 12, 4, 0, 0, 0, 0, time.UTC),
			Valid: true,
		},
		precision: schema.PrecisionDay,
	}
	undated := row{
		id:        ident.ForVenue("Neural Information Processing Systems"),
		name:      "Neural Information Processing Systems",
		venueType: "conference",
		quality:   2,
	}

	p := planMerge(schema.KindVenue, []row{dated, undated})
	assert.Equal(t, "Neural Information Processing Systems", p.merged.name)
	assert.Equal(t, "conference", p.merged.venueType)
	assert.True(t, p.merged.date.Valid,
		"a null date never erases a known one")
	assert.Equal(t, schema.PrecisionDay, p.merged.precision)
}

func TestRelationsForCoverAllKinds(t *testing.T) {
	for _, kind := range schema.Kinds() {
		rels := relationsFor(kind)
		assert.NotEmpty(t, rels, string(kind))
	}
}
