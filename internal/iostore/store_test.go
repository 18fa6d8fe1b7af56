package iostore

import (
	"context"
	"testing"

	"github.com/scholdb/scholdb/internal/iocanon"
	"github.com/scholdb/scholdb/internal/iodb"
	"github.com/scholdb/scholdb/internal/ioschema"
	"github.com/scholdb/scholdb/internal/iotesting"
	"github.com/scholdb/scholdb/pkg/connector"
	"github.com/scholdb/scholdb/pkg/db"
	"github.com/scholdb/scholdb/pkg/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCandidate returns a full candidate bundle: paper, two authors
// with affiliations, venue, release date, links and topics.
func testCandidate() *connector.Candidate {
	return &connector.Candidate{
		Scraper:       "openalex",
		Title:         "Attention Is All You Need",
		Abstract:      "The dominant sequence transduction models...",
		CitationCount: 90000,
		Quality:       2,
		Authors: []connector.CandidateAuthor{
			{
				Name:         "Ashish Vaswani",
				Institutions: []string{"Google Brain"},
				Links: []connector.CandidateLink{
					{Type: "orcid", URL: "0000-0001-0000-0001"},
				},
			},
			{
				Name:         "Noam Shazeer",
				Aliases:      []string{"N. Shazeer"},
				Institutions: []string{"Google Brain"},
			},
		},
		Venue: &connector.CandidateVenue{
			Name: "NeurIPS",
			Type: "conference",
			Date: "2017-12",
		},
		ReleaseDate: "2017-12-04",
		Links: []connector.CandidateLink{
			{Type: "doi", URL: "10.48550/arXiv.1706.03762"},
		},
		Topics: []string{"machine learning", "neural networks"},
	}
}

// setupStoreTest connects to the test database and recreates the schema.
func setupStoreTest(t *testing.T) (db.Operator, *store) {
	t.Helper()

	ctx := context.Background()
	cfg := iotesting.GetTestConfig()

	op := iodb.NewPgxOperator()
	err := op.Connect(ctx, &cfg.Database)
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(func() { op.Close() })

	err = op.DropAllTables(ctx)
	require.NoError(t, err)

	sm := ioschema.NewManager(op)
	err = sm.Create(ctx)
	require.NoError(t, err, "Schema creation should succeed")

	return op, New(cfg, op).(*store)
}

func TestIngest_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	op, s := setupStoreTest(t)

	c := testCandidate()
	stats, err := s.Ingest(ctx, c)
	require.NoError(t, err)

	// paper + 2 authors + institution + venue + release + 2 topics
	assert.Equal(t, 8, stats.Created, "first sighting creates all entities")
	assert.Equal(t, 0, stats.Updated)

	paperID := ident.ForPaper(c.Title, c.AuthorNames())
	paper, err := s.GetPaper(ctx, paperID)
	require.NoError(t, err)
	assert.Equal(t, c.Title, paper.Title)
	assert.Equal(t, c.CitationCount, paper.CitationCount)

	pool := op.Pool()
	var authorCount int
	err = pool.QueryRow(ctx,
		`SELECT count(*) FROM paper_author WHERE paper_id = $1`,
		paperID.String()).Scan(&authorCount)
	require.NoError(t, err)
	assert.Equal(t, 2, authorCount)

	var position int
	err = pool.QueryRow(ctx, `
		SELECT author_position FROM paper_author
		WHERE paper_id = $1 AND author_id = $2`,
		paperID.String(),
		ident.ForAuthor("Ashish Vaswani").String()).Scan(&position)
	require.NoError(t, err)
	assert.Equal(t, 1, position, "author positions are 1-based")
}

func TestIngestIdempotent_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	_, s := setupStoreTest(t)

	_, err := s.Ingest(ctx, testCandidate())
	require.NoError(t, err)

	stats, err := s.Ingest(ctx, testCandidate())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Created, "re-ingestion creates nothing")
	assert.Equal(t, 0, stats.Updated, "identical values change nothing")
	assert.Equal(t, 8, stats.Unchanged)
}

func TestIngestFieldMerge_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	_, s := setupStoreTest(t)

	first := testCandidate()
	first.Abstract = ""
	first.CitationCount = 100
	_, err := s.Ingest(ctx, first)
	require.NoError(t, err)

	// Lower quality source fills the missing abstract but cannot
	// overwrite the title; the citation count keeps the max.
	second := testCandidate()
	second.Quality = 1
	second.Title = "attention is all you need"
	second.Abstract = "Filled in later."
	second.CitationCount = 50
	_, err = s.Ingest(ctx, second)
	require.NoError(t, err)

	paperID := ident.ForPaper(first.Title, first.AuthorNames())
	paper, err := s.GetPaper(ctx, paperID)
	require.NoError(t, err)
	assert.Equal(t, first.Title, paper.Title,
		"lower quality cannot overwrite")
	assert.Equal(t, "Filled in later.", paper.Abstract, "null fields fill")
	assert.Equal(t, 100, paper.CitationCount, "aggregates keep the max")
}

func TestGetPaperResolves_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	op, s := setupStoreTest(t)

	c := testCandidate()
	_, err := s.Ingest(ctx, c)
	require.NoError(t, err)

	// Redirect a synthetic old id at the ingested paper; a lookup of
	// the old id must land on the live row.
	paperID := ident.ForPaper(c.Title, c.AuthorNames())
	oldID := ident.ForPaper("Attention Is All You Need v1",
		c.AuthorNames())
	err = iocanon.Redirect(ctx, op.Pool(), oldID, paperID)
	require.NoError(t, err)

	paper, err := s.GetPaper(ctx, oldID)
	require.NoError(t, err)
	assert.Equal(t, paperID.String(), paper.ID)
}

func TestGetPaperNotFound_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	_, s := setupStoreTest(t)

	_, err := s.GetPaper(ctx, ident.ForPaper("No Such Paper", nil))
	assert.NotNil(t, err)
}

func TestLink_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	op, s := setupStoreTest(t)

	c := testCandidate()
	_, err := s.Ingest(ctx, c)
	require.NoError(t, err)

	// Curators can attach relations Ingest never saw, here a topic from
	// a different paper.
	other := testCandidate()
	other.Title = "Neural Machine Translation"
	other.Topics = []string{"translation"}
	_, err = s.Ingest(ctx, other)
	require.NoError(t, err)

	paperID := ident.ForPaper(c.Title, c.AuthorNames())
	topicID := ident.ForTopic("translation")
	err = s.Link(ctx, paperID, topicID, "paper_topic", nil)
	require.NoError(t, err)

	var count int
	err = op.Pool().QueryRow(ctx, `
		SELECT count(*) FROM paper_topic
		WHERE paper_id = $1 AND topic_id = $2`,
		paperID.String(), topicID.String()).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Linking twice is a no-op.
	err = s.Link(ctx, paperID, topicID, "paper_topic", nil)
	require.NoError(t, err)

	// Positioned author links carry the position attribute.
	authorID := ident.ForAuthor("Yonghui Wu")
	_, err = op.Pool().Exec(ctx, `
		INSERT INTO author (id, name, quality, updated_at)
		VALUES ($1, $2, $3, now())`,
		authorID.String(), "Yonghui Wu", 1)
	require.NoError(t, err)

	err = s.Link(ctx, paperID, authorID, "paper_author",
		map[string]string{"position": "3"})
	require.NoError(t, err)

	var position int
	err = op.Pool().QueryRow(ctx, `
		SELECT author_position FROM paper_author
		WHERE paper_id = $1 AND author_id = $2`,
		paperID.String(), authorID.String()).Scan(&position)
	require.NoError(t, err)
	assert.Equal(t, 3, position)
}

func TestLinkBadKind(t *testing.T) {
	s := &store{operator: iodb.NewPgxOperator()}

	err := s.Link(context.Background(),
		ident.ForPaper("A", nil), ident.ForTopic("b"), "paper_citation", nil)
	assert.NotNil(t, err, "unsupported relation kinds are rejected")

	err = s.Link(context.Background(),
		ident.ForPaper("A", nil), ident.ForAuthor("b"), "paper_author",
		map[string]string{"position": "third"})
	assert.NotNil(t, err, "a non-numeric position is rejected")
}

func TestFlag_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	op, s := setupStoreTest(t)

	c := testCandidate()
	_, err := s.Ingest(ctx, c)
	require.NoError(t, err)

	paperID := ident.ForPaper(c.Title, c.AuthorNames())
	err = s.Flag(ctx, paperID, "valid", true)
	require.NoError(t, err)

	var count int
	err = op.Pool().QueryRow(ctx,
		`SELECT count(*) FROM paper_flag WHERE paper_id = $1`,
		paperID.String()).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = s.Flag(ctx, paperID, "valid", false)
	require.NoError(t, err)

	err = op.Pool().QueryRow(ctx,
		`SELECT count(*) FROM paper_flag WHERE paper_id = $1`,
		paperID.String()).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
