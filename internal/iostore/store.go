// Package iostore implements the entity store access layer: schema-bound
// CRUD keyed by content-addressed ids, with insert-or-merge-fields-only
// semantics. This is an impure I/O package over pgx.
//
// One candidate bundle (paper plus authors, venue, release, links,
// topics) is applied inside a single transaction. Concurrent upserts of
// the same id serialize on per-id advisory locks, so two connectors
// observing the same entity at the same time cannot race to create two
// divergent first rows.
package iostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/scholdb/scholdb/internal/iocanon"
	"github.com/scholdb/scholdb/pkg/config"
	"github.com/scholdb/scholdb/pkg/connector"
	"github.com/scholdb/scholdb/pkg/db"
	"github.com/scholdb/scholdb/pkg/ident"
	"github.com/scholdb/scholdb/pkg/schema"
	"github.com/scholdb/scholdb/pkg/scholdb"
)

// store implements scholdb.Store.
type store struct {
	operator db.Operator
	attempts int
}

// New creates the entity store.
func New(cfg *config.Config, op db.Operator) scholdb.Store {
	return &store{
		operator: op,
		attempts: cfg.Acquire.RetryAttempts,
	}
}

// ingestPlan carries the ids derived from a candidate before any write.
type ingestPlan struct {
	paperID   ident.HashID
	authorIDs []ident.HashID          // position order
	instIDs   map[string]ident.HashID // institution name -> id
	topicIDs  map[string]ident.HashID // topic name -> id
	venueID   ident.HashID
	releaseID ident.HashID
	all       []ident.HashID
}

// plan computes every content-addressed id of the bundle up front, so
// the transaction can take all its locks before the first write.
func plan(c *connector.Candidate) *ingestPlan {
	p := &ingestPlan{
		paperID:  ident.ForPaper(c.Title, c.AuthorNames()),
		instIDs:  make(map[string]ident.HashID),
		topicIDs: make(map[string]ident.HashID),
	}
	p.all = append(p.all, p.paperID)

	for _, a := range c.Authors {
		id := ident.ForAuthor(a.Name)
		p.authorIDs = append(p.authorIDs, id)
		p.all = append(p.all, id)
		for _, inst := range a.Institutions {
			if _, ok := p.instIDs[inst]; !ok {
				id := ident.ForInstitution(inst)
				p.instIDs[inst] = id
				p.all = append(p.all, id)
			}
		}
	}

	for _, t := range c.Topics {
		if _, ok := p.topicIDs[t]; !ok {
			id := ident.ForTopic(t)
			p.topicIDs[t] = id
			p.all = append(p.all, id)
		}
	}

	if c.Venue != nil {
		p.venueID = ident.ForVenue(c.Venue.Name)
		p.all = append(p.all, p.venueID)
		if c.ReleaseDate != "" {
			p.releaseID = ident.ForRelease(p.venueID, c.ReleaseDate)
			p.all = append(p.all, p.releaseID)
		}
	}

	return p
}

// Ingest upserts one candidate bundle atomically, retrying transaction
// conflicts with bounded backoff.
func (s *store) Ingest(
	ctx context.Context, c *connector.Candidate,
) (*scholdb.IngestStats, error) {
	if s.operator.Pool() == nil {
		return nil, NotConnectedError()
	}

	var stats *scholdb.IngestStats
	err := WithRetry(ctx, s.attempts, func() error {
		var err error
		stats, err = s.ingestOnce(ctx, c)
		return err
	})
	return stats, err
}

func (s *store) ingestOnce(
	ctx context.Context, c *connector.Candidate,
) (*scholdb.IngestStats, error) {
	p := plan(c)

	tx, err := s.operator.Pool().Begin(ctx)
	if err != nil {
		return nil, TxError(err)
	}
	defer tx.Rollback(ctx)

	if err := LockIDs(ctx, tx, p.all); err != nil {
		return nil, err
	}

	stats := &scholdb.IngestStats{}
	now := time.Now().UTC()

	if err := upsertPaper(ctx, tx, c, p.paperID, stats); err != nil {
		return nil, err
	}
	if err := s.ingestAuthors(ctx, tx, c, p, stats); err != nil {
		return nil, err
	}
	if err := s.ingestVenueRelease(ctx, tx, c, p, stats); err != nil {
		return nil, err
	}
	if err := s.ingestTopics(ctx, tx, c, p, stats); err != nil {
		return nil, err
	}
	for _, l := range c.Links {
		if err := insertRelation(ctx, tx, `
			INSERT INTO paper_link (paper_id, type, url)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`,
			p.paperID.String(), l.Type, l.URL); err != nil {
			return nil, err
		}
	}

	if err := iocanon.EnsureKnown(ctx, tx, p.all...); err != nil {
		return nil, err
	}
	if err := touchScraper(ctx, tx, c.Scraper, p.all, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, TxError(err)
	}
	return stats, nil
}

func (s *store) ingestAuthors(
	ctx context.Context,
	q db.Querier,
	c *connector.Candidate,
	p *ingestPlan,
	stats *scholdb.IngestStats,
) error {
	for i, a := range c.Authors {
		authorID := p.authorIDs[i]
		err := upsertNamed(ctx, q, "author", authorID, a.Name,
			c.Quality, stats)
		if err != nil {
			return err
		}

		err = insertRelation(ctx, q, `
			INSERT INTO paper_author (paper_id, author_id, author_position)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`,
			p.paperID.String(), authorID.String(), i+1)
		if err != nil {
			return err
		}

		for _, alias := range a.Aliases {
			err = insertRelation(ctx, q, `
				INSERT INTO author_alias (author_id, alias)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING`,
				authorID.String(), alias)
			if err != nil {
				return err
			}
		}

		for _, l := range a.Links {
			err = insertRelation(ctx, q, `
				INSERT INTO author_link (author_id, type, url)
				VALUES ($1, $2, $3)
				ON CONFLICT DO NOTHING`,
				authorID.String(), l.Type, l.URL)
			if err != nil {
				return err
			}
		}

		for _, inst := range a.Institutions {
			instID := p.instIDs[inst]
			err = upsertNamed(ctx, q, "institution", instID, inst,
				c.Quality, stats)
			if err != nil {
				return err
			}
			err = insertRelation(ctx, q, `
				INSERT INTO author_institution (author_id, institution_id)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING`,
				authorID.String(), instID.String())
			if err != nil {
				return err
			}
			err = insertRelation(ctx, q, `
				INSERT INTO paper_author_institution
					(paper_id, author_id, institution_id)
				VALUES ($1, $2, $3)
				ON CONFLICT DO NOTHING`,
				p.paperID.String(), authorID.String(), instID.String())
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *store) ingestVenueRelease(
	ctx context.Context,
	q db.Querier,
	c *connector.Candidate,
	p *ingestPlan,
	stats *scholdb.IngestStats,
) error {
	if c.Venue == nil {
		return nil
	}

	if err := upsertVenue(ctx, q, c, p.venueID, stats); err != nil {
		return err
	}

	if p.releaseID.IsZero() {
		return nil
	}
	if err := upsertRelease(ctx, q, c, p, stats); err != nil {
		return err
	}
	return insertRelation(ctx, q, `
		INSERT INTO paper_release (paper_id, release_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		p.paperID.String(), p.releaseID.String())
}

func (s *store) ingestTopics(
	ctx context.Context,
	q db.Querier,
	c *connector.Candidate,
	p *ingestPlan,
	stats *scholdb.IngestStats,
) error {
	for _, t := range c.Topics {
		topicID := p.topicIDs[t]
		err := upsertNamed(ctx, q, "topic", topicID, t, c.Quality, stats)
		if err != nil {
			return err
		}
		err = insertRelation(ctx, q, `
			INSERT INTO paper_topic (paper_id, topic_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			p.paperID.String(), topicID.String())
		if err != nil {
			return err
		}
	}
	return nil
}

// upsertPaper applies the field-level merge rule to the paper row.
func upsertPaper(
	ctx context.Context,
	q db.Querier,
	c *connector.Candidate,
	id ident.HashID,
	stats *scholdb.IngestStats,
) error {
	var (
		exTitle, exAbstract string
		exCites, exQuality  int
	)
	err := q.QueryRow(ctx, `
		SELECT title, abstract, citation_count, quality
		FROM paper WHERE id = $1`,
		id.String(),
	).Scan(&exTitle, &exAbstract, &exCites, &exQuality)

	if errors.Is(err, pgx.ErrNoRows) {
		_, err = q.Exec(ctx, `
			INSERT INTO paper
				(id, title, abstract, citation_count, quality, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id.String(), c.Title, c.Abstract, c.CitationCount,
			c.Quality, time.Now().UTC())
		if err != nil {
			return UpsertError("paper", id, err)
		}
		stats.Created++
		return nil
	}
	if err != nil {
		return UpsertError("paper", id, err)
	}

	// Same id with materially different content points at a suspected
	// hash collision. Log loudly, prefer the higher quality source,
	// never crash.
	if exTitle != "" && c.Title != "" &&
		ident.Squash(exTitle) != ident.Squash(c.Title) {
		slog.Warn("identity collision suspected",
			"id", id.String(),
			"existing_title", exTitle,
			"incoming_title", c.Title,
			"existing_quality", exQuality,
			"incoming_quality", c.Quality,
		)
	}

	title := preferString(exTitle, exQuality, c.Title, c.Quality)
	abstract := preferString(exAbstract, exQuality, c.Abstract, c.Quality)
	cites := maxInt(exCites, c.CitationCount)
	quality := maxInt(exQuality, c.Quality)

	if title == exTitle && abstract == exAbstract &&
		cites == exCites && quality == exQuality {
		stats.Unchanged++
		return nil
	}

	_, err = q.Exec(ctx, `
		UPDATE paper
		SET title = $2, abstract = $3, citation_count = $4,
			quality = $5, updated_at = $6
		WHERE id = $1`,
		id.String(), title, abstract, cites, quality, time.Now().UTC())
	if err != nil {
		return UpsertError("paper", id, err)
	}
	stats.Updated++
	return nil
}

// upsertNamed handles the entities whose only merged fields are name
// and quality: author, institution, topic.
func upsertNamed(
	ctx context.Context,
	q db.Querier,
	table string,
	id ident.HashID,
	name string,
	quality int,
	stats *scholdb.IngestStats,
) error {
	var (
		exName    string
		exQuality int
	)
	err := q.QueryRow(ctx,
		`SELECT name, quality FROM "`+table+`" WHERE id = $1`,
		id.String(),
	).Scan(&exName, &exQuality)

	if errors.Is(err, pgx.ErrNoRows) {
		_, err = q.Exec(ctx,
			`INSERT INTO "`+table+`" (id, name, quality, updated_at)
			VALUES ($1, $2, $3, $4)`,
			id.String(), name, quality, time.Now().UTC())
		if err != nil {
			return UpsertError(table, id, err)
		}
		stats.Created++
		return nil
	}
	if err != nil {
		return UpsertError(table, id, err)
	}

	merged := preferString(exName, exQuality, name, quality)
	mergedQ := maxInt(exQuality, quality)
	if merged == exName && mergedQ == exQuality {
		stats.Unchanged++
		return nil
	}

	_, err = q.Exec(ctx,
		`UPDATE "`+table+`" SET name = $2, quality = $3, updated_at = $4
		WHERE id = $1`,
		id.String(), merged, mergedQ, time.Now().UTC())
	if err != nil {
		return UpsertError(table, id, err)
	}
	stats.Updated++
	return nil
}

func upsertVenue(
	ctx context.Context,
	q db.Querier,
	c *connector.Candidate,
	id ident.HashID,
	stats *scholdb.IngestStats,
) error {
	inDate, inPrecision := schema.ParseDate(c.Venue.Date)

	var ex schema.Venue
	err := q.QueryRow(ctx, `
		SELECT name, type, date, date_precision, quality
		FROM venue WHERE id = $1`,
		id.String(),
	).Scan(&ex.Name, &ex.Type, &ex.Date, &ex.DatePrecision, &ex.Quality)

	if errors.Is(err, pgx.ErrNoRows) {
		_, err = q.Exec(ctx, `
			INSERT INTO venue
				(id, name, type, date, date_precision, quality, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id.String(), c.Venue.Name, c.Venue.Type,
			inDate, inPrecision, c.Quality, time.Now().UTC())
		if err != nil {
			return UpsertError("venue", id, err)
		}
		stats.Created++
		return nil
	}
	if err != nil {
		return UpsertError("venue", id, err)
	}

	name := preferString(ex.Name, ex.Quality, c.Venue.Name, c.Quality)
	vtype := preferString(ex.Type, ex.Quality, c.Venue.Type, c.Quality)
	date, precision := preferTime(
		ex.Date, ex.DatePrecision, ex.Quality,
		inDate, inPrecision, c.Quality)
	quality := maxInt(ex.Quality, c.Quality)

	if name == ex.Name && vtype == ex.Type && date == ex.Date &&
		precision == ex.DatePrecision && quality == ex.Quality {
		stats.Unchanged++
		return nil
	}

	_, err = q.Exec(ctx, `
		UPDATE venue
		SET name = $2, type = $3, date = $4, date_precision = $5,
			quality = $6, updated_at = $7
		WHERE id = $1`,
		id.String(), name, vtype, date, precision, quality,
		time.Now().UTC())
	if err != nil {
		return UpsertError("venue", id, err)
	}
	stats.Updated++
	return nil
}

func upsertRelease(
	ctx context.Context,
	q db.Querier,
	c *connector.Candidate,
	p *ingestPlan,
	stats *scholdb.IngestStats,
) error {
	inDate, inPrecision := schema.ParseDate(c.ReleaseDate)

	var ex schema.Release
	err := q.QueryRow(ctx, `
		SELECT date, date_precision, quality
		FROM "release" WHERE id = $1`,
		p.releaseID.String(),
	).Scan(&ex.Date, &ex.DatePrecision, &ex.Quality)

	if errors.Is(err, pgx.ErrNoRows) {
		_, err = q.Exec(ctx, `
			INSERT INTO "release"
				(id, venue_id, date, date_precision, quality, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			p.releaseID.String(), p.venueID.String(),
			inDate, inPrecision, c.Quality, time.Now().UTC())
		if err != nil {
			return UpsertError("release", p.releaseID, err)
		}
		stats.Created++
		return nil
	}
	if err != nil {
		return UpsertError("release", p.releaseID, err)
	}

	date, precision := preferTime(
		ex.Date, ex.DatePrecision, ex.Quality,
		inDate, inPrecision, c.Quality)
	quality := maxInt(ex.Quality, c.Quality)

	if date == ex.Date && precision == ex.DatePrecision &&
		quality == ex.Quality {
		stats.Unchanged++
		return nil
	}

	_, err = q.Exec(ctx, `
		UPDATE "release"
		SET date = $2, date_precision = $3, quality = $4, updated_at = $5
		WHERE id = $1`,
		p.releaseID.String(), date, precision, quality, time.Now().UTC())
	if err != nil {
		return UpsertError("release", p.releaseID, err)
	}
	stats.Updated++
	return nil
}

func insertRelation(
	ctx context.Context, q db.Querier, sql string, args ...any,
) error {
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return LinkError(err)
	}
	return nil
}

// touchScraper records which scraper last saw each entity. The last
// date wins.
func touchScraper(
	ctx context.Context,
	q db.Querier,
	scraper string,
	ids []ident.HashID,
	at time.Time,
) error {
	if scraper == "" {
		return nil
	}
	for _, id := range ids {
		_, err := q.Exec(ctx, `
			INSERT INTO scraper (hashid, scraper, last_seen)
			VALUES ($1, $2, $3)
			ON CONFLICT (hashid, scraper)
			DO UPDATE SET last_seen = EXCLUDED.last_seen`,
			id.String(), scraper, at)
		if err != nil {
			return UpsertError("scraper", id, err)
		}
	}
	return nil
}

// GetPaper fetches a paper, resolving the id through the canonical
// index first so callers can hold ids from before any merge.
func (s *store) GetPaper(
	ctx context.Context, id ident.HashID,
) (*schema.Paper, error) {
	pool := s.operator.Pool()
	if pool == nil {
		return nil, NotConnectedError()
	}

	canonical, err := iocanon.Resolve(ctx, pool, id)
	if err != nil {
		return nil, err
	}

	var p schema.Paper
	err = pool.QueryRow(ctx, `
		SELECT id, title, abstract, citation_count, quality, updated_at
		FROM paper WHERE id = $1`,
		canonical.String(),
	).Scan(&p.ID, &p.Title, &p.Abstract, &p.CitationCount,
		&p.Quality, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFoundError("paper", id)
	}
	if err != nil {
		return nil, UpsertError("paper", id, err)
	}
	return &p, nil
}

// Link upserts one relation row between two entities. Ingest writes
// its relations inline; Link is the curator path for attaching a
// relation after the fact.
func (s *store) Link(
	ctx context.Context,
	parent, child ident.HashID,
	kind string,
	attrs map[string]string,
) error {
	var sql string
	args := []any{}
	switch kind {
	case "paper_author":
		position, err := strconv.Atoi(attrs["position"])
		if err != nil {
			return LinkKindError(kind,
				fmt.Errorf("position %q: %w", attrs["position"], err))
		}
		sql = `
			INSERT INTO paper_author (paper_id, author_id, author_position)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`
		args = append(args, position)
	case "paper_topic":
		sql = `
			INSERT INTO paper_topic (paper_id, topic_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`
	case "paper_release":
		sql = `
			INSERT INTO paper_release (paper_id, release_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`
	case "author_institution":
		sql = `
			INSERT INTO author_institution (author_id, institution_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`
	default:
		return LinkKindError(kind, fmt.Errorf("unsupported relation"))
	}

	pool := s.operator.Pool()
	if pool == nil {
		return NotConnectedError()
	}

	parentLive, err := iocanon.Resolve(ctx, pool, parent)
	if err != nil {
		return err
	}
	childLive, err := iocanon.Resolve(ctx, pool, child)
	if err != nil {
		return err
	}

	args = append(
		[]any{parentLive.String(), childLive.String()}, args...)
	return insertRelation(ctx, pool, sql, args...)
}

// Flag attaches or removes a curation flag on a paper. Flags are set by
// human curation, never by scrapers.
func (s *store) Flag(
	ctx context.Context, paperID ident.HashID, flag string, on bool,
) error {
	pool := s.operator.Pool()
	if pool == nil {
		return NotConnectedError()
	}

	canonical, err := iocanon.Resolve(ctx, pool, paperID)
	if err != nil {
		return err
	}

	if on {
		_, err = pool.Exec(ctx, `
			INSERT INTO paper_flag (paper_id, flag)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			canonical.String(), flag)
	} else {
		_, err = pool.Exec(ctx,
			`DELETE FROM paper_flag WHERE paper_id = $1 AND flag = $2`,
			canonical.String(), flag)
	}
	if err != nil {
		return LinkError(err)
	}
	return nil
}
