package ioconnect

import (
	"context"
	"database/sql"
	"strings"

	"github.com/scholdb/scholdb/pkg/connector"

	_ "modernc.org/sqlite"
)

// sqliteConnector reads candidates from a local SQLite paper dump. The
// expected dump schema is one denormalized "paper" table:
//
//	paper(title, abstract, citation_count, authors, institutions,
//	      venue, venue_type, release_date, doi, topics)
//
// where authors, institutions and topics are "|"-separated lists and
// institutions pairs with authors by position.
type sqliteConnector struct {
	src Source
}

// NewSQLite creates a connector over a local SQLite dump file.
func NewSQLite(src Source) connector.Connector {
	return &sqliteConnector{src: src}
}

func (s *sqliteConnector) Name() string { return s.src.Name }

func (s *sqliteConnector) Query(
	ctx context.Context, p connector.Params,
) connector.Stream {
	ch := make(chan connector.Item)

	go func() {
		defer close(ch)

		db, err := sql.Open("sqlite", s.src.Path)
		if err != nil {
			connector.Emit(ctx, ch,
				connector.Item{Err: FailureError(s.src.Name, err)})
			return
		}
		defer db.Close()

		query := `
			SELECT title, abstract, citation_count, authors,
				institutions, venue, venue_type, release_date, doi, topics
			FROM paper`
		args := []any{}
		if p.Search != "" {
			query += ` WHERE title LIKE '%' || ? || '%'`
			args = append(args, p.Search)
		}
		if p.Limit > 0 {
			query += ` LIMIT ?`
			args = append(args, p.Limit)
		}

		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			connector.Emit(ctx, ch,
				connector.Item{Err: FailureError(s.src.Name, err)})
			return
		}
		defer rows.Close()

		for rows.Next() {
			c, err := s.scanCandidate(rows)
			if err != nil {
				connector.Emit(ctx, ch,
					connector.Item{Err: FailureError(s.src.Name, err)})
				return
			}
			if !connector.Emit(ctx, ch, connector.Item{Candidate: c}) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			connector.Emit(ctx, ch,
				connector.Item{Err: FailureError(s.src.Name, err)})
		}
	}()

	return ch
}

func (s *sqliteConnector) scanCandidate(
	rows *sql.Rows,
) (*connector.Candidate, error) {
	var (
		title, abstract, authors, institutions   sql.NullString
		venue, venueType, releaseDate, doi, tops sql.NullString
		cites                                    sql.NullInt64
	)
	err := rows.Scan(&title, &abstract, &cites, &authors,
		&institutions, &venue, &venueType, &releaseDate, &doi, &tops)
	if err != nil {
		return nil, err
	}

	c := &connector.Candidate{
		Title:         title.String,
		Abstract:      abstract.String,
		CitationCount: int(cites.Int64),
		Quality:       s.src.Quality,
		ReleaseDate:   releaseDate.String,
	}

	insts := splitList(institutions.String)
	for i, name := range splitList(authors.String) {
		a := connector.CandidateAuthor{Name: name}
		if i < len(insts) && insts[i] != "" {
			a.Institutions = []string{insts[i]}
		}
		c.Authors = append(c.Authors, a)
	}

	if venue.String != "" {
		c.Venue = &connector.CandidateVenue{
			Name: venue.String,
			Type: venueType.String,
		}
	}
	if doi.String != "" {
		c.Links = []connector.CandidateLink{
			{Type: "doi", URL: doi.String},
		}
	}
	c.Topics = splitList(tops.String)

	return c, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
