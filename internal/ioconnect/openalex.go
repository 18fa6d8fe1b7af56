package ioconnect

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/gnames/gnfmt"
	"github.com/scholdb/scholdb/pkg/connector"
	"golang.org/x/time/rate"
)

const (
	openAlexBaseURL = "https://api.openalex.org"

	// openAlexPageSize is the per-request page size; 200 is the API max.
	openAlexPageSize = 200

	// openAlexRateLimit stays under the polite-pool 10 req/s ceiling.
	openAlexRateLimit = 5.0
)

// openAlexConnector queries the OpenAlex works API with cursor
// pagination and client-side rate limiting. Full harvests persist
// their cursor so an interrupted batch resumes where it stopped.
type openAlexConnector struct {
	src     Source
	base    string
	client  *http.Client
	limiter *rate.Limiter
	cursors CursorStore
}

// NewOpenAlex creates a connector for the OpenAlex HTTP API.
func NewOpenAlex(src Source, cursors CursorStore) connector.Connector {
	base := src.URL
	if base == "" {
		base = openAlexBaseURL
	}
	limit := src.RateLimit
	if limit <= 0 {
		limit = openAlexRateLimit
	}
	return &openAlexConnector{
		src:     src,
		base:    strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(limit), 1),
		cursors: cursors,
	}
}

func (o *openAlexConnector) Name() string { return o.src.Name }

func (o *openAlexConnector) Query(
	ctx context.Context, p connector.Params,
) connector.Stream {
	ch := make(chan connector.Item)

	go func() {
		defer close(ch)

		cursor := o.loadCursor(ctx, p)
		sent := 0
		for cursor != "" {
			page, err := o.fetchWorks(ctx, p.Search, "", cursor)
			if err != nil {
				connector.Emit(ctx, ch, connector.Item{Err: err})
				return
			}

			for i := range page.Results {
				c := o.toCandidate(&page.Results[i])
				if !connector.Emit(ctx, ch,
					connector.Item{Candidate: c}) {
					return
				}
				sent++
				if p.Limit > 0 && sent >= p.Limit {
					// The next batch re-fetches this page; ingestion
					// is idempotent, so the overlap is harmless.
					o.saveCursor(ctx, p, cursor)
					return
				}
			}

			if len(page.Results) == 0 {
				break
			}
			cursor = page.Meta.NextCursor
			o.saveCursor(ctx, p, cursor)
		}

		// Exhausted: the next harvest starts from the beginning.
		o.saveCursor(ctx, p, "")
	}()

	return ch
}

// loadCursor resumes a full harvest where the previous batch stopped.
// Searches are ad hoc queries and always start from the beginning.
func (o *openAlexConnector) loadCursor(
	ctx context.Context, p connector.Params,
) string {
	if o.cursors == nil || p.Search != "" {
		return "*"
	}
	value, err := o.cursors.LoadCursor(ctx, o.src.Name)
	if err != nil {
		slog.Warn("failed to load cursor, starting fresh",
			"connector", o.src.Name, "error", err)
		return "*"
	}
	if value == "" {
		return "*"
	}
	return value
}

func (o *openAlexConnector) saveCursor(
	ctx context.Context, p connector.Params, value string,
) {
	if o.cursors == nil || p.Search != "" {
		return
	}
	if err := o.cursors.SaveCursor(ctx, o.src.Name, value); err != nil {
		slog.Warn("failed to save cursor",
			"connector", o.src.Name, "error", err)
	}
}

// Prepare enriches author queries with OpenAlex ids, ORCIDs and name
// variants so Acquire can run targeted works queries later.
func (o *openAlexConnector) Prepare(
	ctx context.Context, queries []connector.AuthorQuery,
) ([]connector.AuthorQuery, error) {
	out := make([]connector.AuthorQuery, 0, len(queries))
	for _, q := range queries {
		author, err := o.findAuthor(ctx, q.Name)
		if err != nil {
			return nil, err
		}
		if author == nil {
			out = append(out, q)
			continue
		}

		if q.IDs == nil {
			q.IDs = make(map[string]string)
		}
		q.IDs["openalex"] = author.ID
		if author.Orcid != "" {
			q.IDs["orcid"] = author.Orcid
		}
		for _, alt := range author.DisplayNameAlternatives {
			if alt != q.Name {
				q.Aliases = append(q.Aliases, alt)
			}
		}
		out = append(out, q)
	}
	return out, nil
}

// Acquire fetches the works of specific authors. Queries without an
// OpenAlex id (no prior Prepare call found one) are skipped.
func (o *openAlexConnector) Acquire(
	ctx context.Context, queries []connector.AuthorQuery,
) connector.Stream {
	ch := make(chan connector.Item)

	go func() {
		defer close(ch)

		for _, q := range queries {
			authorID, ok := q.IDs["openalex"]
			if !ok {
				continue
			}

			cursor := "*"
			for cursor != "" {
				filter := "author.id:" + authorID
				page, err := o.fetchWorks(ctx, "", filter, cursor)
				if err != nil {
					connector.Emit(ctx, ch, connector.Item{Err: err})
					return
				}
				for i := range page.Results {
					c := o.toCandidate(&page.Results[i])
					if !connector.Emit(ctx, ch,
						connector.Item{Candidate: c}) {
						return
					}
				}
				if len(page.Results) == 0 {
					break
				}
				cursor = page.Meta.NextCursor
			}
		}
	}()

	return ch
}

// openAlexPage mirrors the fields of the works API response we use.
type openAlexPage struct {
	Meta struct {
		NextCursor string `json:"next_cursor"`
	} `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	Title                 string           `json:"title"`
	DOI                   string           `json:"doi"`
	PublicationDate       string           `json:"publication_date"`
	CitedByCount          int              `json:"cited_by_count"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	Authorships           []struct {
		Author struct {
			DisplayName string `json:"display_name"`
			Orcid       string `json:"orcid"`
		} `json:"author"`
		Institutions []struct {
			DisplayName string `json:"display_name"`
		} `json:"institutions"`
	} `json:"authorships"`
	PrimaryLocation struct {
		Source struct {
			DisplayName string `json:"display_name"`
			Type        string `json:"type"`
		} `json:"source"`
	} `json:"primary_location"`
	Concepts []struct {
		DisplayName string  `json:"display_name"`
		Score       float64 `json:"score"`
	} `json:"concepts"`
}

// openAlexAuthor mirrors the fields of the authors API response we use.
type openAlexAuthor struct {
	ID                      string   `json:"id"`
	DisplayName             string   `json:"display_name"`
	DisplayNameAlternatives []string `json:"display_name_alternatives"`
	Orcid                   string   `json:"orcid"`
}

func (o *openAlexConnector) fetchWorks(
	ctx context.Context, search, filter, cursor string,
) (*openAlexPage, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	if filter != "" {
		q.Set("filter", filter)
	}
	q.Set("per-page", fmt.Sprintf("%d", openAlexPageSize))
	q.Set("cursor", cursor)

	var page openAlexPage
	if err := o.get(ctx, "/works?"+q.Encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// findAuthor returns the best author match for a name, or nil when the
// search comes back empty.
func (o *openAlexConnector) findAuthor(
	ctx context.Context, name string,
) (*openAlexAuthor, error) {
	q := url.Values{}
	q.Set("search", name)
	q.Set("per-page", "1")

	var page struct {
		Results []openAlexAuthor `json:"results"`
	}
	if err := o.get(ctx, "/authors?"+q.Encode(), &page); err != nil {
		return nil, err
	}
	if len(page.Results) == 0 {
		return nil, nil
	}
	return &page.Results[0], nil
}

func (o *openAlexConnector) get(
	ctx context.Context, path string, out any,
) error {
	if err := o.limiter.Wait(ctx); err != nil {
		return err
	}

	u := o.base + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return FailureError(o.src.Name, err)
	}
	req.Header.Set("User-Agent", "scholdb")

	resp, err := o.client.Do(req)
	if err != nil {
		return FailureError(o.src.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FailureError(o.src.Name,
			fmt.Errorf("GET %s: status %d", u, resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FailureError(o.src.Name, err)
	}

	enc := gnfmt.GNjson{}
	if err := enc.Decode(body, out); err != nil {
		return FailureError(o.src.Name, err)
	}
	return nil
}

func (o *openAlexConnector) toCandidate(
	w *openAlexWork,
) *connector.Candidate {
	c := &connector.Candidate{
		Title:         w.Title,
		Abstract:      deinvertAbstract(w.AbstractInvertedIndex),
		CitationCount: w.CitedByCount,
		Quality:       o.src.Quality,
		ReleaseDate:   w.PublicationDate,
	}

	for _, a := range w.Authorships {
		author := connector.CandidateAuthor{
			Name: a.Author.DisplayName,
		}
		if a.Author.Orcid != "" {
			author.Links = []connector.CandidateLink{
				{Type: "orcid", URL: a.Author.Orcid},
			}
		}
		for _, inst := range a.Institutions {
			if inst.DisplayName != "" {
				author.Institutions = append(
					author.Institutions, inst.DisplayName)
			}
		}
		c.Authors = append(c.Authors, author)
	}

	if name := w.PrimaryLocation.Source.DisplayName; name != "" {
		c.Venue = &connector.CandidateVenue{
			Name: name,
			Type: w.PrimaryLocation.Source.Type,
			Date: w.PublicationDate,
		}
	}
	if w.DOI != "" {
		c.Links = []connector.CandidateLink{
			{Type: "doi", URL: w.DOI},
		}
	}
	for _, concept := range w.Concepts {
		if concept.Score >= 0.5 {
			c.Topics = append(c.Topics, concept.DisplayName)
		}
	}
	return c
}

// deinvertAbstract rebuilds the abstract text from OpenAlex's inverted
// index representation (word -> positions).
func deinvertAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var words []posWord
	for word, positions := range index {
		for _, pos := range positions {
			words = append(words, posWord{pos: pos, word: word})
		}
	}
	sort.Slice(words, func(i, j int) bool {
		return words[i].pos < words[j].pos
	})

	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.word
	}
	return strings.Join(parts, " ")
}
