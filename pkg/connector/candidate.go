package connector

// Candidate is one paper observation emitted by a connector. It carries
// plain strings; the identity layer computes content-addressed ids at
// ingestion time, so replaying the same candidate always lands on the
// same rows.
type Candidate struct {
	// Scraper is the connector name, recorded for provenance.
	Scraper string `json:"scraper"`

	Title    string `json:"title"`
	Abstract string `json:"abstract,omitempty"`

	// CitationCount is a numeric aggregate; re-sightings keep the max.
	CitationCount int `json:"citation_count,omitempty"`

	// Quality is the source-reliability score driving field precedence.
	Quality int `json:"quality,omitempty"`

	Authors []CandidateAuthor `json:"authors,omitempty"`
	Venue   *CandidateVenue   `json:"venue,omitempty"`

	// ReleaseDate is the publication date as reported by the source:
	// "2023", "2023-05" or "2023-05-17". Precision derives from the
	// given parts.
	ReleaseDate string `json:"release_date,omitempty"`

	Links  []CandidateLink `json:"links,omitempty"`
	Topics []string        `json:"topics,omitempty"`
}

// CandidateAuthor is one author observation, in paper position order.
type CandidateAuthor struct {
	Name         string          `json:"name"`
	Aliases      []string        `json:"aliases,omitempty"`
	Institutions []string        `json:"institutions,omitempty"`
	Links        []CandidateLink `json:"links,omitempty"`
}

// CandidateVenue is the venue observation attached to a candidate.
type CandidateVenue struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	Date string `json:"date,omitempty"`
}

// CandidateLink is a typed identifier, e.g. {"doi", "10.1/x"}.
type CandidateLink struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// AuthorNames lists the author names in position order. It feeds the
// paper's identity hash.
func (c *Candidate) AuthorNames() []string {
	names := make([]string, len(c.Authors))
	for i, a := range c.Authors {
		names[i] = a.Name
	}
	return names
}
