// Package schema provides database models for the ScholDB record store.
// All entity primary keys are 128-bit content-addressed identifiers
// (see pkg/ident) stored as fixed-width UUID columns.
package schema

import (
	"database/sql"
	"time"
)

// DatePrecision tells how much of a stored timestamp is meaningful.
type DatePrecision int16

const (
	PrecisionUnknown DatePrecision = iota
	PrecisionYear
	PrecisionMonth
	PrecisionDay
)

// String returns the lower-case name of the precision.
func (p DatePrecision) String() string {
	switch p {
	case PrecisionYear:
		return "year"
	case PrecisionMonth:
		return "month"
	case PrecisionDay:
		return "day"
	default:
		return "unknown"
	}
}

// Kind names an independently identity-managed entity kind.
type Kind string

const (
	KindPaper       Kind = "paper"
	KindAuthor      Kind = "author"
	KindVenue       Kind = "venue"
	KindInstitution Kind = "institution"
	KindTopic       Kind = "topic"
	KindRelease     Kind = "release"
)

// Kinds lists every entity kind the merge engine accepts.
func Kinds() []Kind {
	return []Kind{
		KindPaper, KindAuthor, KindVenue,
		KindInstitution, KindTopic, KindRelease,
	}
}

// Valid reports whether the kind is one of the known entity kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindPaper, KindAuthor, KindVenue,
		KindInstitution, KindTopic, KindRelease:
		return true
	}
	return false
}

// Paper is a scientific paper. Flags and links live in their own tables.
type Paper struct {
	// ID is the 128-bit content hash of the squashed title plus the
	// normalized author name list.
	ID string `gorm:"type:uuid;primaryKey"`

	Title    string `gorm:"type:text"`
	Abstract string `gorm:"type:text"`

	// CitationCount is a numeric aggregate; merges keep the maximum.
	CitationCount int `gorm:"not null;default:0"`

	// Quality is the source-reliability score used for field precedence
	// during merges.
	Quality int `gorm:"not null;default:0"`

	UpdatedAt time.Time
}

func (Paper) TableName() string { return "paper" }

// PaperLink is a typed identifier or URL attached to a paper, such as a
// DOI or an OpenReview id.
type PaperLink struct {
	PaperID string `gorm:"type:uuid;primaryKey"`
	Type    string `gorm:"primaryKey"`
	URL     string `gorm:"primaryKey"`
}

func (PaperLink) TableName() string { return "paper_link" }

// PaperFlag is a free-form curation tag (e.g. "valid", "invalid") set by
// human operators, never by scrapers.
type PaperFlag struct {
	PaperID string `gorm:"type:uuid;primaryKey"`
	Flag    string `gorm:"primaryKey"`
}

func (PaperFlag) TableName() string { return "paper_flag" }

// Author is a person who wrote at least one paper.
type Author struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Name      string `gorm:"type:text"`
	Quality   int    `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

func (Author) TableName() string { return "author" }

// AuthorLink is a typed identifier attached to an author (ORCID,
// Semantic Scholar id, ...).
type AuthorLink struct {
	AuthorID string `gorm:"type:uuid;primaryKey"`
	Type     string `gorm:"primaryKey"`
	URL      string `gorm:"primaryKey"`
}

func (AuthorLink) TableName() string { return "author_link" }

// AuthorAlias is an alternate name string for an author.
type AuthorAlias struct {
	AuthorID string `gorm:"type:uuid;primaryKey"`
	Alias    string `gorm:"primaryKey"`
}

func (AuthorAlias) TableName() string { return "author_alias" }

// AuthorInstitution is an author-level affiliation.
type AuthorInstitution struct {
	AuthorID      string `gorm:"type:uuid;primaryKey"`
	InstitutionID string `gorm:"type:uuid;primaryKey"`
}

func (AuthorInstitution) TableName() string { return "author_institution" }

// Venue is a journal, conference or repository where papers appear.
type Venue struct {
	ID            string        `gorm:"type:uuid;primaryKey"`
	Name          string        `gorm:"type:text"`
	Type          string        `gorm:"type:text"`
	Date          sql.NullTime  `gorm:"type:timestamp"`
	DatePrecision DatePrecision `gorm:"not null;default:0"`
	Quality       int           `gorm:"not null;default:0"`
	UpdatedAt     time.Time
}

func (Venue) TableName() string { return "venue" }

// VenueLink is a typed identifier attached to a venue.
type VenueLink struct {
	VenueID string `gorm:"type:uuid;primaryKey"`
	Type    string `gorm:"primaryKey"`
	URL     string `gorm:"primaryKey"`
}

func (VenueLink) TableName() string { return "venue_link" }

// VenueAlias is an alternate name string for a venue.
type VenueAlias struct {
	VenueID string `gorm:"type:uuid;primaryKey"`
	Alias   string `gorm:"primaryKey"`
}

func (VenueAlias) TableName() string { return "venue_alias" }

// Release is a paper's publication event at a venue.
type Release struct {
	ID            string        `gorm:"type:uuid;primaryKey"`
	VenueID       string        `gorm:"type:uuid"`
	Date          sql.NullTime  `gorm:"type:timestamp"`
	DatePrecision DatePrecision `gorm:"not null;default:0"`
	Quality       int           `gorm:"not null;default:0"`
	UpdatedAt     time.Time
}

func (Release) TableName() string { return "release" }

// Topic is a subject classification for papers.
type Topic struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Name      string `gorm:"type:text"`
	Quality   int    `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

func (Topic) TableName() string { return "topic" }

// Institution is a research organization authors are affiliated with.
type Institution struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Name      string `gorm:"type:text"`
	Quality   int    `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

func (Institution) TableName() string { return "institution" }

// InstitutionAlias is an alternate name string for an institution.
type InstitutionAlias struct {
	InstitutionID string `gorm:"type:uuid;primaryKey"`
	Alias         string `gorm:"primaryKey"`
}

func (InstitutionAlias) TableName() string { return "institution_alias" }

// PaperAuthor joins papers to authors, keeping the author position.
type PaperAuthor struct {
	PaperID        string `gorm:"type:uuid;primaryKey"`
	AuthorID       string `gorm:"type:uuid;primaryKey"`
	AuthorPosition int    `gorm:"not null;default:0"`
}

func (PaperAuthor) TableName() string { return "paper_author" }

// PaperAuthorInstitution records the affiliation an author declared on a
// specific paper.
type PaperAuthorInstitution struct {
	PaperID       string `gorm:"type:uuid;primaryKey"`
	AuthorID      string `gorm:"type:uuid;primaryKey"`
	InstitutionID string `gorm:"type:uuid;primaryKey"`
}

func (PaperAuthorInstitution) TableName() string { return "paper_author_institution" }

// PaperRelease joins papers to their releases.
type PaperRelease struct {
	PaperID   string `gorm:"type:uuid;primaryKey"`
	ReleaseID string `gorm:"type:uuid;primaryKey"`
}

func (PaperRelease) TableName() string { return "paper_release" }

// PaperTopic joins papers to topics.
type PaperTopic struct {
	PaperID string `gorm:"type:uuid;primaryKey"`
	TopicID string `gorm:"type:uuid;primaryKey"`
}

func (PaperTopic) TableName() string { return "paper_topic" }

// Scraper records which scraper last saw an entity and when. The last
// date wins on conflict.
type Scraper struct {
	Hashid   string    `gorm:"type:uuid;primaryKey"`
	Scraper  string    `gorm:"primaryKey"`
	LastSeen time.Time `gorm:"type:timestamp"`
}

func (Scraper) TableName() string { return "scraper" }

// CanonicalID maps a hashid to its currently-live identifier. A NULL
// canonical means the row is live (self-mapping).
type CanonicalID struct {
	Hashid    string         `gorm:"type:uuid;primaryKey"`
	Canonical sql.NullString `gorm:"type:uuid"`
}

func (CanonicalID) TableName() string { return "canonical_id" }

// ScraperData holds connector-private state as a tagged, versioned JSON
// payload. The core never interprets the payload.
type ScraperData struct {
	Scraper string    `gorm:"primaryKey"`
	Tag     string    `gorm:"primaryKey"`
	Version int       `gorm:"not null;default:1"`
	Data    string    `gorm:"type:jsonb"`
	Date    time.Time `gorm:"type:timestamp"`
}

func (ScraperData) TableName() string { return "scraper_data" }
