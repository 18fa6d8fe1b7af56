package ident

import (
	"sort"
	"strings"

	"github.com/gnames/gnuuid"
)

// Separators for the canonical serialization. Unit and record separators
// cannot survive Squash, so field boundaries are unambiguous.
const (
	kindSep  = "\x1f"
	fieldSep = "\x1e"
)

// identify hashes the canonical serialization of identity-relevant fields
// into a content-derived HashID. Missing fields serialize as empty
// strings, so identification always succeeds.
func identify(kind string, fields ...string) HashID {
	payload := kind + kindSep + strings.Join(fields, fieldSep)
	return FromUUID(gnuuid.New(payload)).Tagged()
}

// ForPaper derives the identifier of a paper from its squashed title and
// squashed author names. The author list is sorted before hashing so that
// sources reporting authors in different order still agree on the id.
// Abstract, citation counts and quality never participate.
func ForPaper(title string, authors []string) HashID {
	squashed := SquashAll(authors)
	sort.Strings(squashed)
	fields := append([]string{Squash(title)}, squashed...)
	return identify("paper", fields...)
}

// ForAuthor derives the identifier of an author from the squashed name.
func ForAuthor(name string) HashID {
	return identify("author", Squash(name))
}

// ForVenue derives the identifier of a venue from the squashed name.
func ForVenue(name string) HashID {
	return identify("venue", Squash(name))
}

// ForInstitution derives the identifier of an institution from the
// squashed name.
func ForInstitution(name string) HashID {
	return identify("institution", Squash(name))
}

// ForTopic derives the identifier of a topic from the squashed name.
func ForTopic(name string) HashID {
	return identify("topic", Squash(name))
}

// ForRelease derives the identifier of a release from the venue id and
// the release date text. A release is a paper's publication event at a
// venue, so the venue identity anchors it.
func ForRelease(venueID HashID, date string) HashID {
	return identify("release", venueID.String(), Squash(date))
}
