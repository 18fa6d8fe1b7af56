package iostore

import (
	"database/sql"

	"github.com/scholdb/scholdb/pkg/schema"
)

// Field-level merge rules for re-sightings of the same id: fill if
// null, otherwise prefer the value from the higher quality source. A
// later source omitting a field never erases it.

// preferString picks between an existing and an incoming string value.
func preferString(existing string, existingQ int, incoming string, incomingQ int) string {
	switch {
	case existing == "":
		return incoming
	case incoming == "":
		return existing
	case incomingQ > existingQ:
		return incoming
	default:
		return existing
	}
}

// preferTime picks between an existing and an incoming dated value,
// carrying the date precision along with whichever date wins.
func preferTime(
	existing sql.NullTime, existingP schema.DatePrecision, existingQ int,
	incoming sql.NullTime, incomingP schema.DatePrecision, incomingQ int,
) (sql.NullTime, schema.DatePrecision) {
	switch {
	case !existing.Valid:
		return incoming, incomingP
	case !incoming.Valid:
		return existing, existingP
	case incomingQ > existingQ:
		return incoming, incomingP
	default:
		return existing, existingP
	}
}

// maxInt keeps the larger of two numeric aggregates (citation counts,
// quality scores).
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
