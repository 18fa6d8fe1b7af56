package schema

import (
	"database/sql"
	"time"
)

// dateLayouts maps input shapes to the precision they carry.
var dateLayouts = []struct {
	layout    string
	precision DatePrecision
}{
	{"2006-01-02", PrecisionDay},
	{"2006-01", PrecisionMonth},
	{"2006", PrecisionYear},
}

// ParseDate interprets a source-reported date string ("2023",
// "2023-05", "2023-05-17") into a timestamp plus the precision of the
// given parts. Anything unparseable yields a null time with unknown
// precision; sources report dates in too many broken shapes to make
// that an error.
func ParseDate(s string) (sql.NullTime, DatePrecision) {
	for _, l := range dateLayouts {
		if t, err := time.Parse(l.layout, s); err == nil {
			return sql.NullTime{Time: t.UTC(), Valid: true}, l.precision
		}
	}
	return sql.NullTime{}, PrecisionUnknown
}
