package iostore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/scholdb/scholdb/pkg/schema"
	"github.com/stretchr/testify/assert"
)

func TestPreferString(t *testing.T) {
	tests := []struct {
		msg       string
		existing  string
		existingQ int
		incoming  string
		incomingQ int
		want      string
	}{
		{"fill null", "", 0, "Attention Is All You Need", 1,
			"Attention Is All You Need"},
		{"keep over null", "Attention Is All You Need", 1, "", 9,
			"Attention Is All You Need"},
		{"higher quality wins", "attention is all you need", 1,
			"Attention Is All You Need", 2, "Attention Is All You Need"},
		{"equal quality keeps existing", "existing", 2, "incoming", 2,
			"existing"},
		{"lower quality loses", "existing", 5, "incoming", 1, "existing"},
	}

	for _, v := range tests {
		got := preferString(v.existing, v.existingQ, v.incoming, v.incomingQ)
		assert.Equal(t, v.want, got, v.msg)
	}
}

func TestPreferTime(t *testing.T) {
	may := sql.NullTime{
		Time:  time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
		Valid: true,
	}
	june := sql.NullTime{
		Time:  time.Date(2023, 6, 17, 0, 0, 0, 0, time.UTC),
		Valid: true,
	}
	null := sql.NullTime{}

	tests := []struct {
		msg           string
		existing      sql.NullTime
		existingP     schema.DatePrecision
		existingQ     int
		incoming      sql.NullTime
		incomingP     schema.DatePrecision
		incomingQ     int
		want          sql.NullTime
		wantPrecision schema.DatePrecision
	}{
		{"fill null", null, schema.PrecisionUnknown, 0,
			june, schema.PrecisionDay, 1, june, schema.PrecisionDay},
		{"keep over null", may, schema.PrecisionMonth, 1,
			null, schema.PrecisionUnknown, 9, may, schema.PrecisionMonth},
		{"higher quality wins", may, schema.PrecisionMonth, 1,
			june, schema.PrecisionDay, 2, june, schema.PrecisionDay},
		{"equal quality keeps existing", may, schema.PrecisionMonth, 2,
			june, schema.PrecisionDay, 2, may, schema.PrecisionMonth},
	}

	for _, v := range tests {
		got, gotP := preferTime(
			v.existing, v.existingP, v.existingQ,
			v.incoming, v.incomingP, v.incomingQ,
		)
		assert.Equal(t, v.want, got, v.msg)
		assert.Equal(t, v.wantPrecision, gotP, v.msg)
	}
}

func TestMaxInt(t *testing.T) {
	assert.Equal(t, 7, maxInt(7, 3))
	assert.Equal(t, 7, maxInt(3, 7))
	assert.Equal(t, 0, maxInt(0, 0))
}

func TestWithRetryNonConflict(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), 3, func() error {
		calls++
		return assert.AnError
	})
	assert.Equal(t, assert.AnError, err, "non-conflict errors surface as is")
	assert.Equal(t, 1, calls, "non-conflict errors do not retry")
}

func TestWithRetrySuccess(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), 3, func() error {
		calls++
		return nil
	})
	assert.Nil(t, err)
	assert.Equal(t, 1, calls)
}

func TestPlanIDs(t *testing.T) {
	c := testCandidate()
	p := plan(c)

	assert.False(t, p.paperID.IsZero())
	assert.Equal(t, len(c.Authors), len(p.authorIDs))
	assert.False(t, p.venueID.IsZero())
	assert.False(t, p.releaseID.IsZero(), "venue and date produce a release")

	// Same candidate, same ids.
	again := plan(testCandidate())
	assert.Equal(t, p.paperID, again.paperID)
	assert.Equal(t, p.releaseID, again.releaseID)

	seen := make(map[string]bool)
	for _, id := range p.all {
		assert.False(t, seen[id.String()], "plan ids are distinct")
		seen[id.String()] = true
	}
}
