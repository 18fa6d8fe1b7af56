package history_test

import (
	"sort"
	"testing"
	"time"

	"github.com/scholdb/scholdb/pkg/history"
	"github.com/stretchr/testify/assert"
)

func TestFilenameOrdering(t *testing.T) {
	// Lexicographic filename order must equal chronological order,
	// including sub-second distances.
	times := []time.Time{
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 1, 0, 0, 0, 5000, time.UTC),
		time.Date(2023, 1, 1, 0, 0, 1, 0, time.UTC),
		time.Date(2023, 6, 30, 23, 59, 59, 999999999, time.UTC),
		time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
	}

	names := make([]string, len(times))
	for i, at := range times {
		names[i] = history.Filename(at, history.OpIngest)
	}

	sorted := append([]string{}, names...)
	sort.Strings(sorted)
	assert.Equal(t, names, sorted)
}

func TestFilenameOp(t *testing.T) {
	at := time.Date(2023, 1, 1, 10, 30, 0, 0, time.UTC)
	assert.Equal(t,
		"2023-01-01T10-30-00.000000000Z-merge.jsonl",
		history.Filename(at, history.OpMerge))
}

func TestAfter(t *testing.T) {
	name := "2023-05-17T10-30-00.000000000Z-ingest.jsonl"

	tests := []struct {
		msg    string
		prefix string
		want   bool
	}{
		{"empty prefix selects everything", "", true},
		{"earlier date prefix", "2023-01-01", true},
		{"later date prefix", "2024-01-01", false},
		{"same-day prefix sorts before the full name", "2023-05-17", true},
		{"prefix need not be a valid date", "2023-13-99", false},
	}

	for _, v := range tests {
		assert.Equal(t, v.want, history.After(name, v.prefix), v.msg)
	}
}
