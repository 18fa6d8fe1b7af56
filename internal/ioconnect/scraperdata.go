package ioconnect

import (
	"context"
	"errors"
	"time"

	"github.com/gnames/gnfmt"
	"github.com/jackc/pgx/v5"
	"github.com/scholdb/scholdb/pkg/db"
)

// DataStore gives connectors a place for private state: cursors,
// watermarks, per-source bookkeeping. Payloads are opaque JSON tagged
// with a name and a version; the core never interprets them.
type DataStore struct {
	operator db.Operator
	enc      gnfmt.GNjson
}

// NewDataStore creates the connector-private state store.
func NewDataStore(op db.Operator) *DataStore {
	return &DataStore{operator: op}
}

// Save upserts one payload under (scraper, tag), stamping version and
// time.
func (d *DataStore) Save(
	ctx context.Context,
	scraper, tag string,
	version int,
	payload any,
) error {
	pool := d.operator.Pool()
	if pool == nil {
		return DataError(scraper, tag, errors.New("not connected"))
	}

	data, err := d.enc.Encode(payload)
	if err != nil {
		return DataError(scraper, tag, err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO scraper_data (scraper, tag, version, data, date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (scraper, tag) DO UPDATE
		SET version = EXCLUDED.version, data = EXCLUDED.data,
			date = EXCLUDED.date`,
		scraper, tag, version, string(data), time.Now().UTC())
	if err != nil {
		return DataError(scraper, tag, err)
	}
	return nil
}

// Load reads the payload under (scraper, tag) into out. The second
// return value is false when no payload exists.
func (d *DataStore) Load(
	ctx context.Context, scraper, tag string, out any,
) (int, bool, error) {
	pool := d.operator.Pool()
	if pool == nil {
		return 0, false, DataError(scraper, tag,
			errors.New("not connected"))
	}

	var (
		version int
		data    string
	)
	err := pool.QueryRow(ctx, `
		SELECT version, data FROM scraper_data
		WHERE scraper = $1 AND tag = $2`,
		scraper, tag,
	).Scan(&version, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, DataError(scraper, tag, err)
	}

	if err := d.enc.Decode([]byte(data), out); err != nil {
		return 0, false, DataError(scraper, tag, err)
	}
	return version, true, nil
}

// CursorStore persists resumable API positions between batches.
// *DataStore satisfies it; nil disables resumption.
type CursorStore interface {
	SaveCursor(ctx context.Context, scraper, value string) error
	LoadCursor(ctx context.Context, scraper string) (string, error)
}

// Cursor is the resumable position of an API connector, stored under
// the "cursor" tag.
type Cursor struct {
	Value string    `json:"value"`
	At    time.Time `json:"at"`
}

// cursorTag and cursorVersion identify the cursor payload format.
const (
	cursorTag     = "cursor"
	cursorVersion = 1
)

// SaveCursor stores an API connector's resumable position.
func (d *DataStore) SaveCursor(
	ctx context.Context, scraper, value string,
) error {
	c := Cursor{Value: value, At: time.Now().UTC()}
	return d.Save(ctx, scraper, cursorTag, cursorVersion, c)
}

// LoadCursor reads an API connector's resumable position; empty when
// none was saved.
func (d *DataStore) LoadCursor(
	ctx context.Context, scraper string,
) (string, error) {
	var c Cursor
	_, ok, err := d.Load(ctx, scraper, cursorTag, &c)
	if err != nil || !ok {
		return "", err
	}
	return c.Value, nil
}
