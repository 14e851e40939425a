package storage

import (
	"context"
	"errors"
	"time"

	"github.com/roach88/automodel/internal/queryir"
	"github.com/roach88/automodel/internal/schema"
)

// Row is a stored record: field values plus the engine-managed fields.
type Row = map[string]any

// Engine-managed field names.
const (
	FieldID         = "id"
	FieldCreateTime = "create_time"
	FieldUpdateTime = "update_time"
	FieldDeleted    = "deleted"
)

// TimeLayout formats create_time and update_time.
const TimeLayout = "2006-01-02 15:04:05"

// ErrNoDatabase is returned by table operations before SelectDatabase.
var ErrNoDatabase = errors.New("storage: no database selected")

// Adapter is the storage contract.
//
// Not-found outcomes are reported through the bool results, never as
// errors. Errors are reserved for backend failures and invalid input.
type Adapter interface {
	// SelectDatabase switches the active database, creating it on first use.
	SelectDatabase(ctx context.Context, name string) error

	// CreateTable ensures an empty table exists. Idempotent.
	CreateTable(ctx context.Context, table string, sch schema.Schema) error

	// Insert stores data under a fresh id and returns the complete row.
	Insert(ctx context.Context, table string, data map[string]any) (Row, error)

	// Fetch returns the row with id unless it is missing or soft-deleted.
	Fetch(ctx context.Context, table string, id int64) (Row, bool, error)

	// Update merges data into a live row and refreshes update_time.
	Update(ctx context.Context, table string, id int64, data map[string]any) (Row, bool, error)

	// Delete removes a row. soft only sets the deleted flag. Returns false
	// when no row has that id.
	Delete(ctx context.Context, table string, id int64, soft bool) (bool, error)

	// Query returns live rows matching q.
	Query(ctx context.Context, table string, q queryir.Query) ([]Row, error)

	// Close releases backend resources.
	Close() error
}

// Clock supplies wall-clock time for timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// Option configures a backend.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock sets the clock used for create_time and update_time.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// ClockFrom resolves the clock selected by opts, defaulting to SystemClock.
// Backends outside this package use it to honor WithClock.
func ClockFrom(opts []Option) Clock {
	return buildOptions(opts).clock
}

func buildOptions(opts []Option) options {
	o := options{clock: SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// IsManaged reports whether field is owned by the backend. Managed fields
// in caller data are ignored on insert and update.
func IsManaged(field string) bool {
	switch field {
	case FieldID, FieldCreateTime, FieldUpdateTime, FieldDeleted:
		return true
	}
	return false
}

func cloneRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
