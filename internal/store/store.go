// Package store persists the per-sender submission history table.
//
// The table is always read and written wholesale: request volume on a
// personal portfolio is low enough that round-tripping the whole document
// beats the complexity of row-level updates.
package store

import "context"

// Record is the submission history for one sender identity.
type Record struct {
	Timestamps []int64 `json:"timestamps"` // submission times, epoch milliseconds
}

// Table maps a canonical sender identity to its submission record.
type Table map[string]Record

// Clone returns a deep copy so callers can mutate freely.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, rec := range t {
		ts := make([]int64, len(rec.Timestamps))
		copy(ts, rec.Timestamps)
		out[k] = Record{Timestamps: ts}
	}
	return out
}

// Store is a dumb persistence layer with no business logic; the rate
// limiter owns all mutation of the table.
//
// Load fails soft: missing or unparseable persisted data comes back as an
// empty table with a nil error. Only transport-level failures (e.g. an
// unreachable Redis) surface as errors.
type Store interface {
	Load(ctx context.Context) (Table, error)
	Save(ctx context.Context, t Table) error
}
