package repository

import "errors"

// ErrStaleRecord is returned when a conditional write finds the row present
// but no longer matching the expected prior value. Callers translate it to
// a concurrency conflict; the record must be re-read before retrying.
var ErrStaleRecord = errors.New("record changed since last read")

// ErrPartialWrite is returned when a multi-record write could not be
// confirmed atomic (commit failed after the writes were issued). It must be
// surfaced loudly, never swallowed.
var ErrPartialWrite = errors.New("multi-record write not confirmed atomic")
