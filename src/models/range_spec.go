package models

import "time"

// -----------------------------------------------------------------------------

// MRangeSpec selects the span of a daily-bar fetch: the full available
// history when Start is nil, otherwise from Start (inclusive) forward.
type MRangeSpec struct {
	Start *time.Time
}

// -----------------------------------------------------------------------------

// FullRange requests the maximum available history.
func FullRange() MRangeSpec {
	return MRangeSpec{}
}

// -----------------------------------------------------------------------------

// RangeFrom requests history from start (inclusive) to the present.
func RangeFrom(start time.Time) MRangeSpec {
	return MRangeSpec{Start: &start}
}
