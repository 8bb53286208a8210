package srs

import "time"

// Params defines all configurable parameters for the spaced-repetition
// policy: the per-bucket review intervals and the mastery threshold.
type Params struct {
	// Intervals maps each bucket to its review interval. Indexed 1..5;
	// index 0 is unused. The intervals must be monotonically increasing —
	// that ordering is the whole spacing-effect policy.
	Intervals [6]time.Duration

	// MasteryThreshold is the number of consecutive correct reviews at the
	// top bucket required before an entry is marked mastered.
	MasteryThreshold int

	// ReviewingBucket is the bucket at which an entry graduates from
	// learning to reviewing.
	ReviewingBucket int
}

const day = 24 * time.Hour

// NewDefaultParams creates a new Params instance with the default interval
// table: bucket 1 → 1 day, 2 → 3 days, 3 → 7 days, 4 → 14 days, 5 → 30 days.
func NewDefaultParams() *Params {
	return &Params{
		Intervals: [6]time.Duration{
			0, // unused
			1 * day,
			3 * day,
			7 * day,
			14 * day,
			30 * day,
		},
		MasteryThreshold: 3,
		ReviewingBucket:  4,
	}
}

// Interval returns the review interval for the given bucket. Buckets outside
// 1..5 are clamped to the nearest valid bucket.
func (p *Params) Interval(bucket int) time.Duration {
	if bucket < 1 {
		bucket = 1
	}
	if bucket > 5 {
		bucket = 5
	}
	return p.Intervals[bucket]
}
