// Package cache persists market data on disk, bucketed per symbol,
// interval, and UTC calendar day for series, and per symbol, expiration,
// and optional snapshot time for option chains. Leaf artifacts are
// Parquet tables with JSON sidecar metadata.
package cache

import (
	"strings"
	"time"

	"mdcache/internal/series"
)

// Sanitize canonicalizes a symbol for use in cache keys and filesystem
// paths: uppercased, with "/" and spaces replaced by "_". It is
// idempotent, so already-sanitized symbols pass through unchanged.
func Sanitize(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

// SeriesKey addresses one cached day of bar data. Two keys are equal
// iff symbol, interval, and day all match; the symbol is sanitized at
// construction so "brk a" and "BRK/A" address the same entry.
type SeriesKey struct {
	Symbol   string
	Interval string
	Day      time.Time // midnight UTC
}

// NewSeriesKey builds a key for the given calendar day. The day is
// normalized to midnight UTC.
func NewSeriesKey(symbol, interval string, day time.Time) SeriesKey {
	return SeriesKey{
		Symbol:   Sanitize(symbol),
		Interval: interval,
		Day:      series.Day(day),
	}
}

// SeriesKeyFromInstant buckets an instant into its UTC calendar day.
func SeriesKeyFromInstant(symbol, interval string, ts time.Time) SeriesKey {
	return NewSeriesKey(symbol, interval, ts)
}

// SnapshotKey addresses one cached option-chain snapshot. A zero
// Timestamp addresses the "current" snapshot slot; a non-zero Timestamp
// addresses a historical snapshot bucketed by calendar date and
// time-of-day. Bucketing is second-granular: two timestamps differing
// only in sub-second precision collide.
type SnapshotKey struct {
	Symbol     string
	Expiration string // YYYY-MM-DD
	Timestamp  time.Time
}

// NewSnapshotKey builds a snapshot key. A zero ts addresses the current
// slot; otherwise ts is truncated to whole seconds in UTC.
func NewSnapshotKey(symbol, expiration string, ts time.Time) SnapshotKey {
	if !ts.IsZero() {
		ts = ts.UTC().Truncate(time.Second)
	}
	return SnapshotKey{
		Symbol:     Sanitize(symbol),
		Expiration: expiration,
		Timestamp:  ts,
	}
}

// Historical reports whether the key addresses a historical snapshot
// bucket rather than the current slot.
func (k SnapshotKey) Historical() bool { return !k.Timestamp.IsZero() }
