// Package series implements the assembly of time-indexed bar tables:
// merging overlapping fragments, trimming to a requested window, and
// slicing fetch results into UTC day buckets.
package series

import (
	"fmt"
	"sort"
	"time"

	"mdcache/internal/domain"
)

// Series is a time-indexed table of bars. Assembled results are ordered
// ascending by timestamp with no duplicate instants.
type Series []domain.Bar

// Merge concatenates the given tables into one ascending, duplicate-free
// table. When two rows share the same instant, the row from the table
// that appears later in the argument list wins, so fresher fetches
// override older cache reads.
func Merge(tables ...Series) Series {
	n := 0
	for _, t := range tables {
		n += len(t)
	}
	if n == 0 {
		return nil
	}

	seen := make(map[int64]domain.Bar, n)
	for _, t := range tables {
		for _, b := range t {
			seen[b.Timestamp.UnixNano()] = b
		}
	}

	merged := make(Series, 0, len(seen))
	for _, b := range seen {
		merged = append(merged, b)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	return merged
}

// Trim removes rows outside [start, end]. Bounds are inclusive; a zero
// bound leaves that side open. Comparison is by instant, so bounds
// expressed in any location compare correctly against the table.
func Trim(s Series, start, end time.Time) Series {
	if len(s) == 0 {
		return s
	}
	out := make(Series, 0, len(s))
	for _, b := range s {
		if !start.IsZero() && b.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && b.Timestamp.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// DaySlice is the portion of a fetch result that falls on one UTC
// calendar day.
type DaySlice struct {
	Day  time.Time // midnight UTC
	Rows Series
}

// SliceDays partitions a table into day-sized fragments by the UTC
// calendar date of each row. A row with a zero timestamp violates the
// input contract and is rejected rather than coerced. Fragments are
// returned in ascending day order.
func SliceDays(s Series) ([]DaySlice, error) {
	if len(s) == 0 {
		return nil, nil
	}

	groups := make(map[time.Time]Series)
	for _, b := range s {
		if b.Timestamp.IsZero() {
			return nil, fmt.Errorf("series row for %s has no timestamp", b.Symbol)
		}
		d := Day(b.Timestamp)
		groups[d] = append(groups[d], b)
	}

	out := make([]DaySlice, 0, len(groups))
	for d, rows := range groups {
		out = append(out, DaySlice{Day: d, Rows: rows})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Day.Before(out[j].Day)
	})
	return out, nil
}
