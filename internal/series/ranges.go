package series

import (
	"sort"
	"time"
)

// DateRange is an inclusive run of calendar days, both endpoints at
// midnight UTC.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Day returns the UTC calendar day of an instant as midnight UTC.
// Instants carrying another location are converted to UTC before the
// date is taken.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ContiguousRanges partitions a set of days into maximal runs of
// consecutive calendar days, returned in ascending order. A gap of more
// than one calendar day starts a new range; a single day yields a
// degenerate (d, d) range. This is what keeps provider round trips to
// one call per missing block instead of one per missing day.
func ContiguousRanges(days []time.Time) []DateRange {
	if len(days) == 0 {
		return nil
	}

	sorted := make([]time.Time, len(days))
	for i, d := range days {
		sorted[i] = Day(d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	var ranges []DateRange
	start, prev := sorted[0], sorted[0]
	for _, cur := range sorted[1:] {
		if cur.Equal(prev) {
			continue
		}
		if cur.Equal(prev.AddDate(0, 0, 1)) {
			prev = cur
			continue
		}
		ranges = append(ranges, DateRange{Start: start, End: prev})
		start, prev = cur, cur
	}
	ranges = append(ranges, DateRange{Start: start, End: prev})
	return ranges
}
