package series

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestContiguousRangesEmpty(t *testing.T) {
	if got := ContiguousRanges(nil); got != nil {
		t.Errorf("ContiguousRanges(nil) = %v, want nil", got)
	}
}

func TestContiguousRangesSingle(t *testing.T) {
	d := day(2023, 1, 5)
	got := ContiguousRanges([]time.Time{d})
	if len(got) != 1 {
		t.Fatalf("got %d ranges, want 1", len(got))
	}
	if !got[0].Start.Equal(d) || !got[0].End.Equal(d) {
		t.Errorf("single date should yield degenerate range, got %v", got[0])
	}
}

func TestContiguousRangesSplitsOnGaps(t *testing.T) {
	input := []time.Time{
		day(2023, 1, 1), day(2023, 1, 2),
		day(2023, 1, 5), day(2023, 1, 6),
	}
	got := ContiguousRanges(input)
	if len(got) != 2 {
		t.Fatalf("got %d ranges, want 2: %v", len(got), got)
	}
	if !got[0].Start.Equal(day(2023, 1, 1)) || !got[0].End.Equal(day(2023, 1, 2)) {
		t.Errorf("first range = %v, want 2023-01-01..2023-01-02", got[0])
	}
	if !got[1].Start.Equal(day(2023, 1, 5)) || !got[1].End.Equal(day(2023, 1, 6)) {
		t.Errorf("second range = %v, want 2023-01-05..2023-01-06", got[1])
	}
}

func TestContiguousRangesUnsortedInput(t *testing.T) {
	input := []time.Time{day(2023, 3, 10), day(2023, 3, 8), day(2023, 3, 9)}
	got := ContiguousRanges(input)
	if len(got) != 1 {
		t.Fatalf("got %d ranges, want 1: %v", len(got), got)
	}
	if !got[0].Start.Equal(day(2023, 3, 8)) || !got[0].End.Equal(day(2023, 3, 10)) {
		t.Errorf("range = %v, want 2023-03-08..2023-03-10", got[0])
	}
}

func TestContiguousRangesDuplicates(t *testing.T) {
	input := []time.Time{day(2023, 3, 8), day(2023, 3, 8), day(2023, 3, 9)}
	got := ContiguousRanges(input)
	if len(got) != 1 {
		t.Fatalf("got %d ranges, want 1: %v", len(got), got)
	}
}

// Ranges must cover exactly the input set, be pairwise non-overlapping,
// ascending, and internally consecutive.
func TestContiguousRangesProperties(t *testing.T) {
	input := []time.Time{
		day(2023, 5, 1), day(2023, 5, 2), day(2023, 5, 3),
		day(2023, 5, 8),
		day(2023, 5, 15), day(2023, 5, 16),
		day(2023, 5, 31), day(2023, 6, 1), // month boundary is still consecutive
	}
	ranges := ContiguousRanges(input)

	covered := make(map[time.Time]bool)
	var prevEnd time.Time
	for i, r := range ranges {
		if r.Start.After(r.End) {
			t.Errorf("range %d inverted: %v", i, r)
		}
		if i > 0 && !r.Start.After(prevEnd.AddDate(0, 0, 1)) {
			t.Errorf("range %d overlaps or touches previous (prev end %v, start %v)", i, prevEnd, r.Start)
		}
		for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
			covered[d] = true
		}
		prevEnd = r.End
	}

	if len(covered) != len(input) {
		t.Errorf("ranges cover %d days, input has %d", len(covered), len(input))
	}
	for _, d := range input {
		if !covered[d] {
			t.Errorf("input day %v not covered", d)
		}
	}
}

func TestDayNormalizesToUTC(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)

	// 23:30 EST on Jan 1 is 04:30 UTC on Jan 2.
	ts := time.Date(2023, 1, 1, 23, 30, 0, 0, est)
	if got := Day(ts); !got.Equal(day(2023, 1, 2)) {
		t.Errorf("Day(%v) = %v, want 2023-01-02 UTC", ts, got)
	}

	ts = time.Date(2023, 1, 1, 15, 30, 0, 0, time.UTC)
	if got := Day(ts); !got.Equal(day(2023, 1, 1)) {
		t.Errorf("Day(%v) = %v, want 2023-01-01 UTC", ts, got)
	}
}
