package client

import (
	"testing"
	"time"
)

func TestIntraday(t *testing.T) {
	cases := []struct {
		interval string
		want     bool
	}{
		{"1m", true},
		{"5m", true},
		{"30m", true},
		{"1h", true},
		{"4h", true},
		{"1d", false},
		{"5d", false},
		{"1wk", false},
		{"1mo", false}, // ends in "o", not "m"
		{"3mo", false},
	}
	for _, tc := range cases {
		if got := intraday(tc.interval); got != tc.want {
			t.Errorf("intraday(%q) = %v, want %v", tc.interval, got, tc.want)
		}
	}
}

func TestParsePeriod(t *testing.T) {
	day := 24 * time.Hour
	cases := []struct {
		period string
		want   time.Duration
		ok     bool
	}{
		{"5d", 5 * day, true},
		{"1wk", 7 * day, true},
		{"2wk", 14 * day, true},
		{"1mo", 30 * day, true},
		{"3mo", 90 * day, true},
		{"1y", 365 * day, true},
		{"2y", 730 * day, true},
		{"2h", 2 * time.Hour, true},
		{"30m", 30 * time.Minute, true},
		{"1.5d", 36 * time.Hour, true},
		{" 5D ", 5 * day, true}, // case and whitespace insensitive
		{"max", 0, false},
		{"MAX", 0, false},
		{"", 0, false},
		{"ytd", 0, false},
		{"5", 0, false},
		{"d", 0, false},
		{"xd", 0, false},
	}
	for _, tc := range cases {
		got, ok := parsePeriod(tc.period)
		if ok != tc.ok {
			t.Errorf("parsePeriod(%q) ok = %v, want %v", tc.period, ok, tc.ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("parsePeriod(%q) = %v, want %v", tc.period, got, tc.want)
		}
	}
}

func TestResolveWindow(t *testing.T) {
	fixed := time.Date(2023, 6, 15, 14, 30, 0, 0, time.UTC)
	c := New(nil, nil, nil, WithClock(func() time.Time { return fixed }))

	t.Run("explicit bounds pass through", func(t *testing.T) {
		req := Request{
			Start: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
		}
		start, end := c.resolveWindow(req, "1d")
		if !start.Equal(req.Start) || !end.Equal(req.End) {
			t.Errorf("got [%v, %v], want request bounds", start, end)
		}
	})

	t.Run("daily end defaults to today midnight", func(t *testing.T) {
		_, end := c.resolveWindow(Request{Period: "5d"}, "1d")
		want := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)
		if !end.Equal(want) {
			t.Errorf("end = %v, want %v", end, want)
		}
	})

	t.Run("intraday end defaults to now", func(t *testing.T) {
		_, end := c.resolveWindow(Request{Period: "2h"}, "5m")
		if !end.Equal(fixed) {
			t.Errorf("end = %v, want %v", end, fixed)
		}
	})

	t.Run("period subtracts from end", func(t *testing.T) {
		start, end := c.resolveWindow(Request{Period: "5d"}, "1d")
		if got := end.Sub(start); got != 5*24*time.Hour {
			t.Errorf("window span = %v, want 120h", got)
		}
	})

	t.Run("max period leaves start zero", func(t *testing.T) {
		start, _ := c.resolveWindow(Request{Period: "max"}, "1d")
		if !start.IsZero() {
			t.Errorf("start = %v, want zero for max", start)
		}
	})

	t.Run("no bounds leaves start zero", func(t *testing.T) {
		start, _ := c.resolveWindow(Request{}, "1d")
		if !start.IsZero() {
			t.Errorf("start = %v, want zero with no bounds", start)
		}
	})
}
