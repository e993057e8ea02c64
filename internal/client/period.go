package client

import (
	"strconv"
	"strings"
	"time"

	"mdcache/internal/series"
)

// intraday reports whether an interval is finer than one day (minute or
// hour suffixed). Month intervals ("1mo") end in "o" and are not
// intraday.
func intraday(interval string) bool {
	return strings.HasSuffix(interval, "m") || strings.HasSuffix(interval, "h")
}

// parsePeriod converts a relative lookback like "5d", "2wk", "3mo",
// "1y", "2h", or "30m" into a duration. Months approximate to 30 days
// and years to 365. "max" and any unrecognized syntax mean "no lower
// bound" and report false.
func parsePeriod(period string) (time.Duration, bool) {
	period = strings.ToLower(strings.TrimSpace(period))
	if period == "" || period == "max" {
		return 0, false
	}

	for _, m := range []struct {
		suffix string
		unit   time.Duration
	}{
		{"wk", 7 * 24 * time.Hour},
		{"mo", 30 * 24 * time.Hour},
		{"y", 365 * 24 * time.Hour},
		{"d", 24 * time.Hour},
		{"h", time.Hour},
		{"m", time.Minute},
	} {
		if !strings.HasSuffix(period, m.suffix) {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSuffix(period, m.suffix), 64)
		if err != nil {
			return 0, false
		}
		return time.Duration(value * float64(m.unit)), true
	}
	return 0, false
}

// resolveWindow turns a request into absolute bounds. The end defaults
// to "now" for intraday intervals and today's midnight otherwise; the
// start comes from the request or from subtracting the lookback period
// from the end. A zero returned start means the request has no lower
// bound and bypasses the cache read path.
func (c *Client) resolveWindow(req Request, interval string) (start, end time.Time) {
	end = req.End
	if end.IsZero() {
		if intraday(interval) {
			end = c.now().UTC()
		} else {
			end = series.Day(c.now())
		}
	}

	start = req.Start
	if start.IsZero() && req.Period != "" {
		if d, ok := parsePeriod(req.Period); ok {
			start = end.Add(-d)
		}
	}
	return start, end
}
