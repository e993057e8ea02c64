// Package calendar produces trading-session dates. A pluggable session
// source (normally the exchange calendar API) is consulted first; when
// it is unavailable the package falls back to a weekday approximation,
// which misses holidays but never fails.
package calendar

import (
	"context"
	"log/slog"
	"time"

	"mdcache/internal/series"
)

// SessionSource supplies the trading days between two dates, inclusive.
type SessionSource interface {
	Sessions(ctx context.Context, start, end time.Time) ([]time.Time, error)
}

// Calendar resolves trading sessions with a weekday fallback.
type Calendar struct {
	src SessionSource
	log *slog.Logger
}

// New creates a Calendar backed by src. A nil src uses the weekday
// fallback exclusively.
func New(src SessionSource) *Calendar {
	return &Calendar{
		src: src,
		log: slog.Default().With("component", "calendar"),
	}
}

// Sessions returns the ordered trading days between start and end,
// inclusive of both endpoints, as midnight-UTC dates. An inverted range
// yields an empty result. Source failures are swallowed and the weekday
// approximation is used instead.
func (c *Calendar) Sessions(ctx context.Context, start, end time.Time) []time.Time {
	startDay, endDay := series.Day(start), series.Day(end)
	if startDay.After(endDay) {
		return nil
	}

	if c.src != nil {
		days, err := c.src.Sessions(ctx, startDay, endDay)
		if err == nil && len(days) > 0 {
			out := make([]time.Time, 0, len(days))
			for _, d := range days {
				out = append(out, series.Day(d))
			}
			return out
		}
		if err != nil {
			c.log.Debug("session source failed, using weekday fallback", "err", err)
		}
	}

	return weekdays(startDay, endDay)
}

// weekdays returns every Monday-Friday date in [start, end].
func weekdays(start, end time.Time) []time.Time {
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days = append(days, d)
		}
	}
	return days
}
