// Package provider defines the remote market-data collaborator consumed
// by the gap-fill client, plus the Alpaca binding.
package provider

import (
	"context"
	"errors"
	"time"

	"mdcache/internal/domain"
	"mdcache/internal/series"
)

// ErrDataUnavailable classifies provider rejections of a requested
// range as expected conditions (data older than the provider's lookback
// window, feeds the account cannot query). Callers skip the affected
// range and continue; any other provider error aborts the request.
var ErrDataUnavailable = errors.New("provider data unavailable for requested range")

// SeriesProvider fetches time-series bars. Zero start and end bounds
// let the binding apply its own defaults for the interval.
type SeriesProvider interface {
	FetchSeries(ctx context.Context, symbol, interval string, start, end time.Time) (series.Series, error)
}

// OptionsProvider fetches options-chain data.
type OptionsProvider interface {
	// FetchExpirations returns the available expiration dates for a
	// symbol as YYYY-MM-DD strings in ascending order.
	FetchExpirations(ctx context.Context, symbol string) ([]string, error)

	// FetchChain returns the current chain for one expiration.
	FetchChain(ctx context.Context, symbol, expiration string) (domain.OptionChain, error)
}

// Provider is the full remote collaborator surface.
type Provider interface {
	SeriesProvider
	OptionsProvider
}
