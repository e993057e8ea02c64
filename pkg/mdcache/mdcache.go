// Package mdcache exposes the cached market-data client with
// zero-config entry points. Download, Expirations, and Chain share one
// default-configured client built lazily from the environment; callers
// needing their own cache root or provider should construct a client
// explicitly via NewClient.
package mdcache

import (
	"context"
	"os"
	"sync"

	"mdcache/internal/cache"
	"mdcache/internal/calendar"
	"mdcache/internal/client"
	"mdcache/internal/config"
	"mdcache/internal/domain"
	"mdcache/internal/journal"
	"mdcache/internal/provider"
	"mdcache/internal/series"
)

// Re-exported types so callers outside the module can use the client
// without reaching into internal packages.
type (
	Request      = client.Request
	ChainRequest = client.ChainRequest
	Series       = series.Series
	Bar          = domain.Bar
	OptionChain  = domain.OptionChain
)

// ErrMultiSymbol is returned for requests naming more than one symbol.
var ErrMultiSymbol = client.ErrMultiSymbol

// NewClient builds a gap-fill client from the given configuration,
// including the fetch journal when one is enabled.
func NewClient(cfg *config.Config) (*client.Client, error) {
	var popts []provider.AlpacaOption
	if cfg.Alpaca.Feed != "" {
		popts = append(popts, provider.WithFeed(cfg.Alpaca.Feed))
	}
	if cfg.Alpaca.RateLimitPerMin > 0 {
		popts = append(popts, provider.WithRateLimit(cfg.Alpaca.RateLimitPerMin))
	}
	p := provider.NewAlpaca(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL, popts...)
	cal := calendar.New(calendar.NewAlpacaSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL))

	var copts []client.Option
	if cfg.Journal.Enabled && cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, err
		}
		copts = append(copts, client.WithJournal(j))
	}
	return client.New(cache.New(cfg.Cache.Root), p, cal, copts...), nil
}

var defaultClient = sync.OnceValues(func() (*client.Client, error) {
	cfg, err := config.Load(os.Getenv("MDCACHE_CONFIG"))
	if err != nil {
		return nil, err
	}
	return NewClient(cfg)
})

// Download fetches bars through the default client.
func Download(ctx context.Context, req Request) (Series, error) {
	c, err := defaultClient()
	if err != nil {
		return nil, err
	}
	return c.Download(ctx, req)
}

// Expirations lists option expiration dates through the default client.
func Expirations(ctx context.Context, symbol string) ([]string, error) {
	c, err := defaultClient()
	if err != nil {
		return nil, err
	}
	return c.Expirations(ctx, symbol)
}

// Chain fetches an option chain through the default client.
func Chain(ctx context.Context, req ChainRequest) (OptionChain, error) {
	c, err := defaultClient()
	if err != nil {
		return OptionChain{}, err
	}
	return c.Chain(ctx, req)
}
