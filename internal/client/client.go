// Package client implements the read-through gap-fill client: it
// resolves a requested window into trading sessions, loads the days
// already cached, fetches only the missing contiguous runs from the
// provider, persists fresh data day-by-day, and assembles one ordered
// result.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"mdcache/internal/cache"
	"mdcache/internal/calendar"
	"mdcache/internal/domain"
	"mdcache/internal/journal"
	"mdcache/internal/provider"
	"mdcache/internal/series"
)

// ErrMultiSymbol is returned for requests naming more than one symbol;
// multi-symbol downloads are not supported.
var ErrMultiSymbol = errors.New("multiple symbols per request are not supported")

// providerLookbackDays is the approximate calendar-day window inside
// which the provider serves intraday data. Batches starting before the
// cutoff are skipped outright rather than truncated, so known-
// unavailable ranges are not re-requested on every call.
const providerLookbackDays = 30

// Request describes one series download.
type Request struct {
	Symbols  []string
	Interval string // defaults to "1d"
	Start    time.Time
	End      time.Time
	Period   string // relative lookback, e.g. "5d", "3mo", "max"
}

// ChainRequest describes one option-chain lookup. An empty Expiration
// selects the nearest upcoming expiration. A zero Timestamp addresses
// the current snapshot slot; SkipCache forces a fresh fetch.
type ChainRequest struct {
	Symbol     string
	Expiration string
	Timestamp  time.Time
	SkipCache  bool
}

// Client is the gap-fill client. One logical goroutine drives one
// request end to end; there is no cross-request deduplication, so two
// concurrent requests for overlapping windows may both fetch and store
// the same day. The last store wins without corruption.
type Client struct {
	cache    *cache.FSCache
	provider provider.Provider
	calendar *calendar.Calendar
	journal  *journal.Journal
	now      func() time.Time
	log      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithJournal records every provider fetch in the given journal.
func WithJournal(j *journal.Journal) Option {
	return func(c *Client) { c.journal = j }
}

// WithClock overrides the clock, used by tests to pin "now".
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a Client over the given cache, provider, and calendar.
func New(fc *cache.FSCache, p provider.Provider, cal *calendar.Calendar, opts ...Option) *Client {
	c := &Client{
		cache:    fc,
		provider: p,
		calendar: cal,
		now:      time.Now,
		log:      slog.Default().With("component", "client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ---------------------------------------------------------------------------
// Series download
// ---------------------------------------------------------------------------

// Download returns bars for the requested window, reading cached days
// and fetching only the missing runs. With no start, end, or
// recognizable period, the request bypasses the cache read path
// entirely: the provider's own default window is fetched, persisted as
// a side effect, and returned unfiltered.
func (c *Client) Download(ctx context.Context, req Request) (series.Series, error) {
	symbol, err := singleSymbol(req.Symbols)
	if err != nil {
		return nil, err
	}
	interval := req.Interval
	if interval == "" {
		interval = "1d"
	}

	start, end := c.resolveWindow(req, interval)
	if start.IsZero() {
		return c.passthrough(ctx, symbol, interval, req)
	}

	hits, missing, err := c.checkCache(ctx, symbol, interval, start, end)
	if err != nil {
		return nil, err
	}

	if len(missing) > 0 {
		fresh, err := c.fetchMissing(ctx, symbol, interval, missing)
		if err != nil {
			return nil, err
		}
		hits = append(hits, fresh...)
	}

	merged := series.Merge(hits...)
	return series.Trim(merged, start, end), nil
}

// passthrough delegates straight to the provider and persists the
// result day-sliced. Write-through without read-through: the caller
// asked for "whatever the provider considers its default".
func (c *Client) passthrough(ctx context.Context, symbol, interval string, req Request) (series.Series, error) {
	began := c.now()
	fetched, err := c.provider.FetchSeries(ctx, symbol, interval, req.Start, req.End)
	if err != nil {
		return nil, err
	}
	c.record(ctx, symbol, interval, req.Start, req.End, len(fetched), began)
	if err := c.persist(symbol, interval, fetched); err != nil {
		return nil, err
	}
	return fetched, nil
}

// checkCache probes the cache for every session date in the window and
// partitions the days into loaded tables and misses.
func (c *Client) checkCache(ctx context.Context, symbol, interval string, start, end time.Time) ([]series.Series, []time.Time, error) {
	var hits []series.Series
	var missing []time.Time
	for _, day := range c.calendar.Sessions(ctx, start, end) {
		key := cache.NewSeriesKey(symbol, interval, day)
		if !c.cache.Has(key) {
			missing = append(missing, day)
			continue
		}
		table, err := c.cache.Load(key)
		if err != nil {
			return nil, nil, err
		}
		if table == nil {
			missing = append(missing, day)
			continue
		}
		hits = append(hits, table)
	}
	return hits, missing, nil
}

// fetchMissing groups missing days into contiguous runs and fetches
// each run from the provider. Intraday runs older than the provider's
// lookback window are skipped before any call is made; availability
// rejections from the provider skip that run and continue; any other
// provider error aborts the request.
func (c *Client) fetchMissing(ctx context.Context, symbol, interval string, missing []time.Time) ([]series.Series, error) {
	cutoff := series.Day(c.now()).AddDate(0, 0, -providerLookbackDays)
	sub := intraday(interval)

	var out []series.Series
	for _, r := range series.ContiguousRanges(missing) {
		if sub && r.Start.Before(cutoff) {
			c.log.Debug("skipping range beyond provider lookback",
				"symbol", symbol, "interval", interval,
				"start", r.Start.Format("2006-01-02"), "end", r.End.Format("2006-01-02"))
			continue
		}

		// Half-open fetch bounds so the final day is fully covered.
		fetchStart := r.Start
		fetchEnd := r.End.AddDate(0, 0, 1)

		began := c.now()
		fetched, err := c.provider.FetchSeries(ctx, symbol, interval, fetchStart, fetchEnd)
		if err != nil {
			if errors.Is(err, provider.ErrDataUnavailable) {
				c.log.Debug("provider declined range", "symbol", symbol, "err", err)
				continue
			}
			return nil, err
		}
		c.record(ctx, symbol, interval, fetchStart, fetchEnd, len(fetched), began)
		if len(fetched) == 0 {
			continue
		}

		out = append(out, fetched)
		if err := c.persist(symbol, interval, fetched); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// persist slices a fetch result into UTC day fragments and stores each
// one under its own key. Store failures propagate: the network round
// trip was expensive and the caller must not believe the data is safely
// cached when it is not.
func (c *Client) persist(symbol, interval string, s series.Series) error {
	if len(s) == 0 {
		return nil
	}
	slices, err := series.SliceDays(s)
	if err != nil {
		return err
	}
	for _, ds := range slices {
		key := cache.NewSeriesKey(symbol, interval, ds.Day)
		if err := c.cache.Store(key, ds.Rows); err != nil {
			return fmt.Errorf("persisting %s/%s/%s: %w",
				key.Symbol, key.Interval, key.Day.Format("2006-01-02"), err)
		}
	}
	return nil
}

// record logs the fetch to the journal when one is configured. Journal
// failures are reported but never fail the request.
func (c *Client) record(ctx context.Context, symbol, interval string, start, end time.Time, rows int, began time.Time) {
	if c.journal == nil {
		return
	}
	err := c.journal.Record(ctx, journal.Entry{
		Symbol:   cache.Sanitize(symbol),
		Interval: interval,
		Start:    start,
		End:      end,
		Rows:     rows,
		Elapsed:  c.now().Sub(began),
	})
	if err != nil {
		c.log.Warn("journal record failed", "err", err)
	}
}

func singleSymbol(symbols []string) (string, error) {
	if len(symbols) != 1 {
		return "", fmt.Errorf("%w: got %d symbols", ErrMultiSymbol, len(symbols))
	}
	return symbols[0], nil
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Expirations returns option expiration dates for the symbol. Cached
// expirations are filtered to today or later; when the cache holds none
// that are still current, a fresh provider listing is fetched so an
// expired-only cache is never returned.
func (c *Client) Expirations(ctx context.Context, symbol string) ([]string, error) {
	today := series.Day(c.now())

	var valid []string
	for exp := range c.cache.Expirations(symbol) {
		d, err := time.Parse("2006-01-02", exp)
		if err != nil {
			continue
		}
		if !d.Before(today) {
			valid = append(valid, exp)
		}
	}
	if len(valid) > 0 {
		sort.Strings(valid)
		return valid, nil
	}

	return c.provider.FetchExpirations(ctx, symbol)
}

// Chain returns the option chain for one expiration, read through the
// snapshot cache. Provider failures on this path degrade to an empty
// chain instead of propagating: options data is best-effort display
// data. Cache I/O failures still propagate.
func (c *Client) Chain(ctx context.Context, req ChainRequest) (domain.OptionChain, error) {
	expiration := req.Expiration
	if expiration == "" {
		exps, err := c.Expirations(ctx, req.Symbol)
		if err != nil || len(exps) == 0 {
			if err != nil {
				c.log.Debug("expiration listing failed", "symbol", req.Symbol, "err", err)
			}
			return domain.OptionChain{}, nil
		}
		expiration = exps[0]
	}

	key := cache.NewSnapshotKey(req.Symbol, expiration, req.Timestamp)
	if !req.SkipCache {
		snap, err := c.cache.LoadChain(key)
		if err != nil {
			return domain.OptionChain{}, err
		}
		if snap != nil {
			return *snap, nil
		}
	}

	fetched, err := c.provider.FetchChain(ctx, req.Symbol, expiration)
	if err != nil {
		c.log.Debug("option chain fetch failed", "symbol", req.Symbol, "expiration", expiration, "err", err)
		return domain.OptionChain{}, nil
	}

	if key.Historical() {
		if err := c.cache.StoreChain(key, fetched); err != nil {
			return domain.OptionChain{}, err
		}
		return fetched, nil
	}

	// No timestamp supplied: refresh the current slot and archive a
	// historical bucket stamped "now".
	if err := c.cache.StoreChain(key, fetched); err != nil {
		return domain.OptionChain{}, err
	}
	stamped := cache.NewSnapshotKey(req.Symbol, expiration, c.now())
	if err := c.cache.StoreChain(stamped, fetched); err != nil {
		return domain.OptionChain{}, err
	}
	return fetched, nil
}
