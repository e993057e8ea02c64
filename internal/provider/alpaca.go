package provider

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"mdcache/internal/domain"
	"mdcache/internal/series"
	"mdcache/internal/util"
)

// Compile-time interface check.
var _ Provider = (*Alpaca)(nil)

// Alpaca fetches series and options data from the Alpaca market-data
// API.
type Alpaca struct {
	md       *marketdata.Client
	feed     marketdata.Feed
	limiter  *util.RateLimiter
	attempts int
	log      *slog.Logger
}

// AlpacaOption configures an Alpaca provider.
type AlpacaOption func(*Alpaca)

// WithFeed selects the market-data feed ("sip", "iex", ...).
func WithFeed(feed string) AlpacaOption {
	return func(a *Alpaca) { a.feed = marketdata.Feed(feed) }
}

// WithRateLimit throttles API calls to perMinute requests per minute.
func WithRateLimit(perMinute int) AlpacaOption {
	return func(a *Alpaca) { a.limiter = util.NewRateLimiter(perMinute) }
}

// NewAlpaca creates an Alpaca provider with the given credentials.
// dataURL may be empty to use the SDK default endpoint.
func NewAlpaca(apiKey, apiSecret, dataURL string, opts ...AlpacaOption) *Alpaca {
	clientOpts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		clientOpts.BaseURL = dataURL
	}

	a := &Alpaca{
		md:       marketdata.NewClient(clientOpts),
		attempts: 3,
		log:      slog.Default().With("provider", "alpaca"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FetchSeries fetches bars for the symbol and interval in [start, end).
// Zero bounds select a default window: the trailing week for intraday
// intervals, the trailing year otherwise.
func (a *Alpaca) FetchSeries(ctx context.Context, symbol, interval string, start, end time.Time) (series.Series, error) {
	tf, err := timeFrame(interval)
	if err != nil {
		return nil, err
	}
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if start.IsZero() {
		if intradayFrame(tf) {
			start = end.AddDate(0, 0, -7)
		} else {
			start = end.AddDate(-1, 0, 0)
		}
	}

	bars, err := a.getBars(ctx, symbol, marketdata.GetBarsRequest{
		TimeFrame: tf,
		Start:     start,
		End:       end,
		Feed:      a.feed,
	})
	if err != nil {
		return nil, err
	}

	out := make(series.Series, 0, len(bars))
	for _, b := range bars {
		out = append(out, domain.Bar{
			Symbol:     strings.ToUpper(symbol),
			Timestamp:  b.Timestamp,
			Open:       b.Open,
			High:       b.High,
			Low:        b.Low,
			Close:      b.Close,
			Volume:     int64(b.Volume),
			TradeCount: int64(b.TradeCount),
			VWAP:       b.VWAP,
		})
	}
	return out, nil
}

func (a *Alpaca) getBars(ctx context.Context, symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var bars []marketdata.Bar
	var unavail error
	err := util.Retry(ctx, a.attempts, 500*time.Millisecond, func() error {
		got, err := a.md.GetBars(symbol, req)
		if err != nil {
			if unavailable(err) {
				// Expected range rejection, retrying cannot help.
				unavail = fmt.Errorf("%w: %v", ErrDataUnavailable, err)
				return nil
			}
			return err
		}
		bars = got
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars %s: %w", symbol, err)
	}
	if unavail != nil {
		return nil, unavail
	}
	return bars, nil
}

// FetchExpirations lists the distinct expiration dates present in the
// symbol's option chain, ascending.
func (a *Alpaca) FetchExpirations(ctx context.Context, symbol string) ([]string, error) {
	snapshots, err := a.getOptionChain(ctx, symbol)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{})
	for occ := range snapshots {
		c, err := parseOCC(occ)
		if err != nil {
			continue
		}
		set[c.expiration] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for exp := range set {
		out = append(out, exp)
	}
	sort.Strings(out)
	return out, nil
}

// FetchChain fetches the chain for one expiration, split into calls and
// puts ordered by strike, plus a best-effort underlying record.
func (a *Alpaca) FetchChain(ctx context.Context, symbol, expiration string) (domain.OptionChain, error) {
	snapshots, err := a.getOptionChain(ctx, symbol)
	if err != nil {
		return domain.OptionChain{}, err
	}

	var chain domain.OptionChain
	for occ, snap := range snapshots {
		c, err := parseOCC(occ)
		if err != nil || c.expiration != expiration {
			continue
		}

		oc := domain.OptionContract{
			ContractSymbol:    occ,
			Strike:            c.strike,
			ImpliedVolatility: snap.ImpliedVolatility,
		}
		if snap.LatestTrade != nil {
			oc.LastPrice = snap.LatestTrade.Price
			oc.LastTradeDate = snap.LatestTrade.Timestamp
		}
		if snap.LatestQuote != nil {
			oc.Bid = snap.LatestQuote.BidPrice
			oc.Ask = snap.LatestQuote.AskPrice
		}

		if c.put {
			chain.Puts = append(chain.Puts, oc)
		} else {
			chain.Calls = append(chain.Calls, oc)
		}
	}
	sort.Slice(chain.Calls, func(i, j int) bool { return chain.Calls[i].Strike < chain.Calls[j].Strike })
	sort.Slice(chain.Puts, func(i, j int) bool { return chain.Puts[i].Strike < chain.Puts[j].Strike })

	// The underlying record is display data; it must not fail the chain.
	if snap, err := a.md.GetSnapshot(symbol, marketdata.GetSnapshotRequest{}); err == nil && snap != nil {
		u := domain.Underlying{Symbol: strings.ToUpper(symbol)}
		if snap.LatestTrade != nil {
			u.Price = snap.LatestTrade.Price
			u.Timestamp = snap.LatestTrade.Timestamp
		}
		if snap.PrevDailyBar != nil {
			u.PreviousClose = snap.PrevDailyBar.Close
		}
		chain.Underlying = u
	} else if err != nil {
		a.log.Debug("underlying snapshot failed", "symbol", symbol, "err", err)
	}

	return chain, nil
}

func (a *Alpaca) getOptionChain(ctx context.Context, symbol string) (map[string]marketdata.OptionSnapshot, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var snapshots map[string]marketdata.OptionSnapshot
	err := util.Retry(ctx, a.attempts, 500*time.Millisecond, func() error {
		got, err := a.md.GetOptionChain(symbol, marketdata.GetOptionChainRequest{})
		if err != nil {
			return err
		}
		snapshots = got
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("GetOptionChain %s: %w", symbol, err)
	}
	return snapshots, nil
}

// ---------------------------------------------------------------------------
// Interval and symbol parsing
// ---------------------------------------------------------------------------

// timeFrame maps an interval string ("1m", "15m", "1h", "1d", "1wk",
// "1mo") to an Alpaca bar timeframe.
func timeFrame(interval string) (marketdata.TimeFrame, error) {
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return marketdata.OneDay, nil
	}

	for _, m := range []struct {
		suffix string
		unit   marketdata.TimeFrameUnit
	}{
		{"wk", marketdata.Week},
		{"mo", marketdata.Month},
		{"d", marketdata.Day},
		{"h", marketdata.Hour},
		{"m", marketdata.Min},
	} {
		if !strings.HasSuffix(interval, m.suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(interval, m.suffix))
		if err != nil || n <= 0 {
			return marketdata.TimeFrame{}, fmt.Errorf("invalid interval %q", interval)
		}
		return marketdata.NewTimeFrame(n, m.unit), nil
	}
	return marketdata.TimeFrame{}, fmt.Errorf("unsupported interval %q", interval)
}

func intradayFrame(tf marketdata.TimeFrame) bool {
	return tf.Unit == marketdata.Min || tf.Unit == marketdata.Hour
}

// unavailable reports whether a provider error is a range-availability
// rejection. Alpaca exposes no structured error kind for these, so the
// binding matches on known message substrings.
func unavailable(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pat := range []string{
		"not available",
		"too old",
		"subscription does not permit",
		"historical data is not available",
	} {
		if strings.Contains(msg, pat) {
			return true
		}
	}
	return false
}

// occContract is the decoded form of an OCC option symbol such as
// AAPL240621C00190000.
type occContract struct {
	root       string
	expiration string // YYYY-MM-DD
	put        bool
	strike     float64
}

// parseOCC decodes an OCC-format option symbol: root, YYMMDD
// expiration, C/P flag, then the strike in thousandths as eight digits.
func parseOCC(symbol string) (occContract, error) {
	if len(symbol) < 16 {
		return occContract{}, fmt.Errorf("option symbol %q too short", symbol)
	}

	strikeDigits := symbol[len(symbol)-8:]
	cp := symbol[len(symbol)-9]
	dateDigits := symbol[len(symbol)-15 : len(symbol)-9]
	root := symbol[:len(symbol)-15]

	if cp != 'C' && cp != 'P' {
		return occContract{}, fmt.Errorf("option symbol %q has no C/P flag", symbol)
	}
	exp, err := time.Parse("060102", dateDigits)
	if err != nil {
		return occContract{}, fmt.Errorf("option symbol %q has invalid expiration: %w", symbol, err)
	}
	thousandths, err := strconv.ParseInt(strikeDigits, 10, 64)
	if err != nil {
		return occContract{}, fmt.Errorf("option symbol %q has invalid strike: %w", symbol, err)
	}

	return occContract{
		root:       root,
		expiration: exp.Format("2006-01-02"),
		put:        cp == 'P',
		strike:     float64(thousandths) / 1000.0,
	}, nil
}
