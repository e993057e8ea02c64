package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"mdcache/internal/domain"
	"mdcache/internal/series"
)

// FSCache is a disk-backed cache rooted at a single directory. Each key
// maps to its own file path, so writers for different keys never race;
// concurrent writes to the same key are last-write-wins.
type FSCache struct {
	Root string

	now func() time.Time
}

// New creates an FSCache rooted at the given directory. An empty root
// selects DefaultRoot.
func New(root string) *FSCache {
	if root == "" {
		root = DefaultRoot()
	}
	return &FSCache{Root: root, now: time.Now}
}

// DefaultRoot returns the user-scoped cache directory used when no
// explicit root is configured.
func DefaultRoot() string {
	base, err := os.UserCacheDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "mdcache")
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// BarRecord is the Parquet schema for one row of a cached day table.
type BarRecord struct {
	Symbol     string  `parquet:"symbol"`
	Timestamp  int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open       float64 `parquet:"open"`
	High       float64 `parquet:"high"`
	Low        float64 `parquet:"low"`
	Close      float64 `parquet:"close"`
	Volume     int64   `parquet:"volume"`
	TradeCount int64   `parquet:"trade_count"`
	VWAP       float64 `parquet:"vwap"`
}

// OptionRecord is the Parquet schema for one option contract row.
type OptionRecord struct {
	ContractSymbol    string  `parquet:"contract_symbol"`
	Strike            float64 `parquet:"strike"`
	LastPrice         float64 `parquet:"last_price"`
	Bid               float64 `parquet:"bid"`
	Ask               float64 `parquet:"ask"`
	ImpliedVolatility float64 `parquet:"implied_volatility"`
	LastTradeDate     int64   `parquet:"last_trade_date,timestamp(millisecond)"` // Unix ms
}

var barColumns = []string{"symbol", "timestamp", "open", "high", "low", "close", "volume", "trade_count", "vwap"}

var optionColumns = []string{"contract_symbol", "strike", "last_price", "bid", "ask", "implied_volatility", "last_trade_date"}

type seriesMeta struct {
	Symbol   string   `json:"symbol"`
	Interval string   `json:"interval"`
	Day      string   `json:"day"`
	Rows     int      `json:"rows"`
	Columns  []string `json:"columns"`
}

type chainMeta struct {
	Symbol         string            `json:"symbol"`
	ExpirationDate string            `json:"expiration_date"`
	CachedAt       string            `json:"cached_at"`
	CallsRows      int               `json:"calls_rows"`
	PutsRows       int               `json:"puts_rows"`
	CallsColumns   []string          `json:"calls_columns"`
	PutsColumns    []string          `json:"puts_columns"`
	Underlying     domain.Underlying `json:"underlying"`
}

// ---------------------------------------------------------------------------
// Path layout
// ---------------------------------------------------------------------------

// seriesDir returns <root>/<SYMBOL>/<interval>/<YYYY>/<MM>.
func (c *FSCache) seriesDir(k SeriesKey) string {
	return filepath.Join(c.Root, k.Symbol, k.Interval,
		fmt.Sprintf("%04d", k.Day.Year()), fmt.Sprintf("%02d", int(k.Day.Month())))
}

func (c *FSCache) seriesDataPath(k SeriesKey) string {
	return filepath.Join(c.seriesDir(k), k.Day.Format("2006-01-02")+"-"+k.Interval+".parquet")
}

func (c *FSCache) seriesMetaPath(k SeriesKey) string {
	return filepath.Join(c.seriesDir(k), k.Day.Format("2006-01-02")+"-"+k.Interval+".json")
}

// optionsDir returns <root>/<SYMBOL>/options/<expiration>.
func (c *FSCache) optionsDir(symbol, expiration string) string {
	return filepath.Join(c.Root, Sanitize(symbol), "options", expiration)
}

// chainPaths resolves the calls, puts, and metadata paths for a snapshot
// key. Current-slot snapshots live directly under the expiration
// directory; historical snapshots are bucketed by date with a
// time-of-day suffix.
func (c *FSCache) chainPaths(k SnapshotKey) (calls, puts, meta string) {
	dir := c.optionsDir(k.Symbol, k.Expiration)
	if !k.Historical() {
		return filepath.Join(dir, "calls.parquet"),
			filepath.Join(dir, "puts.parquet"),
			filepath.Join(dir, "metadata.json")
	}
	hhmmss := k.Timestamp.Format("150405")
	dir = filepath.Join(dir, "historical", k.Timestamp.Format("2006-01-02"))
	return filepath.Join(dir, "calls_"+hhmmss+".parquet"),
		filepath.Join(dir, "puts_"+hhmmss+".parquet"),
		filepath.Join(dir, "metadata_"+hhmmss+".json")
}

// ---------------------------------------------------------------------------
// Series entries
// ---------------------------------------------------------------------------

// Has reports whether a day entry exists, judged by the presence of the
// primary data artifact.
func (c *FSCache) Has(k SeriesKey) bool {
	_, err := os.Stat(c.seriesDataPath(k))
	return err == nil
}

// Load returns the cached day table for the key, or nil when the entry
// does not exist. Read failures on an existing entry are returned as
// errors, never interpreted as a miss.
func (c *FSCache) Load(k SeriesKey) (series.Series, error) {
	path := c.seriesDataPath(k)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("probing cache entry %s: %w", path, err)
	}

	records, err := parquet.ReadFile[BarRecord](path)
	if err != nil {
		return nil, fmt.Errorf("reading cache entry %s: %w", path, err)
	}

	out := make(series.Series, 0, len(records))
	for _, r := range records {
		out = append(out, domain.Bar{
			Symbol:     r.Symbol,
			Timestamp:  time.UnixMilli(r.Timestamp).UTC(),
			Open:       r.Open,
			High:       r.High,
			Low:        r.Low,
			Close:      r.Close,
			Volume:     r.Volume,
			TradeCount: r.TradeCount,
			VWAP:       r.VWAP,
		})
	}
	return out, nil
}

// Store persists a day table and its sidecar metadata. Storing an empty
// table is a no-op so that empty provider responses never poison the
// cache. A later store for the same key fully overwrites the entry.
func (c *FSCache) Store(k SeriesKey, s series.Series) error {
	if len(s) == 0 {
		return nil
	}

	if err := os.MkdirAll(c.seriesDir(k), 0o755); err != nil {
		return fmt.Errorf("creating cache dir for %s/%s: %w", k.Symbol, k.Interval, err)
	}

	records := make([]BarRecord, 0, len(s))
	for _, b := range s {
		records = append(records, BarRecord{
			Symbol:     b.Symbol,
			Timestamp:  b.Timestamp.UnixMilli(),
			Open:       b.Open,
			High:       b.High,
			Low:        b.Low,
			Close:      b.Close,
			Volume:     b.Volume,
			TradeCount: b.TradeCount,
			VWAP:       b.VWAP,
		})
	}

	if err := parquet.WriteFile(c.seriesDataPath(k), records); err != nil {
		return fmt.Errorf("writing cache entry for %s/%s/%s: %w",
			k.Symbol, k.Interval, k.Day.Format("2006-01-02"), err)
	}

	meta := seriesMeta{
		Symbol:   k.Symbol,
		Interval: k.Interval,
		Day:      k.Day.Format("2006-01-02"),
		Rows:     len(records),
		Columns:  barColumns,
	}
	return writeJSON(c.seriesMetaPath(k), meta)
}

// ---------------------------------------------------------------------------
// Option-chain snapshots
// ---------------------------------------------------------------------------

// HasChain reports whether a complete snapshot (calls, puts, and
// metadata) exists under the key.
func (c *FSCache) HasChain(k SnapshotKey) bool {
	calls, puts, meta := c.chainPaths(k)
	for _, p := range []string{calls, puts, meta} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// LoadChain returns the snapshot stored under the key, or nil when no
// complete snapshot exists.
func (c *FSCache) LoadChain(k SnapshotKey) (*domain.OptionChain, error) {
	if !c.HasChain(k) {
		return nil, nil
	}
	callsPath, putsPath, metaPath := c.chainPaths(k)

	calls, err := readOptionTable(callsPath)
	if err != nil {
		return nil, err
	}
	puts, err := readOptionTable(putsPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot metadata %s: %w", metaPath, err)
	}
	var meta chainMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decoding snapshot metadata %s: %w", metaPath, err)
	}

	return &domain.OptionChain{Calls: calls, Puts: puts, Underlying: meta.Underlying}, nil
}

// StoreChain persists an option-chain snapshot under the key. Empty
// call or put tables are skipped, so a snapshot is only ever complete
// when both sides held data; metadata (including the underlying record)
// is always written. For historical keys cached_at is the key's own
// timestamp, otherwise the current time.
func (c *FSCache) StoreChain(k SnapshotKey, chain domain.OptionChain) error {
	callsPath, putsPath, metaPath := c.chainPaths(k)
	if err := os.MkdirAll(filepath.Dir(metaPath), 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir for %s/%s: %w", k.Symbol, k.Expiration, err)
	}

	if len(chain.Calls) > 0 {
		if err := writeOptionTable(callsPath, chain.Calls); err != nil {
			return err
		}
	}
	if len(chain.Puts) > 0 {
		if err := writeOptionTable(putsPath, chain.Puts); err != nil {
			return err
		}
	}

	cachedAt := k.Timestamp
	if cachedAt.IsZero() {
		cachedAt = c.now().UTC()
	}

	meta := chainMeta{
		Symbol:         k.Symbol,
		ExpirationDate: k.Expiration,
		CachedAt:       cachedAt.Format(time.RFC3339),
		CallsRows:      len(chain.Calls),
		PutsRows:       len(chain.Puts),
		Underlying:     chain.Underlying,
	}
	if len(chain.Calls) > 0 {
		meta.CallsColumns = optionColumns
	}
	if len(chain.Puts) > 0 {
		meta.PutsColumns = optionColumns
	}
	return writeJSON(metaPath, meta)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing metadata %s: %w", path, err)
	}
	return nil
}

func writeOptionTable(path string, contracts []domain.OptionContract) error {
	records := make([]OptionRecord, 0, len(contracts))
	for _, oc := range contracts {
		rec := OptionRecord{
			ContractSymbol:    oc.ContractSymbol,
			Strike:            oc.Strike,
			LastPrice:         oc.LastPrice,
			Bid:               oc.Bid,
			Ask:               oc.Ask,
			ImpliedVolatility: oc.ImpliedVolatility,
		}
		if !oc.LastTradeDate.IsZero() {
			rec.LastTradeDate = oc.LastTradeDate.UnixMilli()
		}
		records = append(records, rec)
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("writing option table %s: %w", path, err)
	}
	return nil
}

func readOptionTable(path string) ([]domain.OptionContract, error) {
	records, err := parquet.ReadFile[OptionRecord](path)
	if err != nil {
		return nil, fmt.Errorf("reading option table %s: %w", path, err)
	}
	out := make([]domain.OptionContract, 0, len(records))
	for _, r := range records {
		oc := domain.OptionContract{
			ContractSymbol:    r.ContractSymbol,
			Strike:            r.Strike,
			LastPrice:         r.LastPrice,
			Bid:               r.Bid,
			Ask:               r.Ask,
			ImpliedVolatility: r.ImpliedVolatility,
		}
		if r.LastTradeDate != 0 {
			oc.LastTradeDate = time.UnixMilli(r.LastTradeDate).UTC()
		}
		out = append(out, oc)
	}
	return out, nil
}
