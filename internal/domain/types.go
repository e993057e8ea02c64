// Package domain defines the market-data types shared across the module.
package domain

import "time"

// Bar is a single OHLCV aggregate for a symbol at a point in time.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// OptionContract is one row of an options-chain table.
type OptionContract struct {
	ContractSymbol    string
	Strike            float64
	LastPrice         float64
	Bid               float64
	Ask               float64
	ImpliedVolatility float64
	LastTradeDate     time.Time
}

// Underlying describes the underlying instrument at snapshot time.
// The zero value represents "no data", which is what option-chain
// requests degrade to when the provider is unavailable.
type Underlying struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	Timestamp     time.Time `json:"timestamp"`
}

// OptionChain is one point-in-time capture of an options chain for a
// single expiration: call contracts, put contracts, and the underlying.
type OptionChain struct {
	Calls      []OptionContract
	Puts       []OptionContract
	Underlying Underlying
}

// Empty reports whether the chain carries no data at all.
func (c OptionChain) Empty() bool {
	return len(c.Calls) == 0 && len(c.Puts) == 0 && c.Underlying == (Underlying{})
}
