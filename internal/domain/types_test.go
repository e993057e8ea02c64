package domain

import (
	"testing"
	"time"
)

func TestZeroValues(t *testing.T) {
	// Verify Bar can be instantiated with zero values.
	bar := Bar{}
	if bar.Symbol != "" {
		t.Error("expected empty Symbol for zero-value Bar")
	}
	if !bar.Timestamp.IsZero() {
		t.Error("expected zero Timestamp for zero-value Bar")
	}
	if bar.Open != 0 || bar.High != 0 || bar.Low != 0 || bar.Close != 0 {
		t.Error("expected zero OHLC values for zero-value Bar")
	}
	if bar.Volume != 0 || bar.TradeCount != 0 || bar.VWAP != 0 {
		t.Error("expected zero Volume/TradeCount/VWAP for zero-value Bar")
	}

	// Verify OptionContract can be instantiated with zero values.
	oc := OptionContract{}
	if oc.ContractSymbol != "" {
		t.Error("expected empty ContractSymbol for zero-value OptionContract")
	}
	if oc.Strike != 0 || oc.Bid != 0 || oc.Ask != 0 {
		t.Error("expected zero prices for zero-value OptionContract")
	}
}

func TestOptionChainEmpty(t *testing.T) {
	if !(OptionChain{}).Empty() {
		t.Error("zero-value OptionChain should be empty")
	}

	withCalls := OptionChain{Calls: []OptionContract{{ContractSymbol: "AAPL240621C00190000"}}}
	if withCalls.Empty() {
		t.Error("chain with calls should not be empty")
	}

	withUnderlying := OptionChain{Underlying: Underlying{Symbol: "AAPL", Price: 190.5, Timestamp: time.Now()}}
	if withUnderlying.Empty() {
		t.Error("chain with underlying data should not be empty")
	}
}
