package provider

import (
	"errors"
	"testing"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

func TestTimeFrame(t *testing.T) {
	cases := []struct {
		interval string
		want     marketdata.TimeFrame
	}{
		{"1m", marketdata.NewTimeFrame(1, marketdata.Min)},
		{"15m", marketdata.NewTimeFrame(15, marketdata.Min)},
		{"1h", marketdata.NewTimeFrame(1, marketdata.Hour)},
		{"4h", marketdata.NewTimeFrame(4, marketdata.Hour)},
		{"1d", marketdata.NewTimeFrame(1, marketdata.Day)},
		{"1wk", marketdata.NewTimeFrame(1, marketdata.Week)},
		{"1mo", marketdata.NewTimeFrame(1, marketdata.Month)},
		{"3mo", marketdata.NewTimeFrame(3, marketdata.Month)},
		{"", marketdata.OneDay},
		{" 1D ", marketdata.NewTimeFrame(1, marketdata.Day)},
	}
	for _, tc := range cases {
		got, err := timeFrame(tc.interval)
		if err != nil {
			t.Errorf("timeFrame(%q) returned error: %v", tc.interval, err)
			continue
		}
		if got != tc.want {
			t.Errorf("timeFrame(%q) = %+v, want %+v", tc.interval, got, tc.want)
		}
	}
}

func TestTimeFrameRejectsInvalid(t *testing.T) {
	for _, interval := range []string{"1x", "0d", "-1d", "xd", "d1", "1"} {
		if _, err := timeFrame(interval); err == nil {
			t.Errorf("timeFrame(%q) accepted an invalid interval", interval)
		}
	}
}

func TestIntradayFrame(t *testing.T) {
	cases := []struct {
		tf   marketdata.TimeFrame
		want bool
	}{
		{marketdata.NewTimeFrame(5, marketdata.Min), true},
		{marketdata.NewTimeFrame(1, marketdata.Hour), true},
		{marketdata.OneDay, false},
		{marketdata.NewTimeFrame(1, marketdata.Week), false},
		{marketdata.NewTimeFrame(1, marketdata.Month), false},
	}
	for _, tc := range cases {
		if got := intradayFrame(tc.tf); got != tc.want {
			t.Errorf("intradayFrame(%+v) = %v, want %v", tc.tf, got, tc.want)
		}
	}
}

func TestUnavailable(t *testing.T) {
	cases := []struct {
		msg  string
		want bool
	}{
		{"data not available for this range", true},
		{"requested window is too old", true},
		{"your subscription does not permit querying sip data", true},
		{"historical data is not available before 2016", true},
		{"NOT AVAILABLE", true},
		{"connection reset by peer", false},
		{"401 unauthorized", false},
		{"rate limit exceeded", false},
	}
	for _, tc := range cases {
		if got := unavailable(errors.New(tc.msg)); got != tc.want {
			t.Errorf("unavailable(%q) = %v, want %v", tc.msg, got, tc.want)
		}
	}
}

func TestParseOCC(t *testing.T) {
	cases := []struct {
		symbol     string
		root       string
		expiration string
		put        bool
		strike     float64
	}{
		{"AAPL240621C00190000", "AAPL", "2024-06-21", false, 190},
		{"AAPL240621P00190000", "AAPL", "2024-06-21", true, 190},
		{"SPY231215C00450500", "SPY", "2023-12-15", false, 450.5},
		{"F250117P00012000", "F", "2025-01-17", true, 12},
		{"BRKB240119C00380000", "BRKB", "2024-01-19", false, 380},
		{"TSLA240202C00187500", "TSLA", "2024-02-02", false, 187.5},
	}
	for _, tc := range cases {
		got, err := parseOCC(tc.symbol)
		if err != nil {
			t.Errorf("parseOCC(%q) returned error: %v", tc.symbol, err)
			continue
		}
		if got.root != tc.root {
			t.Errorf("parseOCC(%q).root = %q, want %q", tc.symbol, got.root, tc.root)
		}
		if got.expiration != tc.expiration {
			t.Errorf("parseOCC(%q).expiration = %q, want %q", tc.symbol, got.expiration, tc.expiration)
		}
		if got.put != tc.put {
			t.Errorf("parseOCC(%q).put = %v, want %v", tc.symbol, got.put, tc.put)
		}
		if got.strike != tc.strike {
			t.Errorf("parseOCC(%q).strike = %v, want %v", tc.symbol, got.strike, tc.strike)
		}
	}
}

func TestParseOCCRejectsMalformed(t *testing.T) {
	for _, symbol := range []string{
		"",
		"AAPL",
		"AAPL240621X00190000", // no C/P flag
		"AAPL249921C00190000", // month 99
		"AAPL240621C0019000x", // non-numeric strike
	} {
		if _, err := parseOCC(symbol); err == nil {
			t.Errorf("parseOCC(%q) accepted a malformed symbol", symbol)
		}
	}
}
