package collector

import (
	"context"
	"errors"
)

// ErrNoData is returned when no timeframe yields a usable series.
var ErrNoData = errors.New("no usable market data")

// RawColumn is one provider column. Path holds its header levels, e.g.
// ["close"] for flat frames or ["Close", "AAPL"] for multi-level frames.
type RawColumn struct {
	Path   []string
	Values []any
}

// RawFrame is provider output before normalization.
type RawFrame struct {
	Symbol     string
	Timestamps []int64
	Columns    []RawColumn
}

// Provider fetches raw bar tables from a market data vendor.
type Provider interface {
	FetchChart(ctx context.Context, symbol, period, interval string) (*RawFrame, error)
	Name() string
}

// Timeframe is one (period, interval) pair of the fallback ladder.
type Timeframe struct {
	Period   string
	Interval string
}

// DefaultLadder runs fine-grained to coarse.
var DefaultLadder = []Timeframe{
	{Period: "1d", Interval: "1m"},
	{Period: "5d", Interval: "5m"},
	{Period: "1mo", Interval: "1h"},
	{Period: "1y", Interval: "1d"},
}
