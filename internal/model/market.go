package model

import (
	"math"
	"time"
)

// OHLCV represents a single candlestick bar. Volume is NaN when the provider
// did not report it.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// HasVolume reports whether the bar carries a usable volume figure.
func (b OHLCV) HasVolume() bool {
	return !math.IsNaN(b.Volume) && !math.IsInf(b.Volume, 0)
}

// BarSeries holds bars for one symbol and one timeframe, ascending by time.
type BarSeries struct {
	Symbol   string
	Period   string
	Interval string
	Bars     []OHLCV
}

// Len returns the number of bars in the series.
func (s BarSeries) Len() int { return len(s.Bars) }

// Empty reports whether the series has no bars.
func (s BarSeries) Empty() bool { return len(s.Bars) == 0 }

// Last returns the most recent bar. Callers must check Empty first.
func (s BarSeries) Last() OHLCV { return s.Bars[len(s.Bars)-1] }
