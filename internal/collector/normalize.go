package collector

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"PremarketScanner/internal/model"
)

// Normalize flattens a raw provider frame into a single-level bar series.
// Close, Open, High and Low must resolve to exactly one column; Volume may be
// missing and is then filled with NaN. Rows without a finite close are dropped.
func Normalize(frame *RawFrame) (model.BarSeries, error) {
	if frame == nil || len(frame.Timestamps) == 0 {
		return model.BarSeries{}, fmt.Errorf("%w: empty frame", ErrNoData)
	}
	series := model.BarSeries{Symbol: frame.Symbol}

	closes, err := resolveColumn(frame, "close", true)
	if err != nil {
		return series, err
	}
	opens, err := resolveColumn(frame, "open", true)
	if err != nil {
		return series, err
	}
	highs, err := resolveColumn(frame, "high", true)
	if err != nil {
		return series, err
	}
	lows, err := resolveColumn(frame, "low", true)
	if err != nil {
		return series, err
	}
	volumes, err := resolveColumn(frame, "volume", false)
	if err != nil {
		return series, err
	}

	byTime := make(map[int64]model.OHLCV, len(frame.Timestamps))
	for i, ts := range frame.Timestamps {
		c := closes[i]
		if math.IsNaN(c) || math.IsInf(c, 0) {
			continue
		}
		bar := model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   orClose(opens[i], c),
			High:   orClose(highs[i], c),
			Low:    orClose(lows[i], c),
			Close:  c,
			Volume: math.NaN(),
		}
		if volumes != nil {
			bar.Volume = volumes[i]
		}
		byTime[ts] = bar
	}
	if len(byTime) == 0 {
		return series, fmt.Errorf("%w: no bars with a close", ErrNoData)
	}

	series.Bars = make([]model.OHLCV, 0, len(byTime))
	for _, b := range byTime {
		series.Bars = append(series.Bars, b)
	}
	sort.Slice(series.Bars, func(i, j int) bool { return series.Bars[i].Time.Before(series.Bars[j].Time) })
	return series, nil
}

func resolveColumn(frame *RawFrame, field string, required bool) ([]float64, error) {
	var candidates []RawColumn
	for _, col := range frame.Columns {
		if hasLevel(withoutSymbol(col.Path, frame.Symbol), field) {
			candidates = append(candidates, col)
		}
	}

	if len(candidates) > 1 && frame.Symbol != "" {
		var bySymbol []RawColumn
		for _, col := range candidates {
			if hasLevel(col.Path, frame.Symbol) {
				bySymbol = append(bySymbol, col)
			}
		}
		if len(bySymbol) > 0 {
			candidates = bySymbol
		}
	}

	switch {
	case len(candidates) == 0:
		if required {
			return nil, fmt.Errorf("%w: column %q missing", ErrNoData, field)
		}
		return nil, nil
	case len(candidates) > 1:
		first := toFloats(candidates[0].Values)
		for _, col := range candidates[1:] {
			if !sameFloats(first, toFloats(col.Values)) {
				return nil, fmt.Errorf("%w: column %q is ambiguous (%d candidates)", ErrNoData, field, len(candidates))
			}
		}
	}

	values := toFloats(candidates[0].Values)
	if len(values) != len(frame.Timestamps) {
		return nil, fmt.Errorf("%w: column %q has %d values for %d timestamps",
			ErrNoData, field, len(values), len(frame.Timestamps))
	}
	return values, nil
}

func hasLevel(path []string, name string) bool {
	for _, p := range path {
		if strings.EqualFold(strings.TrimSpace(p), name) {
			return true
		}
	}
	return false
}

// withoutSymbol drops the symbol level from a multi-level path so that tickers
// like LOW or HIGH are not mistaken for field names.
func withoutSymbol(path []string, symbol string) []string {
	if len(path) < 2 || symbol == "" {
		return path
	}
	out := make([]string, 0, len(path))
	dropped := false
	for _, p := range path {
		if !dropped && strings.EqualFold(strings.TrimSpace(p), symbol) {
			dropped = true
			continue
		}
		out = append(out, p)
	}
	return out
}

func toFloats(values []any) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = toFloat(v)
	}
	return out
}

func sameFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.IsNaN(a[i]) && math.IsNaN(b[i]) {
			continue
		}
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// toFloat converts a loosely typed provider value. Missing values become NaN.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case nil:
		return math.NaN()
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func orClose(v, c float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return c
	}
	return v
}
