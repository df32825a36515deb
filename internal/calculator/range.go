package calculator

import (
	"errors"
	"math"

	"PremarketScanner/internal/model"
)

// Calculate52WeekRange scans the most recent 252 trading days and returns the high and low.
func Calculate52WeekRange(dailyBars []model.OHLCV) (high, low float64, err error) {
	if len(dailyBars) == 0 {
		return 0, 0, errors.New("no daily bars provided")
	}
	n := len(dailyBars)
	start := n - 252
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if dailyBars[i].High > high {
			high = dailyBars[i].High
		}
		if dailyBars[i].Low < low {
			low = dailyBars[i].Low
		}
	}
	return high, low, nil
}

// CalculatePctChange returns the percent change of the last close versus the
// close n bars earlier.
func CalculatePctChange(bars []model.OHLCV, n int) (float64, error) {
	if n <= 0 {
		return 0, errors.New("n must be positive")
	}
	if len(bars) < n+1 {
		return 0, ErrInsufficientData
	}
	base := bars[len(bars)-1-n].Close
	if base == 0 {
		return 0, errors.New("base close is zero")
	}
	return (bars[len(bars)-1].Close/base - 1) * 100, nil
}
