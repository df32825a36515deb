package calculator

import (
	"errors"

	"PremarketScanner/internal/model"
)

// ErrInsufficientData means the series is shorter than the indicator window.
var ErrInsufficientData = errors.New("not enough data")

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, ErrInsufficientData
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalculateEMA returns the last value of the exponential moving average of
// prices. The recursion is seeded with the first price and uses
// alpha = 2/(period+1). At least period prices are required.
func CalculateEMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, ErrInsufficientData
	}
	series := emaSeries(prices, period)
	return series[len(series)-1], nil
}

func emaSeries(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	if len(prices) == 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)
	out[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		out[i] = alpha*prices[i] + (1-alpha)*out[i-1]
	}
	return out
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
