package calculator

import (
	"errors"

	"PremarketScanner/internal/model"
)

// CalculateATRPercent returns the mean bar range (High-Low) over period bars
// divided by the mean close over the same bars, as a percentage.
func CalculateATRPercent(bars []model.OHLCV, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(bars) < period {
		return 0, ErrInsufficientData
	}
	var rangeSum, closeSum float64
	for _, b := range bars[len(bars)-period:] {
		rangeSum += b.High - b.Low
		closeSum += b.Close
	}
	if closeSum <= 0 {
		return 0, errors.New("mean close is not positive")
	}
	return rangeSum / closeSum * 100, nil
}
