package calculator

import (
	"errors"

	"PremarketScanner/internal/model"
)

// CalculateVolumeRatio returns the latest volume divided by the average volume
// of the last period bars, the latest included. Bars without volume inside
// the window make the ratio unavailable.
func CalculateVolumeRatio(bars []model.OHLCV, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(bars) < period {
		return 0, ErrInsufficientData
	}
	var sum float64
	for _, b := range bars[len(bars)-period:] {
		if !b.HasVolume() {
			return 0, errors.New("volume missing in window")
		}
		sum += b.Volume
	}
	avg := sum / float64(period)
	if avg == 0 {
		return 0, errors.New("average volume is zero")
	}
	return bars[len(bars)-1].Volume / avg, nil
}

// CalculateAverageVolume returns the mean volume of the last period bars,
// skipping bars without volume.
func CalculateAverageVolume(bars []model.OHLCV, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(bars) < period {
		return 0, ErrInsufficientData
	}
	var sum float64
	var n int
	for _, b := range bars[len(bars)-period:] {
		if b.HasVolume() {
			sum += b.Volume
			n++
		}
	}
	if n == 0 {
		return 0, errors.New("no volume in window")
	}
	return sum / float64(n), nil
}
