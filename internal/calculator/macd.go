package calculator

import (
	"errors"

	"PremarketScanner/internal/model"
)

// CalculateMACDHist returns the last MACD histogram value: the MACD line
// (EMA fast minus EMA slow) minus its signal EMA. The signal line starts at
// the first bar where the slow EMA is defined, so slow+signal bars are needed.
func CalculateMACDHist(bars []model.OHLCV, fast, slow, signal int) (float64, error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return 0, errors.New("periods must be positive")
	}
	if fast >= slow {
		return 0, errors.New("fast period must be shorter than slow period")
	}
	if len(bars) < slow+signal {
		return 0, ErrInsufficientData
	}

	closes := extractCloses(bars)
	fastEMA := emaSeries(closes, fast)
	slowEMA := emaSeries(closes, slow)

	line := make([]float64, 0, len(closes)-slow+1)
	for i := slow - 1; i < len(closes); i++ {
		line = append(line, fastEMA[i]-slowEMA[i])
	}
	sig := emaSeries(line, signal)
	return line[len(line)-1] - sig[len(sig)-1], nil
}
