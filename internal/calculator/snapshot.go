package calculator

import (
	"fmt"
	"math"

	"PremarketScanner/internal/model"
)

// WindowPolicy decides indicator lookbacks for a series.
type WindowPolicy int

const (
	// Standard always uses the textbook windows; short series yield nil indicators.
	Standard WindowPolicy = iota
	// Adaptive shrinks windows in proportion to the bars available, down to
	// minAdaptiveWindow, so short intraday series still produce readings.
	Adaptive
)

const minAdaptiveWindow = 5

func (p WindowPolicy) String() string {
	if p == Adaptive {
		return "adaptive"
	}
	return "standard"
}

// ParsePolicy maps a config value to a policy. "auto" picks Adaptive for
// intraday series and Standard otherwise.
func ParsePolicy(setting string, intraday bool) (WindowPolicy, error) {
	switch setting {
	case "standard":
		return Standard, nil
	case "adaptive":
		return Adaptive, nil
	case "auto", "":
		if intraday {
			return Adaptive, nil
		}
		return Standard, nil
	default:
		return Standard, fmt.Errorf("unknown window policy %q", setting)
	}
}

// Windows holds indicator lookbacks.
type Windows struct {
	EMAFast    int
	EMASlow    int
	RSI        int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	ATR        int
	Volume     int
}

// StandardWindows are EMA 20/50, RSI 14, MACD 12/26/9, ATR 14, volume 20.
var StandardWindows = Windows{
	EMAFast: 20, EMASlow: 50, RSI: 14,
	MACDFast: 12, MACDSlow: 26, MACDSignal: 9,
	ATR: 14, Volume: 20,
}

// For returns the windows to use for n bars under policy p. A window that
// cannot be shrunk far enough keeps its standard size, which then reports
// insufficient data.
func (p WindowPolicy) For(n int) Windows {
	w := StandardWindows
	if p != Adaptive {
		return w
	}
	w.EMAFast, w.EMASlow = shrinkEMA(w.EMAFast, w.EMASlow, n)
	w.RSI = shrink(w.RSI, w.RSI+1, n)
	w.ATR = shrink(w.ATR, w.ATR, n)
	w.Volume = shrink(w.Volume, w.Volume, n)

	need := w.MACDSlow + w.MACDSignal
	if n < need {
		fast := max(2, int(math.Round(float64(w.MACDFast*n)/float64(need))))
		slow := int(math.Round(float64(w.MACDSlow*n) / float64(need)))
		sig := max(2, int(math.Round(float64(w.MACDSignal*n)/float64(need))))
		if slow >= minAdaptiveWindow && slow > fast && slow+sig <= n {
			w.MACDFast, w.MACDSlow, w.MACDSignal = fast, slow, sig
		}
	}
	return w
}

// shrinkEMA scales both EMA windows by the same factor n/slow so the fast
// one stays shorter. When they cannot be kept apart both keep their
// standard sizes.
func shrinkEMA(fast, slow, n int) (int, int) {
	if n >= slow {
		return fast, slow
	}
	f := max(minAdaptiveWindow, int(math.Round(float64(fast*n)/float64(slow))))
	if f >= n {
		return fast, slow
	}
	return f, n
}

func shrink(std, need, n int) int {
	if n >= need {
		return std
	}
	s := std * n / need
	if s < minAdaptiveWindow {
		return std
	}
	return s
}

// Compute builds the last-row indicator snapshot for bars. Indicators whose
// window does not fit are left nil.
func Compute(bars []model.OHLCV, policy WindowPolicy) model.IndicatorSnapshot {
	w := policy.For(len(bars))
	snap := model.IndicatorSnapshot{Bars: len(bars), Policy: policy.String()}
	closes := extractCloses(bars)

	snap.EMA20 = opt(CalculateEMA(closes, w.EMAFast))
	snap.EMA50 = opt(CalculateEMA(closes, w.EMASlow))
	snap.RSI14 = opt(CalculateRSI(bars, w.RSI))
	snap.MACDHist = opt(CalculateMACDHist(bars, w.MACDFast, w.MACDSlow, w.MACDSignal))
	snap.ATRPercent = opt(CalculateATRPercent(bars, w.ATR))
	snap.VolumeRatio = opt(CalculateVolumeRatio(bars, w.Volume))
	return snap
}

func opt(v float64, err error) *float64 {
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
