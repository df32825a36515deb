package strategy

import (
	"fmt"

	"PremarketScanner/internal/model"
)

// RSI extremes used when the EMA stack is not strictly ordered.
const (
	RSIOverbought = 65.0
	RSIOversold   = 35.0
)

// ClassifierInput holds the values the bias rules look at. Nil means the
// indicator was not available and carries no opinion.
type ClassifierInput struct {
	Last     float64
	EMA20    *float64
	EMA50    *float64
	MACDHist *float64
	RSI      *float64
}

// InputFromSnapshot builds classifier input from an indicator snapshot.
func InputFromSnapshot(last float64, snap model.IndicatorSnapshot) ClassifierInput {
	return ClassifierInput{
		Last:     last,
		EMA20:    snap.EMA20,
		EMA50:    snap.EMA50,
		MACDHist: snap.MACDHist,
		RSI:      snap.RSI14,
	}
}

// Classify applies the trend rule, then the RSI-extreme rule, and otherwise
// returns NEUTRAL. It is a pure function of its input.
//
// Trend rule: CALL when last > EMA20 > EMA50 and MACD hist is nil or >= 0;
// PUT when last < EMA20 < EMA50 and MACD hist is nil or <= 0.
// RSI rule (only when the EMAs are not strictly ordered): RSI >= 65 with
// MACD hist nil or >= 0 is CALL, RSI <= 35 with MACD hist nil or <= 0 is PUT.
func Classify(in ClassifierInput) (model.Bias, string) {
	if in.EMA20 == nil && in.EMA50 == nil && in.RSI == nil {
		return model.BiasNeutral, "insufficient data: no EMA or RSI readings"
	}

	macdOK := func(wantPositive bool) bool {
		if in.MACDHist == nil {
			return true
		}
		if wantPositive {
			return *in.MACDHist >= 0
		}
		return *in.MACDHist <= 0
	}

	if in.EMA20 != nil && in.EMA50 != nil {
		e20, e50 := *in.EMA20, *in.EMA50
		up := in.Last > e20 && e20 > e50
		down := in.Last < e20 && e20 < e50
		switch {
		case up && macdOK(true):
			return model.BiasCall, fmt.Sprintf("trend rule: last %.2f > EMA20 %.2f > EMA50 %.2f, MACD hist %s",
				in.Last, e20, e50, fmtOpt(in.MACDHist, "%.4f"))
		case down && macdOK(false):
			return model.BiasPut, fmt.Sprintf("trend rule: last %.2f < EMA20 %.2f < EMA50 %.2f, MACD hist %s",
				in.Last, e20, e50, fmtOpt(in.MACDHist, "%.4f"))
		case up || down:
			return model.BiasNeutral, fmt.Sprintf("trend/momentum conflict: EMAs ordered %s but MACD hist %.4f disagrees",
				direction(up), *in.MACDHist)
		}
	}

	if in.RSI != nil {
		rsi := *in.RSI
		switch {
		case rsi >= RSIOverbought && macdOK(true):
			return model.BiasCall, fmt.Sprintf("RSI rule: RSI %.1f >= %.0f, MACD hist %s",
				rsi, RSIOverbought, fmtOpt(in.MACDHist, "%.4f"))
		case rsi <= RSIOversold && macdOK(false):
			return model.BiasPut, fmt.Sprintf("RSI rule: RSI %.1f <= %.0f, MACD hist %s",
				rsi, RSIOversold, fmtOpt(in.MACDHist, "%.4f"))
		}
	}

	return model.BiasNeutral, fmt.Sprintf("no rule fired: last %.2f, EMA20 %s, EMA50 %s, RSI %s, MACD hist %s",
		in.Last, fmtOpt(in.EMA20, "%.2f"), fmtOpt(in.EMA50, "%.2f"),
		fmtOpt(in.RSI, "%.1f"), fmtOpt(in.MACDHist, "%.4f"))
}

func direction(up bool) string {
	if up {
		return "up"
	}
	return "down"
}

func fmtOpt(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}
