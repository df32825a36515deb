package strategy

import (
	"fmt"
	"math"

	"PremarketScanner/internal/model"
)

// Factor weights for the ranking score.
const (
	weightTrend    = 2.0
	weightMomentum = 1.5
	weightRSI      = 1.0
	weightVolume   = 1.2
	weightNews     = 1.0

	// NewsCap bounds the headline factor in either direction.
	NewsCap = 2
)

// Score computes the composite ranking score. Missing indicators contribute
// zero. The volume surge bonus adds magnitude in the direction of the
// indicator factors and never flips their sign. news is the raw headline
// score, clamped to NewsCap.
func Score(last float64, snap model.IndicatorSnapshot, news int) ([]model.FactorScore, float64) {
	trend := scoreTrend(last, snap)
	momentum := scoreMomentum(snap)
	rsi := scoreRSI(snap)
	base := trend.Weighted + momentum.Weighted + rsi.Weighted
	volume := scoreVolumeSurge(snap, base)
	headlines := factor("news", float64(ClampNews(news)), weightNews, fmt.Sprintf("headlines %+d", news))

	factors := []model.FactorScore{trend, momentum, rsi, volume, headlines}
	total := 0.0
	for _, f := range factors {
		total += f.Weighted
	}
	return factors, total
}

// ScoreBias maps a score sign to a direction.
func ScoreBias(score float64) model.Bias {
	switch {
	case score > 0:
		return model.BiasCall
	case score < 0:
		return model.BiasPut
	default:
		return model.BiasNeutral
	}
}

// ClampNews bounds a raw headline score to [-NewsCap, NewsCap].
func ClampNews(raw int) int {
	return max(-NewsCap, min(NewsCap, raw))
}

func factor(name string, raw, weight float64, commentary string) model.FactorScore {
	return model.FactorScore{Name: name, RawScore: raw, Weight: weight, Weighted: raw * weight, Commentary: commentary}
}

func scoreTrend(last float64, snap model.IndicatorSnapshot) model.FactorScore {
	if snap.EMA20 == nil || snap.EMA50 == nil {
		return factor("trend", 0, weightTrend, "EMA n/a")
	}
	e20, e50 := *snap.EMA20, *snap.EMA50
	switch {
	case last > e20 && e20 > e50:
		return factor("trend", 2, weightTrend, "price > EMA20 > EMA50")
	case last < e20 && e20 < e50:
		return factor("trend", -2, weightTrend, "price < EMA20 < EMA50")
	default:
		return factor("trend", 0, weightTrend, "mixed")
	}
}

func scoreMomentum(snap model.IndicatorSnapshot) model.FactorScore {
	if snap.MACDHist == nil {
		return factor("momentum", 0, weightMomentum, "MACD n/a")
	}
	h := *snap.MACDHist
	switch {
	case h > 0:
		return factor("momentum", 1, weightMomentum, fmt.Sprintf("MACD hist %+.4f", h))
	case h < 0:
		return factor("momentum", -1, weightMomentum, fmt.Sprintf("MACD hist %+.4f", h))
	default:
		return factor("momentum", 0, weightMomentum, "MACD flat")
	}
}

func scoreRSI(snap model.IndicatorSnapshot) model.FactorScore {
	if snap.RSI14 == nil {
		return factor("rsi", 0, weightRSI, "RSI n/a")
	}
	return factor("rsi", (*snap.RSI14-50)/10, weightRSI, fmt.Sprintf("RSI %.1f", *snap.RSI14))
}

func scoreVolumeSurge(snap model.IndicatorSnapshot, base float64) model.FactorScore {
	if snap.VolumeRatio == nil {
		return factor("volume", 0, weightVolume, "volume n/a")
	}
	r := *snap.VolumeRatio
	var surge float64
	switch {
	case r > 2:
		surge = 2
	case r > 1.5:
		surge = 1
	}
	if base == 0 {
		surge = 0
	}
	return factor("volume", surge*sign(base), weightVolume, fmt.Sprintf("%.2fx avg", r))
}

func sign(v float64) float64 {
	if v == 0 {
		return 0
	}
	return math.Copysign(1, v)
}
