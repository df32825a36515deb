package strategy

import "PremarketScanner/internal/model"

// HighVolatilityATR is the ATR% at which an analysis is always high risk.
const HighVolatilityATR = 4.0

// RiskLabel annotates an analysis. The base tier comes from the selected
// option contract: no pick attempted is Medium, a pick without a contract is
// High. High volatility or earnings inside the window force High, and so
// does a headline score at NewsCap in either direction.
func RiskLabel(pick *model.OptionPick, atrPct *float64, earningsInWindow bool, news int) model.RiskLevel {
	level := model.RiskMedium
	if pick != nil {
		if pick.OK() {
			level = pick.Contract.Risk()
		} else {
			level = model.RiskHigh
		}
	}
	if earningsInWindow || (atrPct != nil && *atrPct >= HighVolatilityATR) {
		level = model.RiskHigh
	}
	if n := ClampNews(news); n >= NewsCap || n <= -NewsCap {
		level = model.RiskHigh
	}
	return level
}
