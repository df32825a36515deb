package model

import "time"

// TickerAnalysis is the full per-symbol pipeline result.
type TickerAnalysis struct {
	Symbol     string
	Period     string
	Interval   string
	LastPrice  float64
	Change1D   *float64
	Change5D   *float64
	Change1M   *float64
	High52w    *float64
	Low52w     *float64
	Indicators IndicatorSnapshot
	Bias       Bias
	Rationale  string
	Plan       *TradePlan
	Option     *OptionPick
	Earnings   *EarningsRecord
	News       *NewsSignal
	Factors    []FactorScore
	Score      float64
	// ScoreBias is the direction implied by the sign of Score. Rankings
	// are reported in this direction; Bias keeps the rule-based reading.
	ScoreBias  Bias
	Risk       RiskLevel
	AnalyzedAt time.Time
}

// NewsSignal is the keyword sentiment of recent headlines. Score is the
// raw positive minus negative headline count.
type NewsSignal struct {
	Score     int
	Headlines int
	Top       string
	Note      string
}

// EarningsRecord is the resolved earnings date for a symbol.
type EarningsRecord struct {
	Symbol   string
	Date     *time.Time
	Source   string
	InWindow bool
	Note     string
}

// Resolved reports whether a date was found.
func (r EarningsRecord) Resolved() bool { return r.Date != nil }

// SymbolError records why a symbol was left out of a ranking.
type SymbolError struct {
	Symbol string
	Reason string
	Detail string
}

// RankedResult is the outcome of ranking a universe.
type RankedResult struct {
	Ranked    []TickerAnalysis
	Errors    []SymbolError
	Requested int
	Analyzed  int
	Started   time.Time
	Finished  time.Time
}
