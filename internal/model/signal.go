package model

import "fmt"

// Bias is the directional call produced by the classifier.
type Bias string

const (
	BiasCall    Bias = "CALL"
	BiasPut     Bias = "PUT"
	BiasNeutral Bias = "NEUTRAL"
)

// RiskLevel annotates how risky acting on an analysis is.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "Low"
	case RiskMedium:
		return "Medium"
	case RiskHigh:
		return "High"
	default:
		return fmt.Sprintf("RiskLevel(%d)", int(r))
	}
}

// FactorScore represents a single factor's contribution to the ranking score.
type FactorScore struct {
	Name       string
	RawScore   float64
	Weight     float64
	Weighted   float64
	Commentary string
}

// TradePlan holds derived price bands for acting on a bias.
type TradePlan struct {
	Strategy string
	BuyLow   float64
	BuyHigh  float64
	Target   float64
	Stop     float64
}
