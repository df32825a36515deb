package strategy

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"PremarketScanner/internal/model"
)

// ErrNoVolatility is returned by the ATR strategy when ATR% is unavailable.
var ErrNoVolatility = errors.New("atr percent unavailable")

// PlanStrategy names how trade bands are sized.
type PlanStrategy string

const (
	// FixedPercent uses small fixed bands for intraday scalps.
	FixedPercent PlanStrategy = "fixed"
	// ATRScaled sizes bands as multiples of ATR% for swing plans.
	ATRScaled PlanStrategy = "atr"
)

// Bands holds entry, target and stop distances. For FixedPercent they are
// percentages of price, for ATRScaled multiples of ATR%.
type Bands struct {
	Entry  float64
	Target float64
	Stop   float64
}

var (
	DefaultFixedBands = Bands{Entry: 0.2, Target: 0.3, Stop: 0.3}
	DefaultATRBands   = Bands{Entry: 0.35, Target: 1.10, Stop: 0.70}
)

// PlanBuilder derives trade plans with one strategy.
type PlanBuilder struct {
	Strategy PlanStrategy
	Bands    Bands
}

// NewPlanBuilder returns a builder with the default bands for strategy.
func NewPlanBuilder(strategy PlanStrategy) (*PlanBuilder, error) {
	switch strategy {
	case FixedPercent:
		return &PlanBuilder{Strategy: strategy, Bands: DefaultFixedBands}, nil
	case ATRScaled:
		return &PlanBuilder{Strategy: strategy, Bands: DefaultATRBands}, nil
	default:
		return nil, fmt.Errorf("unknown plan strategy %q", strategy)
	}
}

// Build derives buy range, target and stop from the last price and bias.
// CALL buys a pullback below price, PUT buys a bounce above it, NEUTRAL
// straddles price with a half-width range and a symmetric target and stop.
func (b *PlanBuilder) Build(last float64, bias model.Bias, atrPct *float64) (*model.TradePlan, error) {
	if last <= 0 {
		return nil, fmt.Errorf("last price must be positive, got %v", last)
	}

	scale := 1.0
	if b.Strategy == ATRScaled {
		if atrPct == nil || *atrPct <= 0 {
			return nil, ErrNoVolatility
		}
		scale = *atrPct
	}
	entry := b.Bands.Entry * scale / 100
	target := b.Bands.Target * scale / 100
	stop := b.Bands.Stop * scale / 100

	plan := &model.TradePlan{Strategy: string(b.Strategy)}
	switch bias {
	case model.BiasCall:
		plan.BuyLow, plan.BuyHigh = last*(1-entry), last
		plan.Target = last * (1 + target)
		plan.Stop = last * (1 - stop)
	case model.BiasPut:
		plan.BuyLow, plan.BuyHigh = last, last*(1+entry)
		plan.Target = last * (1 - target)
		plan.Stop = last * (1 + stop)
	default:
		plan.BuyLow, plan.BuyHigh = last*(1-entry/2), last*(1+entry/2)
		plan.Target = last * (1 + target)
		plan.Stop = last * (1 - target)
	}

	places := int32(2)
	if last < 1 {
		places = 4
	}
	plan.BuyLow = roundPrice(plan.BuyLow, places)
	plan.BuyHigh = roundPrice(plan.BuyHigh, places)
	plan.Target = roundPrice(plan.Target, places)
	plan.Stop = roundPrice(plan.Stop, places)
	return plan, nil
}

func roundPrice(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
