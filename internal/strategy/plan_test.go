package strategy

import (
	"errors"
	"testing"

	"PremarketScanner/internal/model"
)

func mustBuilder(t *testing.T, s PlanStrategy) *PlanBuilder {
	t.Helper()
	b, err := NewPlanBuilder(s)
	if err != nil {
		t.Fatalf("new builder: %v", err)
	}
	return b
}

func TestBuild_ATRScaled(t *testing.T) {
	b := mustBuilder(t, ATRScaled)
	tests := []struct {
		bias                        model.Bias
		buyLow, buyHigh, tgt, stop float64
	}{
		// ATR 2%: entry 0.7%, target 2.2%, stop 1.4%
		{model.BiasCall, 99.30, 100, 102.20, 98.60},
		{model.BiasPut, 100, 100.70, 97.80, 101.40},
		{model.BiasNeutral, 99.65, 100.35, 102.20, 97.80},
	}
	for _, tt := range tests {
		plan, err := b.Build(100, tt.bias, f(2))
		if err != nil {
			t.Fatalf("%s: %v", tt.bias, err)
		}
		if plan.BuyLow != tt.buyLow || plan.BuyHigh != tt.buyHigh || plan.Target != tt.tgt || plan.Stop != tt.stop {
			t.Errorf("%s: got %+v", tt.bias, *plan)
		}
		if plan.Strategy != "atr" {
			t.Errorf("strategy %q", plan.Strategy)
		}
	}
}

func TestBuild_FixedPercent(t *testing.T) {
	b := mustBuilder(t, FixedPercent)
	plan, err := b.Build(200, model.BiasCall, nil)
	if err != nil {
		t.Fatal(err)
	}
	if plan.BuyLow != 199.6 || plan.BuyHigh != 200 || plan.Target != 200.6 || plan.Stop != 199.4 {
		t.Errorf("got %+v", *plan)
	}
}

func TestBuild_Directions(t *testing.T) {
	for _, s := range []PlanStrategy{FixedPercent, ATRScaled} {
		b := mustBuilder(t, s)
		last := 50.0

		call, _ := b.Build(last, model.BiasCall, f(3))
		if !(call.BuyHigh <= last && call.BuyLow < last && call.Target > last && call.Stop < last) {
			t.Errorf("%s CALL: %+v", s, *call)
		}
		put, _ := b.Build(last, model.BiasPut, f(3))
		if !(put.BuyLow >= last && put.BuyHigh > last && put.Target < last && put.Stop > last) {
			t.Errorf("%s PUT: %+v", s, *put)
		}
		neutral, _ := b.Build(last, model.BiasNeutral, f(3))
		if !(neutral.BuyLow < last && neutral.BuyHigh > last) {
			t.Errorf("%s NEUTRAL: %+v", s, *neutral)
		}
		if up, down := neutral.Target-last, last-neutral.Stop; up-down > 0.011 || down-up > 0.011 {
			t.Errorf("%s NEUTRAL target/stop not symmetric: %+v", s, *neutral)
		}
	}
}

func TestBuild_ATRWithoutVolatility(t *testing.T) {
	b := mustBuilder(t, ATRScaled)
	if _, err := b.Build(100, model.BiasCall, nil); !errors.Is(err, ErrNoVolatility) {
		t.Errorf("expected ErrNoVolatility, got %v", err)
	}
	if _, err := mustBuilder(t, FixedPercent).Build(100, model.BiasCall, nil); err != nil {
		t.Errorf("fixed strategy must not need ATR: %v", err)
	}
}

func TestBuild_InvalidInput(t *testing.T) {
	if _, err := mustBuilder(t, FixedPercent).Build(0, model.BiasCall, nil); err == nil {
		t.Error("expected error for zero price")
	}
	if _, err := NewPlanBuilder("martingale"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestBuild_SubDollarKeepsPrecision(t *testing.T) {
	plan, err := mustBuilder(t, FixedPercent).Build(0.5, model.BiasCall, nil)
	if err != nil {
		t.Fatal(err)
	}
	if plan.BuyLow != 0.499 || plan.Target != 0.5015 {
		t.Errorf("got %+v", *plan)
	}
}
