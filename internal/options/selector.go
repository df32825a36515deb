package options

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"PremarketScanner/internal/logger"
	"PremarketScanner/internal/model"
)

// ChainSource lists expirations and fetches chains from a provider.
type ChainSource interface {
	Expirations(ctx context.Context, symbol string) ([]string, error)
	Chain(ctx context.Context, symbol, expiration string) (model.OptionChain, error)
}

// Tier is one set of liquidity thresholds.
type Tier struct {
	MinVolume       int64
	MinOpenInterest int64
	MaxSpreadPct    float64
}

// Config controls expiration choice and liquidity tiers.
type Config struct {
	MinDTE  int
	MaxDTE  int
	Strict  Tier
	Relaxed Tier
}

// DefaultConfig targets 7-21 DTE with the standard strict and relaxed tiers.
var DefaultConfig = Config{
	MinDTE:  7,
	MaxDTE:  21,
	Strict:  Tier{MinVolume: 300, MinOpenInterest: 500, MaxSpreadPct: 8},
	Relaxed: Tier{MinVolume: 100, MinOpenInterest: 100, MaxSpreadPct: 12},
}

// Selector picks a liquid near-the-money contract. It never returns an
// error: every failure becomes a TierNone pick with a note.
type Selector struct {
	source ChainSource
	cfg    Config
	now    func() time.Time
	loc    *time.Location
	logger *logger.Logger
}

// NewSelector creates a Selector using the wall clock in loc.
func NewSelector(source ChainSource, cfg Config, loc *time.Location, log *logger.Logger) *Selector {
	if loc == nil {
		loc = time.UTC
	}
	return &Selector{source: source, cfg: cfg, now: time.Now, loc: loc, logger: log}
}

// WithClock replaces the clock used to compute days to expiration.
func (s *Selector) WithClock(now func() time.Time) *Selector {
	s.now = now
	return s
}

// Select chooses an expiration, fetches the chain for side and returns the
// closest-to-spot contract that passes the strict tier, else the relaxed tier.
func (s *Selector) Select(ctx context.Context, symbol string, side model.Bias, spot float64) model.OptionPick {
	pick := model.OptionPick{Side: side, Tier: model.TierNone}
	if side != model.BiasCall && side != model.BiasPut {
		pick.Note = "no directional bias"
		return pick
	}
	if spot <= 0 {
		pick.Note = "no spot price"
		return pick
	}

	exps, err := s.source.Expirations(ctx, symbol)
	if err != nil {
		s.logger.WithField("symbol", symbol).WithError(err).Debug("option expirations unavailable")
		pick.Note = fmt.Sprintf("chain unavailable: %v", err)
		return pick
	}
	if len(exps) == 0 {
		pick.Note = "no listed options"
		return pick
	}

	exp, dte, ok := ChooseExpiration(exps, s.now().In(s.loc), s.cfg.MinDTE, s.cfg.MaxDTE)
	if !ok {
		pick.Note = "no future expiration listed"
		return pick
	}
	pick.Expiration, pick.DTE = exp, dte

	chain, err := s.source.Chain(ctx, symbol, exp)
	if err != nil {
		s.logger.WithField("symbol", symbol).WithError(err).Debug("option chain unavailable")
		pick.Note = fmt.Sprintf("chain unavailable for %s: %v", exp, err)
		return pick
	}
	rows := chain.Calls
	if side == model.BiasPut {
		rows = chain.Puts
	}
	if len(rows) == 0 {
		pick.Note = fmt.Sprintf("empty %s chain for %s", sideName(side), exp)
		return pick
	}

	quoted := Quote(rows, spot)
	if c, ok := Best(quoted, s.cfg.Strict); ok {
		pick.Tier, pick.Contract = model.TierStrict, c
		return pick
	}
	if c, ok := Best(quoted, s.cfg.Relaxed); ok {
		pick.Tier, pick.Contract = model.TierRelaxed, c
		pick.Note = "strict filters failed, relaxed tier used"
		return pick
	}
	pick.Note = fmt.Sprintf("no liquid contract: %d of %d rows quoted, none passed relaxed filters (vol>=%d, OI>=%d, spread<=%.0f%%)",
		len(quoted), len(rows), s.cfg.Relaxed.MinVolume, s.cfg.Relaxed.MinOpenInterest, s.cfg.Relaxed.MaxSpreadPct)
	return pick
}

// ChooseExpiration returns the earliest expiration whose DTE falls inside
// [minDTE, maxDTE], or else the nearest expiration after today.
func ChooseExpiration(exps []string, now time.Time, minDTE, maxDTE int) (string, int, bool) {
	today := civilDate(now)
	type cand struct {
		exp string
		dte int
	}
	var future []cand
	for _, e := range exps {
		t, err := time.Parse("2006-01-02", e)
		if err != nil {
			continue
		}
		dte := int(math.Round(t.Sub(today).Hours() / 24))
		if dte > 0 {
			future = append(future, cand{e, dte})
		}
	}
	if len(future) == 0 {
		return "", 0, false
	}
	sort.Slice(future, func(i, j int) bool { return future[i].dte < future[j].dte })
	for _, c := range future {
		if c.dte >= minDTE && c.dte <= maxDTE {
			return c.exp, c.dte, true
		}
	}
	return future[0].exp, future[0].dte, true
}

// Quoted is a chain row with derived pricing.
type Quoted struct {
	Row       model.ChainRow
	Mid       float64
	SpreadPct float64
	Distance  float64
}

// Quote drops rows without a usable two-sided market and derives mid,
// spread percent and distance from spot.
func Quote(rows []model.ChainRow, spot float64) []Quoted {
	out := make([]Quoted, 0, len(rows))
	for _, r := range rows {
		if !(r.Bid > 0) || !(r.Ask > 0) || r.Ask < r.Bid {
			continue
		}
		mid := (r.Bid + r.Ask) / 2
		out = append(out, Quoted{
			Row:       r,
			Mid:       mid,
			SpreadPct: (r.Ask - r.Bid) / mid * 100,
			Distance:  math.Abs(r.Strike - spot),
		})
	}
	return out
}

// Best returns the contract closest to spot that passes tier, breaking ties
// on tighter spread and then lower strike.
func Best(quoted []Quoted, tier Tier) (*model.OptionContract, bool) {
	var pass []Quoted
	for _, q := range quoted {
		if q.Row.Volume >= tier.MinVolume && q.Row.OpenInterest >= tier.MinOpenInterest && q.SpreadPct <= tier.MaxSpreadPct {
			pass = append(pass, q)
		}
	}
	if len(pass) == 0 {
		return nil, false
	}
	sort.SliceStable(pass, func(i, j int) bool {
		a, b := pass[i], pass[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if a.SpreadPct != b.SpreadPct {
			return a.SpreadPct < b.SpreadPct
		}
		return a.Row.Strike < b.Row.Strike
	})
	q := pass[0]
	return &model.OptionContract{
		Symbol:       q.Row.ContractSymbol,
		Strike:       q.Row.Strike,
		Bid:          q.Row.Bid,
		Ask:          q.Row.Ask,
		Mid:          q.Mid,
		SpreadPct:    q.SpreadPct,
		Volume:       q.Row.Volume,
		OpenInterest: q.Row.OpenInterest,
	}, true
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sideName(b model.Bias) string {
	if b == model.BiasPut {
		return "put"
	}
	return "call"
}
