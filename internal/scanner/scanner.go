package scanner

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"PremarketScanner/internal/calculator"
	"PremarketScanner/internal/collector"
	"PremarketScanner/internal/earnings"
	"PremarketScanner/internal/logger"
	"PremarketScanner/internal/model"
	"PremarketScanner/internal/strategy"
	"PremarketScanner/internal/trace"
)

var symbolPattern = regexp.MustCompile(`^\^?[A-Z0-9][A-Z0-9.\-]{0,11}$`)

// BarSource fetches bar series with timeframe fallback.
type BarSource interface {
	Fetch(ctx context.Context, symbol, period, interval string) (model.BarSeries, error)
	FetchExact(ctx context.Context, symbol, period, interval string) (model.BarSeries, error)
}

// OptionPicker selects an option contract for a directional bias.
type OptionPicker interface {
	Select(ctx context.Context, symbol string, side model.Bias, spot float64) model.OptionPick
}

// EarningsLookup resolves earnings dates.
type EarningsLookup interface {
	Resolve(ctx context.Context, symbol string) (model.EarningsRecord, bool)
	Check(ctx context.Context, symbols []string, days int) []model.EarningsRecord
	Today() time.Time
}

// NewsLookup scores recent headlines for a symbol.
type NewsLookup interface {
	Score(ctx context.Context, symbol string) model.NewsSignal
}

// Config tunes the per-symbol pipeline and the ranker.
type Config struct {
	Period        string
	Interval      string
	RankPeriod    string
	RankInterval  string
	Concurrency   int
	SymbolTimeout time.Duration
	Plan          strategy.PlanStrategy
	WindowPolicy  string
	MinPrice      float64
	MinAvgVolume  float64
	EarningsDays  int
}

// DefaultConfig analyzes a year of daily bars and ranks on five days of
// five-minute bars.
func DefaultConfig() Config {
	return Config{
		Period:        "1y",
		Interval:      "1d",
		RankPeriod:    "5d",
		RankInterval:  "5m",
		Concurrency:   8,
		SymbolTimeout: 25 * time.Second,
		Plan:          strategy.ATRScaled,
		WindowPolicy:  "auto",
		EarningsDays:  7,
	}
}

const (
	maxConcurrency = 12
	contextPeriod  = "1y"
	contextDaily   = "1d"
	avgVolumeBars  = 20
)

// Scanner runs the analysis pipeline for one symbol or a universe.
type Scanner struct {
	source   BarSource
	plans    *strategy.PlanBuilder
	options  OptionPicker
	earnings EarningsLookup
	news     NewsLookup
	cfg      Config
	now      func() time.Time
	logger   *logger.Logger
}

// New creates a Scanner. options and earnings may be nil to skip those steps.
func New(source BarSource, options OptionPicker, earn EarningsLookup, cfg Config, log *logger.Logger) (*Scanner, error) {
	plans, err := strategy.NewPlanBuilder(cfg.Plan)
	if err != nil {
		return nil, err
	}
	if _, err := calculator.ParsePolicy(cfg.WindowPolicy, false); err != nil {
		return nil, err
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Concurrency > maxConcurrency {
		cfg.Concurrency = maxConcurrency
	}
	if cfg.SymbolTimeout <= 0 {
		cfg.SymbolTimeout = DefaultConfig().SymbolTimeout
	}
	return &Scanner{
		source:   source,
		plans:    plans,
		options:  options,
		earnings: earn,
		cfg:      cfg,
		now:      time.Now,
		logger:   log,
	}, nil
}

// WithClock replaces the clock stamped on analyses.
func (s *Scanner) WithClock(now func() time.Time) *Scanner {
	s.now = now
	return s
}

// WithNews adds a headline sentiment factor to scores and risk labels.
func (s *Scanner) WithNews(n NewsLookup) *Scanner {
	s.news = n
	return s
}

// Config returns the effective configuration.
func (s *Scanner) Config() Config { return s.cfg }

// NormalizeSymbol upper-cases and validates a ticker symbol.
func NormalizeSymbol(symbol string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if !symbolPattern.MatchString(sym) {
		return sym, fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return sym, nil
}

// AnalyzeSymbol runs the full pipeline for symbol. Empty period or interval
// use the configured defaults. Every error it returns is a *Failure.
func (s *Scanner) AnalyzeSymbol(ctx context.Context, symbol, period, interval string) (*model.TickerAnalysis, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, &Failure{Symbol: sym, Reason: ReasonInvalidSymbol, Err: err}
	}
	if period == "" {
		period = s.cfg.Period
	}
	if interval == "" {
		interval = s.cfg.Interval
	}

	ctx, span := trace.StartSpan(ctx, "scanner.AnalyzeSymbol",
		attribute.String("symbol", sym),
		attribute.String("period", period),
		attribute.String("interval", interval),
	)
	defer span.End()

	a, err := s.analyze(ctx, sym, period, interval)
	if err != nil {
		f := fail(sym, err)
		trace.Fail(span, f)
		span.SetAttributes(attribute.String("reason", string(f.Reason)))
		return nil, f
	}
	span.SetAttributes(
		attribute.String("bias", string(a.Bias)),
		attribute.Float64("score", a.Score),
	)
	return a, nil
}

func (s *Scanner) analyze(ctx context.Context, sym, period, interval string) (*model.TickerAnalysis, error) {
	series, err := s.source.Fetch(ctx, sym, period, interval)
	if err != nil {
		return nil, err
	}
	last := series.Last().Close

	a := &model.TickerAnalysis{
		Symbol:    sym,
		Period:    series.Period,
		Interval:  series.Interval,
		LastPrice: last,
	}

	daily, err := s.dailyContext(ctx, sym, series)
	if err != nil {
		return nil, err
	}
	if err := s.checkLiquidity(sym, last, daily); err != nil {
		return nil, err
	}
	fillContext(a, daily)

	policy, err := calculator.ParsePolicy(s.cfg.WindowPolicy, collector.IsIntraday(series.Interval))
	if err != nil {
		policy = calculator.Standard
	}
	snap := calculator.Compute(series.Bars, policy)
	a.Indicators = snap

	a.Bias, a.Rationale = strategy.Classify(strategy.InputFromSnapshot(last, snap))
	newsScore := 0
	if s.news != nil {
		sig := s.news.Score(ctx, sym)
		a.News = &sig
		newsScore = sig.Score
	}
	a.Factors, a.Score = strategy.Score(last, snap, newsScore)
	a.ScoreBias = strategy.ScoreBias(a.Score)

	plan, err := s.plans.Build(last, a.Bias, snap.ATRPercent)
	if err != nil && !errors.Is(err, strategy.ErrNoVolatility) {
		return nil, err
	}
	a.Plan = plan

	if s.options != nil {
		side := a.Bias
		if side == model.BiasNeutral {
			side = a.ScoreBias
		}
		pick := s.options.Select(ctx, sym, side, last)
		a.Option = &pick
	}

	inWindow := false
	if s.earnings != nil {
		rec, ok := s.earnings.Resolve(ctx, sym)
		if ok {
			rec.InWindow = earnings.WithinWindow(*rec.Date, s.earnings.Today(), s.cfg.EarningsDays)
			inWindow = rec.InWindow
		}
		a.Earnings = &rec
	}

	// A context that ended while options or earnings were resolving leaves
	// the analysis incomplete.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.Risk = strategy.RiskLabel(a.Option, snap.ATRPercent, inWindow, newsScore)
	a.AnalyzedAt = s.now()
	return a, nil
}

// dailyContext returns a daily series for percent changes, the 52-week
// range and the liquidity gate. The primary series is reused when it is
// already daily. A failed context fetch leaves those fields absent unless
// the context itself ended.
func (s *Scanner) dailyContext(ctx context.Context, sym string, series model.BarSeries) ([]model.OHLCV, error) {
	if series.Interval == contextDaily {
		return series.Bars, nil
	}
	daily, err := s.source.FetchExact(ctx, sym, contextPeriod, contextDaily)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.WithField("symbol", sym).WithError(err).Debug("daily context unavailable")
		return nil, nil
	}
	return daily.Bars, nil
}

func (s *Scanner) checkLiquidity(sym string, last float64, daily []model.OHLCV) error {
	if s.cfg.MinPrice > 0 && last < s.cfg.MinPrice {
		return &Failure{Symbol: sym, Reason: ReasonIlliquid,
			Err: fmt.Errorf("%w: price %.2f < %.2f", ErrIlliquid, last, s.cfg.MinPrice)}
	}
	if s.cfg.MinAvgVolume > 0 && len(daily) > 0 {
		avg, err := calculator.CalculateAverageVolume(daily, avgVolumeBars)
		if err == nil && avg < s.cfg.MinAvgVolume {
			return &Failure{Symbol: sym, Reason: ReasonIlliquid,
				Err: fmt.Errorf("%w: avg volume %.0f < %.0f", ErrIlliquid, avg, s.cfg.MinAvgVolume)}
		}
	}
	return nil
}

func fillContext(a *model.TickerAnalysis, daily []model.OHLCV) {
	if len(daily) == 0 {
		return
	}
	a.Change1D = optional(calculator.CalculatePctChange(daily, 1))
	a.Change5D = optional(calculator.CalculatePctChange(daily, 5))
	a.Change1M = optional(calculator.CalculatePctChange(daily, 21))
	if hi, lo, err := calculator.Calculate52WeekRange(daily); err == nil {
		a.High52w, a.Low52w = &hi, &lo
	}
}

func optional(v float64, err error) *float64 {
	if err != nil {
		return nil
	}
	return &v
}
