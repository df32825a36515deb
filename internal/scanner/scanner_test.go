package scanner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PremarketScanner/internal/collector"
	"PremarketScanner/internal/logger"
	"PremarketScanner/internal/model"
)

var end = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

type fakePicker struct {
	mu    sync.Mutex
	sides map[string]model.Bias
}

func (f *fakePicker) Select(_ context.Context, symbol string, side model.Bias, spot float64) model.OptionPick {
	f.mu.Lock()
	if f.sides == nil {
		f.sides = map[string]model.Bias{}
	}
	f.sides[symbol] = side
	f.mu.Unlock()
	return model.OptionPick{
		Side:       side,
		Expiration: "2026-03-13",
		DTE:        11,
		Tier:       model.TierStrict,
		Contract:   &model.OptionContract{Symbol: symbol + "C", Strike: spot, Bid: 1, Ask: 1.02, Mid: 1.01, SpreadPct: 2, Volume: 5000, OpenInterest: 5000},
	}
}

type fakeEarnings struct {
	dates map[string]time.Time
}

func (f *fakeEarnings) Resolve(_ context.Context, symbol string) (model.EarningsRecord, bool) {
	d, ok := f.dates[symbol]
	if !ok {
		return model.EarningsRecord{Symbol: symbol, Note: "earnings date unknown"}, false
	}
	return model.EarningsRecord{Symbol: symbol, Date: &d, Source: "fake"}, true
}

func (f *fakeEarnings) Check(ctx context.Context, symbols []string, days int) []model.EarningsRecord {
	var out []model.EarningsRecord
	for _, s := range symbols {
		rec, _ := f.Resolve(ctx, s)
		out = append(out, rec)
	}
	return out
}

func (f *fakeEarnings) Today() time.Time { return end }

type fakeNews map[string]int

func (f fakeNews) Score(_ context.Context, symbol string) model.NewsSignal {
	n, ok := f[symbol]
	if !ok {
		return model.NewsSignal{Note: "no recent headlines"}
	}
	return model.NewsSignal{Score: n, Headlines: 5, Top: symbol + " headline"}
}

func newScanner(t *testing.T, mock *collector.MockProvider, cfg Config, picker OptionPicker, earn EarningsLookup) *Scanner {
	t.Helper()
	src := collector.NewSource(mock, logger.Nop())
	s, err := New(src, picker, earn, cfg, logger.Nop())
	require.NoError(t, err)
	return s.WithClock(func() time.Time { return end })
}

func TestAnalyzeSymbol_RisingSeriesIsCall(t *testing.T) {
	mock := collector.NewMockProvider()
	mock.SetBars("AAPL", collector.RisingBars(100, 1, 60, end))
	s := newScanner(t, mock, DefaultConfig(), nil, nil)

	a, err := s.AnalyzeSymbol(context.Background(), "aapl", "", "")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", a.Symbol)
	assert.Equal(t, model.BiasCall, a.Bias)
	assert.True(t, strings.HasPrefix(a.Rationale, "trend rule:"), a.Rationale)
	require.NotNil(t, a.Indicators.EMA20)
	require.NotNil(t, a.Indicators.EMA50)
	require.NotNil(t, a.Indicators.MACDHist)
	assert.Greater(t, a.LastPrice, *a.Indicators.EMA20)
	assert.Greater(t, *a.Indicators.EMA20, *a.Indicators.EMA50)
	assert.Greater(t, *a.Indicators.MACDHist, 0.0)
	assert.Equal(t, "standard", a.Indicators.Policy)

	require.NotNil(t, a.Plan)
	assert.Less(t, a.Plan.BuyLow, a.LastPrice)
	assert.LessOrEqual(t, a.Plan.BuyHigh, a.LastPrice+0.01)
	assert.Greater(t, a.Plan.Target, a.LastPrice)
	assert.Less(t, a.Plan.Stop, a.Plan.BuyLow)

	assert.Greater(t, a.Score, 0.0)
	assert.Equal(t, model.BiasCall, a.ScoreBias)
	assert.Nil(t, a.News)
	require.NotNil(t, a.Change1D)
	assert.InDelta(t, 1.0, *a.Change1D, 1e-9)
	require.NotNil(t, a.High52w)
	assert.Nil(t, a.Option)
	assert.Nil(t, a.Earnings)
	assert.Equal(t, model.RiskMedium, a.Risk)
	assert.Equal(t, end, a.AnalyzedAt)
}

func TestAnalyzeSymbol_ShortSeriesIsNeutral(t *testing.T) {
	mock := collector.NewMockProvider()
	mock.SetBars("TINY", collector.RisingBars(10, 1, 3, end))
	s := newScanner(t, mock, DefaultConfig(), nil, nil)

	a, err := s.AnalyzeSymbol(context.Background(), "TINY", "", "")
	require.NoError(t, err)

	assert.True(t, a.Indicators.Empty())
	assert.Equal(t, 3, a.Indicators.Bars)
	assert.Equal(t, model.BiasNeutral, a.Bias)
	assert.Contains(t, a.Rationale, "insufficient data")
	assert.Nil(t, a.Plan)
	assert.Zero(t, a.Score)
	assert.NotNil(t, a.Change1D)
	assert.Nil(t, a.Change5D)
	assert.Nil(t, a.Change1M)
}

func TestAnalyzeSymbol_IntradayUsesDailyContext(t *testing.T) {
	mock := collector.NewMockProvider()
	mock.SetFrame("MSFT", "5d", "5m", collector.FrameFromBars("MSFT", collector.GenerateBars("MSFT", 40, end)))
	mock.SetFrame("MSFT", "1y", "1d", collector.FrameFromBars("MSFT", collector.RisingBars(50, 0.5, 252, end)))
	s := newScanner(t, mock, DefaultConfig(), nil, nil)

	a, err := s.AnalyzeSymbol(context.Background(), "MSFT", "5d", "5m")
	require.NoError(t, err)

	assert.Equal(t, "adaptive", a.Indicators.Policy)
	assert.Equal(t, 40, a.Indicators.Bars)
	require.NotNil(t, a.Change1M)
	assert.Greater(t, *a.Change1M, 0.0)
	assert.Contains(t, mock.Calls(), "MSFT|1y|1d")
}

func TestAnalyzeSymbol_OptionsAndEarnings(t *testing.T) {
	mock := collector.NewMockProvider()
	mock.SetBars("AAPL", collector.RisingBars(100, 1, 60, end))
	mock.SetBars("TINY", collector.RisingBars(10, 1, 3, end))
	picker := &fakePicker{}
	earn := &fakeEarnings{dates: map[string]time.Time{"AAPL": end.AddDate(0, 0, 3)}}
	s := newScanner(t, mock, DefaultConfig(), picker, earn)

	a, err := s.AnalyzeSymbol(context.Background(), "AAPL", "", "")
	require.NoError(t, err)
	require.NotNil(t, a.Option)
	assert.True(t, a.Option.OK())
	assert.Equal(t, model.BiasCall, picker.sides["AAPL"])
	require.NotNil(t, a.Earnings)
	assert.True(t, a.Earnings.InWindow)
	assert.Equal(t, model.RiskHigh, a.Risk)

	tiny, err := s.AnalyzeSymbol(context.Background(), "TINY", "", "")
	require.NoError(t, err)
	assert.Equal(t, model.BiasNeutral, picker.sides["TINY"])
	require.NotNil(t, tiny.Earnings)
	assert.False(t, tiny.Earnings.Resolved())
	assert.Equal(t, model.RiskLow, tiny.Risk)
}

func TestAnalyzeSymbol_NewsShapesScoreAndRisk(t *testing.T) {
	mock := collector.NewMockProvider()
	mock.SetBars("TINY", collector.RisingBars(10, 1, 3, end))
	mock.SetBars("AAPL", collector.RisingBars(100, 1, 60, end))
	picker := &fakePicker{}
	s := newScanner(t, mock, DefaultConfig(), picker, nil).WithNews(fakeNews{"TINY": 3, "AAPL": 1})

	tiny, err := s.AnalyzeSymbol(context.Background(), "TINY", "", "")
	require.NoError(t, err)
	assert.Equal(t, model.BiasNeutral, tiny.Bias)
	assert.Equal(t, 2.0, tiny.Score)
	assert.Equal(t, model.BiasCall, tiny.ScoreBias)
	assert.Equal(t, model.BiasCall, picker.sides["TINY"])
	require.NotNil(t, tiny.News)
	assert.Equal(t, 3, tiny.News.Score)
	assert.Equal(t, model.RiskHigh, tiny.Risk, "saturated headlines escalate risk")

	plain := newScanner(t, mock, DefaultConfig(), nil, nil)
	base, err := plain.AnalyzeSymbol(context.Background(), "AAPL", "", "")
	require.NoError(t, err)
	withNews, err := s.AnalyzeSymbol(context.Background(), "AAPL", "", "")
	require.NoError(t, err)
	assert.InDelta(t, base.Score+1, withNews.Score, 1e-9)
	assert.Equal(t, model.RiskLow, withNews.Risk)
}

func TestAnalyzeSymbol_Failures(t *testing.T) {
	mock := collector.NewMockProvider()
	mock.SetBars("PENNY", collector.RisingBars(0.5, 1, 60, end))
	mock.SetError("BOOM", errors.New("upstream exploded"))
	cfg := DefaultConfig()
	cfg.MinPrice = 1
	s := newScanner(t, mock, cfg, nil, nil)

	tests := []struct {
		symbol string
		reason Reason
		is     error
	}{
		{"", ReasonInvalidSymbol, ErrInvalidSymbol},
		{"AAPL; DROP", ReasonInvalidSymbol, ErrInvalidSymbol},
		{"NONE", ReasonNoData, collector.ErrNoData},
		{"BOOM", ReasonNoData, collector.ErrNoData},
		{"PENNY", ReasonIlliquid, ErrIlliquid},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			a, err := s.AnalyzeSymbol(context.Background(), tt.symbol, "", "")
			assert.Nil(t, a)
			require.Error(t, err)
			var f *Failure
			require.ErrorAs(t, err, &f)
			assert.Equal(t, tt.reason, f.Reason)
			assert.ErrorIs(t, err, tt.is)
		})
	}
}

func TestNormalizeSymbol(t *testing.T) {
	for _, ok := range []string{"aapl", " MSFT ", "BRK.B", "BRK-B", "^GSPC", "X"} {
		_, err := NormalizeSymbol(ok)
		assert.NoError(t, err, ok)
	}
	for _, bad := range []string{"", "   ", "$AAPL", "A B", "TOOLONGSYMBOL1"} {
		_, err := NormalizeSymbol(bad)
		assert.ErrorIs(t, err, ErrInvalidSymbol, bad)
	}
}

func TestNew_RejectsUnknownStrategies(t *testing.T) {
	src := collector.NewSource(collector.NewMockProvider(), logger.Nop())

	cfg := DefaultConfig()
	cfg.Plan = "martingale"
	_, err := New(src, nil, nil, cfg, logger.Nop())
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.WindowPolicy = "sometimes"
	_, err = New(src, nil, nil, cfg, logger.Nop())
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Concurrency = 50
	s, err := New(src, nil, nil, cfg, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, 12, s.Config().Concurrency)
}
