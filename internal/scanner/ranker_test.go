package scanner

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PremarketScanner/internal/collector"
	"PremarketScanner/internal/model"
)

func universeMock(good ...string) *collector.MockProvider {
	mock := collector.NewMockProvider()
	for _, sym := range good {
		mock.SetBars(sym, collector.GenerateBars(sym, 260, end))
	}
	return mock
}

func reasons(res model.RankedResult) map[string]string {
	out := map[string]string{}
	for _, e := range res.Errors {
		out[e.Symbol] = e.Reason
	}
	return out
}

func TestRankUniverse_FailuresAreReportedNotDropped(t *testing.T) {
	mock := universeMock("AAPL", "MSFT", "NVDA")
	s := newScanner(t, mock, DefaultConfig(), nil, nil)

	res := s.RankUniverse(context.Background(), []string{"AAPL", "GONE1", "MSFT", "NVDA", "GONE2"}, 10)

	assert.Equal(t, 5, res.Requested)
	assert.Equal(t, 3, res.Analyzed)
	assert.Len(t, res.Ranked, 3)
	assert.Len(t, res.Errors, 2)
	assert.Equal(t, map[string]string{"GONE1": "no_data", "GONE2": "no_data"}, reasons(res))
	assert.Equal(t, res.Requested, res.Analyzed+len(res.Errors))
}

func TestRankUniverse_SortsAndTruncates(t *testing.T) {
	syms := []string{"AAPL", "MSFT", "NVDA", "TSLA", "AMZN", "AMD", "JPM"}
	s := newScanner(t, universeMock(syms...), DefaultConfig(), nil, nil)

	res := s.RankUniverse(context.Background(), syms, 3)

	assert.Equal(t, 7, res.Analyzed)
	require.Len(t, res.Ranked, 3)
	for i := 1; i < len(res.Ranked); i++ {
		assert.GreaterOrEqual(t, math.Abs(res.Ranked[i-1].Score), math.Abs(res.Ranked[i].Score))
	}
	assert.Empty(t, res.Errors)
}

func TestRankUniverse_ReportsScoreDirection(t *testing.T) {
	mock := universeMock("AAPL", "MSFT")
	mock.SetBars("TINY", collector.RisingBars(10, 1, 3, end))
	s := newScanner(t, mock, DefaultConfig(), nil, nil).WithNews(fakeNews{"TINY": -2})

	res := s.RankUniverse(context.Background(), []string{"AAPL", "MSFT", "TINY"}, 0)
	require.Len(t, res.Ranked, 3)
	for _, a := range res.Ranked {
		switch {
		case a.Score > 0:
			assert.Equal(t, model.BiasCall, a.ScoreBias, a.Symbol)
		case a.Score < 0:
			assert.Equal(t, model.BiasPut, a.ScoreBias, a.Symbol)
		default:
			assert.Equal(t, model.BiasNeutral, a.ScoreBias, a.Symbol)
		}
		if a.Symbol == "TINY" {
			assert.Equal(t, model.BiasNeutral, a.Bias)
			assert.Equal(t, model.BiasPut, a.ScoreBias)
		}
	}
}

func TestRankUniverse_CollapsesDuplicates(t *testing.T) {
	s := newScanner(t, universeMock("AAPL"), DefaultConfig(), nil, nil)

	res := s.RankUniverse(context.Background(), []string{"aapl", "AAPL", " aapl "}, 10)

	assert.Equal(t, 1, res.Requested)
	assert.Len(t, res.Ranked, 1)
}

func TestRankUniverse_InvalidSymbolIsAnError(t *testing.T) {
	s := newScanner(t, universeMock("AAPL"), DefaultConfig(), nil, nil)

	res := s.RankUniverse(context.Background(), []string{"AAPL", "$$$"}, 10)

	assert.Len(t, res.Ranked, 1)
	assert.Equal(t, map[string]string{"$$$": "invalid_symbol"}, reasons(res))
}

func TestRankUniverse_TimeoutIsPerSymbol(t *testing.T) {
	mock := universeMock("AAPL", "SLOW")
	mock.SetDelay("SLOW", 2*time.Second)
	cfg := DefaultConfig()
	cfg.SymbolTimeout = 50 * time.Millisecond
	s := newScanner(t, mock, cfg, nil, nil)

	res := s.RankUniverse(context.Background(), []string{"SLOW", "AAPL"}, 10)

	assert.Len(t, res.Ranked, 1)
	assert.Equal(t, "AAPL", res.Ranked[0].Symbol)
	assert.Equal(t, map[string]string{"SLOW": "timeout"}, reasons(res))
}

func TestRankUniverse_CanceledBeforeStart(t *testing.T) {
	s := newScanner(t, universeMock("AAPL", "MSFT"), DefaultConfig(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := s.RankUniverse(ctx, []string{"AAPL", "MSFT"}, 10)

	assert.Empty(t, res.Ranked)
	assert.Equal(t, map[string]string{"AAPL": "canceled", "MSFT": "canceled"}, reasons(res))
}

func TestRankUniverse_CancelKeepsFinishedResults(t *testing.T) {
	mock := universeMock("AAPL", "SLOW", "MSFT", "NVDA")
	mock.SetDelay("SLOW", 5*time.Second)
	cfg := DefaultConfig()
	cfg.Concurrency = 1
	s := newScanner(t, mock, cfg, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	timer := time.AfterFunc(200*time.Millisecond, cancel)
	defer timer.Stop()

	res := s.RankUniverse(ctx, []string{"AAPL", "SLOW", "MSFT", "NVDA"}, 10)

	require.Len(t, res.Ranked, 1)
	assert.Equal(t, "AAPL", res.Ranked[0].Symbol)
	assert.Equal(t, map[string]string{"SLOW": "canceled", "MSFT": "canceled", "NVDA": "canceled"}, reasons(res))
	assert.Equal(t, 4, res.Analyzed+len(res.Errors))
}

func TestSortRanked(t *testing.T) {
	ranked := []model.TickerAnalysis{
		{Symbol: "B", Score: 3, Risk: model.RiskHigh},
		{Symbol: "A", Score: -3, Risk: model.RiskHigh},
		{Symbol: "C", Score: 3, Risk: model.RiskLow},
		{Symbol: "D", Score: -7, Risk: model.RiskMedium},
		{Symbol: "E", Score: 0.5, Risk: model.RiskLow},
	}
	SortRanked(ranked)

	var got []string
	for _, a := range ranked {
		got = append(got, a.Symbol)
	}
	assert.Equal(t, []string{"D", "C", "A", "B", "E"}, got)
}

func TestEarningsInWindow(t *testing.T) {
	earn := &fakeEarnings{dates: map[string]time.Time{"AAPL": end}}
	s := newScanner(t, universeMock(), DefaultConfig(), nil, earn)

	recs := s.EarningsInWindow(context.Background(), []string{"AAPL", "ZZZZ"}, 7)
	require.Len(t, recs, 2)
	assert.True(t, recs[0].Resolved())

	plain := newScanner(t, universeMock(), DefaultConfig(), nil, nil)
	assert.Nil(t, plain.EarningsInWindow(context.Background(), []string{"AAPL"}, 7))
}
