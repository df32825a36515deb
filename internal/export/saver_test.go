package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PremarketScanner/internal/model"
)

func sampleRanked() []model.TickerAnalysis {
	date := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	return []model.TickerAnalysis{
		{
			Symbol:     "AAPL",
			Interval:   "1d",
			LastPrice:  180.5,
			Change1D:   model.Float(1.2),
			Indicators: model.IndicatorSnapshot{EMA20: model.Float(175), RSI14: model.Float(61)},
			Bias:       model.BiasCall,
			Rationale:  "trend rule: last 180.50 > EMA20 175.00 > EMA50 170.00",
			Plan:       &model.TradePlan{Strategy: "atr", BuyLow: 179.9, BuyHigh: 180.5, Target: 182.5, Stop: 178.7},
			Option: &model.OptionPick{Side: model.BiasCall, Expiration: "2026-03-13", DTE: 11, Tier: model.TierStrict,
				Contract: &model.OptionContract{Symbol: "AAPL260313C00180000", Strike: 180, Mid: 3.1, SpreadPct: 1.6}},
			Earnings:   &model.EarningsRecord{Symbol: "AAPL", Date: &date, InWindow: true},
			News:       &model.NewsSignal{Score: 1, Headlines: 12, Top: "Apple beats estimates"},
			Score:      6.5,
			ScoreBias:  model.BiasCall,
			Risk:       model.RiskHigh,
			AnalyzedAt: time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC),
		},
		{
			Symbol:    "TINY",
			Interval:  "1d",
			LastPrice: 10,
			Bias:      model.BiasNeutral,
			Rationale: "insufficient data: no EMA or RSI readings",
			Option:    &model.OptionPick{Tier: model.TierNone, Note: "no directional bias"},
			Risk:      model.RiskHigh,
		},
	}
}

func TestRows(t *testing.T) {
	rows := Rows(sampleRanked())
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "CALL", rows[0].Bias)
	assert.Equal(t, "High", rows[0].Risk)
	require.NotNil(t, rows[0].Strike)
	assert.Equal(t, 180.0, *rows[0].Strike)
	assert.Equal(t, "2026-03-05", rows[0].EarningsDate)
	assert.True(t, rows[0].EarningsInWindow)
	assert.Equal(t, "CALL", rows[0].ScoreBias)
	require.NotNil(t, rows[0].NewsScore)
	assert.Equal(t, int64(1), *rows[0].NewsScore)

	assert.Equal(t, 2, rows[1].Rank)
	assert.Nil(t, rows[1].BuyLow)
	assert.Nil(t, rows[1].Strike)
	assert.Equal(t, "none", rows[1].OptionTier)
	assert.Nil(t, rows[1].NewsScore)
}

func TestSaveRanked_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "top.csv")
	require.NoError(t, SaveRanked(sampleRanked(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, recs, 3)
	assert.Equal(t, csvHeader, recs[0])
	assert.Equal(t, "AAPL", recs[1][1])
	assert.Equal(t, "180.5", recs[1][3])
	assert.Equal(t, "", recs[2][18], "TINY has no plan")
	assert.Equal(t, "CALL", recs[1][32])
	assert.Equal(t, "1", recs[1][33])
	assert.Equal(t, "", recs[2][33])
}

func TestSaveRanked_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "top.json")
	require.NoError(t, SaveRanked(sampleRanked(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rows []Row
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "TINY", rows[1].Symbol)
	assert.Nil(t, rows[1].EMA20)
}

func TestSaveRanked_Parquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "top.parquet")
	require.NoError(t, SaveRanked(sampleRanked(), path))

	rows, err := parquet.ReadFile[Row](path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "AAPL", rows[0].Symbol)
	require.NotNil(t, rows[0].Mid)
	assert.Equal(t, 3.1, *rows[0].Mid)
	assert.Nil(t, rows[1].Mid)
}

func TestSaveRanked_UnknownFormat(t *testing.T) {
	err := SaveRanked(sampleRanked(), filepath.Join(t.TempDir(), "top.xlsx"))
	assert.ErrorContains(t, err, "unsupported format")
	assert.Nil(t, NewSaver("xml"))
}
