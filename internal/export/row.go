package export

import (
	"PremarketScanner/internal/model"
)

// Row is the flat DTO written by every saver. Optional values are nil when
// the analysis did not produce them.
type Row struct {
	Rank             int      `json:"rank" parquet:"rank"`
	Symbol           string   `json:"symbol" parquet:"symbol"`
	Interval         string   `json:"interval" parquet:"interval"`
	LastPrice        float64  `json:"last_price" parquet:"last_price"`
	Change1D         *float64 `json:"change_1d,omitempty" parquet:"change_1d,optional"`
	Change5D         *float64 `json:"change_5d,omitempty" parquet:"change_5d,optional"`
	Change1M         *float64 `json:"change_1m,omitempty" parquet:"change_1m,optional"`
	High52w          *float64 `json:"high_52w,omitempty" parquet:"high_52w,optional"`
	Low52w           *float64 `json:"low_52w,omitempty" parquet:"low_52w,optional"`
	EMA20            *float64 `json:"ema20,omitempty" parquet:"ema20,optional"`
	EMA50            *float64 `json:"ema50,omitempty" parquet:"ema50,optional"`
	RSI14            *float64 `json:"rsi14,omitempty" parquet:"rsi14,optional"`
	MACDHist         *float64 `json:"macd_hist,omitempty" parquet:"macd_hist,optional"`
	ATRPercent       *float64 `json:"atr_pct,omitempty" parquet:"atr_pct,optional"`
	VolumeRatio      *float64 `json:"volume_ratio,omitempty" parquet:"volume_ratio,optional"`
	Bias             string   `json:"bias" parquet:"bias"`
	Score            float64  `json:"score" parquet:"score"`
	Risk             string   `json:"risk" parquet:"risk"`
	BuyLow           *float64 `json:"buy_low,omitempty" parquet:"buy_low,optional"`
	BuyHigh          *float64 `json:"buy_high,omitempty" parquet:"buy_high,optional"`
	Target           *float64 `json:"target,omitempty" parquet:"target,optional"`
	Stop             *float64 `json:"stop,omitempty" parquet:"stop,optional"`
	OptionTier       string   `json:"option_tier,omitempty" parquet:"option_tier,optional"`
	OptionSymbol     string   `json:"option_symbol,omitempty" parquet:"option_symbol,optional"`
	Expiration       string   `json:"expiration,omitempty" parquet:"expiration,optional"`
	Strike           *float64 `json:"strike,omitempty" parquet:"strike,optional"`
	Mid              *float64 `json:"mid,omitempty" parquet:"mid,optional"`
	SpreadPct        *float64 `json:"spread_pct,omitempty" parquet:"spread_pct,optional"`
	EarningsDate     string   `json:"earnings_date,omitempty" parquet:"earnings_date,optional"`
	EarningsInWindow bool     `json:"earnings_in_window" parquet:"earnings_in_window"`
	Rationale        string   `json:"rationale" parquet:"rationale"`
	AnalyzedAt       int64    `json:"analyzed_at" parquet:"analyzed_at"` // Unix milliseconds
	ScoreBias        string   `json:"score_bias" parquet:"score_bias"`
	NewsScore        *int64   `json:"news_score,omitempty" parquet:"news_score,optional"`
}

// Rows flattens ranked analyses in rank order.
func Rows(ranked []model.TickerAnalysis) []Row {
	rows := make([]Row, 0, len(ranked))
	for i, a := range ranked {
		rows = append(rows, FromAnalysis(i+1, a))
	}
	return rows
}

// FromAnalysis flattens one analysis.
func FromAnalysis(rank int, a model.TickerAnalysis) Row {
	r := Row{
		Rank:        rank,
		Symbol:      a.Symbol,
		Interval:    a.Interval,
		LastPrice:   a.LastPrice,
		Change1D:    a.Change1D,
		Change5D:    a.Change5D,
		Change1M:    a.Change1M,
		High52w:     a.High52w,
		Low52w:      a.Low52w,
		EMA20:       a.Indicators.EMA20,
		EMA50:       a.Indicators.EMA50,
		RSI14:       a.Indicators.RSI14,
		MACDHist:    a.Indicators.MACDHist,
		ATRPercent:  a.Indicators.ATRPercent,
		VolumeRatio: a.Indicators.VolumeRatio,
		Bias:        string(a.Bias),
		Score:       a.Score,
		Risk:        a.Risk.String(),
		Rationale:   a.Rationale,
		AnalyzedAt:  a.AnalyzedAt.UnixMilli(),
		ScoreBias:   string(a.ScoreBias),
	}
	if n := a.News; n != nil {
		v := int64(n.Score)
		r.NewsScore = &v
	}
	if p := a.Plan; p != nil {
		r.BuyLow, r.BuyHigh = ptr(p.BuyLow), ptr(p.BuyHigh)
		r.Target, r.Stop = ptr(p.Target), ptr(p.Stop)
	}
	if o := a.Option; o != nil {
		r.OptionTier = string(o.Tier)
		r.Expiration = o.Expiration
		if c := o.Contract; c != nil {
			r.OptionSymbol = c.Symbol
			r.Strike, r.Mid, r.SpreadPct = ptr(c.Strike), ptr(c.Mid), ptr(c.SpreadPct)
		}
	}
	if e := a.Earnings; e != nil && e.Date != nil {
		r.EarningsDate = e.Date.Format("2006-01-02")
		r.EarningsInWindow = e.InWindow
	}
	return r
}

func ptr(v float64) *float64 { return &v }
