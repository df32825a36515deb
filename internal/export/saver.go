package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"PremarketScanner/internal/model"
)

// Saver writes ranked rows to a file.
type Saver interface {
	Save(rows []Row, path string) error
	Extension() string
}

// NewSaver returns the saver for format (csv, json or parquet), or nil.
func NewSaver(format string) Saver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}
	case "json":
		return JSONSaver{}
	case "parquet":
		return ParquetSaver{}
	default:
		return nil
	}
}

// SaveRanked writes ranked analyses to path using the saver matching the
// file extension.
func SaveRanked(ranked []model.TickerAnalysis, path string) error {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	s := NewSaver(ext)
	if s == nil {
		return fmt.Errorf("export: unsupported format %q (use csv, json or parquet)", ext)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	if err := s.Save(Rows(ranked), path); err != nil {
		return fmt.Errorf("export %s: %w", s.Extension(), err)
	}
	return nil
}

// ParquetSaver writes rows as a Parquet file.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(rows []Row, path string) error {
	return parquet.WriteFile(path, rows)
}

// JSONSaver writes rows as an indented JSON array.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(rows []Row, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// CSVSaver writes rows as CSV with a header. Absent values are empty cells.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

var csvHeader = []string{
	"rank", "symbol", "interval", "last_price", "change_1d", "change_5d", "change_1m",
	"high_52w", "low_52w", "ema20", "ema50", "rsi14", "macd_hist", "atr_pct", "volume_ratio",
	"bias", "score", "risk", "buy_low", "buy_high", "target", "stop",
	"option_tier", "option_symbol", "expiration", "strike", "mid", "spread_pct",
	"earnings_date", "earnings_in_window", "rationale", "analyzed_at",
	"score_bias", "news_score",
}

func (CSVSaver) Save(rows []Row, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Rank), r.Symbol, r.Interval, num(r.LastPrice),
			opt(r.Change1D), opt(r.Change5D), opt(r.Change1M),
			opt(r.High52w), opt(r.Low52w), opt(r.EMA20), opt(r.EMA50), opt(r.RSI14),
			opt(r.MACDHist), opt(r.ATRPercent), opt(r.VolumeRatio),
			r.Bias, num(r.Score), r.Risk, opt(r.BuyLow), opt(r.BuyHigh), opt(r.Target), opt(r.Stop),
			r.OptionTier, r.OptionSymbol, r.Expiration, opt(r.Strike), opt(r.Mid), opt(r.SpreadPct),
			r.EarningsDate, strconv.FormatBool(r.EarningsInWindow), r.Rationale,
			strconv.FormatInt(r.AnalyzedAt, 10), r.ScoreBias, optInt(r.NewsScore),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func optInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func opt(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}
