package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"PremarketScanner/internal/httputil"
	"PremarketScanner/internal/model"
)

const yahooBaseURL = "https://query2.finance.yahoo.com"

// YahooProvider implements Provider, the option chain source and the earnings
// source on top of the Yahoo Finance public endpoints.
type YahooProvider struct {
	Client    *httputil.Client
	BaseURL   string
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooProvider creates a provider. Pass an empty baseURL for production.
func NewYahooProvider(client *httputil.Client, baseURL string) *YahooProvider {
	if baseURL == "" {
		baseURL = yahooBaseURL
	}
	return &YahooProvider{
		Client:  client,
		BaseURL: strings.TrimRight(baseURL, "/"),
		SymbolMap: map[string]string{
			"SPX":    "^GSPC",
			"SPX500": "^GSPC",
			"NDX":    "^NDX",
			"VIX":    "^VIX",
			"BRK.B":  "BRK-B",
			"BF.B":   "BF-B",
		},
	}
}

func (p *YahooProvider) Name() string { return "yahoo" }

func (p *YahooProvider) yahooSymbol(symbol string) string {
	if mapped, ok := p.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

type yahooQuote struct {
	Open   []any `json:"open"`
	High   []any `json:"high"`
	Low    []any `json:"low"`
	Close  []any `json:"close"`
	Volume []any `json:"volume"`
}

// yahooChart is the response structure from the chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []yahooQuote `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchChart returns the raw chart frame for one timeframe. When Yahoo
// returns several quote blocks each becomes its own column level.
func (p *YahooProvider) FetchChart(ctx context.Context, symbol, period, interval string) (*RawFrame, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s&includePrePost=false",
		p.BaseURL, url.PathEscape(p.yahooSymbol(symbol)), url.QueryEscape(period), url.QueryEscape(interval))

	var chart yahooChart
	if err := p.Client.GetJSON(ctx, u, &chart); err != nil {
		return nil, fmt.Errorf("yahoo chart: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("%w: yahoo returned no rows", ErrNoData)
	}

	result := chart.Chart.Result[0]
	frame := &RawFrame{Symbol: symbol, Timestamps: result.Timestamp}
	quotes := result.Indicators.Quote
	for i, q := range quotes {
		level := func(field string) []string {
			if len(quotes) == 1 {
				return []string{field}
			}
			return []string{field, strconv.Itoa(i)}
		}
		frame.Columns = append(frame.Columns,
			RawColumn{Path: level("open"), Values: q.Open},
			RawColumn{Path: level("high"), Values: q.High},
			RawColumn{Path: level("low"), Values: q.Low},
			RawColumn{Path: level("close"), Values: q.Close},
		)
		if q.Volume != nil {
			frame.Columns = append(frame.Columns, RawColumn{Path: level("volume"), Values: q.Volume})
		}
	}
	return frame, nil
}

type yahooOptionRow struct {
	ContractSymbol string  `json:"contractSymbol"`
	Strike         float64 `json:"strike"`
	Bid            float64 `json:"bid"`
	Ask            float64 `json:"ask"`
	Volume         int64   `json:"volume"`
	OpenInterest   int64   `json:"openInterest"`
}

type yahooOptions struct {
	OptionChain struct {
		Result []struct {
			ExpirationDates []int64 `json:"expirationDates"`
			Options         []struct {
				ExpirationDate int64            `json:"expirationDate"`
				Calls          []yahooOptionRow `json:"calls"`
				Puts           []yahooOptionRow `json:"puts"`
			} `json:"options"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"optionChain"`
}

func (p *YahooProvider) fetchOptions(ctx context.Context, symbol string, date int64) (*yahooOptions, error) {
	u := fmt.Sprintf("%s/v7/finance/options/%s", p.BaseURL, url.PathEscape(p.yahooSymbol(symbol)))
	if date > 0 {
		u += "?date=" + strconv.FormatInt(date, 10)
	}
	var out yahooOptions
	if err := p.Client.GetJSON(ctx, u, &out); err != nil {
		return nil, fmt.Errorf("yahoo options: %w", err)
	}
	if out.OptionChain.Error != nil {
		return nil, fmt.Errorf("yahoo options error: %s", out.OptionChain.Error.Description)
	}
	if len(out.OptionChain.Result) == 0 {
		return nil, fmt.Errorf("yahoo options: no result for %s", symbol)
	}
	return &out, nil
}

// Expirations lists option expirations as ISO dates.
func (p *YahooProvider) Expirations(ctx context.Context, symbol string) ([]string, error) {
	out, err := p.fetchOptions(ctx, symbol, 0)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(out.OptionChain.Result[0].ExpirationDates))
	for _, ts := range out.OptionChain.Result[0].ExpirationDates {
		dates = append(dates, time.Unix(ts, 0).UTC().Format("2006-01-02"))
	}
	return dates, nil
}

// Chain returns calls and puts for one ISO expiration date.
func (p *YahooProvider) Chain(ctx context.Context, symbol, expiration string) (model.OptionChain, error) {
	chain := model.OptionChain{Expiration: expiration}
	exp, err := time.Parse("2006-01-02", expiration)
	if err != nil {
		return chain, fmt.Errorf("parse expiration %q: %w", expiration, err)
	}
	out, err := p.fetchOptions(ctx, symbol, exp.Unix())
	if err != nil {
		return chain, err
	}
	for _, block := range out.OptionChain.Result[0].Options {
		chain.Calls = append(chain.Calls, convertRows(block.Calls)...)
		chain.Puts = append(chain.Puts, convertRows(block.Puts)...)
	}
	return chain, nil
}

func convertRows(rows []yahooOptionRow) []model.ChainRow {
	out := make([]model.ChainRow, len(rows))
	for i, r := range rows {
		out[i] = model.ChainRow{
			ContractSymbol: r.ContractSymbol,
			Strike:         r.Strike,
			Bid:            r.Bid,
			Ask:            r.Ask,
			Volume:         r.Volume,
			OpenInterest:   r.OpenInterest,
		}
	}
	return out
}

type yahooRawDate struct {
	Raw int64  `json:"raw"`
	Fmt string `json:"fmt"`
}

type yahooSummary struct {
	QuoteSummary struct {
		Result []struct {
			Earnings struct {
				EarningsChart struct {
					EarningsDate []yahooRawDate `json:"earningsDate"`
				} `json:"earningsChart"`
			} `json:"earnings"`
			CalendarEvents struct {
				Earnings struct {
					EarningsDate []yahooRawDate `json:"earningsDate"`
				} `json:"earnings"`
			} `json:"calendarEvents"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

func (p *YahooProvider) fetchSummary(ctx context.Context, symbol, modules string) (*yahooSummary, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		p.BaseURL, url.PathEscape(p.yahooSymbol(symbol)), url.QueryEscape(modules))
	var out yahooSummary
	if err := p.Client.GetJSON(ctx, u, &out); err != nil {
		return nil, fmt.Errorf("yahoo summary: %w", err)
	}
	if out.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo summary error: %s", out.QuoteSummary.Error.Description)
	}
	if len(out.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yahoo summary: no result for %s", symbol)
	}
	return &out, nil
}

// EarningsDates returns candidate earnings dates from the earnings module.
func (p *YahooProvider) EarningsDates(ctx context.Context, symbol string) ([]time.Time, error) {
	out, err := p.fetchSummary(ctx, symbol, "earnings")
	if err != nil {
		return nil, err
	}
	var dates []time.Time
	for _, d := range out.QuoteSummary.Result[0].Earnings.EarningsChart.EarningsDate {
		if d.Raw > 0 {
			dates = append(dates, time.Unix(d.Raw, 0).UTC())
		}
	}
	return dates, nil
}

// CalendarEvents returns the calendar module keyed by field name. Values are
// the formatted date strings exactly as Yahoo returns them.
func (p *YahooProvider) CalendarEvents(ctx context.Context, symbol string) (map[string][]any, error) {
	out, err := p.fetchSummary(ctx, symbol, "calendarEvents")
	if err != nil {
		return nil, err
	}
	var values []any
	for _, d := range out.QuoteSummary.Result[0].CalendarEvents.Earnings.EarningsDate {
		if d.Fmt != "" {
			values = append(values, d.Fmt)
		} else if d.Raw > 0 {
			values = append(values, d.Raw)
		}
	}
	return map[string][]any{"Earnings Date": values}, nil
}

// QuoteInfo returns the general quote record as a loose map.
func (p *YahooProvider) QuoteInfo(ctx context.Context, symbol string) (map[string]any, error) {
	u := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", p.BaseURL, url.QueryEscape(p.yahooSymbol(symbol)))
	var out struct {
		QuoteResponse struct {
			Result []map[string]json.RawMessage `json:"result"`
		} `json:"quoteResponse"`
	}
	if err := p.Client.GetJSON(ctx, u, &out); err != nil {
		return nil, fmt.Errorf("yahoo quote: %w", err)
	}
	if len(out.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("yahoo quote: no result for %s", symbol)
	}
	info := make(map[string]any, len(out.QuoteResponse.Result[0]))
	for k, raw := range out.QuoteResponse.Result[0] {
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			info[k] = v
		}
	}
	return info, nil
}

// Headlines returns up to limit recent news titles from the search endpoint.
func (p *YahooProvider) Headlines(ctx context.Context, symbol string, limit int) ([]string, error) {
	u := fmt.Sprintf("%s/v1/finance/search?q=%s&quotesCount=0&newsCount=%d",
		p.BaseURL, url.QueryEscape(p.yahooSymbol(symbol)), limit)
	var out struct {
		News []struct {
			Title string `json:"title"`
		} `json:"news"`
	}
	if err := p.Client.GetJSON(ctx, u, &out); err != nil {
		return nil, fmt.Errorf("yahoo news: %w", err)
	}
	titles := make([]string, 0, len(out.News))
	for _, n := range out.News {
		if len(titles) == limit {
			break
		}
		if t := strings.TrimSpace(n.Title); t != "" {
			titles = append(titles, t)
		}
	}
	return titles, nil
}
