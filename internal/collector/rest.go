package collector

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"PremarketScanner/internal/httputil"
)

// RESTProvider implements Provider against a generic bars REST API:
//
//	GET {base}/api/v1/bars?symbol=AAPL&period=5d&interval=5m
//
// returning a JSON array of {timestamp, open, high, low, close, volume}.
// Authentication uses the bearer key configured on the client.
type RESTProvider struct {
	BaseURL string
	Client  *httputil.Client
}

// NewRESTProvider creates a provider for baseURL.
func NewRESTProvider(baseURL string, client *httputil.Client) *RESTProvider {
	return &RESTProvider{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

func (p *RESTProvider) Name() string { return "rest" }

// restBar is the expected JSON shape from the bars API. Fields are loose so
// that nulls survive until normalization.
type restBar struct {
	Timestamp int64 `json:"timestamp"`
	Open      any   `json:"open"`
	High      any   `json:"high"`
	Low       any   `json:"low"`
	Close     any   `json:"close"`
	Volume    any   `json:"volume"`
}

func (p *RESTProvider) FetchChart(ctx context.Context, symbol, period, interval string) (*RawFrame, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("period", period)
	q.Set("interval", interval)
	endpoint := fmt.Sprintf("%s/api/v1/bars?%s", p.BaseURL, q.Encode())

	var bars []restBar
	if err := p.Client.GetJSON(ctx, endpoint, &bars); err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}

	frame := &RawFrame{Symbol: symbol, Timestamps: make([]int64, len(bars))}
	cols := map[string][]any{}
	for i, b := range bars {
		frame.Timestamps[i] = b.Timestamp
		cols["open"] = append(cols["open"], b.Open)
		cols["high"] = append(cols["high"], b.High)
		cols["low"] = append(cols["low"], b.Low)
		cols["close"] = append(cols["close"], b.Close)
		cols["volume"] = append(cols["volume"], b.Volume)
	}
	for _, name := range []string{"open", "high", "low", "close", "volume"} {
		frame.Columns = append(frame.Columns, RawColumn{Path: []string{name}, Values: cols[name]})
	}
	return frame, nil
}
