package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PremarketScanner/internal/httputil"
	"PremarketScanner/internal/logger"
)

const chartJSON = `{"chart":{"result":[{"meta":{"symbol":"AAPL"},
 "timestamp":[1700000000,1700000060,1700000120],
 "indicators":{"quote":[{"open":[1,2,null],"high":[1.5,2.5,null],"low":[0.5,1.5,null],
 "close":[1.2,2.2,null],"volume":[100,200,null]}]}}],"error":null}}`

const optionsJSON = `{"optionChain":{"result":[{"expirationDates":[1767916800,1768521600],
 "options":[{"expirationDate":1767916800,
 "calls":[{"contractSymbol":"AAPL260109C00100000","strike":100,"bid":1.0,"ask":1.1,"volume":500,"openInterest":900}],
 "puts":[{"contractSymbol":"AAPL260109P00100000","strike":100,"bid":0.9,"ask":1.0,"volume":400,"openInterest":800}]}]}],"error":null}}`

const summaryJSON = `{"quoteSummary":{"result":[{
 "earnings":{"earningsChart":{"earningsDate":[{"raw":1769644800,"fmt":"2026-01-29"}]}},
 "calendarEvents":{"earnings":{"earningsDate":[{"raw":1769644800,"fmt":"2026-01-29"}]}}}],"error":null}}`

const quoteJSON = `{"quoteResponse":{"result":[{"symbol":"AAPL","quoteType":"EQUITY","earningsTimestamp":1769644800}]}}`

const searchJSON = `{"quotes":[],"news":[{"title":"Apple beats estimates"},{"title":"  "},
 {"title":"Analyst downgrade weighs on Apple"},{"title":"Apple record iPhone sales"}]}`

func newYahooServer(t *testing.T) *YahooProvider {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v8/finance/chart/AAPL", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5d", r.URL.Query().Get("range"))
		assert.Equal(t, "1m", r.URL.Query().Get("interval"))
		w.Write([]byte(chartJSON))
	})
	mux.HandleFunc("/v8/finance/chart/BRK-B", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	})
	mux.HandleFunc("/v7/finance/options/AAPL", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(optionsJSON))
	})
	mux.HandleFunc("/v10/finance/quoteSummary/AAPL", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(summaryJSON))
	})
	mux.HandleFunc("/v7/finance/quote", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(quoteJSON))
	})
	mux.HandleFunc("/v1/finance/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AAPL", r.URL.Query().Get("q"))
		w.Write([]byte(searchJSON))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := httputil.New(httputil.Options{Timeout: 2 * time.Second}, logger.Nop())
	return NewYahooProvider(client, server.URL)
}

func TestYahoo_FetchChartNormalizes(t *testing.T) {
	p := newYahooServer(t)
	frame, err := p.FetchChart(context.Background(), "AAPL", "5d", "1m")
	require.NoError(t, err)

	series, err := Normalize(frame)
	require.NoError(t, err)
	require.Equal(t, 2, series.Len())
	assert.Equal(t, 2.2, series.Last().Close)
	assert.Equal(t, 200.0, series.Last().Volume)
}

func TestYahoo_EmptyChartIsNoData(t *testing.T) {
	p := newYahooServer(t)
	_, err := p.FetchChart(context.Background(), "BRK.B", "1d", "1m")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestYahoo_OptionChain(t *testing.T) {
	p := newYahooServer(t)
	exps, err := p.Expirations(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-09", "2026-01-16"}, exps)

	chain, err := p.Chain(context.Background(), "AAPL", "2026-01-09")
	require.NoError(t, err)
	require.Len(t, chain.Calls, 1)
	require.Len(t, chain.Puts, 1)
	assert.Equal(t, int64(900), chain.Calls[0].OpenInterest)

	_, err = p.Chain(context.Background(), "AAPL", "Jan 9")
	assert.Error(t, err)
}

func TestYahoo_EarningsEndpoints(t *testing.T) {
	p := newYahooServer(t)
	ctx := context.Background()

	dates, err := p.EarningsDates(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, dates, 1)
	assert.Equal(t, "2026-01-29", dates[0].Format("2006-01-02"))

	cal, err := p.CalendarEvents(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, []any{"2026-01-29"}, cal["Earnings Date"])

	info, err := p.QuoteInfo(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "EQUITY", info["quoteType"])
	assert.EqualValues(t, 1769644800, info["earningsTimestamp"])
}

func TestRESTProvider_FetchChart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/bars", r.URL.Path)
		assert.Equal(t, "MSFT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"timestamp":2,"open":2,"high":3,"low":1,"close":2.5,"volume":null},
			{"timestamp":1,"open":1,"high":2,"low":0.5,"close":1.5,"volume":10}]`))
	}))
	defer server.Close()

	client := httputil.New(httputil.Options{Headers: map[string]string{"Authorization": "Bearer k"}}, logger.Nop())
	src := NewSource(NewRESTProvider(server.URL, client), logger.Nop())

	series, err := src.FetchExact(context.Background(), "MSFT", "1y", "1d")
	require.NoError(t, err)
	require.Equal(t, 2, series.Len())
	assert.Equal(t, 1.5, series.Bars[0].Close)
	assert.False(t, series.Last().HasVolume())
}

func TestYahoo_Headlines(t *testing.T) {
	p := newYahooServer(t)

	titles, err := p.Headlines(context.Background(), "AAPL", 12)
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple beats estimates", "Analyst downgrade weighs on Apple", "Apple record iPhone sales"}, titles)

	titles, err = p.Headlines(context.Background(), "AAPL", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple beats estimates"}, titles)
}
