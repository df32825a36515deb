package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"PremarketScanner/internal/model"
)

// MockProvider returns controllable fixed data for development and testing.
// Frames are looked up by symbol and timeframe, then by symbol alone. When
// Generate is set, symbols without a frame get deterministic synthetic bars.
type MockProvider struct {
	mu       sync.Mutex
	frames   map[string]*RawFrame
	errs     map[string]error
	delays   map[string]time.Duration
	calls    []string
	Delay    time.Duration
	Generate bool
}

// NewMockProvider creates an empty mock.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		frames: map[string]*RawFrame{},
		errs:   map[string]error{},
		delays: map[string]time.Duration{},
	}
}

func (m *MockProvider) Name() string { return "mock" }

func mockKey(symbol, period, interval string) string {
	return symbol + "|" + period + "|" + interval
}

// SetBars registers bars for symbol on every timeframe.
func (m *MockProvider) SetBars(symbol string, bars []model.OHLCV) {
	m.SetFrame(symbol, "", "", FrameFromBars(symbol, bars))
}

// SetFrame registers a raw frame. Empty period and interval match any timeframe.
func (m *MockProvider) SetFrame(symbol, period, interval string, frame *RawFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames[mockKey(symbol, period, interval)] = frame
}

// SetError makes every fetch for symbol fail with err.
func (m *MockProvider) SetError(symbol string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[symbol] = err
}

// SetDelay makes fetches for symbol wait d, or until the context ends.
func (m *MockProvider) SetDelay(symbol string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[symbol] = d
}

// Calls returns the fetches made so far as "symbol|period|interval".
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockProvider) FetchChart(ctx context.Context, symbol, period, interval string) (*RawFrame, error) {
	m.mu.Lock()
	m.calls = append(m.calls, mockKey(symbol, period, interval))
	err := m.errs[symbol]
	frame, ok := m.frames[mockKey(symbol, period, interval)]
	if !ok {
		frame, ok = m.frames[mockKey(symbol, "", "")]
	}
	delay, hasDelay := m.delays[symbol]
	m.mu.Unlock()

	if !hasDelay {
		delay = m.Delay
	}
	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return nil, err
	}
	if ok {
		return frame, nil
	}
	if m.Generate {
		return FrameFromBars(symbol, GenerateBars(symbol, 260, time.Now().UTC())), nil
	}
	return nil, fmt.Errorf("%w: mock has no frame for %s", ErrNoData, symbol)
}

// FrameFromBars converts bars into a flat raw frame.
func FrameFromBars(symbol string, bars []model.OHLCV) *RawFrame {
	frame := &RawFrame{Symbol: symbol, Timestamps: make([]int64, len(bars))}
	open := make([]any, len(bars))
	high := make([]any, len(bars))
	low := make([]any, len(bars))
	closes := make([]any, len(bars))
	vol := make([]any, len(bars))
	for i, b := range bars {
		frame.Timestamps[i] = b.Time.Unix()
		open[i], high[i], low[i], closes[i] = b.Open, b.High, b.Low, b.Close
		if b.HasVolume() {
			vol[i] = b.Volume
		}
	}
	frame.Columns = []RawColumn{
		{Path: []string{"open"}, Values: open},
		{Path: []string{"high"}, Values: high},
		{Path: []string{"low"}, Values: low},
		{Path: []string{"close"}, Values: closes},
		{Path: []string{"volume"}, Values: vol},
	}
	return frame
}

// GenerateBars builds count daily bars ending at end. The drift and level are
// derived from the symbol so output is stable across runs.
func GenerateBars(symbol string, count int, end time.Time) []model.OHLCV {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	seed := h.Sum32()
	base := 20 + float64(seed%400)
	drift := (float64(seed%21) - 10) / 1000 // -1% .. +1% per bar

	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		wave := 0.01 * math.Sin(float64(i)/5+float64(seed%7))
		p := base * math.Pow(1+drift, float64(i)) * (1 + wave)
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.998,
			High:   p * 1.01,
			Low:    p * 0.99,
			Close:  p,
			Volume: float64(1_000_000 + int(seed%5_000_000) + i*1000),
		}
	}
	return bars
}

// RisingBars builds count daily bars compounding by pct percent per bar.
func RisingBars(start float64, pct float64, count int, end time.Time) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	p := start
	for i := 0; i < count; i++ {
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.004,
			Low:    p * 0.996,
			Close:  p,
			Volume: 1_000_000,
		}
		p *= 1 + pct/100
	}
	return bars
}
