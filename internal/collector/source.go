package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"PremarketScanner/internal/logger"
	"PremarketScanner/internal/model"
)

// Source fetches bar series with timeframe fallback.
type Source struct {
	provider Provider
	ladder   []Timeframe
	logger   *logger.Logger
}

// NewSource creates a Source over provider using DefaultLadder.
func NewSource(provider Provider, log *logger.Logger) *Source {
	return &Source{provider: provider, ladder: DefaultLadder, logger: log}
}

// WithLadder replaces the fallback ladder.
func (s *Source) WithLadder(ladder []Timeframe) *Source {
	s.ladder = ladder
	return s
}

// ProviderName returns the underlying provider name.
func (s *Source) ProviderName() string { return s.provider.Name() }

// Fetch tries the preferred timeframe first, then the fallback ladder, and
// returns the first well-formed non-empty series. It returns ErrNoData when
// every attempt fails, or the context error if the context ends first.
func (s *Source) Fetch(ctx context.Context, symbol, period, interval string) (model.BarSeries, error) {
	var lastErr error
	for _, tf := range s.attempts(period, interval) {
		if err := ctx.Err(); err != nil {
			return model.BarSeries{}, err
		}
		series, err := s.FetchExact(ctx, symbol, tf.Period, tf.Interval)
		if err == nil {
			return series, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.BarSeries{}, ctxErr
		}
		lastErr = err
		s.logger.WithFields(map[string]interface{}{
			"symbol":   symbol,
			"period":   tf.Period,
			"interval": tf.Interval,
			"error":    err.Error(),
		}).Debug("timeframe attempt failed")
	}
	if lastErr == nil || errors.Is(lastErr, ErrNoData) {
		return model.BarSeries{}, fmt.Errorf("%s: %w", symbol, orNoData(lastErr))
	}
	return model.BarSeries{}, fmt.Errorf("%s: %w: %v", symbol, ErrNoData, lastErr)
}

// FetchExact fetches a single timeframe without fallback.
func (s *Source) FetchExact(ctx context.Context, symbol, period, interval string) (model.BarSeries, error) {
	frame, err := s.provider.FetchChart(ctx, symbol, period, interval)
	if err != nil {
		return model.BarSeries{}, err
	}
	if frame != nil && frame.Symbol == "" {
		frame.Symbol = symbol
	}
	series, err := Normalize(frame)
	if err != nil {
		return model.BarSeries{}, err
	}
	series.Symbol = symbol
	series.Period = period
	series.Interval = interval
	return series, nil
}

func (s *Source) attempts(period, interval string) []Timeframe {
	out := make([]Timeframe, 0, len(s.ladder)+1)
	seen := make(map[Timeframe]bool)
	if period != "" && interval != "" {
		tf := Timeframe{Period: period, Interval: interval}
		out = append(out, tf)
		seen[tf] = true
	}
	for _, tf := range s.ladder {
		if !seen[tf] {
			out = append(out, tf)
			seen[tf] = true
		}
	}
	return out
}

func orNoData(err error) error {
	if err == nil {
		return ErrNoData
	}
	return err
}

// IsIntraday reports whether an interval is finer than one day.
func IsIntraday(interval string) bool {
	return strings.HasSuffix(interval, "m") || strings.HasSuffix(interval, "h")
}
