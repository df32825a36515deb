package collector

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"PremarketScanner/internal/trace"
)

type tracedProvider struct {
	provider Provider
}

var _ Provider = (*tracedProvider)(nil)

// Traced wraps provider so every chart fetch runs in its own span.
func Traced(provider Provider) Provider {
	return &tracedProvider{provider: provider}
}

func (t *tracedProvider) Name() string { return t.provider.Name() }

func (t *tracedProvider) FetchChart(ctx context.Context, symbol, period, interval string) (*RawFrame, error) {
	ctx, span := trace.StartSpan(ctx, "collector.FetchChart",
		attribute.String("provider", t.provider.Name()),
		attribute.String("symbol", symbol),
		attribute.String("period", period),
		attribute.String("interval", interval),
	)
	defer span.End()

	frame, err := t.provider.FetchChart(ctx, symbol, period, interval)
	if err != nil {
		trace.Fail(span, err)
		return nil, err
	}
	if frame != nil {
		span.SetAttributes(attribute.Int("rows", len(frame.Timestamps)))
	}
	return frame, nil
}
