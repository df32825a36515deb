package trace

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestStartSpan_Disabled(t *testing.T) {
	require.NoError(t, Init(false, "test"))

	ctx, span := StartSpan(context.Background(), "noop")
	defer span.End()

	assert.False(t, span.IsRecording())
	_, _, ok := Fields(ctx)
	assert.False(t, ok)
}

func TestStartSpan_ExportsToWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWithWriter(true, "scanner-test", &buf))

	ctx, span := StartSpan(context.Background(), "scanner.AnalyzeSymbol", attribute.String("symbol", "AAPL"))
	traceID, spanID, ok := Fields(ctx)
	assert.True(t, ok)
	assert.NotEmpty(t, traceID)
	assert.NotEmpty(t, spanID)
	Fail(span, errors.New("no data"))
	span.End()

	require.NoError(t, Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "scanner.AnalyzeSymbol")
	assert.Contains(t, buf.String(), "AAPL")
	assert.False(t, Enabled())
}
