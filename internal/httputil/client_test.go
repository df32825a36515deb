package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PremarketScanner/internal/logger"
)

func newTestClient(retries int) *Client {
	return New(Options{
		Timeout:      2 * time.Second,
		MaxRetries:   retries,
		InitialDelay: time.Millisecond,
		UserAgent:    "test-agent",
	}, logger.Nop())
}

func TestClient_GetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"price": 101.5}`))
	}))
	defer server.Close()

	var out struct {
		Price float64 `json:"price"`
	}
	require.NoError(t, newTestClient(0).GetJSON(context.Background(), server.URL, &out))
	assert.Equal(t, 101.5, out.Price)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	body, err := newTestClient(3).Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("no such symbol"))
	}))
	defer server.Close()

	_, err := newTestClient(3).Get(context.Background(), server.URL)
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_PostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	_, err := newTestClient(0).PostJSON(context.Background(), server.URL, map[string]string{"content": "hi"})
	assert.NoError(t, err)
}

func TestClient_CanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestClient(5).Get(ctx, server.URL)
	assert.Error(t, err)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(429))
	assert.True(t, IsRetryable(503))
	assert.False(t, IsRetryable(400))
	assert.False(t, IsRetryable(404))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "https://example.com/v1/bars", redact("https://example.com/v1/bars?apikey=secret"))
}
