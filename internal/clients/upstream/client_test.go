package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/factorlens/internal/metrics"
)

func newTestClient(m *metrics.Registry) *Client {
	return NewClient(Options{
		RequestsPerSecond: 1000,
		Burst:             1000,
		UserAgent:         "factorlens-test",
		RetryDelays:       []time.Duration{0, time.Millisecond, time.Millisecond},
	}, m, zerolog.Nop())
}

func TestClient_GetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "factorlens-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value": 42}`))
	}))
	defer server.Close()

	m := metrics.NewRegistry()
	c := newTestClient(m)

	var out struct {
		Value int `json:"value"`
	}
	headers := http.Header{}
	headers.Set("X-Api-Key", "secret")
	err := c.GetJSON(context.Background(), "test", server.URL, headers, &out)

	require.NoError(t, err)
	assert.Equal(t, 42, out.Value)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("test", "ok")))
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := newTestClient(nil)
	body, err := c.GetBytes(context.Background(), "test", server.URL, nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_GivesUpAfterSchedule(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(nil)
	_, err := c.GetBytes(context.Background(), "test", server.URL, nil)

	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "no such symbol", http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(nil)
	_, err := c.GetBytes(context.Background(), "test", server.URL, nil)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Contains(t, se.Body, "no such symbol")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_BreakerOpensOnRepeatedFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	m := metrics.NewRegistry()
	c := NewClient(Options{
		RequestsPerSecond: 1000,
		Burst:             1000,
		RetryDelays:       []time.Duration{0},
		BreakerTimeout:    time.Hour,
	}, m, zerolog.Nop())

	for i := 0; i < 5; i++ {
		_, err := c.GetBytes(context.Background(), "flaky", server.URL, nil)
		require.Error(t, err)
	}

	assert.Equal(t, "open", c.BreakerState("flaky"))
	_, err := c.GetBytes(context.Background(), "flaky", server.URL, nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BreakerState.WithLabelValues("flaky")))

	// Other providers are unaffected.
	assert.Equal(t, "closed", c.BreakerState("other"))
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(nil)
	for i := 0; i < 10; i++ {
		_, _ = c.GetBytes(context.Background(), "lookup", server.URL, nil)
	}
	assert.Equal(t, "closed", c.BreakerState("lookup"))
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(Options{RetryDelays: []time.Duration{0, time.Hour}}, nil, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.GetBytes(ctx, "slow", server.URL, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer server.Close()

	c := newTestClient(nil)
	var out map[string]interface{}
	err := c.GetJSON(context.Background(), "test", server.URL, nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestBrief(t *testing.T) {
	assert.Equal(t, "HTTP 503", Brief(fmt.Errorf("yahoo: %w", &StatusError{StatusCode: 503, URL: "https://x"})))
	assert.Equal(t, "circuit open", Brief(fmt.Errorf("yahoo: %w", ErrCircuitOpen)))
	assert.Equal(t, "boom", Brief(errors.New("boom")))
}
