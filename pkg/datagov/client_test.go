package datagov

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luc0-0/Samarth/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/res-123", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("api-key"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "50", q.Get("limit"))
		assert.Equal(t, "Maharashtra", q.Get("filters[state]"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"records":[{"commodity":"Onion","modal_price":"1400","state":"Maharashtra"}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key",
		WithBaseURL(srv.URL),
		WithRateLimit(1000),
		WithRetryConfig(fastRetry()),
	)

	records, err := c.Fetch(context.Background(), "res-123", map[string]string{"state": "Maharashtra"}, 50)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Onion", records[0]["commodity"])
}

func TestFetchRetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"records":[{"commodity":"Potato"}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key",
		WithBaseURL(srv.URL),
		WithRateLimit(1000),
		WithRetryConfig(fastRetry()),
	)

	records, err := c.Fetch(context.Background(), "res-123", nil, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.EqualValues(t, 3, calls.Load())
}

func TestFetchDoesNotRetry4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"invalid api key"}`))
	}))
	defer srv.Close()

	c := NewClient("bad-key",
		WithBaseURL(srv.URL),
		WithRateLimit(1000),
		WithRetryConfig(fastRetry()),
	)

	_, err := c.Fetch(context.Background(), "res-123", nil, 10)
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
	assert.Contains(t, err.Error(), "403")
}

func TestFetchEmptyAPIKey(t *testing.T) {
	c := NewClient("")
	_, err := c.Fetch(context.Background(), "res-123", nil, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
}

func TestFetchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	c := NewClient("test-key",
		WithBaseURL(srv.URL),
		WithRateLimit(1000),
		WithRetryConfig(fastRetry()),
	)

	_, err := c.Fetch(context.Background(), "res-123", nil, 10)
	require.Error(t, err)
}

func TestFetchCircuitOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient("test-key",
		WithBaseURL(srv.URL),
		WithRateLimit(1000),
		WithRetryConfig(resilience.RetryConfig{MaxAttempts: 1, InitialBackoff: time.Millisecond}),
	)

	// The breaker counts each Fetch as one failure; after the threshold
	// it rejects without touching the network.
	for i := 0; i < 5; i++ {
		_, err := c.Fetch(context.Background(), "res-123", nil, 10)
		require.Error(t, err)
	}
	_, err := c.Fetch(context.Background(), "res-123", nil, 10)
	require.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestFetchDefaultLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"records":[]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(1000), WithRetryConfig(fastRetry()))
	records, err := c.Fetch(context.Background(), "res-123", nil, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}
