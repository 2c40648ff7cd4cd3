package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	httpclient "github.com/cyphera/cyphera-agent/internal/client/http"
	"github.com/cyphera/cyphera-agent/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLogger("test")
}

func fastRetries() *httpclient.RetryConfig {
	return &httpclient.RetryConfig{
		MaxRetries:           3,
		InitialInterval:      time.Millisecond,
		MaxInterval:          5 * time.Millisecond,
		Multiplier:           2,
		MaxElapsedTime:       time.Second,
		RetryableStatusCodes: []int{http.StatusServiceUnavailable},
	}
}

func TestHTTPClient_RetriesWithDefaultHeaders(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "500", r.URL.Query().Get("amount"))
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client := httpclient.NewHTTPClient(
		httpclient.WithBaseURL(server.URL),
		httpclient.WithDefaultHeader("X-Api-Key", "secret"),
		httpclient.WithRetryConfig(fastRetries()),
	)

	var out map[string]string
	require.NoError(t, client.GetJSON(context.Background(), "quote", &out, httpclient.WithQueryParam("amount", "500")))
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("chainId"))
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"reason":"insufficient liquidity"}`))
	}))
	defer server.Close()

	client := httpclient.NewHTTPClient(httpclient.WithBaseURL(server.URL), httpclient.WithRetryConfig(fastRetries()))

	var out map[string]string
	err := client.GetJSON(context.Background(), "/price", &out, httpclient.WithQueryParam("chainId", "1"))
	var httpErr *httpclient.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "insufficient liquidity")
}

func TestHTTPClient_InvalidPathWithoutBaseURL(t *testing.T) {
	client := httpclient.NewHTTPClient()
	_, err := client.Get(context.Background(), "relative/path")
	assert.ErrorContains(t, err, "invalid path")
}
