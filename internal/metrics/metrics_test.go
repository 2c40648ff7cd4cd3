package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New("test")

	m.ObserveRedemption("CONFIRMED")
	m.ObserveRedemption("CONFIRMED")
	m.ObserveRedemption("FAILED")
	m.ObserveQuoteFailure("zeroex", "timeout")
	m.ObserveReservation("reserve", "ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.redemptions.WithLabelValues("CONFIRMED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.redemptions.WithLabelValues("FAILED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.quoteFailures.WithLabelValues("zeroex", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reservations.WithLabelValues("reserve", "ok")))

	m.SetReconciliationPending(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.parked))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRedemption("FAILED")
		m.ObserveQuote("uniswap_v3", time.Second)
		m.ObserveQuoteFailure("uniswap_v3", "error")
		m.ObserveReservation("reserve", "ok")
		m.ObserveRequest("/x", http.MethodGet, http.StatusOK, time.Millisecond)
		m.SetReconciliationPending(1)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := New("")
	m.ObserveRequest("/health", http.MethodGet, http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "cyphera_agent_http_requests_total")
}
