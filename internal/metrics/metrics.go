package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "cyphera_agent"

// Metrics holds the agent's collectors on a private registry.
// All methods are safe to call on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	requests         *prometheus.CounterVec
	requestDurations *prometheus.HistogramVec
	redemptions      *prometheus.CounterVec
	reservations     *prometheus.CounterVec
	quoteLatency     *prometheus.HistogramVec
	quoteFailures    *prometheus.CounterVec
	parked           prometheus.Gauge
}

// New registers the agent collectors under namespace.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = defaultNamespace
	}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed.",
		}, []string{"route", "method", "status"}),
		requestDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redemptions_total",
			Help:      "Redemption attempts by terminal state.",
		}, []string{"state"}),
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "budget_reservations_total",
			Help:      "Budget ledger operations by outcome.",
		}, []string{"operation", "outcome"}),
		quoteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_latency_seconds",
			Help:      "Liquidity source quote latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"source"}),
		quoteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_failures_total",
			Help:      "Liquidity source quotes that failed, timed out or were rejected.",
		}, []string{"source", "reason"}),
		parked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reconciliation_pending",
			Help:      "Executions awaiting a definitive relay status.",
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.requestDurations,
		m.redemptions,
		m.reservations,
		m.quoteLatency,
		m.quoteFailures,
		m.parked,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, http.StatusText(status)).Inc()
	m.requestDurations.WithLabelValues(route, method).Observe(duration.Seconds())
}

func (m *Metrics) ObserveRedemption(state string) {
	if m == nil {
		return
	}
	m.redemptions.WithLabelValues(state).Inc()
}

func (m *Metrics) ObserveReservation(operation, outcome string) {
	if m == nil {
		return
	}
	m.reservations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveQuote(source string, duration time.Duration) {
	if m == nil {
		return
	}
	m.quoteLatency.WithLabelValues(source).Observe(duration.Seconds())
}

func (m *Metrics) ObserveQuoteFailure(source, reason string) {
	if m == nil {
		return
	}
	m.quoteFailures.WithLabelValues(source, reason).Inc()
}

func (m *Metrics) SetReconciliationPending(n int) {
	if m == nil {
		return
	}
	m.parked.Set(float64(n))
}
