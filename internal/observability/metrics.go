// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name
const DefaultNamespace = "strategy_forge"

// Metrics holds all Prometheus metrics for the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Engine metrics
	BacktestRuns     *prometheus.CounterVec
	BacktestDuration prometheus.Histogram
	SignalChecks     *prometheus.CounterVec
	Notifications    *prometheus.CounterVec

	// Ingestion metrics
	MarketDataEvents *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewMetrics registers all metrics with reg. A nil reg uses a fresh registry.
func NewMetrics(reg *prometheus.Registry, namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		BacktestRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backtest_runs_total",
			Help:      "Total number of backtest runs by outcome",
		}, []string{"status"}),
		BacktestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backtest_duration_seconds",
			Help:      "Wall time of backtest runs",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		SignalChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_checks_total",
			Help:      "Total number of signal checks by match outcome",
		}, []string{"entry", "exit"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Total number of signal notifications by channel and status",
		}, []string{"channel", "status"}),
		MarketDataEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_total",
			Help:      "Total number of market data events by type and status",
		}, []string{"event_type", "status"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		gatherer: reg,
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordBacktest records one backtest run.
func (m *Metrics) RecordBacktest(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.BacktestRuns.WithLabelValues(status).Inc()
	m.BacktestDuration.Observe(elapsed.Seconds())
}

// RecordSignalCheck records the outcome of a signal check.
func (m *Metrics) RecordSignalCheck(entry, exit bool) {
	if m == nil {
		return
	}
	m.SignalChecks.WithLabelValues(strconv.FormatBool(entry), strconv.FormatBool(exit)).Inc()
}

// RecordNotification records a notification attempt.
func (m *Metrics) RecordNotification(channel string, err error) {
	if m == nil {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	m.Notifications.WithLabelValues(channel, status).Inc()
}

// RecordMarketDataEvent records a consumed market data event.
func (m *Metrics) RecordMarketDataEvent(eventType, status string) {
	if m == nil {
		return
	}
	m.MarketDataEvents.WithLabelValues(eventType, status).Inc()
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
