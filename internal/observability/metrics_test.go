package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "")

	m.RecordBacktest("success", 20*time.Millisecond)
	m.RecordBacktest("success", 10*time.Millisecond)
	m.RecordBacktest("error", time.Millisecond)
	m.RecordSignalCheck(true, false)
	m.RecordNotification("email", nil)
	m.RecordNotification("email", errors.New("smtp down"))
	m.RecordMarketDataEvent("PRICE_BAR", "stored")
	m.RecordHTTPRequest("/api/v1/backtest/run", 200, time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `strategy_forge_backtest_runs_total{status="success"} 2`)
	assert.Contains(t, body, `strategy_forge_backtest_runs_total{status="error"} 1`)
	assert.Contains(t, body, `strategy_forge_backtest_duration_seconds_count 3`)
	assert.Contains(t, body, `strategy_forge_signal_checks_total{entry="true",exit="false"} 1`)
	assert.Contains(t, body, `strategy_forge_notifications_total{channel="email",status="sent"} 1`)
	assert.Contains(t, body, `strategy_forge_notifications_total{channel="email",status="failed"} 1`)
	assert.Contains(t, body, `strategy_forge_ingestion_events_total{event_type="PRICE_BAR",status="stored"} 1`)
	assert.Contains(t, body, `strategy_forge_http_requests_total{code="200",route="/api/v1/backtest/run"} 1`)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordBacktest("success", time.Second)
		m.RecordSignalCheck(false, false)
		m.RecordNotification("email", nil)
		m.RecordMarketDataEvent("PRICE_BAR", "stored")
		m.RecordHTTPRequest("/health", 200, time.Millisecond)
	})
}

func TestSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(prometheus.NewRegistry(), "")
		NewMetrics(prometheus.NewRegistry(), "")
		NewMetrics(nil, "other")
	})
}
