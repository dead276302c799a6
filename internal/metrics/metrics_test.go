package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthEventAndCounterAdjusted(t *testing.T) {
	m := New()

	m.AuthEvent("login", "success")
	m.AuthEvent("login", "success")
	m.AuthEvent("login", "failure")
	m.CounterAdjusted("member", 1)
	m.CounterAdjusted("member", -1)
	m.CounterAdjusted("alumni", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.authEvents.WithLabelValues("login", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authEvents.WithLabelValues("login", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.counterAdjustments.WithLabelValues("member", "increment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.counterAdjustments.WithLabelValues("member", "decrement")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.counterAdjustments))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AuthEvent("register", "success")
		m.CounterAdjusted("member", 1)
		m.ObserveRequest("GET", "/ping", "200", 0.01)
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "/api/branches", "200", 0.02)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `branchdesk_http_requests_total{method="GET",route="/api/branches",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), "branchdesk_http_request_duration_seconds")
}
