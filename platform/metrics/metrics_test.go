package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveHTTPRequest(t *testing.T) {
	m := NewManager(WithRegistry(prometheus.NewRegistry()))

	m.ObserveHTTPRequest("GET", "/api/v1/audits", 200, 15*time.Millisecond)
	m.ObserveHTTPRequest("GET", "/api/v1/audits", 200, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/audits", "200")))
}

func TestObserveUpstreamAndCache(t *testing.T) {
	m := NewManager(WithRegistry(prometheus.NewRegistry()))

	m.ObserveUpstreamCall("backlinks", false, time.Second)
	m.ObserveCacheLookup(true)
	m.ObserveCacheLookup(false)
	m.ObserveCacheLookup(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamCalls.WithLabelValues("backlinks", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
}

func TestHandlerExposesAuditMetrics(t *testing.T) {
	m := NewManager()
	m.ObserveAudit(72, 40)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "leadscout_audits_completed_total 1")
}
