package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveScore(SourceRatings, 80)
	m.ObserveScore(SourceRatings, 0)
	m.ObserveScore(SourceBatch, 55)
	m.BatchProcessed(true)
	m.BatchProcessed(false)
	m.GeocodeResult("cache")
	m.NotificationSent(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.scoresComputed.WithLabelValues(SourceRatings)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scoresComputed.WithLabelValues(SourceBatch)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rescoreBatches.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.geocodeRequests.WithLabelValues("cache")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("success")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	depth := 3
	m.RegisterQueueDepth(func() int { return depth })
	m.ObserveRequest(http.MethodGet, "/api/properties", http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "househunt_rescore_queue_depth 3"))
	assert.True(t, strings.Contains(body, `househunt_http_requests_total{method="GET",route="/api/properties",status="200"} 1`))
}
