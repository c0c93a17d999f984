package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Score sources
const (
	SourceRatings = "ratings"
	SourceBatch   = "batch"
	SourcePreview = "preview"
)

type Metrics struct {
	registry *prometheus.Registry

	scoresComputed    *prometheus.CounterVec
	scoreDistribution prometheus.Histogram
	rescoreBatches    *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	geocodeRequests   *prometheus.CounterVec
	notifications     *prometheus.CounterVec
}

// New registers every collector on a private registry so tests can create
// as many instances as they like.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scoresComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "househunt_scores_computed_total",
			Help: "Number of property scores computed, by source.",
		}, []string{"source"}),
		scoreDistribution: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "househunt_score_value",
			Help:    "Distribution of computed scores.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		rescoreBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "househunt_rescore_batches_total",
			Help: "Rescore batches processed, by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "househunt_http_requests_total",
			Help: "HTTP requests served.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "househunt_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		geocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "househunt_geocoding_requests_total",
			Help: "Geocoding lookups, by result.",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "househunt_notifications_total",
			Help: "High score alerts, by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.scoresComputed,
		m.scoreDistribution,
		m.rescoreBatches,
		m.httpRequests,
		m.httpDuration,
		m.geocodeRequests,
		m.notifications,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterQueueDepth exposes the current queue length as a gauge
func (m *Metrics) RegisterQueueDepth(depth func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "househunt_rescore_queue_depth",
		Help: "Batches waiting in the rescore queue.",
	}, func() float64 { return float64(depth()) }))
}

func (m *Metrics) ObserveScore(source string, score int) {
	m.scoresComputed.WithLabelValues(source).Inc()
	m.scoreDistribution.Observe(float64(score))
}

func (m *Metrics) BatchProcessed(ok bool) {
	m.rescoreBatches.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) GeocodeResult(source string) {
	m.geocodeRequests.WithLabelValues(source).Inc()
}

func (m *Metrics) NotificationSent(ok bool) {
	m.notifications.WithLabelValues(result(ok)).Inc()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
