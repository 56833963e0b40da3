package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	reg prometheus.Gatherer

	PipelineRuns      *prometheus.CounterVec
	PipelineDuration  prometheus.Histogram
	Degradations      *prometheus.CounterVec
	SkippedSlots      *prometheus.CounterVec
	Publishes         *prometheus.CounterVec
	BackgroundJobs    *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPLatency       *prometheus.HistogramVec
	VectorSearchScore prometheus.Histogram
	KVOperations      *prometheus.HistogramVec
}

// NewMetrics registers every instrument on reg. Pass a fresh registry in
// tests so repeated construction does not collide.
func NewMetrics(reg *prometheus.Registry, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		PipelineRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by terminal state.",
		}, []string{"state"}),
		PipelineDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Wall time of pipeline runs that acquired the lock.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		Degradations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_degradations_total",
			Help:      "Fallbacks taken because upstream data was missing.",
		}, []string{"step"}),
		SkippedSlots: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selector_skipped_slots_total",
			Help:      "Required slots left empty for lack of candidates.",
		}, []string{"slot"}),
		Publishes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_publishes_total",
			Help:      "Layout update publishes by result.",
		}, []string{"result"}),
		BackgroundJobs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "background_jobs_total",
			Help:      "Detached jobs by name and result.",
		}, []string{"job", "result"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		VectorSearchScore: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vector_top_score",
			Help:      "Best cosine similarity returned by candidate searches.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		KVOperations: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kv_operation_duration_seconds",
			Help:      "Session store operation latency by backend, operation and status.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, 1},
		}, []string{"backend", "operation", "status"}),
	}
}

func (m *Metrics) RunFinished(state string, d time.Duration) {
	if m == nil {
		return
	}
	m.PipelineRuns.WithLabelValues(state).Inc()
	if d > 0 {
		m.PipelineDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) Degraded(step string) {
	if m == nil {
		return
	}
	m.Degradations.WithLabelValues(step).Inc()
}

func (m *Metrics) SlotSkipped(slot string) {
	if m == nil {
		return
	}
	m.SkippedSlots.WithLabelValues(slot).Inc()
}

func (m *Metrics) Published(result string) {
	if m == nil {
		return
	}
	m.Publishes.WithLabelValues(result).Inc()
}

func (m *Metrics) JobDone(job string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.BackgroundJobs.WithLabelValues(job, result).Inc()
}

func (m *Metrics) ObserveTopScore(score float64) {
	if m == nil {
		return
	}
	m.VectorSearchScore.Observe(score)
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ObserveKV(backend, operation, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.KVOperations.WithLabelValues(backend, operation, status).Observe(d.Seconds())
}

// Handler serves the registry the metrics were registered on.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
