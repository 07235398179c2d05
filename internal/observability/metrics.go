// Package observability wires prometheus metrics for the HTTP surface and
// the posting pipeline.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics carries every collector the service registers. Construct once
// per process with NewMetrics.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge

	EntriesPosted   *prometheus.CounterVec
	PostingFailures *prometheus.CounterVec
	SequenceRetries prometheus.Counter
	JobRuns         *prometheus.CounterVec
	JobDuration     *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "meridian_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "meridian_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "meridian_http_requests_in_flight",
			Help: "Currently served HTTP requests.",
		}),
		EntriesPosted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "meridian_journal_entries_posted_total",
			Help: "Posted journal entries by source module.",
		}, []string{"source"}),
		PostingFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "meridian_journal_posting_failures_total",
			Help: "Rejected postings by reason.",
		}, []string{"reason"}),
		SequenceRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "meridian_journal_sequence_retries_total",
			Help: "Reference number collisions retried.",
		}),
		JobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "meridian_job_runs_total",
			Help: "Background job executions by task and outcome.",
		}, []string{"task", "outcome"}),
		JobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "meridian_job_duration_seconds",
			Help:    "Background job execution time.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"task"}),
	}
}

// Handler serves the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware instruments a chi route subtree.
func (m *Metrics) Middleware(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.httpInFlight.Inc()
			defer m.httpInFlight.Dec()

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Tracker times one background job run and records its outcome.
type Tracker struct {
	metrics *Metrics
	task    string
	start   time.Time
}

func (m *Metrics) Track(task string) *Tracker {
	return &Tracker{metrics: m, task: task, start: time.Now()}
}

func (t *Tracker) Done(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	t.metrics.JobRuns.WithLabelValues(t.task, outcome).Inc()
	t.metrics.JobDuration.WithLabelValues(t.task).Observe(time.Since(t.start).Seconds())
}
