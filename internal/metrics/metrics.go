package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shopsearch"

// Outcome labels for upstream calls.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Recorder is the set of collectors the service reports to. A nil *Recorder
// is valid and records nothing.
type Recorder struct {
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	searchResults    *prometheus.HistogramVec
	degradedSearches *prometheus.CounterVec
	gatherer         prometheus.Gatherer
}

// NewRecorder registers the collectors on reg. When reg is also a Gatherer
// (a *prometheus.Registry) Handler serves from it.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream calls by source, operation and outcome.",
		}, []string{"source", "operation", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream call latency by source and operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source", "operation"}),
		searchResults: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Products returned per source for one search.",
			Buckets:   []float64{0, 1, 5, 10, 20, 50},
		}, []string{"source"}),
		degradedSearches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_degraded_total",
			Help:      "Searches where a source failed and was replaced by an empty list.",
		}, []string{"source"}),
	}

	reg.MustRegister(r.upstreamRequests, r.upstreamDuration, r.searchResults, r.degradedSearches)
	if g, ok := reg.(prometheus.Gatherer); ok {
		r.gatherer = g
	}
	return r
}

func (r *Recorder) ObserveUpstream(source, operation string, d time.Duration, err error) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	r.upstreamRequests.WithLabelValues(source, operation, outcome).Inc()
	r.upstreamDuration.WithLabelValues(source, operation).Observe(d.Seconds())
}

func (r *Recorder) ObserveSearch(source string, count int, degraded bool) {
	if r == nil {
		return
	}
	r.searchResults.WithLabelValues(source).Observe(float64(count))
	if degraded {
		r.degradedSearches.WithLabelValues(source).Inc()
	}
}

func (r *Recorder) Handler() http.Handler {
	if r == nil || r.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
