// Package observability holds the Prometheus collectors for pending-action
// outcomes and API latency.
package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce        sync.Once
	pendingActionsTotal *prometheus.CounterVec
	apiRequestSeconds   *prometheus.HistogramVec
)

// RegisterMetrics initialises the collectors on the default registry.
func RegisterMetrics() {
	registerOnce.Do(func() {
		pendingActionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_pending_actions_total",
			Help: "Pending destructive actions by kind and lifecycle outcome.",
		}, []string{"kind", "outcome"})

		apiRequestSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roster_api_request_seconds",
			Help:    "Latency of platform API requests.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "status"})

		prometheus.MustRegister(pendingActionsTotal, apiRequestSeconds)
	})
}

// PendingActions exposes the outcome counter.
func PendingActions() *prometheus.CounterVec {
	RegisterMetrics()
	return pendingActionsTotal
}

// APIRequests exposes the request latency histogram.
func APIRequests() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiRequestSeconds
}

// Handler serves the scrape endpoint.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

// Recorder adapts the collectors to the small observer interfaces used by
// the undo controller and the API client.
type Recorder struct{}

// ObserveOutcome counts one lifecycle transition.
func (Recorder) ObserveOutcome(kind, outcome string) {
	PendingActions().WithLabelValues(kind, outcome).Inc()
}

// ObserveRequest records the duration of one API call. status is the HTTP
// status code, or "error" when no response was received.
func (Recorder) ObserveRequest(method, status string, seconds float64) {
	APIRequests().WithLabelValues(method, status).Observe(seconds)
}
