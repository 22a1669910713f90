// Package metrics exposes Prometheus collectors for player calls and controller activity.
//
// Each [Metrics] owns its registry so tests and multiple controllers never collide.
// All methods are safe on a nil receiver, which disables collection.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "signctl"

// Metrics holds the controller's collectors.
type Metrics struct {
	registry *prometheus.Registry

	PlayerRequestsTotal   *prometheus.CounterVec
	PlayerRequestDuration *prometheus.HistogramVec
	StatusPollFailures    prometheus.Counter
	UploadsTotal          *prometheus.CounterVec
	ReordersTotal         *prometheus.CounterVec
	ThumbnailFaultsTotal  prometheus.Counter
	ThumbnailFaultsActive prometheus.Gauge
}

// New creates collectors registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		PlayerRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "player_requests_total",
				Help:      "Total number of requests sent to the signage player",
			},
			[]string{"operation", "outcome"},
		),
		PlayerRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "player_request_duration_seconds",
				Help:      "Time until the player answered a request",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
		StatusPollFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "status_poll_failures_total",
				Help:      "Status polls that failed and kept the previous snapshot",
			},
		),
		UploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_total",
				Help:      "Files processed by the upload pipeline",
			},
			[]string{"outcome"},
		),
		ReordersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reorders_total",
				Help:      "Finished drag gestures by outcome",
			},
			[]string{"outcome"}, // persisted, rolled_back, noop, cancelled, stale
		),
		ThumbnailFaultsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "thumbnail_faults_total",
				Help:      "Thumbnail retrieval failures",
			},
		),
		ThumbnailFaultsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "thumbnail_faults_active",
				Help:      "Thumbnails currently shown as fallback",
			},
		),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObservePlayerRequest records one player call started at start.
func (m *Metrics) ObservePlayerRequest(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.PlayerRequestsTotal.WithLabelValues(operation, outcome).Inc()
	m.PlayerRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// StatusPollFailed counts a failed poll.
func (m *Metrics) StatusPollFailed() {
	if m == nil {
		return
	}
	m.StatusPollFailures.Inc()
}

// UploadFinished counts one file of an upload batch.
func (m *Metrics) UploadFinished(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.UploadsTotal.WithLabelValues("error").Inc()
		return
	}
	m.UploadsTotal.WithLabelValues("success").Inc()
}

// ReorderFinished counts a drag gesture outcome.
func (m *Metrics) ReorderFinished(outcome string) {
	if m == nil {
		return
	}
	m.ReordersTotal.WithLabelValues(outcome).Inc()
}

// ThumbnailFaultRaised tracks a newly faulted thumbnail; renewed reports whether it was already faulted.
func (m *Metrics) ThumbnailFaultRaised(renewed bool) {
	if m == nil {
		return
	}
	m.ThumbnailFaultsTotal.Inc()
	if !renewed {
		m.ThumbnailFaultsActive.Inc()
	}
}

// ThumbnailFaultCleared tracks an expired fault.
func (m *Metrics) ThumbnailFaultCleared() {
	if m == nil {
		return
	}
	m.ThumbnailFaultsActive.Dec()
}
