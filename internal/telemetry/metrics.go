package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	CarrierErrors    *prometheus.CounterVec
	CostFallbacks    *prometheus.CounterVec
	StaleSearchDrops *prometheus.CounterVec
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kram_requests_total",
				Help: "Total number of requests by operation, carrier, and status",
			},
			[]string{"operation", "carrier", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kram_request_duration_seconds",
				Help:    "Request duration in seconds by operation and carrier",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "carrier"},
		),
		CarrierErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kram_carrier_errors_total",
				Help: "Total carrier API errors by carrier and error type",
			},
			[]string{"carrier", "error_type"},
		),
		CostFallbacks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kram_cost_fallback_total",
				Help: "Cost calculations that fell back to the flat default rate",
			},
			[]string{"carrier"},
		),
		StaleSearchDrops: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kram_stale_search_drops_total",
				Help: "Search responses discarded because a newer query superseded them",
			},
			[]string{"operation"},
		),
	}
}

// RecordRequest records a request metric.
func (m *Metrics) RecordRequest(operation, carrier, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, carrier, status).Inc()
	m.RequestDuration.WithLabelValues(operation, carrier).Observe(duration)
}

// RecordError records a carrier error metric.
func (m *Metrics) RecordError(carrier, errorType string) {
	m.CarrierErrors.WithLabelValues(carrier, errorType).Inc()
}

// RecordCostFallback records a cost calculation that used the fallback rate.
func (m *Metrics) RecordCostFallback(carrier string) {
	m.CostFallbacks.WithLabelValues(carrier).Inc()
}

// RecordStaleDrop records a discarded out-of-order search response.
func (m *Metrics) RecordStaleDrop(operation string) {
	m.StaleSearchDrops.WithLabelValues(operation).Inc()
}
