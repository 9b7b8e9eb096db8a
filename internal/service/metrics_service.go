package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the fee engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	feeAssignments  *prometheus.CounterVec
	receiptStates   *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	feeAssignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fee_assignments_total",
		Help: "Fee ledger assignments by outcome",
	}, []string{"result"})

	receiptStates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fee_receipt_transitions_total",
		Help: "Receipt approval state transitions",
	}, []string{"from", "to"})

	cacheHits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits by resource",
	}, []string{"resource"})

	cacheMisses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses by resource",
	}, []string{"resource"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, feeAssignments, receiptStates, cacheHits, cacheMisses, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		feeAssignments:  feeAssignments,
		receiptStates:   receiptStates,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordFeeAssignment counts one assignment outcome (created, updated,
// skipped, error, forbidden).
func (m *MetricsService) RecordFeeAssignment(result string) {
	if m == nil {
		return
	}
	m.feeAssignments.WithLabelValues(result).Inc()
}

// RecordReceiptTransition counts a receipt approval state change.
func (m *MetricsService) RecordReceiptTransition(from, to string) {
	if m == nil {
		return
	}
	m.receiptStates.WithLabelValues(from, to).Inc()
}

// RecordCacheHit counts a cache hit for the resource.
func (m *MetricsService) RecordCacheHit(resource string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(resource).Inc()
}

// RecordCacheMiss counts a cache miss for the resource.
func (m *MetricsService) RecordCacheMiss(resource string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(resource).Inc()
}
