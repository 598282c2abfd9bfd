// Package metrics exposes Prometheus instrumentation for API dispatch.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "omeka_api"

// Metrics holds the dispatch collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	handler          http.Handler
	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	failuresTotal    *prometheus.CounterVec
}

// New registers the dispatch collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	dispatchTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_total",
		Help:      "Total number of dispatched API requests",
	}, []string{"operation", "resource", "status"})

	dispatchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dispatch_duration_seconds",
		Help:      "Duration of API dispatch in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "resource"})

	failuresTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_failures_total",
		Help:      "Dispatches that ended in an uncaught error",
	}, []string{"operation", "resource"})

	registry.MustRegister(dispatchTotal, dispatchDuration, failuresTotal)

	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		dispatchTotal:    dispatchTotal,
		dispatchDuration: dispatchDuration,
		failuresTotal:    failuresTotal,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveDispatch records one dispatch that produced a response.
func (m *Metrics) ObserveDispatch(operation, resource, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(operation, resource, status).Inc()
	m.dispatchDuration.WithLabelValues(operation, resource).Observe(d.Seconds())
}

// ObserveFailure records one dispatch that returned an error.
func (m *Metrics) ObserveFailure(operation, resource string, d time.Duration) {
	if m == nil {
		return
	}
	m.failuresTotal.WithLabelValues(operation, resource).Inc()
	m.dispatchDuration.WithLabelValues(operation, resource).Observe(d.Seconds())
}

// Registry returns the underlying collector registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
