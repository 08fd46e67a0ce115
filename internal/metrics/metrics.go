// Package metrics provides application-level Prometheus metrics.
// Every Metrics value owns a private registry so tests and multiple
// storefront instances never collide on the default registerer.
// All methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "skillmint"

// Result labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultStale   = "stale"
)

// Metrics holds the storefront collectors.
type Metrics struct {
	registry *prometheus.Registry

	rpcCalls      *prometheus.CounterVec
	rpcLatency    *prometheus.HistogramVec
	refreshRounds *prometheus.CounterVec
	purchases     *prometheus.CounterVec
	inFlight      prometheus.Gauge
	notifications *prometheus.CounterVec
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		rpcCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "Total chain RPC calls by method and status",
		}, []string{"method", "status"}),
		rpcLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "Latency of chain RPC calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		refreshRounds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "refresh_rounds_total",
			Help:      "Catalog refresh rounds by result",
		}, []string{"result"}),
		purchases: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "purchase",
			Name:      "attempts_total",
			Help:      "Purchase attempts by result",
		}, []string{"result"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "purchase",
			Name:      "in_flight",
			Help:      "Purchases currently awaiting confirmation",
		}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "published_total",
			Help:      "Notifications published by kind",
		}, []string{"kind"}),
	}
}

// RecordRPCCall records an RPC call with its duration and success status.
func (m *Metrics) RecordRPCCall(method string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := ResultSuccess
	if err != nil {
		status = ResultError
	}
	m.rpcCalls.WithLabelValues(method, status).Inc()
	m.rpcLatency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordRefresh records the outcome of a catalog refresh round.
func (m *Metrics) RecordRefresh(result string) {
	if m == nil {
		return
	}
	m.refreshRounds.WithLabelValues(result).Inc()
}

// RecordPurchase records the outcome of a purchase attempt.
func (m *Metrics) RecordPurchase(result string) {
	if m == nil {
		return
	}
	m.purchases.WithLabelValues(result).Inc()
}

// PurchaseStarted increments the in-flight gauge.
func (m *Metrics) PurchaseStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// PurchaseFinished decrements the in-flight gauge.
func (m *Metrics) PurchaseFinished() {
	if m == nil {
		return
	}
	m.inFlight.Dec()
}

// RecordNotification counts a published notification.
func (m *Metrics) RecordNotification(kind string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind).Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
