package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "taxline_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	reconcileTotal   *prometheus.CounterVec
	reconcileLatency *prometheus.HistogramVec
	reconcileErrors  *prometheus.CounterVec
	lineItemsStored  *prometheus.CounterVec
)

// Init registers the pricing metrics on the default registry.
func Init() {
	InitWith(prometheus.DefaultRegisterer)
}

// InitWith registers the pricing metrics on reg. Only the first call has an effect.
func InitWith(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reconcileTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reconcile_total",
				Help: "Total line reconciliations by price basis and result",
			},
			[]string{"basis", "result"},
		)
		reconcileLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "reconcile_latency_seconds",
				Help:    "Line reconciliation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		reconcileErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reconcile_errors_total",
				Help: "Total rejected reconciliations by reason",
			},
			[]string{"reason"},
		)
		lineItemsStored = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "line_items_stored_total",
				Help: "Total line items persisted by currency",
			},
			[]string{"currency"},
		)

		reg.MustRegister(
			reconcileTotal,
			reconcileLatency,
			reconcileErrors,
			lineItemsStored,
		)
	})
}

// ObserveReconcile records a reconciliation outcome and its duration.
func ObserveReconcile(basis, result string, duration time.Duration) {
	if basis == "" {
		basis = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if reconcileTotal != nil {
		reconcileTotal.WithLabelValues(basis, result).Inc()
	}
	if reconcileLatency != nil {
		reconcileLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncReconcileError increments the rejected reconciliation counter.
func IncReconcileError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if reconcileErrors != nil {
		reconcileErrors.WithLabelValues(reason).Inc()
	}
}

// IncLineItemStored increments the persisted line item counter.
func IncLineItemStored(currency string) {
	if lineItemsStored != nil {
		lineItemsStored.WithLabelValues(currency).Inc()
	}
}
