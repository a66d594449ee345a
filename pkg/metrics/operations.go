package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	operationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduling_operations_total",
		Help: "Shift service operations by outcome.",
	}, []string{"operation", "result"})

	operationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scheduling_operation_duration_seconds",
		Help:    "Shift service operation latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// Collectors returns the scheduling collectors for registration on the
// metrics endpoint's registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{operationsTotal, operationDuration}
}

// ObserveOperation records one shift service operation. Call it deferred
// with the operation start time.
func ObserveOperation(operation string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	operationsTotal.WithLabelValues(operation, result).Inc()
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
