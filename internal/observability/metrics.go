// Package observability exposes Prometheus metrics for the tracker core.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	routineAssemblyDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fitness_tracker",
		Subsystem: "aggregation",
		Name:      "routine_assembly_duration_seconds",
		Help:      "Time spent assembling composite routine views.",
		Buckets:   prometheus.DefBuckets,
	})
	routinesAssembled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitness_tracker",
		Subsystem: "aggregation",
		Name:      "routines_assembled_total",
		Help:      "Number of composite routine views assembled.",
	})
	storeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitness_tracker",
		Subsystem: "store",
		Name:      "errors_total",
		Help:      "Store operation failures by entity.",
	}, []string{"entity"})
)

func init() {
	prometheus.MustRegister(routineAssemblyDuration, routinesAssembled, storeErrors)
}

// RecordRoutineAssembly observes one assembly pass over count routines.
func RecordRoutineAssembly(count int, elapsed time.Duration) {
	routineAssemblyDuration.Observe(elapsed.Seconds())
	routinesAssembled.Add(float64(count))
}

// RecordStoreError counts a failed store operation for the given entity.
func RecordStoreError(entity string) {
	storeErrors.WithLabelValues(entity).Inc()
}
