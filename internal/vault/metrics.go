package vault

import "github.com/prometheus/client_golang/prometheus"

var Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "vault",
	Subsystem: "sdv",
	Name:      "operations",
}, []string{"op", "result"})

var MergeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
	Namespace: "vault",
	Subsystem: "sdv",
	Name:      "merge_duration_seconds",
	Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
})

// Collectors returns the vault metrics for registration by the caller.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{Operations, MergeDuration}
}

func observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	Operations.WithLabelValues(op, result).Inc()
}
