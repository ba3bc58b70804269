package recordstore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var storeRequestDurationHist = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "form_gateway",
		Subsystem: "record_store",
		Name:      "request_duration_seconds",
		Help:      "Duration of calls to the record store.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"backend", "operation", "outcome"}, // outcome: "success" or "error"
)

// ObserveRequest records one record store call that started at start.
func ObserveRequest(backend, operation string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	storeRequestDurationHist.WithLabelValues(backend, operation, outcome).Observe(time.Since(start).Seconds())
}
