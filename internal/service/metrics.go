package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeCreated    = "created"
	outcomeInvalid    = "invalid"
	outcomeDuplicate  = "duplicate"
	outcomeStoreError = "store_error"
)

var (
	submissionsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "form_gateway",
			Name:      "submissions_total",
			Help:      "Total form submissions by outcome.",
		},
		[]string{"outcome"},
	)

	dedupCheckFailuresCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "form_gateway",
			Name:      "dedup_check_failures_total",
			Help:      "Duplicate checks that could not complete and were skipped.",
		},
	)
)
