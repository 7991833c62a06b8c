// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "order_service"

var (
	// IntakeResults counts order submissions by terminal state
	// (created, region_not_found, region_inactive, failed).
	IntakeResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intake_results_total",
			Help:      "Order intake requests by terminal state.",
		},
		[]string{"result", "kind"},
	)

	// PartyOutcomes counts per-party notifier results.
	PartyOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "party_outcomes_total",
			Help:      "Per-party notification outcomes by role and kind.",
		},
		[]string{"role", "outcome"},
	)

	IdentityReconciled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identity_reconcile_total",
			Help:      "Pending identity sign-ups retried by the reconcile worker.",
		},
		[]string{"result"},
	)

	IntakeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "intake_duration_seconds",
			Help:      "Wall time of order intake, eligibility through persistence.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
