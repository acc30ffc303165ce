// Package metrics holds the business counters exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Authorization outcomes.
const (
	OutcomeAllow = "allow"
	OutcomeDeny  = "deny"
	OutcomeError = "error"
)

var (
	// PaymentsRecorded counts recorded payments by provider.
	PaymentsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopper_payments_recorded_total",
			Help: "Payments recorded, by payment provider",
		},
		[]string{"provider"},
	)

	// PaymentsRejected counts submissions refused by verification.
	PaymentsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopper_payments_rejected_total",
			Help: "Payment submissions rejected during provider verification",
		},
		[]string{"reason"},
	)

	// ReviewsIngested counts stored reviews.
	ReviewsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shopper_reviews_ingested_total",
			Help: "Reviews stored and folded into product ratings",
		},
	)

	// AuthzDecisions counts role checks by capability and outcome.
	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopper_authz_decisions_total",
			Help: "Role authorization decisions",
		},
		[]string{"capability", "outcome"},
	)

	// SearchFallbacks counts catalog searches answered by the repository
	// because the search index could not.
	SearchFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shopper_search_fallbacks_total",
			Help: "Catalog searches served by the repository filter after a search index failure",
		},
	)

	// CompensationsApplied counts compensating actions run by event consumers.
	CompensationsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopper_compensations_applied_total",
			Help: "Compensating actions run by the event consumers",
		},
		[]string{"action"},
	)
)
