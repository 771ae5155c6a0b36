// Package metrics exposes prometheus counters for the earn and redeem
// paths.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AwardsGranted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rangs_awards_granted_total",
		Help: "Earn entries committed for completed tasks.",
	})

	AwardsIneligible = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rangs_awards_ineligible_total",
		Help: "Completion events rejected as past due.",
	})

	AwardsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rangs_awards_duplicate_total",
		Help: "Completion events dropped by sourceRef idempotency.",
	})

	RedemptionsCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rangs_redemptions_committed_total",
		Help: "Redemptions that debited the wallet.",
	})

	RedemptionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rangs_redemptions_rejected_total",
		Help: "Redemptions rejected, by reason code.",
	}, []string{"reason"})
)
