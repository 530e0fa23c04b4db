package metrics

import (
	"mealplan-subscription/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		renewalsTotal,
		subscriptionsTotal,
		renewalCycleDuration,
	)
}

var (
	renewalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_renewals_total",
			Help: "Renewal attempts by outcome.",
		},
		[]string{"outcome"}, // 'renewed', 'declined', 'transient_error'
	)

	subscriptionsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscriptions_total",
			Help: "Current number of subscriptions by status.",
		},
		[]string{"status"}, // 'pending', 'active', 'cancelled', 'payment_failed'
	)

	renewalCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "subscription_renewal_cycle_seconds",
			Help:    "Duration of one renewal processor cycle.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func IncRenewal(outcome string) {
	renewalsTotal.WithLabelValues(outcome).Inc()
}

func ObserveRenewalCycle(seconds float64) {
	renewalCycleDuration.Observe(seconds)
}

func SetSubscriptionsTotal(counts map[model.SubscriptionStatus]int) {
	statuses := []model.SubscriptionStatus{
		model.SubscriptionStatusPending,
		model.SubscriptionStatusActive,
		model.SubscriptionStatusCancelled,
		model.SubscriptionStatusPaymentFailed,
	}
	for _, status := range statuses {
		if count, ok := counts[status]; ok {
			subscriptionsTotal.WithLabelValues(string(status)).Set(float64(count))
		}
	}
}
