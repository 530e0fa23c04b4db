package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		entitlementEvaluations,
		quotaDenialsTotal,
		trialsStartedTotal,
	)
}

var (
	entitlementEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_evaluations_total",
			Help: "Entitlement evaluations by resulting state.",
		},
		[]string{"state"},
	)

	quotaDenialsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "generation_quota_denials_total",
			Help: "Generations denied because the trial quota was exhausted.",
		},
	)

	trialsStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trials_started_total",
			Help: "Trial records lazily created on first entitlement check.",
		},
	)
)

func IncEntitlementEvaluation(state string) {
	entitlementEvaluations.WithLabelValues(state).Inc()
}

func IncQuotaDenial() { quotaDenialsTotal.Inc() }

func IncTrialStarted() { trialsStartedTotal.Inc() }
