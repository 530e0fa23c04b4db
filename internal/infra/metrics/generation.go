package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		generationsTotal,
		generationDuration,
	)
}

var (
	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meal_plan_generations_total",
			Help: "Meal-plan generation attempts by outcome.",
		},
		[]string{"outcome"}, // 'ok', 'error'
	)

	generationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meal_plan_generation_seconds",
			Help:    "Latency of meal-plan generation calls to the AI provider.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)
)

func IncGeneration(outcome string) {
	generationsTotal.WithLabelValues(outcome).Inc()
}

func ObserveGeneration(seconds float64) {
	generationDuration.Observe(seconds)
}
