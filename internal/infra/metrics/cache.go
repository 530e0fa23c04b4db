package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(cacheRequestsTotal)
}

var cacheRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Cache lookups by entity and result.",
	},
	[]string{"entity", "result"}, // result: 'hit' | 'miss'
)

func IncCacheRequest(entity, result string) {
	cacheRequestsTotal.WithLabelValues(entity, result).Inc()
}
