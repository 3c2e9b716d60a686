// Package metrics holds the Prometheus collectors for the weather cache.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_cache_hits_total",
			Help: "Lookups served from the cache without a fetch",
		},
		[]string{"mode"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_cache_misses_total",
			Help: "Lookups that required a fetch, by reason (absent, expired)",
		},
		[]string{"mode", "reason"},
	)

	CacheEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weather_cache_evictions_total",
			Help: "Entries evicted to keep the cache within capacity",
		},
	)

	Fetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_fetches_total",
			Help: "Provider fetches by outcome (ok or error kind)",
		},
		[]string{"outcome"},
	)

	SweepRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_sweep_refreshes_total",
			Help: "Stale entries refreshed by a polling sweep, by result",
		},
		[]string{"result"},
	)

	ClientInstances = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "weather_client_instances",
			Help: "Live client instances across all registries",
		},
	)
)

func init() {
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(CacheEvictions)
	prometheus.MustRegister(Fetches)
	prometheus.MustRegister(SweepRefreshes)
	prometheus.MustRegister(ClientInstances)
}
