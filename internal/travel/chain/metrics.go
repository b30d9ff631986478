package chain

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	callDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "travelproof_chain_call_duration_seconds",
		Help:    "Latency of contract calls by method and outcome",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"method", "outcome"})

	visitedCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travelproof_visited_cache_lookups_total",
		Help: "Visited-country cache lookups by result",
	}, []string{"result"})
)
