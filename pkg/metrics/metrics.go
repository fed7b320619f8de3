// Package metrics exposes Prometheus counters for the resolver pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetches counts outbound page fetches by result ("ok", "downgraded", "failed").
var Fetches = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dlhd_resolver_fetches_total",
	Help: "Outbound page fetches by result",
}, []string{"result"})

// CandidateOutcomes counts how each tried candidate ended.
var CandidateOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dlhd_resolver_candidate_outcomes_total",
	Help: "Candidate outcomes during resolution",
}, []string{"outcome"})

// StrategyHits counts successful decodes per strategy.
var StrategyHits = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dlhd_resolver_strategy_hits_total",
	Help: "Successful decodes per strategy",
}, []string{"strategy"})

// Resolutions counts finished resolve calls by result ("resolved", "unresolved").
var Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dlhd_resolver_resolutions_total",
	Help: "Finished resolve calls",
}, []string{"result"})

// ResolveDuration observes how long a resolve call took.
var ResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "dlhd_resolver_resolve_duration_seconds",
	Help:    "Time spent resolving one stream reference",
	Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
})

// CatalogRequests counts catalog lookups by kind and cache result.
var CatalogRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dlhd_resolver_catalog_requests_total",
	Help: "Catalog lookups by kind and cache result",
}, []string{"kind", "cache"})

// HTTPRequests counts API requests by method and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dlhd_resolver_http_requests_total",
	Help: "API requests served",
}, []string{"method", "status"})
