package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LookupsTotal counts finished lookups by winning source and outcome.
	LookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "next_whois",
		Name:      "lookups_total",
		Help:      "Lookups completed, by source and status.",
	}, []string{"source", "status"})

	// LookupDuration observes wall time of uncached lookups.
	LookupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "next_whois",
		Name:      "lookup_duration_seconds",
		Help:      "Time spent resolving a query against RDAP and WHOIS.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30},
	}, []string{"source"})

	// CacheEvents counts cache hits, misses and errors.
	CacheEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "next_whois",
		Name:      "cache_events_total",
		Help:      "Result cache reads and write failures.",
	}, []string{"event"})

	// BranchFailures counts protocol branch failures by kind.
	BranchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "next_whois",
		Name:      "branch_failures_total",
		Help:      "Failed RDAP or WHOIS branches, by error kind.",
	}, []string{"branch", "kind"})
)
