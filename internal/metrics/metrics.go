// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "seogaeum"

// Library lookup outcomes.
const (
	OutcomeHit      = "hit"
	OutcomeCacheHit = "cache_hit"
	OutcomeMiss     = "miss"
	OutcomeFailure  = "failure"
)

var (
	// LibraryLookups counts availability lookups by outcome.
	LibraryLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "library",
		Name:      "lookups_total",
		Help:      "Library availability lookups by outcome.",
	}, []string{"outcome"})

	// LibraryLookupDuration observes external lookup latency.
	LibraryLookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "library",
		Name:      "lookup_duration_seconds",
		Help:      "Latency of external library availability calls.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2},
	})

	// TradeTransitions counts applied room status changes.
	TradeTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "trade",
		Name:      "transitions_total",
		Help:      "Trade room status transitions by target status and mechanism.",
	}, []string{"status", "mechanism"})

	// TradeRequests counts status change requests by resulting state.
	TradeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "trade",
		Name:      "requests_total",
		Help:      "Status change requests by state (pending on creation, accepted or rejected on resolution).",
	}, []string{"state"})

	// HubClients is the number of connected live-feed clients.
	HubClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "hub",
		Name:      "clients",
		Help:      "Connected WebSocket room-feed clients.",
	})
)
