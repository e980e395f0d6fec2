package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Assistant turns by outcome: replied, gateway_error, refused, dropped
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "friendlist",
			Subsystem: "assistant",
			Name:      "turns_total",
			Help:      "Total assistant turns by outcome",
		},
		[]string{"outcome"},
	)

	TurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "friendlist",
			Subsystem: "assistant",
			Name:      "turn_duration_seconds",
			Help:      "Wall time of a full assistant turn",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	// Parsed replies by result kind
	RepliesParsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "friendlist",
			Subsystem: "assistant",
			Name:      "replies_parsed_total",
			Help:      "Model replies by parsed result kind",
		},
		[]string{"kind"},
	)

	// Proposal decisions by action and decision
	ProposalDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "friendlist",
			Subsystem: "assistant",
			Name:      "proposal_decisions_total",
			Help:      "Accepted and rejected proposals",
		},
		[]string{"action", "decision"},
	)

	GroundingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "friendlist",
			Subsystem: "grounding",
			Name:      "requests_total",
			Help:      "Grounding lookups by source and status",
		},
		[]string{"source", "status"},
	)

	// Item store operations that fell back to the local cache
	StoreFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "friendlist",
			Subsystem: "items",
			Name:      "store_fallbacks_total",
			Help:      "Item operations served by the local cache",
		},
		[]string{"operation"},
	)

	ItemEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "friendlist",
			Subsystem: "items",
			Name:      "events_total",
			Help:      "Item change events observed on the event bus",
		},
		[]string{"type"},
	)

	FeedSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "friendlist",
			Subsystem: "feed",
			Name:      "subscribers",
			Help:      "Connected realtime feed clients",
		},
	)
)
