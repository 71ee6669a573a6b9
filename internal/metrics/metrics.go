package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Ledger metrics
	// ============================================
	LedgerLeafCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ghost_ledger_leaf_count",
		Help: "Number of commitments in the ledger",
	})

	LedgerInserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghost_ledger_inserts_total",
			Help: "Total number of commitment inserts",
		},
		[]string{"origin"},
	)

	LedgerRootsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghost_ledger_roots_submitted_total",
		Help: "Total number of accepted root submissions",
	})

	LedgerKnownRoots = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ghost_ledger_known_roots",
		Help: "Size of the permanent known-root set",
	})

	// ============================================
	// Nullifier registry metrics
	// ============================================
	NullifiersSpent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ghost_nullifiers_spent",
		Help: "Number of spent nullifiers",
	})

	// ============================================
	// Redemption metrics
	// ============================================
	TotalGhosted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ghost_total_ghosted",
		Help: "Cumulative ghosted value (float approximation of the exact counter)",
	})

	TotalRedeemed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ghost_total_redeemed",
		Help: "Cumulative redeemed value (float approximation of the exact counter)",
	})

	OutstandingValue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ghost_outstanding_value",
		Help: "Value bound in unredeemed vouchers (float approximation)",
	})

	RedemptionOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghost_redemption_ops_total",
			Help: "Total redemption operations by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	RedemptionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ghost_redemption_duration_seconds",
			Help:    "Redemption operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// ============================================
	// Proof verifier metrics
	// ============================================
	VerifierRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghost_verifier_requests_total",
			Help: "Total verifier requests by kind and result",
		},
		[]string{"kind", "result"},
	)

	VerifierDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ghost_verifier_duration_seconds",
			Help:    "Verifier round-trip duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// ============================================
	// Tree builder metrics
	// ============================================
	BuilderRounds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghost_builder_rounds_total",
			Help: "Tree builder rounds by outcome",
		},
		[]string{"outcome"},
	)

	BuilderLag = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ghost_builder_lag_leaves",
		Help: "Leaves inserted since the last submitted root",
	})

	// ============================================
	// NATS metrics
	// ============================================
	NATSConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ghost_nats_connection_status",
		Help: "NATS connection status (1=connected, 0=disconnected)",
	})

	NATSEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghost_nats_events_published_total",
			Help: "Total protocol events published to NATS",
		},
		[]string{"event_type"},
	)

	NATSPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghost_nats_publish_failures_total",
			Help: "Total NATS publish failures",
		},
		[]string{"event_type"},
	)

	// ============================================
	// Websocket metrics
	// ============================================
	WSSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ghost_ws_subscribers",
		Help: "Connected websocket subscribers",
	})
)
