// Package metrics exposes prometheus instrumentation for the peg-out graph
// state machine: broadcast attempts, confirmation latency, and pre-sign
// completion, per the domain-stack wiring for github.com/prometheus/client_golang.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// BroadcastAttempts counts every broadcast attempt made by the
	// action executor's poll loop, labeled by transaction name and
	// outcome.
	BroadcastAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pegout",
			Subsystem: "action",
			Name:      "broadcast_attempts_total",
			Help:      "Number of broadcast attempts made per transaction.",
		},
		[]string{"tx", "outcome"},
	)

	// ConfirmationLatency records the wall-clock time between a
	// transaction's broadcast and its first confirmation, labeled by
	// transaction name.
	ConfirmationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pegout",
			Subsystem: "action",
			Name:      "confirmation_latency_seconds",
			Help:      "Time between broadcast and first confirmation, per transaction.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		},
		[]string{"tx"},
	)

	// PresignCompletions counts graphs reaching n_of_n_presigned == true,
	// labeled by the number of n-of-n signers involved.
	PresignCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pegout",
			Subsystem: "presign",
			Name:      "completions_total",
			Help:      "Number of graphs that completed two-round pre-signing.",
		},
		[]string{"signer_count"},
	)

	// PendingPresignedTxs reports, per graph id, the number of
	// pre-signed transactions still missing at least one signature.
	PendingPresignedTxs = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pegout",
			Subsystem: "presign",
			Name:      "pending_txs",
			Help:      "Pre-signed transactions still missing a signature, per graph.",
		},
		[]string{"graph_id"},
	)
)

func init() {
	prometheus.MustRegister(
		BroadcastAttempts,
		ConfirmationLatency,
		PresignCompletions,
		PendingPresignedTxs,
	)
}

// ObserveConfirmation records the latency between broadcastAt and now for
// the named transaction.
func ObserveConfirmation(tx string, broadcastAt time.Time) {
	ConfirmationLatency.WithLabelValues(tx).Observe(time.Since(broadcastAt).Seconds())
}
