// Package metrics defines prometheus metric types and provides convenience
// methods to add accounting to various parts of the pipeline.
//
// When defining new operations or metrics, these are helpful values to track:
//  - things coming into or go out of the system: PDUs, adjacencies, LSPs.
//  - the success or error status of any of the above.
//  - the distribution of processing latency.
package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PDUsReceived counts every decoded PDU, labeled by circuit and type.
	PDUsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isisd_pdus_received_total",
			Help: "Number of IS-IS PDUs received, by circuit and PDU type.",
		}, []string{"circuit", "pdu_type"})

	// PDUsDropped counts PDUs that failed to decode or failed a sanity
	// check (bad checksum, truncated fixed fields, unknown PDU type).
	PDUsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isisd_pdus_dropped_total",
			Help: "Number of received PDUs dropped, by circuit and reason.",
		}, []string{"circuit", "reason"})

	// PDUsSent counts every PDU this instance transmits, labeled by circuit
	// and type.
	PDUsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isisd_pdus_sent_total",
			Help: "Number of IS-IS PDUs sent, by circuit and PDU type.",
		}, []string{"circuit", "pdu_type"})

	// AdjacencyTransitions counts every adjacency state change, labeled by
	// the old and new state, e.g. from="Initializing" to="Up".
	AdjacencyTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isisd_adjacency_transitions_total",
			Help: "Number of adjacency state transitions, by old and new state.",
		}, []string{"from", "to"})

	// AdjacencyUpCount tracks the current number of Up adjacencies per
	// level. Unlike a counter this can go down, so it's a gauge.
	AdjacencyUpCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "isisd_adjacency_up_count",
			Help: "Current number of Up adjacencies, by level.",
		}, []string{"level"})

	// LSDBSize tracks the current number of LSPs held in the database, per
	// level.
	LSDBSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "isisd_lsdb_size",
			Help: "Current number of LSP segments in the database, by level.",
		}, []string{"level"})

	// FloodLatencyHistogram is defined for the time between an LSP being
	// flagged SRM and the corresponding frame being written to the wire.
	// Nothing in this module observes it, so it stays empty.
	FloodLatencyHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "isisd_flood_latency_seconds",
			Help: "Latency between an LSP being flagged for flooding and being sent.",
			Buckets: []float64{
				0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005,
				0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
			},
		},
	)

	// PurgeCount counts zero-age purges, labeled by reason ("expired" or
	// "force").
	PurgeCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isisd_purge_total",
			Help: "Number of LSPs purged, by reason.",
		}, []string{"reason"})

	// OwnLSPRegenCount counts how many times this instance has regenerated
	// its own (non-pseudonode or pseudonode) LSP, per level.
	OwnLSPRegenCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isisd_own_lsp_regen_total",
			Help: "Number of times this instance regenerated one of its own LSPs.",
		}, []string{"level"})

	// DISElectionCount counts DIS elections that changed the winner, per
	// circuit and level, labeled by the new outcome (self, other, none).
	DISElectionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isisd_dis_election_total",
			Help: "Number of DIS elections that changed the winner, by circuit, level, and new outcome.",
		}, []string{"circuit", "level", "outcome"})
)

// init prints a log message to let the user know that the package has been
// loaded and the metrics registered. The metrics are auto-registered, which
// means they are registered as soon as this package is loaded, and the exact
// time this occurs (and whether this occurs at all in a given context) can be
// opaque.
func init() {
	log.Println("Prometheus metrics in isisd.metrics are registered.")
}
