// Package metrics collects scheduling counters for barre.
//
// barre is a short-lived CLI, so metrics are not served over HTTP. When a
// textfile path is configured they are written in the Prometheus text format
// at exit, ready for node_exporter's textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "barre"

// Collector holds the scheduling metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	registry        *prometheus.Registry
	proposals       *prometheus.CounterVec
	conflictChecks  *prometheus.CounterVec
	dancerConflicts prometheus.Counter
	saveItems       *prometheus.CounterVec
	saveDuration    prometheus.Histogram
}

// New registers all collectors on a private registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		proposals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placements_proposed_total",
			Help:      "Placement proposals, moves and resizes by outcome.",
		}, []string{"outcome"}),
		conflictChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflict_checks_total",
			Help:      "Conflict checks run, by kind (room or dancer).",
		}, []string{"kind"}),
		dancerConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dancer_conflicts_total",
			Help:      "Dancers found double-booked by a proposal.",
		}),
		saveItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "save_items_total",
			Help:      "Placement writes sent to the store, by operation and result.",
		}, []string{"op", "result"}),
		saveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "save_duration_seconds",
			Help:      "Wall time of a full save.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	c.registry.MustRegister(c.proposals, c.conflictChecks, c.dancerConflicts, c.saveItems, c.saveDuration)
	return c
}

// Registry exposes the underlying registry for tests and custom exporters.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveProposal counts one proposal outcome: committed, pending, duplicate,
// room_conflict, room_unavailable or invalid.
func (c *Collector) ObserveProposal(outcome string) {
	if c == nil {
		return
	}
	c.proposals.WithLabelValues(outcome).Inc()
}

// ObserveConflictCheck counts one room or dancer check.
func (c *Collector) ObserveConflictCheck(kind string) {
	if c == nil {
		return
	}
	c.conflictChecks.WithLabelValues(kind).Inc()
}

// AddDancerConflicts adds n double-booked dancers.
func (c *Collector) AddDancerConflicts(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.dancerConflicts.Add(float64(n))
}

// ObserveSaveItem counts one store write.
func (c *Collector) ObserveSaveItem(op string, ok bool) {
	if c == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	c.saveItems.WithLabelValues(op, result).Inc()
}

// ObserveSaveDuration records how long a save took.
func (c *Collector) ObserveSaveDuration(seconds float64) {
	if c == nil {
		return
	}
	c.saveDuration.Observe(seconds)
}

// WriteTextfile writes all metrics to path atomically. An empty path or nil
// collector is a no-op.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, c.registry)
}
