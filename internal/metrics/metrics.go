// Package metrics defines the Prometheus collectors for the cart tracker.
//
// A nil *Metrics is valid and records nothing, so components can take one
// as an optional dependency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "carttrack"

// Metrics groups every collector the service exports.
type Metrics struct {
	sessionOps      *prometheus.CounterVec
	commitConflicts prometheus.Counter
	lookups         *prometheus.CounterVec
	rpcDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessionOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_operations_total",
			Help:      "Session operations by name and outcome.",
		}, []string{"operation", "result"}),
		commitConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_write_conflicts_total",
			Help:      "Version conflicts hit while writing the session history.",
		}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "barcode_lookups_total",
			Help:      "Barcode lookups by result (hit or miss).",
		}, []string{"result"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
	}

	reg.MustRegister(m.sessionOps, m.commitConflicts, m.lookups, m.rpcDuration)
	return m
}

// SessionOp records the outcome of a session operation.
func (m *Metrics) SessionOp(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.sessionOps.WithLabelValues(operation, result).Inc()
}

// HistoryConflict records one lost compare-and-swap on the session history.
func (m *Metrics) HistoryConflict() {
	if m == nil {
		return
	}
	m.commitConflicts.Inc()
}

// Lookup records a barcode lookup result.
func (m *Metrics) Lookup(found bool) {
	if m == nil {
		return
	}
	result := "miss"
	if found {
		result = "hit"
	}
	m.lookups.WithLabelValues(result).Inc()
}

// RPC records the latency of one RPC.
func (m *Metrics) RPC(procedure, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.rpcDuration.WithLabelValues(procedure, code).Observe(d.Seconds())
}
