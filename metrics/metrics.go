// Package metrics exposes Prometheus collectors for the conversation engine.
//
// Metrics:
//   - loanmesh_cycles_total{stage,status} - processed inbound messages by resulting stage
//   - loanmesh_agent_runs_total{agent} - stage node executions
//   - loanmesh_collaborator_failures_total{agent} - recorded collaborator failures
//   - loanmesh_cycle_duration_seconds - end to end latency of one cycle
//   - loanmesh_active_sessions - live sessions held by the store
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/loanmesh/core"
)

// Metrics holds the engine collectors.
type Metrics struct {
	CyclesTotal    *prometheus.CounterVec
	AgentRunsTotal *prometheus.CounterVec
	FailuresTotal  *prometheus.CounterVec
	CycleDuration  prometheus.Histogram
	AgentDuration  *prometheus.HistogramVec
	ActiveSessions prometheus.Gauge
}

// New creates the collectors and registers them with reg. Passing a fresh
// prometheus.NewRegistry() keeps tests isolated; nil uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		CyclesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loanmesh_cycles_total",
				Help: "Total number of processed inbound messages",
			},
			[]string{"stage", "status"},
		),
		AgentRunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loanmesh_agent_runs_total",
				Help: "Total number of stage node executions",
			},
			[]string{"agent"},
		),
		FailuresTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loanmesh_collaborator_failures_total",
				Help: "Total number of collaborator failures recorded on records",
			},
			[]string{"agent"},
		),
		CycleDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "loanmesh_cycle_duration_seconds",
				Help:    "Duration of one processing cycle in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
			},
		),
		AgentDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loanmesh_agent_duration_seconds",
				Help:    "Duration of one stage node execution in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"agent"},
		),
		ActiveSessions: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "loanmesh_active_sessions",
				Help: "Current number of live sessions",
			},
		),
	}
}

// RecordCycle records a completed cycle.
func (m *Metrics) RecordCycle(stage core.Stage, status core.Status, d time.Duration) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(string(stage), string(status)).Inc()
	m.CycleDuration.Observe(d.Seconds())
}

// RecordAgentRun records one stage execution. failed reports whether the run
// added a collaborator failure to the record.
func (m *Metrics) RecordAgentRun(agent core.AgentName, d time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.AgentRunsTotal.WithLabelValues(string(agent)).Inc()
	m.AgentDuration.WithLabelValues(string(agent)).Observe(d.Seconds())
	if failed {
		m.FailuresTotal.WithLabelValues(string(agent)).Inc()
	}
}

// SessionOpened increments the live session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

// SessionClosed decrements the live session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}
