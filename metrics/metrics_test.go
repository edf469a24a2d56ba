package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/loanmesh/core"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordCycle(core.StageSalesNegotiation, core.StatusInProgress, 20*time.Millisecond)
	m.RecordCycle(core.StageSalesNegotiation, core.StatusInProgress, 10*time.Millisecond)
	m.RecordAgentRun(core.AgentSales, time.Millisecond, false)
	m.RecordAgentRun(core.AgentUnderwriting, time.Millisecond, true)
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()

	assert.InDelta(t, 2, testutil.ToFloat64(m.CyclesTotal.WithLabelValues("sales_negotiation", "in_progress")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AgentRunsTotal.WithLabelValues("sales")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FailuresTotal.WithLabelValues("underwriting")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.FailuresTotal.WithLabelValues("sales")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ActiveSessions), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.CycleDuration))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCycle(core.StageEntry, core.StatusInProgress, time.Second)
		m.RecordAgentRun(core.AgentOrchestrator, time.Second, true)
		m.SessionOpened()
		m.SessionClosed()
	})
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
