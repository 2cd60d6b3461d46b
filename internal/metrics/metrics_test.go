package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg))

	m.EventReduced("add-graph")
	m.EventReduced("add-graph")
	m.EventReduced("keys")
	m.EventIgnored("archive-graph")
	m.EventIgnored("")
	m.ListenerFailed()
	m.JournalError()
	m.JournalError()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.eventsReduced.WithLabelValues("add-graph")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsReduced.WithLabelValues("keys")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsIgnored.WithLabelValues("archive-graph")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsIgnored.WithLabelValues("none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.listenerFailures))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.journalErrors))
}

func TestMetrics_Gauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg))

	m.QueueDepth(7)
	m.Committed(42)
	m.QueueDepth(0)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.queueDepth))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.commitSeq))
}

func TestMetrics_NamespaceAndLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(
		WithRegistry(reg),
		WithNamespace("mirror"),
		WithConstLabels(prometheus.Labels{"ship": "~zod"}))
	m.ListenerFailed()

	expected := `
# HELP mirror_listener_failures_total Total number of subscriber panics recovered during notification
# TYPE mirror_listener_failures_total counter
mirror_listener_failures_total{ship="~zod"} 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "mirror_listener_failures_total")
	require.NoError(t, err)
}

func TestMetrics_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(WithRegistry(reg))
	assert.Panics(t, func() { New(WithRegistry(reg)) })
}
