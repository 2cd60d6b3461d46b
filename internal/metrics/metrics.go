// Package metrics exposes Prometheus collectors for the graph store.
//
// Metrics collected:
//   - graphstore_events_reduced_total: events committed, by kind
//   - graphstore_events_ignored_total: unknown or undecodable events, by kind
//   - graphstore_listener_failures_total: recovered subscriber panics
//   - graphstore_journal_errors_total: journal append failures
//   - graphstore_queue_depth: events waiting in the dispatcher
//   - graphstore_commit_seq: sequence number of the latest commit
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "graphstore").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "graphstore",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors. It satisfies graph.Observer and the
// dispatcher and journal hooks.
type Metrics struct {
	eventsReduced    *prometheus.CounterVec
	eventsIgnored    *prometheus.CounterVec
	listenerFailures prometheus.Counter
	journalErrors    prometheus.Counter
	queueDepth       prometheus.Gauge
	commitSeq        prometheus.Gauge
}

// New registers the collectors. Registering twice on the same registry
// panics, as with promauto.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		eventsReduced: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "events_reduced_total",
			Help:        "Total number of graph events committed to the store",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		eventsIgnored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "events_ignored_total",
			Help:        "Total number of graph events dropped as unknown or malformed",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		listenerFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "listener_failures_total",
			Help:        "Total number of subscriber panics recovered during notification",
			ConstLabels: config.ConstLabels,
		}),

		journalErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "journal_errors_total",
			Help:        "Total number of failed journal appends",
			ConstLabels: config.ConstLabels,
		}),

		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "queue_depth",
			Help:        "Number of events waiting in the dispatcher queue",
			ConstLabels: config.ConstLabels,
		}),

		commitSeq: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "commit_seq",
			Help:        "Sequence number of the most recent store commit",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// EventReduced counts a committed event.
func (m *Metrics) EventReduced(kind string) {
	m.eventsReduced.WithLabelValues(kind).Inc()
}

// EventIgnored counts a dropped event. An empty kind is reported as "none".
func (m *Metrics) EventIgnored(kind string) {
	if kind == "" {
		kind = "none"
	}
	m.eventsIgnored.WithLabelValues(kind).Inc()
}

// Committed records the latest commit sequence number.
func (m *Metrics) Committed(seq int64) {
	m.commitSeq.Set(float64(seq))
}

// ListenerFailed counts a recovered subscriber panic.
func (m *Metrics) ListenerFailed() {
	m.listenerFailures.Inc()
}

// JournalError counts a failed journal append.
func (m *Metrics) JournalError() {
	m.journalErrors.Inc()
}

// QueueDepth records the dispatcher backlog.
func (m *Metrics) QueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}
