// Package metrics exposes Prometheus counters for the relay pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the relay's Prometheus collectors on a private registry, so
// tests and multiple instances never collide on global state.
type Metrics struct {
	registry *prometheus.Registry

	// EventsTotal counts inbound chat events by kind (command, rewrite).
	EventsTotal *prometheus.CounterVec

	// LinksTotal counts per-URL pipeline outcomes (shortened, fallback, skipped).
	LinksTotal *prometheus.CounterVec

	// RemoteFailuresTotal counts failed remote calls by cause.
	RemoteFailuresTotal *prometheus.CounterVec
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkrelay_events_total",
				Help: "Inbound chat events by kind.",
			},
			[]string{"kind"},
		),
		LinksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkrelay_links_total",
				Help: "Per-URL pipeline outcomes.",
			},
			[]string{"outcome"},
		),
		RemoteFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkrelay_remote_failures_total",
				Help: "Failed shortening service calls by cause.",
			},
			[]string{"cause"},
		),
	}

	m.registry.MustRegister(
		m.EventsTotal,
		m.LinksTotal,
		m.RemoteFailuresTotal,
		collectors.NewGoCollector(),
	)

	return m
}

// Handler returns the HTTP handler serving the registry in Prometheus text
// format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Outcome labels for LinksTotal.
const (
	OutcomeShortened = "shortened"
	OutcomeFallback  = "fallback"
	OutcomeSkipped   = "skipped"
)

// Event kind labels for EventsTotal.
const (
	KindCommand = "command"
	KindRewrite = "rewrite"
)
