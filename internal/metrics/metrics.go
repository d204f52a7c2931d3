// SPDX-License-Identifier: MPL-2.0

// Package metrics exposes prometheus collectors for orchestrator events.
// The registry is process-global; Handler() hands the scrape endpoint to
// whichever outer surface wants to serve it.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "previewd"

// Collectors holds the orchestrator's prometheus instruments.
type Collectors struct {
	// PreviewsStarted counts fresh container creations, labeled by framework.
	PreviewsStarted *prometheus.CounterVec
	// PreviewsReused counts start requests satisfied by a live or paused container.
	PreviewsReused prometheus.Counter
	// Evictions counts LRU evictions at capacity.
	Evictions prometheus.Counter
	// Pauses counts idle-sweeper and explicit pauses.
	Pauses prometheus.Counter
	// Removals counts cleanup removals and explicit stops.
	Removals prometheus.Counter
	// HealthFailures counts containers that never became healthy.
	HealthFailures prometheus.Counter
	// Crashes counts running containers found dead by the status sweeper.
	Crashes prometheus.Counter
	// TrackedContainers gauges the registry size.
	TrackedContainers prometheus.Gauge
}

var (
	initOnce   sync.Once
	collectors *Collectors
)

// Default returns the process-wide collectors, registering them on first use.
// Re-registration (e.g. across tests) reuses the existing collectors.
func Default() *Collectors {
	initOnce.Do(func() {
		collectors = newCollectors()
	})
	return collectors
}

func newCollectors() *Collectors {
	c := &Collectors{
		PreviewsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "previews_started_total",
			Help:      "Count of preview containers created",
		}, []string{"framework"}),
		PreviewsReused: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "previews_reused_total",
			Help:      "Count of start requests satisfied by an existing container",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Count of least-recently-used evictions at capacity",
		}),
		Pauses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pauses_total",
			Help:      "Count of previews paused",
		}),
		Removals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "removals_total",
			Help:      "Count of previews removed",
		}),
		HealthFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "health_failures_total",
			Help:      "Count of previews that never became healthy",
		}),
		Crashes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crashes_total",
			Help:      "Count of running previews found dead at the engine level",
		}),
		TrackedContainers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_containers",
			Help:      "Number of previews currently tracked",
		}),
	}

	register := func(collector prometheus.Collector) prometheus.Collector {
		if err := prometheus.Register(collector); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				return are.ExistingCollector
			}
		}
		return collector
	}

	c.PreviewsStarted = register(c.PreviewsStarted).(*prometheus.CounterVec)
	c.PreviewsReused = register(c.PreviewsReused).(prometheus.Counter)
	c.Evictions = register(c.Evictions).(prometheus.Counter)
	c.Pauses = register(c.Pauses).(prometheus.Counter)
	c.Removals = register(c.Removals).(prometheus.Counter)
	c.HealthFailures = register(c.HealthFailures).(prometheus.Counter)
	c.Crashes = register(c.Crashes).(prometheus.Counter)
	c.TrackedContainers = register(c.TrackedContainers).(prometheus.Gauge)

	return c
}

// Handler returns the scrape endpoint for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
