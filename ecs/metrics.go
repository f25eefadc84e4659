package ecs

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the optional built-in observability subsystem installed by
// World init (spec §4.K's "built-in subsystems"). It listens on the
// observer bus and exposes Prometheus gauges/counters; a World created
// without WithMetrics installs none of these observers.
type Metrics struct {
	entitiesCreated    prometheus.Counter
	entitiesDestroyed  prometheus.Counter
	archetypesCreated  prometheus.Counter
	archetypesAlive    prometheus.Gauge
	componentsAdded    prometheus.Counter
	componentsRemoved  prometheus.Counter
	componentsChanged  prometheus.Counter
}

// NewMetrics registers a fresh set of collectors on reg. Pass the same
// *prometheus.Registry to every World sharing a process exporter, or a
// fresh prometheus.NewRegistry() per World for isolated tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		entitiesCreated:   prometheus.NewCounter(prometheus.CounterOpts{Name: "ecs_entities_created_total"}),
		entitiesDestroyed: prometheus.NewCounter(prometheus.CounterOpts{Name: "ecs_entities_destroyed_total"}),
		archetypesCreated: prometheus.NewCounter(prometheus.CounterOpts{Name: "ecs_archetypes_created_total"}),
		archetypesAlive:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "ecs_archetypes_alive"}),
		componentsAdded:   prometheus.NewCounter(prometheus.CounterOpts{Name: "ecs_components_added_total"}),
		componentsRemoved: prometheus.NewCounter(prometheus.CounterOpts{Name: "ecs_components_removed_total"}),
		componentsChanged: prometheus.NewCounter(prometheus.CounterOpts{Name: "ecs_components_changed_total"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.entitiesCreated, m.entitiesDestroyed,
			m.archetypesCreated, m.archetypesAlive,
			m.componentsAdded, m.componentsRemoved, m.componentsChanged,
		)
	}
	return m
}

// installMetrics wires a Metrics collector to w's observer bus.
func installMetrics(w *World, m *Metrics) {
	if m == nil {
		return
	}
	w.observers.on(EventEntityCreated, func(*World, Event) { m.entitiesCreated.Inc() })
	w.observers.on(EventEntityDestroyed, func(*World, Event) { m.entitiesDestroyed.Inc() })
	w.observers.on(EventArchetypeCreated, func(*World, Event) {
		m.archetypesCreated.Inc()
		m.archetypesAlive.Inc()
	})
	w.observers.on(EventArchetypeDestroyed, func(*World, Event) { m.archetypesAlive.Dec() })
	w.observers.on(EventComponentAdded, func(*World, Event) { m.componentsAdded.Inc() })
	w.observers.on(EventComponentRemoved, func(*World, Event) { m.componentsRemoved.Inc() })
	w.observers.on(EventComponentChanged, func(*World, Event) { m.componentsChanged.Inc() })
}
