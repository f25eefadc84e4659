package ecs

import "go.uber.org/zap"

// World holds every piece of per-world state: entities, archetypes,
// filters, queries, observers, and the tick counter. Multiple worlds may
// coexist; only the component/relation type registries (package-level
// `global`) are process-wide (spec §5).
type World struct {
	registry   *EntityRegistry
	archetypes map[string]*Archetype
	root       *Archetype

	observers *ObserverBus
	filters   map[string]*Filter
	queries   map[string]*Query

	tick     uint32
	systemID *string

	config WorldConfig
	logger *zap.Logger
	metrics *Metrics
}

// WorldOption configures CreateWorld.
type WorldOption func(*World)

// WithConfig overrides the default growth-policy tuning.
func WithConfig(cfg WorldConfig) WorldOption {
	return func(w *World) {
		cfg.applyDefaults()
		w.config = cfg
	}
}

// WithLogger installs a structured logger for lifecycle diagnostics.
func WithLogger(l *zap.Logger) WorldOption {
	return func(w *World) { w.logger = l }
}

// WithMetrics installs a Prometheus-backed observability subsystem.
func WithMetrics(m *Metrics) WorldOption {
	return func(w *World) { w.metrics = m }
}

// CreateWorld wires up a fresh world in the order spec §4.K names:
// entity registry, archetype index with a root archetype, observer
// buckets, then built-in subsystems (metrics, only when WithMetrics is
// given; the type-name index lives in the process-global
// ComponentTypeRegistry, and there is no separate removal-detection
// subsystem).
func CreateWorld(opts ...WorldOption) *World {
	w := &World{
		registry:   newEntityRegistry(),
		archetypes: make(map[string]*Archetype),
		observers:  newObserverBus(),
		filters:    make(map[string]*Filter),
		queries:    make(map[string]*Query),
		config:     DefaultWorldConfig(),
		logger:     newDefaultLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.root = newArchetype(w, nil)
	w.archetypes[w.root.Hash] = w.root
	if w.metrics != nil {
		installMetrics(w, w.metrics)
	}
	w.logger.Debug("world created")
	return w
}

// ResetWorld unregisters every filter/query observer, clears all indices,
// rebuilds the root archetype, zeros the tick, and fires worldReset so
// subsystems can reinstall themselves (spec §4.K).
func ResetWorld(w *World) {
	for _, f := range w.filters {
		w.observers.off(f.onCreated)
		w.observers.off(f.onDestroyed)
	}
	w.filters = make(map[string]*Filter)
	w.queries = make(map[string]*Query)
	w.registry.reset()
	w.archetypes = make(map[string]*Archetype)
	w.root = newArchetype(w, nil)
	w.archetypes[w.root.Hash] = w.root
	w.tick = 0
	w.systemID = nil
	w.observers.fire(EventWorldReset, w, Event{})
	w.logger.Debug("world reset")
}

// Tick returns the world's current tick counter.
func (w *World) Tick() uint32 { return w.tick }

// AdvanceTick is called by a scheduler before running systems for a given
// frame; it is also how a caller outside any system execution would bump
// the tick in a hand-rolled loop.
func (w *World) AdvanceTick(tick uint32) { w.tick = tick }

// SetSystemID publishes which system is about to execute, for the
// bySystemId change-detection channel (spec §4.J). Pass nil when no
// system is executing.
func (w *World) SetSystemID(id *string) { w.systemID = id }

func (w *World) schemaFor(id Id) *Schema {
	if id.IsPair() {
		rel, err := id.Relation()
		if err != nil {
			return nil
		}
		return w.schemaFor(rel)
	}
	if m := global.get(id); m != nil {
		return m.Schema
	}
	return nil
}

// getOrCreateArchetype returns the archetype for the given sorted type
// list, creating and registering it (and updating every member type's
// records back-reference) if this is the first time this exact set has
// been seen.
func (w *World) getOrCreateArchetype(types []Id) (*Archetype, error) {
	h := HashTypes(types)
	if a, ok := w.archetypes[h]; ok {
		return a, nil
	}
	a := newArchetype(w, types)
	w.archetypes[h] = a
	for _, t := range types {
		if err := w.ensureEntityRegistered(t); err != nil {
			return nil, err
		}
		meta, _ := w.registry.get(t)
		meta.records = append(meta.records, a)
	}
	w.observers.fire(EventArchetypeCreated, w, Event{Archetype: a})
	w.logger.Debug("archetype created", zap.String("hash", h))
	return a, nil
}

// ensureEntityRegistered is spec §4.E's ensure_entity: idempotent
// registration for an id referenced before being explicitly created.
func (w *World) ensureEntityRegistered(id Id) error {
	if _, ok := w.registry.get(id); ok {
		return nil
	}
	if id.IsPair() {
		rel, err := id.Relation()
		if err != nil {
			return err
		}
		if err := w.ensureEntityRegistered(rel); err != nil {
			return err
		}
		row := w.root.AddEntity(id, w.tick)
		w.registry.put(id, &entityMeta{archetype: w.root, row: row})
		if relMeta := global.get(rel); relMeta != nil {
			if relMeta.Exclusive {
				if err := w.addComponentRaw(id, global.traitExclusive, nil); err != nil {
					return err
				}
			}
			if relMeta.OnDeleteTarget == OnDeleteDelete {
				if err := w.addComponentRaw(id, global.traitCascadeDelete, nil); err != nil {
					return err
				}
			}
		}
		return nil
	}
	switch id.Kind() {
	case KindEntity:
		return notFound(w.opName("ensureEntityRegistered"), "plain entity %v was never created", id)
	default: // Tag, Component, Relation
		row := w.root.AddEntity(id, w.tick)
		w.registry.put(id, &entityMeta{archetype: w.root, row: row})
		return nil
	}
}

func (w *World) opName(s string) string { return s }

// CreateEntity allocates a fresh entity id (recycling a destroyed raw id's
// slot and bumping its generation if one is available) and places it in
// the root archetype.
func CreateEntity(w *World) (Id, error) {
	raw, gen, err := w.registry.allocateRaw()
	if err != nil {
		return 0, err
	}
	id, err := NewEntityID(raw, gen)
	if err != nil {
		return 0, err
	}
	row := w.root.AddEntity(id, w.tick)
	w.registry.put(id, &entityMeta{archetype: w.root, row: row})
	w.observers.fire(EventEntityCreated, w, Event{Entity: id})
	return id, nil
}

// IsEntityAlive reports whether id currently refers to live data: for a
// plain Entity id this means the stored generation still matches; for a
// pair id it means the relation is still defined (the target half uses
// weak-reference semantics per spec §4.H and is never checked here); for
// any other kind it means the type is still defined.
func IsEntityAlive(w *World, id Id) bool {
	if id.IsPair() {
		rel, err := id.Relation()
		if err != nil {
			return false
		}
		return IsEntityAlive(w, rel)
	}
	switch id.Kind() {
	case KindEntity:
		if _, ok := w.registry.get(id); !ok {
			return false
		}
		return id.Generation() == w.registry.currentGeneration(id.RawID())
	default:
		return global.get(id) != nil
	}
}

// DestroyEntity removes id, idempotently, following the fixed order spec
// §4.E lays out: reentrancy-guarded relation cascade, cascade-remove as a
// component, swap-remove from its own archetype, fire entityDestroyed,
// then (for a true Entity id) recycle the raw id and bump its generation.
func DestroyEntity(w *World, id Id) error {
	meta, ok := w.registry.get(id)
	if !ok {
		return nil // idempotent: already gone
	}
	if meta.destroying {
		return nil // reentrancy guard breaks cascade cycles
	}
	meta.destroying = true

	if err := handleTargetDestroyed(w, id); err != nil {
		return err
	}
	if err := w.destroyAsComponent(id); err != nil {
		return err
	}

	if meta.archetype != nil {
		if swapped, ok := meta.archetype.RemoveRow(meta.row); ok {
			if sm, ok := w.registry.get(swapped); ok {
				sm.row = meta.row
			}
		}
	}

	w.observers.fire(EventEntityDestroyed, w, Event{Entity: id})

	w.registry.delete(id)
	if id.Kind() == KindEntity && !id.IsPair() {
		w.registry.free(id.RawID())
	}
	return nil
}

// destroyAsComponent migrates every entity holding id as a component type
// off of it, then destroys the now-orphaned archetypes. Absence of id from
// the registry is swallowed (local recovery, spec §7): destroying a
// not-present component is a no-op.
func (w *World) destroyAsComponent(id Id) error {
	meta, ok := w.registry.get(id)
	if !ok {
		return nil
	}
	archetypesSnapshot := append([]*Archetype(nil), meta.records...)
	for _, a := range archetypesSnapshot {
		if a.destroyed {
			continue
		}
		dest, err := a.TraverseRemove(id)
		if err != nil {
			return err
		}
		// Walk from the back: Transfer swap-removes from a, so shrinking
		// from the tail means every index we haven't visited yet is still
		// the row for the entity it was when we started.
		for a.len > 0 {
			e := a.entities[a.len-1]
			em, ok := w.registry.get(e)
			if !ok || em.archetype != a {
				break
			}
			oldRow := em.row
			newRow, swapped, swappedOk := a.Transfer(em.row, dest, w.tick)
			em.archetype = dest
			em.row = newRow
			if swappedOk {
				if sm, ok := w.registry.get(swapped); ok {
					sm.row = oldRow // the swapped-in id now sits where e used to be
				}
			}
			w.observers.fire(EventComponentRemoved, w, Event{Entity: e, Component: id})
		}
		if err := a.destroy(); err != nil {
			return err
		}
	}
	return nil
}
