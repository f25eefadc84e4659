package ecs

// EntityBuilder accumulates a set of components and field values, then
// creates the entity directly in its destination archetype in one shot —
// avoiding the N incremental archetype migrations a bare sequence of
// AddComponent calls would cause. Grounded on the pre-create-archetype
// pattern builder.go uses elsewhere in the pack.
type EntityBuilder struct {
	world  *World
	types  []Id
	values map[Id]map[string]any
}

// NewEntityBuilder starts a builder against w.
func NewEntityBuilder(w *World) *EntityBuilder {
	return &EntityBuilder{world: w, values: make(map[Id]map[string]any)}
}

// With adds component c (with optional field values) to the set the next
// Build call will construct.
func (b *EntityBuilder) With(c Id, values map[string]any) *EntityBuilder {
	if !b.has(c) {
		b.types = append(b.types, c)
	}
	if len(values) > 0 {
		b.values[c] = values
	}
	return b
}

// WithPair adds relation pair (rel, target) to the set, including its
// (Wildcard, target) and (rel, Wildcard) companion index ids. If rel is
// exclusive, any pair already accumulated for rel is dropped first, same as
// addComponentRaw's reparenting for an entity that already exists.
func (b *EntityBuilder) WithPair(rel, target Id) *EntityBuilder {
	pair, err := Pair(rel, target)
	if err != nil {
		return b
	}
	if meta := global.get(rel); meta != nil && meta.Exclusive {
		b.dropExistingPairForRelation(rel, pair)
	}
	byTarget, _ := Pair(Wildcard, target)
	byRelation, _ := Pair(rel, Wildcard)
	return b.With(pair, nil).With(byTarget, nil).With(byRelation, nil)
}

// dropExistingPairForRelation removes whichever pair for rel the builder
// already holds (other than newPair), and its now-orphaned (Wildcard,
// oldTarget) companion if nothing else accumulated targets it. Mirrors
// removeExistingPairForRelation's reparenting, but against the builder's own
// pending type set rather than a live archetype.
func (b *EntityBuilder) dropExistingPairForRelation(rel, newPair Id) {
	var oldTarget Id
	found := false
	for _, t := range b.types {
		if !t.IsPair() || t == newPair {
			continue
		}
		if r, err := t.Relation(); err == nil && r == rel {
			if target, err := GetPairTarget(t); err == nil && target != Wildcard {
				oldTarget = target
				found = true
				break
			}
		}
	}
	if !found {
		return
	}
	oldPair := mustPair(rel, oldTarget)
	b.drop(oldPair)
	if !b.hasAnyPairTargeting(oldTarget) {
		b.drop(mustPair(Wildcard, oldTarget))
	}
}

// hasAnyPairTargeting reports whether the builder's pending set already
// includes some other concrete-relation pair aimed at target.
func (b *EntityBuilder) hasAnyPairTargeting(target Id) bool {
	for _, t := range b.types {
		if !t.IsPair() || t.Kind() != target.Kind() || t.RawID() != target.RawID() {
			continue
		}
		if rel, err := t.Relation(); err == nil && rel != Wildcard {
			return true
		}
	}
	return false
}

// drop removes c from the pending type and value sets, if present.
func (b *EntityBuilder) drop(c Id) {
	for i, t := range b.types {
		if t == c {
			b.types = append(b.types[:i], b.types[i+1:]...)
			break
		}
	}
	delete(b.values, c)
}

func (b *EntityBuilder) has(c Id) bool {
	for _, t := range b.types {
		if t == c {
			return true
		}
	}
	return false
}

// Build creates a fresh entity, migrates it directly to the archetype for
// the accumulated component set, and applies every recorded field value.
func (b *EntityBuilder) Build() (Id, error) {
	w := b.world
	e, err := CreateEntity(w)
	if err != nil {
		return 0, err
	}
	types := append([]Id(nil), b.types...)
	sortIds(types)
	for _, t := range types {
		if err := w.ensureEntityRegistered(t); err != nil {
			return 0, err
		}
	}
	dest, err := w.getOrCreateArchetype(types)
	if err != nil {
		return 0, err
	}
	em, _ := w.registry.get(e)
	src := em.archetype
	oldRow := em.row
	newRow, swapped, swappedOk := src.Transfer(em.row, dest, w.tick)
	em.archetype = dest
	em.row = newRow
	if swappedOk {
		if sm, ok := w.registry.get(swapped); ok {
			sm.row = oldRow
		}
	}
	for c, vals := range b.values {
		w.setComponentFields(dest, newRow, c, vals)
	}
	for _, t := range types {
		w.observers.fire(EventComponentAdded, w, Event{Entity: e, Component: t})
	}
	return e, nil
}
