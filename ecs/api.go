package ecs

// This file collects the external surface spec §6 names for component
// values and entity construction. Type definition lives in
// component_registry.go; pair/relation operations live in relation.go;
// query construction lives in query.go.

// DefineTag defines a new zero-size marker type.
func DefineTag(name string) (Id, error) { return global.defineTag(name) }

// DefineComponent defines a new component type with the given field
// schema.
func DefineComponent(name string, schema Schema) (Id, error) {
	return global.defineComponent(name, schema)
}

// DefineRelation defines a new relation type usable as the first half of
// a Pair.
func DefineRelation(name string, opts RelationOptions) (Id, error) {
	return global.defineRelation(name, opts)
}

// AddComponent attaches component c (with optional field values, ignored
// for a Tag) to entity e, migrating it to the archetype that includes c.
// If e already has c it stays in its archetype: with no values this is a
// no-op, otherwise the given fields are overwritten and c's changed tick
// is bumped (no EventComponentChanged is fired).
func AddComponent(w *World, e Id, c Id, values map[string]any) error {
	if !IsEntityAlive(w, e) {
		return notFound("AddComponent", "entity %v is not alive", e)
	}
	if err := w.ensureEntityRegistered(c); err != nil {
		return err
	}
	return w.addComponentRaw(e, c, values)
}

// addComponentRaw is the internal add path shared by AddComponent and
// ensure_entity's trait-tag materialization; it assumes c is already
// ensured.
func (w *World) addComponentRaw(e Id, c Id, values map[string]any) error {
	em, ok := w.registry.get(e)
	if !ok {
		return notFound("addComponentRaw", "id %v is not registered", e)
	}
	if em.archetype.Has(c) {
		w.setComponentFields(em.archetype, em.row, c, values)
		return nil
	}

	if c.IsPair() {
		rel, err := c.Relation()
		if err != nil {
			return err
		}
		target, err := GetPairTarget(c)
		if err != nil {
			return err
		}
		// The (rel, Wildcard) companion is not a new target; only a
		// concrete pair replaces an exclusive relation's existing one.
		if meta := global.get(rel); meta != nil && meta.Exclusive && target != Wildcard {
			if err := w.removeExistingPairForRelation(e, rel, c); err != nil {
				return err
			}
			em, _ = w.registry.get(e)
		}
	}

	dest, err := em.archetype.TraverseAdd(c)
	if err != nil {
		return err
	}
	oldRow := em.row
	newRow, swapped, swappedOk := em.archetype.Transfer(em.row, dest, w.tick)
	em.archetype = dest
	em.row = newRow
	if swappedOk {
		if sm, ok := w.registry.get(swapped); ok {
			sm.row = oldRow
		}
	}
	w.setComponentFields(dest, newRow, c, values)
	w.observers.fire(EventComponentAdded, w, Event{Entity: e, Component: c})
	return nil
}

// removeExistingPairForRelation removes e's current pair for rel, if any,
// before an exclusive relation's new pair replaces it. newPair is skipped
// so callers calling this just before adding it don't no-op themselves.
func (w *World) removeExistingPairForRelation(e Id, rel Id, newPair Id) error {
	em, ok := w.registry.get(e)
	if !ok {
		return nil
	}
	for _, t := range em.archetype.Types {
		if !t.IsPair() || t == newPair {
			continue
		}
		if r, err := t.Relation(); err == nil && r == rel {
			oldTarget, err := GetPairTarget(t)
			if err != nil {
				return err
			}
			return w.removePairRaw(e, rel, oldTarget)
		}
	}
	return nil
}

// RemoveComponent detaches component c from entity e, migrating it to the
// archetype without c. A no-op if e does not have c.
func RemoveComponent(w *World, e Id, c Id) error {
	if !IsEntityAlive(w, e) {
		return notFound("RemoveComponent", "entity %v is not alive", e)
	}
	return w.removeComponentRaw(e, c)
}

func (w *World) removeComponentRaw(e Id, c Id) error {
	em, ok := w.registry.get(e)
	if !ok || !em.archetype.Has(c) {
		return nil
	}
	dest, err := em.archetype.TraverseRemove(c)
	if err != nil {
		return err
	}
	oldRow := em.row
	newRow, swapped, swappedOk := em.archetype.Transfer(em.row, dest, w.tick)
	em.archetype = dest
	em.row = newRow
	if swappedOk {
		if sm, ok := w.registry.get(swapped); ok {
			sm.row = oldRow
		}
	}
	w.observers.fire(EventComponentRemoved, w, Event{Entity: e, Component: c})
	return nil
}

// ArchetypeHashOf returns the identity hash of the archetype e currently
// lives in, or "" if e is not registered.
func ArchetypeHashOf(w *World, e Id) string {
	em, ok := w.registry.get(e)
	if !ok {
		return ""
	}
	return em.archetype.Hash
}

// HasComponent reports whether e currently carries component c.
func HasComponent(w *World, e Id, c Id) bool {
	em, ok := w.registry.get(e)
	if !ok {
		return false
	}
	return em.archetype.Has(c)
}

// GetComponentValue reads field from e's instance of component c. Returns
// ErrNotFound if e lacks c.
func GetComponentValue(w *World, e Id, c Id, field string) (any, error) {
	em, ok := w.registry.get(e)
	if !ok || !em.archetype.Has(c) {
		return nil, notFound("GetComponentValue", "entity %v has no component %v", e, c)
	}
	schema := w.schemaFor(c)
	if schema == nil || schema.empty() {
		return nil, invalidArgument("GetComponentValue", "component %v has no schema", c)
	}
	fi, ok := schema.FieldIndex(field)
	if !ok {
		return nil, notFound("GetComponentValue", "component %v has no field %q", c, field)
	}
	idx := em.archetype.index[c]
	return em.archetype.storages[idx].fields[fi].Get(em.row), nil
}

// SetComponentValue writes field on e's instance of component c and bumps
// its changed tick, firing EventComponentChanged.
func SetComponentValue(w *World, e Id, c Id, field string, value any) error {
	em, ok := w.registry.get(e)
	if !ok || !em.archetype.Has(c) {
		return notFound("SetComponentValue", "entity %v has no component %v", e, c)
	}
	schema := w.schemaFor(c)
	if schema == nil || schema.empty() {
		return invalidArgument("SetComponentValue", "component %v has no schema", c)
	}
	fi, ok := schema.FieldIndex(field)
	if !ok {
		return notFound("SetComponentValue", "component %v has no field %q", c, field)
	}
	idx := em.archetype.index[c]
	st := em.archetype.storages[idx]
	st.fields[fi].Set(em.row, value)
	st.changed.Set(em.row, w.tick)
	w.observers.fire(EventComponentChanged, w, Event{Entity: e, Component: c})
	return nil
}

// EmitComponentChanged bumps c's changed tick on e without writing a new
// value, for callers that mutate a returned reference type in place
// (spec §4.C/§4.J: boxed columns hand back the live value, not a copy).
func EmitComponentChanged(w *World, e Id, c Id) error {
	em, ok := w.registry.get(e)
	if !ok || !em.archetype.Has(c) {
		return notFound("EmitComponentChanged", "entity %v has no component %v", e, c)
	}
	idx := em.archetype.index[c]
	em.archetype.storages[idx].changed.Set(em.row, w.tick)
	w.observers.fire(EventComponentChanged, w, Event{Entity: e, Component: c})
	return nil
}

func (w *World) setComponentFields(a *Archetype, row int, c Id, values map[string]any) {
	if len(values) == 0 {
		return
	}
	schema := w.schemaFor(c)
	if schema == nil {
		return
	}
	idx, ok := a.index[c]
	if !ok {
		return
	}
	st := a.storages[idx]
	for name, v := range values {
		if fi, ok := schema.FieldIndex(name); ok {
			st.fields[fi].Set(row, v)
		}
	}
	st.changed.Set(row, w.tick)
}
