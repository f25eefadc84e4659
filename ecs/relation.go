package ecs

// AddPair attaches relation pair (rel, target) to entity e. If rel is
// exclusive, any existing pair e already holds for rel is removed first
// (spec §4.H). Alongside the pair itself, e also gains the two companion
// wildcard ids Pair(Wildcard, target) and Pair(rel, Wildcard) if it does
// not already carry them — handleTargetDestroyed walks the (Wildcard,
// target) reverse index when target is destroyed, and (rel, Wildcard)
// answers "any target for rel" wildcard queries, since pair ids are
// otherwise only discoverable by knowing both halves up front.
func AddPair(w *World, e Id, rel Id, target Id) error {
	if !IsEntityAlive(w, e) {
		return notFound("AddPair", "entity %v is not alive", e)
	}
	if !IsEntityAlive(w, target) {
		return notFound("AddPair", "target %v is not alive", target)
	}
	pair, err := Pair(rel, target)
	if err != nil {
		return err
	}
	if err := w.ensureEntityRegistered(pair); err != nil {
		return err
	}
	if err := w.addComponentRaw(e, pair, nil); err != nil {
		return err
	}
	for _, c := range []Id{mustPair(Wildcard, target), mustPair(rel, Wildcard)} {
		if err := w.ensureEntityRegistered(c); err != nil {
			return err
		}
		if err := w.addComponentRaw(e, c, nil); err != nil {
			return err
		}
	}
	return nil
}

func mustPair(rel, target Id) Id {
	p, err := Pair(rel, target)
	if err != nil {
		panic(err)
	}
	return p
}

// RemovePair detaches (rel, target) from e, and drops whichever companion
// wildcard ids e no longer needs: (Wildcard, target) if no other pair
// targeting target remains, (rel, Wildcard) if no other pair for rel
// remains.
func RemovePair(w *World, e Id, rel Id, target Id) error {
	return w.removePairRaw(e, rel, target)
}

// removePairRaw is the internal removal path shared by RemovePair and
// AddPair's exclusive-relation reparenting, so replacing an exclusive
// pair's target never leaves a stale (Wildcard, oldTarget) or (rel,
// Wildcard) companion behind on e.
func (w *World) removePairRaw(e Id, rel Id, target Id) error {
	pair, err := Pair(rel, target)
	if err != nil {
		return err
	}
	if err := w.removeComponentRaw(e, pair); err != nil {
		return err
	}
	if !w.entityHasAnyPairTargeting(e, target) {
		if err := w.removeComponentRaw(e, mustPair(Wildcard, target)); err != nil {
			return err
		}
	}
	if !w.entityHasAnyPairForRelation(e, rel) {
		if err := w.removeComponentRaw(e, mustPair(rel, Wildcard)); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) entityHasAnyPairTargeting(e Id, target Id) bool {
	em, ok := w.registry.get(e)
	if !ok {
		return false
	}
	for _, t := range em.archetype.Types {
		if !t.IsPair() || t.Kind() != target.Kind() || t.RawID() != target.RawID() {
			continue
		}
		if rel, err := t.Relation(); err == nil && rel != Wildcard {
			return true
		}
	}
	return false
}

// entityHasAnyPairForRelation reports whether e holds any (rel, *) pair
// with a concrete (non-wildcard) target.
func (w *World) entityHasAnyPairForRelation(e Id, rel Id) bool {
	em, ok := w.registry.get(e)
	if !ok {
		return false
	}
	for _, t := range em.archetype.Types {
		if !t.IsPair() {
			continue
		}
		r, err := t.Relation()
		if err != nil || r != rel {
			continue
		}
		target, err := GetPairTarget(t)
		if err != nil {
			continue
		}
		if target.Kind() != KindRelation || target.RawID() != Wildcard.RawID() {
			return true
		}
	}
	return false
}

// GetPairRelation extracts the relation half of a pair id.
func GetPairRelation(id Id) (Id, error) { return id.Relation() }

// GetPairTarget extracts the target half of a pair id: the target's own
// kind and raw id, reassembled as a plain id. This is a weak reference
// (spec §4.H) — it does not check whether the target is still alive.
func GetPairTarget(id Id) (Id, error) {
	if !id.IsPair() {
		return 0, invalidArgument("GetPairTarget", "id %v is not a pair", id)
	}
	switch id.Kind() {
	case KindEntity:
		return NewEntityID(id.RawID(), 0)
	case KindTag:
		return NewTagID(id.RawID())
	case KindComponent:
		return NewComponentID(id.RawID())
	case KindRelation:
		return NewRelationID(id.RawID())
	default:
		return 0, invalidState("GetPairTarget", "pair %v has invalid target kind", id)
	}
}

// GetRelationTargets returns every target e holds a rel pair with.
func GetRelationTargets(w *World, e Id, rel Id) []Id {
	em, ok := w.registry.get(e)
	if !ok {
		return nil
	}
	var out []Id
	for _, t := range em.archetype.Types {
		if !t.IsPair() {
			continue
		}
		if r, err := t.Relation(); err != nil || r != rel {
			continue
		}
		target, err := GetPairTarget(t)
		if err != nil || target == Wildcard {
			continue
		}
		out = append(out, target)
	}
	return out
}

// handleTargetDestroyed runs the spec §4.H cascade for target just before
// it is otherwise torn down: collect every subject holding a pair onto
// target (via the (Wildcard, target) reverse index), remove every one of
// their target-pointing pairs as components (cascading or not, so the
// subject is consistent even if it is visited again through another cycle
// edge) while noting whether any of them has an OnDeleteDelete relation,
// then recursively destroy every subject that had at least one cascading
// pair. The pair ids themselves stay registered. The destroying
// reentrancy flag on entityMeta (checked by DestroyEntity) breaks
// mutual-cascade cycles.
func handleTargetDestroyed(w *World, target Id) error {
	companion, err := Pair(Wildcard, target)
	if err != nil {
		return err
	}
	meta, ok := w.registry.get(companion)
	if !ok {
		return nil
	}
	archetypesSnapshot := append([]*Archetype(nil), meta.records...)

	var cascadeSubjects []Id
	for _, a := range archetypesSnapshot {
		if a.destroyed {
			continue
		}
		subjectsSnapshot := append([]Id(nil), a.entities[:a.len]...)
		for _, subj := range subjectsSnapshot {
			sm, ok := w.registry.get(subj)
			if !ok || sm.archetype != a || sm.destroying {
				continue
			}
			var toRemove []Id
			cascades := false
			for _, t := range sm.archetype.Types {
				if !t.IsPair() || t.Kind() != target.Kind() || t.RawID() != target.RawID() {
					continue
				}
				rel, err := t.Relation()
				if err != nil || rel == Wildcard {
					continue
				}
				toRemove = append(toRemove, rel)
				if rm := global.get(rel); rm != nil && rm.OnDeleteTarget == OnDeleteDelete {
					cascades = true
				}
			}
			for _, rel := range toRemove {
				if err := w.removePairRaw(subj, rel, target); err != nil {
					return err
				}
			}
			if cascades {
				cascadeSubjects = append(cascadeSubjects, subj)
			}
		}
	}
	for _, subj := range cascadeSubjects {
		if err := DestroyEntity(w, subj); err != nil {
			return err
		}
	}
	return nil
}
