package ecs

import "github.com/kamstrup/intmap"

// entityMeta is per-id bookkeeping shared by every kind of id once it has
// been ensured into a world: plain entities, and tag/component/relation
// pair ids the moment they are first referenced as a component type.
type entityMeta struct {
	archetype  *Archetype
	row        int
	records    []*Archetype // archetypes whose Types include this id
	destroying bool
}

// EntityRegistry is the per-world entity id allocator and meta table
// (spec §4.E). Entity raw ids are recycled with a wrapping 8-bit
// generation; tag/component/relation ids never go through this allocator
// (they come from the process-global ComponentTypeRegistry) but their meta
// entries live here too once ensured, because cascade bookkeeping (the
// records back-reference) is uniform across every kind of id.
type EntityRegistry struct {
	meta *intmap.Map[Id, *entityMeta]

	generations []uint8
	freeIds     []uint32
	nextRaw     uint32
}

func newEntityRegistry() *EntityRegistry {
	return &EntityRegistry{meta: intmap.New[Id, *entityMeta](1024)}
}

func (r *EntityRegistry) currentGeneration(raw uint32) uint8 {
	if int(raw) >= len(r.generations) {
		return 0
	}
	return r.generations[raw]
}

// allocateRaw pops a recycled raw id (with its stored generation) or mints
// a fresh one.
func (r *EntityRegistry) allocateRaw() (raw uint32, gen uint8, err error) {
	if n := len(r.freeIds); n > 0 {
		raw = r.freeIds[n-1]
		r.freeIds = r.freeIds[:n-1]
		return raw, r.generations[raw], nil
	}
	if r.nextRaw > MaxRawID {
		return 0, 0, limitExceeded("EntityRegistry.allocateRaw", "entity id space exhausted")
	}
	raw = r.nextRaw
	r.nextRaw++
	r.generations = append(r.generations, 0)
	return raw, 0, nil
}

// free recycles raw, bumping its stored generation (wrapping at 256).
func (r *EntityRegistry) free(raw uint32) {
	r.generations[raw] = r.generations[raw] + 1 // uint8 wraps naturally
	r.freeIds = append(r.freeIds, raw)
}

func (r *EntityRegistry) get(id Id) (*entityMeta, bool) {
	m, ok := r.meta.Get(id)
	return m, ok
}

func (r *EntityRegistry) put(id Id, m *entityMeta) {
	r.meta.Put(id, m)
}

func (r *EntityRegistry) delete(id Id) {
	r.meta.Del(id)
}

func (r *EntityRegistry) reset() {
	r.meta = intmap.New[Id, *entityMeta](1024)
	r.generations = nil
	r.freeIds = nil
	r.nextRaw = 0
}

func removeFromRecords(m *entityMeta, a *Archetype) {
	m.records = removeArchetype(m.records, a)
}
