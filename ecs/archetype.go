package ecs

import (
	"sort"
	"strconv"
	"strings"

	roaring "github.com/RoaringBitmap/roaring/v2"
)

// HashTypes computes the archetype identity hash for a sorted type list:
// the decimal packed ids joined by ':'. This exact format is a testable
// property (spec scenario S1), not an implementation choice, so it is not
// routed through the murmur3 hashing used for filter/query cache keys.
func HashTypes(types []Id) string {
	if len(types) == 0 {
		return ""
	}
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = strconv.FormatUint(uint64(t), 10)
	}
	return strings.Join(parts, ":")
}

func sortIds(ids []Id) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

type componentStorage struct {
	id      Id
	schema  *Schema
	fields  []Column
	added   Column
	changed Column
}

func newComponentStorage(id Id, schema *Schema) *componentStorage {
	cs := &componentStorage{id: id, schema: schema, added: newTickColumn(), changed: newTickColumn()}
	if schema != nil {
		cs.fields = make([]Column, len(schema.Fields()))
		for i, f := range schema.Fields() {
			cs.fields[i] = NewColumn(f.Kind)
		}
	}
	return cs
}

func (cs *componentStorage) resize(n int) {
	for _, f := range cs.fields {
		f.Resize(n)
	}
	cs.added.Resize(n)
	cs.changed.Resize(n)
}

func (cs *componentStorage) clearSlot(i int) {
	for _, f := range cs.fields {
		f.ClearSlot(i)
	}
	cs.added.ClearSlot(i)
	cs.changed.ClearSlot(i)
}

func (cs *componentStorage) copySlot(dst int, src *componentStorage, srcIdx int) {
	for fi, f := range cs.fields {
		f.CopySlot(dst, src.fields[fi], srcIdx)
	}
	cs.added.CopySlot(dst, src.added, srcIdx)
	cs.changed.CopySlot(dst, src.changed, srcIdx)
}

// Archetype is the table for every entity whose exact component-id set is
// Types. Rows are swap-removed; columns and tick arrays are allocated
// lazily on first row and grown 16, then x4.
type Archetype struct {
	world *World

	Hash  string
	Types []Id

	typesSet *roaring.Bitmap
	index    map[Id]int
	storages []*componentStorage

	entities []Id
	len      int
	capacity int

	edges map[Id]*Archetype

	destroyed bool
}

const archetypeInitialCapacity = 16
const archetypeGrowthFactor = 4

func newArchetype(w *World, types []Id) *Archetype {
	set := roaring.New()
	for _, t := range types {
		set.Add(uint32(t))
	}
	a := &Archetype{
		world:    w,
		Hash:     HashTypes(types),
		Types:    types,
		typesSet: set,
		index:    make(map[Id]int, len(types)),
		storages: make([]*componentStorage, len(types)),
		edges:    make(map[Id]*Archetype),
	}
	for i, t := range types {
		a.index[t] = i
		a.storages[i] = newComponentStorage(t, w.schemaFor(t))
	}
	return a
}

// Has reports whether component c is part of this archetype's type set.
func (a *Archetype) Has(c Id) bool {
	_, ok := a.index[c]
	return ok
}

// Len is the number of live rows.
func (a *Archetype) Len() int { return a.len }

// Entity returns the entity id stored at row i.
func (a *Archetype) Entity(i int) Id { return a.entities[i] }

func (a *Archetype) growthCapacity() int {
	cfg := a.world.config
	initial, factor := cfg.InitialArchetypeCapacity, cfg.ArchetypeGrowthFactor
	if a.capacity == 0 {
		return initial
	}
	return a.capacity * factor
}

func (a *Archetype) ensureRoom() {
	if a.len < a.capacity {
		return
	}
	newCap := a.growthCapacity()
	a.entities = append(a.entities, make([]Id, newCap-a.capacity)...)
	for _, st := range a.storages {
		st.resize(newCap)
	}
	a.capacity = newCap
}

// AddEntity appends entity e as a new row, initializing every component's
// add/change ticks to tick. Returns the new row index.
func (a *Archetype) AddEntity(e Id, tick uint32) int {
	a.ensureRoom()
	row := a.len
	a.entities[row] = e
	for _, st := range a.storages {
		st.added.Set(row, tick)
		st.changed.Set(row, tick)
	}
	a.len++
	return row
}

// RemoveRow swap-removes row i, returning the id that was swapped into i
// (if any).
func (a *Archetype) RemoveRow(i int) (swapped Id, ok bool) {
	last := a.len - 1
	if i != last {
		a.entities[i] = a.entities[last]
		for _, st := range a.storages {
			st.copySlot(i, st, last)
		}
		swapped, ok = a.entities[last], true
	}
	for _, st := range a.storages {
		st.clearSlot(last)
	}
	a.entities[last] = 0
	a.len--
	return swapped, ok
}

// Transfer moves the row at fromRow into dest, copying shared component
// values and ticks, initializing newly-gained components' ticks to tick
// and zero-valuing their columns, then swap-removing the vacated source
// row. Returns the destination row and whatever entity got swapped into
// the vacated source row, if any.
func (a *Archetype) Transfer(fromRow int, dest *Archetype, tick uint32) (toRow int, swapped Id, swappedOk bool) {
	e := a.entities[fromRow]
	toRow = dest.len
	dest.ensureRoom()
	dest.entities[toRow] = e
	for ti, id := range dest.Types {
		dst := dest.storages[ti]
		if srcIdx, ok := a.index[id]; ok {
			src := a.storages[srcIdx]
			dst.copySlot(toRow, src, fromRow)
		} else {
			dst.added.Set(toRow, tick)
			dst.changed.Set(toRow, tick)
		}
	}
	dest.len++
	swapped, swappedOk = a.RemoveRow(fromRow)
	return toRow, swapped, swappedOk
}

// TraverseAdd returns the archetype reached by adding component c, creating
// and caching it if this is the first time this edge has been walked.
func (a *Archetype) TraverseAdd(c Id) (*Archetype, error) {
	if a.Has(c) {
		return a, nil
	}
	if to, ok := a.edges[c]; ok {
		return to, nil
	}
	newTypes := make([]Id, len(a.Types)+1)
	copy(newTypes, a.Types)
	newTypes[len(a.Types)] = c
	sortIds(newTypes)
	to, err := a.world.getOrCreateArchetype(newTypes)
	if err != nil {
		return nil, err
	}
	a.edges[c] = to
	to.edges[c] = a
	return to, nil
}

// TraverseRemove returns the archetype reached by removing component c.
func (a *Archetype) TraverseRemove(c Id) (*Archetype, error) {
	if !a.Has(c) {
		return a, nil
	}
	if to, ok := a.edges[c]; ok {
		return to, nil
	}
	newTypes := make([]Id, 0, len(a.Types)-1)
	for _, t := range a.Types {
		if t != c {
			newTypes = append(newTypes, t)
		}
	}
	to, err := a.world.getOrCreateArchetype(newTypes)
	if err != nil {
		return nil, err
	}
	a.edges[c] = to
	to.edges[c] = a
	return to, nil
}

// destroy removes this archetype from the world: never valid for the root
// archetype (invariant 5). Fires archetypeDestroyed before unlinking so
// observers can still resolve it, then clears edges (and their
// reciprocals) and removes it from each remaining type's records list.
func (a *Archetype) destroy() error {
	if len(a.Types) == 0 {
		return invalidArgument("Archetype.destroy", "the root archetype can never be destroyed")
	}
	if a.destroyed {
		return nil
	}
	a.world.observers.fire(EventArchetypeDestroyed, a.world, Event{Archetype: a})
	delete(a.world.archetypes, a.Hash)
	a.destroyed = true
	for c, other := range a.edges {
		delete(other.edges, c)
	}
	a.edges = nil
	for _, t := range a.Types {
		if meta, ok := a.world.registry.get(t); ok {
			meta.records = removeArchetype(meta.records, a)
		}
	}
	return nil
}

func removeArchetype(list []*Archetype, target *Archetype) []*Archetype {
	out := list[:0]
	for _, a := range list {
		if a != target {
			out = append(out, a)
		}
	}
	return out
}
