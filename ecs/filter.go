package ecs

import (
	"strconv"
	"strings"

	roaring "github.com/RoaringBitmap/roaring/v2"
	"github.com/spaolacci/murmur3"
)

// Filter is a cached predicate over an archetype's type set: every id in
// Include must be present, every id in Exclude must be absent (spec
// §4.I). Two filters built from the same (Include, Exclude) sets,
// regardless of original ordering, share one cached instance keyed by a
// murmur3 hash of their canonicalized id lists — unlike HashTypes, which
// must stay the literal decimal-joined form an archetype's identity is
// tested against, a filter's cache key is purely an implementation
// shortcut and is free to use a faster hash.
type Filter struct {
	world *World
	key   uint64

	Include []Id
	Exclude []Id

	includeSet *roaring.Bitmap
	excludeSet *roaring.Bitmap

	archetypes []*Archetype
	refCount   int

	onCreated   ObserverHandle
	onDestroyed ObserverHandle
}

func canonicalKey(include, exclude []Id) uint64 {
	inc := append([]Id(nil), include...)
	exc := append([]Id(nil), exclude...)
	sortIds(inc)
	sortIds(exc)
	parts := make([]string, 0, len(inc)+len(exc)+1)
	for _, id := range inc {
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	parts = append(parts, "|")
	for _, id := range exc {
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	h := murmur3.Sum64([]byte(strings.Join(parts, ":")))
	return h
}

func bitmapOf(ids []Id) *roaring.Bitmap {
	b := roaring.New()
	for _, id := range ids {
		b.Add(uint32(id))
	}
	return b
}

func (f *Filter) matches(a *Archetype) bool {
	if card := f.includeSet.GetCardinality(); card > 0 {
		if f.includeSet.AndCardinality(a.typesSet) != card {
			return false
		}
	}
	if f.excludeSet.GetCardinality() > 0 && f.excludeSet.Intersects(a.typesSet) {
		return false
	}
	return true
}

// EnsureFilter returns the cached Filter for (include, exclude), building
// and registering it against every existing and future archetype if this
// is the first request for this exact predicate.
func EnsureFilter(w *World, include, exclude []Id) *Filter {
	key := canonicalKey(include, exclude)
	if f, ok := w.filters[filterMapKey(key)]; ok {
		f.refCount++
		return f
	}
	f := &Filter{
		world:      w,
		key:        key,
		Include:    append([]Id(nil), include...),
		Exclude:    append([]Id(nil), exclude...),
		includeSet: bitmapOf(include),
		excludeSet: bitmapOf(exclude),
		refCount:   1,
	}
	for _, a := range w.archetypes {
		if f.matches(a) {
			f.archetypes = append(f.archetypes, a)
		}
	}
	f.onCreated = w.observers.on(EventArchetypeCreated, func(_ *World, ev Event) {
		if f.matches(ev.Archetype) {
			f.archetypes = append(f.archetypes, ev.Archetype)
		}
	})
	f.onDestroyed = w.observers.on(EventArchetypeDestroyed, func(_ *World, ev Event) {
		f.archetypes = removeArchetype(f.archetypes, ev.Archetype)
	})
	w.filters[filterMapKey(key)] = f
	w.observers.fire(EventFilterCreated, w, Event{Filter: f})
	return f
}

func filterMapKey(key uint64) string { return strconv.FormatUint(key, 16) }

// DestroyFilter releases one reference to f, tearing it down (and firing
// filterDestroyed) once the last reference is gone.
func DestroyFilter(w *World, f *Filter) {
	f.refCount--
	if f.refCount > 0 {
		return
	}
	w.observers.off(f.onCreated)
	w.observers.off(f.onDestroyed)
	delete(w.filters, filterMapKey(f.key))
	w.observers.fire(EventFilterDestroyed, w, Event{Filter: f})
}

// sortedCopy returns a sorted copy of ids, used anywhere a caller-supplied
// component list needs canonicalizing before use as a map/cache key.
func sortedCopy(ids []Id) []Id {
	out := append([]Id(nil), ids...)
	sortIds(out)
	return out
}
