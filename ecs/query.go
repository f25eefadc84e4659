package ecs

// Query wraps a Filter with optional added/changed component tick
// filters and the two change-detection channels spec §4.J requires: one
// shared `self` cursor for callers driving a query outside any system,
// and one per systemId for callers invoking it from inside a system's own
// turn. Each channel only ever moves forward to the tick FetchEntities
// was run at.
type Query struct {
	world  *World
	filter *Filter

	Added   []Id
	Changed []Id

	self       uint32
	bySystemId map[string]uint32
}

// EnsureQuery returns the cached Query for this exact (include, exclude,
// added, changed) tuple, creating it (and the underlying Filter) on first
// request. added/changed components are folded into the filter's own
// include set: a query can only observe a component's tick state on rows
// that carry it.
func EnsureQuery(w *World, include, exclude, added, changed []Id) *Query {
	fullInclude := append(append([]Id(nil), include...), added...)
	fullInclude = append(fullInclude, changed...)
	f := EnsureFilter(w, fullInclude, exclude)
	key := filterMapKey(f.key) + "#" + filterMapKey(canonicalKey(added, changed))
	if q, ok := w.queries[key]; ok {
		return q
	}
	q := &Query{
		world:      w,
		filter:     f,
		Added:      sortedCopy(added),
		Changed:    sortedCopy(changed),
		bySystemId: make(map[string]uint32),
	}
	w.queries[key] = q
	return q
}

// DestroyQuery releases q's underlying filter reference and drops q from
// the world's query cache.
func DestroyQuery(w *World, q *Query) {
	for key, cached := range w.queries {
		if cached == q {
			delete(w.queries, key)
			break
		}
	}
	DestroyFilter(w, q.filter)
}

func (q *Query) hasTickFilters() bool {
	return len(q.Added) > 0 || len(q.Changed) > 0
}

func (q *Query) lastTick(systemId *string) uint32 {
	if systemId == nil {
		return q.self
	}
	return q.bySystemId[*systemId]
}

func (q *Query) advanceTick(systemId *string, tick uint32) {
	if systemId == nil {
		q.self = tick
		return
	}
	q.bySystemId[*systemId] = tick
}

func (q *Query) rowPassesTickFilters(a *Archetype, row int, since uint32) bool {
	for _, c := range q.Added {
		idx, ok := a.index[c]
		if !ok {
			return false
		}
		if a.storages[idx].added.Get(row).(uint32) <= since {
			return false
		}
	}
	for _, c := range q.Changed {
		idx, ok := a.index[c]
		if !ok {
			return false
		}
		if a.storages[idx].changed.Get(row).(uint32) <= since {
			return false
		}
	}
	return true
}

// FetchEntities runs fn over every entity matching q's filter (and, if
// set, its added/changed tick filters), most-recently-added archetype
// first and within an archetype in reverse row order — safe against a
// callback that destroys the current entity mid-iteration, since a
// swap-remove only ever disturbs the current row and the last row, which
// has already been visited.
// fn returns false to stop early. systemId selects which lastTick
// channel to read and advance; nil falls back to the id the scheduler
// published via World.SetSystemID, which is nil outside any system.
// Per spec §4.J, a tick-filtered query invoked outside any system (no
// systemId) yields nothing: the shared self cursor has no single owner
// to make "since my last look" meaningful across unrelated outside-system
// callers, so rather than produce confusing cross-caller results the
// query reports empty and still advances self to the current tick.
func FetchEntities(w *World, q *Query, systemId *string, fn func(e Id) bool) {
	if systemId == nil {
		systemId = w.systemID
	}
	since := q.lastTick(systemId)
	defer q.advanceTick(systemId, w.tick)

	if q.hasTickFilters() && systemId == nil {
		return
	}

	for ai := len(q.filter.archetypes) - 1; ai >= 0; ai-- {
		a := q.filter.archetypes[ai]
		for row := a.len - 1; row >= 0; row-- {
			if q.hasTickFilters() && !q.rowPassesTickFilters(a, row, since) {
				continue
			}
			if !fn(a.Entity(row)) {
				return
			}
		}
	}
}

// FetchFirstEntity returns the first entity FetchEntities would yield, or
// false if none match.
func FetchFirstEntity(w *World, q *Query, systemId *string) (Id, bool) {
	var found Id
	ok := false
	FetchEntities(w, q, systemId, func(e Id) bool {
		found, ok = e, true
		return false
	})
	return found, ok
}
