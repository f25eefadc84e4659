package ecs

import (
	"sync"

	"github.com/kamstrup/intmap"
)

// DeletePolicy governs what happens to entity S holding relation pair
// (R, T) when T is destroyed.
type DeletePolicy int

const (
	// OnDeleteRemove removes the pair from S; S survives. Default.
	OnDeleteRemove DeletePolicy = iota
	// OnDeleteDelete destroys S too, recursively.
	OnDeleteDelete
)

// ComponentMeta is the process-global metadata recorded for a component,
// tag, or relation id at definition time.
type ComponentMeta struct {
	Name           string
	Schema         *Schema
	Exclusive      bool
	OnDeleteTarget DeletePolicy
}

// ComponentTypeRegistry is the process-global table mapping
// component/tag/relation ids to their metadata (spec §4.G). Definition is
// decoupled from any one World: an id defined once is valid across every
// World in the process. Writes only happen at type-definition time, which
// is expected at program startup, but the registry is still guarded by a
// mutex per spec §5's design note.
type ComponentTypeRegistry struct {
	mu sync.RWMutex

	meta *intmap.Map[Id, *ComponentMeta]

	nextTagRaw       uint32
	nextComponentRaw uint32
	nextRelationRaw  uint32

	names map[string]Id

	// traitExclusive and traitCascadeDelete are built-in tags materialized
	// onto a pair id by ensure_entity (spec §4.E) to record, on the pair
	// itself, whether its relation is exclusive or cascades on target
	// destruction — so later code can query pair traits directly instead
	// of re-consulting the relation's metadata.
	traitExclusive     Id
	traitCascadeDelete Id
}

func newComponentTypeRegistry() *ComponentTypeRegistry {
	r := &ComponentTypeRegistry{
		meta:  intmap.New[Id, *ComponentMeta](256),
		names: make(map[string]Id),
	}
	// raw id 0 in the relation space is permanently reserved for Wildcard.
	r.nextRelationRaw = 1
	r.meta.Put(Wildcard, &ComponentMeta{Name: "Wildcard"})

	r.traitExclusive, _ = NewTagID(0)
	r.meta.Put(r.traitExclusive, &ComponentMeta{Name: "builtin.Exclusive"})
	r.traitCascadeDelete, _ = NewTagID(1)
	r.meta.Put(r.traitCascadeDelete, &ComponentMeta{Name: "builtin.OnDeleteTargetDelete"})
	r.nextTagRaw = 2
	return r
}

// global is the single process-wide component/tag/relation registry.
var global = newComponentTypeRegistry()

func (r *ComponentTypeRegistry) defineTag(name string) (Id, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[name]; exists {
		return 0, duplicate("defineTag", "type %q already defined", name)
	}
	if r.nextTagRaw > MaxRawID {
		return 0, limitExceeded("defineTag", "tag id space exhausted")
	}
	id, err := NewTagID(r.nextTagRaw)
	if err != nil {
		return 0, err
	}
	r.nextTagRaw++
	r.meta.Put(id, &ComponentMeta{Name: name})
	r.names[name] = id
	return id, nil
}

func (r *ComponentTypeRegistry) defineComponent(name string, schema Schema) (Id, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[name]; exists {
		return 0, duplicate("defineComponent", "type %q already defined", name)
	}
	if r.nextComponentRaw > MaxRawID {
		return 0, limitExceeded("defineComponent", "component id space exhausted")
	}
	id, err := NewComponentID(r.nextComponentRaw)
	if err != nil {
		return 0, err
	}
	r.nextComponentRaw++
	s := schema
	r.meta.Put(id, &ComponentMeta{Name: name, Schema: &s})
	r.names[name] = id
	return id, nil
}

// RelationOptions configures a relation at definition time.
type RelationOptions struct {
	Schema         *Schema
	Exclusive      bool
	OnDeleteTarget DeletePolicy
}

func (r *ComponentTypeRegistry) defineRelation(name string, opts RelationOptions) (Id, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[name]; exists {
		return 0, duplicate("defineRelation", "type %q already defined", name)
	}
	if r.nextRelationRaw > MaxRelID {
		return 0, limitExceeded("defineRelation", "relation id space exhausted")
	}
	id, err := NewRelationID(r.nextRelationRaw)
	if err != nil {
		return 0, err
	}
	r.nextRelationRaw++
	r.meta.Put(id, &ComponentMeta{
		Name:           name,
		Schema:         opts.Schema,
		Exclusive:      opts.Exclusive,
		OnDeleteTarget: opts.OnDeleteTarget,
	})
	r.names[name] = id
	return id, nil
}

// get returns the metadata for id, or nil if it was never defined.
func (r *ComponentTypeRegistry) get(id Id) *ComponentMeta {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, _ := r.meta.Get(id)
	return m
}

// ResetGlobalRegistry wipes every defined tag, component, and relation
// type. It exists for test isolation between otherwise-independent test
// cases sharing one process-global registry (spec §5); a running
// application has no reason to call it; calling it while any World is
// still alive leaves that World referencing now-undefined types.
func ResetGlobalRegistry() {
	global.reset()
}

// reset wipes the global registry. Exposed only for test isolation between
// test cases sharing one process; a running World never calls this.
func (r *ComponentTypeRegistry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meta = intmap.New[Id, *ComponentMeta](256)
	r.names = make(map[string]Id)
	r.nextComponentRaw = 0
	r.nextRelationRaw = 1
	r.meta.Put(Wildcard, &ComponentMeta{Name: "Wildcard"})
	r.traitExclusive, _ = NewTagID(0)
	r.meta.Put(r.traitExclusive, &ComponentMeta{Name: "builtin.Exclusive"})
	r.traitCascadeDelete, _ = NewTagID(1)
	r.meta.Put(r.traitCascadeDelete, &ComponentMeta{Name: "builtin.OnDeleteTargetDelete"})
	r.nextTagRaw = 2
}
