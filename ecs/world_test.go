package ecs_test

import (
	"testing"

	"github.com/latticeecs/core/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freshWorld(t *testing.T) *ecs.World {
	t.Helper()
	ecs.ResetGlobalRegistry()
	return ecs.CreateWorld()
}

func TestCreateEntityIsAliveAndRoundTrips(t *testing.T) {
	w := freshWorld(t)

	e, err := ecs.CreateEntity(w)
	require.NoError(t, err)
	assert.True(t, ecs.IsEntityAlive(w, e))

	require.NoError(t, ecs.DestroyEntity(w, e))
	assert.False(t, ecs.IsEntityAlive(w, e))
}

func TestDestroyEntityIsIdempotent(t *testing.T) {
	w := freshWorld(t)
	e, err := ecs.CreateEntity(w)
	require.NoError(t, err)

	require.NoError(t, ecs.DestroyEntity(w, e))
	require.NoError(t, ecs.DestroyEntity(w, e)) // second call is a no-op, not an error
}

func TestRecycledRawIdBumpsGeneration(t *testing.T) {
	w := freshWorld(t)
	e1, err := ecs.CreateEntity(w)
	require.NoError(t, err)
	require.NoError(t, ecs.DestroyEntity(w, e1))

	e2, err := ecs.CreateEntity(w)
	require.NoError(t, err)

	assert.Equal(t, e1.RawID(), e2.RawID(), "raw id should be recycled")
	assert.NotEqual(t, e1.Generation(), e2.Generation(), "generation must differ so stale handles are detectable")
	assert.False(t, ecs.IsEntityAlive(w, e1), "the old handle must no longer report alive")
	assert.True(t, ecs.IsEntityAlive(w, e2))
}

// Scenario S1 (spec §8): archetype identity hash is the literal
// decimal-joined, sorted component id list.
func TestArchetypeHashIsSortedDecimalJoin(t *testing.T) {
	ecs.ResetGlobalRegistry()
	w := ecs.CreateWorld()

	a, err := ecs.DefineComponent("A", ecs.NewSchema(ecs.FieldI32("v")))
	require.NoError(t, err)
	b, err := ecs.DefineComponent("B", ecs.NewSchema(ecs.FieldI32("v")))
	require.NoError(t, err)

	e, err := ecs.CreateEntity(w)
	require.NoError(t, err)
	require.NoError(t, ecs.AddComponent(w, e, b, nil))
	require.NoError(t, ecs.AddComponent(w, e, a, nil))

	ids := []ecs.Id{a, b}
	if ids[0] > ids[1] {
		ids[0], ids[1] = ids[1], ids[0]
	}
	assert.Equal(t, ecs.HashTypes(ids), ecs.ArchetypeHashOf(w, e))
}

func TestAddComponentIsIdempotent(t *testing.T) {
	w := freshWorld(t)
	pos, err := ecs.DefineComponent("Position", ecs.NewSchema(ecs.FieldF64("x"), ecs.FieldF64("y")))
	require.NoError(t, err)

	e, err := ecs.CreateEntity(w)
	require.NoError(t, err)
	require.NoError(t, ecs.AddComponent(w, e, pos, map[string]any{"x": 1.0, "y": 2.0}))
	require.NoError(t, ecs.AddComponent(w, e, pos, nil))

	assert.True(t, ecs.HasComponent(w, e, pos))
	x, err := ecs.GetComponentValue(w, e, pos, "x")
	require.NoError(t, err)
	assert.Equal(t, 1.0, x)
}

func TestRemoveComponentMigratesArchetype(t *testing.T) {
	w := freshWorld(t)
	pos, _ := ecs.DefineComponent("Position", ecs.NewSchema(ecs.FieldF64("x")))
	vel, _ := ecs.DefineComponent("Velocity", ecs.NewSchema(ecs.FieldF64("dx")))

	e, _ := ecs.CreateEntity(w)
	require.NoError(t, ecs.AddComponent(w, e, pos, nil))
	require.NoError(t, ecs.AddComponent(w, e, vel, nil))
	require.NoError(t, ecs.RemoveComponent(w, e, pos))

	assert.False(t, ecs.HasComponent(w, e, pos))
	assert.True(t, ecs.HasComponent(w, e, vel))
}

func TestSetComponentValueFiresChanged(t *testing.T) {
	w := freshWorld(t)
	pos, _ := ecs.DefineComponent("Position", ecs.NewSchema(ecs.FieldF64("x")))
	e, _ := ecs.CreateEntity(w)
	require.NoError(t, ecs.AddComponent(w, e, pos, map[string]any{"x": 0.0}))

	var fired bool
	ecs.RegisterObserverCallback(w, ecs.EventComponentChanged, func(_ *ecs.World, ev ecs.Event) {
		if ev.Entity == e && ev.Component == pos {
			fired = true
		}
	})
	require.NoError(t, ecs.SetComponentValue(w, e, pos, "x", 5.0))
	assert.True(t, fired)

	v, err := ecs.GetComponentValue(w, e, pos, "x")
	require.NoError(t, err)
	assert.Equal(t, 5.0, v)
}

func TestSwapRemoveKeepsSurvivorQueryable(t *testing.T) {
	w := freshWorld(t)
	tag, _ := ecs.DefineTag("Marker")

	e1, _ := ecs.CreateEntity(w)
	e2, _ := ecs.CreateEntity(w)
	e3, _ := ecs.CreateEntity(w)
	for _, e := range []ecs.Id{e1, e2, e3} {
		require.NoError(t, ecs.AddComponent(w, e, tag, nil))
	}

	require.NoError(t, ecs.DestroyEntity(w, e1)) // first row removed, triggers swap

	assert.True(t, ecs.HasComponent(w, e2, tag))
	assert.True(t, ecs.HasComponent(w, e3, tag))

	q := ecs.EnsureQuery(w, []ecs.Id{tag}, nil, nil, nil)
	seen := map[ecs.Id]bool{}
	ecs.FetchEntities(w, q, nil, func(e ecs.Id) bool {
		seen[e] = true
		return true
	})
	assert.Len(t, seen, 2)
	assert.True(t, seen[e2])
	assert.True(t, seen[e3])
}

func TestResetWorldClearsEntitiesAndArchetypes(t *testing.T) {
	w := freshWorld(t)
	tag, _ := ecs.DefineTag("Marker")
	e, _ := ecs.CreateEntity(w)
	require.NoError(t, ecs.AddComponent(w, e, tag, nil))

	ecs.ResetWorld(w)

	assert.False(t, ecs.IsEntityAlive(w, e))
	e2, err := ecs.CreateEntity(w)
	require.NoError(t, err)
	assert.False(t, ecs.HasComponent(w, e2, tag))
}
