package ecs_test

import (
	"testing"

	"github.com/latticeecs/core/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityBuilderBuildsWithFieldValues(t *testing.T) {
	w := freshWorld(t)
	pos, _ := ecs.DefineComponent("Position", ecs.NewSchema(ecs.FieldF64("x"), ecs.FieldF64("y")))
	tag, _ := ecs.DefineTag("Marker")

	e, err := ecs.NewEntityBuilder(w).
		With(pos, map[string]any{"x": 3.0, "y": 4.0}).
		With(tag, nil).
		Build()
	require.NoError(t, err)

	require.True(t, ecs.HasComponent(w, e, pos))
	require.True(t, ecs.HasComponent(w, e, tag))
	x, err := ecs.GetComponentValue(w, e, pos, "x")
	require.NoError(t, err)
	y, err := ecs.GetComponentValue(w, e, pos, "y")
	require.NoError(t, err)
	assert.Equal(t, 3.0, x)
	assert.Equal(t, 4.0, y)
}

func TestEntityBuilderWithPairMaterializesCompanions(t *testing.T) {
	w := freshWorld(t)
	childOf, _ := ecs.DefineRelation("ChildOf", ecs.RelationOptions{})
	parent, _ := ecs.CreateEntity(w)

	e, err := ecs.NewEntityBuilder(w).WithPair(childOf, parent).Build()
	require.NoError(t, err)

	targets := ecs.GetRelationTargets(w, e, childOf)
	require.Len(t, targets, 1)
	assert.Equal(t, parent.RawID(), targets[0].RawID())
}

// TestEntityBuilderExclusiveRelationReparentsBeforeBuild exercises the one
// construction path that historically bypassed the exclusive-relation
// check addComponentRaw applies one pair at a time: two WithPair calls for
// the same exclusive relation, both folded into a single Build, must still
// leave only the second target attached.
func TestEntityBuilderExclusiveRelationReparentsBeforeBuild(t *testing.T) {
	w := freshWorld(t)
	attachedTo, err := ecs.DefineRelation("AttachedTo", ecs.RelationOptions{Exclusive: true})
	require.NoError(t, err)

	a, _ := ecs.CreateEntity(w)
	b, _ := ecs.CreateEntity(w)

	e, err := ecs.NewEntityBuilder(w).
		WithPair(attachedTo, a).
		WithPair(attachedTo, b).
		Build()
	require.NoError(t, err)

	targets := ecs.GetRelationTargets(w, e, attachedTo)
	require.Len(t, targets, 1, "an exclusive relation must not leave two pairs on a builder-constructed entity")
	assert.Equal(t, b.RawID(), targets[0].RawID())
}
