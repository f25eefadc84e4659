package ecs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/latticeecs/core/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWorldConfigMatchesSpecDefaults(t *testing.T) {
	cfg := ecs.DefaultWorldConfig()
	assert.Equal(t, 16, cfg.InitialArchetypeCapacity)
	assert.Equal(t, 4, cfg.ArchetypeGrowthFactor)
}

func TestLoadWorldConfigFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world.toml")
	require.NoError(t, os.WriteFile(path, []byte("initial_archetype_capacity = 64\n"), 0o600))

	cfg, err := ecs.LoadWorldConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.InitialArchetypeCapacity)
	assert.Equal(t, 4, cfg.ArchetypeGrowthFactor, "unset fields fall back to spec defaults")
}

func TestWorldConfigDrivesArchetypeGrowth(t *testing.T) {
	ecs.ResetGlobalRegistry()
	w := ecs.CreateWorld(ecs.WithConfig(ecs.WorldConfig{InitialArchetypeCapacity: 2, ArchetypeGrowthFactor: 2}))
	tag, _ := ecs.DefineTag("Marker")

	for i := 0; i < 5; i++ {
		e, err := ecs.CreateEntity(w)
		require.NoError(t, err)
		require.NoError(t, ecs.AddComponent(w, e, tag, nil))
	}

	q := ecs.EnsureQuery(w, []ecs.Id{tag}, nil, nil, nil)
	count := 0
	ecs.FetchEntities(w, q, nil, func(ecs.Id) bool { count++; return true })
	assert.Equal(t, 5, count)
}
