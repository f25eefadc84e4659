package ecs

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

// WorldConfig tunes the memory-growth policy spec §4.D/§5 describe with
// hard-coded defaults (16, x4). The defaults remain the spec's numbers;
// this only makes them overridable, e.g. for worlds that know their
// entity counts up front and want to skip the early growth steps.
type WorldConfig struct {
	InitialArchetypeCapacity int `toml:"initial_archetype_capacity"`
	ArchetypeGrowthFactor    int `toml:"archetype_growth_factor"`
}

// DefaultWorldConfig reproduces spec.md's hard-coded growth policy exactly.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		InitialArchetypeCapacity: archetypeInitialCapacity,
		ArchetypeGrowthFactor:    archetypeGrowthFactor,
	}
}

func (c *WorldConfig) applyDefaults() {
	if c.InitialArchetypeCapacity <= 0 {
		c.InitialArchetypeCapacity = archetypeInitialCapacity
	}
	if c.ArchetypeGrowthFactor <= 1 {
		c.ArchetypeGrowthFactor = archetypeGrowthFactor
	}
}

// LoadWorldConfig reads a TOML-encoded WorldConfig from path, filling in
// spec defaults for anything left unset.
func LoadWorldConfig(path string) (WorldConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return WorldConfig{}, invalidArgument("LoadWorldConfig", "%v", err)
	}
	var cfg WorldConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return WorldConfig{}, invalidArgument("LoadWorldConfig", "%v", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}
