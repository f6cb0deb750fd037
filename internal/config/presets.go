package config

import "sort"

var Presets = map[string]func(*Config){
	"drop": func(c *Config) {
		c.Scene.Name, c.Scene.Count = "empty", 0
		c.Spawn.Enabled = true
		c.Run.Duration = 60
	},
	"rain": func(c *Config) {
		c.Scene.Name, c.Scene.Count = "empty", 0
		c.Spawn.Enabled = true
		c.Spawn.Random = true
		c.Spawn.Interval = 0.25
		c.Spawn.MaxParticles = 150
		c.Run.Duration = 45
	},
	"pile": func(c *Config) {
		c.Scene.Name, c.Scene.Count = "lattice", 120
		c.Params.Policy = "quench"
		c.Run.Duration = 20
	},
	"shake": func(c *Config) {
		c.Scene.Name, c.Scene.Count = "random", 150
		c.Scene.Duplicates = true
		c.Params.Substeps = 4
	},
	"crowd": func(c *Config) {
		c.Scene.Name, c.Scene.Count = "random", 160
		c.Params.ParticleRadius = 0.1
		c.Params.Substeps = 8
		c.Params.Workers = 4
		c.Run.SampleEvery = 4
	},
}

// GetPreset returns a fresh default config with the named preset applied,
// or nil if there is no such preset.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
