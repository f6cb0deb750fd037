package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/scene"
	"github.com/san-kum/ballpit/internal/sim"
)

const (
	DefaultDt              = 1.0 / 60
	DefaultDuration        = 10.0
	DefaultParticleRadius  = 0.2
	DefaultContainerRadius = 3.0
	DefaultGravity         = -9.8
	DefaultSubsteps        = 1
	DefaultParticles       = 50
	DefaultSampleEvery     = 1
)

type Config struct {
	Params ParamsConfig       `yaml:"params"`
	Run    RunConfig          `yaml:"run"`
	Scene  scene.LayoutConfig `yaml:"scene"`
	Spawn  scene.SpawnConfig  `yaml:"spawn"`
	Output OutputConfig       `yaml:"output"`
}

type ParamsConfig struct {
	ParticleRadius  float64    `yaml:"particle_radius"`
	ContainerRadius float64    `yaml:"container_radius"`
	Gravity         dynamo.Vec `yaml:"gravity"`
	Substeps        int        `yaml:"substeps"`
	Policy          string     `yaml:"policy"`
	Workers         int        `yaml:"workers"`
}

type RunConfig struct {
	Dt          float64 `yaml:"dt"`
	Duration    float64 `yaml:"duration"`
	Seed        int64   `yaml:"seed"`
	SampleEvery int     `yaml:"sample_every"`
	Validate    bool    `yaml:"validate"`
}

type OutputConfig struct {
	Dir  string `yaml:"dir"`
	Save bool   `yaml:"save"`
}

func DefaultConfig() *Config {
	return &Config{
		Params: ParamsConfig{
			ParticleRadius:  DefaultParticleRadius,
			ContainerRadius: DefaultContainerRadius,
			Gravity:         dynamo.Vec{Y: DefaultGravity},
			Substeps:        DefaultSubsteps,
			Policy:          "absorb",
			Workers:         1,
		},
		Run: RunConfig{
			Dt:          DefaultDt,
			Duration:    DefaultDuration,
			SampleEvery: DefaultSampleEvery,
			Validate:    true,
		},
		Scene: scene.LayoutConfig{
			Name:  "random",
			Count: DefaultParticles,
		},
		Spawn: scene.SpawnConfig{
			Interval:     1,
			MaxParticles: 100,
			Drop:         scene.DefaultDrop,
		},
		Output: OutputConfig{Dir: "runs", Save: true},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) ToParams() sim.Params {
	return sim.Params{
		ParticleRadius:  c.Params.ParticleRadius,
		ContainerRadius: c.Params.ContainerRadius,
		Gravity:         c.Params.Gravity,
		Substeps:        c.Params.Substeps,
		Policy:          c.Params.Policy,
		Workers:         c.Params.Workers,
	}
}

func (c *Config) ToRunConfig() dynamo.Config {
	return dynamo.Config{
		Dt:            c.Run.Dt,
		Duration:      c.Run.Duration,
		Seed:          c.Run.Seed,
		SampleEvery:   c.Run.SampleEvery,
		ValidateState: c.Run.Validate,
	}
}

func (c *Config) Validate() error {
	if err := c.ToParams().Validate(); err != nil {
		return err
	}
	if !(c.Run.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrParameterBounds, c.Run.Dt)
	}
	if !(c.Run.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %g", dynamo.ErrParameterBounds, c.Run.Duration)
	}
	if c.Scene.Count < 0 {
		return fmt.Errorf("%w: scene count must not be negative, got %d", dynamo.ErrParameterBounds, c.Scene.Count)
	}
	if _, err := scene.LayoutByName(c.Scene.Name); err != nil {
		return err
	}
	return nil
}

// Set assigns a numeric field by its sweep name. Integer fields are rounded
// to the nearest whole number.
func (c *Config) Set(name string, v float64) error {
	switch name {
	case "particle_radius":
		c.Params.ParticleRadius = v
	case "container_radius":
		c.Params.ContainerRadius = v
	case "gravity_x":
		c.Params.Gravity.X = v
	case "gravity_y", "gravity":
		c.Params.Gravity.Y = v
	case "substeps":
		c.Params.Substeps = int(math.Round(v))
	case "workers":
		c.Params.Workers = int(math.Round(v))
	case "dt":
		c.Run.Dt = v
	case "duration":
		c.Run.Duration = v
	case "seed":
		c.Run.Seed = int64(math.Round(v))
	case "count":
		c.Scene.Count = int(math.Round(v))
	case "spawn_interval":
		c.Spawn.Interval = v
	default:
		return fmt.Errorf("unknown parameter: %s", name)
	}
	return nil
}

// Get reads a numeric field by its sweep name.
func (c *Config) Get(name string) (float64, error) {
	switch name {
	case "particle_radius":
		return c.Params.ParticleRadius, nil
	case "container_radius":
		return c.Params.ContainerRadius, nil
	case "gravity_x":
		return c.Params.Gravity.X, nil
	case "gravity_y", "gravity":
		return c.Params.Gravity.Y, nil
	case "substeps":
		return float64(c.Params.Substeps), nil
	case "workers":
		return float64(c.Params.Workers), nil
	case "dt":
		return c.Run.Dt, nil
	case "duration":
		return c.Run.Duration, nil
	case "seed":
		return float64(c.Run.Seed), nil
	case "count":
		return float64(c.Scene.Count), nil
	case "spawn_interval":
		return c.Spawn.Interval, nil
	}
	return 0, fmt.Errorf("unknown parameter: %s", name)
}

// Clone returns a copy that shares nothing with c.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
