// Package scene builds initial particle layouts and spawns particles while a
// simulation runs.
package scene

import (
	"math/rand"

	"github.com/san-kum/ballpit/internal/dynamo"
)

// DefaultDrop is where balls enter when random placement is off.
var DefaultDrop = dynamo.Vec{X: 0.3, Y: 2}

type Color struct {
	R, G, B float64
}

type SpawnConfig struct {
	Enabled bool `yaml:"enabled"`
	// Interval is the number of seconds each existing ball delays the next.
	Interval     float64    `yaml:"interval"`
	MaxParticles int        `yaml:"max_particles"`
	Random       bool       `yaml:"random"`
	Drop         dynamo.Vec `yaml:"drop"`
}

func DefaultSpawnConfig() SpawnConfig {
	return SpawnConfig{
		Enabled:      true,
		Interval:     1,
		MaxParticles: 100,
		Drop:         DefaultDrop,
	}
}

// Spawner adds one ball whenever the time since its first call reaches
// Interval times the current ball count.
type Spawner struct {
	cfg     SpawnConfig
	rng     *rand.Rand
	start   float64
	started bool

	// Colors holds one tint per spawned ball, in spawn order.
	Colors []Color
}

func NewSpawner(cfg SpawnConfig, seed int64) *Spawner {
	if cfg.Interval <= 0 {
		cfg.Interval = 1
	}
	return &Spawner{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// Next reports whether a ball is due given the live count at time t, and if
// so where it goes and what colour it gets.
func (s *Spawner) Next(count int, t float64) (dynamo.Vec, Color, bool) {
	if !s.started {
		s.start = t
		s.started = true
	}
	if s.cfg.MaxParticles > 0 && count >= s.cfg.MaxParticles {
		return dynamo.Vec{}, Color{}, false
	}
	if t-s.start < float64(count)*s.cfg.Interval {
		return dynamo.Vec{}, Color{}, false
	}

	c := Color{R: s.rng.Float64(), G: s.rng.Float64(), B: s.rng.Float64()}
	pos := s.cfg.Drop
	if s.cfg.Random {
		pos = dynamo.Vec{X: s.rng.Float64()*2 - 1, Y: s.rng.Float64()*2 - 1}
	}
	return pos, c, true
}

// Spawn appends a resting ball to p when one is due.
func (s *Spawner) Spawn(p *dynamo.Particles, t float64) int {
	pos, c, ok := s.Next(p.Len(), t)
	if !ok {
		return 0
	}
	p.Append(pos, pos)
	s.Colors = append(s.Colors, c)
	return 1
}
