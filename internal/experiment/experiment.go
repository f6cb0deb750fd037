package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/ballpit/internal/config"
	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/scene"
	"github.com/san-kum/ballpit/internal/sim"
)

// Experiment is one configured run: a simulator, its initial particles and
// an optional spawner.
type Experiment struct {
	cfg       *config.Config
	params    sim.Params
	simulator *sim.Simulator
	particles *dynamo.Particles
	spawner   *scene.Spawner
}

func New(cfg *config.Config, registry *Registry, metricSet string, logger *slog.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	params := cfg.ToParams()
	policy, err := registry.GetPolicy(params.Policy)
	if err != nil {
		return nil, err
	}
	s, err := sim.New(params, sim.WithLogger(logger), sim.WithPolicy(policy))
	if err != nil {
		return nil, err
	}

	ms, err := registry.GetMetrics(metricSet, params, cfg.Run.Dt)
	if err != nil {
		return nil, err
	}
	for _, m := range ms {
		s.AddMetric(m)
	}

	p, err := scene.Build(cfg.Scene, params, cfg.Run.Seed)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}

	e := &Experiment{cfg: cfg, params: params, simulator: s, particles: p}
	if cfg.Spawn.Enabled {
		e.spawner = scene.NewSpawner(cfg.Spawn, cfg.Run.Seed)
	}
	return e, nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	var spawner sim.Spawner
	if e.spawner != nil {
		spawner = e.spawner
	}
	return e.simulator.Run(ctx, e.particles, e.cfg.ToRunConfig(), spawner)
}

func (e *Experiment) Params() sim.Params { return e.params }

func (e *Experiment) Particles() *dynamo.Particles { return e.particles }

// Spawner is nil when spawning is disabled.
func (e *Experiment) Spawner() *scene.Spawner { return e.spawner }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}
