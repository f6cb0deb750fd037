// Package sweep runs batches of configured simulations: scripted scenarios,
// one-parameter sweeps, grid searches and seed trials.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/ballpit/internal/config"
	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/experiment"
	"github.com/san-kum/ballpit/internal/scene"
	"github.com/san-kum/ballpit/internal/sim"
)

// Scenario is a list of runs described in YAML.
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Runs        []ScenarioRun `yaml:"runs"`
}

type ScenarioRun struct {
	Name      string             `yaml:"name"`
	Preset    string             `yaml:"preset"`
	Set       map[string]float64 `yaml:"set"`
	MetricSet string             `yaml:"metrics"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Runs) == 0 {
		return nil, fmt.Errorf("scenario %s has no runs", path)
	}
	return &scenario, nil
}

// Config resolves the run's preset and overrides onto a default config.
func (r ScenarioRun) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if r.Preset != "" {
		cfg = config.GetPreset(r.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", r.Preset)
		}
	}
	for name, v := range r.Set {
		if err := cfg.Set(name, v); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

// Runner turns configs into ensemble members and runs them.
type Runner struct {
	Registry *experiment.Registry
	Workers  int
	Logger   *slog.Logger
}

func NewRunner(workers int, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{Registry: experiment.NewRegistry(), Workers: workers, Logger: logger}
}

func (r *Runner) member(cfg *config.Config, metricSet string) (sim.Member, error) {
	params := cfg.ToParams()
	if metricSet == "" {
		metricSet = "default"
	}
	ms, err := r.Registry.GetMetrics(metricSet, params, cfg.Run.Dt)
	if err != nil {
		return sim.Member{}, err
	}
	p, err := scene.Build(cfg.Scene, params, cfg.Run.Seed)
	if err != nil {
		return sim.Member{}, err
	}

	m := sim.Member{
		Params:    params,
		Particles: p,
		Config:    cfg.ToRunConfig(),
		Metrics:   ms,
	}
	if cfg.Spawn.Enabled {
		m.Spawner = scene.NewSpawner(cfg.Spawn, cfg.Run.Seed)
	}
	return m, nil
}

// RunConfigs runs every config concurrently and returns results in order.
func (r *Runner) RunConfigs(ctx context.Context, cfgs []*config.Config, metricSet string) ([]*dynamo.Result, error) {
	members := make([]sim.Member, len(cfgs))
	for i, cfg := range cfgs {
		m, err := r.member(cfg, metricSet)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i, err)
		}
		members[i] = m
	}

	ensemble := sim.NewEnsemble(r.Workers, nil, sim.WithLogger(r.Logger))
	return ensemble.Run(ctx, members)
}

// RunScenario executes all runs of a scenario. Runs sharing a metric set
// go through one ensemble together.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(scenario.Runs))

	groups := make(map[string][]int)
	order := make([]string, 0)
	cfgs := make([]*config.Config, len(scenario.Runs))
	for i, run := range scenario.Runs {
		cfg, err := run.Config()
		if err != nil {
			return nil, fmt.Errorf("run %d (%s): %w", i+1, run.Name, err)
		}
		cfgs[i] = cfg
		if _, ok := groups[run.MetricSet]; !ok {
			order = append(order, run.MetricSet)
		}
		groups[run.MetricSet] = append(groups[run.MetricSet], i)
	}

	for _, set := range order {
		idx := groups[set]
		batch := make([]*config.Config, len(idx))
		for k, i := range idx {
			batch[k] = cfgs[i]
		}

		r.Logger.Info("running scenario batch", "scenario", scenario.Name, "runs", len(batch), "metrics", set)
		out, err := r.RunConfigs(ctx, batch, set)
		if err != nil {
			return nil, err
		}
		for k, i := range idx {
			results[i] = out[k]
		}
	}
	return results, nil
}
