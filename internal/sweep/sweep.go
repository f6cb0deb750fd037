package sweep

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/ballpit/internal/config"
)

// Sweep varies one parameter linearly between Min and Max.
type Sweep struct {
	Base      *config.Config
	Param     string
	Min, Max  float64
	Steps     int
	MetricSet string
}

type SweepResult struct {
	ParamValue float64
	Metrics    map[string]float64
	Ticks      int
	Particles  int
	Errors     int
}

func (s *Sweep) Values() []float64 {
	if s.Steps <= 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.Steps-1)
	vals := make([]float64, s.Steps)
	for i := range vals {
		vals[i] = s.Min + float64(i)*step
	}
	return vals
}

func (r *Runner) RunSweep(ctx context.Context, s *Sweep) ([]SweepResult, error) {
	vals := s.Values()
	cfgs := make([]*config.Config, len(vals))
	for i, v := range vals {
		cfg := s.Base.Clone()
		if err := cfg.Set(s.Param, v); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", s.Param, v, err)
		}
		// integer parameters are rounded by Set; report what actually ran
		applied, err := cfg.Get(s.Param)
		if err != nil {
			return nil, err
		}
		vals[i] = applied
		cfgs[i] = cfg
	}

	out, err := r.RunConfigs(ctx, cfgs, s.MetricSet)
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, len(vals))
	for i, res := range out {
		results[i] = SweepResult{
			ParamValue: vals[i],
			Metrics:    res.Metrics,
			Ticks:      res.TicksTaken,
			Particles:  res.Particles,
			Errors:     len(res.Errors),
		}
		r.Logger.Info("sweep point", "param", s.Param, "value", vals[i], "ticks", res.TicksTaken)
	}
	return results, nil
}

// GridSearch tries every combination of parameter values and keeps the one
// that minimises a metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

func (g *GridSearch) combinations() []map[string]float64 {
	combos := []map[string]float64{{}}
	for d, name := range g.paramNames {
		next := make([]map[string]float64, 0, len(combos)*len(g.ranges[d]))
		for _, c := range combos {
			for _, v := range g.ranges[d] {
				nc := make(map[string]float64, len(c)+1)
				for k, x := range c {
					nc[k] = x
				}
				nc[name] = v
				next = append(next, nc)
			}
		}
		combos = next
	}
	return combos
}

func (g *GridSearch) Search(ctx context.Context, r *Runner, base *config.Config, metricSet, metricName string) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("grid search: %d params but %d ranges", len(g.paramNames), len(g.ranges))
	}

	combos := g.combinations()
	cfgs := make([]*config.Config, 0, len(combos))
	kept := make([]map[string]float64, 0, len(combos))
	for _, c := range combos {
		cfg := base.Clone()
		valid := true
		for name, v := range c {
			if err := cfg.Set(name, v); err != nil {
				return nil, 0, err
			}
		}
		if err := cfg.Validate(); err != nil {
			r.Logger.Debug("skipping invalid combination", "params", c, "err", err)
			valid = false
		}
		if valid {
			cfgs = append(cfgs, cfg)
			kept = append(kept, c)
		}
	}

	out, err := r.RunConfigs(ctx, cfgs, metricSet)
	if err != nil {
		return nil, 0, err
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	for i, res := range out {
		val, ok := res.Metrics[metricName]
		if !ok || len(res.Errors) > 0 {
			continue
		}
		if val < best {
			best = val
			bestParams = kept[i]
		}
	}
	if bestParams == nil {
		return nil, best, fmt.Errorf("grid search: no run reported %s", metricName)
	}
	return bestParams, best, nil
}

type TrialResult struct {
	Seed    int64
	Stable  bool
	Metrics map[string]float64
}

// RunTrials repeats base with seeds seed, seed+1, ... and reports which
// runs stayed finite.
func (r *Runner) RunTrials(ctx context.Context, base *config.Config, trials int, metricSet string) ([]TrialResult, error) {
	cfgs := make([]*config.Config, trials)
	for i := range cfgs {
		cfg := base.Clone()
		cfg.Run.Seed = base.Run.Seed + int64(i)
		cfgs[i] = cfg
	}

	out, err := r.RunConfigs(ctx, cfgs, metricSet)
	if err != nil {
		return nil, err
	}

	results := make([]TrialResult, len(out))
	for i, res := range out {
		results[i] = TrialResult{
			Seed:    cfgs[i].Run.Seed,
			Stable:  len(res.Errors) == 0,
			Metrics: res.Metrics,
		}
	}
	return results, nil
}
