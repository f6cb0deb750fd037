package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/integrators"
	"github.com/san-kum/ballpit/internal/metrics"
	"github.com/san-kum/ballpit/internal/scene"
	"github.com/san-kum/ballpit/internal/sim"
)

// MetricSet builds fresh metric instances for one run.
type MetricSet func(params sim.Params, dt float64) []dynamo.Metric

type Registry struct {
	layouts    map[string]scene.Layout
	policies   map[string]func() integrators.Policy
	metricSets map[string]MetricSet
}

func NewRegistry() *Registry {
	r := &Registry{
		layouts:    make(map[string]scene.Layout),
		policies:   make(map[string]func() integrators.Policy),
		metricSets: make(map[string]MetricSet),
	}

	for _, name := range scene.LayoutNames() {
		l, _ := scene.LayoutByName(name)
		r.layouts[name] = l
	}

	r.policies["absorb"] = func() integrators.Policy { return integrators.Absorb{} }
	r.policies["quench"] = func() integrators.Policy { return integrators.Quench{} }

	r.metricSets["none"] = func(sim.Params, float64) []dynamo.Metric { return nil }
	r.metricSets["energy"] = func(sim.Params, float64) []dynamo.Metric {
		return []dynamo.Metric{metrics.NewKinetic()}
	}
	// Implied velocity spans one substep, so speed is measured against the
	// substep length.
	r.metricSets["default"] = func(p sim.Params, dt float64) []dynamo.Metric {
		return []dynamo.Metric{
			metrics.NewKinetic(),
			metrics.NewContainment(p.ContainerRadius, p.ParticleRadius, 1e-9),
			metrics.NewOverlap(p.Diameter()),
			metrics.NewSpeed(dt / float64(max(p.Substeps, 1))),
		}
	}

	return r
}

func (r *Registry) GetLayout(name string) (scene.Layout, error) {
	l, ok := r.layouts[name]
	if !ok {
		return nil, fmt.Errorf("unknown layout: %s", name)
	}
	return l, nil
}

func (r *Registry) GetPolicy(name string) (integrators.Policy, error) {
	fn, ok := r.policies[name]
	if !ok {
		return nil, fmt.Errorf("unknown policy: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetMetrics(name string, params sim.Params, dt float64) ([]dynamo.Metric, error) {
	fn, ok := r.metricSets[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric set: %s", name)
	}
	return fn(params, dt), nil
}

func (r *Registry) ListLayouts() []string    { return sortedKeys(r.layouts) }
func (r *Registry) ListPolicies() []string   { return sortedKeys(r.policies) }
func (r *Registry) ListMetricSets() []string { return sortedKeys(r.metricSets) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
