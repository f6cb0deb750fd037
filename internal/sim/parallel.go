package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/ballpit/internal/dynamo"
)

// Member is one independent simulation in an ensemble. Each member owns
// its particles and spawner.
type Member struct {
	Params    Params
	Particles *dynamo.Particles
	Spawner   Spawner
	Config    dynamo.Config
	Metrics   []dynamo.Metric
}

// Ensemble runs members concurrently, each on its own Simulator.
type Ensemble struct {
	workers int
	metrics func() []dynamo.Metric
	opts    []Option
}

// NewEnsemble builds an ensemble running at most workers members at once.
// metrics, when non-nil, is called once per member so no metric state is
// shared between goroutines.
func NewEnsemble(workers int, metrics func() []dynamo.Metric, opts ...Option) *Ensemble {
	return &Ensemble{workers: workers, metrics: metrics, opts: opts}
}

func (e *Ensemble) Run(ctx context.Context, members []Member) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(members))
	errs := make([]error, len(members))

	dynamo.ParallelFor(len(members), 1, e.workers, func(_, start, end int) {
		for idx := start; idx < end; idx++ {
			results[idx], errs[idx] = e.runMember(ctx, members[idx])
		}
	})

	for i, err := range errs {
		if err != nil {
			return results, fmt.Errorf("member %d: %w", i, err)
		}
	}
	return results, nil
}

func (e *Ensemble) runMember(ctx context.Context, m Member) (*dynamo.Result, error) {
	s, err := New(m.Params, e.opts...)
	if err != nil {
		return nil, err
	}
	for _, metric := range m.Metrics {
		s.AddMetric(metric)
	}
	if e.metrics != nil {
		for _, metric := range e.metrics() {
			s.AddMetric(metric)
		}
	}
	return s.Run(ctx, m.Particles, m.Config, m.Spawner)
}
