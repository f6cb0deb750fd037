package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/integrators"
	"github.com/san-kum/ballpit/internal/physics"
)

// Spawner adds particles between ticks. It returns how many it added.
type Spawner interface {
	Spawn(p *dynamo.Particles, t float64) int
}

type Simulator struct {
	params     Params
	disk       physics.Disk
	forces     physics.Forces
	integrator *integrators.Verlet
	logger     *slog.Logger
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
}

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

// WithForces adds forces applied after gravity on every substep.
func WithForces(fs ...dynamo.Force) Option {
	return func(s *Simulator) { s.forces = append(s.forces, fs...) }
}

// WithPolicy overrides the policy named in Params.
func WithPolicy(p integrators.Policy) Option {
	return func(s *Simulator) { s.integrator.Policy = p }
}

func New(params Params, opts ...Option) (*Simulator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	policy, err := integrators.PolicyByName(params.Policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrParameterBounds, err)
	}

	integrator := integrators.NewVerlet(params.Diameter())
	integrator.Policy = policy
	integrator.Resolver.Workers = params.Workers

	s := &Simulator{
		params:     params,
		disk:       physics.Disk{Radius: params.ContainerRadius},
		forces:     physics.Forces{physics.Gravity{G: params.Gravity}},
		integrator: integrator,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Simulator) Params() Params { return s.params }

func (s *Simulator) Policy() integrators.Policy { return s.integrator.Policy }

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// SetSubsteps changes the substep count between ticks. Values below 1 are
// ignored.
func (s *Simulator) SetSubsteps(n int) {
	if n >= 1 {
		s.params.Substeps = n
	}
}

// Tick advances p by one external frame. Each substep accumulates forces,
// clamps positions to the container, then integrates with collisions.
// The integrator clears accelerations at the end of each substep.
func (s *Simulator) Tick(p *dynamo.Particles, dtFrame float64) {
	dt := dtFrame / float64(s.params.Substeps)
	for k := 0; k < s.params.Substeps; k++ {
		s.forces.Accumulate(p)
		s.disk.ConstrainAll(p, s.params.ParticleRadius)
		s.integrator.Step(p, dt)
	}
}

// Run drives p for cfg.Duration seconds of fixed ticks, spawning at tick
// boundaries when spawner is non-nil.
func (s *Simulator) Run(ctx context.Context, p *dynamo.Particles, cfg dynamo.Config, spawner Spawner) (*dynamo.Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if err := p.Check(); err != nil {
		return nil, err
	}

	ticks := int(cfg.Duration / cfg.Dt)
	every := cfg.SampleEvery
	if every < 1 {
		every = 1
	}

	result := &dynamo.Result{
		Frames:  make([]dynamo.Frame, 0, ticks/every+1),
		Times:   make([]float64, 0, ticks/every+1),
		Metrics: make(map[string]float64),
		Series:  make(map[string][]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	s.logger.Debug("run started",
		"ticks", ticks,
		"dt", cfg.Dt,
		"particles", p.Len(),
		"substeps", s.params.Substeps,
		"policy", s.integrator.Policy.Name(),
	)

	t := 0.0
	s.observe(p, t)
	s.sample(result, p, 0, t)

	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			result.Particles = p.Len()
			s.collect(result)
			return result, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		if spawner != nil {
			spawner.Spawn(p, t)
		}

		s.Tick(p, cfg.Dt)
		t += cfg.Dt
		result.TicksTaken++

		if cfg.ValidateState && !p.IsValid() {
			err := dynamo.SimError{Time: t, Tick: i + 1, Message: "invalid state (NaN/Inf)"}
			s.logger.Warn("invalid state", "tick", i+1, "time", t)
			result.Errors = append(result.Errors, &dynamo.SimulationError{
				Tick:    i + 1,
				Time:    t,
				Wrapped: fmt.Errorf("%w: %s", dynamo.ErrInvalidState, err),
			})
			break
		}

		s.observe(p, t)
		if (i+1)%every == 0 {
			s.sample(result, p, i+1, t)
		}
	}

	result.Particles = p.Len()
	s.collect(result)

	s.logger.Debug("run finished",
		"ticks", result.TicksTaken,
		"particles", result.Particles,
		"errors", len(result.Errors),
	)
	return result, nil
}

func (s *Simulator) observe(p *dynamo.Particles, t float64) {
	for _, m := range s.metrics {
		m.Observe(p, t)
	}
	for _, o := range s.observers {
		o.OnTick(p, t)
	}
}

func (s *Simulator) sample(result *dynamo.Result, p *dynamo.Particles, tick int, t float64) {
	result.Frames = append(result.Frames, dynamo.Frame{
		Tick: tick,
		Time: t,
		Pos:  append([]dynamo.Vec(nil), p.Pos...),
	})
	result.Times = append(result.Times, t)
	for _, m := range s.metrics {
		result.Series[m.Name()] = append(result.Series[m.Name()], m.Value())
	}
}

func (s *Simulator) collect(result *dynamo.Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(cfg dynamo.Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", dynamo.ErrParameterBounds, cfg.Dt)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %f", dynamo.ErrParameterBounds, cfg.Duration)
	}
	return nil
}
