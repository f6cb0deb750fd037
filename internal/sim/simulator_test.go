package sim_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/integrators"
	"github.com/san-kum/ballpit/internal/sim"
)

var quiet = sim.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

// randomDisk scatters n particles inside radius r, copying every fifth one
// onto its predecessor and putting one at the origin.
func randomDisk(n int, r float64, seed int64) *dynamo.Particles {
	rng := rand.New(rand.NewSource(seed))
	p := dynamo.NewParticles(n)
	for i := 0; i < n; i++ {
		var pos dynamo.Vec
		switch {
		case i == 0:
		case i%5 == 0:
			pos = p.Pos[i-1]
		default:
			a := rng.Float64() * 2 * math.Pi
			d := r * math.Sqrt(rng.Float64())
			pos = dynamo.Vec{X: d * math.Cos(a), Y: d * math.Sin(a)}
		}
		p.Append(pos, pos)
	}
	return p
}

type nanForce struct{}

func (nanForce) Accumulate(p *dynamo.Particles) {
	for i := range p.Acc {
		p.Acc[i].X = math.NaN()
	}
}

type dropSpawner struct {
	calls int
	limit int
}

func (s *dropSpawner) Spawn(p *dynamo.Particles, _ float64) int {
	s.calls++
	if p.Len() >= s.limit {
		return 0
	}
	pos := dynamo.Vec{X: 0.3, Y: 2}
	p.Append(pos, pos)
	return 1
}

type countMetric struct{ n int }

func (m *countMetric) Name() string                       { return "count" }
func (m *countMetric) Observe(*dynamo.Particles, float64) { m.n++ }
func (m *countMetric) Value() float64                     { return float64(m.n) }
func (m *countMetric) Reset()                             { m.n = 0 }

var _ = Describe("Params", func() {
	DescribeTable("Validate",
		func(mutate func(*sim.Params), ok bool) {
			p := sim.DefaultParams()
			mutate(&p)
			err := p.Validate()
			if ok {
				Expect(err).NotTo(HaveOccurred())
			} else {
				Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
			}
		},
		Entry("defaults", func(*sim.Params) {}, true),
		Entry("zero radius", func(p *sim.Params) { p.ParticleRadius = 0 }, false),
		Entry("NaN radius", func(p *sim.Params) { p.ParticleRadius = math.NaN() }, false),
		Entry("container smaller than particle", func(p *sim.Params) { p.ContainerRadius = 0.1 }, false),
		Entry("zero substeps", func(p *sim.Params) { p.Substeps = 0 }, false),
		Entry("infinite gravity", func(p *sim.Params) { p.Gravity.Y = math.Inf(-1) }, false),
		Entry("negative workers", func(p *sim.Params) { p.Workers = -1 }, false),
	)

	It("rejects unknown policies", func() {
		p := sim.DefaultParams()
		p.Policy = "bounce"
		_, err := sim.New(p)
		Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
	})

	It("lets WithPolicy override the named policy", func() {
		s, err := sim.New(sim.DefaultParams(), sim.WithPolicy(integrators.Quench{}))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Policy().Name()).To(Equal("quench"))
	})
})

var _ = Describe("Simulator.Tick", func() {
	var params sim.Params

	BeforeEach(func() {
		params = sim.DefaultParams()
	})

	It("keeps a resting particle still without gravity", func() {
		params.Gravity = dynamo.Vec{}
		s, err := sim.New(params, quiet)
		Expect(err).NotTo(HaveOccurred())

		p := dynamo.NewParticles(1)
		p.Append(dynamo.Vec{X: 1, Y: 1}, dynamo.Vec{X: 1, Y: 1})
		for i := 0; i < 120; i++ {
			s.Tick(p, 1.0/60)
		}
		Expect(p.Pos[0]).To(Equal(dynamo.Vec{X: 1, Y: 1}))
	})

	It("splits the frame into substeps", func() {
		params.Substeps = 4
		s, err := sim.New(params, quiet)
		Expect(err).NotTo(HaveOccurred())

		p := dynamo.NewParticles(1)
		p.Append(dynamo.Vec{}, dynamo.Vec{})
		s.Tick(p, 1.0/60)

		h := 1.0 / 60 / 4
		want := -9.8 * h * h * 4 * 5 / 2
		Expect(p.Pos[0].Y).To(BeNumerically("~", want, 1e-12))
		Expect(p.Acc[0]).To(Equal(dynamo.Vec{}))
	})

	It("preserves length and order", func() {
		s, err := sim.New(params, quiet)
		Expect(err).NotTo(HaveOccurred())

		p := dynamo.NewParticles(0)
		for x := -2.0; x <= 2.0; x += 0.5 {
			for y := -1.0; y <= 1.0; y += 0.5 {
				p.Append(dynamo.Vec{X: x, Y: y}, dynamo.Vec{X: x, Y: y})
			}
		}
		before := append([]dynamo.Vec(nil), p.Pos...)

		s.Tick(p, 1.0/60)
		Expect(p.Len()).To(Equal(len(before)))
		Expect(p.Check()).To(Succeed())
		for i := range before {
			Expect(p.Pos[i].X).To(Equal(before[i].X))
			Expect(p.Pos[i].Y).To(BeNumerically("~", before[i].Y, 1e-2))
		}
	})

	It("never produces NaN from coincident particles", func() {
		for _, policy := range []string{"absorb", "quench"} {
			params.Policy = policy
			params.Substeps = 2
			s, err := sim.New(params, quiet)
			Expect(err).NotTo(HaveOccurred())

			p := randomDisk(150, 2.8, 11)
			for i := 0; i < 300; i++ {
				s.Tick(p, 1.0/60)
				Expect(p.IsValid()).To(BeTrue(), "policy %s tick %d", policy, i)
			}
		}
	})

	It("gives the same result with a parallel resolver", func() {
		serial, err := sim.New(params, quiet)
		Expect(err).NotTo(HaveOccurred())
		params.Workers = 4
		parallel, err := sim.New(params, quiet)
		Expect(err).NotTo(HaveOccurred())

		a := randomDisk(300, 2.8, 5)
		b := a.Clone()
		for i := 0; i < 30; i++ {
			serial.Tick(a, 1.0/60)
			parallel.Tick(b, 1.0/60)
		}
		Expect(b.Pos).To(Equal(a.Pos))
		Expect(b.Last).To(Equal(a.Last))
	})
})

var _ = Describe("Simulator.Run", func() {
	var (
		s   *sim.Simulator
		cfg dynamo.Config
	)

	BeforeEach(func() {
		var err error
		s, err = sim.New(sim.DefaultParams(), quiet)
		Expect(err).NotTo(HaveOccurred())
		cfg = dynamo.DefaultConfig()
		cfg.Duration = 1
	})

	It("samples the initial state and every tick", func() {
		m := &countMetric{}
		s.AddMetric(m)

		res, err := s.Run(context.Background(), randomDisk(10, 2, 1), cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.TicksTaken).To(Equal(60))
		Expect(res.Frames).To(HaveLen(61))
		Expect(res.Times).To(HaveLen(61))
		Expect(res.Series["count"]).To(HaveLen(61))
		Expect(res.Metrics["count"]).To(Equal(61.0))
		Expect(res.Frames[0].Tick).To(Equal(0))
		Expect(res.Frames[60].Time).To(BeNumerically("~", 1.0, 1e-9))
	})

	It("thins frames with SampleEvery", func() {
		cfg.SampleEvery = 10
		res, err := s.Run(context.Background(), randomDisk(10, 2, 1), cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Frames).To(HaveLen(7))
		Expect(res.Frames[1].Tick).To(Equal(10))
	})

	It("spawns only at tick boundaries", func() {
		sp := &dropSpawner{limit: 5}
		p := dynamo.NewParticles(0)
		res, err := s.Run(context.Background(), p, cfg, sp)
		Expect(err).NotTo(HaveOccurred())
		Expect(sp.calls).To(Equal(60))
		Expect(res.Particles).To(Equal(5))
		Expect(res.Frames[0].Pos).To(BeEmpty())
		Expect(res.Frames[1].Pos).To(HaveLen(1))
	})

	It("rejects a non-positive dt", func() {
		cfg.Dt = 0
		_, err := s.Run(context.Background(), randomDisk(1, 1, 1), cfg, nil)
		Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
	})

	It("rejects mismatched particle slices", func() {
		p := randomDisk(3, 1, 1)
		p.Last = p.Last[:2]
		_, err := s.Run(context.Background(), p, cfg, nil)
		Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
	})

	It("stops on cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res, err := s.Run(ctx, randomDisk(3, 1, 1), cfg, nil)
		Expect(errors.Is(err, dynamo.ErrContextCanceled)).To(BeTrue())
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(res.TicksTaken).To(Equal(0))
	})

	It("records invalid state and stops", func() {
		bad, err := sim.New(sim.DefaultParams(), quiet, sim.WithForces(nanForce{}))
		Expect(err).NotTo(HaveOccurred())

		res, err := bad.Run(context.Background(), randomDisk(3, 1, 1), cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.TicksTaken).To(Equal(1))
		Expect(res.Errors).To(HaveLen(1))
		Expect(errors.Is(res.Errors[0], dynamo.ErrInvalidState)).To(BeTrue())

		var simErr *dynamo.SimulationError
		Expect(errors.As(res.Errors[0], &simErr)).To(BeTrue())
		Expect(simErr.Tick).To(Equal(1))
	})
})

var _ = Describe("Ensemble", func() {
	It("runs members independently", func() {
		cfg := dynamo.DefaultConfig()
		cfg.Duration = 0.5

		heavy := sim.DefaultParams()
		heavy.Gravity = dynamo.Vec{Y: -20}

		base := randomDisk(40, 2.5, 9)
		members := []sim.Member{
			{Params: sim.DefaultParams(), Particles: base.Clone(), Config: cfg},
			{Params: sim.DefaultParams(), Particles: base.Clone(), Config: cfg},
			{Params: heavy, Particles: base.Clone(), Config: cfg},
		}

		e := sim.NewEnsemble(3, func() []dynamo.Metric {
			return []dynamo.Metric{&countMetric{}}
		}, quiet)
		results, err := e.Run(context.Background(), members)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))

		Expect(results[0].Frames[len(results[0].Frames)-1].Pos).
			To(Equal(results[1].Frames[len(results[1].Frames)-1].Pos))
		Expect(results[2].Frames[len(results[2].Frames)-1].Pos).
			NotTo(Equal(results[0].Frames[len(results[0].Frames)-1].Pos))
		for _, r := range results {
			Expect(r.Metrics["count"]).To(Equal(31.0))
		}
	})

	It("reports the failing member", func() {
		bad := sim.DefaultParams()
		bad.Substeps = 0
		members := []sim.Member{
			{Params: sim.DefaultParams(), Particles: randomDisk(2, 1, 1), Config: dynamo.DefaultConfig()},
			{Params: bad, Particles: randomDisk(2, 1, 1), Config: dynamo.DefaultConfig()},
		}
		_, err := sim.NewEnsemble(2, nil).Run(context.Background(), members)
		Expect(err).To(MatchError(ContainSubstring("member 1")))
		Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
	})
})
