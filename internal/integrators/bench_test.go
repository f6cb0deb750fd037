package integrators

import (
	"math/rand"
	"testing"

	"github.com/san-kum/ballpit/internal/dynamo"
)

func benchParticles(n int) *dynamo.Particles {
	rng := rand.New(rand.NewSource(1))
	p := dynamo.NewParticles(n)
	for i := 0; i < n; i++ {
		pos := dynamo.Vec{X: rng.Float64()*5 - 2.5, Y: rng.Float64()*5 - 2.5}
		p.Append(pos, pos)
	}
	return p
}

func benchmarkVerlet(b *testing.B, n int, policy Policy) {
	base := benchParticles(n)
	integrator := NewVerlet(0.4)
	integrator.Policy = policy

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p := base.Clone()
		for k := range p.Acc {
			p.Acc[k] = dynamo.Vec{Y: -9.8}
		}
		integrator.Step(p, 1.0/60)
	}
}

func BenchmarkVerlet_50(b *testing.B)  { benchmarkVerlet(b, 50, Absorb{}) }
func BenchmarkVerlet_200(b *testing.B) { benchmarkVerlet(b, 200, Absorb{}) }
func BenchmarkVerlet_800(b *testing.B) { benchmarkVerlet(b, 800, Absorb{}) }

func BenchmarkVerletQuench_200(b *testing.B) { benchmarkVerlet(b, 200, Quench{}) }

func BenchmarkVerletParallel_800(b *testing.B) {
	base := benchParticles(800)
	integrator := NewVerlet(0.4)
	integrator.Resolver.Workers = 4

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		integrator.Step(base.Clone(), 1.0/60)
	}
}
