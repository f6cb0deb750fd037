// Package dynamo provides the core data types shared by the ballpit kernel.
//
// The kernel works on flat, index-aligned particle arrays rather than on
// entity handles:
//
//   - [Vec]: a 2-D point or vector (gonum's r2.Vec)
//   - [Particles]: parallel position / last-position / acceleration slices
//   - [Force]: additive acceleration contribution, applied before each step
//   - [Metric] and [Observer]: hooks for the orchestration loop
//
// Index i refers to the same particle across every slice for the duration of
// a call. Particle counts only change between ticks, never inside one.
//
// # Example
//
//	p := dynamo.NewParticles(0)
//	p.Append(dynamo.Vec{X: 0.3, Y: 2}, dynamo.Vec{X: 0.3, Y: 2})
//	s, _ := sim.New(sim.DefaultParams())
//	s.Tick(p, 1.0/60)
//
// # Thread Safety
//
// Particles are owned by whoever ticks them. Nothing in this package locks.
package dynamo
