// Package integrators advances particle positions in time.
package integrators

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/ballpit/internal/collision"
	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/spatial"
)

// Verlet is a position Verlet integrator with collision resolution folded
// into each step. Velocity is never stored: it is whatever pos - last is, so
// collision and boundary corrections feed into motion on the next step.
type Verlet struct {
	Diameter float64
	Resolver collision.Resolver
	Policy   Policy

	scratch []dynamo.Vec
}

func NewVerlet(diameter float64) *Verlet {
	return &Verlet{Diameter: diameter, Policy: Absorb{}}
}

func (v *Verlet) ensureScratch(n int) {
	if cap(v.scratch) < n {
		v.scratch = make([]dynamo.Vec, n)
	}
	v.scratch = v.scratch[:n]
}

// Step resolves collisions against a snapshot of the current positions, then
// advances every particle by pos += (pos - last) + acc*dt² and clears the
// accumulated acceleration.
func (v *Verlet) Step(p *dynamo.Particles, dt float64) {
	n := p.Len()
	v.ensureScratch(n)
	copy(v.scratch, p.Pos)

	grid := spatial.Build(v.scratch, v.Diameter)
	contacts := v.Resolver.Resolve(p.Pos, grid, v.Diameter)
	if v.Policy != nil {
		v.Policy.AfterCollisions(p, contacts)
	}

	dt2 := dt * dt
	for i := 0; i < n; i++ {
		vel := r2.Sub(p.Pos[i], p.Last[i])
		if p.Hold == nil || !p.Hold[i] {
			p.Last[i] = p.Pos[i]
		}
		p.Pos[i] = r2.Add(p.Pos[i], r2.Add(vel, r2.Scale(dt2, p.Acc[i])))
	}

	p.ClearAcc()
	for i := range p.Hold {
		p.Hold[i] = false
	}
}
