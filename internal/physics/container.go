package physics

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/ballpit/internal/dynamo"
)

// clampSlack lets positions within a relative 1e-12 of the limit count as
// inside, so clamping an already clamped position is a no-op.
const clampSlack = 1e-12

// Disk is a circular container centred on the origin.
type Disk struct {
	Radius float64
}

// Constrain pulls p back inside a container of containerRadius so that a
// particle of particleRadius touches the wall at most. Positions already
// inside, including the origin, are returned unchanged.
func Constrain(p dynamo.Vec, containerRadius, particleRadius float64) dynamo.Vec {
	limit := containerRadius - particleRadius
	dist := r2.Norm(p)
	if dist <= limit+limit*clampSlack || dist == 0 {
		return p
	}
	if limit <= 0 {
		return dynamo.Vec{}
	}
	return r2.Scale(limit/dist, p)
}

func (d Disk) Constrain(p dynamo.Vec, particleRadius float64) dynamo.Vec {
	return Constrain(p, d.Radius, particleRadius)
}

// ConstrainAll clamps every current position. Last positions are untouched,
// so a clamp shows up as implied velocity on the next step.
func (d Disk) ConstrainAll(p *dynamo.Particles, particleRadius float64) {
	for i := range p.Pos {
		p.Pos[i] = Constrain(p.Pos[i], d.Radius, particleRadius)
	}
}

// Contains reports whether a particle at p lies inside the container,
// allowing tol of penetration.
func (d Disk) Contains(p dynamo.Vec, particleRadius, tol float64) bool {
	return r2.Norm(p) <= d.Radius-particleRadius+tol
}
