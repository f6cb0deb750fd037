package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/ballpit/internal/dynamo"
)

// Params are the physical constants of one simulation.
type Params struct {
	ParticleRadius  float64    `json:"particle_radius"`
	ContainerRadius float64    `json:"container_radius"`
	Gravity         dynamo.Vec `json:"gravity"`
	Substeps        int        `json:"substeps"`
	Policy          string     `json:"policy"`
	Workers         int        `json:"workers"`
}

func DefaultParams() Params {
	return Params{
		ParticleRadius:  0.2,
		ContainerRadius: 3,
		Gravity:         dynamo.Vec{X: 0, Y: -9.8},
		Substeps:        1,
		Policy:          "absorb",
		Workers:         1,
	}
}

// Diameter is the interaction distance between two particles.
func (p Params) Diameter() float64 { return 2 * p.ParticleRadius }

func (p Params) Validate() error {
	if !(p.ParticleRadius > 0) || math.IsInf(p.ParticleRadius, 0) {
		return fmt.Errorf("%w: particle radius must be positive, got %g", dynamo.ErrParameterBounds, p.ParticleRadius)
	}
	if !(p.ContainerRadius > p.ParticleRadius) || math.IsInf(p.ContainerRadius, 0) {
		return fmt.Errorf("%w: container radius %g must exceed particle radius %g",
			dynamo.ErrParameterBounds, p.ContainerRadius, p.ParticleRadius)
	}
	if p.Substeps < 1 {
		return fmt.Errorf("%w: substeps must be at least 1, got %d", dynamo.ErrParameterBounds, p.Substeps)
	}
	if !finite(p.Gravity.X) || !finite(p.Gravity.Y) {
		return fmt.Errorf("%w: gravity must be finite, got %v", dynamo.ErrParameterBounds, p.Gravity)
	}
	if p.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", dynamo.ErrParameterBounds, p.Workers)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
