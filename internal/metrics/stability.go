package metrics

import (
	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/physics"
)

// Containment is the fraction of samples in which every particle sat inside
// the container, within a tolerance.
type Containment struct {
	name           string
	disk           physics.Disk
	particleRadius float64
	tolerance      float64
	violations     int
	samples        int
}

func NewContainment(containerRadius, particleRadius, tolerance float64) *Containment {
	return &Containment{
		name:           "containment",
		disk:           physics.Disk{Radius: containerRadius},
		particleRadius: particleRadius,
		tolerance:      tolerance,
	}
}

func (c *Containment) Name() string {
	return c.name
}

func (c *Containment) Observe(p *dynamo.Particles, t float64) {
	c.samples++
	for _, pos := range p.Pos {
		if !c.disk.Contains(pos, c.particleRadius, c.tolerance) {
			c.violations++
			break
		}
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
}
