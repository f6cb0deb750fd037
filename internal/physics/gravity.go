package physics

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/ballpit/internal/dynamo"
)

// Gravity is a uniform acceleration applied to every particle.
type Gravity struct {
	G dynamo.Vec
}

func (g Gravity) Accumulate(p *dynamo.Particles) {
	for i := range p.Acc {
		p.Acc[i] = r2.Add(p.Acc[i], g.G)
	}
}

// Forces applies several forces in order.
type Forces []dynamo.Force

func (fs Forces) Accumulate(p *dynamo.Particles) {
	for _, f := range fs {
		f.Accumulate(p)
	}
}
