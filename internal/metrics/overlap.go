package metrics

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/spatial"
)

// Overlap reports the worst penetration depth between any two particles
// seen so far.
type Overlap struct {
	name     string
	diameter float64
	max      float64
	last     float64
}

func NewOverlap(diameter float64) *Overlap {
	return &Overlap{name: "overlap", diameter: diameter}
}

func (o *Overlap) Name() string { return o.name }

func (o *Overlap) Observe(p *dynamo.Particles, t float64) {
	o.last = MaxPenetration(p.Pos, o.diameter)
	if o.last > o.max {
		o.max = o.last
	}
}

func (o *Overlap) Value() float64 { return o.max }

// Last is the penetration depth of the most recent sample.
func (o *Overlap) Last() float64 { return o.last }

func (o *Overlap) Reset() {
	o.max = 0
	o.last = 0
}

// MaxPenetration returns how far the deepest overlapping pair in positions
// interpenetrates, or 0 when no pair overlaps.
func MaxPenetration(positions []dynamo.Vec, diameter float64) float64 {
	grid := spatial.Build(positions, diameter)
	worst := 0.0
	grid.CandidatePairs(func(i, j int) bool {
		d := diameter - r2.Norm(r2.Sub(positions[i], positions[j]))
		if d > worst {
			worst = d
		}
		return true
	})
	return worst
}
