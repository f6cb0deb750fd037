package metrics

import (
	"github.com/san-kum/ballpit/internal/dynamo"
)

// Kinetic tracks ½Σ|pos-last|² with unit mass and velocity measured per
// step. Value is the most recent sample.
type Kinetic struct {
	name    string
	current float64
	peak    float64
	samples int
}

func NewKinetic() *Kinetic {
	return &Kinetic{name: "kinetic"}
}

func (k *Kinetic) Name() string { return k.name }

func (k *Kinetic) Observe(p *dynamo.Particles, t float64) {
	k.current = KineticEnergy(p)
	if k.current > k.peak {
		k.peak = k.current
	}
	k.samples++
}

func (k *Kinetic) Value() float64 { return k.current }

func (k *Kinetic) Peak() float64 { return k.peak }

func (k *Kinetic) Reset() {
	k.current = 0
	k.peak = 0
	k.samples = 0
}

func KineticEnergy(p *dynamo.Particles) float64 {
	e := 0.0
	for i := range p.Pos {
		v := p.Velocity(i)
		e += (v.X*v.X + v.Y*v.Y) / 2
	}
	return e
}
