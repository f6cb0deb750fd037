package metrics

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/ballpit/internal/dynamo"
)

// Speed summarises implied particle speeds, in units per second, for the
// most recent sample. dt must be the integration step that produced the
// implied velocity, i.e. the substep length.
type Speed struct {
	name   string
	dt     float64
	speeds []float64
	mean   float64
	std    float64
}

func NewSpeed(dt float64) *Speed {
	return &Speed{name: "speed", dt: dt}
}

func (s *Speed) Name() string { return s.name }

func (s *Speed) Observe(p *dynamo.Particles, t float64) {
	s.speeds = s.speeds[:0]
	for i := range p.Pos {
		s.speeds = append(s.speeds, r2.Norm(p.Velocity(i))/s.dt)
	}
	if len(s.speeds) == 0 {
		s.mean, s.std = 0, 0
		return
	}
	s.mean, s.std = stat.MeanStdDev(s.speeds, nil)
	if len(s.speeds) == 1 {
		s.std = 0
	}
}

func (s *Speed) Value() float64 { return s.mean }

func (s *Speed) StdDev() float64 { return s.std }

func (s *Speed) Reset() {
	s.speeds = s.speeds[:0]
	s.mean = 0
	s.std = 0
}
