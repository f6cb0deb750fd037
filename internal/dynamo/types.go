package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vec is a point or displacement in the simulation plane.
type Vec = r2.Vec

// Particles holds the per-particle state as parallel slices.
type Particles struct {
	Pos  []Vec
	Last []Vec
	Acc  []Vec

	// Hold marks particles whose Last must not be re-synced by the next
	// integration step. Nil means no particle is held.
	Hold []bool
}

func NewParticles(capacity int) *Particles {
	return &Particles{
		Pos:  make([]Vec, 0, capacity),
		Last: make([]Vec, 0, capacity),
		Acc:  make([]Vec, 0, capacity),
	}
}

func (p *Particles) Len() int { return len(p.Pos) }

// Append adds a particle at pos whose previous position is last.
// Passing pos twice spawns it at rest.
func (p *Particles) Append(pos, last Vec) int {
	p.Pos = append(p.Pos, pos)
	p.Last = append(p.Last, last)
	p.Acc = append(p.Acc, Vec{})
	if p.Hold != nil {
		p.Hold = append(p.Hold, false)
	}
	return len(p.Pos) - 1
}

// Remove deletes particle i by moving the last particle into its slot.
// The caller is responsible for updating any identity mapping.
func (p *Particles) Remove(i int) {
	last := len(p.Pos) - 1
	p.Pos[i] = p.Pos[last]
	p.Last[i] = p.Last[last]
	p.Acc[i] = p.Acc[last]
	p.Pos = p.Pos[:last]
	p.Last = p.Last[:last]
	p.Acc = p.Acc[:last]
	if p.Hold != nil {
		p.Hold[i] = p.Hold[last]
		p.Hold = p.Hold[:last]
	}
}

// Resize truncates or zero-extends every slice to n particles.
func (p *Particles) Resize(n int) {
	p.Pos = resize(p.Pos, n)
	p.Last = resize(p.Last, n)
	p.Acc = resize(p.Acc, n)
	if p.Hold != nil {
		for len(p.Hold) < n {
			p.Hold = append(p.Hold, false)
		}
		p.Hold = p.Hold[:n]
	}
}

func resize(vs []Vec, n int) []Vec {
	if n <= len(vs) {
		return vs[:n]
	}
	return append(vs, make([]Vec, n-len(vs))...)
}

func (p *Particles) Clone() *Particles {
	c := &Particles{
		Pos:  append([]Vec(nil), p.Pos...),
		Last: append([]Vec(nil), p.Last...),
		Acc:  append([]Vec(nil), p.Acc...),
	}
	if p.Hold != nil {
		c.Hold = append([]bool(nil), p.Hold...)
	}
	return c
}

func (p *Particles) ClearAcc() {
	for i := range p.Acc {
		p.Acc[i] = Vec{}
	}
}

// Velocity returns the implied per-step velocity of particle i.
func (p *Particles) Velocity(i int) Vec {
	return r2.Sub(p.Pos[i], p.Last[i])
}

// Check reports ErrDimensionMismatch when the slices disagree in length.
func (p *Particles) Check() error {
	n := len(p.Pos)
	if len(p.Last) != n || len(p.Acc) != n || (p.Hold != nil && len(p.Hold) != n) {
		return fmt.Errorf("%w: pos=%d last=%d acc=%d hold=%d",
			ErrDimensionMismatch, n, len(p.Last), len(p.Acc), len(p.Hold))
	}
	return nil
}

func (p *Particles) IsValid() bool {
	return finite(p.Pos) && finite(p.Last) && finite(p.Acc)
}

func finite(vs []Vec) bool {
	for _, v := range vs {
		if math.IsNaN(v.X) || math.IsInf(v.X, 0) || math.IsNaN(v.Y) || math.IsInf(v.Y, 0) {
			return false
		}
	}
	return true
}

// Force adds acceleration contributions into p.Acc.
type Force interface {
	Accumulate(p *Particles)
}

type Metric interface {
	Name() string
	Observe(p *Particles, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnTick(p *Particles, t float64)
}

// Config describes one run of the host loop.
type Config struct {
	Dt            float64
	Duration      float64
	Seed          int64
	SampleEvery   int
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            1.0 / 60,
		Duration:      10.0,
		SampleEvery:   1,
		ValidateState: true,
	}
}

// Frame is a sampled copy of every particle position.
type Frame struct {
	Tick int
	Time float64
	Pos  []Vec
}

type Result struct {
	Frames     []Frame
	Times      []float64
	Metrics    map[string]float64
	Series     map[string][]float64
	TicksTaken int
	Particles  int
	Errors     []error
}

type SimError struct {
	Time    float64
	Tick    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("tick %d (t=%.4f): %s", e.Tick, e.Time, e.Message)
}
