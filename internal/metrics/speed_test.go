package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/ballpit/internal/dynamo"
)

func TestSpeed(t *testing.T) {
	m := NewSpeed(0.5)
	p := particles(
		[2]dynamo.Vec{{X: 1}, {}},
		[2]dynamo.Vec{{Y: 3}, {}},
	)
	m.Observe(p, 0)

	// speeds 2 and 6 per second
	if math.Abs(m.Value()-4) > 1e-12 {
		t.Errorf("expected mean 4, got %f", m.Value())
	}
	if math.Abs(m.StdDev()-math.Sqrt(8)) > 1e-12 {
		t.Errorf("expected stddev sqrt(8), got %f", m.StdDev())
	}
}

func TestSpeedDegenerate(t *testing.T) {
	m := NewSpeed(1)
	m.Observe(dynamo.NewParticles(0), 0)
	if m.Value() != 0 || m.StdDev() != 0 {
		t.Error("expected zeros for no particles")
	}

	m.Observe(particles([2]dynamo.Vec{{X: 1}, {}}), 0)
	if m.Value() != 1 || m.StdDev() != 0 {
		t.Errorf("expected 1±0, got %f±%f", m.Value(), m.StdDev())
	}
}
