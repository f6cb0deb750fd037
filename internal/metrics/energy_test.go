package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/ballpit/internal/dynamo"
)

func particles(pairs ...[2]dynamo.Vec) *dynamo.Particles {
	p := dynamo.NewParticles(len(pairs))
	for _, pr := range pairs {
		p.Append(pr[0], pr[1])
	}
	return p
}

func TestKinetic(t *testing.T) {
	m := NewKinetic()

	p := particles(
		[2]dynamo.Vec{{X: 1}, {X: 0}},
		[2]dynamo.Vec{{Y: 2}, {Y: 0}},
	)
	m.Observe(p, 0)

	// ½(1² + 2²)
	if math.Abs(m.Value()-2.5) > 1e-12 {
		t.Errorf("expected 2.5, got %f", m.Value())
	}

	m.Observe(particles([2]dynamo.Vec{{}, {}}), 1)
	if m.Value() != 0 {
		t.Errorf("expected latest sample 0, got %f", m.Value())
	}
	if m.Peak() != 2.5 {
		t.Errorf("expected peak 2.5, got %f", m.Peak())
	}
}

func TestKineticReset(t *testing.T) {
	m := NewKinetic()
	m.Observe(particles([2]dynamo.Vec{{X: 1}, {}}), 0)
	if m.Value() == 0 {
		t.Error("expected non-zero energy")
	}
	m.Reset()
	if m.Value() != 0 || m.Peak() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestContainment(t *testing.T) {
	m := NewContainment(3, 0.2, 1e-9)
	if m.Value() != 1 {
		t.Errorf("expected 1 with no samples, got %f", m.Value())
	}

	m.Observe(particles([2]dynamo.Vec{{X: 2.8}, {X: 2.8}}), 0)
	m.Observe(particles([2]dynamo.Vec{{X: 2.9}, {X: 2.9}}), 1)
	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 1 {
		t.Errorf("expected 1 after reset, got %f", m.Value())
	}
}
