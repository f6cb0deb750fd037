package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/ballpit/internal/dynamo"
)

func TestMaxPenetration(t *testing.T) {
	tests := []struct {
		name string
		pos  []dynamo.Vec
		want float64
	}{
		{"empty", nil, 0},
		{"apart", []dynamo.Vec{{}, {X: 1}}, 0},
		{"touching", []dynamo.Vec{{}, {X: 0.4}}, 0},
		{"overlap", []dynamo.Vec{{}, {X: 0.3}, {X: 5}}, 0.1},
		{"coincident", []dynamo.Vec{{X: -1, Y: -1}, {X: -1, Y: -1}}, 0.4},
		{"deepest wins", []dynamo.Vec{{}, {X: 0.35}, {X: 3}, {X: 3.1}}, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxPenetration(tt.pos, 0.4)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestOverlapKeepsMax(t *testing.T) {
	m := NewOverlap(0.4)
	m.Observe(particles([2]dynamo.Vec{{}, {}}, [2]dynamo.Vec{{X: 0.2}, {X: 0.2}}), 0)
	m.Observe(particles([2]dynamo.Vec{{}, {}}, [2]dynamo.Vec{{X: 1}, {X: 1}}), 1)

	if math.Abs(m.Value()-0.2) > 1e-12 {
		t.Errorf("expected max 0.2, got %f", m.Value())
	}
	if m.Last() != 0 {
		t.Errorf("expected last 0, got %f", m.Last())
	}
}
