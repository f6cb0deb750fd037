package dynamo

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"
)

func TestParticles_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		pos   Vec
		last  Vec
		valid bool
	}{
		{"origin", Vec{}, Vec{}, true},
		{"normal", Vec{X: 1, Y: -2}, Vec{X: 1, Y: -2.1}, true},
		{"NaN pos", Vec{X: math.NaN()}, Vec{}, false},
		{"+Inf last", Vec{}, Vec{Y: math.Inf(1)}, false},
		{"-Inf pos", Vec{X: math.Inf(-1)}, Vec{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParticles(1)
			p.Append(tt.pos, tt.last)
			if got := p.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestParticles_AppendRemove(t *testing.T) {
	p := NewParticles(4)
	for i := 0; i < 4; i++ {
		p.Append(Vec{X: float64(i)}, Vec{X: float64(i)})
	}
	p.Acc[3] = Vec{Y: -9.8}

	p.Remove(1)

	if p.Len() != 3 {
		t.Fatalf("expected 3 particles, got %d", p.Len())
	}
	if p.Pos[1].X != 3 || p.Acc[1].Y != -9.8 {
		t.Errorf("swap-remove did not move last particle: pos=%v acc=%v", p.Pos[1], p.Acc[1])
	}
	if err := p.Check(); err != nil {
		t.Errorf("unexpected check error: %v", err)
	}
}

func TestParticles_HoldTracksLength(t *testing.T) {
	p := NewParticles(2)
	p.Hold = []bool{}
	p.Append(Vec{}, Vec{})
	p.Append(Vec{X: 1}, Vec{X: 1})
	if len(p.Hold) != 2 {
		t.Fatalf("hold length = %d, want 2", len(p.Hold))
	}
	p.Remove(0)
	if len(p.Hold) != 1 {
		t.Errorf("hold length = %d, want 1", len(p.Hold))
	}
}

func TestParticles_Resize(t *testing.T) {
	p := NewParticles(2)
	p.Append(Vec{X: 1}, Vec{X: 1})
	p.Hold = []bool{true}

	p.Resize(3)
	if p.Len() != 3 || len(p.Hold) != 3 {
		t.Fatalf("expected 3 particles, got pos=%d hold=%d", p.Len(), len(p.Hold))
	}
	if p.Pos[0].X != 1 || p.Pos[2] != (Vec{}) {
		t.Errorf("unexpected positions after grow: %v", p.Pos)
	}
	if err := p.Check(); err != nil {
		t.Errorf("Check() = %v", err)
	}

	p.Resize(1)
	if p.Len() != 1 || len(p.Last) != 1 || len(p.Acc) != 1 || len(p.Hold) != 1 {
		t.Errorf("expected 1 particle after shrink")
	}
}

func TestParticles_CheckMismatch(t *testing.T) {
	p := &Particles{Pos: make([]Vec, 3), Last: make([]Vec, 2), Acc: make([]Vec, 3)}
	err := p.Check()
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestParticles_CloneIndependent(t *testing.T) {
	p := NewParticles(1)
	p.Append(Vec{X: 1}, Vec{X: 1})
	c := p.Clone()
	c.Pos[0].X = 99
	if p.Pos[0].X == 99 {
		t.Error("Clone shares position storage")
	}
}

func TestParticles_Velocity(t *testing.T) {
	p := NewParticles(1)
	p.Append(Vec{X: 1, Y: 2}, Vec{X: 0.5, Y: 2.5})
	v := p.Velocity(0)
	if v.X != 0.5 || v.Y != -0.5 {
		t.Errorf("Velocity = %v, want {0.5 -0.5}", v)
	}
}

func TestSimError(t *testing.T) {
	err := SimError{Time: 1.5, Tick: 90, Message: "test error"}
	expected := "tick 90 (t=1.5000): test error"
	if err.Error() != expected {
		t.Errorf("SimError.Error() = %q, want %q", err.Error(), expected)
	}
}

func TestSimulationError_Unwrap(t *testing.T) {
	err := &SimulationError{Tick: 3, Wrapped: ErrInvalidState}
	if !errors.Is(err, ErrInvalidState) {
		t.Error("SimulationError does not unwrap to its cause")
	}
}

func TestParallelFor_CoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 7, 64, 1000} {
		var seen int64
		hits := make([]int32, n)
		ParallelFor(n, 8, 4, func(_, start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
				atomic.AddInt64(&seen, 1)
			}
		})
		if int(seen) != n {
			t.Errorf("n=%d: visited %d indices", n, seen)
		}
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, h)
			}
		}
	}
}

func TestChunksMatchesParallelFor(t *testing.T) {
	for _, n := range []int{1, 10, 33, 500} {
		var maxChunk int32 = -1
		ParallelFor(n, 4, 3, func(chunk, _, _ int) {
			for {
				cur := atomic.LoadInt32(&maxChunk)
				if int32(chunk) <= cur || atomic.CompareAndSwapInt32(&maxChunk, cur, int32(chunk)) {
					break
				}
			}
		})
		if got := Chunks(n, 4, 3); got != int(maxChunk)+1 {
			t.Errorf("n=%d: Chunks=%d, ParallelFor used %d", n, got, maxChunk+1)
		}
	}
}
