// Package collision detects overlapping particle pairs and pushes them apart.
package collision

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/ballpit/internal/dynamo"
	"github.com/san-kum/ballpit/internal/spatial"
)

// FallbackNormal separates coincident particles, where the pair direction is
// undefined.
var FallbackNormal = dynamo.Vec{X: 1, Y: 0}

// Contact is one overlapping pair. Normal points from J towards I and Depth
// is the distance each particle moves along it.
type Contact struct {
	I, J   int
	Normal dynamo.Vec
	Depth  float64
}

// Resolver runs a single Jacobi relaxation pass: every contact is computed
// from the grid's snapshot, then all displacements are applied. The outcome
// does not depend on iteration order, and dense clusters may keep some
// residual overlap for later ticks to work off.
type Resolver struct {
	// Workers > 1 splits detection across goroutines. Output is identical
	// to the serial path.
	Workers  int
	MinChunk int

	contacts []Contact
	chunks   [][]Contact
}

// Resolve detects contacts on index's snapshot and displaces positions in
// place. The returned slice is reused by the next call.
func (r *Resolver) Resolve(positions []dynamo.Vec, index *spatial.Grid, diameter float64) []Contact {
	contacts := r.Detect(index, diameter)
	Apply(positions, contacts)
	return contacts
}

// Detect returns every overlapping pair in index, each unordered pair once.
func (r *Resolver) Detect(index *spatial.Grid, diameter float64) []Contact {
	n := index.Len()
	r.contacts = r.contacts[:0]
	if n < 2 {
		return r.contacts
	}

	if r.Workers <= 1 {
		r.contacts = detectRange(r.contacts, index, diameter, 0, n)
		return r.contacts
	}

	minChunk := r.MinChunk
	if minChunk <= 0 {
		minChunk = 64
	}
	chunks := dynamo.Chunks(n, minChunk, r.Workers)
	if cap(r.chunks) < chunks {
		r.chunks = make([][]Contact, chunks)
	}
	r.chunks = r.chunks[:chunks]

	dynamo.ParallelFor(n, minChunk, r.Workers, func(chunk, start, end int) {
		r.chunks[chunk] = detectRange(r.chunks[chunk][:0], index, diameter, start, end)
	})

	for _, c := range r.chunks {
		r.contacts = append(r.contacts, c...)
	}
	return r.contacts
}

func detectRange(dst []Contact, index *spatial.Grid, diameter float64, start, end int) []Contact {
	snap := index.Positions()
	for i := start; i < end; i++ {
		for j := range index.Neighbors(i) {
			if j <= i {
				continue
			}
			if c, ok := overlap(snap, i, j, diameter); ok {
				dst = append(dst, c)
			}
		}
	}
	return dst
}

func overlap(pos []dynamo.Vec, i, j int, diameter float64) (Contact, bool) {
	diff := r2.Sub(pos[i], pos[j])
	dist := r2.Norm(diff)
	if dist >= diameter {
		return Contact{}, false
	}

	n := FallbackNormal
	if dist > 0 {
		n = r2.Scale(1/dist, diff)
	}
	return Contact{I: i, J: j, Normal: n, Depth: (diameter - dist) / 2}, true
}

// Apply moves both particles of every contact apart symmetrically.
func Apply(positions []dynamo.Vec, contacts []Contact) {
	for _, c := range contacts {
		d := r2.Scale(c.Depth, c.Normal)
		positions[c.I] = r2.Add(positions[c.I], d)
		positions[c.J] = r2.Sub(positions[c.J], d)
	}
}

// Resolve is the one-shot form of (*Resolver).Resolve.
func Resolve(positions []dynamo.Vec, index *spatial.Grid, diameter float64) {
	var r Resolver
	r.Resolve(positions, index, diameter)
}
