// Package spatial provides the broad-phase index used for collision detection.
package spatial

import (
	"iter"
	"math"

	"github.com/san-kum/ballpit/internal/dynamo"
)

// maxCoord bounds cell coordinates so far-away or non-finite positions
// still map to a valid integer cell.
const maxCoord = 1 << 30

// Cell is an integer grid coordinate: floor(position / cellSize).
type Cell struct {
	X, Y int
}

// Grid buckets particle indices into square cells of side cellSize.
//
// With cellSize equal to the interaction diameter, any two particles closer
// than cellSize lie in the same or adjacent cells, so a 3x3 scan around a
// particle's cell finds every true neighbour. Under uniform density each scan
// touches O(1) particles; when everything piles into one cell it degrades to
// O(N) per query.
//
// A Grid is a snapshot: it must be rebuilt whenever positions move.
type Grid struct {
	cellSize float64
	inv      float64
	pos      []dynamo.Vec
	cellOf   []Cell

	// dense layout over the occupied bounding box (counting sort)
	minX, minY int
	cols, rows int
	start      []int32
	items      []int32

	// sparse layout, used when the bounding box is much larger than N
	buckets map[Cell][]int32
}

// Build indexes positions. The slice is retained as the grid's snapshot and
// must not be modified while the grid is in use.
func Build(positions []dynamo.Vec, cellSize float64) *Grid {
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		cellSize = 1
	}

	n := len(positions)
	g := &Grid{
		cellSize: cellSize,
		inv:      1 / cellSize,
		pos:      positions,
		cellOf:   make([]Cell, n),
	}
	if n == 0 {
		return g
	}

	minX, minY := maxCoord, maxCoord
	maxX, maxY := -maxCoord, -maxCoord
	for i, p := range positions {
		c := g.CellOf(p)
		g.cellOf[i] = c
		minX, maxX = min(minX, c.X), max(maxX, c.X)
		minY, maxY = min(minY, c.Y), max(maxY, c.Y)
	}

	cols := int64(maxX) - int64(minX) + 1
	rows := int64(maxY) - int64(minY) + 1
	if cols*rows > maxDenseCells(n) {
		g.buildSparse()
		return g
	}

	g.minX, g.minY = minX, minY
	g.cols, g.rows = int(cols), int(rows)
	g.buildDense()
	return g
}

func maxDenseCells(n int) int64 {
	return 4*int64(n) + 64
}

func (g *Grid) buildDense() {
	ncell := g.cols * g.rows
	g.start = make([]int32, ncell+1)
	g.items = make([]int32, len(g.cellOf))

	for _, c := range g.cellOf {
		g.start[g.flat(c)+1]++
	}
	for k := 1; k <= ncell; k++ {
		g.start[k] += g.start[k-1]
	}

	fill := make([]int32, ncell)
	copy(fill, g.start[:ncell])
	for i, c := range g.cellOf {
		k := g.flat(c)
		g.items[fill[k]] = int32(i)
		fill[k]++
	}
}

func (g *Grid) buildSparse() {
	g.buckets = make(map[Cell][]int32, len(g.cellOf))
	for i, c := range g.cellOf {
		g.buckets[c] = append(g.buckets[c], int32(i))
	}
}

func (g *Grid) flat(c Cell) int {
	return (c.Y-g.minY)*g.cols + (c.X - g.minX)
}

// CellOf returns the cell containing p. Points on a cell edge belong to the
// cell whose lower edge they lie on; negative coordinates floor downwards.
func (g *Grid) CellOf(p dynamo.Vec) Cell {
	return Cell{X: coord(p.X * g.inv), Y: coord(p.Y * g.inv)}
}

func coord(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Floor(v)
	if v > maxCoord {
		return maxCoord
	}
	if v < -maxCoord {
		return -maxCoord
	}
	return int(v)
}

func (g *Grid) bucket(c Cell) []int32 {
	if g.buckets != nil {
		return g.buckets[c]
	}
	x, y := c.X-g.minX, c.Y-g.minY
	if x < 0 || y < 0 || x >= g.cols || y >= g.rows {
		return nil
	}
	k := y*g.cols + x
	return g.items[g.start[k]:g.start[k+1]]
}

// Len returns the number of indexed particles.
func (g *Grid) Len() int { return len(g.pos) }

// CellSize returns the side length of a cell.
func (g *Grid) CellSize() float64 { return g.cellSize }

// Positions returns the snapshot the grid was built from.
func (g *Grid) Positions() []dynamo.Vec { return g.pos }

// Sparse reports whether the grid fell back to hashed buckets.
func (g *Grid) Sparse() bool { return g.buckets != nil }

// Neighbors yields every particle index in i's cell and the 8 surrounding
// cells, excluding i. Order is unspecified; each index is yielded once.
func (g *Grid) Neighbors(i int) iter.Seq[int] {
	return func(yield func(int) bool) {
		c := g.cellOf[i]
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				for _, j := range g.bucket(Cell{X: c.X + dx, Y: c.Y + dy}) {
					if int(j) == i {
						continue
					}
					if !yield(int(j)) {
						return
					}
				}
			}
		}
	}
}

// CandidatePairs calls fn once for every unordered candidate pair (i < j).
// Returning false from fn stops the enumeration.
func (g *Grid) CandidatePairs(fn func(i, j int) bool) {
	for i := range g.cellOf {
		for j := range g.Neighbors(i) {
			if j <= i {
				continue
			}
			if !fn(i, j) {
				return
			}
		}
	}
}
