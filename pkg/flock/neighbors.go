package flock

import (
	"math"
	"slices"

	"github.com/lao-tseu-is-alive/go-insect-flock/pkg/geometry"
)

// NeighborIndex answers "which agents sit within radius of agent i", excluding
// i itself. Implementations must return the identical set in ascending index
// order for identical inputs, so float accumulation over the result stays
// reproducible. Rebuild is called once per step before any Within query, with
// the pre-step position array.
type NeighborIndex interface {
	Rebuild(pos []geometry.Vector3D)
	Within(i int, radius float64, out []int) []int
}

// ---------------------------------------------------------------------
// Brute force baseline: O(n) per query, O(n²) per step. Fine for the
// target scale of tens to low hundreds of agents and trivially correct.
// ---------------------------------------------------------------------

type bruteForceIndex struct {
	pos []geometry.Vector3D
}

// NewBruteForceIndex returns the exhaustive-scan neighbor index.
func NewBruteForceIndex() NeighborIndex {
	return &bruteForceIndex{}
}

func (b *bruteForceIndex) Rebuild(pos []geometry.Vector3D) {
	b.pos = pos
}

func (b *bruteForceIndex) Within(i int, radius float64, out []int) []int {
	radiusSq := radius * radius
	me := b.pos[i]
	for j := range b.pos {
		if j == i {
			continue
		}
		if me.DistanceSquaredTo(b.pos[j]) <= radiusSq {
			out = append(out, j)
		}
	}
	return out
}

// ---------------------------------------------------------------------
// Spatial hashing: map gridKey -> list of agents in that cell.
// ---------------------------------------------------------------------

type gridKey struct {
	x, y, z int
}

type gridIndex struct {
	cellSize float64
	cells    map[gridKey][]int
	pos      []geometry.Vector3D
}

// NewGridIndex returns a hash-grid neighbor index with the given cell size.
// Queries with radius larger than the cell size widen the scanned block, so
// any radius is answered correctly; cell size is clamped to a minimum of 10
// to avoid tiny grids.
func NewGridIndex(cellSize float64) NeighborIndex {
	return &gridIndex{
		cellSize: math.Max(cellSize, 10.0),
		cells:    make(map[gridKey][]int),
	}
}

func (g *gridIndex) Rebuild(pos []geometry.Vector3D) {
	// Reset slices to length 0, but keep capacity. This reuses the
	// underlying arrays and keeps per-step allocation near zero.
	for k := range g.cells {
		g.cells[k] = g.cells[k][:0]
	}

	g.pos = pos
	for i, p := range pos {
		key := g.keyFor(p)
		g.cells[key] = append(g.cells[key], i)
	}
}

func (g *gridIndex) Within(i int, radius float64, out []int) []int {
	radiusSq := radius * radius
	me := g.pos[i]

	// Scan every cell the query sphere can touch.
	minX := g.cellIndex(me.X - radius)
	maxX := g.cellIndex(me.X + radius)
	minY := g.cellIndex(me.Y - radius)
	maxY := g.cellIndex(me.Y + radius)
	minZ := g.cellIndex(me.Z - radius)
	maxZ := g.cellIndex(me.Z + radius)

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				agents, ok := g.cells[gridKey{x: x, y: y, z: z}]
				if !ok {
					continue
				}
				for _, j := range agents {
					if j == i {
						continue
					}
					if me.DistanceSquaredTo(g.pos[j]) <= radiusSq {
						out = append(out, j)
					}
				}
			}
		}
	}
	// Cells come out of the map in random order; sort so downstream
	// float summation stays deterministic and matches the brute force scan.
	slices.Sort(out)
	return out
}

func (g *gridIndex) keyFor(p geometry.Vector3D) gridKey {
	return gridKey{
		x: g.cellIndex(p.X),
		y: g.cellIndex(p.Y),
		z: g.cellIndex(p.Z),
	}
}

func (g *gridIndex) cellIndex(coord float64) int {
	// Positions can be negative; truncation toward zero would fold the
	// cells around the origin together, so floor instead.
	return int(math.Floor(coord / g.cellSize))
}
