// Package systems provides the spatial and contact math the world steps with.
package systems

import (
	"github.com/mlange-42/ark/ecs"
)

// Offset is a cell offset within a field of view.
type Offset struct {
	DI, DJ int
}

// Grid is a uniform partition of the square world holding one entity kind.
// Cell (i, j) lives at index i*N + j. The backing slice has (N+1)^2 cells so
// positions exactly on the far border still have a bucket.
type Grid struct {
	n        int
	cellSize float32
	cells    [][]ecs.Entity
}

// NewGrid creates a grid of n cells per side with the given cell size.
func NewGrid(n int, cellSize float32) *Grid {
	cells := make([][]ecs.Entity, (n+1)*(n+1))
	for i := range cells {
		cells[i] = make([]ecs.Entity, 0, 4)
	}
	return &Grid{n: n, cellSize: cellSize, cells: cells}
}

// N returns the number of cells per side.
func (g *Grid) N() int { return g.n }

// CellSize returns the side length of a cell.
func (g *Grid) CellSize() float32 { return g.cellSize }

// CellOf returns the cell coordinates containing (x, y).
func (g *Grid) CellOf(x, y float32) (i, j int) {
	return floorDiv(x, g.cellSize), floorDiv(y, g.cellSize)
}

// Index flattens cell coordinates.
func (g *Grid) Index(i, j int) int {
	return i*g.n + j
}

// IndexOf returns the flat cell index for a position, clamped into the grid.
func (g *Grid) IndexOf(x, y float32) int {
	i, j := g.CellOf(x, y)
	return g.Index(g.clampAxis(i), g.clampAxis(j))
}

func (g *Grid) clampAxis(i int) int {
	if i < 0 {
		return 0
	}
	if i > g.n {
		return g.n
	}
	return i
}

// Insert appends e to the cell list at idx.
func (g *Grid) Insert(e ecs.Entity, idx int) {
	g.cells[idx] = append(g.cells[idx], e)
}

// Remove deletes e from the cell list at idx, keeping the order of the rest.
// Returns false if e was not in that cell.
func (g *Grid) Remove(e ecs.Entity, idx int) bool {
	list := g.cells[idx]
	for k, other := range list {
		if other == e {
			copy(list[k:], list[k+1:])
			g.cells[idx] = list[:len(list)-1]
			return true
		}
	}
	return false
}

// Move re-buckets e from one cell to another.
func (g *Grid) Move(e ecs.Entity, from, to int) {
	if from == to {
		return
	}
	g.Remove(e, from)
	g.Insert(e, to)
}

// At returns the entities in a cell. The slice is owned by the grid.
func (g *Grid) At(idx int) []ecs.Entity {
	return g.cells[idx]
}

// Len returns the number of cell lists, (N+1)^2.
func (g *Grid) Len() int { return len(g.cells) }

// Count returns the total number of bucketed entities.
func (g *Grid) Count() int {
	n := 0
	for _, c := range g.cells {
		n += len(c)
	}
	return n
}

// Clear empties every cell.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// NeighbourCells appends the flat indices of cells at (i, j) + offset for every
// offset. Neighbours with either coordinate outside [0, N) are skipped.
func (g *Grid) NeighbourCells(dst []int, i, j int, offsets []Offset) []int {
	for _, o := range offsets {
		ni, nj := i+o.DI, j+o.DJ
		if ni < 0 || ni >= g.n || nj < 0 || nj >= g.n {
			continue
		}
		dst = append(dst, g.Index(ni, nj))
	}
	return dst
}

// FOVOffsets returns every offset in [-r, r]^2 within the disc di^2+dj^2 <= r^2.
func FOVOffsets(r int) []Offset {
	out := make([]Offset, 0, (2*r+1)*(2*r+1))
	for di := -r; di <= r; di++ {
		for dj := -r; dj <= r; dj++ {
			if di*di+dj*dj <= r*r {
				out = append(out, Offset{DI: di, DJ: dj})
			}
		}
	}
	return out
}
