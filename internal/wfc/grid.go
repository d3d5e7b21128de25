package wfc

import "math"

// Cell is a single grid position. A cell with Entropy == 0 is resolved and
// immutable for the remainder of the run; Type is only meaningful then.
// Available holds the current best-known candidate set for an unresolved
// cell and is meaningless once resolved. Entropy is +Inf for a cell with no
// resolved neighbors ("unknown", not "zero candidates").
type Cell struct {
	Index     int
	Type      TileType
	Entropy   float64
	Available []TileType
}

// Resolved reports whether the cell has a fixed, final tile type.
func (c *Cell) Resolved() bool {
	return c.Entropy == 0
}

// Grid is the mutable board of cells being solved, stored row-major:
// index = row*width + col. Neighbor lookups are arithmetic with boundary
// checks; edges have no neighbor, never a wrapped one.
type Grid struct {
	width  int
	height int
	cells  []Cell
}

// NewGrid allocates a grid with every cell unresolved.
func NewGrid(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}
	g := &Grid{width: width, height: height, cells: make([]Cell, width*height)}
	g.Reset()
	return g, nil
}

// Width returns the grid width in cells.
func (g *Grid) Width() int { return g.width }

// Height returns the grid height in cells.
func (g *Grid) Height() int { return g.height }

// Len returns the total cell count.
func (g *Grid) Len() int { return len(g.cells) }

// Cell returns the cell at the given index.
func (g *Grid) Cell(index int) *Cell {
	return &g.cells[index]
}

// InBounds reports whether index addresses a cell.
func (g *Grid) InBounds(index int) bool {
	return index >= 0 && index < len(g.cells)
}

// Neighbor returns the index of the neighbor in the given direction, or
// false if the neighbor would fall across a grid edge.
func (g *Grid) Neighbor(index int, d Direction) (int, bool) {
	row := index / g.width
	col := index % g.width
	switch d {
	case DirUp:
		if row == 0 {
			return 0, false
		}
		return index - g.width, true
	case DirDown:
		if row == g.height-1 {
			return 0, false
		}
		return index + g.width, true
	case DirLeft:
		if col == 0 {
			return 0, false
		}
		return index - 1, true
	case DirRight:
		if col == g.width-1 {
			return 0, false
		}
		return index + 1, true
	default:
		return 0, false
	}
}

// Reset returns every cell to the initial unresolved state, keeping the
// dimensions unchanged.
func (g *Grid) Reset() {
	for i := range g.cells {
		g.cells[i] = Cell{Index: i, Type: TileUnset, Entropy: math.Inf(1)}
	}
}

// Unresolved returns the number of cells without an assigned type.
func (g *Grid) Unresolved() int {
	count := 0
	for i := range g.cells {
		if !g.cells[i].Resolved() {
			count++
		}
	}
	return count
}

// Snapshot returns a deep copy of the cells for diagnostics.
func (g *Grid) Snapshot() []Cell {
	out := make([]Cell, len(g.cells))
	copy(out, g.cells)
	for i := range out {
		if len(g.cells[i].Available) > 0 {
			out[i].Available = append([]TileType(nil), g.cells[i].Available...)
		}
	}
	return out
}
