package wfc

import "fmt"

// Validate checks local consistency of a collapsed grid: for every resolved
// cell and every in-bounds neighbor in direction d, the neighbor's type must
// appear in the cell's allowed list for d. It fails with ErrNotReady unless
// the buffer is collapsed.
func (b *Buffer) Validate() error {
	if b.state != StateCollapsed {
		return ErrNotReady
	}
	return validateGrid(b.grid, b.rules)
}

func validateGrid(g *Grid, rules *RuleSet) error {
	for i := 0; i < g.Len(); i++ {
		cell := g.Cell(i)
		if !cell.Resolved() {
			continue
		}
		for _, d := range AllDirections() {
			n, ok := g.Neighbor(i, d)
			if !ok {
				continue
			}
			neighbor := g.Cell(n)
			if !neighbor.Resolved() {
				continue
			}
			allowed, _ := rules.Allowed(cell.Type, d)
			if !containsType(allowed, neighbor.Type) {
				return fmt.Errorf("wfc: cell %d (type %d) does not allow type %d %s of it",
					i, cell.Type, neighbor.Type, d)
			}
		}
	}
	return nil
}

func containsType(list []TileType, t TileType) bool {
	for _, item := range list {
		if item == t {
			return true
		}
	}
	return false
}
