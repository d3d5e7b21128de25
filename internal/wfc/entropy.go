package wfc

import "math"

// EntropyEngine computes, for an unresolved cell, the candidate-type set and
// entropy implied by its already-resolved neighbors.
type EntropyEngine struct {
	grid  *Grid
	rules *RuleSet
}

// NewEntropyEngine creates an engine over the given grid and rules.
func NewEntropyEngine(grid *Grid, rules *RuleSet) *EntropyEngine {
	return &EntropyEngine{grid: grid, rules: rules}
}

// Compute returns the entropy and candidate set for the cell at index.
//
// A resolved cell returns (0, {its type}). Each in-bounds resolved neighbor
// contributes its allowed-type list in the opposite direction: a resolved
// neighbor above constrains this cell through its "down" list. Out-of-bounds
// and unresolved neighbors contribute nothing. With no contributions the cell
// is unconstrained: (+Inf, nil). Otherwise the contributions are intersected,
// preserving the element order of the first contributing list; an empty
// intersection is a contradiction.
//
// A resolved neighbor whose type has no declared rule contributes an empty
// list, so rules that reference undeclared types surface here as
// contradictions rather than producing cells with no assignable type.
func (e *EntropyEngine) Compute(index int) (float64, []TileType, error) {
	cell := e.grid.Cell(index)
	if cell.Resolved() {
		return 0, []TileType{cell.Type}, nil
	}

	var contributions [][]TileType
	for _, d := range AllDirections() {
		n, ok := e.grid.Neighbor(index, d)
		if !ok {
			continue
		}
		neighbor := e.grid.Cell(n)
		if !neighbor.Resolved() {
			continue
		}
		allowed, _ := e.rules.Allowed(neighbor.Type, d.Opposite())
		contributions = append(contributions, allowed)
	}

	if len(contributions) == 0 {
		return math.Inf(1), nil, nil
	}

	candidates := intersect(contributions)
	if len(candidates) == 0 {
		return 0, nil, &ContradictionError{Index: index, Snapshot: e.grid.Snapshot()}
	}
	return float64(len(candidates)), candidates, nil
}

// intersect intersects the lists, keeping the order of the first one.
func intersect(lists [][]TileType) []TileType {
	result := append([]TileType(nil), lists[0]...)
	for _, list := range lists[1:] {
		members := make(map[TileType]bool, len(list))
		for _, t := range list {
			members[t] = true
		}
		kept := result[:0]
		for _, t := range result {
			if members[t] {
				kept = append(kept, t)
			}
		}
		result = kept
	}
	return result
}
