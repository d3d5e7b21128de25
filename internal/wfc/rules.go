package wfc

import "sort"

// Rule lists, per direction, the tile types permitted as the neighbor in that
// direction.
type Rule struct {
	Up    []TileType
	Down  []TileType
	Left  []TileType
	Right []TileType
}

// Allowed returns the list for the given direction.
func (r Rule) Allowed(d Direction) []TileType {
	switch d {
	case DirUp:
		return r.Up
	case DirDown:
		return r.Down
	case DirLeft:
		return r.Left
	case DirRight:
		return r.Right
	default:
		return nil
	}
}

// RuleSet maps tile types to their directional adjacency rules.
//
// Rules are directional and taken exactly as supplied: no symmetric inference
// is performed and no validation that referenced neighbor types exist. If A
// allows B to its right but B never declares A to its left, that asymmetry
// stands and behaves as stated during propagation. Violations surface later
// as contradictions.
type RuleSet struct {
	rules map[TileType]Rule
	order []TileType // declaration order, for deterministic enumeration
}

// NewRuleSet creates an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{rules: make(map[TileType]Rule)}
}

// Set registers or replaces the rule for a tile type.
func (rs *RuleSet) Set(t TileType, r Rule) {
	if _, exists := rs.rules[t]; !exists {
		rs.order = append(rs.order, t)
	}
	rs.rules[t] = r
}

// SetAll registers rules in bulk. Types are added in ascending identifier
// order so enumeration stays deterministic regardless of map iteration.
func (rs *RuleSet) SetAll(rules map[TileType]Rule) {
	keys := make([]TileType, 0, len(rules))
	for t := range rules {
		keys = append(keys, t)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, t := range keys {
		rs.Set(t, rules[t])
	}
}

// Reset removes all rules.
func (rs *RuleSet) Reset() {
	rs.rules = make(map[TileType]Rule)
	rs.order = nil
}

// Allowed returns the neighbor list for the type in the given direction.
// The second result is false if no rule is declared for the type.
func (rs *RuleSet) Allowed(t TileType, d Direction) ([]TileType, bool) {
	r, ok := rs.rules[t]
	if !ok {
		return nil, false
	}
	return r.Allowed(d), true
}

// Types returns the declared tile types in declaration order.
func (rs *RuleSet) Types() []TileType {
	out := make([]TileType, len(rs.order))
	copy(out, rs.order)
	return out
}

// Len returns the number of declared rules.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}
