// Package wfc implements a Wave Function Collapse tile-grid generator: given
// directional adjacency rules and per-type weights, it incrementally resolves
// a grid of cells so that every adjacent pair satisfies the rules, choosing
// the lowest-entropy cell at each step.
package wfc

// TileType is an interned tile-type identifier. Rule and weight tables are
// keyed by TileType rather than by name so lookups run against a closed
// identifier set.
type TileType int

// TileUnset marks a cell that has not been assigned a type yet.
const TileUnset TileType = -1

// Direction is one of the four grid axes.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

// String returns the string representation of a Direction.
func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	default:
		return "unknown"
	}
}

// Opposite returns the opposite direction.
func (d Direction) Opposite() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	case DirLeft:
		return DirRight
	case DirRight:
		return DirLeft
	default:
		return d
	}
}

// AllDirections returns the four axis directions in a fixed order.
func AllDirections() []Direction {
	return []Direction{DirUp, DirDown, DirLeft, DirRight}
}

// Palette interns tile-type names to TileType identifiers. Interning the same
// name twice returns the same identifier.
type Palette struct {
	names []string
	ids   map[string]TileType
}

// NewPalette creates an empty palette.
func NewPalette() *Palette {
	return &Palette{ids: make(map[string]TileType)}
}

// Intern returns the identifier for name, assigning a new one if needed.
func (p *Palette) Intern(name string) TileType {
	if id, ok := p.ids[name]; ok {
		return id
	}
	id := TileType(len(p.names))
	p.names = append(p.names, name)
	p.ids[name] = id
	return id
}

// Lookup returns the identifier for name if it has been interned.
func (p *Palette) Lookup(name string) (TileType, bool) {
	id, ok := p.ids[name]
	return id, ok
}

// Name returns the name for an interned identifier, or "" if unknown.
func (p *Palette) Name(t TileType) string {
	if t < 0 || int(t) >= len(p.names) {
		return ""
	}
	return p.names[t]
}

// Len returns the number of interned names.
func (p *Palette) Len() int {
	return len(p.names)
}

// Names returns the interned names in interning order.
func (p *Palette) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}
