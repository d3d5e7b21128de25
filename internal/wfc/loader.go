package wfc

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TileDef is the wire shape of one tile type: its name, selection weight and
// the neighbor types permitted in each direction. The same shape is used for
// YAML tileset files and JSON generate requests. An absent weight defaults to
// 1; an explicit weight of 0 is kept and excludes the type from weighted
// picks.
type TileDef struct {
	Name   string   `yaml:"name" json:"name"`
	Weight *int     `yaml:"weight,omitempty" json:"weight,omitempty"`
	Up     []string `yaml:"up" json:"up"`
	Down   []string `yaml:"down" json:"down"`
	Left   []string `yaml:"left" json:"left"`
	Right  []string `yaml:"right" json:"right"`
}

// AnchorDef pre-seeds one cell with a fixed tile before a run.
type AnchorDef struct {
	Index int    `yaml:"index" json:"index"`
	Tile  string `yaml:"tile" json:"tile"`
}

// TilesetFile is the on-disk YAML layout of a tileset.
type TilesetFile struct {
	SeedRandomStart *bool       `yaml:"seed_random_start,omitempty"`
	Tiles           []TileDef   `yaml:"tiles"`
	Anchors         []AnchorDef `yaml:"anchors,omitempty"`
}

// Anchor is a resolved pre-seeded cell.
type Anchor struct {
	Index int
	Type  TileType
}

// Tileset is a loaded, interned tileset ready to apply to a Buffer.
type Tileset struct {
	Palette         *Palette
	Rules           map[TileType]Rule
	Weights         map[TileType]int
	Anchors         []Anchor
	SeedRandomStart bool

	order []TileType // rule declaration order, mirrors the tile list
}

// NewTileset interns the given definitions. Names referenced in rules but
// never declared as tiles are interned too; they carry no rule of their own
// and surface as contradictions at run time, never as silent unset cells.
// Duplicate tile names are rejected.
func NewTileset(tiles []TileDef, anchors []AnchorDef, seedRandomStart bool) (*Tileset, error) {
	if len(tiles) == 0 {
		return nil, fmt.Errorf("wfc: tileset declares no tiles")
	}

	ts := &Tileset{
		Palette:         NewPalette(),
		Rules:           make(map[TileType]Rule),
		Weights:         make(map[TileType]int),
		SeedRandomStart: seedRandomStart,
	}

	seen := make(map[string]bool)
	for _, def := range tiles {
		if def.Name == "" {
			return nil, fmt.Errorf("wfc: tileset contains a tile with no name")
		}
		if seen[def.Name] {
			return nil, fmt.Errorf("wfc: duplicate tile name %q", def.Name)
		}
		seen[def.Name] = true
		ts.Palette.Intern(def.Name)
	}

	for _, def := range tiles {
		id, _ := ts.Palette.Lookup(def.Name)
		ts.Rules[id] = Rule{
			Up:    ts.internAll(def.Up),
			Down:  ts.internAll(def.Down),
			Left:  ts.internAll(def.Left),
			Right: ts.internAll(def.Right),
		}
		ts.order = append(ts.order, id)
		if def.Weight != nil {
			ts.Weights[id] = *def.Weight
		}
	}

	for _, a := range anchors {
		ts.Anchors = append(ts.Anchors, Anchor{Index: a.Index, Type: ts.Palette.Intern(a.Tile)})
	}

	return ts, nil
}

func (ts *Tileset) internAll(names []string) []TileType {
	out := make([]TileType, 0, len(names))
	for _, name := range names {
		out = append(out, ts.Palette.Intern(name))
	}
	return out
}

// Apply registers the tileset's rules, weights and anchors on the buffer.
// Rules are registered in tile declaration order so runs stay deterministic.
func (ts *Tileset) Apply(b *Buffer) error {
	for _, id := range ts.order {
		b.SetRule(id, ts.Rules[id])
	}
	b.SetWeights(ts.Weights)
	if len(ts.Anchors) > 0 {
		tiles := make(map[int]TileType, len(ts.Anchors))
		for _, a := range ts.Anchors {
			tiles[a.Index] = a.Type
		}
		if err := b.SetTiles(tiles, ts.SeedRandomStart); err != nil {
			return err
		}
	}
	return nil
}

// ParseTileset parses a YAML tileset document.
func ParseTileset(data []byte) (*Tileset, error) {
	var file TilesetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tileset YAML: %w", err)
	}
	seedRandomStart := true
	if file.SeedRandomStart != nil {
		seedRandomStart = *file.SeedRandomStart
	}
	return NewTileset(file.Tiles, file.Anchors, seedRandomStart)
}

// LoadTileset reads and parses a YAML tileset file.
func LoadTileset(path string) (*Tileset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tileset file: %w", err)
	}
	return ParseTileset(data)
}
