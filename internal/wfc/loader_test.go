package wfc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

const checkerboardYAML = `
tiles:
  - name: black
    weight: 2
    up: [white]
    down: [white]
    left: [white]
    right: [white]
  - name: white
    up: [black]
    down: [black]
    left: [black]
    right: [black]
`

func TestParseTileset(t *testing.T) {
	ts, err := ParseTileset([]byte(checkerboardYAML))
	if err != nil {
		t.Fatalf("ParseTileset: %v", err)
	}

	if ts.Palette.Len() != 2 {
		t.Fatalf("palette has %d names, want 2", ts.Palette.Len())
	}
	black, ok := ts.Palette.Lookup("black")
	if !ok {
		t.Fatal("palette is missing tile black")
	}
	white, ok := ts.Palette.Lookup("white")
	if !ok {
		t.Fatal("palette is missing tile white")
	}

	rule, ok := ts.Rules[black]
	if !ok {
		t.Fatal("no rule for tile black")
	}
	if len(rule.Up) != 1 || rule.Up[0] != white {
		t.Errorf("black up rule = %v, want [%d]", rule.Up, white)
	}

	if w := ts.Weights[black]; w != 2 {
		t.Errorf("black weight = %d, want 2", w)
	}
	if _, ok := ts.Weights[white]; ok {
		t.Error("white has an explicit weight, want default (absent)")
	}

	if !ts.SeedRandomStart {
		t.Error("SeedRandomStart = false, want default true")
	}
}

func TestParseTilesetExplicitZeroWeight(t *testing.T) {
	// weight: 0 is not the same as no weight: it is kept and excludes the
	// type from weighted picks.
	doc := `
tiles:
  - name: never
    weight: 0
    up: [never]
    down: [never]
    left: [never]
    right: [never]
`
	ts, err := ParseTileset([]byte(doc))
	if err != nil {
		t.Fatalf("ParseTileset: %v", err)
	}
	never, _ := ts.Palette.Lookup("never")
	w, ok := ts.Weights[never]
	if !ok {
		t.Fatal("explicit zero weight was dropped, want it stored")
	}
	if w != 0 {
		t.Errorf("weight = %d, want 0", w)
	}
}

func TestParseTilesetSeedRandomStartDisabled(t *testing.T) {
	doc := "seed_random_start: false\n" + checkerboardYAML
	ts, err := ParseTileset([]byte(doc))
	if err != nil {
		t.Fatalf("ParseTileset: %v", err)
	}
	if ts.SeedRandomStart {
		t.Error("SeedRandomStart = true, want false")
	}
}

func TestParseTilesetAnchors(t *testing.T) {
	doc := checkerboardYAML + `
anchors:
  - index: 0
    tile: white
  - index: 3
    tile: black
`
	ts, err := ParseTileset([]byte(doc))
	if err != nil {
		t.Fatalf("ParseTileset: %v", err)
	}
	if len(ts.Anchors) != 2 {
		t.Fatalf("got %d anchors, want 2", len(ts.Anchors))
	}
	white, _ := ts.Palette.Lookup("white")
	if ts.Anchors[0].Index != 0 || ts.Anchors[0].Type != white {
		t.Errorf("anchor 0 = %+v, want index 0 tile white", ts.Anchors[0])
	}
}

func TestNewTilesetRejectsBadInput(t *testing.T) {
	if _, err := NewTileset(nil, nil, true); err == nil {
		t.Error("NewTileset accepted an empty tile list")
	}
	if _, err := NewTileset([]TileDef{{Name: ""}}, nil, true); err == nil {
		t.Error("NewTileset accepted a tile with no name")
	}
	dup := []TileDef{{Name: "a"}, {Name: "a"}}
	if _, err := NewTileset(dup, nil, true); err == nil {
		t.Error("NewTileset accepted duplicate tile names")
	}
}

func TestNewTilesetInternsUndeclaredNeighbors(t *testing.T) {
	// "ghost" appears only inside a rule. It gets a palette id but no rule,
	// so it can be referenced and will contradict at run time.
	tiles := []TileDef{{Name: "a", Right: []string{"ghost"}}}
	ts, err := NewTileset(tiles, nil, true)
	if err != nil {
		t.Fatalf("NewTileset: %v", err)
	}
	ghost, ok := ts.Palette.Lookup("ghost")
	if !ok {
		t.Fatal("rule-referenced name ghost was not interned")
	}
	if _, ok := ts.Rules[ghost]; ok {
		t.Error("ghost has a rule despite never being declared as a tile")
	}
}

func TestTilesetApply(t *testing.T) {
	doc := checkerboardYAML + `
anchors:
  - index: 0
    tile: black
`
	ts, err := ParseTileset([]byte(doc))
	if err != nil {
		t.Fatalf("ParseTileset: %v", err)
	}

	b, err := NewBuffer(Config{Width: 2, Height: 2, Seed: 9})
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	if err := ts.Apply(b); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if b.State() != StateReady {
		t.Fatalf("state after Apply = %s, want ready", b.State())
	}

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	black, _ := ts.Palette.Lookup("black")
	cell, err := b.ResolvedTile(0)
	if err != nil {
		t.Fatalf("ResolvedTile: %v", err)
	}
	if cell.Type != black {
		t.Errorf("anchored cell 0 resolved to %d, want black (%d)", cell.Type, black)
	}
}

func TestLoadTileset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tileset.yaml")
	if err := os.WriteFile(path, []byte(checkerboardYAML), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	ts, err := LoadTileset(path)
	if err != nil {
		t.Fatalf("LoadTileset: %v", err)
	}
	if ts.Palette.Len() != 2 {
		t.Errorf("palette has %d names, want 2", ts.Palette.Len())
	}

	if _, err := LoadTileset(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadTileset succeeded on a missing file")
	}
}

func TestExportResolved(t *testing.T) {
	ts, err := ParseTileset([]byte(checkerboardYAML))
	if err != nil {
		t.Fatalf("ParseTileset: %v", err)
	}
	b, err := NewBuffer(Config{Width: 2, Height: 2, Seed: 1})
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	if err := ts.Apply(b); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if _, err := ExportResolved(b, ts.Palette); !errors.Is(err, ErrNotReady) {
		t.Errorf("ExportResolved before collapse = %v, want ErrNotReady", err)
	}

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	cells, err := ExportResolved(b, ts.Palette)
	if err != nil {
		t.Fatalf("ExportResolved: %v", err)
	}
	if len(cells) != 4 {
		t.Fatalf("exported %d cells, want 4", len(cells))
	}
	for i, c := range cells {
		if c.Index != i {
			t.Errorf("cells[%d].Index = %d, want index order", i, c.Index)
		}
		if c.Tile != "black" && c.Tile != "white" {
			t.Errorf("cells[%d].Tile = %q, want a palette name", i, c.Tile)
		}
	}
}

func TestWriteResolvedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cells := []ResolvedCell{
		{Index: 0, Tile: "black"},
		{Index: 1, Tile: "white"},
	}
	if err := WriteResolvedYAML(path, 2, 1, cells); err != nil {
		t.Fatalf("WriteResolvedYAML: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	var file ResolvedGridFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	if file.Width != 2 || file.Height != 1 {
		t.Errorf("round-tripped size = %dx%d, want 2x1", file.Width, file.Height)
	}
	if len(file.Cells) != 2 || file.Cells[1].Tile != "white" {
		t.Errorf("round-tripped cells = %+v", file.Cells)
	}
}
