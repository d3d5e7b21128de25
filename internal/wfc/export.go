package wfc

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ResolvedCell is one entry of the textual grid export: a resolved cell in
// index order. The export is a convenience format, not a load-bearing one.
type ResolvedCell struct {
	Index int    `yaml:"index" json:"index"`
	Tile  string `yaml:"tile" json:"tile"`
}

// ResolvedGridFile is the on-disk layout of an exported grid.
type ResolvedGridFile struct {
	Width  int            `yaml:"width"`
	Height int            `yaml:"height"`
	Cells  []ResolvedCell `yaml:"cells"`
}

// ExportResolved returns the resolved cells in index order, with types named
// through the palette. It fails with ErrNotReady unless the buffer is
// collapsed.
func ExportResolved(b *Buffer, p *Palette) ([]ResolvedCell, error) {
	if b.State() != StateCollapsed {
		return nil, ErrNotReady
	}
	cells := make([]ResolvedCell, 0, b.grid.Len())
	for i := 0; i < b.grid.Len(); i++ {
		cell := b.grid.Cell(i)
		name := p.Name(cell.Type)
		if name == "" {
			return nil, fmt.Errorf("wfc: cell %d has type %d with no palette name: %w", i, cell.Type, ErrCorruptState)
		}
		cells = append(cells, ResolvedCell{Index: i, Tile: name})
	}
	return cells, nil
}

// WriteResolvedYAML writes the exported grid to a YAML file.
func WriteResolvedYAML(path string, width, height int, cells []ResolvedCell) error {
	out := ResolvedGridFile{Width: width, Height: height, Cells: cells}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal resolved grid: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write resolved grid: %w", err)
	}
	return nil
}
