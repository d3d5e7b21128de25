package wfc

import (
	"context"
	"fmt"
	"sort"

	"github.com/tilewright/wavegrid/internal/rng"
)

// BufferState tracks where a Buffer is in its lifecycle.
type BufferState int

const (
	// StateUnknown means the tile array is empty or no rules are registered.
	StateUnknown BufferState = iota
	// StateReady means tiles exist and at least one rule is registered.
	StateReady
	// StateCollapsing means a run is in progress.
	StateCollapsing
	// StateCollapsed is the terminal success state; results are readable.
	StateCollapsed
)

// String returns a human-readable state name.
func (s BufferState) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateReady:
		return "ready"
	case StateCollapsing:
		return "collapsing"
	case StateCollapsed:
		return "collapsed"
	default:
		return "invalid"
	}
}

// Config holds construction parameters for a Buffer. A Seed of 0 selects a
// time-based seed, making runs deterministic once started but unpredictable
// run to run; the fixed seed value 0 itself is therefore not selectable.
type Config struct {
	Width  int
	Height int
	Seed   int64
}

// StepResult describes the outcome of a single step.
type StepResult struct {
	Index int      // the cell resolved by this step
	Type  TileType // the type assigned to it
	Done  bool     // true once the grid is fully resolved
}

// Buffer drives the collapse over one grid. It owns its grid and its random
// source exclusively; all randomness flows through that one source, so a
// fixed seed and fixed configuration reproduce the same grid. A Buffer is
// single-threaded: the run is a cooperative sequence of Step calls, each
// resolving exactly one cell, and no two steps may run concurrently.
type Buffer struct {
	grid    *Grid
	rules   *RuleSet
	weights map[TileType]int
	src     *rng.Source
	engine  *EntropyEngine

	state           BufferState
	startWithRandom bool
}

// NewBuffer creates a buffer with every cell unresolved. It starts in the
// unknown state until rules are registered.
func NewBuffer(cfg Config) (*Buffer, error) {
	grid, err := NewGrid(cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}

	var src *rng.Source
	if cfg.Seed == 0 {
		src = rng.NewFromTime()
	} else {
		src = rng.New(uint32(cfg.Seed))
	}

	rules := NewRuleSet()
	return &Buffer{
		grid:            grid,
		rules:           rules,
		weights:         make(map[TileType]int),
		src:             src,
		engine:          NewEntropyEngine(grid, rules),
		state:           StateUnknown,
		startWithRandom: true,
	}, nil
}

// State returns the current buffer state.
func (b *Buffer) State() BufferState {
	return b.state
}

// Width returns the grid width in cells.
func (b *Buffer) Width() int { return b.grid.Width() }

// Height returns the grid height in cells.
func (b *Buffer) Height() int { return b.grid.Height() }

// Unresolved returns the number of cells without an assigned type.
func (b *Buffer) Unresolved() int { return b.grid.Unresolved() }

// SetRule registers an adjacency rule for a tile type. No validation is
// performed that referenced neighbor types exist or that the relation is
// symmetric; bad rules surface later as contradictions.
func (b *Buffer) SetRule(t TileType, r Rule) {
	b.rules.Set(t, r)
	b.refreshState()
}

// SetRules registers rules in bulk.
func (b *Buffer) SetRules(rules map[TileType]Rule) {
	b.rules.SetAll(rules)
	b.refreshState()
}

// ResetRules removes all rules, returning the buffer to the unknown state.
func (b *Buffer) ResetRules() {
	b.rules.Reset()
	b.refreshState()
}

// SetWeight sets the selection weight for a tile type. Types without a weight
// default to 1. Zero or negative weights are stored as given; they are not
// validated and simply contribute nothing to weighted picks.
func (b *Buffer) SetWeight(t TileType, weight int) {
	b.weights[t] = weight
	b.refreshState()
}

// SetWeights sets selection weights in bulk.
func (b *Buffer) SetWeights(weights map[TileType]int) {
	for t, w := range weights {
		b.weights[t] = w
	}
	b.refreshState()
}

// ResetWeights removes all weights, restoring uniform selection.
func (b *Buffer) ResetWeights() {
	b.weights = make(map[TileType]int)
	b.refreshState()
}

// SetTileData pre-seeds one cell with a fixed type before a run, marking it
// resolved. seedRandomStart records whether the run should additionally
// auto-seed one random starting cell. Pre-seeded cells are anchors: they are
// never overwritten by the run.
func (b *Buffer) SetTileData(t TileType, index int, seedRandomStart bool) error {
	if b.state == StateCollapsing {
		return ErrNotReady
	}
	if !b.grid.InBounds(index) {
		return fmt.Errorf("wfc: tile index %d out of range: %w", index, ErrInvalidSize)
	}
	cell := b.grid.Cell(index)
	cell.Type = t
	cell.Entropy = 0
	cell.Available = nil
	b.startWithRandom = seedRandomStart
	b.refreshState()
	return nil
}

// SetTiles pre-seeds cells in bulk, applying them in ascending index order.
func (b *Buffer) SetTiles(tiles map[int]TileType, seedRandomStart bool) error {
	indices := make([]int, 0, len(tiles))
	for idx := range tiles {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	for _, idx := range indices {
		if err := b.SetTileData(tiles[idx], idx, seedRandomStart); err != nil {
			return err
		}
	}
	return nil
}

// ResetTileData rebuilds the grid to the all-unresolved state, keeping rules
// and weights. The random-start behavior returns to its default. This is the
// recovery path after a failed or abandoned run: it discards any terminal or
// in-progress state.
func (b *Buffer) ResetTileData() {
	b.grid.Reset()
	b.startWithRandom = true
	b.state = StateUnknown
	b.refreshState()
}

// ResetLevel fully resets tiles, rules, weights and state to unknown.
func (b *Buffer) ResetLevel() {
	b.grid.Reset()
	b.rules.Reset()
	b.weights = make(map[TileType]int)
	b.startWithRandom = true
	b.state = StateUnknown
}

// ResolvedTile returns the cell at index. It fails with ErrNotReady unless
// the buffer is in the terminal collapsed state.
func (b *Buffer) ResolvedTile(index int) (Cell, error) {
	if b.state != StateCollapsed {
		return Cell{}, ErrNotReady
	}
	if !b.grid.InBounds(index) {
		return Cell{}, fmt.Errorf("wfc: tile index %d out of range: %w", index, ErrInvalidSize)
	}
	return *b.grid.Cell(index), nil
}

// Begin prepares a run: it optionally seeds one random starting cell, assigns
// initial entropy to every unresolved cell and moves the buffer to the
// collapsing state. It fails with ErrNotReady, without mutating state, if the
// buffer is not ready.
func (b *Buffer) Begin() error {
	if b.state != StateReady {
		return ErrNotReady
	}
	b.state = StateCollapsing

	if b.startWithRandom {
		if err := b.seedRandomCell(); err != nil {
			return err
		}
	}

	for i := 0; i < b.grid.Len(); i++ {
		cell := b.grid.Cell(i)
		if cell.Resolved() {
			continue
		}
		entropy, candidates, err := b.engine.Compute(i)
		if err != nil {
			return err
		}
		cell.Entropy = entropy
		cell.Available = candidates
	}
	return nil
}

// seedRandomCell uniformly picks one cell and one declared tile type and
// resolves that cell. A pre-seeded anchor hit by the pick is left as is;
// resolved cells are immutable.
func (b *Buffer) seedRandomCell() error {
	indices := make([]int, b.grid.Len())
	for i := range indices {
		indices[i] = i
	}
	idx, err := rng.PickUniform(b.src, indices)
	if err != nil {
		return err
	}
	t, err := rng.PickUniform(b.src, b.rules.Types())
	if err != nil {
		return err
	}
	cell := b.grid.Cell(idx)
	if cell.Resolved() {
		return nil
	}
	cell.Type = t
	cell.Entropy = 0
	cell.Available = nil
	return nil
}

// Step advances the run by resolving exactly one cell, then returns control
// to the caller. It picks a uniformly random cell from the lowest-entropy
// frontier, resolves it with a weighted pick over its candidates and
// propagates the consequence to its neighbors.
//
// The per-cell retry count equals the initial candidate count. The candidate
// set is not narrowed between retries, so a failing attempt and its retries
// are equivalent; see TestStepRetriesDoNotNarrowCandidates.
//
// No error is recovered here: any failure unwinds to the caller and leaves
// the buffer in a non-terminal state, in which the grid must be treated as
// invalid and reset before retrying.
func (b *Buffer) Step() (StepResult, error) {
	if b.state != StateCollapsing {
		return StepResult{}, ErrNotReady
	}

	minEntropy, found := b.minUnresolvedEntropy()
	if !found {
		return StepResult{}, ErrNoCandidateCells
	}

	frontier := b.frontierAt(minEntropy)
	idx, err := rng.PickUniform(b.src, frontier)
	if err != nil {
		return StepResult{}, err
	}

	cell := b.grid.Cell(idx)
	if len(cell.Available) == 0 {
		return StepResult{}, &ContradictionError{Index: idx, Snapshot: b.grid.Snapshot()}
	}

	retries := len(cell.Available)
	for attempt := 0; attempt < retries; attempt++ {
		choice, err := rng.PickWeighted(b.src, cell.Available, b.weights)
		if err != nil {
			continue // same candidate set on the next attempt
		}

		cell.Type = choice
		cell.Entropy = 0
		cell.Available = nil
		if err := b.propagate(idx); err != nil {
			return StepResult{}, err
		}

		if b.grid.Unresolved() == 0 {
			if err := b.verifyComplete(); err != nil {
				return StepResult{}, err
			}
			b.state = StateCollapsed
			return StepResult{Index: idx, Type: choice, Done: true}, nil
		}
		return StepResult{Index: idx, Type: choice}, nil
	}

	return StepResult{}, fmt.Errorf("wfc: cell %d unresolved after %d attempts: %w", idx, retries, ErrCollapseFailed)
}

// Run drives Step to completion. On success the buffer ends collapsed; on any
// error the run stops and the buffer is left non-terminal.
func (b *Buffer) Run(ctx context.Context) error {
	if err := b.Begin(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		res, err := b.Step()
		if err != nil {
			return err
		}
		if res.Done {
			return nil
		}
	}
}

// minUnresolvedEntropy returns the minimum entropy among unresolved cells.
func (b *Buffer) minUnresolvedEntropy() (float64, bool) {
	var min float64
	found := false
	for i := 0; i < b.grid.Len(); i++ {
		cell := b.grid.Cell(i)
		if cell.Resolved() {
			continue
		}
		if !found || cell.Entropy < min {
			min = cell.Entropy
			found = true
		}
	}
	return min, found
}

// frontierAt collects the indices of unresolved cells at the given entropy,
// in index order.
func (b *Buffer) frontierAt(entropy float64) []int {
	var frontier []int
	for i := 0; i < b.grid.Len(); i++ {
		cell := b.grid.Cell(i)
		if cell.Resolved() {
			continue
		}
		if cell.Entropy == entropy {
			frontier = append(frontier, i)
		}
	}
	return frontier
}

// propagate recomputes entropy for the unresolved neighbors of a freshly
// resolved cell, overwriting their stored entropy and candidate sets.
// Resolved neighbors are never revisited.
func (b *Buffer) propagate(index int) error {
	for _, d := range AllDirections() {
		n, ok := b.grid.Neighbor(index, d)
		if !ok {
			continue
		}
		neighbor := b.grid.Cell(n)
		if neighbor.Resolved() {
			continue
		}
		entropy, candidates, err := b.engine.Compute(n)
		if err != nil {
			return err
		}
		neighbor.Entropy = entropy
		neighbor.Available = candidates
	}
	return nil
}

// verifyComplete is the final consistency check: every cell must carry an
// assigned type. It should never fire if the algorithm is correct.
func (b *Buffer) verifyComplete() error {
	for i := 0; i < b.grid.Len(); i++ {
		cell := b.grid.Cell(i)
		if !cell.Resolved() || cell.Type == TileUnset {
			return fmt.Errorf("wfc: cell %d has no assigned type: %w", i, ErrCorruptState)
		}
	}
	return nil
}

// refreshState recomputes unknown vs ready. A run in progress is not
// touched; mutating a collapsed buffer discards its terminal state, since the
// result no longer matches the inputs.
func (b *Buffer) refreshState() {
	if b.state == StateCollapsing {
		return
	}
	if b.grid.Len() > 0 && b.rules.Len() > 0 {
		b.state = StateReady
	} else {
		b.state = StateUnknown
	}
}
