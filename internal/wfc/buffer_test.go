package wfc

import (
	"context"
	"errors"
	"testing"
)

const (
	tileA = TileType(0)
	tileB = TileType(1)
)

// checkerboardRules is the strictest two-type tileset: A and B must alternate
// in every direction, so any consistent grid is a checkerboard.
func checkerboardRules() map[TileType]Rule {
	a := []TileType{tileA}
	b := []TileType{tileB}
	return map[TileType]Rule{
		tileA: {Up: b, Down: b, Left: b, Right: b},
		tileB: {Up: a, Down: a, Left: a, Right: a},
	}
}

func newCheckerboardBuffer(t *testing.T, width, height int, seed int64) *Buffer {
	t.Helper()
	b, err := NewBuffer(Config{Width: width, Height: height, Seed: seed})
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	b.SetRules(checkerboardRules())
	return b
}

func resolvedTypes(t *testing.T, b *Buffer) []TileType {
	t.Helper()
	out := make([]TileType, b.Width()*b.Height())
	for i := range out {
		cell, err := b.ResolvedTile(i)
		if err != nil {
			t.Fatalf("ResolvedTile(%d): %v", i, err)
		}
		out[i] = cell.Type
	}
	return out
}

func TestBufferStateTransitions(t *testing.T) {
	b, err := NewBuffer(Config{Width: 2, Height: 2, Seed: 1})
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	if b.State() != StateUnknown {
		t.Fatalf("fresh buffer state = %s, want unknown", b.State())
	}
	if _, err := b.Step(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Step before Begin = %v, want ErrNotReady", err)
	}
	if err := b.Begin(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Begin without rules = %v, want ErrNotReady", err)
	}

	b.SetRules(checkerboardRules())
	if b.State() != StateReady {
		t.Fatalf("state after SetRules = %s, want ready", b.State())
	}
	if _, err := b.ResolvedTile(0); !errors.Is(err, ErrNotReady) {
		t.Errorf("ResolvedTile before collapse = %v, want ErrNotReady", err)
	}

	if err := b.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if b.State() != StateCollapsing {
		t.Fatalf("state after Begin = %s, want collapsing", b.State())
	}
	if err := b.Begin(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Begin during a run = %v, want ErrNotReady", err)
	}

	for {
		res, err := b.Step()
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
		if res.Done {
			break
		}
	}
	if b.State() != StateCollapsed {
		t.Fatalf("state after completion = %s, want collapsed", b.State())
	}
	if _, err := b.Step(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Step after collapse = %v, want ErrNotReady", err)
	}
	if b.Unresolved() != 0 {
		t.Errorf("Unresolved() = %d after collapse, want 0", b.Unresolved())
	}
}

func TestBufferGoldenCheckerboard(t *testing.T) {
	// Seed 1 on a 2x2 checkerboard: the random start lands on cell 0 with
	// type A, and the rules force the rest.
	b := newCheckerboardBuffer(t, 2, 2, 1)
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []TileType{tileA, tileB, tileB, tileA}
	got := resolvedTypes(t, b)
	for i, w := range want {
		if got[i] != w {
			t.Errorf("cell %d = %d, want %d", i, got[i], w)
		}
	}
}

func TestBufferDeterminism(t *testing.T) {
	first := newCheckerboardBuffer(t, 4, 4, 7)
	second := newCheckerboardBuffer(t, 4, 4, 7)
	first.SetWeights(map[TileType]int{tileA: 2, tileB: 3})
	second.SetWeights(map[TileType]int{tileA: 2, tileB: 3})

	if err := first.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := second.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	a := resolvedTypes(t, first)
	c := resolvedTypes(t, second)
	for i := range a {
		if a[i] != c[i] {
			t.Fatalf("cell %d differs between identical runs: %d vs %d", i, a[i], c[i])
		}
	}
}

func TestBufferMultiSeedValid(t *testing.T) {
	for seed := int64(1); seed <= 12; seed++ {
		b := newCheckerboardBuffer(t, 4, 4, seed)
		if err := b.Run(context.Background()); err != nil {
			t.Fatalf("seed %d: Run: %v", seed, err)
		}
		if err := b.Validate(); err != nil {
			t.Errorf("seed %d: Validate: %v", seed, err)
		}
	}
}

func TestBufferAnchorsRespected(t *testing.T) {
	b := newCheckerboardBuffer(t, 2, 2, 5)
	if err := b.SetTileData(tileB, 0, false); err != nil {
		t.Fatalf("SetTileData: %v", err)
	}

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []TileType{tileB, tileA, tileA, tileB}
	got := resolvedTypes(t, b)
	for i, w := range want {
		if got[i] != w {
			t.Errorf("cell %d = %d, want %d", i, got[i], w)
		}
	}
}

func TestBufferSetTileDataBounds(t *testing.T) {
	b := newCheckerboardBuffer(t, 2, 2, 1)
	if err := b.SetTileData(tileA, 4, false); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("SetTileData out of range = %v, want ErrInvalidSize", err)
	}
	if err := b.SetTileData(tileA, -1, false); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("SetTileData negative index = %v, want ErrInvalidSize", err)
	}
}

func TestBufferUndeclaredRuleTypeContradicts(t *testing.T) {
	// A's rules reference type 1, which has no rule of its own. Once a cell
	// resolves to type 1 its neighbors have no assignable type.
	b, err := NewBuffer(Config{Width: 3, Height: 1, Seed: 1})
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	b.SetRule(tileA, Rule{Left: []TileType{1}, Right: []TileType{1}})
	if err := b.SetTileData(tileA, 0, false); err != nil {
		t.Fatalf("SetTileData: %v", err)
	}

	err = b.Run(context.Background())
	if !errors.Is(err, ErrContradiction) {
		t.Fatalf("Run = %v, want contradiction", err)
	}
	var contradiction *ContradictionError
	if !errors.As(err, &contradiction) {
		t.Fatalf("error %v is not a *ContradictionError", err)
	}
	if contradiction.Index != 2 {
		t.Errorf("contradiction Index = %d, want 2", contradiction.Index)
	}
	if b.State() == StateCollapsed {
		t.Error("buffer reached collapsed state despite a contradiction")
	}
}

func TestStepRetriesDoNotNarrowCandidates(t *testing.T) {
	// With every weight at zero the weighted pick can never succeed. The
	// retry budget equals the candidate count, but the candidate set is the
	// same on every attempt, so all attempts fail identically and the step
	// reports ErrCollapseFailed.
	b := newCheckerboardBuffer(t, 2, 2, 1)
	b.SetWeights(map[TileType]int{tileA: 0, tileB: 0})

	err := b.Run(context.Background())
	if !errors.Is(err, ErrCollapseFailed) {
		t.Fatalf("Run = %v, want ErrCollapseFailed", err)
	}
	if b.State() != StateCollapsing {
		t.Errorf("state after failed run = %s, want collapsing (non-terminal)", b.State())
	}

	// The grid must be reset before retrying. Restoring sane weights and
	// rerunning succeeds.
	b.ResetTileData()
	b.ResetWeights()
	if b.State() != StateReady {
		t.Fatalf("state after ResetTileData = %s, want ready", b.State())
	}
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run after reset: %v", err)
	}
}

func TestBufferResetTileDataKeepsRules(t *testing.T) {
	b := newCheckerboardBuffer(t, 2, 2, 3)
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	b.ResetTileData()
	if b.State() != StateReady {
		t.Fatalf("state after ResetTileData = %s, want ready (rules kept)", b.State())
	}
	if b.Unresolved() != 4 {
		t.Errorf("Unresolved() = %d after ResetTileData, want 4", b.Unresolved())
	}
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run after ResetTileData: %v", err)
	}
}

func TestBufferResetLevel(t *testing.T) {
	b := newCheckerboardBuffer(t, 2, 2, 3)
	b.SetWeights(map[TileType]int{tileA: 5})
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	b.ResetLevel()
	if b.State() != StateUnknown {
		t.Errorf("state after ResetLevel = %s, want unknown", b.State())
	}
	if b.Unresolved() != 4 {
		t.Errorf("Unresolved() = %d after ResetLevel, want 4", b.Unresolved())
	}
	if err := b.Begin(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Begin after ResetLevel = %v, want ErrNotReady (rules cleared)", err)
	}
}

func TestBufferMutationDiscardsResult(t *testing.T) {
	// Any mutation of rules, tiles or weights after collapse invalidates the
	// result: the buffer returns to ready and stops serving resolved cells.
	collapse := func(t *testing.T) *Buffer {
		t.Helper()
		b := newCheckerboardBuffer(t, 2, 2, 3)
		if err := b.Run(context.Background()); err != nil {
			t.Fatalf("Run: %v", err)
		}
		return b
	}
	assertDiscarded := func(t *testing.T, b *Buffer, mutation string) {
		t.Helper()
		if b.State() != StateReady {
			t.Fatalf("state after %s on a collapsed buffer = %s, want ready", mutation, b.State())
		}
		if _, err := b.ResolvedTile(0); !errors.Is(err, ErrNotReady) {
			t.Errorf("ResolvedTile after %s = %v, want ErrNotReady", mutation, err)
		}
	}

	t.Run("SetRule", func(t *testing.T) {
		b := collapse(t)
		b.SetRule(tileA, Rule{Up: []TileType{tileB}})
		assertDiscarded(t, b, "SetRule")
	})
	t.Run("SetTileData", func(t *testing.T) {
		b := collapse(t)
		if err := b.SetTileData(tileB, 0, true); err != nil {
			t.Fatalf("SetTileData: %v", err)
		}
		assertDiscarded(t, b, "SetTileData")
	})
	t.Run("SetWeight", func(t *testing.T) {
		b := collapse(t)
		b.SetWeight(tileA, 5)
		assertDiscarded(t, b, "SetWeight")
	})
	t.Run("SetWeights", func(t *testing.T) {
		b := collapse(t)
		b.SetWeights(map[TileType]int{tileB: 2})
		assertDiscarded(t, b, "SetWeights")
	})
	t.Run("ResetWeights", func(t *testing.T) {
		b := collapse(t)
		b.ResetWeights()
		assertDiscarded(t, b, "ResetWeights")
	})
}

func TestBufferRunCanceled(t *testing.T) {
	b := newCheckerboardBuffer(t, 8, 8, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := b.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run with canceled context = %v, want context.Canceled", err)
	}
}

func TestBufferStepYieldsOneCellAtATime(t *testing.T) {
	b := newCheckerboardBuffer(t, 3, 3, 4)
	if err := b.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	// Begin seeds one random cell, leaving eight for the stepper.
	unresolved := b.Unresolved()
	for unresolved > 0 {
		res, err := b.Step()
		if err != nil {
			t.Fatalf("Step with %d unresolved: %v", unresolved, err)
		}
		if got := b.Unresolved(); got != unresolved-1 {
			t.Fatalf("Step resolved %d cells, want exactly 1", unresolved-got)
		}
		unresolved--
		if res.Done != (unresolved == 0) {
			t.Fatalf("Done = %v with %d unresolved", res.Done, unresolved)
		}
	}
}

func TestValidateRequiresCollapse(t *testing.T) {
	b := newCheckerboardBuffer(t, 2, 2, 1)
	if err := b.Validate(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Validate before collapse = %v, want ErrNotReady", err)
	}
}
