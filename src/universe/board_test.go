package universe

import (
	"math"
	"math/rand"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boardWith(cells ...Cell) *Board {
	b := NewBoard(Rules{})
	for _, c := range cells {
		b.SetAlive(c.X, c.Y, true)
	}
	return b
}

func livingCells(b *Board) []Cell {
	return slices.Collect(b.Cells())
}

func requireStrictlySorted(t *testing.T, cells []Cell) {
	t.Helper()
	for i := 1; i < len(cells); i++ {
		require.Negative(t, CompareCells(cells[i-1], cells[i]), "cells %v and %v out of order", cells[i-1], cells[i])
	}
}

func TestBoard_SetAliveRoundTrip(t *testing.T) {
	b := NewBoard(Rules{})
	coords := []Cell{{0, 0}, {-5, 7}, {math.MaxInt, math.MinInt}, {math.MinInt, math.MaxInt}, {123456789, -987654321}}
	for _, c := range coords {
		b.SetAlive(c.X, c.Y, true)
		assert.True(t, b.IsAlive(c.X, c.Y), "%v", c)
	}
	assert.Equal(t, len(coords), b.LiveCells())
	for _, c := range coords {
		b.SetAlive(c.X, c.Y, false)
		assert.False(t, b.IsAlive(c.X, c.Y), "%v", c)
	}
	assert.Zero(t, b.LiveCells())
}

func TestBoard_SetAliveIdempotent(t *testing.T) {
	b := NewBoard(Rules{})
	b.SetAlive(3, 4, true)
	once := livingCells(b)
	b.SetAlive(3, 4, true)
	assert.Equal(t, once, livingCells(b))
	b.SetAlive(9, 9, false)
	assert.Equal(t, once, livingCells(b))
	assert.Zero(t, b.Generation())
}

func TestBoard_SortInvariantUnderRandomEdits(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	b := NewBoard(Rules{})
	for i := 0; i < 3000; i++ {
		b.SetAlive(rnd.Intn(40)-20, rnd.Intn(40)-20, rnd.Intn(3) != 0)
	}
	requireStrictlySorted(t, livingCells(b))
}

func TestBoard_Toggle(t *testing.T) {
	b := NewBoard(Rules{})
	assert.True(t, b.Toggle(1, 1))
	assert.True(t, b.IsAlive(1, 1))
	assert.False(t, b.Toggle(1, 1))
	assert.False(t, b.IsAlive(1, 1))
}

func TestBoard_StepAndClear(t *testing.T) {
	b := boardWith(Cell{0, 0}, Cell{1, 0}, Cell{2, 0})
	res := b.Step()
	assert.Equal(t, 1, res.Generation)
	assert.Equal(t, 3, res.LiveCells)
	assert.True(t, res.Changed)
	assert.Equal(t, []Cell{{1, -1}, {1, 0}, {1, 1}}, livingCells(b))

	res = b.Step()
	assert.Equal(t, 2, res.Generation)
	assert.Equal(t, []Cell{{0, 0}, {1, 0}, {2, 0}}, livingCells(b))

	b.Clear()
	assert.Zero(t, b.Generation())
	assert.Zero(t, b.LiveCells())
	for _, c := range []Cell{{0, 0}, {1, 0}, {2, 0}} {
		assert.False(t, b.IsAlive(c.X, c.Y))
	}

	//the generation grows by one even when nothing changes
	res = b.Step()
	assert.Equal(t, 1, res.Generation)
	assert.False(t, res.Changed)
}

func TestBoard_BlockStill(t *testing.T) {
	block := []Cell{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	b := boardWith(block...)
	for i := 1; i <= 10; i++ {
		res := b.Step()
		require.False(t, res.Changed)
		require.Equal(t, i, res.Generation)
	}
	assert.Equal(t, block, livingCells(b))
}

func TestBoard_ClearArea(t *testing.T) {
	var cells []Cell
	for x := -3; x <= 3; x++ {
		for y := -3; y <= 3; y++ {
			cells = append(cells, Cell{x, y})
		}
	}
	b := boardWith(cells...)
	require.NoError(t, b.ClearArea(Rect{X: -1, Y: -1, Width: 3, Height: 3}))
	assert.Equal(t, 49-9, b.LiveCells())
	for _, c := range cells {
		inside := c.X >= -1 && c.X <= 1 && c.Y >= -1 && c.Y <= 1
		assert.Equal(t, !inside, b.IsAlive(c.X, c.Y), "%v", c)
	}
	requireStrictlySorted(t, livingCells(b))

	require.NoError(t, b.ClearArea(Rect{X: 0, Y: 0, Width: 0, Height: 5}))
	assert.Equal(t, 40, b.LiveCells())

	err := b.ClearArea(Rect{X: math.MaxInt, Y: 0, Width: 2, Height: 1})
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestBoard_ClearAreaVisitsOnlyInsideCells(t *testing.T) {
	b := NewBoard(Rules{})
	//tall columns crossing the rectangle, most of their cells are outside it
	for x := 0; x < 4; x++ {
		for y := -100; y <= 100; y++ {
			b.SetAlive(x, y, true)
		}
	}
	r := Rect{X: 1, Y: -2, Width: 2, Height: 5}
	b.mu.RLock()
	spans := b.spans(r)
	b.mu.RUnlock()
	require.Len(t, spans, 2)
	inside := 0
	for _, sp := range spans {
		for i := sp[0]; i < sp[1]; i++ {
			require.True(t, r.Contains(b.living.At(i)))
			inside++
		}
	}
	assert.Equal(t, 10, inside)

	require.NoError(t, b.ClearArea(r))
	assert.Equal(t, 4*201-10, b.LiveCells())
	assert.False(t, b.IsAlive(1, 0))
	assert.True(t, b.IsAlive(1, 3))
	assert.True(t, b.IsAlive(1, -3))
	assert.True(t, b.IsAlive(0, 0))
	assert.True(t, b.IsAlive(3, 0))
	requireStrictlySorted(t, livingCells(b))
}

func TestBoard_Square(t *testing.T) {
	b := NewBoard(Rules{})
	r := Rect{X: 2, Y: -1, Width: 4, Height: 3}
	require.NoError(t, b.Square(r))
	want := []Cell{
		{2, -1}, {2, 0}, {2, 1},
		{3, -1}, {3, 1},
		{4, -1}, {4, 1},
		{5, -1}, {5, 0}, {5, 1},
	}
	assert.Equal(t, want, livingCells(b))

	//the interior and the exterior are untouched
	b = boardWith(Cell{3, 0}, Cell{10, 10})
	require.NoError(t, b.Square(r))
	assert.True(t, b.IsAlive(3, 0))
	assert.True(t, b.IsAlive(10, 10))
	assert.Equal(t, len(want)+2, b.LiveCells())
}

func TestBoard_SquareDegenerate(t *testing.T) {
	b := NewBoard(Rules{})
	require.NoError(t, b.Square(Rect{X: 0, Y: 0, Width: 0, Height: 3}))
	require.NoError(t, b.Square(Rect{X: 0, Y: 0, Width: 3, Height: -1}))
	assert.Zero(t, b.LiveCells())

	require.NoError(t, b.Square(Rect{X: 7, Y: 7, Width: 1, Height: 1}))
	assert.Equal(t, []Cell{{7, 7}}, livingCells(b))

	require.NoError(t, b.Square(Rect{X: math.MaxInt - 1, Y: 0, Width: 2, Height: 1}))
	assert.True(t, b.IsAlive(math.MaxInt, 0))
	assert.ErrorIs(t, b.Square(Rect{X: math.MaxInt - 1, Y: 0, Width: 3, Height: 1}), ErrOutOfRange)
}

func TestBoard_Oval(t *testing.T) {
	for _, r := range []Rect{
		{X: 0, Y: 0, Width: 9, Height: 9},
		{X: -20, Y: 5, Width: 31, Height: 7},
		{X: 3, Y: 3, Width: 2, Height: 40},
		{X: 0, Y: 0, Width: 1, Height: 1},
		{X: 0, Y: 0, Width: 1, Height: 6},
	} {
		t.Run(r.String(), func(t *testing.T) {
			b := NewBoard(Rules{})
			require.NoError(t, b.Oval(r))
			cells := livingCells(b)
			require.NotEmpty(t, cells)
			for _, c := range cells {
				assert.True(t, r.Contains(c), "%v outside %v", c, r)
			}
			//the axis extremes of the ellipse are on the rectangle border
			midX := r.X + (r.Width-1)/2
			midY := r.Y + (r.Height-1)/2
			assert.True(t, b.IsAlive(r.MaxX(), midY) || b.IsAlive(r.MaxX(), midY+1), "right extreme")
			assert.True(t, b.IsAlive(r.X, midY) || b.IsAlive(r.X, midY+1), "left extreme")
			assert.True(t, b.IsAlive(midX, r.Y) || b.IsAlive(midX+1, r.Y), "top extreme")
			assert.True(t, b.IsAlive(midX, r.MaxY()) || b.IsAlive(midX+1, r.MaxY()), "bottom extreme")
		})
	}
}

func TestBoard_OvalLeavesInteriorEmpty(t *testing.T) {
	b := NewBoard(Rules{})
	r := Rect{X: 0, Y: 0, Width: 21, Height: 21}
	require.NoError(t, b.Oval(r))
	assert.False(t, b.IsAlive(10, 10))
	assert.False(t, b.IsAlive(0, 0))
	assert.False(t, b.IsAlive(20, 20))
}

func TestBoard_OvalDegenerate(t *testing.T) {
	b := NewBoard(Rules{})
	require.NoError(t, b.Oval(Rect{Width: 0, Height: 10}))
	assert.Zero(t, b.LiveCells())
	assert.ErrorIs(t, b.Oval(Rect{X: 0, Y: math.MaxInt, Width: 1, Height: 2}), ErrOutOfRange)
}

func TestBoard_RotateBlinker(t *testing.T) {
	b := boardWith(Cell{0, 0}, Cell{1, 0}, Cell{2, 0})
	r := Rect{X: 0, Y: 0, Width: 3, Height: 1}
	dst, err := b.RotateCW(r)
	require.NoError(t, err)
	assert.Equal(t, Rect{X: 1, Y: -1, Width: 1, Height: 3}, dst)
	assert.Equal(t, []Cell{{1, -1}, {1, 0}, {1, 1}}, livingCells(b))

	back, err := b.RotateCCW(dst)
	require.NoError(t, err)
	assert.Equal(t, r, back)
	assert.Equal(t, []Cell{{0, 0}, {1, 0}, {2, 0}}, livingCells(b))
}

func TestBoard_RotateCWOrientation(t *testing.T) {
	//the top left corner goes to the top right corner (y grows downward)
	b := boardWith(Cell{0, 0})
	dst, err := b.RotateCW(Rect{X: 0, Y: 0, Width: 3, Height: 3})
	require.NoError(t, err)
	assert.Equal(t, Rect{X: 0, Y: 0, Width: 3, Height: 3}, dst)
	assert.Equal(t, []Cell{{2, 0}}, livingCells(b))

	_, err = b.RotateCCW(dst)
	require.NoError(t, err)
	_, err = b.RotateCCW(dst)
	require.NoError(t, err)
	assert.Equal(t, []Cell{{0, 2}}, livingCells(b))
}

func TestBoard_RotateBijection(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	for _, r := range []Rect{
		{X: 0, Y: 0, Width: 5, Height: 5},
		{X: -3, Y: 2, Width: 6, Height: 3},
		{X: 10, Y: -10, Width: 2, Height: 7},
		{X: 0, Y: 0, Width: 1, Height: 4},
		{X: 5, Y: 5, Width: 8, Height: 1},
	} {
		t.Run(r.String(), func(t *testing.T) {
			b := NewBoard(Rules{})
			for i := 0; i < r.Width*r.Height; i++ {
				b.SetAlive(r.X+rnd.Intn(r.Width), r.Y+rnd.Intn(r.Height), true)
			}
			b.SetAlive(r.X-10, r.Y-10, true) //outside, must stay
			original := livingCells(b)
			inside := len(b.CellsIn(r))

			dst, err := b.RotateCW(r)
			require.NoError(t, err)
			assert.Equal(t, r.Width, dst.Height)
			assert.Equal(t, r.Height, dst.Width)
			assert.Len(t, b.CellsIn(dst), inside)
			assert.True(t, b.IsAlive(r.X-10, r.Y-10))

			back, err := b.RotateCCW(dst)
			require.NoError(t, err)
			assert.Equal(t, r, back)
			assert.Equal(t, original, livingCells(b))

			cur := r
			for i := 0; i < 4; i++ {
				cur, err = b.RotateCW(cur)
				require.NoError(t, err)
			}
			assert.Equal(t, r, cur)
			assert.Equal(t, original, livingCells(b))
		})
	}
}

func TestBoard_RotateDegenerateAndOverflow(t *testing.T) {
	b := boardWith(Cell{0, 0})
	r := Rect{X: 0, Y: 0, Width: 0, Height: 3}
	dst, err := b.RotateCW(r)
	require.NoError(t, err)
	assert.Equal(t, r, dst)
	assert.Equal(t, 1, b.LiveCells())

	_, err = b.RotateCW(Rect{X: math.MaxInt - 1, Y: 0, Width: 2, Height: 6})
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = b.RotateCCW(Rect{X: 0, Y: 0, Width: math.MaxInt / 2, Height: math.MaxInt / 2})
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, []Cell{{0, 0}}, livingCells(b))
}

func TestBoard_CellsInAndWindow(t *testing.T) {
	b := boardWith(Cell{0, 0}, Cell{1, 5}, Cell{2, 2}, Cell{3, 3}, Cell{-1, 1})
	r := Rect{X: 0, Y: 0, Width: 3, Height: 3}
	assert.Equal(t, []Cell{{0, 0}, {2, 2}}, b.CellsIn(r))
	assert.Nil(t, b.CellsIn(Rect{}))

	a, err := b.Window(r)
	require.NoError(t, err)
	assert.Equal(t, r, a.Rect())
	assert.Equal(t, 2, a.LiveCells())
	assert.True(t, a.Entities[0][0])
	assert.True(t, a.Entities[2][2])
	assert.False(t, a.Entities[1][1])
}

func TestBoard_Bounds(t *testing.T) {
	b := NewBoard(Rules{})
	_, ok := b.Bounds()
	assert.False(t, ok)
	b.SetAlive(-2, 7, true)
	b.SetAlive(4, -1, true)
	b.SetAlive(0, 3, true)
	r, ok := b.Bounds()
	require.True(t, ok)
	assert.Equal(t, Rect{X: -2, Y: -1, Width: 7, Height: 9}, r)
}

func TestBoard_BoundsWiderThanInt(t *testing.T) {
	b := boardWith(Cell{math.MinInt, 0}, Cell{math.MaxInt, 0})
	_, ok := b.Bounds()
	assert.False(t, ok)

	b = boardWith(Cell{0, math.MinInt}, Cell{0, math.MaxInt})
	_, ok = b.Bounds()
	assert.False(t, ok)

	b = boardWith(Cell{math.MinInt, 5}, Cell{-2, 5})
	r, ok := b.Bounds()
	require.True(t, ok)
	assert.Equal(t, Rect{X: math.MinInt, Y: 5, Width: math.MaxInt, Height: 1}, r)
}

func TestRectFromCorners(t *testing.T) {
	r, err := RectFromCorners(Cell{3, -1}, Cell{-2, 4})
	require.NoError(t, err)
	assert.Equal(t, Rect{X: -2, Y: -1, Width: 6, Height: 6}, r)

	_, err = RectFromCorners(Cell{math.MinInt, 0}, Cell{0, 0})
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestBoard_CellsSnapshot(t *testing.T) {
	b := boardWith(Cell{0, 0}, Cell{1, 1})
	seq := b.Cells()
	b.SetAlive(5, 5, true)
	assert.Equal(t, []Cell{{0, 0}, {1, 1}}, slices.Collect(seq))
	assert.Equal(t, []Cell{{0, 0}, {1, 1}}, slices.Collect(seq))
}

func TestBoard_SetRules(t *testing.T) {
	b := NewBoard(Rules{})
	assert.Equal(t, ConwayRules, b.Rules())
	seeds, err := LookupRules("seeds")
	require.NoError(t, err)
	b.SetRules(seeds)
	b.SetAlive(0, 0, true)
	b.SetAlive(1, 0, true)
	b.Step()
	assert.Equal(t, []Cell{{0, -1}, {0, 1}, {1, -1}, {1, 1}}, livingCells(b))
	b.SetRules(Rules{})
	assert.Equal(t, ConwayRules, b.Rules())
}

func TestBoard_SetRulesOrderedLikeAnEdit(t *testing.T) {
	b := boardWith(Cell{0, 0}, Cell{1, 0})
	seeds, err := LookupRules("seeds")
	require.NoError(t, err)
	//a step which snapshotted before SetRules must see the version change and recompute with the new rules
	b.mu.RLock()
	version := b.version
	b.mu.RUnlock()
	b.SetRules(seeds)
	b.mu.RLock()
	assert.NotEqual(t, version, b.version)
	b.mu.RUnlock()

	//under Conway rules the pair dies out, under seeds it gives birth
	res := b.Step()
	assert.Equal(t, 4, res.LiveCells)
}

func TestBoard_ConcurrentEditsAreNotLost(t *testing.T) {
	b := NewBoard(Rules{})
	//a block is still, so the only population change comes from the edits
	b.SetAlive(0, 0, true)
	b.SetAlive(1, 0, true)
	b.SetAlive(0, 1, true)
	b.SetAlive(1, 1, true)

	const edits = 200
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			b.Step()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < edits; i++ {
			//far apart blocks, each one is still under Conway rules
			x := 10 + i*10
			b.SetAlive(x, 0, true)
			b.SetAlive(x+1, 0, true)
			b.SetAlive(x, 1, true)
			b.SetAlive(x+1, 1, true)
		}
	}()
	wg.Wait()
	assert.Equal(t, 100, b.Generation())
	//partially written blocks may have been stepped, finish them and let them settle
	for i := 0; i < edits; i++ {
		x := 10 + i*10
		b.SetAlive(x, 0, true)
		b.SetAlive(x+1, 0, true)
		b.SetAlive(x, 1, true)
		b.SetAlive(x+1, 1, true)
	}
	b.Step()
	assert.Equal(t, 4*(edits+1), b.LiveCells())
	requireStrictlySorted(t, livingCells(b))
}
