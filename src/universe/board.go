package universe

import (
	"fmt"
	"iter"
	"math"
	"sync"
	"time"

	"sparselife/src/sortedset"
)

const (
	//minOvalStep is the smallest angle increment used to trace an oval
	minOvalStep = 1e-5
	//MaxScratchCells limits the dense buffer used by the rotations
	MaxScratchCells = 1 << 26
)

//StepResult describes one installed generation
type StepResult struct {
	Generation int
	LiveCells  int
	Changed    bool
	Duration   time.Duration
}

//Board owns the living cells of the unbounded grid and the generation counter
//all methods are safe for concurrent use
//
//Step computes the next generation on a snapshot without holding the write lock
//an edit racing with Step is applied before the new generation and never lost:
//Step detects it by the mutation version and recomputes under the write lock
type Board struct {
	mu         sync.RWMutex
	living     *sortedset.Set[Cell]
	generation int
	version    uint64
	rules      Rules

	stepMu sync.Mutex
}

//NewBoard creates the empty board, the zero Rules select ConwayRules
func NewBoard(rules Rules) *Board {
	if rules.IsZero() {
		rules = ConwayRules
	}
	return &Board{living: newCellSet(), rules: rules}
}

func (b *Board) Rules() Rules {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rules
}

//SetRules replaces the rules used by the following steps
func (b *Board) SetRules(r Rules) {
	if r.IsZero() {
		r = ConwayRules
	}
	b.mu.Lock()
	b.rules = r
	b.version++
	b.mu.Unlock()
}

func (b *Board) Generation() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.generation
}

func (b *Board) LiveCells() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.living.Len()
}

//IsAlive reports the state of the cell x,y, any coordinates are valid
func (b *Board) IsAlive(x, y int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.living.Contains(Cell{x, y})
}

//SetAlive sets the state of the cell x,y, the generation is not changed
func (b *Board) SetAlive(x, y int, alive bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.set(Cell{x, y}, alive)
	editsTotal.WithLabelValues("set").Inc()
}

//Toggle inverts the state of the cell x,y and returns the new state
func (b *Board) Toggle(x, y int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := Cell{x, y}
	alive := !b.living.Contains(c)
	b.set(c, alive)
	editsTotal.WithLabelValues("toggle").Inc()
	return alive
}

//Clear kills all cells and resets the generation
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.living.Clear()
	b.generation = 0
	b.version++
	editsTotal.WithLabelValues("clear").Inc()
}

//ClearArea kills every cell inside r
//the cost follows the living cells inside r plus a binary search per occupied column of r
func (b *Board) ClearArea(r Rect) error {
	if r.Empty() {
		return nil
	}
	if err := r.validate(); err != nil {
		return fmt.Errorf("clear area: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeArea(r)
	editsTotal.WithLabelValues("clear_area").Inc()
	return nil
}

//Square sets alive every cell on the border of r
func (b *Board) Square(r Rect) error {
	if r.Empty() {
		return nil
	}
	if err := r.validate(); err != nil {
		return fmt.Errorf("square: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	span(r.X, r.MaxX(), func(x int) {
		b.set(Cell{x, r.Y}, true)
		b.set(Cell{x, r.MaxY()}, true)
	})
	span(r.Y, r.MaxY(), func(y int) {
		b.set(Cell{r.X, y}, true)
		b.set(Cell{r.MaxX(), y}, true)
	})
	editsTotal.WithLabelValues("square").Inc()
	return nil
}

//Oval sets alive the cells along the border of the biggest ellipse inscribed into r
//the border is traced parametrically, every point is rounded to the nearest cell inside r
func (b *Board) Oval(r Rect) error {
	if r.Empty() {
		return nil
	}
	if err := r.validate(); err != nil {
		return fmt.Errorf("oval: %w", err)
	}
	rx := float64(r.Width-1) / 2
	ry := float64(r.Height-1) / 2
	cx := float64(r.X) + rx
	cy := float64(r.Y) + ry
	step := math.Max(1/(float64(r.Width)*float64(r.Height)), minOvalStep)

	b.mu.Lock()
	defer b.mu.Unlock()
	last := Cell{}
	for i := 0; ; i++ {
		theta := float64(i) * step
		if theta >= 2*math.Pi {
			break
		}
		c := Cell{
			X: roundInto(cx+rx*math.Cos(theta), r.X, r.MaxX()),
			Y: roundInto(cy+ry*math.Sin(theta), r.Y, r.MaxY()),
		}
		if i > 0 && c == last {
			continue
		}
		b.set(c, true)
		last = c
	}
	editsTotal.WithLabelValues("oval").Inc()
	return nil
}

//RotateCW rotates the content of r clockwise around its centre (y grows downward)
//returns the rectangle holding the rotated content: same centre, transposed size
func (b *Board) RotateCW(r Rect) (Rect, error) {
	return b.rotate(r, true)
}

//RotateCCW rotates the content of r counterclockwise, the inverse of RotateCW
func (b *Board) RotateCCW(r Rect) (Rect, error) {
	return b.rotate(r, false)
}

func (b *Board) rotate(r Rect, clockwise bool) (Rect, error) {
	if r.Empty() {
		return r, nil
	}
	if err := r.validate(); err != nil {
		return r, fmt.Errorf("rotate: %w", err)
	}
	if n, ok := r.area(); !ok || n > MaxScratchCells {
		return r, fmt.Errorf("rotate: %w: %v exceeds %d scratch cells", ErrOutOfRange, r, MaxScratchCells)
	}
	dst, err := r.rotated()
	if err != nil {
		return r, fmt.Errorf("rotate: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	buf := b.window(r)
	b.removeArea(r)
	for j, row := range buf.Entities {
		for i, alive := range row {
			if !alive {
				continue
			}
			if clockwise {
				b.set(Cell{dst.X + r.Height - 1 - j, dst.Y + i}, true)
			} else {
				b.set(Cell{dst.X + j, dst.Y + r.Width - 1 - i}, true)
			}
		}
	}
	editsTotal.WithLabelValues("rotate").Inc()
	return dst, nil
}

//Window returns the dense copy of the cells inside r
//r must be caller bounded, it is limited by MaxScratchCells
func (b *Board) Window(r Rect) (Area, error) {
	if r.Empty() {
		return createArea(0, 0), nil
	}
	if err := r.validate(); err != nil {
		return Area{}, fmt.Errorf("window: %w", err)
	}
	if n, ok := r.area(); !ok || n > MaxScratchCells {
		return Area{}, fmt.Errorf("window: %w: %v exceeds %d scratch cells", ErrOutOfRange, r, MaxScratchCells)
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.window(r), nil
}

//CellsIn returns the living cells inside r in order
func (b *Board) CellsIn(r Rect) []Cell {
	if r.Empty() || r.validate() != nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	var cells []Cell
	for _, sp := range b.spans(r) {
		for c := range b.living.Range(sp[0], sp[1]) {
			cells = append(cells, c)
		}
	}
	return cells
}

//Cells iterates the living cells in order
//the sequence walks the snapshot taken on the call, later edits are not seen
func (b *Board) Cells() iter.Seq[Cell] {
	b.mu.RLock()
	snap := b.living.Clone()
	b.mu.RUnlock()
	return snap.All()
}

//Bounds returns the smallest rectangle holding all living cells
//false for the empty board and when the size of the rectangle does not fit into int
func (b *Board) Bounds() (Rect, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := b.living.Len()
	if n == 0 {
		return Rect{}, false
	}
	minY, maxY := math.MaxInt, math.MinInt
	for c := range b.living.All() {
		minY = min(minY, c.Y)
		maxY = max(maxY, c.Y)
	}
	r, err := RectFromCorners(Cell{b.living.At(0).X, minY}, Cell{b.living.At(n - 1).X, maxY})
	return r, err == nil
}

//Step computes and installs the next generation
func (b *Board) Step() StepResult {
	b.stepMu.Lock()
	defer b.stepMu.Unlock()
	start := time.Now()

	b.mu.RLock()
	snap := b.living.Clone()
	version := b.version
	rules := b.rules
	b.mu.RUnlock()

	next := Compute(snap, rules)

	b.mu.Lock()
	if b.version != version {
		snap = b.living
		next = Compute(snap, b.rules)
		stepRecomputes.Inc()
	}
	res := StepResult{
		Generation: b.generation + 1,
		LiveCells:  next.Len(),
		Changed:    !next.Equal(snap),
	}
	b.living = next
	b.generation = res.Generation
	b.version++
	b.mu.Unlock()

	res.Duration = time.Since(start)
	generationGauge.Set(float64(res.Generation))
	liveCellsGauge.Set(float64(res.LiveCells))
	stepDuration.Observe(res.Duration.Seconds())
	return res
}

//set must be called with the write lock held
func (b *Board) set(c Cell, alive bool) {
	var changed bool
	if alive {
		changed = b.living.Insert(c)
	} else {
		changed = b.living.Remove(c)
	}
	if changed {
		b.version++
	}
}

//spans returns the ascending index windows of the living cells inside r, the lock must be held
//every occupied column of r costs two binary searches, the cells outside r are never visited
func (b *Board) spans(r Rect) [][2]int {
	var spans [][2]int
	i := b.living.LowerBound(byX(r.X))
	end := b.living.UpperBound(byX(r.MaxX()))
	for i < end {
		x := b.living.At(i).X
		lo := b.living.LowerBound(atCell(Cell{x, r.Y}))
		hi := b.living.UpperBound(atCell(Cell{x, r.MaxY()}))
		if lo < hi {
			spans = append(spans, [2]int{lo, hi})
		}
		i = b.living.UpperBound(byX(x))
	}
	return spans
}

//removeArea must be called with the write lock held
func (b *Board) removeArea(r Rect) {
	if b.living.DeleteSpans(b.spans(r)) > 0 {
		b.version++
	}
}

//window copies r into a dense area, the lock must be held
func (b *Board) window(r Rect) Area {
	a := createArea(r.Width, r.Height)
	a.X, a.Y = r.X, r.Y
	for _, sp := range b.spans(r) {
		for c := range b.living.Range(sp[0], sp[1]) {
			a.Entities[c.Y-r.Y][c.X-r.X] = true
		}
	}
	return a
}

//span calls fn for every int in [lo, hi] without overflowing at math.MaxInt
func span(lo, hi int, fn func(int)) {
	for v := lo; ; v++ {
		fn(v)
		if v == hi {
			return
		}
	}
}

//roundInto rounds v to the nearest int clamped into [lo, hi]
func roundInto(v float64, lo, hi int) int {
	v = math.Round(v)
	if v <= float64(lo) {
		return lo
	}
	if v >= float64(hi) {
		return hi
	}
	return int(v)
}
