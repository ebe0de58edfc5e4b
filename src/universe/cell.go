package universe

import (
	"cmp"
	"math"
)

//Cell is the coordinate of one grid position
//the grid is unbounded, any pair of ints is a valid cell
type Cell struct {
	X int
	Y int
}

//CompareCells orders cells by X first, then by Y
func CompareCells(a, b Cell) int {
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	return cmp.Compare(a.Y, b.Y)
}

func (c Cell) Equal(o Cell) bool {
	return c == o
}

//eachNeighbour calls fn for each of the up to 8 cells around c
//neighbours past the int range do not exist and are skipped
func (c Cell) eachNeighbour(fn func(Cell)) {
	for dx := -1; dx <= 1; dx++ {
		if (dx < 0 && c.X == math.MinInt) || (dx > 0 && c.X == math.MaxInt) {
			continue
		}
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if (dy < 0 && c.Y == math.MinInt) || (dy > 0 && c.Y == math.MaxInt) {
				continue
			}
			fn(Cell{c.X + dx, c.Y + dy})
		}
	}
}

//atCell returns the key func locating c in the cell order
func atCell(c Cell) func(Cell) int {
	return func(o Cell) int { return CompareCells(o, c) }
}

//byX returns the key func matching every cell in the column x
func byX(x int) func(Cell) int {
	return func(c Cell) int { return cmp.Compare(c.X, x) }
}
