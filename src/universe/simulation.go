package universe

import "sparselife/src/sortedset"

//candidate is a cell seen next to at least one living cell with the count of such sightings
type candidate struct {
	Cell
	neighbours int
}

func compareCandidates(a, b candidate) int {
	return CompareCells(a.Cell, b.Cell)
}

func newCellSet() *sortedset.Set[Cell] {
	return sortedset.New(CompareCells)
}

//Compute calculates the next generation of the living cells
//only the cells around living ones are visited, the cost does not depend on the board extent
//living is only read, the result is a new set
func Compute(living *sortedset.Set[Cell], rules Rules) *sortedset.Set[Cell] {
	next := newCellSet()
	for c := range candidates(living).All() {
		alive := living.Contains(c.Cell)
		if (alive && rules.Survives(c.neighbours)) || (!alive && rules.Born(c.neighbours)) {
			next.Insert(c.Cell)
		}
	}
	//living cells without neighbours are never candidates, S0 keeps them
	if rules.Survives(0) {
		for c := range living.All() {
			if !next.Contains(c) && isolated(living, c) {
				next.Insert(c)
			}
		}
	}
	return next
}

//candidates counts for each cell how many living cells it is adjacent to
func candidates(living *sortedset.Set[Cell]) *sortedset.Set[candidate] {
	counts := sortedset.New(compareCandidates)
	inc := func(stored *candidate) { stored.neighbours++ }
	for c := range living.All() {
		c.eachNeighbour(func(n Cell) {
			counts.Upsert(candidate{Cell: n, neighbours: 1}, inc)
		})
	}
	return counts
}

func isolated(living *sortedset.Set[Cell], c Cell) bool {
	alone := true
	c.eachNeighbour(func(n Cell) {
		if alone && living.Contains(n) {
			alone = false
		}
	})
	return alone
}
