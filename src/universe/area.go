package universe

//Area is the dense copy of a rectangular window of the board
//Entities[y][x] is the state of the cell X+x, Y+y
type Area struct {
	X        int
	Y        int
	Width    int
	Height   int
	Entities [][]bool
}

//Rect returns the board rectangle covered by the area
func (a Area) Rect() Rect {
	return Rect{X: a.X, Y: a.Y, Width: a.Width, Height: a.Height}
}

//LiveCells counts the living cells inside the area
func (a Area) LiveCells() int {
	n := 0
	for _, row := range a.Entities {
		for _, e := range row {
			if e {
				n++
			}
		}
	}
	return n
}

//createArea allocates the new area backed by one slice
func createArea(width int, height int) Area {
	area := Area{Width: width, Height: height, Entities: make([][]bool, height)}
	b := make([]bool, width*height)
	for i := range area.Entities {
		start := width * i
		area.Entities[i] = b[start : start+width : start+width]
	}
	return area
}
