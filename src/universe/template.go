package universe

import (
	"errors"
	"fmt"
)

var (
	//ErrUnknownTemplate is returned when settling with the template which was not added
	ErrUnknownTemplate = errors.New("unknown template")
	//ErrBadTemplate is returned for the template with malformed coordinates
	ErrBadTemplate = errors.New("bad template")
)

//Template represent the seeding template which can used to settle the universe with predefined data
type Template struct {
	Name        string  //template name
	Descr       string  //template descr
	Coordinates [][]int //array of [x,y] coordinates
}

//MatrixTemplate builds the template from the boolean matrix placed with rows[0][0] at anchor
func MatrixTemplate(name string, descr string, anchor Cell, rows [][]bool) Template {
	t := Template{Name: name, Descr: descr}
	for dy, row := range rows {
		for dx, alive := range row {
			if alive {
				t.Coordinates = append(t.Coordinates, []int{anchor.X + dx, anchor.Y + dy})
			}
		}
	}
	return t
}

//Validate checks that every coordinate is an x,y pair
func (t Template) Validate() error {
	for i, v := range t.Coordinates {
		if len(v) != 2 {
			return fmt.Errorf("%w: %q coordinate #%d has %d values", ErrBadTemplate, t.Name, i, len(v))
		}
	}
	return nil
}

//Cells returns the template coordinates as cells
func (t Template) Cells() []Cell {
	cells := make([]Cell, 0, len(t.Coordinates))
	for _, v := range t.Coordinates {
		if len(v) == 2 {
			cells = append(cells, Cell{v[0], v[1]})
		}
	}
	return cells
}

//Stamp sets alive every template cell on the board, offset by the given cell
func (t Template) Stamp(b *Board, offset Cell) {
	for _, c := range t.Cells() {
		b.SetAlive(c.X+offset.X, c.Y+offset.Y, true)
	}
}
