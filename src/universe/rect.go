package universe

import (
	"errors"
	"fmt"
	"math"
)

//ErrOutOfRange is returned when a rectangle does not fit into the int coordinate space
var ErrOutOfRange = errors.New("rectangle out of coordinate range")

//Rect is the closed rectangle of cells [X, X+Width-1] x [Y, Y+Height-1]
//a rectangle with Width or Height <= 0 is empty
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

//RectFromCorners builds the rectangle spanning both corner cells inclusive
//ErrOutOfRange is returned when its width or height does not fit into int
func RectFromCorners(a, b Cell) (Rect, error) {
	r := Rect{X: min(a.X, b.X), Y: min(a.Y, b.Y)}
	var okW, okH bool
	r.Width, okW = spanLen(r.X, max(a.X, b.X))
	r.Height, okH = spanLen(r.Y, max(a.Y, b.Y))
	if !okW || !okH {
		return Rect{}, fmt.Errorf("%w: corners %v and %v", ErrOutOfRange, a, b)
	}
	return r, nil
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

//MaxX is the right border column, valid for non-empty rectangles only
func (r Rect) MaxX() int {
	return r.X + r.Width - 1
}

//MaxY is the bottom border row, valid for non-empty rectangles only
func (r Rect) MaxY() int {
	return r.Y + r.Height - 1
}

func (r Rect) Contains(c Cell) bool {
	return !r.Empty() && c.X >= r.X && c.X <= r.MaxX() && c.Y >= r.Y && c.Y <= r.MaxY()
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

//validate checks that the borders of the non-empty rectangle are representable
func (r Rect) validate() error {
	if r.X > math.MaxInt-(r.Width-1) || r.Y > math.MaxInt-(r.Height-1) {
		return fmt.Errorf("%w: %v", ErrOutOfRange, r)
	}
	return nil
}

//rotated returns the rectangle with transposed dimensions sharing the centre of r
//the truncating division keeps CW and CCW exact inverses of each other
func (r Rect) rotated() (Rect, error) {
	shift := (r.Width - r.Height) / 2
	n := Rect{Width: r.Height, Height: r.Width}
	var ok bool
	if n.X, ok = addInt(r.X, shift); !ok {
		return Rect{}, fmt.Errorf("%w: rotating %v", ErrOutOfRange, r)
	}
	if n.Y, ok = addInt(r.Y, -shift); !ok {
		return Rect{}, fmt.Errorf("%w: rotating %v", ErrOutOfRange, r)
	}
	if err := n.validate(); err != nil {
		return Rect{}, fmt.Errorf("rotating %v: %w", r, err)
	}
	return n, nil
}

//area returns Width*Height, false on overflow
func (r Rect) area() (int, bool) {
	if r.Height != 0 && r.Width > math.MaxInt/r.Height {
		return 0, false
	}
	return r.Width * r.Height, true
}

//spanLen returns hi-lo+1 for lo <= hi, false when it does not fit into int
func spanLen(lo, hi int) (int, bool) {
	d := uint(hi) - uint(lo)
	if d >= math.MaxInt {
		return 0, false
	}
	return int(d) + 1, true
}

func addInt(a, b int) (int, bool) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, false
	}
	return s, true
}
