package view

import (
	"bytes"
	"fmt"
	"github.com/jroimartin/gocui"
	"github.com/logrusorgru/aurora"
	"log"
	"sparselife/src/universe"
	"strings"
	"sync"
	"time"
)

type keyBindings struct {
	key      interface{}
	name     string
	descr    string
	handler  func(v *gocui.View) error
	viewName string
}

//ConsoleUI is the terminal viewer of the board
//the battlefield view shows a window of the unbounded board which can be moved with the arrow keys,
//the selection is the rectangle the editing commands (border, oval, rotate, clear) are applied to
type ConsoleUI struct {
	u universe.Universe
	g *gocui.Gui
	k []keyBindings

	mu     sync.Mutex
	origin universe.Cell //board cell shown at the top left corner
	sel    universe.Rect
	msg    string

	liveFiller string
	deadFiller string
	selFiller  string
}

const (
	defSelectionSize = 8
	panStep          = 4
)

var (
	runningStateDescr = map[universe.RunningState]string{
		universe.RunningStateManual:   aurora.Colorize("waiting", aurora.BlueFg).String(),
		universe.RunningStateStep:     "do the step",
		universe.RunningStateRun:      aurora.Colorize("running", aurora.CyanFg).String(),
		universe.RunningStateFinished: aurora.Colorize("finished", aurora.RedFg).String(),
	}
)

func NewViewTerminal() *ConsoleUI {

	var err error
	t := ConsoleUI{
		liveFiller: aurora.Green("█").BgBrightGreen().String(),
		deadFiller: "░",
		selFiller:  aurora.Yellow("▒").String(),
		sel:        universe.Rect{X: 2, Y: 2, Width: defSelectionSize, Height: defSelectionSize},
	}

	t.g, err = gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		log.Panicln(err)
	}

	t.g.Mouse = true
	t.k = []keyBindings{
		{gocui.KeyCtrlC, "^C", "Exit", t.cmdQuit, ""},
		{'n', "N", "Next step", t.cmdNextRound, ""},
		{'r', "R", "Run", t.cmdRun, ""},
		{'s', "S", "Stop", t.cmdStop, ""},
		{'c', "C", "Clear", t.cmdClear, ""},
		{'w', "W", "Settle with random", t.cmdSettleWithRandom, ""},
		{gocui.KeyArrowLeft, "←", "Pan", t.pan(-panStep, 0), ""},
		{gocui.KeyArrowRight, "→", "Pan", t.pan(panStep, 0), ""},
		{gocui.KeyArrowUp, "↑", "Pan", t.pan(0, -panStep), ""},
		{gocui.KeyArrowDown, "↓", "Pan", t.pan(0, panStep), ""},
		{'b', "B", "Selection border", t.cmdSquare, ""},
		{'o', "O", "Selection oval", t.cmdOval, ""},
		{'x', "X", "Clear selection", t.cmdClearArea, ""},
		{']', "]", "Rotate CW", t.cmdRotate(true), ""},
		{'[', "[", "Rotate CCW", t.cmdRotate(false), ""},
		{'+', "+", "Grow selection", t.resizeSelection(1), ""},
		{'-', "-", "Shrink selection", t.resizeSelection(-1), ""},
		{gocui.MouseLeft, "MOUSE", "Settle the cell", t.cmdMouseClick, "battlefield"},
		{gocui.MouseRight, "RMOUSE", "Move selection", t.cmdMoveSelection, "battlefield"},
	}
	t.g.SetManagerFunc(t.layout)

	t.initKeyBindings(t.k)

	return &t
}

func (t *ConsoleUI) initKeyBindings(k []keyBindings) {
	for _, kb := range k {
		h := kb.handler
		if err := t.g.SetKeybinding(kb.viewName, kb.key, gocui.ModNone, func(gui *gocui.Gui, view *gocui.View) error { return h(view) }); err != nil {
			log.Panicln(err)
		}
	}
}

func (t *ConsoleUI) Register(u universe.Universe) {
	t.u = u
}

func (t *ConsoleUI) Start() {
	if err := t.g.MainLoop(); err != nil && err != gocui.ErrQuit {
		log.Panicln(err)
	}
	t.g.Close()
}

func (t *ConsoleUI) Refresh() {
	t.renderField()
	t.renderConfiguration()
	t.renderStatus()
}

func (t *ConsoleUI) renderField() {

	t.g.Update(func(g *gocui.Gui) error {
		v, e := g.View("battlefield")
		if e != nil {
			return e
		}
		//the entire field is redrawing at once now
		v.Clear()

		maxW, maxH := v.Size()
		t.mu.Lock()
		window := universe.Rect{X: t.origin.X, Y: t.origin.Y, Width: maxW, Height: maxH}
		sel := t.sel
		t.mu.Unlock()

		a, err := t.u.Board().Window(window)
		if err != nil {
			_, _ = fmt.Fprint(v, aurora.Red(err.Error()).BgBlack().String())
			return nil
		}

		var b bytes.Buffer
		for i, l := range a.Entities {
			//line feed char
			if i != 0 {
				b.WriteByte(10)
			}
			for j, e := range l {
				switch {
				case e:
					b.WriteString(t.liveFiller)
				case sel.Contains(universe.Cell{X: a.X + j, Y: a.Y + i}):
					b.WriteString(t.selFiller)
				default:
					b.WriteString(t.deadFiller)
				}
			}
		}
		_, _ = fmt.Fprint(v, b.String())
		return nil
	})
}

func (t *ConsoleUI) renderStatus() {
	s := t.u.Status()
	t.mu.Lock()
	origin, sel, msg := t.origin, t.sel, t.msg
	t.mu.Unlock()
	t.g.Update(func(g *gocui.Gui) error {
		if v, e := t.g.View("status"); e == nil {
			v.Clear()
			_, _ = fmt.Fprintln(v, t.renderProp("Step", "%v", s.IterationNum))
			_, _ = fmt.Fprintln(v, t.renderProp("Live Cells", "%v", s.LiveCells))
			_, _ = fmt.Fprintln(v, t.renderProp("Evaluation time", "%v", s.IterationTime.Round(time.Microsecond)))
			_, _ = fmt.Fprintln(v, t.renderProp("Mode", "%v", runningStateDescr[s.RunningMode]))
			_, _ = fmt.Fprintln(v, t.renderProp("Origin", "%v,%v", origin.X, origin.Y))
			_, _ = fmt.Fprintln(v, t.renderProp("Selection", "%v", sel))
			if msg != "" {
				_, _ = fmt.Fprintln(v, " "+aurora.Red(msg).String())
			}
		}
		return nil
	})
}

func (t *ConsoleUI) renderConfiguration() {
	//it needs to call Update when calls from goroutine
	t.g.Update(func(g *gocui.Gui) error {
		c := t.u.Options()
		if v, e := g.View("configuration"); e == nil {
			v.Clear()
			_, _ = fmt.Fprintln(v, t.renderProp("Rules", "%v", c.Rules.Name()))
			_, _ = fmt.Fprintln(v, t.renderProp("Notation", "%v", c.Rules.String()))
			_, _ = fmt.Fprintln(v, t.renderProp("Interval", "%v", c.Interval))
			_, _ = fmt.Fprintln(v, t.renderProp("Iterations", "%v steps", c.MaxSteps))
		}
		return nil
	})
}

func (t *ConsoleUI) renderProp(name string, valueformat string, values ...interface{}) string {
	return fmt.Sprintf(" "+aurora.Colorize(name, aurora.GreenFg).String()+": "+valueformat, values...)
}

func (t *ConsoleUI) layout(g *gocui.Gui) error {

	maxX, maxY := g.Size()
	leftColumnWidth := 32
	minWindowHeight := 20

	if maxY < minWindowHeight {
		if _, err := t.headerLayout(g, maxY, "Terminal height too small"); err != nil {
			if err != gocui.ErrUnknownView {
				return err
			}
		}
		_ = g.DeleteView("configuration")
		_ = g.DeleteView("status")
		_ = g.DeleteView("battlefield")
		return nil

	} else {
		if _, err := t.headerLayout(g, 3, "This is \"The Life\" game simulation"); err != nil {
			if err != gocui.ErrUnknownView {
				return err
			}
		}
	}

	if v, err := g.SetView("configuration", 0, 3, leftColumnWidth, 3+(maxY-5-3)/2); err != nil {
		if err != gocui.ErrUnknownView || v == nil {
			return err
		}
		v.Title = "Configuration"
		v.Frame = true
		t.renderConfiguration()
	}

	if v, err := g.SetView("status", 0, 3+(maxY-5-3)/2+1, leftColumnWidth, maxY-5); err != nil {
		if err != gocui.ErrUnknownView || v == nil {
			return err
		}
		v.Title = "Status"
		v.Frame = true
		t.renderStatus()
	}

	if v, err := g.SetView("battlefield", leftColumnWidth+1, 3, maxX-1, maxY-5); err != nil {
		if err != gocui.ErrUnknownView || v == nil {
			return err
		}
		v.Title = "Battle Field"
		v.Frame = true
	}
	t.renderField()

	if v, err := g.SetView("help", -1, maxY-5, maxX, maxY-3); err != nil {
		if err != gocui.ErrUnknownView || v == nil {
			return err
		}
		v.Frame = false
		v.Wrap = true
		b := bytes.Buffer{}
		b.WriteString("KEYBINDINGS: ")
		for i, k := range t.k {
			if i != 0 {
				b.WriteString(", ")
			}
			b.WriteString(aurora.Green(k.name).String())
			b.WriteString(": ")
			b.WriteString(k.descr)
		}
		_, _ = fmt.Fprintln(v, b.String())
	}

	return nil
}

func (t *ConsoleUI) headerLayout(g *gocui.Gui, height int, text string) (v *gocui.View, err error) {
	maxX, _ := g.Size()
	if v, err = g.SetView("header", -1, -1, maxX+1, height); err != nil {
		if err == gocui.ErrUnknownView && v != nil {
			v.Frame = false
			v.BgColor = gocui.ColorCyan
			v.FgColor = gocui.ColorBlack
		}
	}
	if v != nil {
		v.Clear()
		if maxX < len(text) {
			panic(fmt.Sprintf("Terminal width is too small: %v", maxX))
		}
		_, _ = fmt.Fprintln(v, strings.Repeat("\n", height/2+1)+strings.Repeat(" ", (maxX-len(text))/2)+text)
	}
	return
}

//edit runs the board edit against the selection and reports its error in the status view
func (t *ConsoleUI) edit(op func(b *universe.Board, sel universe.Rect) (universe.Rect, error)) error {
	t.mu.Lock()
	sel := t.sel
	t.mu.Unlock()
	next, err := op(t.u.Board(), sel)
	t.mu.Lock()
	if err != nil {
		t.msg = err.Error()
	} else {
		t.msg = ""
		t.sel = next
	}
	t.mu.Unlock()
	t.Refresh()
	return nil
}

func (t *ConsoleUI) cmdQuit(_ *gocui.View) error {
	return gocui.ErrQuit
}

func (t *ConsoleUI) cmdNextRound(_ *gocui.View) error {
	t.u.Step()
	return nil
}

func (t *ConsoleUI) cmdRun(_ *gocui.View) error {
	t.u.Run()
	return nil
}

func (t *ConsoleUI) cmdStop(_ *gocui.View) error {
	t.u.Stop()
	return nil
}

func (t *ConsoleUI) cmdClear(_ *gocui.View) error {
	t.u.Clear()
	return nil
}

func (t *ConsoleUI) cmdSettleWithRandom(_ *gocui.View) error {
	t.u.SettleWithRandomData()
	return nil
}

func (t *ConsoleUI) cmdSquare(_ *gocui.View) error {
	return t.edit(func(b *universe.Board, sel universe.Rect) (universe.Rect, error) {
		return sel, b.Square(sel)
	})
}

func (t *ConsoleUI) cmdOval(_ *gocui.View) error {
	return t.edit(func(b *universe.Board, sel universe.Rect) (universe.Rect, error) {
		return sel, b.Oval(sel)
	})
}

func (t *ConsoleUI) cmdClearArea(_ *gocui.View) error {
	return t.edit(func(b *universe.Board, sel universe.Rect) (universe.Rect, error) {
		return sel, b.ClearArea(sel)
	})
}

func (t *ConsoleUI) cmdRotate(clockwise bool) func(*gocui.View) error {
	return func(_ *gocui.View) error {
		return t.edit(func(b *universe.Board, sel universe.Rect) (universe.Rect, error) {
			if clockwise {
				return b.RotateCW(sel)
			}
			return b.RotateCCW(sel)
		})
	}
}

func (t *ConsoleUI) resizeSelection(d int) func(*gocui.View) error {
	return func(_ *gocui.View) error {
		t.mu.Lock()
		if t.sel.Width+d > 0 && t.sel.Height+d > 0 {
			t.sel.Width += d
			t.sel.Height += d
		}
		t.mu.Unlock()
		t.Refresh()
		return nil
	}
}

func (t *ConsoleUI) pan(dx, dy int) func(*gocui.View) error {
	return func(_ *gocui.View) error {
		t.mu.Lock()
		t.origin.X += dx
		t.origin.Y += dy
		t.mu.Unlock()
		t.Refresh()
		return nil
	}
}

//clickedCell converts the cursor position in the battlefield view into the board cell
func (t *ConsoleUI) clickedCell(v *gocui.View) universe.Cell {
	cx, cy := v.Cursor()
	t.mu.Lock()
	defer t.mu.Unlock()
	return universe.Cell{X: t.origin.X + cx, Y: t.origin.Y + cy}
}

func (t *ConsoleUI) cmdMouseClick(v *gocui.View) error {
	c := t.clickedCell(v)
	t.u.InverseCell(c.X, c.Y)
	return nil
}

func (t *ConsoleUI) cmdMoveSelection(v *gocui.View) error {
	c := t.clickedCell(v)
	t.mu.Lock()
	t.sel.X, t.sel.Y = c.X, c.Y
	t.mu.Unlock()
	t.Refresh()
	return nil
}
