package universe

import (
	"fmt"
	"log/slog"
	"maps"
	"math/rand"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

//SparseUniverse is the universe's engine over the sparse Board
//implements Universe interface
//all the control commands are executed one by one by the main loop goroutine,
//the board edits (Settle, InverseCell) go to the board directly
type SparseUniverse struct {
	options Options
	board   *Board
	log     *slog.Logger
	state   struct {
		Status
		sync.Mutex
	}
	stateCh chan Status
	views   struct {
		list []Viewer
		sync.RWMutex
	}
	templates struct {
		m map[string]Template
		sync.Mutex
	}
	controlCh chan func()
	closeCh   chan bool
	closed    chan struct{}
	//runDone is closed when the current run ends, owned by the main loop goroutine
	runDone chan struct{}
}

//NewSparseUniverse creates the SparseUniverse instance and starts its main loop
//stateCh may be nil, otherwise every running state switch is written to it and it must be drained
func NewSparseUniverse(o *Options, stateCh chan Status) *SparseUniverse {
	if o == nil {
		o = &DefaultUniverseOptions
	}
	u := SparseUniverse{
		options:   *o,
		controlCh: make(chan func(), 1),
		closeCh:   make(chan bool, 1),
		closed:    make(chan struct{}),
		stateCh:   stateCh,
	}
	u.options.Advanced = maps.Clone(o.Advanced)
	if u.options.Advanced == nil {
		u.options.Advanced = make(map[string]interface{})
	}
	u.board = NewBoard(o.Rules)
	u.options.Rules = u.board.Rules()
	u.options.Advanced["engine"] = "sparse"
	u.options.Advanced["rules"] = u.options.Rules.Name() + " " + u.options.Rules.String()

	u.log = o.Logger
	if u.log == nil {
		u.log = slog.Default()
	}
	u.log = u.log.With("component", "universe")
	u.templates.m = map[string]Template{}
	u.state.Details = make(map[string]interface{})

	go u.mainLoop()
	return &u
}

//AddTemplate adds the seeding template to the internal storage
//the universe can be populated with this template by call SettleTemplate
func (u *SparseUniverse) AddTemplate(tmpl Template) error {
	if err := tmpl.Validate(); err != nil {
		return err
	}
	u.templates.Lock()
	u.templates.m[tmpl.Name] = tmpl
	u.templates.Unlock()
	return nil
}

//Settle settles the universe with data
//vc - array of x,y coordinates, malformed entries are skipped
func (u *SparseUniverse) Settle(vc [][]int) {
	Template{Coordinates: vc}.Stamp(u.board, Cell{})
	u.refreshView()
}

//SettleTemplate populates the universe with the seeding template
func (u *SparseUniverse) SettleTemplate(name string) error {
	u.templates.Lock()
	tmpl, ok := u.templates.m[name]
	u.templates.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	tmpl.Stamp(u.board, Cell{})
	u.log.Info("template settled", "template", name, "cells", len(tmpl.Coordinates))
	u.refreshView()
	return nil
}

//SettleWithRandomData clears the universe and populates the seeding window with random data
//does nothing while the simulation is running
func (u *SparseUniverse) SettleWithRandomData() {
	mode := u.runningMode()
	if mode != RunningStateManual && mode != RunningStateFinished {
		return
	}
	u.exec(u.clear)
	u.exec(func() {
		w, h := u.options.Width, u.options.Height
		if w <= 0 || h <= 0 {
			return
		}
		for i := 0; i < w*h; i++ {
			u.board.SetAlive(rand.Intn(w), rand.Intn(h), true)
		}
		u.log.Info("settled with random data", "width", w, "height", h, "cells", u.board.LiveCells())
		u.refreshView()
	})
}

//InverseCell inverses the cell state at point x, y
func (u *SparseUniverse) InverseCell(x int, y int) {
	u.board.Toggle(x, y)
	u.refreshView()
}

//RegisterViewer registers the viewer - the universe will call the viewer when the state is changed
func (u *SparseUniverse) RegisterViewer(v Viewer) {
	u.views.Lock()
	u.views.list = append(u.views.list, v)
	u.views.Unlock()
	v.Register(u)
}

//StateCh returns the channel with the universe's status updates
func (u *SparseUniverse) StateCh() chan Status {
	return u.stateCh
}

//Status returns current universe status represented by Status struct
func (u *SparseUniverse) Status() Status {
	u.state.Lock()
	st := u.state.Status
	st.Details = maps.Clone(u.state.Details)
	u.state.Unlock()
	st.IterationNum = u.board.Generation()
	st.LiveCells = u.board.LiveCells()
	return st
}

//Options returns current universe configuration represented by Options struct
func (u *SparseUniverse) Options() Options {
	return u.options
}

//Board returns the board the universe drives
func (u *SparseUniverse) Board() *Board {
	return u.board
}

//Run starts the universe simulation, returns immediately
func (u *SparseUniverse) Run() {
	u.exec(u.run)
}

//Stop stops the universe simulation, returns immediately
//the Status struct will be written the stateCh on finish
func (u *SparseUniverse) Stop() {
	u.exec(u.stop)
}

//Step do one simulation step, returns immediately
//the Status struct will be written to the stateCh on start and on finish
func (u *SparseUniverse) Step() {
	u.exec(u.step)
}

//Clear clears the universe (kill all cells and reset all counters), returns immediately
//the Status struct will be written to the stateCh on finish
func (u *SparseUniverse) Clear() {
	u.exec(u.clear)
}

//Close stops the main loop, returns immediately
//the commands sent after Close are dropped
func (u *SparseUniverse) Close() {
	select {
	case u.closeCh <- true:
	default:
	}
}

//exec queues the command to the main loop, false if the universe is closed
func (u *SparseUniverse) exec(cmd func()) bool {
	select {
	case u.controlCh <- cmd:
		return true
	case <-u.closed:
		return false
	}
}

//mainLoop - the main cycle, should start as a goroutine
//waits for command and executes
func (u *SparseUniverse) mainLoop() {
	var c = false
	for !c {
		select {
		case cmd := <-u.controlCh:
			cmd()
		case c = <-u.closeCh:
		}
	}
	close(u.closed)
}

func (u *SparseUniverse) runningMode() RunningState {
	u.state.Lock()
	defer u.state.Unlock()
	return u.state.RunningMode
}

//switchRunningState switch the state of the universe to RunningState
//also writes the new state to the stateCh to signal upper control software
func (u *SparseUniverse) switchRunningState(to RunningState) {
	u.state.Lock()
	u.state.RunningMode = to
	u.state.Unlock()
	if u.stateCh != nil {
		u.stateCh <- u.Status()
	}
}

//run starts the universe simulation
//simulation will stop on Stop() calling or when the boundary conditions are reached
//a tick is skipped while the previous step is still calculated, too many skipped ticks finish the run
//every run is driven by its own goroutine which exits as soon as its runDone is closed
func (u *SparseUniverse) run() {
	if u.runningMode() == RunningStateRun {
		return
	}
	u.endRun()
	runDone := make(chan struct{})
	u.runDone = runDone
	u.switchRunningState(RunningStateRun)
	u.log.Info("simulation started", "interval", u.options.Interval, "max_steps", u.options.MaxSteps)
	go func() {
		var busy atomic.Bool
		skipped := 0
		for {
			select {
			case <-runDone:
				return
			default:
			}
			if busy.Load() {
				skipped++
				if skipped > u.options.MaxSkippedTicks {
					u.log.Warn("simulation can't keep up with the interval, finishing",
						"interval", u.options.Interval, "skipped_ticks", skipped)
					u.exec(func() {
						if u.runDone == runDone {
							u.endRun()
							u.switchRunningState(RunningStateFinished)
						}
					})
					return
				}
			} else {
				skipped = 0
				busy.Store(true)
				done := make(chan struct{})
				if !u.exec(func() {
					//the run may be stopped while this command was queued
					if u.runDone == runDone {
						u.step()
					}
					busy.Store(false)
					close(done)
				}) {
					return
				}
				if u.options.Interval <= 0 {
					select {
					case <-done:
					case <-runDone:
						return
					case <-u.closed:
						return
					}
				}
			}
			if u.options.Interval > 0 {
				select {
				case <-time.After(u.options.Interval):
				case <-runDone:
					return
				case <-u.closed:
					return
				}
			}
		}
	}()
}

//endRun signals the goroutine of the current run to exit, main loop goroutine only
func (u *SparseUniverse) endRun() {
	if u.runDone != nil {
		close(u.runDone)
		u.runDone = nil
	}
}

//stop stops the universe running cycle
func (u *SparseUniverse) stop() {
	if u.runningMode() == RunningStateRun {
		u.endRun()
		u.switchRunningState(RunningStateManual)
		u.log.Info("simulation stopped", "generation", u.board.Generation())
	}
}

//step does the one generation calculation for the board
//the run finishes when the population dies out, stops changing or MaxSteps is reached
func (u *SparseUniverse) step() {
	rm := u.runningMode()
	maxIter := u.options.MaxSteps
	finished := false
	defer func() {
		if finished {
			u.endRun()
			u.switchRunningState(RunningStateFinished)
			st := u.Status()
			u.log.Info("simulation finished", "generation", st.IterationNum, "live_cells", st.LiveCells)
		} else {
			u.switchRunningState(rm)
		}
		u.refreshView()
	}()

	if maxIter != 0 && u.board.Generation() >= maxIter {
		finished = true
		return
	}
	u.switchRunningState(RunningStateStep)
	res := u.board.Step()
	u.state.Lock()
	u.state.IterationTime = res.Duration
	u.state.Details["changed"] = res.Changed
	u.state.Unlock()
	u.log.Debug("step", "generation", res.Generation, "live_cells", res.LiveCells, "duration", res.Duration)

	if res.LiveCells == 0 || !res.Changed || (maxIter != 0 && res.Generation >= maxIter) {
		finished = true
	}
}

//clear clears the universe data, reset all counters
func (u *SparseUniverse) clear() {
	u.endRun()
	u.board.Clear()
	u.state.Lock()
	u.state.IterationTime = 0
	u.state.Details = make(map[string]interface{})
	u.state.Unlock()
	u.switchRunningState(RunningStateManual)
	u.refreshView()
}

//refreshView calls Refresh event for all registered views
func (u *SparseUniverse) refreshView() {
	u.views.RLock()
	views := slices.Clone(u.views.list)
	u.views.RUnlock()
	for _, v := range views {
		v.Refresh()
	}
}
