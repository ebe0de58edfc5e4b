package universe

import (
	"log/slog"
	"time"
)

//Universe is the scheduler driving a Board: it runs the steps periodically,
//settles the seeding templates and notifies the viewers
type Universe interface {
	Status() Status
	Options() Options
	Board() *Board
	StateCh() chan Status
	AddTemplate(tmpl Template) error
	SettleTemplate(name string) error
	SettleWithRandomData()
	Settle(vc [][]int)
	InverseCell(x int, y int)
	RegisterViewer(v Viewer)
	Run()
	Stop()
	Step()
	Clear()
	Close()
}

//Options represents the Universe's configurable options
type Options struct {
	Width           int //width of the seeding window
	Height          int //height of the seeding window
	Interval        time.Duration
	MaxSteps        int
	MaxSkippedTicks int
	Rules           Rules
	Logger          *slog.Logger
	Advanced        map[string]interface{} //advanced options (engine specific)
}

//Status represents the status of the Universe at concrete moment
type Status struct {
	IterationNum  int
	RunningMode   RunningState
	LiveCells     int
	IterationTime time.Duration
	Details       map[string]interface{} //advanced details (engine specific)
}

//Viewer is the interface to any Viewer - the object who can display simulation data or control the engine
type Viewer interface {
	Refresh()
	Register(u Universe)
	Start()
}

//The universe running status at the concrete moment
type RunningState int

//default options
const (
	DefSimulationInterval = time.Millisecond * 100
	DefMaxSteps           = 1000
	DefWidth              = 40
	DefHeight             = 15
	DefMaxSkippedTicks    = 5
)

const (
	RunningStateManual   RunningState = 0x0
	RunningStateStep     RunningState = 0x1
	RunningStateRun      RunningState = 0x2
	RunningStateFinished RunningState = 0x3
)

func (s RunningState) String() string {
	switch s {
	case RunningStateManual:
		return "manual"
	case RunningStateStep:
		return "step"
	case RunningStateRun:
		return "run"
	case RunningStateFinished:
		return "finished"
	}
	return "unknown"
}

var DefaultUniverseOptions = Options{
	Width:           DefWidth,
	Height:          DefHeight,
	Interval:        DefSimulationInterval,
	MaxSteps:        DefMaxSteps,
	MaxSkippedTicks: DefMaxSkippedTicks,
	Rules:           ConwayRules,
}
