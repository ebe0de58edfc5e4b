package view

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sparselife/src/universe"
	"time"
)

//ConsoleOut prints the configuration and the progress of the non interactive simulation
type ConsoleOut struct {
	u         universe.Universe
	w         io.Writer
	startTime time.Time
	every     int
}

//NewConsoleOut creates the printer writing to stdout, the progress is reported every 10 iterations
func NewConsoleOut() *ConsoleOut {
	return NewConsoleOutTo(os.Stdout, 10)
}

//NewConsoleOutTo creates the printer writing to w, the progress is reported every n iterations
func NewConsoleOutTo(w io.Writer, every int) *ConsoleOut {
	if every <= 0 {
		every = 10
	}
	return &ConsoleOut{w: w, every: every}
}

func (c *ConsoleOut) Refresh() {
	st := c.u.Status()
	if st.RunningMode == universe.RunningStateFinished {
		c.Summary(st)
	} else if st.RunningMode == universe.RunningStateRun {
		if st.IterationNum%c.every == 0 {
			_, _ = fmt.Fprintf(c.w, "  Iterations done: %v, live cells: %v\n", st.IterationNum, st.LiveCells)
		}
	}
}

//Summary prints the final status
func (c *ConsoleOut) Summary(st universe.Status) {
	totalTime := time.Since(c.startTime).Round(time.Millisecond)
	resultData := map[string]interface{}{
		"Last iteration": st.IterationNum,
		"Total time":     totalTime,
		"Live cells":     st.LiveCells,
	}
	if r, ok := c.u.Board().Bounds(); ok {
		resultData["Bounds"] = r
	}
	_, _ = fmt.Fprintln(c.w, "\nFinished:")
	c.printHashData(resultData)
}

func (c *ConsoleOut) Register(u universe.Universe) {
	c.u = u
	o := c.u.Options()
	_, _ = fmt.Fprintln(c.w, "Running configuration:")
	_, _ = fmt.Fprintf(c.w, "  Seeding window: %v x %v\n", o.Width, o.Height)
	_, _ = fmt.Fprintf(c.w, "  Interval: %v\n", o.Interval)
	_, _ = fmt.Fprintf(c.w, "  Max iterations: %v steps\n", o.MaxSteps)
	c.printHashData(o.Advanced)
}

func (c *ConsoleOut) Start() {
	c.startTime = time.Now()
	_, _ = fmt.Fprintln(c.w, "\nSimulation started...")
}

func (c *ConsoleOut) printHashData(d map[string]interface{}) {
	propNames := make([]string, 0, len(d))
	for k := range d {
		propNames = append(propNames, k)
	}
	sort.Strings(propNames)
	for _, propName := range propNames {
		_, _ = fmt.Fprintf(c.w, "  %s: %v\n", propName, d[propName])
	}
}
