package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sparselife/src/config"
	"sparselife/src/universe"
	"sparselife/src/view"
	"strings"
	"time"

	"github.com/integrii/flaggy"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	testSample = [][]int{
		{1, 1}, {1, 2},
		{2, 1}, {2, 2},
		{3, 3},
		{4, 2},
		{4, 3},
		{5, 3},
	}
)

//unset marks the numeric flag which was not given on the command line
const unset = -1

//givenOptions holds the universe options exactly as given by the flags
type givenOptions struct {
	width    int
	height   int
	maxSteps int
	interval time.Duration
}

//apply copies the given flags over uo, the flags left unset keep the uo values
func (g givenOptions) apply(uo *universe.Options) {
	if g.width != unset {
		uo.Width = g.width
	}
	if g.height != unset {
		uo.Height = g.height
	}
	if g.maxSteps != unset {
		uo.MaxSteps = g.maxSteps
	}
	if g.interval != unset {
		uo.Interval = g.interval
	}
}

type EnvOptions struct {
	given       givenOptions
	interactive bool
	randomData  bool
	rules       string
	configPath  string
	logLevel    string
	metricsAddr string
	template    string
}

func main() {
	eo, uo, templates, err := initOptions()
	if err != nil {
		flaggy.ShowHelpAndExit(err.Error())
	}

	uo.Logger = newLogger(eo)
	slog.SetDefault(uo.Logger)

	if eo.metricsAddr != "" {
		go serveMetrics(eo.metricsAddr, uo.Logger)
	}

	var stateCh chan universe.Status

	if !eo.interactive {
		stateCh = make(chan universe.Status, 10) //the buffered channel to getting the universe status
	}

	u := universe.NewSparseUniverse(uo, stateCh)

	for _, t := range templates {
		if err := u.AddTemplate(t); err != nil {
			uo.Logger.Error("skipping template", "template", t.Name, "err", err)
		}
	}

	if eo.randomData {
		u.SettleWithRandomData()
	} else if err := u.SettleTemplate(eo.template); err != nil {
		uo.Logger.Error("can't settle", "err", err)
		os.Exit(1)
	}

	if eo.interactive {
		v := view.NewViewTerminal()
		u.RegisterViewer(v)
		v.Start()
		u.Close()
	} else {
		v := view.NewConsoleOut()
		u.RegisterViewer(v)
		v.Start()
		u.Run()
		for {
			st := <-stateCh
			if st.RunningMode == universe.RunningStateFinished {
				break
			}
		}
		u.Close()
	}

}

//initOptions parses the command line, the flags override the configuration file
func initOptions() (eo *EnvOptions, uo *universe.Options, templates []universe.Template, err error) {

	o := universe.DefaultUniverseOptions
	uo = &o
	eo = &EnvOptions{
		template: "testSample1",
		given:    givenOptions{width: unset, height: unset, maxSteps: unset, interval: unset},
	}
	flaggy.DefaultParser.ShowHelpOnUnexpected = true
	flaggy.String(&eo.configPath, "c", "config", "YAML configuration file, the flags override its values")
	flaggy.Int(&eo.given.width, "x", "width", fmt.Sprintf("Width of the window settled with random data (%d if not set)", o.Width))
	flaggy.Int(&eo.given.height, "y", "height", fmt.Sprintf("Height of the window settled with random data (%d if not set)", o.Height))
	flaggy.Duration(&eo.given.interval, "i", "interval", fmt.Sprintf("Simulation speed (interval between the steps) in format the number with 'ms' suffix, for example 150ms (%v if not set)", o.Interval))
	flaggy.Int(&eo.given.maxSteps, "s", "maxSteps", fmt.Sprintf("Limit the simulation to maxSteps, 0 is unlimited (%d if not set)", o.MaxSteps))
	flaggy.Bool(&eo.interactive, "n", "interactive", "Start interactive mode")
	flaggy.Bool(&eo.randomData, "r", "random", "Settle with random data")
	flaggy.String(&eo.template, "t", "template", "Template to settle with")
	flaggy.String(&eo.rules, "u", "rules", "Rules: B/S notation or one of ["+strings.Join(universe.RulePresetNames(), "|")+"]")
	flaggy.String(&eo.logLevel, "l", "logLevel", "Log level [debug|info|warn|error]")
	flaggy.String(&eo.metricsAddr, "m", "metrics", "Serve the prometheus metrics on this address, for example :9100")

	flaggy.Parse()

	templates = []universe.Template{{
		Name:        "testSample1",
		Descr:       "the test sample with 3 stable patterns",
		Coordinates: testSample,
	}}

	if eo.configPath != "" {
		if err = applyConfig(eo, uo, &templates); err != nil {
			return
		}
	}
	eo.given.apply(uo)

	if eo.rules != "" {
		if uo.Rules, err = universe.LookupRules(eo.rules); err != nil {
			return
		}
	}
	if eo.logLevel != "" {
		if _, err = config.ParseLevel(eo.logLevel); err != nil {
			return
		}
	}
	if uo.Width < 0 || uo.Height < 0 || uo.MaxSteps < 0 || uo.Interval < 0 {
		err = errors.New("the sizes, the interval and maxSteps can't be negative")
	}
	return
}

//applyConfig loads the configuration file into uo
//the string options given by the flags are kept, the numeric ones are applied over uo afterwards
func applyConfig(eo *EnvOptions, uo *universe.Options, templates *[]universe.Template) error {
	c, err := config.Load(eo.configPath)
	if err != nil {
		return err
	}
	if err = c.Apply(uo); err != nil {
		return err
	}
	if eo.logLevel == "" {
		eo.logLevel = c.LogLevel
	}
	if eo.metricsAddr == "" {
		eo.metricsAddr = c.MetricsAddr
	}
	tt, err := c.UniverseTemplates()
	if err != nil {
		return err
	}
	*templates = append(*templates, tt...)
	return nil
}

//newLogger creates the text logger on stderr
//the interactive mode owns the terminal, it logs nothing unless the level is given explicitly
func newLogger(eo *EnvOptions) *slog.Logger {
	var w io.Writer = os.Stderr
	if eo.interactive && eo.logLevel == "" {
		w = io.Discard
	}
	level := slog.LevelInfo
	if eo.logLevel != "" {
		level, _ = config.ParseLevel(eo.logLevel)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func serveMetrics(addr string, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info("serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics server stopped", "err", fmt.Errorf("listening on %s: %w", addr, err))
	}
}
