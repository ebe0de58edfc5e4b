package universe

import (
	"testing"
)

var (
	testTemplate = Template{"ts1", "", [][]int{{1, 1}, {1, 2}, {2, 1}, {2, 2}, {3, 3}, {4, 2}, {4, 3}, {5, 3}}}
)

//waitFor reads the statuses until one of the modes comes
func waitFor(stateCh chan Status, modes ...RunningState) Status {
	for {
		st := <-stateCh
		for _, m := range modes {
			if st.RunningMode == m {
				return st
			}
		}
	}
}

func universeStep(u Universe, b *testing.B) {
	if err := u.AddTemplate(testTemplate); err != nil {
		b.Fatal(err)
	}
	stateCh := u.StateCh()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		u.Clear()
		<-stateCh //wait for finish
		_ = u.SettleTemplate("ts1")
		b.StartTimer()
		u.Step()
		waitFor(stateCh, RunningStateManual, RunningStateFinished)
	}
	u.Close()
}

func universeRun(u Universe, b *testing.B) {
	if err := u.AddTemplate(testTemplate); err != nil {
		b.Fatal(err)
	}
	stateCh := u.StateCh()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		u.Clear()
		<-stateCh //wait for finish
		_ = u.SettleTemplate("ts1")
		b.StartTimer()
		u.Run()
		waitFor(stateCh, RunningStateFinished)
	}
	u.Close()
}

func newStateCh() chan Status {
	return make(chan Status, 10)
}

func newUniverseOptions() *Options {
	o := DefaultUniverseOptions
	o.Interval = 0
	o.MaxSteps = 200
	return &o
}

func Benchmark_Step(b *testing.B) {
	u := NewSparseUniverse(newUniverseOptions(), newStateCh())
	universeStep(u, b)
}

func Benchmark_Universe(b *testing.B) {
	u := NewSparseUniverse(newUniverseOptions(), newStateCh())
	universeRun(u, b)
}
