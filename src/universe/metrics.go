package universe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//board metrics, the gauges reflect the most recently stepped board
var (
	generationGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sparselife_generation",
		Help: "Generation of the most recently stepped board",
	})

	liveCellsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sparselife_live_cells",
		Help: "Living cells after the most recent step",
	})

	stepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sparselife_step_duration_seconds",
		Help:    "Time to compute and install one generation",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
	})

	stepRecomputes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sparselife_step_recomputes_total",
		Help: "Steps recomputed under the write lock because an edit raced the computation",
	})

	editsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sparselife_edits_total",
		Help: "Board edit operations by kind",
	}, []string{"op"})
)
