package metrics

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// MSE returns the mean squared error between predictions and targets.
// It panics if the slices differ in length or are empty.
func MSE(pred, target []float64) float64 {
	if len(pred) != len(target) {
		panic("metrics: prediction and target lengths differ")
	}
	if len(pred) == 0 {
		panic("metrics: empty vectors")
	}
	sum := 0.0
	for i, p := range pred {
		d := p - target[i]
		sum += d * d
	}
	return sum / float64(len(pred))
}

// BaselineLoss returns the mean squared error obtained by always
// predicting the mean of targets. It is the naive reference a trained
// model has to beat.
func BaselineLoss(targets []float64) float64 {
	m := stat.Mean(targets, nil)
	sum := 0.0
	for _, y := range targets {
		d := y - m
		sum += d * d
	}
	return sum / float64(len(targets))
}

// Window accumulates step timing stats within one epoch.
type Window struct {
	rows    int
	compute time.Duration
	steps   int
}

// Record adds one training step to the window.
func (w *Window) Record(rows int, compute time.Duration) {
	w.rows += rows
	w.compute += compute
	w.steps++
}

// Snapshot returns aggregated metrics and resets the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{}
	if w.compute > 0 {
		snap.RowsPerSec = float64(w.rows) / w.compute.Seconds()
	}
	if w.steps > 0 {
		snap.AvgStepMS = (w.compute.Seconds() * 1000) / float64(w.steps)
	}
	w.rows = 0
	w.compute = 0
	w.steps = 0
	return snap
}

// Snapshot represents loggable per-epoch throughput metrics.
type Snapshot struct {
	RowsPerSec float64
	AvgStepMS  float64
}

// Point is one epoch on the loss curve.
type Point struct {
	Epoch     int
	TrainLoss float64
	ValLoss   float64
}

// History accumulates the loss curve of a training run.
type History struct {
	points []Point
}

// Append records one epoch.
func (h *History) Append(p Point) {
	h.points = append(h.points, p)
}

// Points returns the recorded epochs in order.
func (h *History) Points() []Point {
	return h.points
}

// Len returns the number of recorded epochs.
func (h *History) Len() int {
	return len(h.points)
}
