package report

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"boston-trainer/internal/metrics"
	"boston-trainer/internal/trainer"
)

// PlotObserver collects the loss curve of a run and renders it to an
// image file. Call WritePlot after the run completes.
type PlotObserver struct {
	path    string
	title   string
	history metrics.History
}

// NewPlotObserver builds a plot observer writing to path. The image
// format follows the path extension (.png, .svg, .pdf, ...).
func NewPlotObserver(path, title string) *PlotObserver {
	return &PlotObserver{path: path, title: title}
}

// OnEpochEnd implements trainer.Observer.
func (p *PlotObserver) OnEpochEnd(e trainer.Epoch) {
	p.history.Append(metrics.Point{
		Epoch:     e.Epoch,
		TrainLoss: e.TrainLoss,
		ValLoss:   e.ValLoss,
	})
}

// History exposes the collected loss curve.
func (p *PlotObserver) History() *metrics.History {
	return &p.history
}

// WritePlot renders train and validation loss against epoch.
func (p *PlotObserver) WritePlot() error {
	if p.history.Len() == 0 {
		return errors.New("report: no epochs recorded")
	}
	pl := plot.New()
	pl.Title.Text = p.title
	pl.X.Label.Text = "epoch"
	pl.Y.Label.Text = "mean squared error"

	points := p.history.Points()
	train := make(plotter.XYs, len(points))
	val := make(plotter.XYs, len(points))
	for i, pt := range points {
		train[i] = plotter.XY{X: float64(pt.Epoch), Y: pt.TrainLoss}
		val[i] = plotter.XY{X: float64(pt.Epoch), Y: pt.ValLoss}
	}

	if err := plotutil.AddLines(pl, "train", train, "validation", val); err != nil {
		return fmt.Errorf("report: build plot: %w", err)
	}
	if err := pl.Save(8*vg.Inch, 5*vg.Inch, p.path); err != nil {
		return fmt.Errorf("report: save plot: %w", err)
	}
	return nil
}
