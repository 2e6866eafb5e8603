// Package report implements the training observers that replace the
// original demo's page updates: structured log lines and a loss-curve
// plot.
package report

import (
	"log"

	"boston-trainer/internal/trainer"
)

// LogObserver writes one key=value line every N epochs.
type LogObserver struct {
	logger *log.Logger
	every  int
}

// NewLogObserver builds a log observer. A nil logger means the default
// logger; every <= 0 logs every epoch.
func NewLogObserver(logger *log.Logger, every int) *LogObserver {
	if logger == nil {
		logger = log.Default()
	}
	if every <= 0 {
		every = 1
	}
	return &LogObserver{logger: logger, every: every}
}

// OnEpochEnd implements trainer.Observer.
func (o *LogObserver) OnEpochEnd(e trainer.Epoch) {
	if e.Epoch%o.every != 0 {
		return
	}
	o.logger.Printf("epoch=%d train_loss=%.4f val_loss=%.4f rows_per_sec=%.1f step_ms=%.3f",
		e.Epoch,
		e.TrainLoss,
		e.ValLoss,
		e.RowsPerSec,
		e.AvgStepMS,
	)
}

// MultiObserver fans one epoch report out to several observers.
type MultiObserver []trainer.Observer

// OnEpochEnd implements trainer.Observer.
func (m MultiObserver) OnEpochEnd(e trainer.Epoch) {
	for _, o := range m {
		o.OnEpochEnd(e)
	}
}
