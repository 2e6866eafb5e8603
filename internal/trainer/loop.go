package trainer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"boston-trainer/internal/dataset"
	"boston-trainer/internal/metrics"
	"boston-trainer/internal/model"
)

// Epoch is the per-epoch report pushed to the observer.
type Epoch struct {
	Epoch      int
	TrainLoss  float64
	ValLoss    float64
	RowsPerSec float64
	AvgStepMS  float64
}

// Observer receives one report at the end of every epoch. It replaces
// the browser demo's DOM hooks: implementations log, plot, or collect
// the loss curve.
type Observer interface {
	OnEpochEnd(e Epoch)
}

// RunConfig captures the knobs required by the training loop.
type RunConfig struct {
	Data            *dataset.Dataset
	ModelKind       string
	Epochs          int
	BatchSize       int
	LearningRate    float64
	ValidationSplit float64
	Seed            int64
	Observer        Observer
}

// Result summarizes a completed run.
type Result struct {
	ModelKind      string
	Epochs         int
	FinalTrainLoss float64
	FinalValLoss   float64
	TestLoss       float64
	BaselineLoss   float64
}

// Run executes the training workload: carve a validation split, fit the
// feature scaler on the training portion only, then run minibatch SGD
// for the configured number of epochs. A run, once started, goes to
// completion unless the context is canceled.
func Run(ctx context.Context, cfg RunConfig) (Result, error) {
	if cfg.Data == nil {
		return Result{}, errors.New("trainer: dataset is required")
	}
	if cfg.Epochs <= 0 {
		return Result{}, errors.New("trainer: epochs must be > 0")
	}
	if cfg.BatchSize <= 0 {
		return Result{}, errors.New("trainer: batch size must be > 0")
	}
	if cfg.LearningRate <= 0 {
		return Result{}, errors.New("trainer: learning rate must be > 0")
	}
	if cfg.ValidationSplit <= 0 || cfg.ValidationSplit >= 1 {
		return Result{}, errors.New("trainer: validation split must be in (0, 1)")
	}

	trainX, trainY, valX, valY, err := splitTrainVal(cfg.Data, cfg.ValidationSplit, cfg.Seed)
	if err != nil {
		return Result{}, err
	}

	scaler := dataset.NewStandardScaler()
	normTrainX, err := scaler.FitTransform(trainX)
	if err != nil {
		return Result{}, fmt.Errorf("trainer: fit scaler: %w", err)
	}
	normValX, err := scaler.Transform(valX)
	if err != nil {
		return Result{}, fmt.Errorf("trainer: scale validation split: %w", err)
	}
	normTestX, err := scaler.Transform(cfg.Data.TestFeatures)
	if err != nil {
		return Result{}, fmt.Errorf("trainer: scale test split: %w", err)
	}

	mdl, err := model.New(cfg.ModelKind, cfg.Data.NumFeatures(), cfg.LearningRate, cfg.Seed)
	if err != nil {
		return Result{}, err
	}

	batcher, err := dataset.NewBatcher(normTrainX, trainY, cfg.BatchSize, cfg.Seed+1)
	if err != nil {
		return Result{}, fmt.Errorf("trainer: %w", err)
	}

	totalRows, _ := normTrainX.Dims()
	var window metrics.Window
	var trainLoss, valLoss float64

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		batcher.Shuffle()
		lossSum := 0.0
		for i := 0; i < batcher.NumBatches(); i++ {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			default:
			}
			batch := batcher.Batch(i)
			start := time.Now()
			loss := mdl.TrainStep(batch.Features, batch.Targets)
			window.Record(batch.Rows(), time.Since(start))
			lossSum += loss * float64(batch.Rows())
		}
		trainLoss = lossSum / float64(totalRows)
		valLoss = metrics.MSE(mdl.Predict(normValX), valY)

		if cfg.Observer != nil {
			snap := window.Snapshot()
			cfg.Observer.OnEpochEnd(Epoch{
				Epoch:      epoch,
				TrainLoss:  trainLoss,
				ValLoss:    valLoss,
				RowsPerSec: snap.RowsPerSec,
				AvgStepMS:  snap.AvgStepMS,
			})
		}
	}

	return Result{
		ModelKind:      cfg.ModelKind,
		Epochs:         cfg.Epochs,
		FinalTrainLoss: trainLoss,
		FinalValLoss:   valLoss,
		TestLoss:       metrics.MSE(mdl.Predict(normTestX), cfg.Data.TestTargets),
		BaselineLoss:   metrics.BaselineLoss(cfg.Data.TrainTargets),
	}, nil
}

// splitTrainVal carves a seeded validation split off the training set.
func splitTrainVal(data *dataset.Dataset, split float64, seed int64) (trainX *mat.Dense, trainY []float64, valX *mat.Dense, valY []float64, err error) {
	rows := data.NumTrain()
	valRows := int(float64(rows)*split + 0.5)
	trainRows := rows - valRows
	if trainRows < 1 || valRows < 1 {
		return nil, nil, nil, nil, fmt.Errorf("trainer: %d training rows cannot support a %.2f validation split", rows, split)
	}

	order := make([]int, rows)
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	cols := data.NumFeatures()
	trainX = mat.NewDense(trainRows, cols, nil)
	trainY = make([]float64, trainRows)
	valX = mat.NewDense(valRows, cols, nil)
	valY = make([]float64, valRows)
	for i, src := range order {
		row := mat.Row(nil, src, data.TrainFeatures)
		if i < trainRows {
			trainX.SetRow(i, row)
			trainY[i] = data.TrainTargets[src]
		} else {
			valX.SetRow(i-trainRows, row)
			valY[i-trainRows] = data.TrainTargets[src]
		}
	}
	return trainX, trainY, valX, valY, nil
}
