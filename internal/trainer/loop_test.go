package trainer

import (
	"context"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"boston-trainer/internal/dataset"
	"boston-trainer/internal/model"
)

type recordingObserver struct {
	epochs []Epoch
}

func (r *recordingObserver) OnEpochEnd(e Epoch) {
	r.epochs = append(r.epochs, e)
}

// syntheticDataset builds a noiseless linear problem so a linear model
// can drive the loss toward zero.
func syntheticDataset(trainRows, testRows int, seed int64) *dataset.Dataset {
	rng := rand.New(rand.NewSource(seed))
	gen := func(rows int) (*mat.Dense, []float64) {
		x := mat.NewDense(rows, 3, nil)
		y := make([]float64, rows)
		for i := 0; i < rows; i++ {
			a := rng.NormFloat64()
			b := rng.NormFloat64()
			c := rng.NormFloat64()
			x.Set(i, 0, a)
			x.Set(i, 1, b)
			x.Set(i, 2, c)
			y[i] = 4*a - 2*b + c + 10
		}
		return x, y
	}
	trainX, trainY := gen(trainRows)
	testX, testY := gen(testRows)
	return &dataset.Dataset{
		TrainFeatures: trainX,
		TrainTargets:  trainY,
		TestFeatures:  testX,
		TestTargets:   testY,
	}
}

func baseConfig(data *dataset.Dataset) RunConfig {
	return RunConfig{
		Data:            data,
		ModelKind:       model.KindLinear,
		Epochs:          60,
		BatchSize:       16,
		LearningRate:    0.05,
		ValidationSplit: 0.2,
		Seed:            1,
	}
}

func TestRunBeatsBaselineOnLinearData(t *testing.T) {
	data := syntheticDataset(200, 40, 2)
	obs := &recordingObserver{}
	cfg := baseConfig(data)
	cfg.Observer = obs

	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(obs.epochs) != cfg.Epochs {
		t.Fatalf("expected %d epoch reports, got %d", cfg.Epochs, len(obs.epochs))
	}
	for i, e := range obs.epochs {
		if e.Epoch != i+1 {
			t.Fatalf("epoch reports out of order: %+v", e)
		}
	}
	if res.FinalValLoss >= res.BaselineLoss {
		t.Fatalf("model did not beat the baseline: val=%f baseline=%f",
			res.FinalValLoss, res.BaselineLoss)
	}
	if res.TestLoss >= res.BaselineLoss {
		t.Fatalf("model did not beat the baseline on test data: test=%f baseline=%f",
			res.TestLoss, res.BaselineLoss)
	}
	first := obs.epochs[0]
	last := obs.epochs[len(obs.epochs)-1]
	if last.TrainLoss >= first.TrainLoss {
		t.Fatalf("training loss did not decrease: first=%f last=%f",
			first.TrainLoss, last.TrainLoss)
	}
}

func TestRunMLP(t *testing.T) {
	data := syntheticDataset(120, 20, 4)
	cfg := baseConfig(data)
	cfg.ModelKind = model.KindMLP
	cfg.Epochs = 150
	cfg.LearningRate = 0.02

	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ModelKind != model.KindMLP {
		t.Fatalf("result reports wrong model kind %q", res.ModelKind)
	}
	if res.FinalValLoss >= res.BaselineLoss {
		t.Fatalf("mlp did not beat the baseline: val=%f baseline=%f",
			res.FinalValLoss, res.BaselineLoss)
	}
}

func TestRunWithoutObserver(t *testing.T) {
	data := syntheticDataset(50, 10, 6)
	cfg := baseConfig(data)
	cfg.Epochs = 2
	if _, err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run without observer: %v", err)
	}
}

func TestRunCanceledContext(t *testing.T) {
	data := syntheticDataset(50, 10, 7)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, baseConfig(data)); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunValidatesConfig(t *testing.T) {
	data := syntheticDataset(50, 10, 8)
	cases := []struct {
		name   string
		mutate func(*RunConfig)
	}{
		{"nil dataset", func(c *RunConfig) { c.Data = nil }},
		{"zero epochs", func(c *RunConfig) { c.Epochs = 0 }},
		{"zero batch size", func(c *RunConfig) { c.BatchSize = 0 }},
		{"zero learning rate", func(c *RunConfig) { c.LearningRate = 0 }},
		{"split too large", func(c *RunConfig) { c.ValidationSplit = 1 }},
		{"split too small", func(c *RunConfig) { c.ValidationSplit = 0 }},
		{"unknown model", func(c *RunConfig) { c.ModelKind = "cnn" }},
	}
	for _, tc := range cases {
		cfg := baseConfig(data)
		tc.mutate(&cfg)
		if _, err := Run(context.Background(), cfg); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestSplitTrainValIsSeeded(t *testing.T) {
	data := syntheticDataset(40, 5, 9)
	_, y1, _, v1, err := splitTrainVal(data, 0.25, 3)
	if err != nil {
		t.Fatalf("splitTrainVal: %v", err)
	}
	_, y2, _, v2, err := splitTrainVal(data, 0.25, 3)
	if err != nil {
		t.Fatalf("splitTrainVal: %v", err)
	}
	if len(v1) != 10 || len(y1) != 30 {
		t.Fatalf("unexpected split sizes train=%d val=%d", len(y1), len(v1))
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("same seed produced different splits")
		}
	}
	for i := range y1 {
		if y1[i] != y2[i] {
			t.Fatalf("same seed produced different training order")
		}
	}
}

func TestSplitTrainValTooSmall(t *testing.T) {
	data := syntheticDataset(2, 2, 10)
	if _, _, _, _, err := splitTrainVal(data, 0.1, 1); err == nil {
		t.Fatalf("expected error when the split leaves no validation rows")
	}
}
