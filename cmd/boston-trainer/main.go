package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"boston-trainer/internal/config"
	"boston-trainer/internal/dataset"
	"boston-trainer/internal/metrics"
	"boston-trainer/internal/report"
	"boston-trainer/internal/trainer"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (defaults apply when empty)")
	modelKind := flag.String("model", "", "Model to train: linear or mlp")
	epochs := flag.Int("epochs", 0, "Number of training epochs")
	batchSize := flag.Int("batch-size", 0, "Batch size")
	learningRate := flag.Float64("learning-rate", 0, "SGD learning rate")
	validationSplit := flag.Float64("validation-split", 0, "Fraction of training data held out for validation")
	baseURL := flag.String("base-url", "", "Override the dataset base URL")
	cacheDir := flag.String("cache-dir", "", "Directory for cached CSV downloads")
	seed := flag.Int64("seed", 0, "PRNG seed")
	logEvery := flag.Int("log-every", 0, "Log every N epochs")
	plotPath := flag.String("plot", "", "Write a loss-curve image to this path")

	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}

	cfg.ApplyOverrides(config.Overrides{
		Model:           *modelKind,
		Epochs:          *epochs,
		BatchSize:       *batchSize,
		LearningRate:    *learningRate,
		ValidationSplit: *validationSplit,
		BaseURL:         *baseURL,
		CacheDir:        *cacheDir,
		Seed:            *seed,
		LogEvery:        *logEvery,
		PlotPath:        *plotPath,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	data, err := dataset.Load(ctx, dataset.LoadOptions{
		BaseURL:  cfg.BaseURL,
		CacheDir: cfg.CacheDir,
	})
	if err != nil {
		log.Fatalf("failed to load dataset: %v", err)
	}
	log.Printf("dataset loaded train_rows=%d test_rows=%d features=%d",
		data.NumTrain(), data.NumTest(), data.NumFeatures())
	log.Printf("baseline_loss=%.4f (always predicting the mean price)",
		metrics.BaselineLoss(data.TrainTargets))

	observers := report.MultiObserver{report.NewLogObserver(nil, cfg.LogEvery)}
	var plotObs *report.PlotObserver
	if cfg.PlotPath != "" {
		plotObs = report.NewPlotObserver(cfg.PlotPath, cfg.Model+" model loss")
		observers = append(observers, plotObs)
	}

	res, err := trainer.Run(ctx, trainer.RunConfig{
		Data:            data,
		ModelKind:       cfg.Model,
		Epochs:          cfg.Epochs,
		BatchSize:       cfg.BatchSize,
		LearningRate:    cfg.LearningRate,
		ValidationSplit: cfg.ValidationSplit,
		Seed:            cfg.Seed,
		Observer:        observers,
	})
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}

	log.Printf("done model=%s train_loss=%.4f val_loss=%.4f test_loss=%.4f baseline_loss=%.4f",
		res.ModelKind,
		res.FinalTrainLoss,
		res.FinalValLoss,
		res.TestLoss,
		res.BaselineLoss,
	)

	if plotObs != nil {
		if err := plotObs.WritePlot(); err != nil {
			log.Fatalf("failed to write plot: %v", err)
		}
		log.Printf("loss curve written to %s", cfg.PlotPath)
	}
}
