package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"boston-trainer/internal/dataset"
	"boston-trainer/internal/model"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	Model           string  `yaml:"model"`
	Epochs          int     `yaml:"epochs"`
	BatchSize       int     `yaml:"batch_size"`
	LearningRate    float64 `yaml:"learning_rate"`
	ValidationSplit float64 `yaml:"validation_split"`
	BaseURL         string  `yaml:"base_url"`
	CacheDir        string  `yaml:"cache_dir"`
	Seed            int64   `yaml:"seed"`
	LogEvery        int     `yaml:"log_every"`
	PlotPath        string  `yaml:"plot_path"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	Model           string
	Epochs          int
	BatchSize       int
	LearningRate    float64
	ValidationSplit float64
	BaseURL         string
	CacheDir        string
	Seed            int64
	LogEvery        int
	PlotPath        string
}

// Default returns the demo configuration: the published Boston Housing
// splits and the hyperparameters of the original experiment.
func Default() *Config {
	return &Config{
		Model:           model.KindLinear,
		Epochs:          200,
		BatchSize:       40,
		LearningRate:    0.01,
		ValidationSplit: 0.2,
		BaseURL:         dataset.DefaultBaseURL,
		Seed:            42,
		LogEvery:        10,
	}
}

// Load reads and validates a Config from a YAML file. Keys absent from
// the file keep their defaults.
func Load(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Model != "" {
		c.Model = o.Model
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.ValidationSplit > 0 {
		c.ValidationSplit = o.ValidationSplit
	}
	if o.BaseURL != "" {
		c.BaseURL = o.BaseURL
	}
	if o.CacheDir != "" {
		c.CacheDir = o.CacheDir
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.PlotPath != "" {
		c.PlotPath = o.PlotPath
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Model != model.KindLinear && c.Model != model.KindMLP {
		return fmt.Errorf("model must be %q or %q (got %q)", model.KindLinear, model.KindMLP, c.Model)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be > 0 (got %g)", c.LearningRate)
	}
	if c.ValidationSplit <= 0 || c.ValidationSplit >= 1 {
		return fmt.Errorf("validation_split must be in (0, 1) (got %g)", c.ValidationSplit)
	}
	if c.BaseURL == "" {
		return errors.New("base_url must be set")
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 10
	}
	return nil
}
