package config

import (
	"os"
	"path/filepath"
	"testing"

	"boston-trainer/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMergesWithDefaults(t *testing.T) {
	path := writeConfig(t, "model: mlp\nepochs: 50\nplot_path: loss.png\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != model.KindMLP || cfg.Epochs != 50 || cfg.PlotPath != "loss.png" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.BatchSize != 40 || cfg.LearningRate != 0.01 || cfg.ValidationSplit != 0.2 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "epochs: [not a number\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	cfg.ApplyOverrides(Overrides{
		Model:     model.KindMLP,
		Epochs:    99,
		Seed:      7,
		CacheDir:  "/tmp/cache",
		BatchSize: 0, // zero means keep the config value
	})
	if cfg.Model != model.KindMLP || cfg.Epochs != 99 || cfg.Seed != 7 || cfg.CacheDir != "/tmp/cache" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.BatchSize != 40 {
		t.Fatalf("zero override clobbered batch size: %d", cfg.BatchSize)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown model", func(c *Config) { c.Model = "cnn" }},
		{"zero epochs", func(c *Config) { c.Epochs = 0 }},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }},
		{"negative learning rate", func(c *Config) { c.LearningRate = -1 }},
		{"split of 1", func(c *Config) { c.ValidationSplit = 1 }},
		{"empty base url", func(c *Config) { c.BaseURL = "" }},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateDefaultsLogEvery(t *testing.T) {
	cfg := Default()
	cfg.LogEvery = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.LogEvery != 10 {
		t.Fatalf("expected log_every default of 10, got %d", cfg.LogEvery)
	}
}
