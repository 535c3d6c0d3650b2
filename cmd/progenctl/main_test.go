package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"progenitor/internal/config"
	progapi "progenitor/pkg/progenitor"
)

func TestLoadConfigDefaultsWithoutPath(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("load default config: %v", err)
	}
	if cfg.Engine.Population != 1000 || cfg.Engine.MaxGenerations != 1000 {
		t.Fatalf("unexpected engine defaults: %+v", cfg.Engine)
	}
	if cfg.Phrase.Target != "helloworld" {
		t.Fatalf("unexpected phrase default: %q", cfg.Phrase.Target)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	payload := `seed: 7
engine:
  population: 40
  max_generations: 12
  workers: 2
phrase:
  target: "abcdefghij"
storage:
  backend: memory
`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Seed != 7 || cfg.Engine.Population != 40 || cfg.Engine.MaxGenerations != 12 {
		t.Fatalf("unexpected config fields: %+v", cfg)
	}
	if cfg.Phrase.Target != "abcdefghij" {
		t.Fatalf("unexpected phrase target: %q", cfg.Phrase.Target)
	}
	// Unset sections still get defaults.
	if cfg.Calc.StepBudget != 25 || cfg.Calc.MaxOps != 25 {
		t.Fatalf("expected calc defaults, got %+v", cfg.Calc)
	}
}

func TestOverrideConfigAppliesOnlySetFlags(t *testing.T) {
	cfg := config.Default()
	cfg.Seed = 99
	cfg.Engine.Population = 40

	set := map[string]bool{"pop": true, "store": true}
	overrideConfig(cfg, set, flagValues{
		population: 8,
		seed:       1, // not in set, must not apply
		storeKind:  "sqlite",
	})

	if cfg.Engine.Population != 8 {
		t.Fatalf("expected population override 8, got %d", cfg.Engine.Population)
	}
	if cfg.Seed != 99 {
		t.Fatalf("seed overridden without flag: %d", cfg.Seed)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Fatalf("expected store override, got %q", cfg.Storage.Backend)
	}
}

func TestRunRequestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Seed = 5
	cfg.Engine.Population = 30
	cfg.Engine.MaxGenerations = 15
	cfg.Engine.Workers = 3
	cfg.Engine.FitnessGoal = 10
	cfg.Engine.GoalStreak = 2
	cfg.Calc.StepBudget = 40

	req := runRequestFrom(cfg, progapi.DomainPhrase)
	if req.Domain != progapi.DomainPhrase {
		t.Fatalf("unexpected domain: %q", req.Domain)
	}
	if req.Population != 30 || req.Generations != 15 || req.Seed != 5 || req.Workers != 3 {
		t.Fatalf("unexpected engine fields: %+v", req)
	}
	if req.FitnessGoal != 10 || req.GoalStreak != 2 {
		t.Fatalf("unexpected goal fields: %+v", req)
	}
	if req.CalcStepBudget != 40 {
		t.Fatalf("unexpected calc step budget: %d", req.CalcStepBudget)
	}
	if req.Phrase != "helloworld" {
		t.Fatalf("unexpected phrase target: %q", req.Phrase)
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"bogus"})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestRunRequiresCommand(t *testing.T) {
	err := run(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for missing command")
	}
}
