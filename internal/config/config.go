// Package config loads run configuration from a YAML file.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Seed    int64         `yaml:"seed"`
	Verbose bool          `yaml:"verbose"`
	Engine  EngineConfig  `yaml:"engine"`
	Calc    CalcConfig    `yaml:"calc"`
	Phrase  PhraseConfig  `yaml:"phrase"`
	Storage StorageConfig `yaml:"storage"`
}

// EngineConfig defines population and termination parameters.
type EngineConfig struct {
	Population     int     `yaml:"population"`
	MaxGenerations int     `yaml:"max_generations"`
	Workers        int     `yaml:"workers"`
	FitnessGoal    float64 `yaml:"fitness_goal"`
	GoalStreak     int     `yaml:"goal_streak"`
}

// CalcConfig defines the program-evolution domain parameters.
type CalcConfig struct {
	StepBudget  int `yaml:"step_budget"`
	MemoryWords int `yaml:"memory_words"`
	StackDepth  int `yaml:"stack_depth"`
	MinOps      int `yaml:"min_ops"`
	MaxOps      int `yaml:"max_ops"`
}

// PhraseConfig defines the string-search domain parameters.
type PhraseConfig struct {
	Target string `yaml:"target"`
}

// StorageConfig selects the artifact store backend.
type StorageConfig struct {
	Backend string `yaml:"backend"` // memory|sqlite
	DBPath  string `yaml:"db_path"`
}

// Load reads a YAML config file and returns a Config with defaults
// applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Engine.Population == 0 {
		cfg.Engine.Population = 1000
	}
	if cfg.Engine.MaxGenerations == 0 {
		cfg.Engine.MaxGenerations = 1000
	}
	if cfg.Calc.StepBudget == 0 {
		cfg.Calc.StepBudget = 25
	}
	if cfg.Calc.MemoryWords == 0 {
		cfg.Calc.MemoryWords = 100
	}
	if cfg.Calc.StackDepth == 0 {
		cfg.Calc.StackDepth = 100
	}
	if cfg.Calc.MinOps == 0 {
		cfg.Calc.MinOps = 5
	}
	if cfg.Calc.MaxOps == 0 {
		cfg.Calc.MaxOps = 25
	}
	if cfg.Phrase.Target == "" {
		cfg.Phrase.Target = "helloworld"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "memory"
	}
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = "progenitor.db"
	}
}
