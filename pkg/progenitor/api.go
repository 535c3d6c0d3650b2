// Package progenitor is the embedding API for running evolution
// searches and inspecting persisted run artifacts.
package progenitor

import (
	"context"
	"fmt"

	"progenitor/internal/calc"
	"progenitor/internal/model"
	"progenitor/internal/phrase"
	"progenitor/internal/runner"
	"progenitor/internal/storage"
)

const (
	DomainCalc   = "calc"
	DomainPhrase = "phrase"

	defaultPopulation  = 1000
	defaultGenerations = 1000
	defaultPhrase      = "helloworld"

	// The calc search is considered solved once the best program earns
	// a short-length bonus; the long streak guards against lucky
	// operand draws, since calc scoring samples fresh operands per
	// evaluation.
	calcFitnessGoal = 1.9
	calcGoalStreak  = 100

	phraseGoalStreak = 1
)

type Options struct {
	StoreKind string
	DBPath    string
}

// Client owns a store handle and runs searches against it.
type Client struct {
	store storage.Store
}

func New(ctx context.Context, opts Options) (*Client, error) {
	store, err := storage.NewStore(opts.StoreKind, opts.DBPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, err
	}
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Reset drops all persisted artifacts if the backend supports it.
func (c *Client) Reset(ctx context.Context) error {
	resetter, ok := c.store.(storage.Resetter)
	if !ok {
		return fmt.Errorf("store does not support reset")
	}
	return resetter.Reset(ctx)
}

// RunRequest selects a domain and overrides its defaults. Zero fields
// keep the domain's defaults.
type RunRequest struct {
	Domain      string
	Population  int
	Generations int
	Seed        int64
	Workers     int
	FitnessGoal float64
	GoalStreak  int

	// Phrase domain.
	Phrase string

	// Calc domain.
	CalcStepBudget  int
	CalcMemoryWords int
	CalcStackDepth  int
	CalcMinOps      int
	CalcMaxOps      int

	// Progress, if set, is called once per generation with the best
	// fitness so far.
	Progress func(generation int, best float32)
}

type RunSummary struct {
	RunID            string
	Domain           string
	Generations      int
	Evaluations      int64
	BestFitness      float64
	Champion         string
	BestByGeneration []float64
}

// Run executes one evolution run and persists its artifacts.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Population == 0 {
		req.Population = defaultPopulation
	}
	if req.Generations == 0 {
		req.Generations = defaultGenerations
	}

	switch req.Domain {
	case DomainCalc:
		return c.runCalc(ctx, req)
	case DomainPhrase:
		return c.runPhrase(ctx, req)
	default:
		return RunSummary{}, fmt.Errorf("unsupported domain: %q", req.Domain)
	}
}

func (c *Client) runCalc(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.FitnessGoal == 0 {
		req.FitnessGoal = calcFitnessGoal
	}
	if req.GoalStreak == 0 {
		req.GoalStreak = calcGoalStreak
	}

	generator := calc.Generator{MinOps: req.CalcMinOps, MaxOps: req.CalcMaxOps}
	fitness := calc.NewFitness(calc.FitnessOptions{
		StepBudget:  req.CalcStepBudget,
		MemoryWords: req.CalcMemoryWords,
		StackDepth:  req.CalcStackDepth,
	})

	result, err := runner.Run(ctx, runner.Config[calc.Program]{
		Domain:         DomainCalc,
		PopulationSize: req.Population,
		MaxGenerations: req.Generations,
		FitnessGoal:    req.FitnessGoal,
		GoalStreak:     req.GoalStreak,
		Workers:        req.Workers,
		Seed:           req.Seed,
		Store:          c.store,
		Describe:       calc.Program.String,
		Progress:       req.Progress,
	}, generator, fitness)
	if err != nil {
		return RunSummary{}, err
	}
	return summaryFrom(DomainCalc, result), nil
}

func (c *Client) runPhrase(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Phrase == "" {
		req.Phrase = defaultPhrase
	}
	if req.FitnessGoal == 0 {
		req.FitnessGoal = float64(phrase.PerfectScore)
	}
	if req.GoalStreak == 0 {
		req.GoalStreak = phraseGoalStreak
	}

	fitness, err := phrase.NewFitness(req.Phrase)
	if err != nil {
		return RunSummary{}, err
	}

	result, err := runner.Run(ctx, runner.Config[phrase.Candidate]{
		Domain:         DomainPhrase,
		PopulationSize: req.Population,
		MaxGenerations: req.Generations,
		FitnessGoal:    req.FitnessGoal,
		GoalStreak:     req.GoalStreak,
		Workers:        req.Workers,
		Seed:           req.Seed,
		Store:          c.store,
		Describe:       phrase.Candidate.String,
		Progress:       req.Progress,
	}, phrase.Generator{}, fitness)
	if err != nil {
		return RunSummary{}, err
	}
	return summaryFrom(DomainPhrase, result), nil
}

func summaryFrom(domain string, result runner.Result) RunSummary {
	return RunSummary{
		RunID:            result.RunID,
		Domain:           domain,
		Generations:      result.Generations,
		Evaluations:      result.Evaluations,
		BestFitness:      result.BestFitness,
		Champion:         result.Champion,
		BestByGeneration: result.BestByGeneration,
	}
}

// Runs lists the most recent run records, newest first.
func (c *Client) Runs(ctx context.Context, limit int) ([]model.RunRecord, error) {
	return c.store.ListRuns(ctx, limit)
}

// GetRun returns one persisted run record.
func (c *Client) GetRun(ctx context.Context, runID string) (model.RunRecord, error) {
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return model.RunRecord{}, err
	}
	if !ok {
		return model.RunRecord{}, fmt.Errorf("run not found: %s", runID)
	}
	return run, nil
}

// FitnessHistory returns the per-generation best fitness of a run.
func (c *Client) FitnessHistory(ctx context.Context, runID string) ([]float64, error) {
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no fitness history for run: %s", runID)
	}
	return history, nil
}

// GenerationStats returns the per-generation diagnostics of a run.
func (c *Client) GenerationStats(ctx context.Context, runID string) ([]model.GenerationStats, error) {
	stats, ok, err := c.store.GetGenerationStats(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no generation stats for run: %s", runID)
	}
	return stats, nil
}
