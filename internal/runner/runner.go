// Package runner drives an evolution run end to end: initial
// population, generational loop, termination policy, diagnostics, and
// artifact persistence.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"progenitor/internal/engine"
	"progenitor/internal/model"
	"progenitor/internal/storage"
)

// Config parameterizes one run. Store and the callbacks are optional.
type Config[I engine.Individual[I]] struct {
	Domain         string
	PopulationSize int
	MaxGenerations int
	// FitnessGoal enables early termination when non-zero: the run
	// stops once the best fitness has stayed at or above the goal for
	// GoalStreak consecutive generations.
	FitnessGoal float64
	GoalStreak  int
	Workers     int
	Seed        int64
	Store       storage.Store
	// Describe renders a champion individual for reports. Defaults to
	// fmt.Sprintf("%v", ...).
	Describe func(I) string
	// Progress, if set, is called once per generation with the current
	// best fitness.
	Progress func(generation int, best float32)
}

// Result is the in-memory counterpart of the persisted run artifacts.
type Result struct {
	RunID            string
	Generations      int
	Evaluations      int64
	BestFitness      float64
	Champion         string
	BestByGeneration []float64
	Stats            []model.GenerationStats
}

// Run executes a full evolution run. The store, when configured,
// receives the run record, fitness history and generation stats once
// the run finishes.
func Run[I engine.Individual[I]](ctx context.Context, cfg Config[I], generator engine.Generator[I], fitness engine.Fitness[I]) (Result, error) {
	if cfg.Domain == "" {
		return Result{}, fmt.Errorf("domain name is required")
	}
	if cfg.PopulationSize < 2 {
		return Result{}, fmt.Errorf("population size must be >= 2, got %d", cfg.PopulationSize)
	}
	if cfg.MaxGenerations < 1 {
		return Result{}, fmt.Errorf("max generations must be >= 1, got %d", cfg.MaxGenerations)
	}
	if cfg.GoalStreak <= 0 {
		cfg.GoalStreak = 1
	}
	if cfg.Describe == nil {
		cfg.Describe = func(individual I) string {
			return fmt.Sprintf("%v", individual)
		}
	}

	pop, err := engine.NewPopulation(ctx, engine.Config{Workers: cfg.Workers, Seed: cfg.Seed}, cfg.PopulationSize, generator, fitness)
	if err != nil {
		return Result{}, fmt.Errorf("build initial population: %w", err)
	}

	evaluations := int64(len(pop.Individuals))
	history := make([]float64, 0, cfg.MaxGenerations)
	stats := make([]model.GenerationStats, 0, cfg.MaxGenerations)
	generation := 1
	streak := 0

	for {
		row := summarize(pop, generation)
		history = append(history, row.BestFitness)
		stats = append(stats, row)
		if cfg.Progress != nil {
			cfg.Progress(generation, float32(row.BestFitness))
		}

		if cfg.FitnessGoal != 0 && row.BestFitness >= cfg.FitnessGoal {
			streak++
		} else {
			streak = 0
		}
		if cfg.FitnessGoal != 0 && streak >= cfg.GoalStreak {
			break
		}
		if generation >= cfg.MaxGenerations {
			break
		}

		pop, err = pop.Evolve(ctx, generator, fitness)
		if err != nil {
			return Result{}, fmt.Errorf("evolve generation %d: %w", generation+1, err)
		}
		evaluations += int64(len(pop.Individuals) - engine.EliteCount(len(pop.Individuals)))
		generation++
	}

	best, ok := pop.Best()
	if !ok {
		return Result{}, fmt.Errorf("population is empty after %d generations", generation)
	}

	result := Result{
		RunID:            uuid.NewString(),
		Generations:      generation,
		Evaluations:      evaluations,
		BestFitness:      float64(best.Fitness),
		Champion:         cfg.Describe(best.Individual),
		BestByGeneration: history,
		Stats:            stats,
	}

	if cfg.Store != nil {
		if err := persist(ctx, cfg, result); err != nil {
			return Result{}, err
		}
	}
	return result, nil
}

func summarize[I engine.Individual[I]](pop *engine.Population[I], generation int) model.GenerationStats {
	row := model.GenerationStats{Generation: generation}
	if len(pop.Individuals) == 0 {
		return row
	}

	total := 0.0
	minFitness := float64(pop.Individuals[0].Fitness)
	for _, item := range pop.Individuals {
		fitness := float64(item.Fitness)
		total += fitness
		if fitness < minFitness {
			minFitness = fitness
		}
	}
	row.BestFitness = float64(pop.Individuals[0].Fitness)
	row.MeanFitness = total / float64(len(pop.Individuals))
	row.MinFitness = minFitness
	return row
}

func persist[I engine.Individual[I]](ctx context.Context, cfg Config[I], result Result) error {
	record := model.RunRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:             result.RunID,
		Domain:         cfg.Domain,
		Seed:           cfg.Seed,
		PopulationSize: cfg.PopulationSize,
		Generations:    result.Generations,
		Evaluations:    result.Evaluations,
		BestFitness:    result.BestFitness,
		Champion:       result.Champion,
		CreatedAtUTC:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := cfg.Store.SaveRun(ctx, record); err != nil {
		return fmt.Errorf("save run %s: %w", result.RunID, err)
	}
	if err := cfg.Store.SaveFitnessHistory(ctx, result.RunID, result.BestByGeneration); err != nil {
		return fmt.Errorf("save fitness history %s: %w", result.RunID, err)
	}
	if err := cfg.Store.SaveGenerationStats(ctx, result.RunID, result.Stats); err != nil {
		return fmt.Errorf("save generation stats %s: %w", result.RunID, err)
	}
	return nil
}
