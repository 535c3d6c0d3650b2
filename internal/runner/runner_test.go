package runner

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"progenitor/internal/storage"
)

// climber is a deterministic test domain: fitness equals the value, a
// mutation climbs by one, crossover sums the parents.
type climber struct {
	value int32
}

func (c climber) Mutate() climber {
	return climber{value: c.value + 1}
}

type climberGenerator struct {
	next *atomic.Int32
}

func newClimberGenerator() climberGenerator {
	return climberGenerator{next: &atomic.Int32{}}
}

func (g climberGenerator) Generate() climber {
	return climber{value: g.next.Add(1) % 10}
}

func (g climberGenerator) Evolve(a, b climber) climber {
	return climber{value: a.value + b.value}
}

func climberFitness(c climber) float32 {
	return float32(c.value)
}

func TestRunValidatesConfig(t *testing.T) {
	ctx := context.Background()
	generator := newClimberGenerator()

	cases := []Config[climber]{
		{PopulationSize: 10, MaxGenerations: 5},              // missing domain
		{Domain: "climber", PopulationSize: 1, MaxGenerations: 5}, // degenerate population
		{Domain: "climber", PopulationSize: 10},              // missing generations
	}
	for i, cfg := range cases {
		if _, err := Run(ctx, cfg, generator, climberFitness); err == nil {
			t.Fatalf("case %d: expected config error", i)
		}
	}
}

func TestRunRecordsHistoryAndPersists(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init store: %v", err)
	}

	result, err := Run(ctx, Config[climber]{
		Domain:         "climber",
		PopulationSize: 21,
		MaxGenerations: 5,
		Seed:           13,
		Store:          store,
	}, newClimberGenerator(), climberFitness)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Generations != 5 {
		t.Fatalf("generations: got %d want 5", result.Generations)
	}
	if len(result.BestByGeneration) != 5 || len(result.Stats) != 5 {
		t.Fatalf("history lengths: %d best, %d stats", len(result.BestByGeneration), len(result.Stats))
	}
	if result.RunID == "" || result.Champion == "" {
		t.Fatalf("missing identifiers: %+v", result)
	}
	// Initial population evaluates 20 members, each of the 4 evolve
	// steps re-scores all non-elite slots.
	wantEvaluations := int64(20 + 4*(20-2))
	if result.Evaluations != wantEvaluations {
		t.Fatalf("evaluations: got %d want %d", result.Evaluations, wantEvaluations)
	}

	record, ok, err := store.GetRun(ctx, result.RunID)
	if err != nil || !ok {
		t.Fatalf("persisted run missing: ok=%v err=%v", ok, err)
	}
	if record.Domain != "climber" || record.Generations != 5 {
		t.Fatalf("unexpected record: %+v", record)
	}

	history, ok, err := store.GetFitnessHistory(ctx, result.RunID)
	if err != nil || !ok {
		t.Fatalf("persisted history missing: ok=%v err=%v", ok, err)
	}
	if len(history) != 5 {
		t.Fatalf("history length: got %d want 5", len(history))
	}

	stats, ok, err := store.GetGenerationStats(ctx, result.RunID)
	if err != nil || !ok {
		t.Fatalf("persisted stats missing: ok=%v err=%v", ok, err)
	}
	for i, row := range stats {
		if row.Generation != i+1 {
			t.Fatalf("stats generation: got %d want %d", row.Generation, i+1)
		}
		if row.BestFitness < row.MeanFitness || row.MeanFitness < row.MinFitness {
			t.Fatalf("stats ordering violated: %+v", row)
		}
	}
}

func TestRunStopsOnFitnessGoalStreak(t *testing.T) {
	ctx := context.Background()

	// Every individual already meets the goal, so the streak fills up
	// from the first generation on.
	result, err := Run(ctx, Config[climber]{
		Domain:         "climber",
		PopulationSize: 11,
		MaxGenerations: 100,
		FitnessGoal:    -1,
		GoalStreak:     3,
		Seed:           7,
	}, newClimberGenerator(), climberFitness)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Generations != 3 {
		t.Fatalf("generations: got %d want 3", result.Generations)
	}
}

func TestRunProgressCallback(t *testing.T) {
	ctx := context.Background()
	var calls int
	_, err := Run(ctx, Config[climber]{
		Domain:         "climber",
		PopulationSize: 11,
		MaxGenerations: 4,
		Seed:           3,
		Progress: func(generation int, best float32) {
			calls++
			if generation != calls {
				t.Fatalf("progress generation: got %d want %d", generation, calls)
			}
		},
	}, newClimberGenerator(), climberFitness)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if calls != 4 {
		t.Fatalf("progress calls: got %d want 4", calls)
	}
}

func TestRunDefaultDescribe(t *testing.T) {
	ctx := context.Background()
	result, err := Run(ctx, Config[climber]{
		Domain:         "climber",
		PopulationSize: 6,
		MaxGenerations: 2,
		Seed:           5,
	}, newClimberGenerator(), climberFitness)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(result.Champion, "{") {
		t.Fatalf("default describe output: %q", result.Champion)
	}
}
