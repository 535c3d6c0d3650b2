package progenitor

import (
	"context"
	"testing"
)

func TestClientRunPhraseAndArtifacts(t *testing.T) {
	client, err := New(context.Background(), Options{StoreKind: "memory"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	// A goal far above the perfect score keeps the run from stopping
	// early, so the generation count is exact.
	summary, err := client.Run(context.Background(), RunRequest{
		Domain:      DomainPhrase,
		Population:  20,
		Generations: 3,
		Seed:        42,
		Workers:     2,
		FitnessGoal: 1000,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("expected run id")
	}
	if summary.Domain != DomainPhrase {
		t.Fatalf("unexpected domain: %q", summary.Domain)
	}
	if summary.Generations != 3 {
		t.Fatalf("unexpected generation count: %d", summary.Generations)
	}
	if len(summary.BestByGeneration) != 3 {
		t.Fatalf("unexpected generation history length: %d", len(summary.BestByGeneration))
	}
	// 20 requested yields 19 members; one elite survives each evolve.
	if want := int64(19 + 2*18); summary.Evaluations != want {
		t.Fatalf("unexpected evaluation count: got=%d want=%d", summary.Evaluations, want)
	}
	if len(summary.Champion) != 10 {
		t.Fatalf("unexpected champion rendering: %q", summary.Champion)
	}
	for i := 1; i < len(summary.BestByGeneration); i++ {
		if summary.BestByGeneration[i] < summary.BestByGeneration[i-1] {
			t.Fatalf("best fitness regressed at generation %d: %v", i+1, summary.BestByGeneration)
		}
	}

	runs, err := client.Runs(context.Background(), 5)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) == 0 || runs[0].ID != summary.RunID {
		t.Fatalf("expected latest run %s in runs list: %+v", summary.RunID, runs)
	}

	record, err := client.GetRun(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if record.Domain != DomainPhrase || record.Seed != 42 || record.PopulationSize != 20 {
		t.Fatalf("unexpected run record: %+v", record)
	}
	if record.Champion != summary.Champion {
		t.Fatalf("champion mismatch: record=%q summary=%q", record.Champion, summary.Champion)
	}

	history, err := client.FitnessHistory(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("fitness history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("unexpected fitness history length: %d", len(history))
	}

	stats, err := client.GenerationStats(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("generation stats: %v", err)
	}
	if len(stats) != 3 {
		t.Fatalf("unexpected generation stats length: %d", len(stats))
	}
	for _, s := range stats {
		if s.BestFitness < s.MeanFitness || s.MeanFitness < s.MinFitness {
			t.Fatalf("inconsistent stats row: %+v", s)
		}
	}
}

func TestClientRunCalc(t *testing.T) {
	client, err := New(context.Background(), Options{StoreKind: "memory"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	summary, err := client.Run(context.Background(), RunRequest{
		Domain:      DomainCalc,
		Population:  12,
		Generations: 2,
		Seed:        7,
		Workers:     2,
		FitnessGoal: 1000,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Domain != DomainCalc || summary.Generations != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Champion == "" {
		t.Fatal("expected champion disassembly")
	}
}

func TestClientRunUnsupportedDomain(t *testing.T) {
	client, err := New(context.Background(), Options{StoreKind: "memory"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	if _, err := client.Run(context.Background(), RunRequest{Domain: "maze"}); err == nil {
		t.Fatal("expected error for unsupported domain")
	}
}

func TestClientGetRunNotFound(t *testing.T) {
	client, err := New(context.Background(), Options{StoreKind: "memory"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	if _, err := client.GetRun(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown run id")
	}
}

func TestClientReset(t *testing.T) {
	client, err := New(context.Background(), Options{StoreKind: "memory"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	if _, err := client.Run(context.Background(), RunRequest{
		Domain:      DomainPhrase,
		Population:  8,
		Generations: 1,
		Seed:        1,
		Workers:     1,
		FitnessGoal: 1000,
	}); err != nil {
		t.Fatalf("run: %v", err)
	}

	if err := client.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	runs, err := client.Runs(context.Background(), 5)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected empty runs after reset, got %d", len(runs))
	}
}
