package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"progenitor/internal/config"
	"progenitor/internal/storage"
	progapi "progenitor/pkg/progenitor"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "stats":
		return runStats(ctx, args[1:])
	case "best":
		return runBest(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: progenctl <init|reset|run|runs|fitness|stats|best> [flags]", msg)
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "progenitor.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := progapi.New(ctx, progapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "progenitor.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := progapi.New(ctx, progapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Reset(ctx); err != nil {
		return err
	}

	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional YAML config path")
	domain := fs.String("domain", progapi.DomainCalc, "search domain: calc|phrase")
	population := fs.Int("pop", 0, "population size (0 uses config/domain default)")
	generations := fs.Int("gens", 0, "generation cap (0 uses config/domain default)")
	seed := fs.Int64("seed", 0, "rng seed (0 picks a random seed)")
	workers := fs.Int("workers", 0, "worker count (0 uses all CPUs)")
	fitnessGoal := fs.Float64("fitness-goal", 0, "early-stop best fitness goal (0 uses domain default)")
	goalStreak := fs.Int("goal-streak", 0, "consecutive generations at goal before stopping")
	target := fs.String("phrase", "", "phrase domain: target phrase")
	stepBudget := fs.Int("step-budget", 0, "calc domain: interpreter step budget per evaluation")
	memoryWords := fs.Int("memory-words", 0, "calc domain: interpreter memory size in words")
	stackDepth := fs.Int("stack-depth", 0, "calc domain: interpreter stack depth")
	minOps := fs.Int("min-ops", 0, "calc domain: minimum generated program length")
	maxOps := fs.Int("max-ops", 0, "calc domain: maximum generated program length")
	verbose := fs.Bool("verbose", false, "print per-generation best fitness")
	storeKind := fs.String("store", "", "store backend: memory|sqlite (overrides config)")
	dbPath := fs.String("db-path", "", "sqlite database path (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	overrideConfig(cfg, setFlags, flagValues{
		population:  *population,
		generations: *generations,
		seed:        *seed,
		workers:     *workers,
		fitnessGoal: *fitnessGoal,
		goalStreak:  *goalStreak,
		target:      *target,
		stepBudget:  *stepBudget,
		memoryWords: *memoryWords,
		stackDepth:  *stackDepth,
		minOps:      *minOps,
		maxOps:      *maxOps,
		verbose:     *verbose,
		storeKind:   *storeKind,
		dbPath:      *dbPath,
	})

	client, err := progapi.New(ctx, progapi.Options{
		StoreKind: cfg.Storage.Backend,
		DBPath:    cfg.Storage.DBPath,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	req := runRequestFrom(cfg, *domain)
	if cfg.Verbose {
		req.Progress = func(generation int, best float32) {
			fmt.Printf("generation=%d best_fitness=%.6f\n", generation, best)
		}
	}

	started := time.Now()
	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("run completed run_id=%s domain=%s gens=%d evaluations=%s elapsed=%s\n",
		summary.RunID,
		summary.Domain,
		summary.Generations,
		humanize.Comma(summary.Evaluations),
		time.Since(started).Round(time.Millisecond),
	)
	fmt.Printf("best_fitness=%.6f\n", summary.BestFitness)
	fmt.Printf("champion=%s\n", summary.Champion)
	return nil
}

// flagValues carries the run flags that can override a loaded config.
type flagValues struct {
	population  int
	generations int
	seed        int64
	workers     int
	fitnessGoal float64
	goalStreak  int
	target      string
	stepBudget  int
	memoryWords int
	stackDepth  int
	minOps      int
	maxOps      int
	verbose     bool
	storeKind   string
	dbPath      string
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func overrideConfig(cfg *config.Config, set map[string]bool, v flagValues) {
	if set["pop"] {
		cfg.Engine.Population = v.population
	}
	if set["gens"] {
		cfg.Engine.MaxGenerations = v.generations
	}
	if set["seed"] {
		cfg.Seed = v.seed
	}
	if set["workers"] {
		cfg.Engine.Workers = v.workers
	}
	if set["fitness-goal"] {
		cfg.Engine.FitnessGoal = v.fitnessGoal
	}
	if set["goal-streak"] {
		cfg.Engine.GoalStreak = v.goalStreak
	}
	if set["phrase"] {
		cfg.Phrase.Target = v.target
	}
	if set["step-budget"] {
		cfg.Calc.StepBudget = v.stepBudget
	}
	if set["memory-words"] {
		cfg.Calc.MemoryWords = v.memoryWords
	}
	if set["stack-depth"] {
		cfg.Calc.StackDepth = v.stackDepth
	}
	if set["min-ops"] {
		cfg.Calc.MinOps = v.minOps
	}
	if set["max-ops"] {
		cfg.Calc.MaxOps = v.maxOps
	}
	if set["verbose"] {
		cfg.Verbose = v.verbose
	}
	if set["store"] {
		cfg.Storage.Backend = v.storeKind
	}
	if set["db-path"] {
		cfg.Storage.DBPath = v.dbPath
	}
}

func runRequestFrom(cfg *config.Config, domain string) progapi.RunRequest {
	return progapi.RunRequest{
		Domain:          domain,
		Population:      cfg.Engine.Population,
		Generations:     cfg.Engine.MaxGenerations,
		Seed:            cfg.Seed,
		Workers:         cfg.Engine.Workers,
		FitnessGoal:     cfg.Engine.FitnessGoal,
		GoalStreak:      cfg.Engine.GoalStreak,
		Phrase:          cfg.Phrase.Target,
		CalcStepBudget:  cfg.Calc.StepBudget,
		CalcMemoryWords: cfg.Calc.MemoryWords,
		CalcStackDepth:  cfg.Calc.StackDepth,
		CalcMinOps:      cfg.Calc.MinOps,
		CalcMaxOps:      cfg.Calc.MaxOps,
	}
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "progenitor.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := progapi.New(ctx, progapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	for _, r := range runs {
		age := r.CreatedAtUTC
		if created, err := time.Parse(time.RFC3339, r.CreatedAtUTC); err == nil {
			age = humanize.Time(created)
		}
		fmt.Printf("run_id=%s created=%s domain=%s seed=%d pop=%d gens=%d evaluations=%s best_fitness=%.6f\n",
			r.ID,
			age,
			r.Domain,
			r.Seed,
			r.PopulationSize,
			r.Generations,
			humanize.Comma(r.Evaluations),
			r.BestFitness,
		)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "progenitor.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("fitness requires --run-id")
	}

	client, err := progapi.New(ctx, progapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, *runID)
	if err != nil {
		return err
	}
	if *limit > 0 && len(history) > *limit {
		history = history[:*limit]
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}

	for i, best := range history {
		fmt.Printf("generation=%d best_fitness=%.6f\n", i+1, best)
	}
	return nil
}

func runStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit generation stats as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "progenitor.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("stats requires --run-id")
	}

	client, err := progapi.New(ctx, progapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	stats, err := client.GenerationStats(ctx, *runID)
	if err != nil {
		return err
	}
	if *limit > 0 && len(stats) > *limit {
		stats = stats[:*limit]
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	for _, s := range stats {
		fmt.Printf("generation=%d best=%.6f mean=%.6f min=%.6f\n",
			s.Generation,
			s.BestFitness,
			s.MeanFitness,
			s.MinFitness,
		)
	}
	return nil
}

func runBest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("best", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	jsonOut := fs.Bool("json", false, "emit run record as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "progenitor.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("best requires --run-id")
	}

	client, err := progapi.New(ctx, progapi.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	record, err := client.GetRun(ctx, *runID)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	}

	fmt.Printf("run_id=%s domain=%s best_fitness=%.6f evaluations=%s\n",
		record.ID,
		record.Domain,
		record.BestFitness,
		humanize.Comma(record.Evaluations),
	)
	fmt.Printf("champion=%s\n", record.Champion)
	return nil
}
