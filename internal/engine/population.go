package engine

import (
	"context"
	"math/rand"
	randv2 "math/rand/v2"
	"runtime"
	"sort"
	"sync"
)

// Config controls scheduling for population construction and evolution.
// A zero value is usable: Workers defaults to the number of CPUs and
// Seed defaults to a randomly drawn value.
type Config struct {
	Workers int
	Seed    int64
}

// Population is an ordered collection of graded individuals, kept
// sorted by descending fitness. A population is built once and then
// only ever replaced wholesale by Evolve, never mutated in place.
type Population[I Individual[I]] struct {
	Individuals []Graded[I]

	cfg   Config
	epoch int64
}

// NewPopulation builds and scores the initial generation in parallel
// and returns it fully sorted. The initial generation holds size-1
// members. The engine performs no validation of degenerate sizes;
// callers must guard against populations too small to be useful.
func NewPopulation[I Individual[I]](ctx context.Context, cfg Config, size int, generator Generator[I], fitness Fitness[I]) (*Population[I], error) {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Seed == 0 {
		cfg.Seed = randv2.Int64()
	}

	count := size - 1
	if count < 0 {
		count = 0
	}
	individuals := make([]Graded[I], count)
	tasks := make([]gradeTask[I], count)
	for i := 0; i < count; i++ {
		tasks[i] = gradeTask[I]{
			dst: i,
			run: func(*rand.Rand) Graded[I] {
				individual := generator.Generate()
				return Graded[I]{Individual: individual, Fitness: fitness(individual)}
			},
		}
	}
	if err := runGraded(ctx, cfg.Workers, cfg.Seed, individuals, tasks); err != nil {
		return nil, err
	}

	sortByFitness(individuals)
	return &Population[I]{Individuals: individuals, cfg: cfg}, nil
}

// Evolve produces the next generation with the same cardinality as the
// current one: the top tenth is carried over verbatim with its known
// scores, and the remaining slots alternate between a mutation of the
// current occupant and a crossover with a partner drawn uniformly from
// the whole current population. Every non-elite slot is scored exactly
// once. The receiver is read-only input and remains valid afterwards.
func (p *Population[I]) Evolve(ctx context.Context, generator Generator[I], fitness Fitness[I]) (*Population[I], error) {
	n := len(p.Individuals)
	next := make([]Graded[I], n)

	copyCount := EliteCount(n)
	copy(next[:copyCount], p.Individuals[:copyCount])

	tasks := make([]gradeTask[I], 0, n-copyCount)
	for i := copyCount; i < n; i++ {
		source := p.Individuals[i].Individual
		if (i-copyCount)%2 == 0 {
			tasks = append(tasks, gradeTask[I]{
				dst: i,
				run: func(*rand.Rand) Graded[I] {
					mutant := source.Mutate()
					return Graded[I]{Individual: mutant, Fitness: fitness(mutant)}
				},
			})
			continue
		}
		tasks = append(tasks, gradeTask[I]{
			dst: i,
			run: func(rng *rand.Rand) Graded[I] {
				partner := p.Individuals[rng.Intn(n)].Individual
				child := generator.Evolve(source, partner)
				return Graded[I]{Individual: child, Fitness: fitness(child)}
			},
		})
	}

	seed := p.cfg.Seed + (p.epoch+1)*7919
	if err := runGraded(ctx, p.cfg.Workers, seed, next, tasks); err != nil {
		return nil, err
	}

	sortByFitness(next)
	return &Population[I]{Individuals: next, cfg: p.cfg, epoch: p.epoch + 1}, nil
}

// Best returns the top-ranked member, or ok=false for an empty
// population.
func (p *Population[I]) Best() (Graded[I], bool) {
	if len(p.Individuals) == 0 {
		var zero Graded[I]
		return zero, false
	}
	return p.Individuals[0], true
}

type gradeTask[I Individual[I]] struct {
	dst int
	run func(rng *rand.Rand) Graded[I]
}

type gradeResult[I Individual[I]] struct {
	dst    int
	graded Graded[I]
	err    error
}

// runGraded dispatches tasks to a fixed worker pool and writes each
// result back into out at the task's destination index. Each worker
// owns an independent random source derived from seed; nothing mutable
// is shared across workers.
func runGraded[I Individual[I]](ctx context.Context, workers int, seed int64, out []Graded[I], tasks []gradeTask[I]) error {
	if len(tasks) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	jobs := make(chan gradeTask[I])
	results := make(chan gradeResult[I], len(tasks))

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		rng := rand.New(rand.NewSource(seed + int64(w)))
		go func() {
			defer wg.Done()
			for t := range jobs {
				if err := ctx.Err(); err != nil {
					results <- gradeResult[I]{dst: t.dst, err: err}
					continue
				}
				results <- gradeResult[I]{dst: t.dst, graded: t.run(rng)}
			}
		}()
	}

	for _, t := range tasks {
		jobs <- t
	}
	close(jobs)

	wg.Wait()
	close(results)

	for res := range results {
		if res.err != nil {
			return res.err
		}
		out[res.dst] = res.graded
	}
	return nil
}

func sortByFitness[I Individual[I]](individuals []Graded[I]) {
	sort.SliceStable(individuals, func(i, j int) bool {
		return rankedBefore(individuals[i].Fitness, individuals[j].Fitness)
	})
}
