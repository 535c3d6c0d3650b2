// Package calc evolves stack-machine programs toward computing a*b+a
// from memory-resident operands.
package calc

import (
	"math/rand/v2"
	"strings"

	"progenitor/internal/engine"
	"progenitor/internal/svm"
)

const (
	defaultMinOps      = 5
	defaultMaxOps      = 25
	defaultStepBudget  = 25
	defaultMemoryWords = 100
	defaultStackDepth  = 100

	operandSlotA = 0
	operandSlotB = 1
	resultSlot   = 3
)

// Program is a variable-length opcode sequence. The zero value is a
// valid (empty) program that always times out.
type Program struct {
	Ops []svm.OpCode
}

// Mutate returns a copy with one of three uniform edits: replace a
// random opcode, delete a random opcode, or append a fresh one.
// Programs of two or fewer opcodes never shrink; the delete edit turns
// into an append instead.
func (p Program) Mutate() Program {
	action := rand.IntN(3)
	length := len(p.Ops)
	if length == 0 {
		action = 2
	} else if length <= 2 && action == 1 {
		action = 2
	}

	switch action {
	case 0:
		ops := make([]svm.OpCode, length)
		copy(ops, p.Ops)
		ops[rand.IntN(length)] = svm.RandomOpCode()
		return Program{Ops: ops}
	case 1:
		drop := rand.IntN(length)
		ops := make([]svm.OpCode, 0, length-1)
		ops = append(ops, p.Ops[:drop]...)
		ops = append(ops, p.Ops[drop+1:]...)
		return Program{Ops: ops}
	default:
		ops := make([]svm.OpCode, 0, length+1)
		ops = append(ops, p.Ops...)
		ops = append(ops, svm.RandomOpCode())
		return Program{Ops: ops}
	}
}

// String renders the program as one disassembled opcode per line.
func (p Program) String() string {
	lines := make([]string, 0, len(p.Ops))
	for _, op := range p.Ops {
		lines = append(lines, op.String())
	}
	return strings.Join(lines, "\n")
}

// Generator produces random programs. The zero value uses the default
// initial length bounds.
type Generator struct {
	MinOps int
	MaxOps int
}

func (g Generator) bounds() (int, int) {
	minOps, maxOps := g.MinOps, g.MaxOps
	if minOps <= 0 {
		minOps = defaultMinOps
	}
	if maxOps <= minOps {
		maxOps = minOps + (defaultMaxOps - defaultMinOps)
	}
	return minOps, maxOps
}

func (g Generator) Generate() Program {
	minOps, maxOps := g.bounds()
	count := minOps + rand.IntN(maxOps-minOps)
	ops := make([]svm.OpCode, count)
	for i := range ops {
		ops[i] = svm.RandomOpCode()
	}
	return Program{Ops: ops}
}

// Evolve derives the offspring from parent a alone; for opcode
// programs a positional splice of two unrelated parents is almost
// never executable, so crossover degenerates to mutation.
func (g Generator) Evolve(a, _ Program) Program {
	return a.Mutate()
}

// FitnessOptions configures the evaluation harness. Zero fields take
// defaults; a nil Operands source draws uniform values in [1, 10000).
type FitnessOptions struct {
	StepBudget  int
	MemoryWords int
	StackDepth  int
	Operands    func() (a, b int32)
}

func (o FitnessOptions) withDefaults() FitnessOptions {
	if o.StepBudget <= 0 {
		o.StepBudget = defaultStepBudget
	}
	if o.MemoryWords <= 0 {
		o.MemoryWords = defaultMemoryWords
	}
	if o.StackDepth <= 0 {
		o.StackDepth = defaultStackDepth
	}
	if o.Operands == nil {
		o.Operands = func() (int32, int32) {
			return 1 + rand.Int32N(9999), 1 + rand.Int32N(9999)
		}
	}
	return o
}

// NewFitness builds the scoring function. Each call constructs its own
// VM, so the returned function is safe for arbitrarily many concurrent
// callers. A program that aborts with memory[3] holding exactly a*b+a
// earns a bonus scaled down for longer programs; any other outcome
// earns none. The absolute numeric error is subtracted either way, so
// a timed-out or wrong program scores negative in proportion to how
// far off it is.
func NewFitness(opts FitnessOptions) engine.Fitness[Program] {
	opts = opts.withDefaults()
	return func(subject Program) float32 {
		a, b := opts.Operands()
		expected := float32(a*b + a)

		vm := svm.New(opts.MemoryWords, opts.StackDepth)
		vm.PokeMem(operandSlotA, a)
		vm.PokeMem(operandSlotB, b)
		exit := vm.Execute(subject.Ops, opts.StepBudget)
		got := float32(vm.PeekMem(resultSlot))

		var modifier float32
		if exit == svm.ExitAbort && got == expected {
			modifier = lengthBonus(len(subject.Ops))
		}
		diff := expected - got
		if diff < 0 {
			diff = -diff
		}
		return modifier - diff
	}
}

// lengthBonus rewards shorter exact solutions.
func lengthBonus(length int) float32 {
	switch {
	case length < 10:
		return 2.0
	case length < 15:
		return 1.8
	case length < 20:
		return 1.7
	case length < 25:
		return 1.6
	case length < 30:
		return 1.5
	default:
		return 1.0
	}
}
