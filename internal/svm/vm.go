// Package svm implements a bounded stack machine. Every failure mode a
// randomly generated program can hit is defined rather than fatal: the
// instruction pointer clamps to address 0 when it leaves the program,
// popping an empty stack yields zero, pushing a full stack drops the
// value, and division by zero saturates to the maximum representable
// value. Execution is always bounded by an explicit step budget, so
// evaluating an arbitrary program is guaranteed to terminate.
package svm

import "math"

// ExitType reports how a program run ended.
type ExitType int

const (
	// ExitTimeout means the step budget ran out before an Abort.
	ExitTimeout ExitType = iota
	// ExitAbort means the program reached an Abort instruction.
	ExitAbort
)

// Stats accumulates execution counters for one run.
type Stats struct {
	InstructionsIssued int
}

// VM is a stack machine with fixed-size word memory and a bounded
// operand stack. Not safe for concurrent use; every evaluation should
// own its VM.
type VM struct {
	memory   []int32
	stack    []int32
	stackCap int
	stats    Stats
}

// New returns a VM with the given number of zeroed memory words and
// operand stack capacity.
func New(words, stackDepth int) *VM {
	return &VM{
		memory:   make([]int32, words),
		stack:    make([]int32, 0, stackDepth),
		stackCap: stackDepth,
	}
}

// PeekMem reads a memory word; out-of-range addresses read as zero.
func (v *VM) PeekMem(address int) int32 {
	if address < 0 || address >= len(v.memory) {
		return 0
	}
	return v.memory[address]
}

// PokeMem writes a memory word; out-of-range writes are dropped.
func (v *VM) PokeMem(address int, value int32) {
	if address < 0 || address >= len(v.memory) {
		return
	}
	v.memory[address] = value
}

// Reset zeroes memory, clears the stack and resets counters so the VM
// can be reused for another run.
func (v *VM) Reset() {
	for i := range v.memory {
		v.memory[i] = 0
	}
	v.stack = v.stack[:0]
	v.stats = Stats{}
}

func (v *VM) Stats() Stats {
	return v.stats
}

func (v *VM) popStack() int32 {
	if len(v.stack) == 0 {
		return 0
	}
	value := v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
	return value
}

func (v *VM) pushStack(value int32) {
	if len(v.stack) < v.stackCap {
		v.stack = append(v.stack, value)
	}
}

// Execute runs program for at most maxSteps instructions and reports
// how execution ended. An empty program or a zero budget times out
// immediately with no instructions issued.
func (v *VM) Execute(program []OpCode, maxSteps int) ExitType {
	if len(program) == 0 {
		return ExitTimeout
	}

	boundIP := func(ip int32) int32 {
		if ip < 0 || int(ip) >= len(program) {
			return 0
		}
		return ip
	}

	var ip int32
	remaining := maxSteps

	for remaining > 0 {
		remaining--
		ip = boundIP(ip)

		op := program[ip]
		ip++
		v.stats.InstructionsIssued++

		switch op.Code {
		case Nop:
		case BitOr:
			a := v.popStack()
			b := v.popStack()
			v.pushStack(a | b)
		case BitAnd:
			a := v.popStack()
			b := v.popStack()
			v.pushStack(a & b)
		case BitXor:
			a := v.popStack()
			b := v.popStack()
			v.pushStack(a ^ b)
		case Add:
			a := v.popStack()
			b := v.popStack()
			v.pushStack(a + b)
		case Sub:
			a := v.popStack()
			b := v.popStack()
			v.pushStack(a - b)
		case Mult:
			a := v.popStack()
			b := v.popStack()
			v.pushStack(a * b)
		case Div:
			dividend := v.popStack()
			divisor := v.popStack()
			switch {
			case divisor == 0:
				v.pushStack(math.MaxInt32)
			case dividend == math.MinInt32 && divisor == -1:
				// Wrapping semantics; the quotient overflows back
				// to MinInt32 instead of trapping.
				v.pushStack(math.MinInt32)
			default:
				v.pushStack(dividend / divisor)
			}
		case Push:
			v.pushStack(op.Literal)
		case Pop:
			v.popStack()
		case PushDuplicate:
			value := v.popStack()
			v.pushStack(value)
			v.pushStack(value)
		case PushMem:
			v.pushStack(v.PeekMem(int(op.Literal)))
		case PopMem:
			v.PokeMem(int(op.Literal), v.popStack())
		case JumpRel:
			ip += op.Literal
		case JumpEq:
			if v.popStack() == 0 {
				ip += op.Literal
			}
		case JumpGt:
			if v.popStack() > 0 {
				ip += op.Literal
			}
		case JumpLt:
			if v.popStack() < 0 {
				ip += op.Literal
			}
		case Abort:
			return ExitAbort
		}
	}
	return ExitTimeout
}
