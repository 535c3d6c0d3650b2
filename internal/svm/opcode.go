package svm

import (
	"fmt"
	"math/rand/v2"
)

// Instruction identifies one operation of the stack machine.
type Instruction uint8

const (
	Nop Instruction = iota
	BitOr
	BitAnd
	BitXor
	Add
	Sub
	Mult
	Div
	Push
	Pop
	PushDuplicate
	PushMem
	PopMem
	JumpRel
	JumpEq
	JumpGt
	JumpLt
	Abort

	instructionCount
)

// OpCode is one executable unit: an instruction plus its literal
// operand. Only Push, PushMem, PopMem and the jumps consult Literal.
type OpCode struct {
	Code    Instruction `json:"code"`
	Literal int32       `json:"literal"`
}

// RandomOpCode draws a uniformly random instruction with a small
// literal. Randomness comes from the per-thread generators behind
// math/rand/v2, so concurrent callers never contend on a shared source.
func RandomOpCode() OpCode {
	return OpCode{
		Code:    Instruction(rand.IntN(int(instructionCount))),
		Literal: int32(rand.IntN(5)),
	}
}

func (o OpCode) String() string {
	switch o.Code {
	case Nop:
		return "nop"
	case BitOr:
		return "bit_or"
	case BitAnd:
		return "bit_and"
	case BitXor:
		return "bit_xor"
	case Add:
		return "add"
	case Sub:
		return "sub"
	case Mult:
		return "mult"
	case Div:
		return "div"
	case Push:
		return fmt.Sprintf("push %d", o.Literal)
	case Pop:
		return "pop"
	case PushDuplicate:
		return "push_dup"
	case PushMem:
		return fmt.Sprintf("push (%d)", o.Literal)
	case PopMem:
		return fmt.Sprintf("pop_to %d", o.Literal)
	case JumpRel:
		return fmt.Sprintf("jmp %d", o.Literal)
	case JumpEq:
		return fmt.Sprintf("jmp_eq %d", o.Literal)
	case JumpGt:
		return fmt.Sprintf("jmp_gt %d", o.Literal)
	case JumpLt:
		return fmt.Sprintf("jmp_lt %d", o.Literal)
	case Abort:
		return "abort"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(o.Code))
	}
}
