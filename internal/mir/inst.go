package mir

import (
	"fmt"
	"strings"
)

/*
Machine-level instructions for 32-bit ARM. By the time a program reaches this
package every operand is a physical register or an immediate.

Supported instructions:
 * Jump(Target) - unconditional branch to a block.
 * Branch(Cond, Target) - conditional branch; falls through to the next block otherwise.
 * Load(Dst, Addr, Offset, Shift) - Dst = [Addr + (Offset << Shift)].
 * Store(Data, Addr, Offset, Shift) - [Addr + (Offset << Shift)] = Data.
 * LoadGlobalAddress(Dst, Symbol) - Dst = &Symbol.
 * Binary(Op, Dst, Lhs, Rhs) - Dst = Lhs Op Rhs.
 * Unary(Op, Dst, Src) - recognized but not supported by the backend.
 * Compare(Lhs, Rhs) - set flags from Lhs - Rhs.
 * Move(Cond, Dst, Rhs) - Dst = Rhs if Cond holds.
 * Return - function epilogue and return to the caller.
 * Call(Symbol) - branch with link.
 * Comment(Text) - free-form annotation.
*/

// Inst is implemented only by the instruction types of this package.
type Inst interface {
	fmt.Stringer
	isInst()
}

type Cond uint8

const (
	CondAL Cond = iota
	CondEQ
	CondNE
	CondLT
	CondLE
	CondGT
	CondGE
)

var condSuffixes = [...]string{"", "eq", "ne", "lt", "le", "gt", "ge"}

// String returns the mnemonic suffix. "Always" has an empty suffix.
func (c Cond) String() string {
	if int(c) < len(condSuffixes) {
		return condSuffixes[c]
	}
	panic(fmt.Errorf("invalid condition %d", uint8(c)))
}

func ParseCond(s string) (Cond, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "al" {
		return CondAL, nil
	}
	for i, suffix := range condSuffixes {
		if suffix == s {
			return Cond(i), nil
		}
	}
	return 0, fmt.Errorf("unknown condition %q", s)
}

type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpMod
	OpAnd
	OpOr
)

var binaryOpNames = [...]string{"add", "sub", "mul", "mod", "and", "or"}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return fmt.Sprintf("binop?%d", uint8(op))
}

type UnaryOp uint8

const (
	OpNeg UnaryOp = iota
	OpNot
)

func (op UnaryOp) String() string {
	switch op {
	case OpNeg:
		return "neg"
	case OpNot:
		return "not"
	}
	return fmt.Sprintf("unop?%d", uint8(op))
}

type Jump struct {
	Target BlockID
}

func (Jump) isInst() {}

func (j Jump) String() string {
	return fmt.Sprintf("Jump(%s)", j.Target)
}

type Branch struct {
	Cond   Cond
	Target BlockID
}

func (Branch) isInst() {}

func (b Branch) String() string {
	return fmt.Sprintf("Branch.%s(%s)", b.Cond, b.Target)
}

type Load struct {
	Dst    Operand
	Addr   Operand
	Offset Operand
	Shift  int
}

func (Load) isInst() {}

func (l Load) String() string {
	return fmt.Sprintf("Load(%s = [%s + %s << %d])", l.Dst, l.Addr, l.Offset, l.Shift)
}

type Store struct {
	Data   Operand
	Addr   Operand
	Offset Operand
	Shift  int
}

func (Store) isInst() {}

func (s Store) String() string {
	return fmt.Sprintf("Store([%s + %s << %d] = %s)", s.Addr, s.Offset, s.Shift, s.Data)
}

type LoadGlobalAddress struct {
	Dst    Operand
	Symbol string
}

func (LoadGlobalAddress) isInst() {}

func (g LoadGlobalAddress) String() string {
	return fmt.Sprintf("LoadGlobalAddress(%s = &%s)", g.Dst, g.Symbol)
}

type Binary struct {
	Op  BinaryOp
	Dst Operand
	Lhs Operand
	Rhs Operand
}

func (Binary) isInst() {}

func (b Binary) String() string {
	return fmt.Sprintf("Binary(%s = %s %s %s)", b.Dst, b.Lhs, b.Op, b.Rhs)
}

type Unary struct {
	Op  UnaryOp
	Dst Operand
	Src Operand
}

func (Unary) isInst() {}

func (u Unary) String() string {
	return fmt.Sprintf("Unary(%s = %s %s)", u.Dst, u.Op, u.Src)
}

type Compare struct {
	Lhs Operand
	Rhs Operand
}

func (Compare) isInst() {}

func (c Compare) String() string {
	return fmt.Sprintf("Compare(%s, %s)", c.Lhs, c.Rhs)
}

type Move struct {
	Cond Cond
	Dst  Operand
	Rhs  Operand
}

func (Move) isInst() {}

func (m Move) String() string {
	if m.Cond == CondAL {
		return fmt.Sprintf("Move(%s = %s)", m.Dst, m.Rhs)
	}
	return fmt.Sprintf("Move.%s(%s = %s)", m.Cond, m.Dst, m.Rhs)
}

type Return struct{}

func (Return) isInst() {}

func (Return) String() string {
	return "Return"
}

type Call struct {
	Symbol string
	// Number of arguments; the first four are passed in r0-r3.
	NumArgs int
}

func (Call) isInst() {}

func (c Call) String() string {
	return fmt.Sprintf("Call(%s/%d)", c.Symbol, c.NumArgs)
}

type Comment struct {
	Text string
}

func (Comment) isInst() {}

func (c Comment) String() string {
	return fmt.Sprintf("Comment(%q)", c.Text)
}

// IsControlTransfer reports whether inst ends a block's straight-line execution.
func IsControlTransfer(inst Inst) bool {
	switch inst.(type) {
	case Jump, Branch, Return:
		return true
	}
	return false
}
