package mir

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// WordSize is the size of a machine word in bytes.
const WordSize = 4

type Reg uint8

const (
	R0 Reg = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	SP
	LR
	PC
)

// First and last registers of the callee-saved range (AAPCS).
const (
	FirstCalleeSaved = R4
	LastCalleeSaved  = R11
)

var regNames = [...]string{
	"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
	"r8", "r9", "r10", "r11", "r12", "sp", "lr", "pc",
}

var regAliases = map[string]Reg{
	"fp":  R11,
	"ip":  R12,
	"r13": SP,
	"r14": LR,
	"r15": PC,
}

func (r Reg) String() string {
	if int(r) < len(regNames) {
		return regNames[r]
	}
	return fmt.Sprintf("r?%d", uint8(r))
}

func (r Reg) IsCalleeSaved() bool {
	return r >= FirstCalleeSaved && r <= LastCalleeSaved
}

func ParseReg(name string) (Reg, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range regNames {
		if n == name {
			return Reg(i), nil
		}
	}
	if r, ok := regAliases[name]; ok {
		return r, nil
	}
	return 0, fmt.Errorf("unknown register %q", name)
}

type OperandKind uint8

const (
	KindImm OperandKind = iota + 1
	KindReg
)

// Operand is either an immediate or a physical register. The zero value is invalid.
type Operand struct {
	Kind  OperandKind
	Value int32
}

func Immediate(value int32) Operand {
	return Operand{Kind: KindImm, Value: value}
}

func Register(r Reg) Operand {
	return Operand{Kind: KindReg, Value: int32(r)}
}

func (o Operand) IsImm() bool {
	return o.Kind == KindImm
}

func (o Operand) IsReg() bool {
	return o.Kind == KindReg
}

func (o Operand) Reg() Reg {
	if o.Kind != KindReg {
		panic(fmt.Errorf("operand %#v is not a register", o))
	}
	return Reg(o.Value)
}

func (o Operand) String() string {
	switch o.Kind {
	case KindReg:
		return Reg(o.Value).String()
	case KindImm:
		return fmt.Sprintf("#%d", o.Value)
	}
	panic(fmt.Sprintf("invalid operand value: %#v", o))
}

// ParseOperand accepts "#<int>" for immediates and a register name otherwise.
// Immediates may be written in any base strconv understands and may use the
// full unsigned 32-bit range, which is reinterpreted as a signed word.
func ParseOperand(s string) (Operand, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Operand{}, fmt.Errorf("empty operand")
	}
	if strings.HasPrefix(s, "#") {
		v, err := strconv.ParseInt(s[1:], 0, 64)
		if err != nil {
			return Operand{}, fmt.Errorf("invalid immediate %q: %w", s, err)
		}
		if v < -(1<<31) || v > (1<<32)-1 {
			return Operand{}, fmt.Errorf("immediate %q does not fit in 32 bits", s)
		}
		return Immediate(int32(uint32(v))), nil
	}
	r, err := ParseReg(s)
	if err != nil {
		return Operand{}, err
	}
	return Register(r), nil
}

// CompareOperands orders registers before immediates, each by value.
func CompareOperands(a, b Operand) int {
	if a.Kind != b.Kind {
		// KindReg sorts first.
		return cmp.Compare(b.Kind, a.Kind)
	}
	return cmp.Compare(a.Value, b.Value)
}
