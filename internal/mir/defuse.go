package mir

import "fmt"

var callClobbered = []Operand{
	Register(R0), Register(R1), Register(R2), Register(R3), Register(R12), Register(LR),
}

// DefUse returns the register operands written and read by inst.
// Immediates never appear in either list.
func DefUse(inst Inst) (def, use []Operand, err error) {
	switch x := inst.(type) {
	case Jump, Branch, Return, Comment:
		return nil, nil, nil
	case Load:
		return regs(x.Dst), regs(x.Addr, x.Offset), nil
	case Store:
		return nil, regs(x.Data, x.Addr, x.Offset), nil
	case LoadGlobalAddress:
		return regs(x.Dst), nil, nil
	case Binary:
		return regs(x.Dst), regs(x.Lhs, x.Rhs), nil
	case Unary:
		return nil, nil, fmt.Errorf("%w: unary operator %s", ErrUnsupported, x.Op)
	case Compare:
		return nil, regs(x.Lhs, x.Rhs), nil
	case Move:
		if x.Cond != CondAL {
			// A conditional move keeps the old value when the condition fails.
			return regs(x.Dst), regs(x.Rhs, x.Dst), nil
		}
		return regs(x.Dst), regs(x.Rhs), nil
	case Call:
		use = nil
		for i := 0; i < min(x.NumArgs, 4); i++ {
			use = append(use, Register(Reg(i)))
		}
		return append([]Operand(nil), callClobbered...), use, nil
	default:
		return nil, nil, fmt.Errorf("%w: %T", ErrUnknownInst, inst)
	}
}

func regs(ops ...Operand) []Operand {
	var result []Operand
	for _, op := range ops {
		if op.IsReg() {
			result = append(result, op)
		}
	}
	return result
}
