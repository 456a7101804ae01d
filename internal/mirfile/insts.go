package mirfile

import (
	"github.com/pkg/errors"

	"github.com/iley/armback/internal/mir"
)

var binaryOps = map[string]mir.BinaryOp{
	"add": mir.OpAdd,
	"sub": mir.OpSub,
	"mul": mir.OpMul,
	"mod": mir.OpMod,
	"and": mir.OpAnd,
	"orr": mir.OpOr,
}

var unaryOps = map[string]mir.UnaryOp{
	"neg": mir.OpNeg,
	"not": mir.OpNot,
}

func buildInst(is instSpec, resolve func(string) (mir.BlockID, error)) (mir.Inst, error) {
	// Operands are parsed lazily so that a missing field is only an error
	// for instructions that need it.
	var err error
	operand := func(field, value string) mir.Operand {
		if err != nil {
			return mir.Operand{}
		}
		if value == "" {
			err = errors.Errorf("%s: missing %s", is.Op, field)
			return mir.Operand{}
		}
		var op mir.Operand
		op, err = mir.ParseOperand(value)
		if err != nil {
			err = errors.Wrapf(err, "%s: %s", is.Op, field)
		}
		return op
	}
	cond := func() mir.Cond {
		if err != nil {
			return mir.CondAL
		}
		var c mir.Cond
		c, err = mir.ParseCond(is.Cond)
		return c
	}
	target := func() mir.BlockID {
		if err != nil {
			return 0
		}
		var id mir.BlockID
		id, err = resolve(is.Target)
		return id
	}
	offset := func() mir.Operand {
		if is.Offset == "" {
			return mir.Immediate(0)
		}
		return operand("offset", is.Offset)
	}

	var inst mir.Inst
	switch is.Op {
	case "b":
		inst = mir.Jump{Target: target()}
	case "bcond":
		// An always-taken branch is a jump and has no fall-through edge.
		c := cond()
		if err == nil && c == mir.CondAL {
			return nil, errors.New("bcond: missing condition, use b for an unconditional branch")
		}
		inst = mir.Branch{Cond: c, Target: target()}
	case "ldr":
		inst = mir.Load{Dst: operand("dst", is.Dst), Addr: operand("addr", is.Addr), Offset: offset(), Shift: is.Shift}
	case "str":
		inst = mir.Store{Data: operand("data", is.Data), Addr: operand("addr", is.Addr), Offset: offset(), Shift: is.Shift}
	case "global":
		if is.Symbol == "" {
			return nil, errors.New("global: missing symbol")
		}
		inst = mir.LoadGlobalAddress{Dst: operand("dst", is.Dst), Symbol: is.Symbol}
	case "cmp":
		inst = mir.Compare{Lhs: operand("lhs", is.Lhs), Rhs: operand("rhs", is.Rhs)}
	case "mov":
		inst = mir.Move{Cond: cond(), Dst: operand("dst", is.Dst), Rhs: operand("rhs", is.Rhs)}
	case "ret":
		inst = mir.Return{}
	case "call":
		if is.Symbol == "" {
			return nil, errors.New("call: missing symbol")
		}
		inst = mir.Call{Symbol: is.Symbol, NumArgs: is.Args}
	case "comment":
		inst = mir.Comment{Text: is.Text}
	default:
		if op, ok := binaryOps[is.Op]; ok {
			inst = mir.Binary{Op: op, Dst: operand("dst", is.Dst), Lhs: operand("lhs", is.Lhs), Rhs: operand("rhs", is.Rhs)}
		} else if op, ok := unaryOps[is.Op]; ok {
			inst = mir.Unary{Op: op, Dst: operand("dst", is.Dst), Src: operand("src", is.Src)}
		} else {
			return nil, errors.Errorf("unknown op %q", is.Op)
		}
	}

	if err != nil {
		return nil, err
	}
	return inst, nil
}
