package armv7

import (
	"errors"
	"fmt"
	"slices"

	"github.com/golang/glog"

	"github.com/iley/armback/internal/asm"
	"github.com/iley/armback/internal/frame"
	"github.com/iley/armback/internal/mir"
	"github.com/iley/armback/internal/util"
)

const (
	BB_PREFIX         = "_BB"
	MAX_ACCESS_OFFSET = 4095 // 12-bit immediate offset of ldr/str
)

// ErrEncodingImpossible is returned when an instruction has no valid
// encoding with the registers it was given.
var ErrEncodingImpossible = errors.New("instruction cannot be encoded")

// ErrPendingFixups is returned for a function that still has stack argument
// fixups, i.e. one that was not finalized.
var ErrPendingFixups = errors.New("stack argument fixups not applied")

// Instructions the assembler substitutes when an immediate only encodes
// negated or complemented.
var (
	negatedForm      = map[string]string{"add": "sub", "sub": "add", "cmp": "cmn"}
	complementedForm = map[string]string{"and": "bic"}
)

type Options struct {
	Frame frame.Convention
}

type CodegenContext struct {
	options Options
	// Label numbers are assigned in traversal order across the whole program.
	labelBase int

	// Function-specific.
	fn      *mir.Function
	pushSet asm.Arg
	popSet  asm.Arg
}

// Generate lowers a finalized program into assembly lines. It does not
// modify the program.
func Generate(p *mir.Program, options Options) (asm.Program, error) {
	asmProgram := asm.Program{}
	cc := &CodegenContext{options: options}

	for _, fn := range p.Functions {
		afn, err := generateFunction(cc, fn)
		if err != nil {
			return asmProgram, fmt.Errorf("error when generating code for function %s: %w", fn.Name, err)
		}
		asmProgram.Functions = append(asmProgram.Functions, afn)
		cc.labelBase += len(fn.Blocks)
	}

	asmProgram.Data = generateData(p.Globals)
	return asmProgram, nil
}

func generateFunction(cc *CodegenContext, fn *mir.Function) (asm.Function, error) {
	result := asm.Function{
		Name: fn.Name,
	}
	if len(fn.StackArgFixups) > 0 {
		return result, fmt.Errorf("%w: %d pending", ErrPendingFixups, len(fn.StackArgFixups))
	}

	saved := registerList(cc.options.Frame.SavedRegs(fn))
	cc.fn = fn
	cc.pushSet = asm.RegList(slices.Concat(saved, []string{"lr"})...)
	cc.popSet = asm.RegList(slices.Concat(saved, []string{"pc"})...)

	result.Lines = append(result.Lines, asm.Op2("stmfd", asm.SP.AsWriteback(), cc.pushSet))
	result.Lines = append(result.Lines, generateSPAdjust("sub", fn.SPOffset)...)

	for _, bb := range fn.Blocks {
		result.Lines = append(result.Lines,
			asm.Label(cc.label(bb.ID)),
			asm.Comment(cc.blockSummary(bb)))

		ct, hasCT := bb.ControlTransfer()
		for i, inst := range bb.Insts {
			if hasCT && i == ct {
				result.Lines = append(result.Lines, asm.Comment("control transfer"))
			}
			lines, err := generateInst(cc, inst)
			if err != nil {
				return result, fmt.Errorf("%s[%d] %s: %w", bb.ID, i, inst, err)
			}
			result.Lines = append(result.Lines, lines...)
		}
	}

	return result, nil
}

func (cc *CodegenContext) label(id mir.BlockID) string {
	return fmt.Sprintf("%s%d", BB_PREFIX, cc.labelBase+int(id))
}

func (cc *CodegenContext) blockSummary(bb *mir.BasicBlock) string {
	labels := func(ids []mir.BlockID) string {
		s := ""
		for _, id := range ids {
			s += " " + cc.label(id)
		}
		return s
	}
	set := func(ops []mir.Operand) string {
		s := ""
		for _, op := range ops {
			s += " " + op.String()
		}
		return s
	}
	return fmt.Sprintf("pred:%s, succ:%s, livein:%s, liveout:%s, liveuse:%s, def:%s",
		labels(bb.Pred), labels(bb.Succ),
		set(mir.SortedOperands(bb.LiveIn)), set(mir.SortedOperands(bb.LiveOut)),
		set(mir.SortedOperands(bb.LiveUse)), set(mir.SortedOperands(bb.Def)))
}

func generateInst(cc *CodegenContext, inst mir.Inst) ([]asm.Line, error) {
	switch x := inst.(type) {
	case mir.Jump:
		if !cc.fn.HasBlock(x.Target) {
			return nil, fmt.Errorf("jump to missing block %s", x.Target)
		}
		return []asm.Line{asm.Op1("b", asm.Ref(cc.label(x.Target)))}, nil
	case mir.Branch:
		if !cc.fn.HasBlock(x.Target) {
			return nil, fmt.Errorf("branch to missing block %s", x.Target)
		}
		return []asm.Line{asm.Op1("b"+x.Cond.String(), asm.Ref(cc.label(x.Target)))}, nil
	case mir.Load:
		return generateAccess("ldr", x.Dst, x.Addr, x.Offset, x.Shift)
	case mir.Store:
		return generateAccess("str", x.Data, x.Addr, x.Offset, x.Shift)
	case mir.LoadGlobalAddress:
		dst, err := regArg(x.Dst)
		if err != nil {
			return nil, err
		}
		return []asm.Line{asm.Op2("ldr", dst, asm.Lit(x.Symbol))}, nil
	case mir.Binary:
		return generateBinary(x)
	case mir.Unary:
		return nil, fmt.Errorf("%w: unary operator %s", mir.ErrUnsupported, x.Op)
	case mir.Compare:
		lhs, err := regArg(x.Lhs)
		if err != nil {
			return nil, err
		}
		op, rhs, err := operand2("cmp", x.Rhs)
		if err != nil {
			return nil, err
		}
		return []asm.Line{asm.Op2(op, lhs, rhs)}, nil
	case mir.Move:
		return generateMove(x)
	case mir.Return:
		lines := generateSPAdjust("add", cc.fn.SPOffset)
		return append(lines, asm.Op2("ldmfd", asm.SP.AsWriteback(), cc.popSet)), nil
	case mir.Call:
		return []asm.Line{asm.Op1("bl", asm.Ref(x.Symbol))}, nil
	case mir.Comment:
		return []asm.Line{asm.Note(util.EscapeString(x.Text))}, nil
	default:
		return nil, fmt.Errorf("%w: %T", mir.ErrUnknownInst, inst)
	}
}

func generateAccess(op string, data, addr, offset mir.Operand, shift int) ([]asm.Line, error) {
	dataArg, err := regArg(data)
	if err != nil {
		return nil, err
	}
	base, err := regArg(addr)
	if err != nil {
		return nil, err
	}
	if shift < 0 || shift > 31 {
		return nil, fmt.Errorf("%w: shift %d out of range", ErrEncodingImpossible, shift)
	}
	if offset.IsImm() {
		// Scaled in 64 bits so that an overflowing offset is rejected, not wrapped.
		imm := int64(offset.Value) << shift
		if imm < -MAX_ACCESS_OFFSET || imm > MAX_ACCESS_OFFSET {
			return nil, fmt.Errorf("%w: offset %d out of range for %s", ErrEncodingImpossible, imm, op)
		}
		return []asm.Line{asm.Op2(op, dataArg, asm.Mem(base.Reg, int32(imm)))}, nil
	}
	index, err := regArg(offset)
	if err != nil {
		return nil, err
	}
	return []asm.Line{asm.Op2(op, dataArg, asm.MemIndexed(base.Reg, index.Reg, shift))}, nil
}

func generateBinary(binop mir.Binary) ([]asm.Line, error) {
	var op string
	switch binop.Op {
	case mir.OpAdd:
		op = "add"
	case mir.OpSub:
		op = "sub"
	case mir.OpAnd:
		op = "and"
	case mir.OpOr:
		op = "orr"
	case mir.OpMul:
		return generateMul(binop)
	case mir.OpMod:
		// There is no modulo instruction; it has to be lowered to a library call before this point.
		return nil, fmt.Errorf("%w: mod has no native instruction", mir.ErrUnsupported)
	default:
		return nil, fmt.Errorf("%w: binary operator %s", mir.ErrUnsupported, binop.Op)
	}

	dst, err := regArg(binop.Dst)
	if err != nil {
		return nil, err
	}
	lhs, err := regArg(binop.Lhs)
	if err != nil {
		return nil, err
	}
	op, rhs, err := operand2(op, binop.Rhs)
	if err != nil {
		return nil, err
	}
	return []asm.Line{asm.Op3(op, dst, lhs, rhs)}, nil
}

// generateMul respects the MUL restriction that Rd and Rm (the first
// source) must differ. The program itself is left untouched.
func generateMul(binop mir.Binary) ([]asm.Line, error) {
	lhs, rhs := binop.Lhs, binop.Rhs
	if binop.Dst == lhs {
		if binop.Dst == rhs {
			return nil, fmt.Errorf("%w: mul %s, %s, %s: Rd must differ from Rm", ErrEncodingImpossible, binop.Dst, lhs, rhs)
		}
		glog.V(7).Infof("mul %s, %s, %s: swapping sources so that Rd differs from Rm", binop.Dst, lhs, rhs)
		lhs, rhs = rhs, lhs
	}

	dst, err := regArg(binop.Dst)
	if err != nil {
		return nil, err
	}
	lhsArg, err := regArg(lhs)
	if err != nil {
		return nil, err
	}
	rhsArg, err := regArg(rhs)
	if err != nil {
		return nil, err
	}
	return []asm.Line{asm.Op3("mul", dst, lhsArg, rhsArg)}, nil
}

func generateMove(mv mir.Move) ([]asm.Line, error) {
	dst, err := regArg(mv.Dst)
	if err != nil {
		return nil, err
	}
	if mv.Rhs.IsImm() && !util.CanEncodeImm(uint32(mv.Rhs.Value)) {
		glog.V(7).Infof("mov %s, %s: immediate split into 16-bit halves", mv.Dst, mv.Rhs)
		return generateLiteralLoad(dst, mv.Cond.String(), mv.Rhs.Value), nil
	}
	rhs, err := operandArg(mv.Rhs)
	if err != nil {
		return nil, err
	}
	return []asm.Line{asm.Op2("mov"+mv.Cond.String(), dst, rhs)}, nil
}

// generateLiteralLoad materializes an arbitrary 32-bit value with movw and,
// when the upper half is not zero, movt.
func generateLiteralLoad(dst asm.Arg, cond string, val int32) []asm.Line {
	imm := uint32(val)
	lines := []asm.Line{asm.Op2("movw"+cond, dst, asm.Imm(int32(util.Slice16bits(imm, 0))))}
	if high := util.Slice16bits(imm, 16); high != 0 {
		lines = append(lines, asm.Op2("movt"+cond, dst, asm.Imm(int32(high))))
	}
	return lines
}

// generateSPAdjust emits sp = sp op amount, going through ip when the
// amount is not a valid immediate operand.
func generateSPAdjust(op string, amount int32) []asm.Line {
	if util.CanEncodeImm(uint32(amount)) {
		return []asm.Line{asm.Op3(op, asm.SP, asm.SP, asm.Imm(amount))}
	}
	lines := generateLiteralLoad(asm.IP, "", amount)
	return append(lines, asm.Op3(op, asm.SP, asm.SP, asm.IP))
}

// registerList renders sorted registers, collapsing consecutive runs into ranges.
func registerList(regs []mir.Reg) []string {
	var result []string
	for i := 0; i < len(regs); {
		j := i
		for j+1 < len(regs) && regs[j+1] == regs[j]+1 {
			j++
		}
		if j > i {
			result = append(result, fmt.Sprintf("%s-%s", regs[i], regs[j]))
		} else {
			result = append(result, regs[i].String())
		}
		i = j + 1
	}
	return result
}

func regArg(op mir.Operand) (asm.Arg, error) {
	if !op.IsReg() {
		return asm.Arg{}, fmt.Errorf("%w: expected a register, got %s", ErrEncodingImpossible, op)
	}
	return asm.Reg(op.Reg().String()), nil
}

func operandArg(op mir.Operand) (asm.Arg, error) {
	switch op.Kind {
	case mir.KindReg:
		return asm.Reg(op.Reg().String()), nil
	case mir.KindImm:
		return asm.Imm(op.Value), nil
	}
	return asm.Arg{}, fmt.Errorf("invalid operand %#v", op)
}

// operand2 returns the second operand of mnemonic, which is either a
// register or an immediate in the modified immediate form. An immediate that
// only encodes negated (add, sub, cmp) or complemented (and) switches to the
// counterpart instruction, the same substitution GNU as makes.
func operand2(mnemonic string, op mir.Operand) (string, asm.Arg, error) {
	if !op.IsImm() || util.CanEncodeImm(uint32(op.Value)) {
		arg, err := operandArg(op)
		return mnemonic, arg, err
	}
	if alt, ok := negatedForm[mnemonic]; ok && util.CanEncodeImm(uint32(-op.Value)) {
		glog.V(7).Infof("%s %s: rewritten as %s #%d", mnemonic, op, alt, -op.Value)
		return alt, asm.Imm(-op.Value), nil
	}
	if alt, ok := complementedForm[mnemonic]; ok && util.CanEncodeImm(^uint32(op.Value)) {
		glog.V(7).Infof("%s %s: rewritten as %s #%d", mnemonic, op, alt, ^op.Value)
		return alt, asm.Imm(^op.Value), nil
	}
	return "", asm.Arg{}, fmt.Errorf("%w: %s is not a valid immediate operand for %s", ErrEncodingImpossible, op, mnemonic)
}
