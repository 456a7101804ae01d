package mir

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectUpdatesBothSides(t *testing.T) {
	t.Parallel()

	fn := NewFunction("f")
	a, b, c, d := fn.NewBlock(), fn.NewBlock(), fn.NewBlock(), fn.NewBlock()

	require.NoError(t, fn.Connect(a, b))
	require.NoError(t, fn.Connect(a, c))
	assert.Equal(t, []BlockID{b, c}, fn.Block(a).Succ)
	assert.Equal(t, []BlockID{a}, fn.Block(b).Pred)
	assert.Equal(t, []BlockID{a}, fn.Block(c).Pred)

	err := fn.Connect(a, d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already has two successors")
	assert.Empty(t, fn.Block(d).Pred, "a failed connect must not touch the target")

	require.Error(t, fn.Connect(b, b+10))
	require.NoError(t, fn.Connect(b, d))
	require.Error(t, fn.Connect(b, d), "duplicate edge")
}

func TestSuccessors(t *testing.T) {
	t.Parallel()

	fn := NewFunction("f")
	entry, body, exit := fn.NewBlock(), fn.NewBlock(), fn.NewBlock()

	fn.Append(entry, Compare{Lhs: Register(R0), Rhs: Immediate(0)})
	fn.Terminate(entry, Branch{Cond: CondEQ, Target: exit})
	require.NoError(t, fn.Connect(entry, exit))

	fn.Append(body, Move{Dst: Register(R0), Rhs: Immediate(1)})

	fn.Terminate(exit, Return{})

	assert.Equal(t, []BlockID{exit, body}, fn.Successors(entry), "branch falls through to the next block")
	assert.Equal(t, []BlockID{exit}, fn.Successors(body), "unterminated block falls through")
	assert.Empty(t, fn.Successors(exit))
}

func TestSuccessorsOfJump(t *testing.T) {
	t.Parallel()

	fn := NewFunction("f")
	a, b, c := fn.NewBlock(), fn.NewBlock(), fn.NewBlock()
	fn.Terminate(a, Jump{Target: c})
	require.NoError(t, fn.Connect(a, c))
	fn.Terminate(b, Return{})
	fn.Terminate(c, Return{})

	assert.Equal(t, []BlockID{c}, fn.Successors(a))
}

func TestTerminate(t *testing.T) {
	t.Parallel()

	fn := NewFunction("f")
	bb := fn.NewBlock()
	fn.Append(bb, Comment{Text: "x"})
	ref := fn.Terminate(bb, Return{})

	assert.Equal(t, InstRef{Block: bb, Index: 1}, ref)
	idx, ok := fn.Block(bb).ControlTransfer()
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	assert.Panics(t, func() { fn.Append(bb, Comment{Text: "after"}) })
	assert.Panics(t, func() { fn.Terminate(fn.NewBlock(), Comment{Text: "not a branch"}) })
}

func TestInstAndSetInst(t *testing.T) {
	t.Parallel()

	fn := NewFunction("f")
	bb := fn.NewBlock()
	ref := fn.Append(bb, Move{Dst: Register(R1), Rhs: Immediate(4)})

	inst, ok := fn.Inst(ref)
	require.True(t, ok)
	assert.Equal(t, Move{Dst: Register(R1), Rhs: Immediate(4)}, inst)

	fn.SetInst(ref, Move{Dst: Register(R1), Rhs: Immediate(8)})
	inst, _ = fn.Inst(ref)
	assert.Equal(t, Move{Dst: Register(R1), Rhs: Immediate(8)}, inst)

	_, ok = fn.Inst(InstRef{Block: bb, Index: 5})
	assert.False(t, ok)
	_, ok = fn.Inst(InstRef{Block: 3})
	assert.False(t, ok)
	assert.Panics(t, func() { fn.SetInst(InstRef{Block: bb, Index: 5}, Return{}) })
}

func TestDefUse(t *testing.T) {
	tests := []struct {
		name string
		inst Inst
		def  []Operand
		use  []Operand
	}{
		{
			name: "load with register offset",
			inst: Load{Dst: Register(R4), Addr: Register(SP), Offset: Register(R1), Shift: 2},
			def:  []Operand{Register(R4)},
			use:  []Operand{Register(SP), Register(R1)},
		},
		{
			name: "store with immediate offset",
			inst: Store{Data: Register(R5), Addr: Register(R0), Offset: Immediate(2), Shift: 2},
			use:  []Operand{Register(R5), Register(R0)},
		},
		{
			name: "binary",
			inst: Binary{Op: OpAdd, Dst: Register(R6), Lhs: Register(R6), Rhs: Immediate(1)},
			def:  []Operand{Register(R6)},
			use:  []Operand{Register(R6)},
		},
		{
			name: "unconditional move",
			inst: Move{Dst: Register(R7), Rhs: Register(R0)},
			def:  []Operand{Register(R7)},
			use:  []Operand{Register(R0)},
		},
		{
			name: "conditional move reads its destination",
			inst: Move{Cond: CondNE, Dst: Register(R7), Rhs: Immediate(1)},
			def:  []Operand{Register(R7)},
			use:  []Operand{Register(R7)},
		},
		{
			name: "call clobbers caller-saved registers",
			inst: Call{Symbol: "f", NumArgs: 6},
			def:  []Operand{Register(R0), Register(R1), Register(R2), Register(R3), Register(R12), Register(LR)},
			use:  []Operand{Register(R0), Register(R1), Register(R2), Register(R3)},
		},
		{
			name: "global address",
			inst: LoadGlobalAddress{Dst: Register(R8), Symbol: "x"},
			def:  []Operand{Register(R8)},
		},
		{
			name: "compare",
			inst: Compare{Lhs: Register(R0), Rhs: Register(R1)},
			use:  []Operand{Register(R0), Register(R1)},
		},
		{name: "return", inst: Return{}},
		{name: "jump", inst: Jump{Target: 1}},
		{name: "comment", inst: Comment{Text: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, use, err := DefUse(tt.inst)
			require.NoError(t, err)
			assert.Equal(t, tt.def, def)
			assert.Equal(t, tt.use, use)
		})
	}
}

func TestDefUseUnary(t *testing.T) {
	_, _, err := DefUse(Unary{Op: OpNeg, Dst: Register(R0), Src: Register(R1)})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestParseOperand(t *testing.T) {
	tests := []struct {
		input    string
		expected Operand
		wantErr  bool
	}{
		{input: "r0", expected: Register(R0)},
		{input: "R11", expected: Register(R11)},
		{input: "fp", expected: Register(R11)},
		{input: "ip", expected: Register(R12)},
		{input: "sp", expected: Register(SP)},
		{input: "r14", expected: Register(LR)},
		{input: "#5", expected: Immediate(5)},
		{input: "#-12", expected: Immediate(-12)},
		{input: "#0x10000", expected: Immediate(0x10000)},
		{input: "#0xffffffff", expected: Immediate(-1)},
		{input: "#0x100000000", wantErr: true},
		{input: "#abc", wantErr: true},
		{input: "r16", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOperand(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestOperandString(t *testing.T) {
	assert.Equal(t, "r4", Register(R4).String())
	assert.Equal(t, "lr", Register(LR).String())
	assert.Equal(t, "#-3", Immediate(-3).String())
	assert.Panics(t, func() { _ = Operand{}.String() })
}

func TestCompareOperands(t *testing.T) {
	assert.Negative(t, CompareOperands(Register(R1), Register(R2)))
	assert.Negative(t, CompareOperands(Register(PC), Immediate(-100)), "registers sort before immediates")
	assert.Positive(t, CompareOperands(Immediate(3), Immediate(2)))
	assert.Zero(t, CompareOperands(Register(R3), Register(R3)))
}

func TestParseCond(t *testing.T) {
	for _, name := range []string{"", "al", "eq", "ne", "lt", "le", "gt", "ge"} {
		c, err := ParseCond(name)
		require.NoError(t, err, name)
		if name != "al" {
			assert.Equal(t, name, c.String())
		}
	}
	_, err := ParseCond("hs")
	assert.Error(t, err)
}

func TestProgramPrint(t *testing.T) {
	p := NewProgram()
	fn := NewFunction("main")
	bb := fn.NewBlock()
	ref := fn.Append(bb, Move{Dst: Register(R0), Rhs: Immediate(5)})
	fn.AddStackArgFixup(ref)
	fn.Terminate(bb, Return{})
	fn.Block(bb).LiveIn.Add(Register(R4))
	p.AddFunction(fn)
	p.AddGlobal("x", 1, 2)

	var out bytes.Buffer
	p.Print(&out)

	expected := "Function main (stack 0, sp offset 0):\n" +
		"  fixups: bb0[0]\n" +
		"bb0: pred [] succ [] in {r4} out {}\n" +
		"   0   Move(r0 = #5)\n" +
		"   1 * Return\n" +
		"\n" +
		"Global x: [1 2]\n"
	assert.Equal(t, expected, out.String())
}
