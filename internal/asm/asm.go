package asm

var (
	SP = Arg{Reg: "sp"}
	IP = Arg{Reg: "ip"}
)

type Program struct {
	Functions []Function
	Data      []DataObject
}

type Function struct {
	Name  string
	Lines []Line
}

type Line struct {
	Comment string
	// Indent places a comment-only line at instruction column.
	Indent bool
	Label  string
	Op     string
	Args   []Arg
}

type Arg struct {
	Reg       string
	Imm       *int32
	Label     string
	Literal   string
	Deref     bool
	Offset    int32
	Index     string
	Lsl       int
	Writeback bool
	RegList   []string
}

func (a Arg) AsWriteback() Arg {
	result := a
	result.Writeback = true
	return result
}

// DataObject is a labelled run-length encoded sequence of words.
type DataObject struct {
	Label string
	Runs  []DataRun
}

type DataRun struct {
	Count int
	Value int32
}

func Imm(value int32) Arg {
	return Arg{Imm: &value}
}

func Reg(reg string) Arg {
	return Arg{Reg: reg}
}

func Ref(label string) Arg {
	return Arg{Label: label}
}

// Lit refers to the address of a symbol through the literal pool ("=sym").
func Lit(symbol string) Arg {
	return Arg{Literal: symbol}
}

// Mem is the immediate-offset addressing form [base, #offset].
func Mem(base string, offset int32) Arg {
	return Arg{Reg: base, Deref: true, Offset: offset}
}

// MemIndexed is the register-offset addressing form [base, index, LSL #shift].
func MemIndexed(base, index string, shift int) Arg {
	return Arg{Reg: base, Deref: true, Index: index, Lsl: shift}
}

func RegList(regs ...string) Arg {
	return Arg{RegList: regs}
}

func Op1(op string, arg Arg) Line {
	return Line{Op: op, Args: []Arg{arg}}
}

func Op2(op string, arg1, arg2 Arg) Line {
	return Line{Op: op, Args: []Arg{arg1, arg2}}
}

func Op3(op string, arg1, arg2, arg3 Arg) Line {
	return Line{Op: op, Args: []Arg{arg1, arg2, arg3}}
}

func Comment(text string) Line {
	return Line{Comment: text}
}

// Note is a comment indented like an instruction.
func Note(text string) Line {
	return Line{Comment: text, Indent: true}
}

func Label(text string) Line {
	return Line{Label: text}
}
