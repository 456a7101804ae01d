package mir

import (
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

type Program struct {
	Functions []*Function
	Globals   []GlobalDecl
}

func NewProgram() *Program {
	return &Program{}
}

func (p *Program) AddFunction(fn *Function) {
	p.Functions = append(p.Functions, fn)
}

func (p *Program) AddGlobal(name string, init ...int32) {
	p.Globals = append(p.Globals, GlobalDecl{Name: name, Init: slices.Clone(init)})
}

// GlobalDecl is a global object with its initializer flattened into words.
type GlobalDecl struct {
	Name string
	Init []int32
}

// BlockID is the index of a block in its function's Blocks.
type BlockID int

func (id BlockID) String() string {
	return fmt.Sprintf("bb%d", int(id))
}

// InstRef addresses a single instruction inside a function.
type InstRef struct {
	Block BlockID
	Index int
}

func (r InstRef) String() string {
	return fmt.Sprintf("%s[%d]", r.Block, r.Index)
}

type BasicBlock struct {
	ID    BlockID
	Insts []Inst
	Pred  []BlockID
	// At most two entries. A branch may leave its fall-through successor
	// implicit, in which case it is the physically next block.
	Succ []BlockID

	// Liveness sets computed upstream. Read-only for the backend.
	LiveIn  mapset.Set[Operand]
	LiveOut mapset.Set[Operand]
	LiveUse mapset.Set[Operand]
	Def     mapset.Set[Operand]

	// Terminated is set when the last instruction is the block's
	// control-transfer instruction.
	Terminated bool
}

// ControlTransfer returns the index of the control-transfer instruction, if any.
func (bb *BasicBlock) ControlTransfer() (int, bool) {
	if bb.Terminated && len(bb.Insts) > 0 {
		return len(bb.Insts) - 1, true
	}
	return -1, false
}

type Function struct {
	Name   string
	Blocks []*BasicBlock

	// Bytes needed for spills and locals.
	StackSize int32
	// Stack pointer adjustment emitted by the prologue and the epilogue.
	SPOffset int32

	// Callee-saved registers written by the function. Filled in by the frame finalizer.
	UsedCalleeSaved mapset.Set[Reg]
	// Moves whose immediate holds a caller-relative stack argument offset.
	StackArgFixups []InstRef
}

func NewFunction(name string) *Function {
	return &Function{
		Name:            name,
		UsedCalleeSaved: mapset.NewThreadUnsafeSet[Reg](),
	}
}

func (fn *Function) NewBlock() BlockID {
	id := BlockID(len(fn.Blocks))
	fn.Blocks = append(fn.Blocks, &BasicBlock{
		ID:      id,
		LiveIn:  mapset.NewThreadUnsafeSet[Operand](),
		LiveOut: mapset.NewThreadUnsafeSet[Operand](),
		LiveUse: mapset.NewThreadUnsafeSet[Operand](),
		Def:     mapset.NewThreadUnsafeSet[Operand](),
	})
	return id
}

func (fn *Function) HasBlock(id BlockID) bool {
	return id >= 0 && int(id) < len(fn.Blocks)
}

func (fn *Function) Block(id BlockID) *BasicBlock {
	if !fn.HasBlock(id) {
		panic(fmt.Errorf("function %s has no block %s", fn.Name, id))
	}
	return fn.Blocks[id]
}

// Append adds a straight-line instruction to the end of a block.
func (fn *Function) Append(id BlockID, inst Inst) InstRef {
	bb := fn.Block(id)
	if bb.Terminated {
		panic(fmt.Errorf("cannot append %s to terminated block %s", inst, id))
	}
	bb.Insts = append(bb.Insts, inst)
	return InstRef{Block: id, Index: len(bb.Insts) - 1}
}

// Terminate appends the block's control-transfer instruction.
func (fn *Function) Terminate(id BlockID, inst Inst) InstRef {
	if !IsControlTransfer(inst) {
		panic(fmt.Errorf("%s is not a control-transfer instruction", inst))
	}
	ref := fn.Append(id, inst)
	fn.Block(id).Terminated = true
	return ref
}

// Connect adds the edge from -> to, updating both blocks.
func (fn *Function) Connect(from, to BlockID) error {
	if !fn.HasBlock(from) || !fn.HasBlock(to) {
		return fmt.Errorf("cannot connect %s -> %s: no such block", from, to)
	}
	src, dst := fn.Blocks[from], fn.Blocks[to]
	if len(src.Succ) >= 2 {
		return fmt.Errorf("cannot connect %s -> %s: %s already has two successors", from, to, from)
	}
	if slices.Contains(src.Succ, to) {
		return fmt.Errorf("cannot connect %s -> %s: edge already exists", from, to)
	}
	src.Succ = append(src.Succ, to)
	dst.Pred = append(dst.Pred, from)
	return nil
}

func (fn *Function) AddStackArgFixup(ref InstRef) {
	fn.StackArgFixups = append(fn.StackArgFixups, ref)
}

func (fn *Function) Inst(ref InstRef) (Inst, bool) {
	if !fn.HasBlock(ref.Block) {
		return nil, false
	}
	bb := fn.Blocks[ref.Block]
	if ref.Index < 0 || ref.Index >= len(bb.Insts) {
		return nil, false
	}
	return bb.Insts[ref.Index], true
}

func (fn *Function) SetInst(ref InstRef, inst Inst) {
	if _, ok := fn.Inst(ref); !ok {
		panic(fmt.Errorf("function %s has no instruction %s", fn.Name, ref))
	}
	fn.Blocks[ref.Block].Insts[ref.Index] = inst
}

// Successors returns the explicit successors of a block followed by its
// implicit fall-through successor, if it has one.
func (fn *Function) Successors(id BlockID) []BlockID {
	bb := fn.Block(id)
	result := slices.Clone(bb.Succ)

	fallsThrough := true
	if i, ok := bb.ControlTransfer(); ok {
		switch bb.Insts[i].(type) {
		case Jump, Return:
			fallsThrough = false
		}
	}

	next := id + 1
	if fallsThrough && fn.HasBlock(next) && len(result) < 2 && !slices.Contains(result, next) {
		result = append(result, next)
	}
	return result
}
