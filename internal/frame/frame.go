package frame

import (
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/golang/glog"

	"github.com/iley/armback/internal/mir"
)

var ErrMalformedFixup = errors.New("malformed stack argument fixup")

// Convention decides which callee-saved registers the prologue pushes. The
// finalizer and the emitter must use the same convention, otherwise stack
// argument offsets disagree with what the prologue actually pushed.
type Convention int

const (
	// FixedBank always saves r4-r11.
	FixedBank Convention = iota
	// UsedOnly saves only the callee-saved registers the function writes.
	UsedOnly
)

func (c Convention) String() string {
	switch c {
	case FixedBank:
		return "fixed"
	case UsedOnly:
		return "used"
	}
	return fmt.Sprintf("convention?%d", int(c))
}

func ConventionFromName(name string) (Convention, error) {
	switch name {
	case "fixed":
		return FixedBank, nil
	case "used":
		return UsedOnly, nil
	}
	return 0, fmt.Errorf("unknown frame convention: %s", name)
}

// SavedRegs returns the callee-saved registers pushed by the prologue, in
// ascending order. The link register is not included.
func (c Convention) SavedRegs(fn *mir.Function) []mir.Reg {
	if c == UsedOnly {
		return mir.SortedRegs(fn.UsedCalleeSaved)
	}
	var regs []mir.Reg
	for r := mir.FirstCalleeSaved; r <= mir.LastCalleeSaved; r++ {
		regs = append(regs, r)
	}
	return regs
}

// SavedWords is the number of words pushed by the prologue, lr included.
func (c Convention) SavedWords(fn *mir.Function) int32 {
	return int32(len(c.SavedRegs(fn))) + 1
}

// Finalize records the callee-saved registers fn writes and turns every
// stack argument fixup into its final sp-relative offset. The fixup list is
// consumed, so finalizing a function twice is a no-op.
func Finalize(fn *mir.Function, conv Convention) error {
	used, err := calleeSavedDefs(fn)
	if err != nil {
		return err
	}

	// Check every fixup before touching the function.
	moves := make([]mir.Move, len(fn.StackArgFixups))
	seen := make(map[mir.InstRef]bool)
	for i, ref := range fn.StackArgFixups {
		if seen[ref] {
			return fmt.Errorf("%w: %s: %s listed twice", ErrMalformedFixup, fn.Name, ref)
		}
		seen[ref] = true
		inst, ok := fn.Inst(ref)
		if !ok {
			return fmt.Errorf("%w: %s: no instruction at %s", ErrMalformedFixup, fn.Name, ref)
		}
		mv, ok := inst.(mir.Move)
		if !ok || !mv.Rhs.IsImm() {
			return fmt.Errorf("%w: %s: %s at %s is not a move of an immediate", ErrMalformedFixup, fn.Name, inst, ref)
		}
		moves[i] = mv
	}

	if fn.UsedCalleeSaved == nil {
		fn.UsedCalleeSaved = mapset.NewThreadUnsafeSet[mir.Reg]()
	}
	fn.UsedCalleeSaved.Append(used.ToSlice()...)
	glog.V(5).Infof("%s: used callee-saved registers [%s]", fn.Name, mir.FormatRegs(mir.SortedRegs(fn.UsedCalleeSaved)))

	delta := fn.StackSize + mir.WordSize*conv.SavedWords(fn)
	for i, ref := range fn.StackArgFixups {
		mv := moves[i]
		glog.V(5).Infof("%s: fixup %s: %d -> %d", fn.Name, ref, mv.Rhs.Value, mv.Rhs.Value+delta)
		mv.Rhs.Value += delta
		fn.SetInst(ref, mv)
	}
	fn.StackArgFixups = nil
	return nil
}

func calleeSavedDefs(fn *mir.Function) (mapset.Set[mir.Reg], error) {
	used := mapset.NewThreadUnsafeSet[mir.Reg]()
	for _, bb := range fn.Blocks {
		for i, inst := range bb.Insts {
			def, _, err := mir.DefUse(inst)
			if err != nil {
				return nil, fmt.Errorf("%s: %s[%d]: %w", fn.Name, bb.ID, i, err)
			}
			for _, op := range def {
				if op.Reg().IsCalleeSaved() {
					used.Add(op.Reg())
				}
			}
		}
	}
	return used, nil
}
