package mir

import (
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hashicorp/go-multierror"
)

// Validate checks the structural invariants the backend relies on: block
// references, edge consistency, terminator placement and the liveness
// equations. All violations are reported together.
func Validate(p *Program) error {
	var result *multierror.Error
	for _, fn := range p.Functions {
		result = multierror.Append(result, ValidateFunction(fn))
	}
	return result.ErrorOrNil()
}

func ValidateFunction(fn *Function) error {
	var result *multierror.Error
	fail := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf("%s: %s", fn.Name, fmt.Sprintf(format, args...)))
	}

	if fn.StackSize < 0 {
		fail("negative stack size %d", fn.StackSize)
	}
	if fn.SPOffset < fn.StackSize {
		fail("sp offset %d is smaller than stack size %d", fn.SPOffset, fn.StackSize)
	}

	// References first; the remaining checks index blocks freely.
	refsOk := true
	for i, bb := range fn.Blocks {
		if bb.ID != BlockID(i) {
			fail("block at position %d has id %s", i, bb.ID)
			refsOk = false
		}
		if len(bb.Succ) > 2 {
			fail("%s has %d successors", bb.ID, len(bb.Succ))
		}
		for _, id := range slices.Concat(bb.Pred, bb.Succ) {
			if !fn.HasBlock(id) {
				fail("%s references missing block %s", bb.ID, id)
				refsOk = false
			}
		}
		for j, inst := range bb.Insts {
			if target, ok := branchTarget(inst); ok && !fn.HasBlock(target) {
				fail("%s[%d] %s targets missing block", bb.ID, j, inst)
				refsOk = false
			}
		}
	}
	if !refsOk {
		return result.ErrorOrNil()
	}

	for _, bb := range fn.Blocks {
		if err := validateTerminator(fn, bb); err != nil {
			fail("%v", err)
		}

		for _, s := range bb.Succ {
			if !slices.Contains(fn.Blocks[s].Pred, bb.ID) {
				fail("%s lists successor %s which does not list it as predecessor", bb.ID, s)
			}
		}
		for _, p := range bb.Pred {
			if !slices.Contains(fn.Successors(p), bb.ID) {
				fail("%s lists predecessor %s which does not flow into it", bb.ID, p)
			}
		}

		if err := validateLiveness(fn, bb); err != nil {
			fail("%v", err)
		}
	}

	return result.ErrorOrNil()
}

func branchTarget(inst Inst) (BlockID, bool) {
	switch x := inst.(type) {
	case Jump:
		return x.Target, true
	case Branch:
		return x.Target, true
	}
	return 0, false
}

func validateTerminator(fn *Function, bb *BasicBlock) error {
	last, terminated := bb.ControlTransfer()
	if bb.Terminated && !terminated {
		return fmt.Errorf("%s is marked terminated but has no instructions", bb.ID)
	}
	for i, inst := range bb.Insts {
		if IsControlTransfer(inst) && i != last {
			return fmt.Errorf("%s[%d] %s is a control transfer but not the block terminator", bb.ID, i, inst)
		}
	}

	if !terminated {
		for _, s := range bb.Succ {
			if s != bb.ID+1 {
				return fmt.Errorf("%s falls through but lists successor %s", bb.ID, s)
			}
		}
		return nil
	}

	switch x := bb.Insts[last].(type) {
	case Return:
		if len(bb.Succ) != 0 {
			return fmt.Errorf("%s returns but lists %d successors", bb.ID, len(bb.Succ))
		}
	case Jump:
		if len(bb.Succ) != 1 || bb.Succ[0] != x.Target {
			return fmt.Errorf("%s jumps to %s but lists successors %v", bb.ID, x.Target, bb.Succ)
		}
	case Branch:
		if !slices.Contains(bb.Succ, x.Target) {
			return fmt.Errorf("%s branches to %s but lists successors %v", bb.ID, x.Target, bb.Succ)
		}
		for _, s := range bb.Succ {
			if s != x.Target && s != bb.ID+1 {
				return fmt.Errorf("%s lists successor %s that is neither its target nor its fall-through", bb.ID, s)
			}
		}
	}
	return nil
}

func validateLiveness(fn *Function, bb *BasicBlock) error {
	liveOut := mapset.NewThreadUnsafeSet[Operand]()
	for _, s := range fn.Successors(bb.ID) {
		liveOut = liveOut.Union(orEmpty(fn.Blocks[s].LiveIn))
	}
	if !liveOut.Equal(orEmpty(bb.LiveOut)) {
		return fmt.Errorf("%s liveout {%s} differs from union of successor livein {%s}",
			bb.ID, FormatSet(orEmpty(bb.LiveOut)), FormatSet(liveOut))
	}

	liveIn := orEmpty(bb.LiveUse).Union(orEmpty(bb.LiveOut).Difference(orEmpty(bb.Def)))
	if !liveIn.Equal(orEmpty(bb.LiveIn)) {
		return fmt.Errorf("%s livein {%s} differs from liveuse + (liveout - def) {%s}",
			bb.ID, FormatSet(orEmpty(bb.LiveIn)), FormatSet(liveIn))
	}
	return nil
}

func orEmpty(s mapset.Set[Operand]) mapset.Set[Operand] {
	if s == nil {
		return mapset.NewThreadUnsafeSet[Operand]()
	}
	return s
}

// SortedOperands returns the members of s in CompareOperands order.
func SortedOperands(s mapset.Set[Operand]) []Operand {
	if s == nil {
		return nil
	}
	result := s.ToSlice()
	slices.SortFunc(result, CompareOperands)
	return result
}
