package mir

import (
	"fmt"
	"io"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/samber/lo"
)

func (p *Program) Print(writer io.Writer) {
	for _, fn := range p.Functions {
		fn.Print(writer)
		fmt.Fprintf(writer, "\n")
	}
	for _, g := range p.Globals {
		fmt.Fprintf(writer, "Global %s: %v\n", g.Name, g.Init)
	}
}

func (fn *Function) Print(writer io.Writer) {
	fmt.Fprintf(writer, "Function %s (stack %d, sp offset %d):\n", fn.Name, fn.StackSize, fn.SPOffset)
	if fn.UsedCalleeSaved != nil && fn.UsedCalleeSaved.Cardinality() > 0 {
		fmt.Fprintf(writer, "  callee-saved: %s\n", FormatRegs(SortedRegs(fn.UsedCalleeSaved)))
	}
	if len(fn.StackArgFixups) > 0 {
		fmt.Fprintf(writer, "  fixups: %s\n", strings.Join(lo.Map(fn.StackArgFixups, func(r InstRef, _ int) string {
			return r.String()
		}), " "))
	}
	for _, bb := range fn.Blocks {
		fmt.Fprintf(writer, "%s: pred [%s] succ [%s] in {%s} out {%s}\n",
			bb.ID, formatIDs(bb.Pred), formatIDs(bb.Succ), FormatSet(bb.LiveIn), FormatSet(bb.LiveOut))
		for i, inst := range bb.Insts {
			marker := " "
			if j, ok := bb.ControlTransfer(); ok && i == j {
				marker = "*"
			}
			fmt.Fprintf(writer, "%4d %s %s\n", i, marker, inst)
		}
	}
}

// FormatSet renders a liveness set as a space-separated sorted list.
func FormatSet(s mapset.Set[Operand]) string {
	return strings.Join(lo.Map(SortedOperands(s), func(op Operand, _ int) string {
		return op.String()
	}), " ")
}

func SortedRegs(s mapset.Set[Reg]) []Reg {
	if s == nil {
		return nil
	}
	result := s.ToSlice()
	slices.Sort(result)
	return result
}

func FormatRegs(regs []Reg) string {
	return strings.Join(lo.Map(regs, func(r Reg, _ int) string {
		return r.String()
	}), " ")
}

func formatIDs(ids []BlockID) string {
	return strings.Join(lo.Map(ids, func(id BlockID, _ int) string {
		return id.String()
	}), " ")
}
