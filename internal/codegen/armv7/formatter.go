package armv7

import (
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"

	"github.com/iley/armback/internal/asm"
)

func formatProgram(out io.Writer, p asm.Program) {
	fmt.Fprintf(out, ".section .text\n")
	for _, fn := range p.Functions {
		formatFunction(out, fn)
	}

	fmt.Fprintf(out, "\n\n.section .data\n")
	fmt.Fprintf(out, ".align 4\n")
	for _, obj := range p.Data {
		formatDataObject(out, obj)
	}
}

func formatFunction(out io.Writer, fn asm.Function) {
	fmt.Fprintf(out, "\n.global %s\n", fn.Name)
	fmt.Fprintf(out, "\t.type\t%s, %%function\n", fn.Name)
	fmt.Fprintf(out, "%s:\n", fn.Name)

	for _, line := range fn.Lines {
		formatLine(out, line)
	}
}

func formatLine(out io.Writer, line asm.Line) {
	if line.Label != "" {
		fmt.Fprintf(out, "%s:", line.Label)
	} else if line.Op != "" {
		fmt.Fprintf(out, "\t%s", line.Op)
		if len(line.Args) > 0 {
			args := lo.Map(line.Args, func(arg asm.Arg, _ int) string {
				return argToString(arg)
			})
			fmt.Fprintf(out, "\t%s", strings.Join(args, ", "))
		}
		if line.Comment != "" {
			fmt.Fprintf(out, "\t@ %s", line.Comment)
		}
	} else {
		if line.Indent {
			fmt.Fprintf(out, "\t")
		}
		fmt.Fprintf(out, "@ %s", line.Comment)
	}

	fmt.Fprintf(out, "\n")
}

func argToString(arg asm.Arg) string {
	if len(arg.RegList) > 0 {
		return "{" + strings.Join(arg.RegList, ",") + "}"
	}

	if arg.Deref && arg.Reg == "" {
		panic(fmt.Errorf("invalid arg %#v. dereferencing only supported for registers", arg))
	}

	if arg.Reg != "" {
		if arg.Deref && arg.Index != "" {
			return fmt.Sprintf("[%s, %s, LSL #%d]", arg.Reg, arg.Index, arg.Lsl)
		} else if arg.Deref {
			return fmt.Sprintf("[%s, #%d]", arg.Reg, arg.Offset)
		} else if arg.Writeback {
			return arg.Reg + "!"
		}
		return arg.Reg
	} else if arg.Literal != "" {
		return "=" + arg.Literal
	} else if arg.Label != "" {
		return arg.Label
	} else if arg.Imm != nil {
		return fmt.Sprintf("#%d", *arg.Imm)
	}

	panic(fmt.Errorf("invalid arg %#v", arg))
}

func formatDataObject(out io.Writer, obj asm.DataObject) {
	fmt.Fprintf(out, "\n.global %s\n", obj.Label)
	fmt.Fprintf(out, "\t.type\t%s, %%object\n", obj.Label)
	fmt.Fprintf(out, "%s:\n", obj.Label)

	for _, run := range obj.Runs {
		if run.Count > 1 {
			fmt.Fprintf(out, "\t.fill\t%d, 4, %d\n", run.Count, run.Value)
		} else {
			fmt.Fprintf(out, "\t.long\t%d\n", run.Value)
		}
	}
}
