package armv7

import (
	"io"

	"github.com/iley/armback/internal/asm"
	"github.com/iley/armback/internal/mir"
)

type CodeGenerator struct {
	Options Options
}

func (cg *CodeGenerator) Generate(p *mir.Program) (asm.Program, error) {
	return Generate(p, cg.Options)
}

func (cg *CodeGenerator) Format(out io.Writer, p asm.Program) {
	formatProgram(out, p)
}
