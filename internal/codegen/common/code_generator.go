package common

import (
	"io"

	"github.com/iley/armback/internal/asm"
	"github.com/iley/armback/internal/mir"
)

type CodeGenerator interface {
	Generate(*mir.Program) (asm.Program, error)
	Format(io.Writer, asm.Program)
}
