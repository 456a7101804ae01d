package codegen

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/iley/armback/internal/codegen/armv7"
	"github.com/iley/armback/internal/codegen/common"
	"github.com/iley/armback/internal/frame"
	"github.com/iley/armback/internal/mir"
)

type Target int

const (
	TargetARMv7Linux Target = iota
)

func TargetFromName(name string) (Target, error) {
	switch name {
	case "armv7-linux":
		return TargetARMv7Linux, nil
	}
	return 0, fmt.Errorf("unknown target: %s", name)
}

type Options struct {
	// Frame must match between the finalizer and the emitter; both read it from here.
	Frame          frame.Convention
	SkipValidation bool
}

// Check runs every structural check on the program without changing it.
func Check(p *mir.Program) error {
	var result *multierror.Error
	if dups := common.DuplicateSymbols(p); len(dups) > 0 {
		result = multierror.Append(result, fmt.Errorf("symbols defined more than once: %s", strings.Join(dups, ", ")))
	}
	if err := mir.Validate(p); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// Generate finalizes the stack frame of every function and writes the
// assembly for the program to out. Nothing is written if any step fails.
func Generate(out io.Writer, target Target, p *mir.Program, options Options) error {
	var cg common.CodeGenerator
	switch target {
	case TargetARMv7Linux:
		cg = &armv7.CodeGenerator{Options: armv7.Options{Frame: options.Frame}}
	default:
		return fmt.Errorf("unknown target: %v", target)
	}

	if !options.SkipValidation {
		if err := Check(p); err != nil {
			return fmt.Errorf("invalid machine program: %w", err)
		}
	}

	for _, fn := range p.Functions {
		if err := frame.Finalize(fn, options.Frame); err != nil {
			return fmt.Errorf("error finalizing stack frame: %w", err)
		}
	}

	asmProgram, err := cg.Generate(p)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	cg.Format(&buf, asmProgram)
	_, err = out.Write(buf.Bytes())
	return err
}
