package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const program = `
functions:
  - name: main
    blocks:
      - insts:
          - {op: mov, dst: r0, rhs: "#0x12345"}
          - {op: ret}
`

func writeProgram(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEmitToStdout(t *testing.T) {
	path := writeProgram(t, program)

	out, err := run(t, "emit", "-o", "-", "--frame", "used", path)
	require.NoError(t, err)
	assert.Contains(t, out, "\tstmfd\tsp!, {lr}\n")
	assert.Contains(t, out, "\tmovw\tr0, #9029\n\tmovt\tr0, #1\n")
}

func TestEmitDefaultOutputPath(t *testing.T) {
	path := writeProgram(t, program)

	_, err := run(t, "emit", path)
	require.NoError(t, err)

	text, err := os.ReadFile(filepath.Join(filepath.Dir(path), "prog.s"))
	require.NoError(t, err)
	assert.Contains(t, string(text), "main:\n\tstmfd\tsp!, {r4-r11,lr}\n")
}

func TestEmitFailureLeavesNoFile(t *testing.T) {
	path := writeProgram(t, `
functions:
  - name: main
    blocks:
      - insts:
          - {op: mod, dst: r0, lhs: r1, rhs: r2}
          - {op: ret}
`)
	outPath := filepath.Join(t.TempDir(), "out.s")

	_, err := run(t, "emit", "-o", outPath, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported operation")
	assert.NoFileExists(t, outPath)
}

func TestEmitRejectsUnknownFlags(t *testing.T) {
	path := writeProgram(t, program)

	_, err := run(t, "emit", "--frame", "minimal", path)
	assert.Error(t, err)
	_, err = run(t, "emit", "-t", "riscv", path)
	assert.Error(t, err)
}

func TestCheckAndDump(t *testing.T) {
	path := writeProgram(t, `
functions:
  - name: main
    blocks:
      - insts:
          - {op: call, symbol: puts, args: 1}
          - {op: mov, dst: r6, rhs: "#0"}
          - {op: ret}
`)

	out, err := run(t, "check", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 functions, 0 globals")
	assert.Contains(t, out, "external symbols: puts")

	out, err = run(t, "dump", "--finalize", "--frame", "used", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Function main (stack 0, sp offset 0):\n  callee-saved: r6\n")
}
