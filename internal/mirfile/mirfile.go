// Package mirfile reads machine programs handed over by instruction
// selection in a YAML form.
package mirfile

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/iley/armback/internal/mir"
)

type fileSpec struct {
	Functions []functionSpec `yaml:"functions"`
	Globals   []globalSpec   `yaml:"globals"`
}

type functionSpec struct {
	Name      string      `yaml:"name"`
	StackSize int32       `yaml:"stack_size"`
	SPOffset  int32       `yaml:"sp_offset"`
	Blocks    []blockSpec `yaml:"blocks"`
}

type blockSpec struct {
	Name    string     `yaml:"name"`
	Succ    []string   `yaml:"succ"`
	LiveIn  []string   `yaml:"live_in"`
	LiveOut []string   `yaml:"live_out"`
	LiveUse []string   `yaml:"live_use"`
	Def     []string   `yaml:"def"`
	Insts   []instSpec `yaml:"insts"`
}

type instSpec struct {
	Op     string `yaml:"op"`
	Cond   string `yaml:"cond"`
	Dst    string `yaml:"dst"`
	Src    string `yaml:"src"`
	Lhs    string `yaml:"lhs"`
	Rhs    string `yaml:"rhs"`
	Data   string `yaml:"data"`
	Addr   string `yaml:"addr"`
	Offset string `yaml:"offset"`
	Shift  int    `yaml:"shift"`
	Target string `yaml:"target"`
	Symbol string `yaml:"symbol"`
	Args   int    `yaml:"args"`
	Text   string `yaml:"text"`
	Fixup  bool   `yaml:"fixup"`
}

type globalSpec struct {
	Name string  `yaml:"name"`
	Init []int64 `yaml:"init"`
}

func LoadFile(path string) (*mir.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	p, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return p, nil
}

func Load(r io.Reader) (*mir.Program, error) {
	var spec fileSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decoding yaml")
	}

	p := mir.NewProgram()
	for _, fs := range spec.Functions {
		fn, err := buildFunction(fs)
		if err != nil {
			return nil, errors.Wrapf(err, "function %s", fs.Name)
		}
		p.AddFunction(fn)
	}
	for _, gs := range spec.Globals {
		init := make([]int32, len(gs.Init))
		for i, v := range gs.Init {
			if v < -(1<<31) || v > (1<<32)-1 {
				return nil, errors.Errorf("global %s: value %d does not fit in a word", gs.Name, v)
			}
			init[i] = int32(uint32(v))
		}
		p.AddGlobal(gs.Name, init...)
	}
	return p, nil
}

func buildFunction(fs functionSpec) (*mir.Function, error) {
	if fs.Name == "" {
		return nil, errors.New("missing name")
	}
	fn := mir.NewFunction(fs.Name)
	fn.StackSize = fs.StackSize
	fn.SPOffset = fs.SPOffset

	ids := make(map[string]mir.BlockID)
	for i, bs := range fs.Blocks {
		name := bs.Name
		if name == "" {
			name = fmt.Sprintf("%d", i)
		}
		if _, dup := ids[name]; dup {
			return nil, errors.Errorf("duplicate block %s", name)
		}
		ids[name] = fn.NewBlock()
	}
	resolve := func(name string) (mir.BlockID, error) {
		id, ok := ids[name]
		if !ok {
			return 0, errors.Errorf("unknown block %s", name)
		}
		return id, nil
	}

	for i, bs := range fs.Blocks {
		id := mir.BlockID(i)
		bb := fn.Block(id)

		for _, s := range bs.Succ {
			to, err := resolve(s)
			if err != nil {
				return nil, errors.Wrapf(err, "block %s", bs.Name)
			}
			if err := fn.Connect(id, to); err != nil {
				return nil, errors.Wrapf(err, "block %s", bs.Name)
			}
		}

		for _, set := range []struct {
			names []string
			add   func(...mir.Operand) int
		}{
			{bs.LiveIn, bb.LiveIn.Append},
			{bs.LiveOut, bb.LiveOut.Append},
			{bs.LiveUse, bb.LiveUse.Append},
			{bs.Def, bb.Def.Append},
		} {
			for _, name := range set.names {
				op, err := mir.ParseOperand(name)
				if err != nil {
					return nil, errors.Wrapf(err, "block %s liveness", bs.Name)
				}
				set.add(op)
			}
		}

		for j, is := range bs.Insts {
			inst, err := buildInst(is, resolve)
			if err != nil {
				return nil, errors.Wrapf(err, "block %s instruction %d", bs.Name, j)
			}
			var ref mir.InstRef
			if mir.IsControlTransfer(inst) {
				if j != len(bs.Insts)-1 {
					return nil, errors.Errorf("block %s instruction %d: %s must be the last instruction", bs.Name, j, inst)
				}
				ref = fn.Terminate(id, inst)
			} else {
				ref = fn.Append(id, inst)
			}
			if is.Fixup {
				fn.AddStackArgFixup(ref)
			}
		}
	}

	// Predecessors created by implicit fall-through are not listed in succ.
	for i := range fs.Blocks {
		id := mir.BlockID(i)
		for _, s := range fn.Successors(id) {
			if !slices.Contains(fn.Block(s).Pred, id) {
				fn.Block(s).Pred = append(fn.Block(s).Pred, id)
			}
		}
	}
	return fn, nil
}
