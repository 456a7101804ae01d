package common

import (
	"maps"
	"slices"

	"github.com/iley/armback/internal/mir"
)

// GatherSymbols counts definitions of every symbol the program defines.
func GatherSymbols(p *mir.Program) map[string]int {
	defs := make(map[string]int)
	for _, fn := range p.Functions {
		defs[fn.Name]++
	}
	for _, g := range p.Globals {
		defs[g.Name]++
	}
	return defs
}

// GatherExternals returns the sorted symbols referenced by calls and
// address loads that the program does not define itself.
func GatherExternals(p *mir.Program) []string {
	defs := GatherSymbols(p)
	externals := map[string]struct{}{}
	for _, fn := range p.Functions {
		for _, bb := range fn.Blocks {
			for _, inst := range bb.Insts {
				var sym string
				switch x := inst.(type) {
				case mir.Call:
					sym = x.Symbol
				case mir.LoadGlobalAddress:
					sym = x.Symbol
				default:
					continue
				}
				if defs[sym] == 0 {
					externals[sym] = struct{}{}
				}
			}
		}
	}
	result := slices.Collect(maps.Keys(externals))
	slices.Sort(result)
	return result
}

// DuplicateSymbols returns the sorted symbols defined more than once.
func DuplicateSymbols(p *mir.Program) []string {
	var result []string
	for name, n := range GatherSymbols(p) {
		if n > 1 {
			result = append(result, name)
		}
	}
	slices.Sort(result)
	return result
}
