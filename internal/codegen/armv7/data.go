package armv7

import (
	"github.com/iley/armback/internal/asm"
	"github.com/iley/armback/internal/mir"
)

func generateData(globals []mir.GlobalDecl) []asm.DataObject {
	var result []asm.DataObject
	for _, g := range globals {
		result = append(result, asm.DataObject{
			Label: g.Name,
			Runs:  encodeWords(g.Init),
		})
	}
	return result
}

// encodeWords collapses every maximal run of equal words into one DataRun.
func encodeWords(words []int32) []asm.DataRun {
	var runs []asm.DataRun
	for _, w := range words {
		if n := len(runs); n > 0 && runs[n-1].Value == w {
			runs[n-1].Count++
			continue
		}
		runs = append(runs, asm.DataRun{Count: 1, Value: w})
	}
	return runs
}
