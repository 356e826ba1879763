// Package tables defines one column layout, trace generator and constraint
// evaluator per table kind, plus the registry that wires them to the
// cross-table lookups. Generators are pure: the same execution record always
// yields the same tables.
package tables

import (
	"sort"

	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/consensys/starkvm/columns"
	"github.com/consensys/starkvm/riscv"
	"github.com/consensys/starkvm/trace"
)

// Input bundles everything generation reads: the loaded guest image and the
// record of its execution.
type Input struct {
	Program *riscv.Program
	Record  *riscv.ExecutionRecord
}

// buildTable pads view rows and flattens them into a finished table. The pad
// function receives a copy of the last real row (the zero view when there is
// none) and must clear every selector column.
func buildTable[V any](kind trace.TableKind, rows []V, pad func(last V) V) *trace.Table {
	length := len(rows)
	padded := trace.PadRows(rows, pad)
	flat := make([][]goldilocks.Element, len(padded))
	for i := range padded {
		flat[i] = columns.Flatten[V, goldilocks.Element](&padded[i])
	}
	return trace.New(kind, columns.Size[V, goldilocks.Element](), length, flat)
}

func viewOf[V any](row []goldilocks.Element) V {
	return columns.Unflatten[V, goldilocks.Element](row)
}

// sortedKeys returns the keys of a map in ascending order; generators iterate
// maps only through it so that output stays deterministic.
func sortedKeys[V any](m map[uint32]V) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
