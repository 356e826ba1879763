package tables

import (
	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/consensys/starkvm/columns"
	"github.com/consensys/starkvm/constraints"
	"github.com/consensys/starkvm/ctl"
	"github.com/consensys/starkvm/internal/utils"
	"github.com/consensys/starkvm/trace"
	"github.com/consensys/starkvm/utils/parallel"
)

// RangeCheckU16View is the column layout of the 16-bit domain table.
type RangeCheckU16View[T any] struct {
	Value        T
	Multiplicity T
}

// RangeCheckU16 is the fixed 16-bit domain serving the limb decompositions
// of the u32 range-check table.
type RangeCheckU16 struct {
	cols      RangeCheckU16View[int]
	consumers []ctl.TableRef
}

func NewRangeCheckU16() *RangeCheckU16 {
	return &RangeCheckU16{cols: columns.Indexed[RangeCheckU16View[int]]()}
}

func (r *RangeCheckU16) SetConsumers(refs []ctl.TableRef) { r.consumers = refs }
func (r *RangeCheckU16) Consumers() []ctl.TableRef        { return r.consumers }

func (r *RangeCheckU16) Width() int { return columns.Size[RangeCheckU16View[int], int]() }

func (r *RangeCheckU16) Generate(_ Input, built *trace.Set) *trace.Table {
	counts := harvestValues(built, r.consumers)

	rows := make([]RangeCheckU16View[goldilocks.Element], 1<<16)
	parallel.Execute(0, len(rows), func(start, end int) {
		for v := start; v < end; v++ {
			rows[v].Value = utils.FromU64(uint64(v))
			rows[v].Multiplicity = utils.FromU64(counts[uint64(v)])
		}
	})
	return buildTable(trace.KindRangeCheckU16, rows, func(last RangeCheckU16View[goldilocks.Element]) RangeCheckU16View[goldilocks.Element] {
		last.Multiplicity.SetZero()
		return last
	})
}

// LookedValues is the looked side of the 16-bit limb lookup.
func (r *RangeCheckU16) LookedValues() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindRangeCheckU16,
		ctl.Singles(r.cols.Value),
		ctl.Single(r.cols.Multiplicity))
}

func (r *RangeCheckU16) Eval(cs *constraints.Consumer, local, next []goldilocks.Element) {
	lv := viewOf[RangeCheckU16View[goldilocks.Element]](local)
	nv := viewOf[RangeCheckU16View[goldilocks.Element]](next)

	cs.FirstRow("domain starts at zero", lv.Value)
	cs.LastRow("domain ends at 65535", constraints.Sub(lv.Value, utils.FromU64(65535)))
	cs.Transition("domain increments", constraints.Sub(constraints.Sub(nv.Value, lv.Value), constraints.One()))
}
