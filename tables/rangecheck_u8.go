package tables

import (
	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/consensys/starkvm/columns"
	"github.com/consensys/starkvm/constraints"
	"github.com/consensys/starkvm/ctl"
	"github.com/consensys/starkvm/internal/utils"
	"github.com/consensys/starkvm/trace"
)

// RangeCheckU8View is the column layout of the 8-bit domain table: every
// byte value exactly once, with its usage count.
type RangeCheckU8View[T any] struct {
	Value        T
	Multiplicity T
}

// RangeCheckU8 is the fixed 8-bit domain. Like RangeCheck it harvests its
// multiplicities from its consumer references after those tables exist.
type RangeCheckU8 struct {
	cols      RangeCheckU8View[int]
	consumers []ctl.TableRef
}

func NewRangeCheckU8() *RangeCheckU8 {
	return &RangeCheckU8{cols: columns.Indexed[RangeCheckU8View[int]]()}
}

func (r *RangeCheckU8) SetConsumers(refs []ctl.TableRef) { r.consumers = refs }
func (r *RangeCheckU8) Consumers() []ctl.TableRef        { return r.consumers }

func (r *RangeCheckU8) Width() int { return columns.Size[RangeCheckU8View[int], int]() }

func (r *RangeCheckU8) Generate(_ Input, built *trace.Set) *trace.Table {
	counts := harvestValues(built, r.consumers)

	rows := make([]RangeCheckU8View[goldilocks.Element], 1<<8)
	for v := range rows {
		rows[v].Value = utils.FromU64(uint64(v))
		rows[v].Multiplicity = utils.FromU64(counts[uint64(v)])
	}
	return buildTable(trace.KindRangeCheckU8, rows, func(last RangeCheckU8View[goldilocks.Element]) RangeCheckU8View[goldilocks.Element] {
		last.Multiplicity.SetZero()
		return last
	})
}

// LookedValues is the looked side of the byte-bound lookup.
func (r *RangeCheckU8) LookedValues() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindRangeCheckU8,
		ctl.Singles(r.cols.Value),
		ctl.Single(r.cols.Multiplicity))
}

func (r *RangeCheckU8) Eval(cs *constraints.Consumer, local, next []goldilocks.Element) {
	lv := viewOf[RangeCheckU8View[goldilocks.Element]](local)
	nv := viewOf[RangeCheckU8View[goldilocks.Element]](next)

	cs.FirstRow("domain starts at zero", lv.Value)
	cs.LastRow("domain ends at 255", constraints.Sub(lv.Value, utils.FromU64(255)))
	cs.Transition("domain increments", constraints.Sub(constraints.Sub(nv.Value, lv.Value), constraints.One()))
}
