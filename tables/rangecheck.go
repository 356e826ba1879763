package tables

import (
	"fmt"
	"sort"

	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/consensys/starkvm/columns"
	"github.com/consensys/starkvm/constraints"
	"github.com/consensys/starkvm/ctl"
	"github.com/consensys/starkvm/internal/utils"
	"github.com/consensys/starkvm/trace"
)

// RangeCheckView is the column layout of the u32 range-check table: one row
// per distinct checked value, decomposed into two 16-bit limbs.
type RangeCheckView[T any] struct {
	Value        T
	Limbs        [2]T
	Multiplicity T
}

// RangeCheck aggregates every 32-bit bound requested elsewhere. It is a
// derived table: it harvests its values from the looking sides of its own
// lookup, so those tables must be generated first.
type RangeCheck struct {
	cols      RangeCheckView[int]
	consumers []ctl.TableRef
}

func NewRangeCheck() *RangeCheck {
	return &RangeCheck{cols: columns.Indexed[RangeCheckView[int]]()}
}

// SetConsumers installs the looking references this table aggregates. The
// registry calls it once while wiring the lookup configuration; the same
// references drive both the harvest and the lookup itself.
func (r *RangeCheck) SetConsumers(refs []ctl.TableRef) { r.consumers = refs }

func (r *RangeCheck) Consumers() []ctl.TableRef { return r.consumers }

func (r *RangeCheck) Width() int { return columns.Size[RangeCheckView[int], int]() }

func (r *RangeCheck) Generate(_ Input, built *trace.Set) *trace.Table {
	counts := harvestValues(built, r.consumers)

	values := make([]uint64, 0, len(counts))
	for v := range counts {
		// out-of-range evidence is left out rather than rejected here; the
		// unmatched looking row surfaces as a lookup discrepancy at
		// verification
		if v < 1<<32 {
			values = append(values, v)
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	rows := make([]RangeCheckView[goldilocks.Element], len(values))
	for i, v := range values {
		limbs := utils.U16Limbs(uint32(v))
		rows[i].Value = utils.FromU64(v)
		rows[i].Limbs[0] = utils.FromU32(limbs[0])
		rows[i].Limbs[1] = utils.FromU32(limbs[1])
		rows[i].Multiplicity = utils.FromU64(counts[v])
	}
	return buildTable(trace.KindRangeCheck, rows, func(last RangeCheckView[goldilocks.Element]) RangeCheckView[goldilocks.Element] {
		last.Multiplicity.SetZero()
		return last
	})
}

// LookedValues is the looked side of the u32 range-check lookup, weighed by
// multiplicity.
func (r *RangeCheck) LookedValues() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindRangeCheck,
		ctl.Singles(r.cols.Value),
		ctl.Single(r.cols.Multiplicity))
}

// LookingU16 sends both limbs of every row, padding included, to the 16-bit
// domain table.
func (r *RangeCheck) LookingU16() []ctl.TableRef {
	return []ctl.TableRef{
		ctl.NewTableRefFiltered(trace.KindRangeCheck, ctl.Singles(r.cols.Limbs[0]), ctl.Always()),
		ctl.NewTableRefFiltered(trace.KindRangeCheck, ctl.Singles(r.cols.Limbs[1]), ctl.Always()),
	}
}

func (r *RangeCheck) Eval(cs *constraints.Consumer, local, _ []goldilocks.Element) {
	lv := viewOf[RangeCheckView[goldilocks.Element]](local)

	high := constraints.Mul(utils.FromU64(1<<16), lv.Limbs[1])
	cs.Local("value recomposes from its limbs",
		constraints.Sub(lv.Value, constraints.Add(lv.Limbs[0], high)))
}

// harvestValues counts, across all consumer references, how often each value
// is used as evidence. A non-binary filter is a configuration error and
// aborts generation.
func harvestValues(built *trace.Set, refs []ctl.TableRef) map[uint64]uint64 {
	counts := make(map[uint64]uint64)
	for _, ref := range refs {
		tbl := built[ref.Kind]
		if tbl == nil {
			panic(fmt.Sprintf("tables: range-check consumer %s not generated", ref.Kind))
		}
		if len(ref.Columns) != 1 {
			panic(fmt.Sprintf("tables: range-check consumer %s exposes %d columns, want 1", ref.Kind, len(ref.Columns)))
		}
		for row := 0; row < tbl.NumRows(); row++ {
			filter := ref.Filter.EvalTable(tbl, row)
			if filter.IsZero() {
				continue
			}
			if one := constraints.One(); !filter.Equal(&one) {
				panic(fmt.Sprintf("tables: range-check consumer %s row %d: filter is %s", ref.Kind, row, filter.String()))
			}
			counts[utils.ToU64(ref.Columns[0].EvalTable(tbl, row))]++
		}
	}
	return counts
}
