package tables

import (
	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/consensys/starkvm/columns"
	"github.com/consensys/starkvm/constraints"
	"github.com/consensys/starkvm/ctl"
	"github.com/consensys/starkvm/internal/utils"
	"github.com/consensys/starkvm/riscv"
	"github.com/consensys/starkvm/trace"
)

// HalfWordMemoryView is the column layout of the half-word access table: one
// row per half-word load or store, with the access split into its two bytes.
type HalfWordMemoryView[T any] struct {
	Clk     T
	IsStore T
	IsLoad  T
	Addrs   [2]T
	Limbs   [2]T
}

type HalfWordMemory struct {
	cols HalfWordMemoryView[int]
}

func NewHalfWordMemory() *HalfWordMemory {
	return &HalfWordMemory{cols: columns.Indexed[HalfWordMemoryView[int]]()}
}

func (h *HalfWordMemory) Width() int { return columns.Size[HalfWordMemoryView[int], int]() }

func (h *HalfWordMemory) Generate(in Input, _ *trace.Set) *trace.Table {
	var rows []HalfWordMemoryView[goldilocks.Element]
	for _, step := range in.Record.Executed {
		switch step.Inst.Op {
		case riscv.SH, riscv.LH, riscv.LHU:
		default:
			continue
		}
		var v HalfWordMemoryView[goldilocks.Element]
		v.Clk = utils.FromU64(step.State.Clk + 1)
		if step.Inst.Op == riscv.SH {
			v.IsStore.SetOne()
		} else {
			v.IsLoad.SetOne()
		}
		for i := uint32(0); i < 2; i++ {
			v.Addrs[i] = utils.FromU32(step.Aux.MemAddr + i)
			v.Limbs[i] = utils.FromU32(step.Aux.MemValue >> (8 * i) & 0xff)
		}
		rows = append(rows, v)
	}
	return buildTable(trace.KindHalfWordMemory, rows, func(last HalfWordMemoryView[goldilocks.Element]) HalfWordMemoryView[goldilocks.Element] {
		last.IsStore.SetZero()
		last.IsLoad.SetZero()
		return last
	})
}

// LookedCpu is the looked side of the half-word access lookup; the value is
// recomposed from its two bytes.
func (h *HalfWordMemory) LookedCpu() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindHalfWordMemory,
		[]ctl.Column{
			ctl.Single(h.cols.Clk),
			ctl.Single(h.cols.Addrs[0]),
			ctl.ReduceWithPowers(h.cols.Limbs[:], 1<<8),
			ctl.Single(h.cols.IsStore),
		},
		ctl.Sum(h.cols.IsStore, h.cols.IsLoad))
}

// LookingMemory contributes one per-byte looking row per limb to the memory
// access lookup.
func (h *HalfWordMemory) LookingMemory() []ctl.TableRef {
	refs := make([]ctl.TableRef, 2)
	for i := 0; i < 2; i++ {
		refs[i] = ctl.NewTableRefFiltered(trace.KindHalfWordMemory,
			[]ctl.Column{
				ctl.Single(h.cols.Clk),
				ctl.Single(h.cols.Addrs[i]),
				ctl.Single(h.cols.Limbs[i]),
				ctl.Single(h.cols.IsStore),
			},
			ctl.Sum(h.cols.IsStore, h.cols.IsLoad))
	}
	return refs
}

func (h *HalfWordMemory) Eval(cs *constraints.Consumer, local, _ []goldilocks.Element) {
	lv := viewOf[HalfWordMemoryView[goldilocks.Element]](local)

	cs.Binary("is_store is binary", lv.IsStore)
	cs.Binary("is_load is binary", lv.IsLoad)
	opSum := constraints.Add(lv.IsStore, lv.IsLoad)
	cs.Binary("at most one operation per row", opSum)
	cs.Local("addresses are consecutive",
		constraints.Mul(opSum, constraints.Sub(constraints.Sub(lv.Addrs[1], lv.Addrs[0]), constraints.One())))
}
