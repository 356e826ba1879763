package tables

import (
	"fmt"

	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/consensys/starkvm/columns"
	"github.com/consensys/starkvm/constraints"
	"github.com/consensys/starkvm/ctl"
	"github.com/consensys/starkvm/internal/utils"
	"github.com/consensys/starkvm/riscv"
	"github.com/consensys/starkvm/trace"
)

// FullWordMemoryView is the column layout of the full-word access table: one
// row per word load or store, with the access split into its four bytes.
type FullWordMemoryView[T any] struct {
	Clk     T
	IsStore T
	IsLoad  T
	Addrs   [4]T
	Limbs   [4]T
}

type FullWordMemory struct {
	cols FullWordMemoryView[int]
}

func NewFullWordMemory() *FullWordMemory {
	return &FullWordMemory{cols: columns.Indexed[FullWordMemoryView[int]]()}
}

func (f *FullWordMemory) Width() int { return columns.Size[FullWordMemoryView[int], int]() }

func (f *FullWordMemory) Generate(in Input, _ *trace.Set) *trace.Table {
	var rows []FullWordMemoryView[goldilocks.Element]
	for _, step := range in.Record.Executed {
		switch step.Inst.Op {
		case riscv.SW, riscv.LW:
		default:
			continue
		}
		var v FullWordMemoryView[goldilocks.Element]
		v.Clk = utils.FromU64(step.State.Clk + 1)
		if step.Inst.Op == riscv.SW {
			v.IsStore.SetOne()
		} else {
			v.IsLoad.SetOne()
		}
		for i := uint32(0); i < 4; i++ {
			v.Addrs[i] = utils.FromU32(step.Aux.MemAddr + i)
			v.Limbs[i] = utils.FromU32(step.Aux.MemValue >> (8 * i) & 0xff)
		}
		rows = append(rows, v)
	}
	return buildTable(trace.KindFullWordMemory, rows, func(last FullWordMemoryView[goldilocks.Element]) FullWordMemoryView[goldilocks.Element] {
		last.IsStore.SetZero()
		last.IsLoad.SetZero()
		return last
	})
}

// LookedCpu is the looked side of the full-word access lookup.
func (f *FullWordMemory) LookedCpu() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindFullWordMemory,
		[]ctl.Column{
			ctl.Single(f.cols.Clk),
			ctl.Single(f.cols.Addrs[0]),
			ctl.ReduceWithPowers(f.cols.Limbs[:], 1<<8),
			ctl.Single(f.cols.IsStore),
		},
		ctl.Sum(f.cols.IsStore, f.cols.IsLoad))
}

// LookingMemory contributes one per-byte looking row per limb to the memory
// access lookup.
func (f *FullWordMemory) LookingMemory() []ctl.TableRef {
	refs := make([]ctl.TableRef, 4)
	for i := 0; i < 4; i++ {
		refs[i] = ctl.NewTableRefFiltered(trace.KindFullWordMemory,
			[]ctl.Column{
				ctl.Single(f.cols.Clk),
				ctl.Single(f.cols.Addrs[i]),
				ctl.Single(f.cols.Limbs[i]),
				ctl.Single(f.cols.IsStore),
			},
			ctl.Sum(f.cols.IsStore, f.cols.IsLoad))
	}
	return refs
}

func (f *FullWordMemory) Eval(cs *constraints.Consumer, local, _ []goldilocks.Element) {
	lv := viewOf[FullWordMemoryView[goldilocks.Element]](local)

	cs.Binary("is_store is binary", lv.IsStore)
	cs.Binary("is_load is binary", lv.IsLoad)
	opSum := constraints.Add(lv.IsStore, lv.IsLoad)
	cs.Binary("at most one operation per row", opSum)
	for i := 1; i < 4; i++ {
		cs.Local(fmt.Sprintf("address %d is consecutive", i),
			constraints.Mul(opSum, constraints.Sub(
				constraints.Sub(lv.Addrs[i], lv.Addrs[i-1]), constraints.One())))
	}
}
