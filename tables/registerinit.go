package tables

import (
	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/consensys/starkvm/columns"
	"github.com/consensys/starkvm/constraints"
	"github.com/consensys/starkvm/ctl"
	"github.com/consensys/starkvm/internal/utils"
	"github.com/consensys/starkvm/trace"
)

// RegisterInitView is the column layout of the register file's initial
// content: exactly one row per register.
type RegisterInitView[T any] struct {
	Filter T
	Addr   T
	Value  T
}

type RegisterInit struct {
	cols RegisterInitView[int]
}

func NewRegisterInit() *RegisterInit {
	return &RegisterInit{cols: columns.Indexed[RegisterInitView[int]]()}
}

func (r *RegisterInit) Width() int { return columns.Size[RegisterInitView[int], int]() }

func initialRegisters(in Input) [32]uint32 {
	if len(in.Record.Executed) > 0 {
		return in.Record.Executed[0].State.Registers
	}
	return in.Record.LastState.Registers
}

func (r *RegisterInit) Generate(in Input, _ *trace.Set) *trace.Table {
	regs := initialRegisters(in)
	rows := make([]RegisterInitView[goldilocks.Element], 32)
	for addr := range rows {
		rows[addr].Filter.SetOne()
		rows[addr].Addr = utils.FromU64(uint64(addr))
		rows[addr].Value = utils.FromU32(regs[addr])
	}
	return buildTable(trace.KindRegisterInit, rows, func(last RegisterInitView[goldilocks.Element]) RegisterInitView[goldilocks.Element] {
		last.Filter.SetZero()
		return last
	})
}

// LookingRegister asserts the register table starts every register at its
// initial value.
func (r *RegisterInit) LookingRegister() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindRegisterInit,
		ctl.Singles(r.cols.Addr, r.cols.Value),
		ctl.Single(r.cols.Filter))
}

func (r *RegisterInit) Eval(cs *constraints.Consumer, local, next []goldilocks.Element) {
	lv := viewOf[RegisterInitView[goldilocks.Element]](local)
	nv := viewOf[RegisterInitView[goldilocks.Element]](next)

	cs.Binary("filter is binary", lv.Filter)
	cs.FirstRow("first register is x0", lv.Addr)
	cs.FirstRow("x0 starts at zero", lv.Value)
	cs.Transition("addresses increment while the filter holds",
		constraints.Mul(nv.Filter, constraints.Sub(constraints.Sub(nv.Addr, lv.Addr), constraints.One())))
}
