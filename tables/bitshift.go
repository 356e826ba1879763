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

// BitshiftView is the column layout of the bitshift table: the fixed domain
// of the 32 shift amounts and their power-of-two multipliers.
type BitshiftView[T any] struct {
	Amount     T
	Multiplier T
	// Multiplicity counts shift steps using this amount.
	Multiplicity T
}

type Bitshift struct {
	cols BitshiftView[int]
}

func NewBitshift() *Bitshift {
	return &Bitshift{cols: columns.Indexed[BitshiftView[int]]()}
}

func (b *Bitshift) Width() int { return columns.Size[BitshiftView[int], int]() }

func (b *Bitshift) Generate(in Input, _ *trace.Set) *trace.Table {
	var counts [32]uint64
	for _, step := range in.Record.Executed {
		switch step.Inst.Op {
		case riscv.SLL, riscv.SRL, riscv.SRA:
			amount := (step.State.Registers[step.Inst.Args.Rs2] + step.Inst.Args.Imm) & 31
			counts[amount]++
		}
	}

	rows := make([]BitshiftView[goldilocks.Element], 32)
	for amount := range rows {
		rows[amount].Amount = utils.FromU64(uint64(amount))
		rows[amount].Multiplier = utils.FromU64(1 << amount)
		rows[amount].Multiplicity = utils.FromU64(counts[amount])
	}
	// 32 rows, already a power of two; the pad function never runs
	return buildTable(trace.KindBitshift, rows, func(last BitshiftView[goldilocks.Element]) BitshiftView[goldilocks.Element] {
		last.Multiplicity.SetZero()
		return last
	})
}

// LookedCpu is the looked side of the shift lookup from the cpu table.
func (b *Bitshift) LookedCpu() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindBitshift,
		ctl.Singles(b.cols.Amount, b.cols.Multiplier),
		ctl.Single(b.cols.Multiplicity))
}

func (b *Bitshift) Eval(cs *constraints.Consumer, local, next []goldilocks.Element) {
	lv := viewOf[BitshiftView[goldilocks.Element]](local)
	nv := viewOf[BitshiftView[goldilocks.Element]](next)

	cs.FirstRow("amount starts at zero", lv.Amount)
	cs.FirstRow("multiplier starts at one", constraints.Sub(lv.Multiplier, constraints.One()))
	cs.LastRow("amount ends at 31", constraints.Sub(lv.Amount, utils.FromU64(31)))
	cs.Transition("amount increments", constraints.Sub(constraints.Sub(nv.Amount, lv.Amount), constraints.One()))
	cs.Transition("multiplier doubles",
		constraints.Sub(nv.Multiplier, constraints.Mul(utils.FromU64(2), lv.Multiplier)))
}
