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

// XorView is the column layout of the xor table: one row per bitwise step,
// with full bit decompositions of both operands and the result.
type XorView[T any] struct {
	IsExecuted T
	A, B, Out  T
	LimbsA     [32]T
	LimbsB     [32]T
	LimbsOut   [32]T
}

type Xor struct {
	cols XorView[int]
}

func NewXor() *Xor {
	return &Xor{cols: columns.Indexed[XorView[int]]()}
}

func (x *Xor) Width() int { return columns.Size[XorView[int], int]() }

func (x *Xor) Generate(in Input, _ *trace.Set) *trace.Table {
	var rows []XorView[goldilocks.Element]
	for _, step := range in.Record.Executed {
		switch step.Inst.Op {
		case riscv.XOR, riscv.OR, riscv.AND:
		default:
			continue
		}
		a := step.State.Registers[step.Inst.Args.Rs1]
		b := step.State.Registers[step.Inst.Args.Rs2] + step.Inst.Args.Imm
		rows = append(rows, xorRow(a, b))
	}
	return buildTable(trace.KindXor, rows, func(last XorView[goldilocks.Element]) XorView[goldilocks.Element] {
		last.IsExecuted.SetZero()
		return last
	})
}

func xorRow(a, b uint32) XorView[goldilocks.Element] {
	var v XorView[goldilocks.Element]
	v.IsExecuted.SetOne()
	v.A = utils.FromU32(a)
	v.B = utils.FromU32(b)
	v.Out = utils.FromU32(a ^ b)
	for i := 0; i < 32; i++ {
		v.LimbsA[i] = utils.FromU32(a >> i & 1)
		v.LimbsB[i] = utils.FromU32(b >> i & 1)
		v.LimbsOut[i] = utils.FromU32((a ^ b) >> i & 1)
	}
	return v
}

// LookedCpu is the looked side of the bitwise lookup from the cpu table.
func (x *Xor) LookedCpu() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindXor,
		ctl.Singles(x.cols.A, x.cols.B, x.cols.Out),
		ctl.Single(x.cols.IsExecuted))
}

func (x *Xor) Eval(cs *constraints.Consumer, local, _ []goldilocks.Element) {
	lv := viewOf[XorView[goldilocks.Element]](local)

	cs.Binary("is_executed is binary", lv.IsExecuted)
	for i := 0; i < 32; i++ {
		cs.Binary(fmt.Sprintf("limb a[%d] is binary", i), lv.LimbsA[i])
		cs.Binary(fmt.Sprintf("limb b[%d] is binary", i), lv.LimbsB[i])
	}

	// recompose the operands and check xor bit by bit:
	// out_i = a_i + b_i - 2 a_i b_i
	var sumA, sumB, sumOut goldilocks.Element
	two := utils.FromU64(2)
	pow := constraints.One()
	for i := 0; i < 32; i++ {
		t := constraints.Mul(lv.LimbsA[i], pow)
		sumA.Add(&sumA, &t)
		t = constraints.Mul(lv.LimbsB[i], pow)
		sumB.Add(&sumB, &t)
		t = constraints.Mul(lv.LimbsOut[i], pow)
		sumOut.Add(&sumOut, &t)
		pow = constraints.Mul(pow, two)

		ab := constraints.Mul(lv.LimbsA[i], lv.LimbsB[i])
		want := constraints.Sub(constraints.Add(lv.LimbsA[i], lv.LimbsB[i]), constraints.Mul(two, ab))
		cs.Local(fmt.Sprintf("limb out[%d] is the xor of its operands", i),
			constraints.Sub(lv.LimbsOut[i], want))
	}
	cs.Local("a recomposes from its limbs", constraints.Sub(lv.A, sumA))
	cs.Local("b recomposes from its limbs", constraints.Sub(lv.B, sumB))
	cs.Local("out recomposes from its limbs", constraints.Sub(lv.Out, sumOut))
}
