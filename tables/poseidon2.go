package tables

import (
	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/consensys/starkvm/columns"
	"github.com/consensys/starkvm/constraints"
	"github.com/consensys/starkvm/ctl"
	"github.com/consensys/starkvm/internal/utils"
	"github.com/consensys/starkvm/trace"
)

// Poseidon2View is the column layout of the sponge table: one row per
// permutation the guest requested, carrying the full width-12 input and
// output states recorded by the interpreter.
type Poseidon2View[T any] struct {
	IsExecuted T
	Clk        T
	StateIn    [12]T
	StateOut   [12]T
}

type Poseidon2 struct {
	cols Poseidon2View[int]
}

func NewPoseidon2() *Poseidon2 {
	return &Poseidon2{cols: columns.Indexed[Poseidon2View[int]]()}
}

func (p *Poseidon2) Width() int { return columns.Size[Poseidon2View[int], int]() }

func (p *Poseidon2) Generate(in Input, _ *trace.Set) *trace.Table {
	var rows []Poseidon2View[goldilocks.Element]
	for _, step := range in.Record.Executed {
		if step.Aux.Poseidon2 == nil {
			continue
		}
		var v Poseidon2View[goldilocks.Element]
		v.IsExecuted.SetOne()
		v.Clk = utils.FromU64(step.State.Clk)
		v.StateIn = step.Aux.Poseidon2.StateIn
		v.StateOut = step.Aux.Poseidon2.StateOut
		rows = append(rows, v)
	}
	return buildTable(trace.KindPoseidon2, rows, func(last Poseidon2View[goldilocks.Element]) Poseidon2View[goldilocks.Element] {
		last.IsExecuted.SetZero()
		return last
	})
}

// LookedCpu is the looked side of the sponge-ecall lookup from the cpu
// table, bound by clock.
func (p *Poseidon2) LookedCpu() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindPoseidon2,
		ctl.Singles(p.cols.Clk),
		ctl.Single(p.cols.IsExecuted))
}

// The permutation's round identities live in the downstream constraint
// backend; this layer only fixes the table shape.
func (p *Poseidon2) Eval(cs *constraints.Consumer, local, _ []goldilocks.Element) {
	lv := viewOf[Poseidon2View[goldilocks.Element]](local)
	cs.Binary("is_executed is binary", lv.IsExecuted)
}
