package tables

import (
	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/consensys/starkvm/columns"
	"github.com/consensys/starkvm/constraints"
	"github.com/consensys/starkvm/ctl"
	"github.com/consensys/starkvm/internal/utils"
	"github.com/consensys/starkvm/trace"
)

// TapeCommitmentsView is the column layout of the commitment-tape table: one
// row per byte of each tape the guest committed to.
type TapeCommitmentsView[T any] struct {
	IsEventTape    T
	IsCastListTape T
	Index          T
	Byte           T
}

type TapeCommitments struct {
	cols TapeCommitmentsView[int]
}

func NewTapeCommitments() *TapeCommitments {
	return &TapeCommitments{cols: columns.Indexed[TapeCommitmentsView[int]]()}
}

func (t *TapeCommitments) Width() int { return columns.Size[TapeCommitmentsView[int], int]() }

func (t *TapeCommitments) Generate(in Input, _ *trace.Set) *trace.Table {
	rows := make([]TapeCommitmentsView[goldilocks.Element], 0,
		len(in.Record.EventsCommitmentTape)+len(in.Record.CastListCommitmentTape))
	for i, b := range in.Record.EventsCommitmentTape {
		var v TapeCommitmentsView[goldilocks.Element]
		v.IsEventTape.SetOne()
		v.Index = utils.FromU64(uint64(i))
		v.Byte = utils.FromU32(uint32(b))
		rows = append(rows, v)
	}
	for i, b := range in.Record.CastListCommitmentTape {
		var v TapeCommitmentsView[goldilocks.Element]
		v.IsCastListTape.SetOne()
		v.Index = utils.FromU64(uint64(i))
		v.Byte = utils.FromU32(uint32(b))
		rows = append(rows, v)
	}
	return buildTable(trace.KindTapeCommitments, rows, func(last TapeCommitmentsView[goldilocks.Element]) TapeCommitmentsView[goldilocks.Element] {
		last.IsEventTape.SetZero()
		last.IsCastListTape.SetZero()
		return last
	})
}

// LookingRangeCheckU8 bounds every tape byte.
func (t *TapeCommitments) LookingRangeCheckU8() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindTapeCommitments,
		ctl.Singles(t.cols.Byte),
		ctl.Sum(t.cols.IsEventTape, t.cols.IsCastListTape))
}

// PublicEventTape discloses the events commitment tape.
func (t *TapeCommitments) PublicEventTape() ctl.PublicSubTable {
	return ctl.NewPublicSubTable("events_commitment_tape",
		ctl.NewTableRefFiltered(trace.KindTapeCommitments,
			ctl.Singles(t.cols.Index, t.cols.Byte),
			ctl.Single(t.cols.IsEventTape)))
}

// PublicCastListTape discloses the cast-list commitment tape.
func (t *TapeCommitments) PublicCastListTape() ctl.PublicSubTable {
	return ctl.NewPublicSubTable("cast_list_commitment_tape",
		ctl.NewTableRefFiltered(trace.KindTapeCommitments,
			ctl.Singles(t.cols.Index, t.cols.Byte),
			ctl.Single(t.cols.IsCastListTape)))
}

func (t *TapeCommitments) Eval(cs *constraints.Consumer, local, _ []goldilocks.Element) {
	lv := viewOf[TapeCommitmentsView[goldilocks.Element]](local)

	cs.Binary("is_event_tape is binary", lv.IsEventTape)
	cs.Binary("is_cast_list_tape is binary", lv.IsCastListTape)
	cs.Binary("at most one tape per row", constraints.Add(lv.IsEventTape, lv.IsCastListTape))
}
