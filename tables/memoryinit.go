package tables

import (
	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/consensys/starkvm/columns"
	"github.com/consensys/starkvm/constraints"
	"github.com/consensys/starkvm/ctl"
	"github.com/consensys/starkvm/internal/utils"
	"github.com/consensys/starkvm/trace"
)

// MemoryInitView is the column layout of the initial memory image: one row
// per byte of the loaded program, read-only and writable segments alike, plus
// one zero row per touched byte the image leaves out.
type MemoryInitView[T any] struct {
	Filter     T
	IsWritable T
	Addr       T
	Value      T
}

type MemoryInit struct {
	cols MemoryInitView[int]
}

func NewMemoryInit() *MemoryInit {
	return &MemoryInit{cols: columns.Indexed[MemoryInitView[int]]()}
}

func (m *MemoryInit) Width() int { return columns.Size[MemoryInitView[int], int]() }

func (m *MemoryInit) Generate(in Input, _ *trace.Set) *trace.Table {
	rows := make([]MemoryInitView[goldilocks.Element], 0, len(in.Program.RoMemory)+len(in.Program.RwMemory))
	appendSegment := func(mem map[uint32]byte, writable bool) {
		for _, addr := range sortedKeys(mem) {
			var v MemoryInitView[goldilocks.Element]
			v.Filter.SetOne()
			v.IsWritable = utils.FromBool(writable)
			v.Addr = utils.FromU32(addr)
			v.Value = utils.FromU32(uint32(mem[addr]))
			rows = append(rows, v)
		}
	}
	appendSegment(in.Program.RoMemory, false)
	appendSegment(in.Program.RwMemory, true)
	for _, addr := range zeroInitAddrs(in) {
		var v MemoryInitView[goldilocks.Element]
		v.Filter.SetOne()
		v.IsWritable.SetOne()
		v.Addr = utils.FromU32(addr)
		rows = append(rows, v)
	}

	return buildTable(trace.KindMemoryInit, rows, func(last MemoryInitView[goldilocks.Element]) MemoryInitView[goldilocks.Element] {
		last.Filter.SetZero()
		return last
	})
}

// LookingMemory asserts every image byte appears as an init row of the
// memory table.
func (m *MemoryInit) LookingMemory() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindMemoryInit,
		ctl.Singles(m.cols.IsWritable, m.cols.Addr, m.cols.Value),
		ctl.Single(m.cols.Filter))
}

func (m *MemoryInit) Eval(cs *constraints.Consumer, local, _ []goldilocks.Element) {
	lv := viewOf[MemoryInitView[goldilocks.Element]](local)
	cs.Binary("filter is binary", lv.Filter)
	cs.Binary("is_writable is binary", lv.IsWritable)
}
