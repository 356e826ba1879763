package tables

import (
	"sort"

	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/consensys/starkvm/columns"
	"github.com/consensys/starkvm/constraints"
	"github.com/consensys/starkvm/ctl"
	"github.com/consensys/starkvm/internal/utils"
	"github.com/consensys/starkvm/riscv"
	"github.com/consensys/starkvm/trace"
)

// MemoryView is the column layout of the byte-memory table: one row per
// initialized byte and per byte touched by an access, sorted by address then
// clock. Half-word and full-word accesses appear once per byte.
type MemoryView[T any] struct {
	IsWritable T
	Addr       T
	Clk        T
	IsStore    T
	IsLoad     T
	IsInit     T
	Value      T
	// DiffClk is the clock distance to the previous access of the same
	// address; range-checked to rule out reordering within an address.
	DiffClk T
}

type Memory struct {
	cols MemoryView[int]
}

func NewMemory() *Memory {
	return &Memory{cols: columns.Indexed[MemoryView[int]]()}
}

func (m *Memory) Width() int { return columns.Size[MemoryView[int], int]() }

type memEvent struct {
	addr     uint32
	clk      uint64
	value    uint32
	writable bool
	isStore  bool
	isLoad   bool
	isInit   bool
}

// accessBytes is the number of bytes a memory op touches, 0 for everything
// else.
func accessBytes(op riscv.Op) uint32 {
	switch op {
	case riscv.SB, riscv.LB, riscv.LBU:
		return 1
	case riscv.SH, riscv.LH, riscv.LHU:
		return 2
	case riscv.SW, riscv.LW:
		return 4
	}
	return 0
}

// zeroInitAddrs lists, in ascending order, every byte address the record
// touches that the program image never initializes. Those bytes start life as
// zero and get init rows of their own, so each address run in the memory
// table opens with the value later loads must preserve.
func zeroInitAddrs(in Input) []uint32 {
	touched := make(map[uint32]struct{})
	for _, step := range in.Record.Executed {
		nBytes := accessBytes(step.Inst.Op)
		for i := uint32(0); i < nBytes; i++ {
			addr := step.Aux.MemAddr + i
			if _, ok := in.Program.RoMemory[addr]; ok {
				continue
			}
			if _, ok := in.Program.RwMemory[addr]; ok {
				continue
			}
			touched[addr] = struct{}{}
		}
	}
	return sortedKeys(touched)
}

// memEvents expands the execution record into per-byte memory events. The
// clock is shifted by one so every access sorts after the initialization
// rows at clock zero.
func memEvents(in Input) []memEvent {
	var events []memEvent
	for _, addr := range sortedKeys(in.Program.RoMemory) {
		events = append(events, memEvent{addr: addr, value: uint32(in.Program.RoMemory[addr]), isInit: true})
	}
	for _, addr := range sortedKeys(in.Program.RwMemory) {
		events = append(events, memEvent{addr: addr, value: uint32(in.Program.RwMemory[addr]), writable: true, isInit: true})
	}
	for _, addr := range zeroInitAddrs(in) {
		events = append(events, memEvent{addr: addr, writable: true, isInit: true})
	}

	for _, step := range in.Record.Executed {
		nBytes := accessBytes(step.Inst.Op)
		if nBytes == 0 {
			continue
		}
		isStore := step.Inst.Op == riscv.SB || step.Inst.Op == riscv.SH || step.Inst.Op == riscv.SW
		for i := uint32(0); i < nBytes; i++ {
			events = append(events, memEvent{
				addr:     step.Aux.MemAddr + i,
				clk:      step.State.Clk + 1,
				value:    step.Aux.MemValue >> (8 * i) & 0xff,
				writable: true,
				isStore:  isStore,
				isLoad:   !isStore,
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].addr != events[j].addr {
			return events[i].addr < events[j].addr
		}
		return events[i].clk < events[j].clk
	})
	return events
}

func (m *Memory) Generate(in Input, _ *trace.Set) *trace.Table {
	events := memEvents(in)

	rows := make([]MemoryView[goldilocks.Element], len(events))
	for i, ev := range events {
		v := &rows[i]
		v.IsWritable = utils.FromBool(ev.writable)
		v.Addr = utils.FromU32(ev.addr)
		v.Clk = utils.FromU64(ev.clk)
		v.IsStore = utils.FromBool(ev.isStore)
		v.IsLoad = utils.FromBool(ev.isLoad)
		v.IsInit = utils.FromBool(ev.isInit)
		v.Value = utils.FromU32(ev.value)
		if i > 0 && events[i-1].addr == ev.addr {
			v.DiffClk = utils.FromU64(ev.clk - events[i-1].clk)
		}
	}
	return buildTable(trace.KindMemory, rows, func(last MemoryView[goldilocks.Element]) MemoryView[goldilocks.Element] {
		last.IsStore.SetZero()
		last.IsLoad.SetZero()
		last.IsInit.SetZero()
		return last
	})
}

// LookedAccesses is the looked side of the access lookup; the cpu table and
// the word-memory tables each contribute per-byte looking rows.
func (m *Memory) LookedAccesses() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindMemory,
		[]ctl.Column{
			ctl.Single(m.cols.Clk),
			ctl.Single(m.cols.Addr),
			ctl.Single(m.cols.Value),
			ctl.Single(m.cols.IsStore),
		},
		ctl.Sum(m.cols.IsStore, m.cols.IsLoad))
}

// LookedInit is the looked side of the initial-image lookup.
func (m *Memory) LookedInit() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindMemory,
		ctl.Singles(m.cols.IsWritable, m.cols.Addr, m.cols.Value),
		ctl.Single(m.cols.IsInit))
}

// LookingRangeCheck bounds per-address clock distances.
func (m *Memory) LookingRangeCheck() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindMemory,
		ctl.Singles(m.cols.DiffClk),
		ctl.Sum(m.cols.IsStore, m.cols.IsLoad))
}

// LookingRangeCheckU8 bounds every stored value to one byte.
func (m *Memory) LookingRangeCheckU8() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindMemory,
		ctl.Singles(m.cols.Value),
		ctl.Sum(m.cols.IsStore, m.cols.IsLoad, m.cols.IsInit))
}

func (m *Memory) Eval(cs *constraints.Consumer, local, next []goldilocks.Element) {
	lv := viewOf[MemoryView[goldilocks.Element]](local)
	nv := viewOf[MemoryView[goldilocks.Element]](next)

	cs.Binary("is_writable is binary", lv.IsWritable)
	cs.Binary("is_store is binary", lv.IsStore)
	cs.Binary("is_load is binary", lv.IsLoad)
	cs.Binary("is_init is binary", lv.IsInit)
	opSum := constraints.Add(constraints.Add(lv.IsStore, lv.IsLoad), lv.IsInit)
	cs.Binary("at most one operation per row", opSum)

	// rows are sorted by address and every touched byte has an init row, so
	// a run over one address starts at its init value; the address may only
	// change when the next row opens a new run
	cs.Transition("address changes only at init rows",
		constraints.Mul(constraints.Sub(nv.Addr, lv.Addr),
			constraints.Sub(constraints.One(), nv.IsInit)))
	cs.Transition("loads preserve the value",
		constraints.Mul(nv.IsLoad, constraints.Sub(nv.Value, lv.Value)))
	cs.Local("read-only bytes reject stores",
		constraints.Mul(lv.IsStore, constraints.Sub(constraints.One(), lv.IsWritable)))
}
