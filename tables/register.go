package tables

import (
	"sort"

	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/consensys/starkvm/columns"
	"github.com/consensys/starkvm/constraints"
	"github.com/consensys/starkvm/ctl"
	"github.com/consensys/starkvm/internal/utils"
	"github.com/consensys/starkvm/trace"
)

// RegisterView is the column layout of the register-file table: one row per
// register event, sorted by register then augmented clock. Every step emits
// three events: the rs1 read, the rs2 read and the rd write.
type RegisterView[T any] struct {
	Addr T
	// AugClk spreads the three events of a step over distinct clocks:
	// 3·clk+1 for the rs1 read, 3·clk+2 for the rs2 read, 3·clk+3 for the
	// write. Initialization rows sit at zero.
	AugClk     T
	DiffAugClk T
	Value      T
	IsInit     T
	IsRead     T
	IsWrite    T
}

type Register struct {
	cols RegisterView[int]
}

func NewRegister() *Register {
	return &Register{cols: columns.Indexed[RegisterView[int]]()}
}

func (r *Register) Width() int { return columns.Size[RegisterView[int], int]() }

type regEvent struct {
	addr    uint32
	augClk  uint64
	value   uint32
	isInit  bool
	isRead  bool
	isWrite bool
}

func (r *Register) Generate(in Input, _ *trace.Set) *trace.Table {
	regs := initialRegisters(in)
	events := make([]regEvent, 0, 32+3*len(in.Record.Executed))
	for addr := uint32(0); addr < 32; addr++ {
		events = append(events, regEvent{addr: addr, value: regs[addr], isInit: true})
	}
	for _, step := range in.Record.Executed {
		base := 3 * step.State.Clk
		args := step.Inst.Args
		events = append(events,
			regEvent{addr: uint32(args.Rs1), augClk: base + 1, value: step.State.Registers[args.Rs1], isRead: true},
			regEvent{addr: uint32(args.Rs2), augClk: base + 2, value: step.State.Registers[args.Rs2], isRead: true},
			regEvent{addr: uint32(args.Rd), augClk: base + 3, value: step.Aux.DstVal, isWrite: true},
		)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].addr != events[j].addr {
			return events[i].addr < events[j].addr
		}
		return events[i].augClk < events[j].augClk
	})

	rows := make([]RegisterView[goldilocks.Element], len(events))
	for i, ev := range events {
		v := &rows[i]
		v.Addr = utils.FromU32(ev.addr)
		v.AugClk = utils.FromU64(ev.augClk)
		v.Value = utils.FromU32(ev.value)
		v.IsInit = utils.FromBool(ev.isInit)
		v.IsRead = utils.FromBool(ev.isRead)
		v.IsWrite = utils.FromBool(ev.isWrite)
		if i > 0 && events[i-1].addr == ev.addr {
			v.DiffAugClk = utils.FromU64(ev.augClk - events[i-1].augClk)
		}
	}
	return buildTable(trace.KindRegister, rows, func(last RegisterView[goldilocks.Element]) RegisterView[goldilocks.Element] {
		last.IsInit.SetZero()
		last.IsRead.SetZero()
		last.IsWrite.SetZero()
		return last
	})
}

// LookedCpu is the looked side of the register-event lookup; the cpu table
// contributes three looking rows per step.
func (r *Register) LookedCpu() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindRegister,
		ctl.Singles(r.cols.Addr, r.cols.AugClk, r.cols.Value),
		ctl.Sum(r.cols.IsRead, r.cols.IsWrite))
}

// LookedInit is the looked side of the initial-value lookup from the
// register-init table.
func (r *Register) LookedInit() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindRegister,
		ctl.Singles(r.cols.Addr, r.cols.Value),
		ctl.Single(r.cols.IsInit))
}

// LookingRangeCheck bounds per-register augmented clock distances, which
// pins the sort order down to 32 bits.
func (r *Register) LookingRangeCheck() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindRegister,
		ctl.Singles(r.cols.DiffAugClk),
		ctl.Sum(r.cols.IsRead, r.cols.IsWrite))
}

func (r *Register) Eval(cs *constraints.Consumer, local, next []goldilocks.Element) {
	lv := viewOf[RegisterView[goldilocks.Element]](local)
	nv := viewOf[RegisterView[goldilocks.Element]](next)

	cs.Binary("is_init is binary", lv.IsInit)
	cs.Binary("is_read is binary", lv.IsRead)
	cs.Binary("is_write is binary", lv.IsWrite)
	opSum := constraints.Add(constraints.Add(lv.IsInit, lv.IsRead), lv.IsWrite)
	cs.Binary("at most one event per row", opSum)

	cs.Local("initialization happens at clock zero", constraints.Mul(lv.IsInit, lv.AugClk))

	// a run over one register starts with its init row, so a read can only
	// repeat the value standing before it
	cs.Transition("reads preserve the value",
		constraints.Mul(nv.IsRead, constraints.Sub(nv.Value, lv.Value)))
}
