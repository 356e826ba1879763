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

// CpuView is the column layout of the cpu table: one row per executed step.
type CpuView[T any] struct {
	// IsRunning is 1 on real rows and 0 on padding.
	IsRunning T

	Clk   T
	PC    T
	NewPC T

	// OpSelector is the one-hot operation indicator; exactly one entry is 1
	// on a running row, all are 0 on padding.
	OpSelector [riscv.NumOps]T

	Rs1, Rs2, Rd T
	Rs1Value     T
	Rs2Value     T
	Imm          T
	// Op2Value is the resolved second operand: rs2 value plus immediate,
	// wrapped to 32 bits.
	Op2Value T
	DstValue T
	// DstIsX0 flags a discarded write; identities on DstValue are gated on
	// its complement.
	DstIsX0 T

	MemAddr  T
	MemValue T

	XorA, XorB, XorOut T

	BitshiftAmount     T
	BitshiftMultiplier T

	IsHalt         T
	IsPoseidon2    T
	IsEventTape    T
	IsCastListTape T
}

// Cpu is the cpu table descriptor: its index map, generator, constraints and
// lookup references.
type Cpu struct {
	cols CpuView[int]
}

func NewCpu() *Cpu {
	return &Cpu{cols: columns.Indexed[CpuView[int]]()}
}

func (c *Cpu) Width() int { return columns.Size[CpuView[int], int]() }

func (c *Cpu) Generate(in Input, _ *trace.Set) *trace.Table {
	rows := make([]CpuView[goldilocks.Element], 0, len(in.Record.Executed))
	for _, step := range in.Record.Executed {
		rows = append(rows, cpuRow(step))
	}
	return buildTable(trace.KindCpu, rows, func(last CpuView[goldilocks.Element]) CpuView[goldilocks.Element] {
		last.IsRunning.SetZero()
		for i := range last.OpSelector {
			last.OpSelector[i].SetZero()
		}
		last.IsHalt.SetZero()
		last.IsPoseidon2.SetZero()
		last.IsEventTape.SetZero()
		last.IsCastListTape.SetZero()
		return last
	})
}

func cpuRow(step riscv.Row) CpuView[goldilocks.Element] {
	var v CpuView[goldilocks.Element]
	args := step.Inst.Args

	v.IsRunning.SetOne()
	v.Clk = utils.FromU64(step.State.Clk)
	v.PC = utils.FromU32(step.State.PC)
	v.NewPC = utils.FromU32(step.Aux.NewPC)
	v.OpSelector[step.Inst.Op].SetOne()

	v.Rs1 = utils.FromU32(uint32(args.Rs1))
	v.Rs2 = utils.FromU32(uint32(args.Rs2))
	v.Rd = utils.FromU32(uint32(args.Rd))

	rs1v := step.State.Registers[args.Rs1]
	rs2v := step.State.Registers[args.Rs2]
	op2 := rs2v + args.Imm
	v.Rs1Value = utils.FromU32(rs1v)
	v.Rs2Value = utils.FromU32(rs2v)
	v.Imm = utils.FromU32(args.Imm)
	v.Op2Value = utils.FromU32(op2)
	v.DstValue = utils.FromU32(step.Aux.DstVal)
	v.DstIsX0 = utils.FromBool(args.Rd == 0)

	v.MemAddr = utils.FromU32(step.Aux.MemAddr)
	v.MemValue = utils.FromU32(step.Aux.MemValue)

	switch step.Inst.Op {
	case riscv.XOR, riscv.OR, riscv.AND:
		v.XorA = utils.FromU32(rs1v)
		v.XorB = utils.FromU32(op2)
		v.XorOut = utils.FromU32(rs1v ^ op2)
	case riscv.SLL, riscv.SRL, riscv.SRA:
		amount := op2 & 31
		v.BitshiftAmount = utils.FromU32(amount)
		v.BitshiftMultiplier = utils.FromU32(1 << amount)
	case riscv.ECALL:
		switch step.Aux.Ecall {
		case riscv.EcallHalt:
			v.IsHalt.SetOne()
		case riscv.EcallPoseidon2:
			v.IsPoseidon2.SetOne()
		case riscv.EcallEventsCommitmentTape:
			v.IsEventTape.SetOne()
		case riscv.EcallCastListCommitmentTape:
			v.IsCastListTape.SetOne()
		}
	}
	if step.Inst.Op != riscv.SLL && step.Inst.Op != riscv.SRL && step.Inst.Op != riscv.SRA {
		// keep the multiplier consistent with a zero amount so padding rows
		// duplicated from here stay constraint-free
		v.BitshiftMultiplier.SetOne()
	}
	return v
}

func (c *Cpu) selectors(ops ...riscv.Op) []int {
	out := make([]int, len(ops))
	for i, op := range ops {
		out[i] = c.cols.OpSelector[op]
	}
	return out
}

func (c *Cpu) opFilter(ops ...riscv.Op) ctl.Column {
	return ctl.Sum(c.selectors(ops...)...)
}

// opcodeColumn encodes the one-hot selectors back into the numeric opcode.
func (c *Cpu) opcodeColumn() ctl.Column {
	cols := make([]int, riscv.NumOps)
	coeffs := make([]uint64, riscv.NumOps)
	for i := 0; i < riscv.NumOps; i++ {
		cols[i] = c.cols.OpSelector[i]
		coeffs[i] = uint64(i)
	}
	return ctl.Linear(cols, coeffs)
}

// LookingProgram asserts every running row executes an instruction of the
// loaded image.
func (c *Cpu) LookingProgram() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindCpu,
		[]ctl.Column{
			ctl.Single(c.cols.PC),
			c.opcodeColumn(),
			ctl.Single(c.cols.Rd),
			ctl.Single(c.cols.Rs1),
			ctl.Single(c.cols.Rs2),
			ctl.Single(c.cols.Imm),
		},
		ctl.Single(c.cols.IsRunning))
}

// LookingXor sends the operands of bitwise operations to the xor table.
func (c *Cpu) LookingXor() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindCpu,
		ctl.Singles(c.cols.XorA, c.cols.XorB, c.cols.XorOut),
		c.opFilter(riscv.XOR, riscv.OR, riscv.AND))
}

// LookingBitshift binds the shift amount to its power-of-two multiplier.
func (c *Cpu) LookingBitshift() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindCpu,
		ctl.Singles(c.cols.BitshiftAmount, c.cols.BitshiftMultiplier),
		c.opFilter(riscv.SLL, riscv.SRL, riscv.SRA))
}

// LookingRangeCheck bounds arithmetic results to 32 bits.
func (c *Cpu) LookingRangeCheck() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindCpu,
		ctl.Singles(c.cols.DstValue),
		c.opFilter(riscv.ADD, riscv.SUB))
}

// memClk shifts the step clock so memory rows sort strictly after the
// initialization rows at clock zero.
func (c *Cpu) memClk() ctl.Column {
	return ctl.Scaled(c.cols.Clk, 1).WithOffset(1)
}

// LookingMemoryByte sends byte accesses to the memory table.
func (c *Cpu) LookingMemoryByte() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindCpu,
		[]ctl.Column{
			c.memClk(),
			ctl.Single(c.cols.MemAddr),
			ctl.Single(c.cols.MemValue),
			c.opFilter(riscv.SB),
		},
		c.opFilter(riscv.SB, riscv.LB, riscv.LBU))
}

// LookingHalfWord sends half-word accesses to the half-word memory table.
func (c *Cpu) LookingHalfWord() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindCpu,
		[]ctl.Column{
			c.memClk(),
			ctl.Single(c.cols.MemAddr),
			ctl.Single(c.cols.MemValue),
			c.opFilter(riscv.SH),
		},
		c.opFilter(riscv.SH, riscv.LH, riscv.LHU))
}

// LookingFullWord sends full-word accesses to the full-word memory table.
func (c *Cpu) LookingFullWord() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindCpu,
		[]ctl.Column{
			c.memClk(),
			ctl.Single(c.cols.MemAddr),
			ctl.Single(c.cols.MemValue),
			c.opFilter(riscv.SW),
		},
		c.opFilter(riscv.SW, riscv.LW))
}

// LookingRegister produces the three register-file events of every step:
// the rs1 read, the rs2 read and the rd write, at distinct augmented clocks.
func (c *Cpu) LookingRegister() []ctl.TableRef {
	augClk := func(offset uint64) ctl.Column {
		return ctl.Scaled(c.cols.Clk, 3).WithOffset(offset)
	}
	running := ctl.Single(c.cols.IsRunning)
	return []ctl.TableRef{
		ctl.NewTableRefFiltered(trace.KindCpu,
			[]ctl.Column{ctl.Single(c.cols.Rs1), augClk(1), ctl.Single(c.cols.Rs1Value)}, running),
		ctl.NewTableRefFiltered(trace.KindCpu,
			[]ctl.Column{ctl.Single(c.cols.Rs2), augClk(2), ctl.Single(c.cols.Rs2Value)}, running),
		ctl.NewTableRefFiltered(trace.KindCpu,
			[]ctl.Column{ctl.Single(c.cols.Rd), augClk(3), ctl.Single(c.cols.DstValue)}, running),
	}
}

// LookingPoseidon2 binds sponge ecalls to the poseidon2 table by clock.
func (c *Cpu) LookingPoseidon2() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindCpu,
		ctl.Singles(c.cols.Clk),
		ctl.Single(c.cols.IsPoseidon2))
}

func (c *Cpu) Eval(cs *constraints.Consumer, local, next []goldilocks.Element) {
	lv := viewOf[CpuView[goldilocks.Element]](local)
	nv := viewOf[CpuView[goldilocks.Element]](next)

	cs.Binary("is_running is binary", lv.IsRunning)
	var selSum goldilocks.Element
	for i := range lv.OpSelector {
		cs.Binary(fmt.Sprintf("op selector %s is binary", riscv.Op(i)), lv.OpSelector[i])
		selSum.Add(&selSum, &lv.OpSelector[i])
	}
	cs.Local("op selectors sum to is_running", constraints.Sub(selSum, lv.IsRunning))

	cs.Binary("is_halt is binary", lv.IsHalt)
	cs.Binary("is_poseidon2 is binary", lv.IsPoseidon2)
	cs.Binary("is_event_tape is binary", lv.IsEventTape)
	cs.Binary("is_cast_list_tape is binary", lv.IsCastListTape)
	cs.Binary("dst_is_x0 is binary", lv.DstIsX0)
	cs.Local("dst_is_x0 clears with nonzero rd", constraints.Mul(lv.DstIsX0, lv.Rd))

	// clock and program counter chaining; padding rows are out of scope via
	// next.IsRunning
	cs.Transition("clock ticks once per step",
		constraints.Mul(nv.IsRunning, constraints.Sub(constraints.Sub(nv.Clk, lv.Clk), constraints.One())))
	cs.Transition("pc follows new_pc",
		constraints.Mul(nv.IsRunning, constraints.Sub(nv.PC, lv.NewPC)))
	delta := constraints.Sub(lv.IsRunning, nv.IsRunning)
	cs.Transition("running stops at most once",
		constraints.Mul(delta, constraints.Sub(delta, constraints.One())))

	// bitwise identities over the xor helper columns, skipped for discarded
	// writes to x0
	writes := constraints.Sub(constraints.One(), lv.DstIsX0)
	two := utils.FromU64(2)
	xorE := constraints.Mul(lv.OpSelector[riscv.XOR], writes)
	andE := constraints.Mul(lv.OpSelector[riscv.AND], writes)
	orE := constraints.Mul(lv.OpSelector[riscv.OR], writes)
	cs.Local("xor writes the xor output",
		constraints.Mul(xorE, constraints.Sub(lv.DstValue, lv.XorOut)))
	cs.Local("and halves a+b-xor",
		constraints.Mul(andE, constraints.Sub(constraints.Mul(two, lv.DstValue),
			constraints.Sub(constraints.Add(lv.XorA, lv.XorB), lv.XorOut))))
	cs.Local("or halves a+b+xor",
		constraints.Mul(orE, constraints.Sub(constraints.Mul(two, lv.DstValue),
			constraints.Add(constraints.Add(lv.XorA, lv.XorB), lv.XorOut))))
}
