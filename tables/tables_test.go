package tables

import (
	"testing"

	"github.com/consensys/gnark-crypto/field/goldilocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consensys/starkvm/constraints"
	"github.com/consensys/starkvm/ctl"
	"github.com/consensys/starkvm/internal/utils"
	"github.com/consensys/starkvm/riscv"
	"github.com/consensys/starkvm/trace"
)

// test ecall selectors, carried in the immediate of the ECALL instruction
const (
	ecHalt uint32 = iota + 1
	ecPoseidon2
	ecEventTape
	ecCastListTape
)

func inst(op riscv.Op, rd, rs1, rs2 uint8, imm uint32) riscv.Instruction {
	return riscv.Instruction{Op: op, Args: riscv.Args{Rd: rd, Rs1: rs1, Rs2: rs2, Imm: imm}}
}

func program(insts ...riscv.Instruction) *riscv.Program {
	p := &riscv.Program{
		Code:     make(map[uint32]riscv.Instruction),
		RoMemory: make(map[uint32]byte),
		RwMemory: make(map[uint32]byte),
	}
	for i, in := range insts {
		p.Code[uint32(4*i)] = in
	}
	return p
}

// run interprets the program just far enough to produce a well-formed
// execution record: straight-line RV32 with the operations the tables cover.
func run(t *testing.T, p *riscv.Program) Input {
	t.Helper()

	mem := make(map[uint32]byte)
	for addr, b := range p.RoMemory {
		mem[addr] = b
	}
	for addr, b := range p.RwMemory {
		mem[addr] = b
	}

	var rec riscv.ExecutionRecord
	state := riscv.State{PC: p.Entry}
	for steps := 0; !state.Halted; steps++ {
		require.Less(t, steps, 10_000, "program does not halt")
		in, ok := p.Code[state.PC]
		require.True(t, ok, "no instruction at pc %d", state.PC)

		step := riscv.Row{State: state, Inst: in}
		args := in.Args
		rs1v := state.Registers[args.Rs1]
		rs2v := state.Registers[args.Rs2]
		op2 := rs2v + args.Imm

		newPC := state.PC + 4
		var dst uint32
		writes := false
		switch in.Op {
		case riscv.ADD:
			dst, writes = rs1v+op2, true
		case riscv.SUB:
			dst, writes = rs1v-op2, true
		case riscv.XOR:
			dst, writes = rs1v^op2, true
		case riscv.OR:
			dst, writes = rs1v|op2, true
		case riscv.AND:
			dst, writes = rs1v&op2, true
		case riscv.SLL:
			dst, writes = rs1v<<(op2&31), true
		case riscv.SRL:
			dst, writes = rs1v>>(op2&31), true
		case riscv.SB:
			addr := rs1v + args.Imm
			step.Aux.MemAddr, step.Aux.MemValue = addr, rs2v&0xff
			mem[addr] = byte(rs2v)
		case riscv.LBU:
			addr := rs1v + args.Imm
			step.Aux.MemAddr, step.Aux.MemValue = addr, uint32(mem[addr])
			dst, writes = uint32(mem[addr]), true
		case riscv.SH:
			addr := rs1v + args.Imm
			step.Aux.MemAddr, step.Aux.MemValue = addr, rs2v&0xffff
			mem[addr], mem[addr+1] = byte(rs2v), byte(rs2v>>8)
		case riscv.LHU:
			addr := rs1v + args.Imm
			v := uint32(mem[addr]) | uint32(mem[addr+1])<<8
			step.Aux.MemAddr, step.Aux.MemValue = addr, v
			dst, writes = v, true
		case riscv.SW:
			addr := rs1v + args.Imm
			step.Aux.MemAddr, step.Aux.MemValue = addr, rs2v
			for i := uint32(0); i < 4; i++ {
				mem[addr+i] = byte(rs2v >> (8 * i))
			}
		case riscv.LW:
			addr := rs1v + args.Imm
			var v uint32
			for i := uint32(0); i < 4; i++ {
				v |= uint32(mem[addr+i]) << (8 * i)
			}
			step.Aux.MemAddr, step.Aux.MemValue = addr, v
			dst, writes = v, true
		case riscv.ECALL:
			switch args.Imm {
			case ecHalt:
				step.Aux.Ecall = riscv.EcallHalt
				state.Halted = true
			case ecPoseidon2:
				step.Aux.Ecall = riscv.EcallPoseidon2
				entry := &riscv.Poseidon2Entry{}
				for i := range entry.StateIn {
					entry.StateIn[i] = utils.FromU64(state.Clk + uint64(i))
					entry.StateOut[i] = utils.FromU64(state.Clk*31 + uint64(i))
				}
				step.Aux.Poseidon2 = entry
			case ecEventTape:
				step.Aux.Ecall = riscv.EcallEventsCommitmentTape
			case ecCastListTape:
				step.Aux.Ecall = riscv.EcallCastListCommitmentTape
			default:
				t.Fatalf("unknown test ecall %d", args.Imm)
			}
		default:
			t.Fatalf("test interpreter does not implement %s", in.Op)
		}

		if writes && args.Rd != 0 {
			step.Aux.DstVal = dst
			state.Registers[args.Rd] = dst
		}
		step.Aux.NewPC = newPC
		rec.Executed = append(rec.Executed, step)

		state.Clk++
		state.PC = newPC
	}
	rec.LastState = state
	return Input{Program: p, Record: &rec}
}

func halting(insts ...riscv.Instruction) []riscv.Instruction {
	return append(insts, inst(riscv.ECALL, 0, 0, 0, ecHalt))
}

func generate(t *testing.T, in Input) (*Registry, *trace.Set) {
	t.Helper()
	reg := NewRegistry()
	set, err := reg.GenerateTables(in)
	require.NoError(t, err)
	return reg, set
}

// checkWellFormed asserts the invariants every generated set must satisfy:
// table shapes, per-table constraints and the direct lookup multiset checks.
func checkWellFormed(t *testing.T, reg *Registry, set *trace.Set) {
	t.Helper()
	for _, kind := range trace.AllKinds() {
		tbl := set[kind]
		require.NotNil(t, tbl, "table %s missing", kind)
		n := tbl.NumRows()
		assert.GreaterOrEqual(t, n, trace.MinLength, "table %s", kind)
		assert.Zero(t, n&(n-1), "table %s row count %d is not a power of two", kind, n)
		assert.Equal(t, reg.Descriptor(kind).Width, tbl.Width(), "table %s", kind)
	}
	require.NoError(t, reg.CheckConstraints(set))
	require.NoError(t, ctl.CheckAll(set, reg.Lookups()))
}

func TestGenerateEmptyRecord(t *testing.T) {
	in := Input{Program: program(), Record: &riscv.ExecutionRecord{}}
	reg, set := generate(t, in)
	checkWellFormed(t, reg, set)

	cpu := set[trace.KindCpu]
	assert.Equal(t, 0, cpu.Len())
	assert.Equal(t, trace.MinLength, cpu.NumRows())
	for row := 0; row < cpu.NumRows(); row++ {
		assert.Zero(t, utils.ToU64(cpu.At(row, reg.Cpu.cols.IsRunning)))
	}
}

func TestGenerateAddProgram(t *testing.T) {
	assert := require.New(t)

	// x1 = 70000 + 70000; both 16-bit limbs of the result are non-trivial
	p := program(halting(inst(riscv.ADD, 1, 0, 0, 70000), inst(riscv.ADD, 2, 1, 1, 0))...)
	reg, set := generate(t, run(t, p))
	checkWellFormed(t, reg, set)

	cpu := set[trace.KindCpu]
	assert.Equal(3, cpu.Len(), "two adds and the halt")

	// the second add's result, 140000 = 0x222E0, reaches the range-check
	// table with multiplicity 1 and is split into its 16-bit limbs
	rc := set[trace.KindRangeCheck]
	cols := reg.RangeCheck.cols
	found := false
	for row := 0; row < rc.Len(); row++ {
		if utils.ToU64(rc.At(row, cols.Value)) == 140000 {
			found = true
			assert.EqualValues(1, utils.ToU64(rc.At(row, cols.Multiplicity)))
			assert.EqualValues(140000&0xffff, utils.ToU64(rc.At(row, cols.Limbs[0])))
			assert.EqualValues(140000>>16, utils.ToU64(rc.At(row, cols.Limbs[1])))
		}
	}
	assert.True(found, "range-check row for the add result")

	// and both limbs are counted in the 16-bit domain
	u16 := set[trace.KindRangeCheckU16]
	u16cols := reg.RangeCheckU16.cols
	assert.NotZero(utils.ToU64(u16.At(140000&0xffff, u16cols.Multiplicity)))
	assert.NotZero(utils.ToU64(u16.At(140000>>16, u16cols.Multiplicity)))
}

func TestCpuPaddingPolicy(t *testing.T) {
	p := program(halting(
		inst(riscv.ADD, 1, 0, 0, 5),
		inst(riscv.XOR, 2, 1, 1, 3),
	)...)
	reg, set := generate(t, run(t, p))

	cpu := set[trace.KindCpu]
	cols := reg.Cpu.cols
	lastReal := cpu.Len() - 1
	selectorCols := map[int]bool{cols.IsRunning: true, cols.IsHalt: true,
		cols.IsPoseidon2: true, cols.IsEventTape: true, cols.IsCastListTape: true}
	for _, sel := range cols.OpSelector {
		selectorCols[sel] = true
	}

	for row := cpu.Len(); row < cpu.NumRows(); row++ {
		for col := 0; col < cpu.Width(); col++ {
			got := cpu.At(row, col)
			if selectorCols[col] {
				assert.True(t, got.IsZero(), "selector column %d asserted in padding row %d", col, row)
			} else {
				want := cpu.At(lastReal, col)
				assert.True(t, got.Equal(&want), "column %d differs from last real row in padding row %d", col, row)
			}
		}
	}
}

func TestDomainTablesEnumerateOnce(t *testing.T) {
	_, set := generate(t, Input{Program: program(), Record: &riscv.ExecutionRecord{}})

	u8 := set[trace.KindRangeCheckU8]
	require.Equal(t, 1<<8, u8.NumRows())
	for v := 0; v < 1<<8; v++ {
		assert.EqualValues(t, v, utils.ToU64(u8.At(v, 0)))
	}

	u16 := set[trace.KindRangeCheckU16]
	require.Equal(t, 1<<16, u16.NumRows())
	for _, v := range []int{0, 1, 1234, 65535} {
		assert.EqualValues(t, v, utils.ToU64(u16.At(v, 0)))
	}

	bs := set[trace.KindBitshift]
	require.Equal(t, 32, bs.NumRows())
	for v := 0; v < 32; v++ {
		assert.EqualValues(t, v, utils.ToU64(bs.At(v, 0)))
		assert.EqualValues(t, uint64(1)<<v, utils.ToU64(bs.At(v, 1)))
	}
}

func fullProgram() *riscv.Program {
	p := program(halting(
		inst(riscv.ADD, 1, 0, 0, 0x1000),     // x1 = heap base
		inst(riscv.ADD, 2, 0, 0, 0xBEEF),     // x2 = 0xBEEF
		inst(riscv.XOR, 3, 2, 1, 0),          // bitwise ops
		inst(riscv.AND, 4, 2, 3, 0),
		inst(riscv.OR, 5, 2, 4, 1),
		inst(riscv.SLL, 6, 2, 0, 3),          // shifts
		inst(riscv.SRL, 7, 6, 0, 3),
		inst(riscv.SUB, 8, 7, 2, 0),
		inst(riscv.SB, 0, 1, 2, 0),           // byte store + load
		inst(riscv.LBU, 9, 1, 0, 0),
		inst(riscv.SH, 0, 1, 2, 8),           // half-word store + load
		inst(riscv.LHU, 10, 1, 0, 8),
		inst(riscv.SW, 0, 1, 6, 16),          // full-word store + load
		inst(riscv.LW, 11, 1, 0, 16),
		inst(riscv.LBU, 12, 0, 0, 0x200),     // load from the initial image
		inst(riscv.ECALL, 0, 0, 0, ecPoseidon2),
		inst(riscv.ECALL, 0, 0, 0, ecEventTape),
		inst(riscv.ECALL, 0, 0, 0, ecCastListTape),
	)...)
	p.RoMemory[0x200] = 0x7f
	p.RwMemory[0x300] = 0x01
	return p
}

func TestGenerateFullProgram(t *testing.T) {
	in := run(t, fullProgram())
	in.Record.EventsCommitmentTape = make([]byte, 32)
	in.Record.CastListCommitmentTape = make([]byte, 32)
	for i := 0; i < 32; i++ {
		in.Record.EventsCommitmentTape[i] = byte(i)
		in.Record.CastListCommitmentTape[i] = byte(31 - i)
	}

	reg, set := generate(t, in)
	checkWellFormed(t, reg, set)

	assert.Equal(t, 3, set[trace.KindXor].Len())
	assert.Equal(t, 2, set[trace.KindHalfWordMemory].Len())
	assert.Equal(t, 2, set[trace.KindFullWordMemory].Len())
	assert.Equal(t, 1, set[trace.KindPoseidon2].Len())
	assert.Equal(t, 64, set[trace.KindTapeCommitments].Len())
	assert.Equal(t, len(fullProgram().Code), set[trace.KindProgram].Len())
}

func TestLoadFromUntouchedAddress(t *testing.T) {
	// a load from a byte the image never initializes and no store writes
	// reads zero; the memory table opens that address with a zero init row
	p := program(halting(inst(riscv.LBU, 1, 0, 0, 0x500))...)
	p.RoMemory[0x100] = 5
	reg, set := generate(t, run(t, p))
	checkWellFormed(t, reg, set)

	mem := set[trace.KindMemory]
	cols := reg.Memory.cols
	var zeroInit bool
	for row := 0; row < mem.Len(); row++ {
		if utils.ToU64(mem.At(row, cols.Addr)) != 0x500 {
			continue
		}
		if utils.ToU64(mem.At(row, cols.IsInit)) == 1 {
			zeroInit = true
			assert.Zero(t, utils.ToU64(mem.At(row, cols.Value)))
		}
	}
	assert.True(t, zeroInit, "untouched address gets a zero init row")

	init := set[trace.KindMemoryInit]
	initCols := reg.MemoryInit.cols
	assert.Equal(t, 2, init.Len(), "one image byte and one zero row")
	assert.EqualValues(t, 0x500, utils.ToU64(init.At(1, initCols.Addr)))
}

func TestGenerateRejectsNilInput(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.GenerateTables(Input{})
	require.Error(t, err)
}

func TestRegistryDescriptorPanicsOnUnknownKind(t *testing.T) {
	reg := NewRegistry()
	require.Panics(t, func() { reg.Descriptor(trace.TableKind(200)) })
}

func TestConstraintsCatchTamperedCpu(t *testing.T) {
	p := program(halting(inst(riscv.ADD, 1, 0, 0, 7))...)
	reg, set := generate(t, run(t, p))

	// break the clock chain
	row := set[trace.KindCpu].Row(1)
	row[reg.Cpu.cols.Clk] = utils.FromU64(17)
	require.Error(t, constraints.Check(set[trace.KindCpu], reg.Cpu))
}

func TestXorConstraints(t *testing.T) {
	p := program(halting(inst(riscv.ADD, 1, 0, 0, 0xF0F0), inst(riscv.XOR, 2, 1, 0, 0x0FF0))...)
	reg, set := generate(t, run(t, p))
	require.NoError(t, constraints.Check(set[trace.KindXor], reg.Xor))

	var bad goldilocks.Element
	bad.SetOne()
	set[trace.KindXor].Row(0)[reg.Xor.cols.LimbsOut[4]] = bad
	require.Error(t, constraints.Check(set[trace.KindXor], reg.Xor))
}
