package tables

import (
	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/consensys/starkvm/columns"
	"github.com/consensys/starkvm/constraints"
	"github.com/consensys/starkvm/ctl"
	"github.com/consensys/starkvm/internal/utils"
	"github.com/consensys/starkvm/trace"
)

// ProgramView is the column layout of the program ROM table: one row per
// decoded instruction of the image, with the number of times it executed.
type ProgramView[T any] struct {
	Pc     T
	Opcode T
	Rd     T
	Rs1    T
	Rs2    T
	Imm    T
	// Multiplicity counts cpu rows at this pc; zero for code never reached.
	Multiplicity T
}

type Program struct {
	cols ProgramView[int]
}

func NewProgram() *Program {
	return &Program{cols: columns.Indexed[ProgramView[int]]()}
}

func (p *Program) Width() int { return columns.Size[ProgramView[int], int]() }

func (p *Program) Generate(in Input, _ *trace.Set) *trace.Table {
	execCount := make(map[uint32]uint64)
	for _, step := range in.Record.Executed {
		execCount[step.State.PC]++
	}

	rows := make([]ProgramView[goldilocks.Element], 0, len(in.Program.Code))
	for _, pc := range sortedKeys(in.Program.Code) {
		inst := in.Program.Code[pc]
		var v ProgramView[goldilocks.Element]
		v.Pc = utils.FromU32(pc)
		v.Opcode = utils.FromU64(uint64(inst.Op))
		v.Rd = utils.FromU32(uint32(inst.Args.Rd))
		v.Rs1 = utils.FromU32(uint32(inst.Args.Rs1))
		v.Rs2 = utils.FromU32(uint32(inst.Args.Rs2))
		v.Imm = utils.FromU32(inst.Args.Imm)
		v.Multiplicity = utils.FromU64(execCount[pc])
		rows = append(rows, v)
	}
	return buildTable(trace.KindProgram, rows, func(last ProgramView[goldilocks.Element]) ProgramView[goldilocks.Element] {
		last.Multiplicity.SetZero()
		return last
	})
}

// LookedCpu is the looked side of the instruction-fetch lookup; the cpu side
// contributes once per executed step, weighed here by Multiplicity.
func (p *Program) LookedCpu() ctl.TableRef {
	return ctl.NewTableRefFiltered(trace.KindProgram,
		ctl.Singles(p.cols.Pc, p.cols.Opcode, p.cols.Rd, p.cols.Rs1, p.cols.Rs2, p.cols.Imm),
		ctl.Single(p.cols.Multiplicity))
}

// The program ROM is committed data; it carries no polynomial identities of
// its own, only the fetch lookup against the cpu table.
func (p *Program) Eval(*constraints.Consumer, []goldilocks.Element, []goldilocks.Element) {}
