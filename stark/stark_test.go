package stark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consensys/starkvm/ctl"
	"github.com/consensys/starkvm/internal/utils"
	"github.com/consensys/starkvm/riscv"
	"github.com/consensys/starkvm/tables"
	"github.com/consensys/starkvm/trace"
)

// addInput is a two-step run: one ADD whose result spans both 16-bit limbs,
// then a halting ecall.
func addInput() tables.Input {
	add := riscv.Instruction{Op: riscv.ADD, Args: riscv.Args{Rd: 1, Imm: 140000}}
	halt := riscv.Instruction{Op: riscv.ECALL}

	var afterAdd riscv.State
	afterAdd.Clk = 1
	afterAdd.PC = 4
	afterAdd.Registers[1] = 140000

	rec := &riscv.ExecutionRecord{
		Executed: []riscv.Row{
			{
				State: riscv.State{},
				Inst:  add,
				Aux:   riscv.Aux{DstVal: 140000, NewPC: 4},
			},
			{
				State: afterAdd,
				Inst:  halt,
				Aux:   riscv.Aux{Ecall: riscv.EcallHalt, NewPC: 8},
			},
		},
	}
	rec.LastState = afterAdd
	rec.LastState.PC = 8
	rec.LastState.Halted = true
	rec.EventsCommitmentTape = make([]byte, 32)
	rec.CastListCommitmentTape = make([]byte, 32)
	for i := 0; i < 32; i++ {
		rec.EventsCommitmentTape[i] = byte(i * 7)
		rec.CastListCommitmentTape[i] = byte(i * 11)
	}

	return tables.Input{
		Program: &riscv.Program{
			Code:     map[uint32]riscv.Instruction{0: add, 4: halt},
			RoMemory: map[uint32]byte{},
			RwMemory: map[uint32]byte{},
		},
		Record: rec,
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	assert := require.New(t)

	reg := tables.NewRegistry()
	artifacts, err := BuildArtifacts(reg, addInput())
	assert.NoError(err)
	assert.NoError(VerifyArtifacts(reg, artifacts))

	assert.Equal(1+1, artifacts.Tables[trace.KindCpu].Len())
	for _, kind := range trace.AllKinds() {
		assert.NotEqual([32]byte{}, artifacts.Digests[kind], "empty digest for %s", kind)
	}
	assert.Len(artifacts.Lookups, len(reg.Lookups()))

	assert.Len(artifacts.Publics, 2)
	assert.Len(artifacts.Publics[0].Values, 32)
	assert.Equal(uint64(7), utils.ToU64(artifacts.Publics[0].Values[1][1]))
}

func TestPipelineIsDeterministic(t *testing.T) {
	reg := tables.NewRegistry()
	a, err := BuildArtifacts(reg, addInput())
	require.NoError(t, err)
	b, err := BuildArtifacts(reg, addInput())
	require.NoError(t, err)

	assert.Equal(t, a.Digests, b.Digests)
	assert.Equal(t, a.Challenges, b.Challenges)
}

func TestMutatedLimbFailsVerification(t *testing.T) {
	assert := require.New(t)

	reg := tables.NewRegistry()
	set, err := reg.GenerateTables(addInput())
	assert.NoError(err)

	// bump one 16-bit limb of the range-check table without touching the
	// domain table's multiplicities
	rc := set[trace.KindRangeCheck]
	var limb int
	for row := 0; row < rc.Len(); row++ {
		if utils.ToU64(rc.Row(row)[0]) == 140000 {
			limb = row
		}
	}
	one := utils.FromU64(1)
	rc.Row(limb)[1].Add(&rc.Row(limb)[1], &one)

	challenges, err := ctl.SampleChallenges(set)
	assert.NoError(err)
	data, err := ctl.BuildAll(set, reg.Lookups(), challenges)
	assert.NoError(err)
	assert.Error(ctl.VerifyAll(data), "limb mutation must break the 16-bit lookup")
}

func TestTamperedDisclosureFailsVerification(t *testing.T) {
	reg := tables.NewRegistry()
	artifacts, err := BuildArtifacts(reg, addInput())
	require.NoError(t, err)

	one := utils.FromU64(1)
	artifacts.Publics[0].Values[3][1].Add(&artifacts.Publics[0].Values[3][1], &one)
	require.Error(t, VerifyArtifacts(reg, artifacts))
}

func TestEmptyRunStillVerifies(t *testing.T) {
	reg := tables.NewRegistry()
	in := tables.Input{
		Program: &riscv.Program{Code: map[uint32]riscv.Instruction{}},
		Record:  &riscv.ExecutionRecord{},
	}
	artifacts, err := BuildArtifacts(reg, in)
	require.NoError(t, err)
	require.NoError(t, VerifyArtifacts(reg, artifacts))
}
