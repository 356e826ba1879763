package riscv

import (
	"github.com/consensys/gnark-crypto/field/goldilocks"
)

// Program is the loaded guest image: decoded code plus the initial memory
// content, split by writability.
type Program struct {
	// Entry is the initial program counter.
	Entry uint32

	// Code maps a program counter to its decoded instruction.
	Code map[uint32]Instruction

	// RoMemory and RwMemory hold the initial memory image, byte by byte.
	RoMemory map[uint32]byte
	RwMemory map[uint32]byte
}

// State is the machine state before executing one step.
type State struct {
	Clk       uint64
	PC        uint32
	Registers [32]uint32
	Halted    bool
}

// Ecall identifies the environment call executed by a step, if any.
type Ecall uint8

const (
	EcallNone Ecall = iota
	EcallHalt
	EcallPoseidon2
	EcallEventsCommitmentTape
	EcallCastListCommitmentTape
)

// Poseidon2Entry records one sponge permutation executed on behalf of the
// guest: the full 12-element input and output states, as computed by the
// interpreter's hasher.
type Poseidon2Entry struct {
	StateIn  [12]goldilocks.Element
	StateOut [12]goldilocks.Element
}

// Aux bundles the per-step facts the interpreter knows but the pre-step
// state alone does not determine: the value written to rd, the memory cell
// touched, and cryptographic side effects.
type Aux struct {
	// DstVal is the value of rd after the step (0 when rd is x0 or unused).
	DstVal uint32

	// NewPC is the program counter after the step.
	NewPC uint32

	// MemAddr and MemValue describe the memory access of the step, when
	// Instruction.IsMemory() holds. MemValue is the full (half)word value
	// stored or loaded, before any byte decomposition.
	MemAddr  uint32
	MemValue uint32

	Ecall     Ecall
	Poseidon2 *Poseidon2Entry
}

// Row is one executed step: the pre-step state, the decoded instruction at
// State.PC, and the auxiliary facts.
type Row struct {
	State State
	Inst  Instruction
	Aux   Aux
}

// ExecutionRecord is the ordered trace the interpreter hands over, plus the
// final state and the commitment tapes accumulated during the run.
type ExecutionRecord struct {
	Executed  []Row
	LastState State

	// Commitment tapes exposed through the tape-commitments table. Empty
	// when the guest never stores them.
	EventsCommitmentTape   []byte
	CastListCommitmentTape []byte
}
