// Package riscv defines the execution record consumed by trace generation:
// the decoded program, the per-step machine states and the auxiliary facts
// recorded by the interpreter. The interpreter itself lives outside this
// module; everything here is plain data.
package riscv

// Op enumerates the decoded RISC-V operations the arithmetization knows
// about. LUI and AUIPC are decoded into ADD by the loader, as usual for
// RV32 zk interpreters.
type Op uint8

const (
	ADD Op = iota
	SUB
	XOR
	OR
	AND
	SLL
	SRL
	SRA
	SLT
	SLTU
	LB
	LBU
	LH
	LHU
	LW
	SB
	SH
	SW
	BEQ
	BNE
	BLT
	BLTU
	BGE
	BGEU
	JALR
	ECALL
	MUL
	MULH
	MULHU
	MULHSU
	DIV
	DIVU
	REM
	REMU

	NumOps int = iota
)

var opNames = [NumOps]string{
	"ADD", "SUB", "XOR", "OR", "AND", "SLL", "SRL", "SRA", "SLT", "SLTU",
	"LB", "LBU", "LH", "LHU", "LW", "SB", "SH", "SW",
	"BEQ", "BNE", "BLT", "BLTU", "BGE", "BGEU", "JALR", "ECALL",
	"MUL", "MULH", "MULHU", "MULHSU", "DIV", "DIVU", "REM", "REMU",
}

func (op Op) String() string {
	if int(op) >= NumOps {
		return "INVALID"
	}
	return opNames[op]
}

// Args are the decoded operands of an instruction. Rs1, Rs2 and Rd are
// register indices in [0, 32); Imm is the already sign-extended immediate.
type Args struct {
	Rd  uint8
	Rs1 uint8
	Rs2 uint8
	Imm uint32
}

// Instruction is one decoded instruction at a fixed program counter.
type Instruction struct {
	Op   Op
	Args Args
}

// IsMemory reports whether the operation touches memory.
func (i Instruction) IsMemory() bool {
	switch i.Op {
	case LB, LBU, LH, LHU, LW, SB, SH, SW:
		return true
	}
	return false
}
