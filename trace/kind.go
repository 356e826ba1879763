package trace

// TableKind identifies one kind of fact proven by the arithmetization; each
// kind owns exactly one trace table per proof. The set is closed: every
// dispatch over kinds goes through an array indexed by TableKind, built once
// at startup.
type TableKind uint8

const (
	KindCpu TableKind = iota
	KindRangeCheck
	KindXor
	KindBitshift
	KindProgram
	KindMemory
	KindMemoryInit
	KindHalfWordMemory
	KindFullWordMemory
	KindRegisterInit
	KindRegister
	KindRangeCheckU8
	KindRangeCheckU16
	KindPoseidon2
	KindTapeCommitments

	NumTableKinds int = iota
)

var kindNames = [NumTableKinds]string{
	"cpu",
	"rangecheck",
	"xor",
	"bitshift",
	"program",
	"memory",
	"memoryinit",
	"halfword_memory",
	"fullword_memory",
	"register_init",
	"register",
	"rangecheck_u8",
	"rangecheck_u16",
	"poseidon2",
	"tape_commitments",
}

func (k TableKind) String() string {
	if int(k) >= NumTableKinds {
		return "invalid"
	}
	return kindNames[k]
}

// AllKinds returns every table kind in dispatch order.
func AllKinds() [NumTableKinds]TableKind {
	var out [NumTableKinds]TableKind
	for i := range out {
		out[i] = TableKind(i)
	}
	return out
}

// Set holds one finished table per kind.
type Set [NumTableKinds]*Table
