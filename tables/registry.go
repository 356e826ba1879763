package tables

import (
	"fmt"

	"github.com/consensys/starkvm/constraints"
	"github.com/consensys/starkvm/ctl"
	"github.com/consensys/starkvm/trace"
)

// Stage orders generation: tables derived from other tables run after the
// tables they aggregate.
type Stage uint8

const (
	// StageRecord tables read only the execution record.
	StageRecord Stage = iota
	// StageAggregate tables harvest from StageRecord tables.
	StageAggregate
	// StageDomain tables harvest from everything before them.
	StageDomain

	numStages int = iota
)

// Descriptor is one entry of the dispatch table: everything the pipeline
// needs to know about a table kind.
type Descriptor struct {
	Kind        trace.TableKind
	Width       int
	Stage       Stage
	Generate    func(Input, *trace.Set) *trace.Table
	Constraints constraints.Evaluator
}

// Registry owns one descriptor per table kind plus the canonical lookup and
// public sub-table configuration. Build it once with NewRegistry and pass it
// through the pipeline; it is immutable afterwards.
type Registry struct {
	Cpu             *Cpu
	Program         *Program
	Xor             *Xor
	Bitshift        *Bitshift
	Memory          *Memory
	MemoryInit      *MemoryInit
	HalfWordMemory  *HalfWordMemory
	FullWordMemory  *FullWordMemory
	Register        *Register
	RegisterInit    *RegisterInit
	RangeCheck      *RangeCheck
	RangeCheckU8    *RangeCheckU8
	RangeCheckU16   *RangeCheckU16
	Poseidon2       *Poseidon2
	TapeCommitments *TapeCommitments

	descriptors [trace.NumTableKinds]Descriptor
	lookups     []ctl.CrossTableLookup
	publics     []ctl.PublicSubTable
}

func NewRegistry() *Registry {
	r := &Registry{
		Cpu:             NewCpu(),
		Program:         NewProgram(),
		Xor:             NewXor(),
		Bitshift:        NewBitshift(),
		Memory:          NewMemory(),
		MemoryInit:      NewMemoryInit(),
		HalfWordMemory:  NewHalfWordMemory(),
		FullWordMemory:  NewFullWordMemory(),
		Register:        NewRegister(),
		RegisterInit:    NewRegisterInit(),
		RangeCheck:      NewRangeCheck(),
		RangeCheckU8:    NewRangeCheckU8(),
		RangeCheckU16:   NewRangeCheckU16(),
		Poseidon2:       NewPoseidon2(),
		TapeCommitments: NewTapeCommitments(),
	}

	// the same references drive both the multiplicity harvests and the
	// lookup arguments, so the two can never drift apart
	r.RangeCheck.SetConsumers([]ctl.TableRef{
		r.Cpu.LookingRangeCheck(),
		r.Memory.LookingRangeCheck(),
		r.Register.LookingRangeCheck(),
	})
	r.RangeCheckU8.SetConsumers([]ctl.TableRef{
		r.Memory.LookingRangeCheckU8(),
		r.TapeCommitments.LookingRangeCheckU8(),
	})
	r.RangeCheckU16.SetConsumers(r.RangeCheck.LookingU16())

	memoryLookings := []ctl.TableRef{r.Cpu.LookingMemoryByte()}
	memoryLookings = append(memoryLookings, r.HalfWordMemory.LookingMemory()...)
	memoryLookings = append(memoryLookings, r.FullWordMemory.LookingMemory()...)

	r.lookups = []ctl.CrossTableLookup{
		ctl.NewCrossTableLookup("instruction_fetch",
			[]ctl.TableRef{r.Cpu.LookingProgram()}, r.Program.LookedCpu(), ctl.StyleLogUp),
		ctl.NewCrossTableLookup("bitwise",
			[]ctl.TableRef{r.Cpu.LookingXor()}, r.Xor.LookedCpu(), ctl.StyleGrandProduct),
		ctl.NewCrossTableLookup("bitshift",
			[]ctl.TableRef{r.Cpu.LookingBitshift()}, r.Bitshift.LookedCpu(), ctl.StyleLogUp),
		ctl.NewCrossTableLookup("memory_access",
			memoryLookings, r.Memory.LookedAccesses(), ctl.StyleGrandProduct),
		ctl.NewCrossTableLookup("half_word_access",
			[]ctl.TableRef{r.Cpu.LookingHalfWord()}, r.HalfWordMemory.LookedCpu(), ctl.StyleGrandProduct),
		ctl.NewCrossTableLookup("full_word_access",
			[]ctl.TableRef{r.Cpu.LookingFullWord()}, r.FullWordMemory.LookedCpu(), ctl.StyleGrandProduct),
		ctl.NewCrossTableLookup("memory_image",
			[]ctl.TableRef{r.MemoryInit.LookingMemory()}, r.Memory.LookedInit(), ctl.StyleGrandProduct),
		ctl.NewCrossTableLookup("register_events",
			r.Cpu.LookingRegister(), r.Register.LookedCpu(), ctl.StyleGrandProduct),
		ctl.NewCrossTableLookup("register_image",
			[]ctl.TableRef{r.RegisterInit.LookingRegister()}, r.Register.LookedInit(), ctl.StyleGrandProduct),
		ctl.NewCrossTableLookup("sponge",
			[]ctl.TableRef{r.Cpu.LookingPoseidon2()}, r.Poseidon2.LookedCpu(), ctl.StyleGrandProduct),
		ctl.NewCrossTableLookup("rangecheck_u32",
			r.RangeCheck.Consumers(), r.RangeCheck.LookedValues(), ctl.StyleLogUp),
		ctl.NewCrossTableLookup("rangecheck_u16",
			r.RangeCheckU16.Consumers(), r.RangeCheckU16.LookedValues(), ctl.StyleLogUp),
		ctl.NewCrossTableLookup("rangecheck_u8",
			r.RangeCheckU8.Consumers(), r.RangeCheckU8.LookedValues(), ctl.StyleLogUp),
	}

	r.publics = []ctl.PublicSubTable{
		r.TapeCommitments.PublicEventTape(),
		r.TapeCommitments.PublicCastListTape(),
	}

	for _, d := range []Descriptor{
		{trace.KindCpu, r.Cpu.Width(), StageRecord, r.Cpu.Generate, r.Cpu},
		{trace.KindProgram, r.Program.Width(), StageRecord, r.Program.Generate, r.Program},
		{trace.KindXor, r.Xor.Width(), StageRecord, r.Xor.Generate, r.Xor},
		{trace.KindBitshift, r.Bitshift.Width(), StageRecord, r.Bitshift.Generate, r.Bitshift},
		{trace.KindMemory, r.Memory.Width(), StageRecord, r.Memory.Generate, r.Memory},
		{trace.KindMemoryInit, r.MemoryInit.Width(), StageRecord, r.MemoryInit.Generate, r.MemoryInit},
		{trace.KindHalfWordMemory, r.HalfWordMemory.Width(), StageRecord, r.HalfWordMemory.Generate, r.HalfWordMemory},
		{trace.KindFullWordMemory, r.FullWordMemory.Width(), StageRecord, r.FullWordMemory.Generate, r.FullWordMemory},
		{trace.KindRegister, r.Register.Width(), StageRecord, r.Register.Generate, r.Register},
		{trace.KindRegisterInit, r.RegisterInit.Width(), StageRecord, r.RegisterInit.Generate, r.RegisterInit},
		{trace.KindRangeCheck, r.RangeCheck.Width(), StageAggregate, r.RangeCheck.Generate, r.RangeCheck},
		{trace.KindRangeCheckU8, r.RangeCheckU8.Width(), StageDomain, r.RangeCheckU8.Generate, r.RangeCheckU8},
		{trace.KindRangeCheckU16, r.RangeCheckU16.Width(), StageDomain, r.RangeCheckU16.Generate, r.RangeCheckU16},
		{trace.KindPoseidon2, r.Poseidon2.Width(), StageRecord, r.Poseidon2.Generate, r.Poseidon2},
		{trace.KindTapeCommitments, r.TapeCommitments.Width(), StageRecord, r.TapeCommitments.Generate, r.TapeCommitments},
	} {
		r.descriptors[d.Kind] = d
	}
	return r
}

// Descriptor returns the dispatch entry for a kind; asking for a kind the
// registry does not know is a programmer error.
func (r *Registry) Descriptor(kind trace.TableKind) Descriptor {
	if int(kind) >= trace.NumTableKinds || r.descriptors[kind].Generate == nil {
		panic(fmt.Sprintf("tables: no descriptor for table kind %d", kind))
	}
	return r.descriptors[kind]
}

// Lookups returns the canonical cross-table lookup configuration.
func (r *Registry) Lookups() []ctl.CrossTableLookup { return r.lookups }

// PublicSubTables returns the canonical public disclosures.
func (r *Registry) PublicSubTables() []ctl.PublicSubTable { return r.publics }

// CheckConstraints evaluates every table's constraints over a generated set.
func (r *Registry) CheckConstraints(set *trace.Set) error {
	for _, kind := range trace.AllKinds() {
		tbl := set[kind]
		if tbl == nil {
			return fmt.Errorf("tables: table %s not generated", kind)
		}
		if err := constraints.Check(tbl, r.Descriptor(kind).Constraints); err != nil {
			return err
		}
	}
	return nil
}
