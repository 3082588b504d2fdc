package emu

import "github.com/sarchlab/rvstep/insts"

// AccessKind classifies the data memory access of a step.
type AccessKind uint8

// Access kinds.
const (
	AccessNone AccessKind = iota
	AccessLoad
	AccessStore
)

// MemAccess describes the data memory access performed by a step.
type MemAccess struct {
	Kind  AccessKind
	Addr  int32 // Word index
	Value int32 // Value loaded or stored
}

// Snapshot is the state published after a completed step. It is a value:
// consumers may keep it without further synchronization.
type Snapshot struct {
	// PC is the counter value at the start of the step.
	PC uint32
	// Word is the raw fetched instruction word.
	Word uint32
	// Inst holds the decoded fields.
	Inst insts.Instruction
	// Registers is the register file after writeback.
	Registers [NumRegisters]int32
	// Written is the register index written by the step, or NoRegister.
	Written int
	// Access is the data memory access, if any.
	Access MemAccess
	// Count is the number of completed steps including this one.
	Count uint64
}

// Observer receives step and completion notifications. Observers are called
// while the emulator holds its step lock and must not call Step, Run or
// LoadProgram on the same emulator.
type Observer interface {
	// OnStep is called after every completed step.
	OnStep(s Snapshot)
	// OnHalt is called once when a step finds no instruction mapped at the
	// current counter.
	OnHalt()
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Step func(s Snapshot)
	Halt func()
}

// OnStep implements Observer.
func (o ObserverFuncs) OnStep(s Snapshot) {
	if o.Step != nil {
		o.Step(s)
	}
}

// OnHalt implements Observer.
func (o ObserverFuncs) OnHalt() {
	if o.Halt != nil {
		o.Halt()
	}
}
