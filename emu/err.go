package emu

import (
	"errors"
	"fmt"
)

var (
	// ErrMemoryIndex reports a load or store outside data memory.
	ErrMemoryIndex = errors.New("memory index out of range")
	// ErrRegisterIndex reports a register index outside x0-x31.
	ErrRegisterIndex = errors.New("register index out of range")
	// ErrAlreadyRunning is returned when auto-run is requested while
	// another auto-run is active on the same emulator.
	ErrAlreadyRunning = errors.New("auto-run already active")
	// ErrMaxInstructions is returned once the instruction limit is reached.
	ErrMaxInstructions = errors.New("max instructions reached")
)

// Stage names the step stage that faulted.
type Stage string

// Step stages.
const (
	StageExecute   Stage = "execute"
	StageMemory    Stage = "memory"
	StageWriteback Stage = "writeback"
)

// Fault is a step that could not complete. The step made no register write,
// published nothing and left the counter in place.
type Fault struct {
	PC    uint32
	Word  uint32
	Stage Stage
	// Index is the offending memory address or register number.
	Index int64
	Err   error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s fault at PC=0x%08X (instruction 0x%08X, index %d): %v",
		f.Stage, f.PC, f.Word, f.Index, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}
