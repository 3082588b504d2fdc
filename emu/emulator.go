// Package emu provides functional RV32 instruction stepping.
package emu

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rvstep/insts"
)

// StepResult represents the result of a single Step call.
type StepResult struct {
	// Halted is true if no instruction was mapped at the counter.
	Halted bool

	// Snapshot is the published state of a completed step. It is the zero
	// value when Halted is true or Err is set.
	Snapshot Snapshot

	// Err is set if the step faulted. It is a *Fault for index violations.
	Err error
}

// Emulator steps RV32 instructions functionally. Each step runs fetch,
// decode, execute, memory access and writeback in order and then advances
// the counter by 4, whatever the instruction was.
type Emulator struct {
	mu sync.Mutex

	regFile *RegFile
	memory  *Memory
	program *Program
	decoder *insts.Decoder
	inst    insts.Instruction

	// Execution units
	execUnit  *ExecuteUnit
	lsu       *LoadStoreUnit
	writeback *WritebackUnit

	observers []Observer
	logger    logrus.FieldLogger

	// Execution state
	pc               uint32
	halted           bool
	last             Snapshot
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
	memorySize       int

	running atomic.Bool
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMemorySize sets the data memory capacity in words.
func WithMemorySize(words int) EmulatorOption {
	return func(e *Emulator) {
		e.memorySize = words
	}
}

// WithLogger sets the logger used for step tracing.
func WithLogger(logger logrus.FieldLogger) EmulatorOption {
	return func(e *Emulator) {
		e.logger = logger
	}
}

// WithObserver registers an observer for step and halt notifications.
func WithObserver(o Observer) EmulatorOption {
	return func(e *Emulator) {
		e.observers = append(e.observers, o)
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates a new emulator with zeroed registers, zeroed data
// memory, an empty program image and the counter at 0.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		decoder:    insts.NewDecoder(),
		program:    NewProgram(nil),
		memorySize: DefaultMemorySize,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		e.logger = quiet
	}

	e.regFile = &RegFile{}
	e.memory = NewMemory(e.memorySize)
	e.execUnit = NewExecuteUnit(e.regFile)
	e.lsu = NewLoadStoreUnit(e.regFile, e.memory)
	e.writeback = NewWritebackUnit(e.regFile)

	return e
}

// RegFile returns the emulator's register file. It must not be touched while
// an auto-run is active.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's data memory. It must not be touched while an
// auto-run is active.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// AddObserver registers an observer after construction.
func (e *Emulator) AddObserver(o Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

// LoadProgram installs words at addresses 0, 4, 8, ... replacing any earlier
// image. Registers, memory and the counter are left as they are.
func (e *Emulator) LoadProgram(words []uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.program = NewProgram(words)
	e.halted = false

	e.logger.WithFields(logrus.Fields{
		"words": len(words),
		"pc":    e.pc,
	}).Debug("program loaded")
}

// PC returns the current program counter.
func (e *Emulator) PC() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pc
}

// Halted returns true once a step has found no instruction at the counter.
func (e *Emulator) Halted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.halted
}

// Snapshot returns the most recently published snapshot.
func (e *Emulator) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// InstructionCount returns the number of completed steps.
func (e *Emulator) InstructionCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.instructionCount
}

// Running reports whether an auto-run is active.
func (e *Emulator) Running() bool {
	return e.running.Load()
}

// Step executes a single instruction.
func (e *Emulator) Step() StepResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	// 1. Fetch
	pc := e.pc
	word, ok := e.program.Fetch(pc)
	if !ok {
		e.halt()
		return StepResult{Halted: true}
	}

	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: ErrMaxInstructions}
	}

	// 2. Decode
	inst := &e.inst
	e.decoder.DecodeInto(word, inst)

	// 3. Execute. Decoded register fields are 5 bits wide, so this only
	// faults for instructions built by hand with out-of-range indices.
	result, err := e.execUnit.Execute(inst, pc)
	if err != nil {
		return e.fault(inst, StageExecute, int64(inst.Rs1), err)
	}

	// 4. Memory access
	memResult, access, err := e.lsu.Access(inst, result)
	if err != nil {
		return e.fault(inst, StageMemory, int64(result), err)
	}

	// 5. Writeback
	written, err := e.writeback.Writeback(inst, memResult)
	if err != nil {
		return e.fault(inst, StageWriteback, int64(inst.Rd), err)
	}

	e.instructionCount++
	snap := Snapshot{
		PC:        pc,
		Word:      word,
		Inst:      *inst,
		Registers: e.regFile.X,
		Written:   written,
		Access:    access,
		Count:     e.instructionCount,
	}
	e.last = snap

	e.logger.WithFields(logrus.Fields{
		"pc":     pc,
		"word":   word,
		"op":     inst.Opcode.String(),
		"result": memResult,
	}).Debug("step")

	for _, o := range e.observers {
		o.OnStep(snap)
	}

	e.pc += 4

	return StepResult{Snapshot: snap}
}

// halt moves to the halted state, notifying observers on the transition.
func (e *Emulator) halt() {
	if e.halted {
		return
	}
	e.halted = true

	e.logger.WithFields(logrus.Fields{
		"pc":    e.pc,
		"steps": e.instructionCount,
	}).Info("simulation complete")

	for _, o := range e.observers {
		o.OnHalt()
	}
}

func (e *Emulator) fault(inst *insts.Instruction, stage Stage, index int64, err error) StepResult {
	f := &Fault{PC: e.pc, Word: inst.Word, Stage: stage, Index: index, Err: err}

	e.logger.WithFields(logrus.Fields{
		"pc":    e.pc,
		"word":  inst.Word,
		"stage": string(stage),
		"index": index,
	}).WithError(err).Warn("step fault")

	return StepResult{Err: f}
}

// Run steps at rate steps per second until the emulator halts, ctx is
// cancelled or a step faults. The first step is immediate; later steps are
// spaced RateInterval(rate) apart. A rate that is not a positive finite
// number performs no stepping and returns nil. Only one Run may be active
// per emulator; a second concurrent call returns ErrAlreadyRunning.
func (e *Emulator) Run(ctx context.Context, rate float64) error {
	if !validRate(rate) {
		return nil
	}
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer e.running.Store(false)

	ticker := time.NewTicker(RateInterval(rate))
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		result := e.Step()
		if result.Err != nil {
			return result.Err
		}
		if result.Halted {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunAsync starts Run on its own goroutine. The returned channel receives
// Run's result and is then closed.
func (e *Emulator) RunAsync(ctx context.Context, rate float64) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- e.Run(ctx, rate)
	}()
	return done
}

// RunToHalt steps without delay until the emulator halts or faults. It
// returns the number of steps completed by this call.
func (e *Emulator) RunToHalt() (uint64, error) {
	var steps uint64
	for {
		result := e.Step()
		if result.Err != nil {
			return steps, result.Err
		}
		if result.Halted {
			return steps, nil
		}
		steps++
	}
}

// IsFault reports whether err carries a step fault and returns it.
func IsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
