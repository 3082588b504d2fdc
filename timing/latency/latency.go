// Package latency provides instruction timing models for step statistics.
//
// The latency values can be configured via TimingConfig.
package latency

import (
	"github.com/sarchlab/rvstep/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the execution latency in cycles for the given instruction.
func (t *Table) GetLatency(inst *insts.Instruction) uint64 {
	if inst == nil {
		return 1
	}

	switch inst.Opcode {
	case insts.OpImm, insts.OpReg:
		return t.config.ALULatency

	case insts.OpLUI, insts.OpAUIPC:
		return t.config.UpperLatency

	case insts.OpBranch:
		return t.config.BranchLatency

	case insts.OpJAL, insts.OpJALR:
		return t.config.JumpLatency

	case insts.OpLoad:
		return t.config.LoadLatency

	case insts.OpStore:
		return t.config.StoreLatency

	case insts.OpSystem:
		return t.config.SystemLatency

	default:
		return t.config.DefaultLatency
	}
}

// IsMemoryOp returns true if the instruction accesses data memory.
func (t *Table) IsMemoryOp(inst *insts.Instruction) bool {
	return t.IsLoadOp(inst) || t.IsStoreOp(inst)
}

// IsLoadOp returns true if the instruction is a load operation.
func (t *Table) IsLoadOp(inst *insts.Instruction) bool {
	return inst != nil && inst.Opcode == insts.OpLoad
}

// IsStoreOp returns true if the instruction is a store operation.
func (t *Table) IsStoreOp(inst *insts.Instruction) bool {
	return inst != nil && inst.Opcode == insts.OpStore
}

// IsBranchOp returns true for branches and jumps. None of them redirect the
// counter here; they are counted for reporting only.
func (t *Table) IsBranchOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	switch inst.Opcode {
	case insts.OpBranch, insts.OpJAL, insts.OpJALR:
		return true
	default:
		return false
	}
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
