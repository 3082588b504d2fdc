package emu

import "github.com/sarchlab/rvstep/insts"

// NoRegister marks a step that wrote no register.
const NoRegister = -1

// WritebackUnit commits stage results to the register file.
type WritebackUnit struct {
	regFile *RegFile
}

// NewWritebackUnit creates a new WritebackUnit.
func NewWritebackUnit(regFile *RegFile) *WritebackUnit {
	return &WritebackUnit{regFile: regFile}
}

// Writeback stores value into rd for every opcode except stores. It returns
// the written register index, or NoRegister.
func (w *WritebackUnit) Writeback(inst *insts.Instruction, value int32) (int, error) {
	if inst.Opcode == insts.OpStore {
		return NoRegister, nil
	}
	if err := w.regFile.WriteReg(inst.Rd, value); err != nil {
		return NoRegister, err
	}
	return int(inst.Rd), nil
}
