// Package emu provides functional RV32 instruction stepping.
package emu

import "github.com/sarchlab/rvstep/insts"

// ALU implements the shared arithmetic/logic routine used by loads, stores,
// op-imm and op instructions.
//
// The second operand is the decoded immediate for every slot except the
// shifts, which take the raw rs2 field as the shift amount. Register-register
// instructions therefore see imm == 0 in the non-shift slots.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// Compute returns the ALU result selected by funct3 and funct7.
// Unused funct3 slots produce 0.
func (a *ALU) Compute(inst *insts.Instruction) (int32, error) {
	op1, err := a.regFile.ReadReg(inst.Rs1)
	if err != nil {
		return 0, err
	}

	switch inst.Funct3 {
	case insts.Funct3AddSub:
		if inst.Funct7 == 0 {
			return a.ADD(op1, inst.Imm), nil
		}
		return a.SUB(op1, inst.Imm), nil
	case insts.Funct3SLL:
		return a.SLL(op1, inst.Rs2), nil
	case insts.Funct3SLT:
		return a.SLT(op1, inst.Imm), nil
	case insts.Funct3XOR:
		return op1 ^ inst.Imm, nil
	case insts.Funct3SRLSRA:
		if inst.Funct7 == 0 {
			return a.SRL(op1, inst.Rs2), nil
		}
		return a.SRA(op1, inst.Rs2), nil
	case insts.Funct3OR:
		return op1 | inst.Imm, nil
	case insts.Funct3AND:
		return op1 & inst.Imm, nil
	default:
		return 0, nil
	}
}

// ADD performs wrapping 32-bit addition.
func (a *ALU) ADD(op1, op2 int32) int32 {
	return op1 + op2
}

// SUB performs wrapping 32-bit subtraction.
func (a *ALU) SUB(op1, op2 int32) int32 {
	return op1 - op2
}

// SLL shifts left by the raw 5-bit amount.
func (a *ALU) SLL(op1 int32, shamt uint8) int32 {
	return op1 << shamt
}

// SLT is 1 when op1 < op2 as signed values, else 0.
func (a *ALU) SLT(op1, op2 int32) int32 {
	if op1 < op2 {
		return 1
	}
	return 0
}

// SRL shifts right filling with zeros.
func (a *ALU) SRL(op1 int32, shamt uint8) int32 {
	return int32(uint32(op1) >> shamt)
}

// SRA shifts right replicating the sign bit.
func (a *ALU) SRA(op1 int32, shamt uint8) int32 {
	return op1 >> shamt
}
