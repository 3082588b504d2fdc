// Package emu provides functional RV32 instruction stepping.
package emu

import "github.com/sarchlab/rvstep/insts"

// BranchUnit evaluates branch conditions. It never redirects the program
// counter: a taken branch only produces its offset as a value.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// Compare returns the branch immediate when the condition selected by funct3
// holds, else 0. Unsupported funct3 values are never taken.
func (b *BranchUnit) Compare(inst *insts.Instruction) (int32, error) {
	v1, v2, err := b.regFile.readPair(inst.Rs1, inst.Rs2)
	if err != nil {
		return 0, err
	}

	if b.CheckCondition(inst.Funct3, v1, v2) {
		return inst.Imm, nil
	}
	return 0, nil
}

// CheckCondition evaluates a signed comparison of two register values.
func (b *BranchUnit) CheckCondition(funct3 uint8, v1, v2 int32) bool {
	switch funct3 {
	case insts.Funct3BEQ:
		return v1 == v2
	case insts.Funct3BNE:
		return v1 != v2
	case insts.Funct3BLT:
		return v1 < v2
	case insts.Funct3BGE:
		return v1 >= v2
	default:
		return false
	}
}
