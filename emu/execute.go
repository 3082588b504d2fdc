package emu

import "github.com/sarchlab/rvstep/insts"

// ExecuteUnit dispatches a decoded instruction to the unit that computes its
// result value.
type ExecuteUnit struct {
	regFile    *RegFile
	alu        *ALU
	branchUnit *BranchUnit
}

// NewExecuteUnit creates an ExecuteUnit with its own ALU and BranchUnit.
func NewExecuteUnit(regFile *RegFile) *ExecuteUnit {
	return &ExecuteUnit{
		regFile:    regFile,
		alu:        NewALU(regFile),
		branchUnit: NewBranchUnit(regFile),
	}
}

// Execute computes the result for inst fetched at pc. Jumps and branches
// produce values only; the caller's counter is unaffected. Opcodes without
// semantics here (system and anything unrecognized) produce 0.
func (x *ExecuteUnit) Execute(inst *insts.Instruction, pc uint32) (int32, error) {
	switch inst.Opcode {
	case insts.OpLUI:
		return inst.Imm, nil
	case insts.OpAUIPC:
		return int32(pc) + inst.Imm, nil
	case insts.OpJAL:
		return int32(pc) + 4, nil
	case insts.OpJALR:
		base, err := x.regFile.ReadReg(inst.Rs1)
		if err != nil {
			return 0, err
		}
		return (base + inst.Imm) &^ 1, nil
	case insts.OpBranch:
		return x.branchUnit.Compare(inst)
	case insts.OpLoad, insts.OpStore, insts.OpImm, insts.OpReg:
		return x.alu.Compute(inst)
	default:
		return 0, nil
	}
}
