// Package emu provides functional RV32 instruction stepping.
package emu

import "github.com/sarchlab/rvstep/insts"

// LoadStoreUnit is the memory access stage. It treats the execute result as
// a word index into data memory.
type LoadStoreUnit struct {
	regFile *RegFile
	memory  *Memory
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and memory.
func NewLoadStoreUnit(regFile *RegFile, memory *Memory) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		memory:  memory,
	}
}

// Access resolves loads and stores against data memory.
//   - load: returns mem[result]
//   - store: mem[result] = x[rs2], returns result
//   - anything else: returns result unchanged
func (lsu *LoadStoreUnit) Access(inst *insts.Instruction, result int32) (int32, MemAccess, error) {
	switch inst.Opcode {
	case insts.OpLoad:
		value, err := lsu.memory.Read(result)
		if err != nil {
			return 0, MemAccess{}, err
		}
		return value, MemAccess{Kind: AccessLoad, Addr: result, Value: value}, nil

	case insts.OpStore:
		value, err := lsu.regFile.ReadReg(inst.Rs2)
		if err != nil {
			return 0, MemAccess{}, err
		}
		if err := lsu.memory.Write(result, value); err != nil {
			return 0, MemAccess{}, err
		}
		return result, MemAccess{Kind: AccessStore, Addr: result, Value: value}, nil

	default:
		return result, MemAccess{}, nil
	}
}
