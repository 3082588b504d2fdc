package benchmarks

import (
	"fmt"

	"github.com/sarchlab/rvstep/emu"
	"github.com/sarchlab/rvstep/insts"
)

var demoProgram = []uint32{
	0x00500093, // op-imm  x1, x0, 5
	0x001080b3, // op      x1, x1, x1
	0x40108133, // op      x2, x1, x1 (sub)
	0x0020c233, // op      x4, x1, x2 (xor)
	0x0020a2b3, // op      x5, x1, x2 (slt)
	0x0020e333, // op      x6, x1, x2 (or)
	0x002090b3, // op      x1, x1, x2 (sll)
	0x00109133, // op      x2, x1, x1 (sll)
	0x401091b3, // op      x3, x1, x1 (sll, funct7 set)
	0x12345037, // lui     x0, 0x12345
	0x6789a017, // auipc   x0, 0x6789a
	0x008006ef, // jal     x13, 8
	0x00408067, // jalr    x0, x1
	0x00410063, // beq     x2, x4
	0x00414063, // blt     x2, x4
	0x00418063, // beq     x3, x4
	0x0041c063, // blt     x3, x4
	0x0041e063, // funct3 6, never taken
	0x0041f063, // funct3 7, never taken
	0x0080a103, // load    x2, slt(x1, 8)
	0x0080af23, // store   x8 to slt(x1, 8)
}

// DemoProgram returns the built-in 21-word demonstration program. It touches
// every supported opcode class and halts after its last word.
func DemoProgram() []uint32 {
	out := make([]uint32, len(demoProgram))
	copy(out, demoProgram)
	return out
}

// GetMicrobenchmarks returns the standard set of microbenchmarks.
// Each benchmark targets one instruction class or memory pattern. None of
// them loop: the counter only ever moves forward by one word.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		demo(),
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		dcacheStride(),
		upperAndJumps(),
		branchCompare(),
	}
}

// GetCoreBenchmarks returns a minimal set for quick validation.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		demo(),
		memorySequential(),
		branchCompare(),
	}
}

// expectRegs checks register values after a run.
func expectRegs(want map[uint8]int32) func(*emu.RegFile, *emu.Memory) error {
	return func(regFile *emu.RegFile, _ *emu.Memory) error {
		for reg, v := range want {
			if got := regFile.X[reg]; got != v {
				return fmt.Errorf("x%d = %d, want %d", reg, got, v)
			}
		}
		return nil
	}
}

func demo() Benchmark {
	return Benchmark{
		Name:        "demo",
		Description: "Built-in demonstration program - one of every opcode class",
		Program:     DemoProgram(),
		Validate: expectRegs(map[uint8]int32{
			0: 0, 1: 20, 2: 0, 3: 40, 4: 5, 5: 0, 6: 5, 13: 48,
		}),
	}
}

func arithmeticSequential() Benchmark {
	var program []uint32
	for round := 0; round < 4; round++ {
		for reg := uint8(1); reg <= 5; reg++ {
			program = append(program, insts.EncodeI(insts.OpImm, reg, insts.Funct3AddSub, reg, 1))
		}
	}

	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "20 independent op-imm adds over 5 registers - measures ALU throughput",
		Program:     program,
		Validate:    expectRegs(map[uint8]int32{1: 4, 2: 4, 3: 4, 4: 4, 5: 4}),
	}
}

func dependencyChain() Benchmark {
	program := make([]uint32, 20)
	for i := range program {
		program[i] = insts.EncodeI(insts.OpImm, 1, insts.Funct3AddSub, 1, 1)
	}

	return Benchmark{
		Name:        "dependency_chain",
		Description: "20 dependent adds (x1 = x1 + 1)",
		Program:     program,
		Validate:    expectRegs(map[uint8]int32{1: 20}),
	}
}

// memorySequential stores x6 to words 6..13 and reads them back into
// x10..x17, counting iterations in x9. The I layout puts the store's rs2 (6)
// into the offset. Register-register adds carry a zero immediate, so the
// loaded values cannot be summed; each lands in its own register instead.
func memorySequential() Benchmark {
	var program []uint32
	for i := 0; i < 8; i++ {
		program = append(program,
			insts.EncodeS(insts.Funct3AddSub, 5, 6, 0),
			insts.EncodeI(insts.OpImm, 5, insts.Funct3AddSub, 5, 1),
		)
	}
	for i := uint8(0); i < 8; i++ {
		program = append(program,
			insts.EncodeI(insts.OpLoad, 10+i, insts.Funct3AddSub, 8, 6),
			insts.EncodeI(insts.OpImm, 9, insts.Funct3AddSub, 9, 1),
			insts.EncodeI(insts.OpImm, 8, insts.Funct3AddSub, 8, 1),
		)
	}

	return Benchmark{
		Name:        "memory_sequential",
		Description: "8 sequential stores then 8 loads of the same words",
		Setup: func(regFile *emu.RegFile, _ *emu.Memory) {
			regFile.X[6] = 42
		},
		Program: program,
		Validate: func(regFile *emu.RegFile, memory *emu.Memory) error {
			for addr := int32(6); addr < 14; addr++ {
				v, err := memory.Read(addr)
				if err != nil {
					return err
				}
				if v != 42 {
					return fmt.Errorf("mem[%d] = %d, want 42", addr, v)
				}
			}
			want := map[uint8]int32{8: 8, 9: 8}
			for reg := uint8(10); reg < 18; reg++ {
				want[reg] = 42
			}
			return expectRegs(want)(regFile, memory)
		},
	}
}

// dcacheStride loads every 16th word twice. With the default data cache the
// first pass misses on every load and the second pass hits.
func dcacheStride() Benchmark {
	var program []uint32
	for pass := 0; pass < 2; pass++ {
		program = append(program, insts.EncodeI(insts.OpImm, 2, insts.Funct3AddSub, 0, 0))
		for i := 0; i < 16; i++ {
			program = append(program,
				insts.EncodeI(insts.OpLoad, 1, insts.Funct3AddSub, 2, 0),
				insts.EncodeI(insts.OpImm, 2, insts.Funct3AddSub, 2, 16),
			)
		}
	}

	return Benchmark{
		Name:        "dcache_stride",
		Description: "Two passes of 16 loads at a 16-word stride - cold misses then hits",
		Setup: func(_ *emu.RegFile, memory *emu.Memory) {
			for addr := int32(0); addr < 256; addr += 16 {
				_ = memory.Write(addr, addr)
			}
		},
		Program:  program,
		Validate: expectRegs(map[uint8]int32{1: 240, 2: 256}),
	}
}

func upperAndJumps() Benchmark {
	return Benchmark{
		Name:        "upper_and_jumps",
		Description: "lui, auipc, jal and jalr - link values without redirection",
		Program: []uint32{
			insts.EncodeU(insts.OpLUI, 1, 0x12345000),
			insts.EncodeU(insts.OpAUIPC, 2, 0x1000),
			insts.EncodeJ(3, 8),
			insts.EncodeI(insts.OpJALR, 4, 0, 1, 0),
		},
		Validate: expectRegs(map[uint8]int32{
			1: 0x12345000, 2: 0x1004, 3: 12, 4: 0x12345000,
		}),
	}
}

// branchCompare runs each comparison once. The branch immediate doubles as
// the destination register, so a taken branch leaves rd == imm.
func branchCompare() Benchmark {
	return Benchmark{
		Name:        "branch_compare",
		Description: "beq, bne, blt, bge and an unsupported funct3",
		Setup: func(regFile *emu.RegFile, _ *emu.Memory) {
			regFile.X[1] = 3
			regFile.X[2] = 3
			regFile.X[3] = -1
			regFile.X[4] = 5
			regFile.X[18] = 7
		},
		Program: []uint32{
			insts.EncodeB(insts.Funct3BEQ, 1, 2, 16),
			insts.EncodeB(insts.Funct3BNE, 1, 2, 18),
			insts.EncodeB(insts.Funct3BLT, 3, 4, 20),
			insts.EncodeB(insts.Funct3BGE, 3, 4, 22),
			insts.EncodeB(2, 1, 2, 24),
		},
		Validate: expectRegs(map[uint8]int32{16: 16, 18: 0, 20: 20, 22: 0, 24: 0}),
	}
}
