package emu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvstep/emu"
	"github.com/sarchlab/rvstep/insts"
)

// recorder collects notifications in order.
type recorder struct {
	steps []emu.Snapshot
	halts int
}

func (r *recorder) OnStep(s emu.Snapshot) { r.steps = append(r.steps, s) }
func (r *recorder) OnHalt()               { r.halts++ }

var demoProgram = []uint32{
	0x00500093, 0x001080b3, 0x40108133, 0x0020c233,
	0x0020a2b3, 0x0020e333, 0x002090b3, 0x00109133,
	0x401091b3, 0x12345037, 0x6789a017, 0x008006ef,
	0x00408067, 0x00410063, 0x00414063, 0x00418063,
	0x0041c063, 0x0041e063, 0x0041f063, 0x0080a103,
	0x0080af23,
}

var _ = Describe("Emulator", func() {
	var (
		e   *emu.Emulator
		rec *recorder
	)

	BeforeEach(func() {
		rec = &recorder{}
		e = emu.NewEmulator(emu.WithObserver(rec))
	})

	Describe("NewEmulator", func() {
		It("should start running at PC 0 with zeroed state", func() {
			Expect(e.PC()).To(Equal(uint32(0)))
			Expect(e.Halted()).To(BeFalse())
			Expect(e.RegFile().X).To(Equal([32]int32{}))
			Expect(e.Memory().Size()).To(Equal(emu.DefaultMemorySize))
		})

		It("should honour WithMemorySize", func() {
			e = emu.NewEmulator(emu.WithMemorySize(16))
			Expect(e.Memory().Size()).To(Equal(16))
		})
	})

	Describe("Step", func() {
		It("should execute op-imm x1, x0, 5", func() {
			e.LoadProgram([]uint32{0x00500093})

			result := e.Step()

			Expect(result.Err).NotTo(HaveOccurred())
			Expect(result.Halted).To(BeFalse())
			Expect(e.RegFile().X[1]).To(Equal(int32(5)))
			Expect(e.PC()).To(Equal(uint32(4)))
		})

		It("should publish the step to observers before advancing", func() {
			e.LoadProgram([]uint32{0x00500093})

			result := e.Step()

			Expect(rec.steps).To(HaveLen(1))
			snap := rec.steps[0]
			Expect(snap).To(Equal(result.Snapshot))
			Expect(snap.PC).To(Equal(uint32(0)))
			Expect(snap.Word).To(Equal(uint32(0x00500093)))
			Expect(snap.Inst.Opcode).To(Equal(insts.OpImm))
			Expect(snap.Inst.Imm).To(Equal(int32(5)))
			Expect(snap.Registers[1]).To(Equal(int32(5)))
			Expect(snap.Written).To(Equal(1))
			Expect(snap.Count).To(Equal(uint64(1)))
			Expect(e.Snapshot()).To(Equal(snap))
		})

		It("should load through the funct3 ALU slot of the load word", func() {
			// funct3=2 makes the address x1 < 8, i.e. 1 for x1 = 0.
			Expect(e.Memory().Write(1, 77)).To(Succeed())
			Expect(e.Memory().Write(8, 99)).To(Succeed())
			e.LoadProgram([]uint32{0x0080a103})

			result := e.Step()

			Expect(result.Err).NotTo(HaveOccurred())
			Expect(result.Snapshot.Inst.Opcode).To(Equal(insts.OpLoad))
			Expect(result.Snapshot.Inst.Imm).To(Equal(int32(8)))
			Expect(result.Snapshot.Access).To(Equal(emu.MemAccess{
				Kind: emu.AccessLoad, Addr: 1, Value: 77,
			}))
			Expect(e.RegFile().X[2]).To(Equal(int32(77)))
		})

		It("should load through the add slot", func() {
			Expect(e.Memory().Write(8, 99)).To(Succeed())
			e.LoadProgram([]uint32{insts.EncodeI(insts.OpLoad, 2, 0, 1, 8)})

			e.Step()

			Expect(e.RegFile().X[2]).To(Equal(int32(99)))
		})

		It("should store x[rs2] and leave every register alone", func() {
			e.RegFile().X[1] = 5
			e.RegFile().X[2] = 1234
			// The I layout gives the store an immediate of rs2 = 2: address 5+2.
			word := insts.EncodeS(0x0, 1, 2, 0)
			e.LoadProgram([]uint32{word})

			result := e.Step()

			Expect(result.Err).NotTo(HaveOccurred())
			Expect(e.Memory().Read(7)).To(Equal(int32(1234)))
			Expect(result.Snapshot.Written).To(Equal(emu.NoRegister))
			Expect(result.Snapshot.Access.Kind).To(Equal(emu.AccessStore))
			Expect(e.RegFile().X[0]).To(Equal(int32(0)))
			Expect(e.RegFile().X[1]).To(Equal(int32(5)))
			Expect(e.RegFile().X[2]).To(Equal(int32(1234)))
		})

		It("should read back a stored value from the same address", func() {
			e.RegFile().X[1] = 40
			e.RegFile().X[3] = -77
			e.LoadProgram([]uint32{
				insts.EncodeS(0x0, 1, 3, 0),             // mem[40+3] = x3
				insts.EncodeI(insts.OpLoad, 4, 0, 1, 3), // x4 = mem[40+3]
			})

			Expect(e.Step().Err).NotTo(HaveOccurred())
			Expect(e.Step().Err).NotTo(HaveOccurred())

			Expect(e.RegFile().X[4]).To(Equal(int32(-77)))
		})

		It("should write the branch offset when beq holds, yet advance by 4", func() {
			e.RegFile().X[1] = 9
			e.RegFile().X[2] = 9
			// rd shares bits with imm[4:1|11], so rd is 0 here.
			e.LoadProgram([]uint32{insts.EncodeB(insts.Funct3BEQ, 1, 2, 64)})

			result := e.Step()

			Expect(result.Err).NotTo(HaveOccurred())
			rd := result.Snapshot.Inst.Rd
			Expect(e.RegFile().X[rd]).To(Equal(int32(64)))
			Expect(e.PC()).To(Equal(uint32(4)))
		})

		It("should produce the return address for jal without jumping", func() {
			e.LoadProgram([]uint32{0x00000013, insts.EncodeJ(5, 256)})

			e.Step()
			e.Step()

			Expect(e.RegFile().X[5]).To(Equal(int32(8)))
			Expect(e.PC()).To(Equal(uint32(8)))
		})

		It("should clear bit 0 for jalr", func() {
			e.RegFile().X[1] = 0x101
			e.LoadProgram([]uint32{insts.EncodeI(insts.OpJALR, 6, 0, 1, 0)})

			e.Step()

			Expect(e.RegFile().X[6]).To(Equal(int32(0x100)))
		})

		It("should add the counter for auipc", func() {
			e.LoadProgram([]uint32{0x00000013, 0x00000013, insts.EncodeU(insts.OpAUIPC, 7, 0x1000)})

			e.Step()
			e.Step()
			e.Step()

			Expect(e.RegFile().X[7]).To(Equal(int32(0x1008)))
		})

		It("should write x0 like any other register", func() {
			e.LoadProgram([]uint32{0x12345037})

			e.Step()

			Expect(e.RegFile().X[0]).To(Equal(int32(0x12345000)))
		})

		It("should write zero for system and unknown opcodes", func() {
			e.RegFile().X[3] = 42
			e.RegFile().X[4] = 42
			e.LoadProgram([]uint32{
				insts.EncodeI(insts.OpSystem, 3, 0, 0, 0),
				insts.EncodeR(insts.Opcode(0x7F), 4, 0, 0, 0, 0),
			})

			Expect(e.Step().Err).NotTo(HaveOccurred())
			Expect(e.Step().Err).NotTo(HaveOccurred())

			Expect(e.RegFile().X[3]).To(Equal(int32(0)))
			Expect(e.RegFile().X[4]).To(Equal(int32(0)))
		})

		It("should advance by exactly 4 for every opcode class", func() {
			e.LoadProgram(demoProgram)

			for i := range demoProgram {
				Expect(e.PC()).To(Equal(uint32(4 * i)))
				result := e.Step()
				Expect(result.Err).NotTo(HaveOccurred())
				Expect(result.Snapshot.PC).To(Equal(uint32(4 * i)))
			}
			Expect(e.PC()).To(Equal(uint32(4 * len(demoProgram))))
		})
	})

	Describe("Halting", func() {
		It("should halt on an empty image without mutating state", func() {
			result := e.Step()

			Expect(result.Halted).To(BeTrue())
			Expect(result.Err).NotTo(HaveOccurred())
			Expect(e.Halted()).To(BeTrue())
			Expect(e.PC()).To(Equal(uint32(0)))
			Expect(e.RegFile().X).To(Equal([32]int32{}))
			Expect(e.Memory().Words()).To(Equal(make([]int32, emu.DefaultMemorySize)))
			Expect(rec.steps).To(BeEmpty())
		})

		It("should notify completion once", func() {
			e.LoadProgram([]uint32{0x00500093})

			e.Step()
			Expect(e.Step().Halted).To(BeTrue())
			Expect(e.Step().Halted).To(BeTrue())

			Expect(rec.halts).To(Equal(1))
			Expect(e.InstructionCount()).To(Equal(uint64(1)))
		})

		It("should keep registers, memory and the counter across LoadProgram", func() {
			e.LoadProgram([]uint32{0x00500093})
			e.Step()
			Expect(e.Step().Halted).To(BeTrue())

			e.LoadProgram([]uint32{0x00000013, insts.EncodeI(insts.OpImm, 2, 0, 1, 1)})

			Expect(e.Halted()).To(BeFalse())
			Expect(e.PC()).To(Equal(uint32(4)))
			result := e.Step()
			Expect(result.Err).NotTo(HaveOccurred())
			Expect(result.Snapshot.PC).To(Equal(uint32(4)))
			Expect(e.RegFile().X[2]).To(Equal(int32(6)))
		})
	})

	Describe("Faults", func() {
		It("should report an out-of-range load as a memory fault", func() {
			e.RegFile().X[1] = emu.DefaultMemorySize
			e.LoadProgram([]uint32{insts.EncodeI(insts.OpLoad, 2, 0, 1, 0)})

			result := e.Step()

			Expect(result.Err).To(HaveOccurred())
			Expect(errors.Is(result.Err, emu.ErrMemoryIndex)).To(BeTrue())
			fault, ok := emu.IsFault(result.Err)
			Expect(ok).To(BeTrue())
			Expect(fault.Stage).To(Equal(emu.StageMemory))
			Expect(fault.PC).To(Equal(uint32(0)))
			Expect(fault.Index).To(Equal(int64(emu.DefaultMemorySize)))
		})

		It("should leave state untouched after a faulting store", func() {
			e.RegFile().X[1] = -3
			e.RegFile().X[2] = 55
			e.LoadProgram([]uint32{insts.EncodeS(0x0, 1, 2, 0)})

			result := e.Step()

			Expect(errors.Is(result.Err, emu.ErrMemoryIndex)).To(BeTrue())
			Expect(e.PC()).To(Equal(uint32(0)))
			Expect(e.InstructionCount()).To(BeZero())
			Expect(rec.steps).To(BeEmpty())
			Expect(e.Memory().Words()).To(Equal(make([]int32, emu.DefaultMemorySize)))
		})
	})

	Describe("WithMaxInstructions", func() {
		It("should stop after the limit", func() {
			e = emu.NewEmulator(emu.WithMaxInstructions(2))
			e.LoadProgram(demoProgram)

			steps, err := e.RunToHalt()

			Expect(steps).To(Equal(uint64(2)))
			Expect(err).To(MatchError(emu.ErrMaxInstructions))
		})
	})

	Describe("Demo program", func() {
		It("should run to completion with the expected register file", func() {
			e.LoadProgram(demoProgram)

			steps, err := e.RunToHalt()

			Expect(err).NotTo(HaveOccurred())
			Expect(steps).To(Equal(uint64(len(demoProgram))))
			Expect(e.Halted()).To(BeTrue())
			Expect(e.PC()).To(Equal(uint32(84)))

			regs := e.RegFile().X
			Expect(regs[0]).To(Equal(int32(0)))
			Expect(regs[1]).To(Equal(int32(20)))
			Expect(regs[2]).To(Equal(int32(0)))
			Expect(regs[3]).To(Equal(int32(40)))
			Expect(regs[4]).To(Equal(int32(5)))
			Expect(regs[5]).To(Equal(int32(0)))
			Expect(regs[6]).To(Equal(int32(5)))
			Expect(regs[13]).To(Equal(int32(48)))
			Expect(rec.halts).To(Equal(1))
		})

		It("should publish the intermediate auipc and jalr values", func() {
			e.LoadProgram(demoProgram)
			_, err := e.RunToHalt()
			Expect(err).NotTo(HaveOccurred())

			Expect(rec.steps[10].Registers[0]).To(Equal(int32(0x6789a028)))
			Expect(rec.steps[12].Registers[0]).To(Equal(int32(20)))
			Expect(rec.steps[20].Written).To(Equal(emu.NoRegister))
		})
	})
})
