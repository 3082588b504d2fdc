package emu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvstep/emu"
)

var _ = Describe("Memory", func() {
	var memory *emu.Memory

	BeforeEach(func() {
		memory = emu.NewMemory(8)
	})

	It("should start zeroed", func() {
		Expect(memory.Size()).To(Equal(8))
		Expect(memory.Words()).To(Equal(make([]int32, 8)))
	})

	It("should index by word without scaling", func() {
		Expect(memory.Write(3, -9)).To(Succeed())

		Expect(memory.Read(3)).To(Equal(int32(-9)))
		Expect(memory.Read(0)).To(Equal(int32(0)))
	})

	It("should reject negative and past-the-end addresses", func() {
		_, err := memory.Read(-1)
		Expect(errors.Is(err, emu.ErrMemoryIndex)).To(BeTrue())

		err = memory.Write(8, 1)
		Expect(errors.Is(err, emu.ErrMemoryIndex)).To(BeTrue())
		Expect(memory.Words()).To(Equal(make([]int32, 8)))
	})
})

var _ = Describe("RegFile", func() {
	It("should reject indices past x31", func() {
		regFile := &emu.RegFile{}

		Expect(regFile.WriteReg(31, 7)).To(Succeed())
		Expect(regFile.ReadReg(31)).To(Equal(int32(7)))

		err := regFile.WriteReg(32, 1)
		Expect(errors.Is(err, emu.ErrRegisterIndex)).To(BeTrue())
		_, err = regFile.ReadReg(200)
		Expect(errors.Is(err, emu.ErrRegisterIndex)).To(BeTrue())
	})
})

var _ = Describe("Program", func() {
	It("should map word i at address 4*i", func() {
		program := emu.NewProgram([]uint32{0xA, 0xB, 0xC})

		Expect(program.Len()).To(Equal(3))
		word, ok := program.Fetch(8)
		Expect(ok).To(BeTrue())
		Expect(word).To(Equal(uint32(0xC)))
	})

	It("should report unmapped and unaligned addresses", func() {
		program := emu.NewProgram([]uint32{0xA})

		_, ok := program.Fetch(4)
		Expect(ok).To(BeFalse())
		_, ok = program.Fetch(2)
		Expect(ok).To(BeFalse())
		_, ok = program.Fetch(0xFFFFFFFC)
		Expect(ok).To(BeFalse())
	})

	It("should not alias the caller's slice", func() {
		words := []uint32{1}
		program := emu.NewProgram(words)
		words[0] = 2

		word, _ := program.Fetch(0)
		Expect(word).To(Equal(uint32(1)))
	})
})
