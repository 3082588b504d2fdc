// Package main validates that attaching the timing core leaves functional
// results untouched. Every microbenchmark runs on a bare emulator and again
// under a timing core with the data cache enabled; registers, memory, the
// counter and the retired instruction count must match exactly.
package main

import (
	"fmt"
	"os"

	"github.com/sarchlab/rvstep/benchmarks"
	"github.com/sarchlab/rvstep/emu"
	"github.com/sarchlab/rvstep/insts"
	"github.com/sarchlab/rvstep/timing/cache"
	"github.com/sarchlab/rvstep/timing/core"
)

type finalState struct {
	regs  [emu.NumRegisters]int32
	mem   []int32
	pc    uint32
	count uint64
}

func capture(e *emu.Emulator) finalState {
	return finalState{
		regs:  e.RegFile().X,
		mem:   e.Memory().Words(),
		pc:    e.PC(),
		count: e.InstructionCount(),
	}
}

func prepare(b benchmarks.Benchmark) *emu.Emulator {
	e := emu.NewEmulator()
	if b.Setup != nil {
		b.Setup(e.RegFile(), e.Memory())
	}
	e.LoadProgram(b.Program)
	return e
}

func runBare(b benchmarks.Benchmark) (finalState, error) {
	e := prepare(b)
	_, err := e.RunToHalt()
	return capture(e), err
}

func runTimed(b benchmarks.Benchmark) (finalState, core.Stats, error) {
	e := prepare(b)
	c := core.NewCore(e, core.WithDCache(cache.DefaultL1DConfig()))
	stats, err := c.Run()
	return capture(e), stats, err
}

func compare(a, b finalState) error {
	if a.pc != b.pc {
		return fmt.Errorf("pc 0x%08x vs 0x%08x", a.pc, b.pc)
	}
	if a.count != b.count {
		return fmt.Errorf("instruction count %d vs %d", a.count, b.count)
	}
	for i := range a.regs {
		if a.regs[i] != b.regs[i] {
			return fmt.Errorf("x%d = %d vs %d", i, a.regs[i], b.regs[i])
		}
	}
	for i := range a.mem {
		if a.mem[i] != b.mem[i] {
			return fmt.Errorf("mem[%d] = %d vs %d", i, a.mem[i], b.mem[i])
		}
	}
	return nil
}

// testTimingNeutrality runs every microbenchmark with and without the core.
func testTimingNeutrality() bool {
	fmt.Println("Testing timing core neutrality...")

	passed := true
	for _, b := range benchmarks.GetMicrobenchmarks() {
		bare, errBare := runBare(b)
		timed, stats, errTimed := runTimed(b)

		if (errBare == nil) != (errTimed == nil) {
			fmt.Printf("FAIL %s: error mismatch (%v vs %v)\n", b.Name, errBare, errTimed)
			passed = false
			continue
		}
		if err := compare(bare, timed); err != nil {
			fmt.Printf("FAIL %s: %v\n", b.Name, err)
			passed = false
			continue
		}

		fmt.Printf("ok   %s: %d instructions, %d cycles\n",
			b.Name, timed.count, stats.Cycles)
	}

	return passed
}

// testDecodeInto checks that the reusing decode path matches Decode on every
// word of every microbenchmark.
func testDecodeInto() bool {
	fmt.Println("\nTesting DecodeInto against Decode...")

	decoder := insts.NewDecoder()
	var inst insts.Instruction
	for _, b := range benchmarks.GetMicrobenchmarks() {
		for i, word := range b.Program {
			decoder.DecodeInto(word, &inst)
			if inst != *decoder.Decode(word) {
				fmt.Printf("FAIL %s[%d]: 0x%08X decoded differently\n", b.Name, i, word)
				return false
			}
		}
	}

	fmt.Println("ok   all program words decode identically")
	return true
}

func main() {
	fmt.Println("rvstep accuracy validation")
	fmt.Println("==========================")

	allPassed := true
	if !testTimingNeutrality() {
		allPassed = false
	}
	if !testDecodeInto() {
		allPassed = false
	}

	fmt.Println()
	if !allPassed {
		fmt.Println("ACCURACY CHECKS FAILED")
		os.Exit(1)
	}
	fmt.Println("ALL ACCURACY CHECKS PASSED")
}
