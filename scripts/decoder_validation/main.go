// Validate decoder allocations - compares Decode against the reusing DecodeInto path.
package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/sarchlab/rvstep/benchmarks"
	"github.com/sarchlab/rvstep/insts"
)

const iterations = 100000

func measure(name string, words []uint32, decode func(word uint32)) {
	// Warm up
	for i := 0; i < 1000; i++ {
		decode(words[i%len(words)])
	}

	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	start := time.Now()
	for i := 0; i < iterations; i++ {
		for _, w := range words {
			decode(w)
		}
	}
	elapsed := time.Since(start)
	runtime.ReadMemStats(&m2)

	total := iterations * len(words)
	allocations := m2.Mallocs - m1.Mallocs
	allocatedBytes := m2.TotalAlloc - m1.TotalAlloc

	fmt.Printf("%s\n", name)
	fmt.Printf("  Total decode operations: %d\n", total)
	fmt.Printf("  Time elapsed: %v\n", elapsed)
	fmt.Printf("  Decodes per second: %.0f\n", float64(total)/elapsed.Seconds())
	fmt.Printf("  Allocations per decode: %.3f\n", float64(allocations)/float64(total))
	fmt.Printf("  Bytes per decode: %.1f\n", float64(allocatedBytes)/float64(total))
}

func main() {
	decoder := insts.NewDecoder()
	words := benchmarks.DemoProgram()

	var sink *insts.Instruction
	measure("Decode", words, func(word uint32) {
		sink = decoder.Decode(word)
	})
	_ = sink

	var inst insts.Instruction
	measure("DecodeInto", words, func(word uint32) {
		decoder.DecodeInto(word, &inst)
	})

	fmt.Printf("\nLast decoded: %s imm=%d\n", inst.Opcode, inst.Imm)
}
