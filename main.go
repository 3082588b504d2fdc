// Package main provides the entry point for rvstep.
// rvstep is a step-by-step RV32 instruction emulator with an optional
// timing model built on Akita cache components.
//
// For the full CLI, use: go run ./cmd/rvstep
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("rvstep - RV32 Step Emulator")
	fmt.Println("Timing model built on Akita cache components")
	fmt.Println("")
	fmt.Println("Usage: rvstep [options] [program.elf|program.hex]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -rate      Auto-run speed in steps per second")
	fmt.Println("  -steps     Single-step this many instructions")
	fmt.Println("  -timing    Enable timing statistics")
	fmt.Println("  -config    Path to timing configuration JSON file")
	fmt.Println("  -dcache    Model a data cache")
	fmt.Println("  -json      Print the timing report as JSON")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/rvstep' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/rvstep' instead.")
	}
}
