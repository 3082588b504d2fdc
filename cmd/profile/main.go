// Package main provides a profiling wrapper for rvstep to identify
// performance bottlenecks in the step loop.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rvstep/benchmarks"
	"github.com/sarchlab/rvstep/emu"
	"github.com/sarchlab/rvstep/loader"
	"github.com/sarchlab/rvstep/timing/cache"
	"github.com/sarchlab/rvstep/timing/core"
)

var (
	timing      = flag.Bool("timing", false, "Attach the timing core with a data cache")
	cpuProfile  = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile  = flag.String("memprofile", "", "write memory profile to file")
	duration    = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	iterations  = flag.Int("n", 10000, "number of times to run the program")
	instruction = flag.Uint64("max-instr", 1000000, "max instructions per run (0 = unlimited)")
)

func main() {
	flag.Parse()

	words := benchmarks.DemoProgram()
	name := "demo"
	if flag.NArg() > 0 {
		name = flag.Arg(0)
		prog, err := loader.Load(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
			os.Exit(1)
		}
		words = prog.Words
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	fmt.Printf("Loaded: %s (%d words)\n", name, len(words))

	start := time.Now()
	deadline := start.Add(*duration)

	var instrCount uint64
	runs := 0
	for ; runs < *iterations && time.Now().Before(deadline); runs++ {
		n, err := runOnce(words)
		instrCount += n
		if err != nil && !errors.Is(err, emu.ErrMaxInstructions) {
			logrus.WithError(err).WithField("run", runs).Error("run faulted")
			break
		}
	}

	elapsed := time.Since(start)

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Runs: %d\n", runs)
	fmt.Printf("Instructions executed: %d\n", instrCount)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if instrCount > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(instrCount)/elapsed.Seconds())
	}
}

// runOnce runs words on a fresh emulator and returns the completed steps.
func runOnce(words []uint32) (uint64, error) {
	e := emu.NewEmulator(emu.WithMaxInstructions(*instruction))
	e.LoadProgram(words)

	if *timing {
		c := core.NewCore(e, core.WithDCache(cache.DefaultL1DConfig()))
		stats, err := c.Run()
		return stats.Instructions, err
	}

	return e.RunToHalt()
}
