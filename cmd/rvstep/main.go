// Package main provides the rvstep command line front end.
// It loads a program, steps it through the emulator and renders every step.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/sarchlab/rvstep/benchmarks"
	"github.com/sarchlab/rvstep/emu"
	"github.com/sarchlab/rvstep/loader"
	"github.com/sarchlab/rvstep/timing/cache"
	"github.com/sarchlab/rvstep/timing/core"
	"github.com/sarchlab/rvstep/timing/latency"
)

var (
	rate       = flag.String("rate", "", "Auto-run speed in steps per second")
	steps      = flag.Int("steps", 0, "Single-step this many instructions, then stop")
	timing     = flag.Bool("timing", false, "Enable timing statistics")
	configPath = flag.String("config", "", "Path to timing configuration JSON file")
	dcache     = flag.Bool("dcache", false, "Model a data cache (implies -timing)")
	memWords   = flag.Int("mem", emu.DefaultMemorySize, "Data memory size in words")
	jsonOut    = flag.Bool("json", false, "Print the timing report as JSON")
	quiet      = flag.Bool("q", false, "Do not render steps")
	verbose    = flag.Bool("v", false, "Verbose output")
)

// options is the parsed command line.
type options struct {
	program     string
	rate        string
	steps       int
	timing      bool
	configPath  string
	dcache      bool
	memWords    int
	jsonOut     bool
	quiet       bool
	interactive bool
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: rvstep [options] [program.elf|program.hex]\n")
		fmt.Fprintf(os.Stderr, "\nWithout a program the built-in demo is used.\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logrus.SetOutput(os.Stderr)
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	opts := options{
		program:     flag.Arg(0),
		rate:        *rate,
		steps:       *steps,
		timing:      *timing || *dcache,
		configPath:  *configPath,
		dcache:      *dcache,
		memWords:    *memWords,
		jsonOut:     *jsonOut,
		quiet:       *quiet,
		interactive: *rate != "" && term.IsTerminal(int(os.Stdout.Fd())),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdout, logrus.StandardLogger()); err != nil {
		logrus.WithError(err).Error("rvstep failed")
		os.Exit(1)
	}
}

// run loads the program, wires the display and timing core and drives the
// emulator in the mode selected by opts.
func run(ctx context.Context, opts options, out io.Writer, logger *logrus.Logger) error {
	words, name, err := loadWords(opts.program, logger)
	if err != nil {
		return err
	}

	emuOpts := []emu.EmulatorOption{
		emu.WithMemorySize(opts.memWords),
		emu.WithLogger(logger),
	}
	if !opts.quiet {
		emuOpts = append(emuOpts, emu.WithObserver(NewDisplay(out, opts.interactive)))
	}
	e := emu.NewEmulator(emuOpts...)
	e.LoadProgram(words)

	var c *core.Core
	if opts.timing {
		c, err = newCore(e, opts)
		if err != nil {
			return err
		}
	}

	if err := drive(ctx, e, opts, logger); err != nil {
		return err
	}

	if c == nil {
		return nil
	}

	report := NewTimingReport(name, c)
	if opts.jsonOut {
		return report.WriteJSON(out)
	}
	report.WriteText(out, newPrinter())
	return nil
}

// loadWords returns the program image at path, or the built-in demo when
// path is empty.
func loadWords(path string, logger *logrus.Logger) ([]uint32, string, error) {
	if path == "" {
		return benchmarks.DemoProgram(), "demo", nil
	}

	prog, err := loader.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("loading program: %w", err)
	}

	fields := logrus.Fields{
		"path":  path,
		"words": len(prog.Words),
	}
	if len(prog.Segments) > 0 {
		fields["entry"] = fmt.Sprintf("0x%X", prog.EntryPoint)
		fields["segments"] = len(prog.Segments)
	}
	logger.WithFields(fields).Debug("loaded program")

	if off := prog.EntryOffset(); off != 0 {
		logger.WithField("offset", off).Warn("entry point is not the first word; execution starts at the first word")
	}

	return prog.Words, path, nil
}

func newCore(e *emu.Emulator, opts options) (*core.Core, error) {
	timingConfig := latency.DefaultTimingConfig()
	if opts.configPath != "" {
		var err error
		timingConfig, err = latency.LoadConfig(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("loading timing config: %w", err)
		}
	}

	coreOpts := []core.CoreOption{
		core.WithLatencyTable(latency.NewTableWithConfig(timingConfig)),
	}
	if opts.dcache {
		coreOpts = append(coreOpts, core.WithDCache(cache.DefaultL1DConfig()))
	}

	return core.NewCore(e, coreOpts...), nil
}

// drive steps the emulator. With -steps it single-steps; with -rate it
// auto-runs at that pace; otherwise it runs to completion without delay.
func drive(ctx context.Context, e *emu.Emulator, opts options, logger *logrus.Logger) error {
	switch {
	case opts.steps > 0:
		for i := 0; i < opts.steps; i++ {
			result := e.Step()
			if result.Err != nil {
				return result.Err
			}
			if result.Halted {
				return nil
			}
		}
		return nil

	case opts.rate != "":
		r := emu.ParseRate(opts.rate)
		if r == 0 {
			logger.WithField("rate", opts.rate).Warn("rate is not a positive number; nothing to run")
			return nil
		}
		return e.Run(ctx, r)

	default:
		_, err := e.RunToHalt()
		return err
	}
}
