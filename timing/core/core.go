// Package core provides the timing core model.
// It observes a functional emulator and charges cycles per completed step.
package core

import (
	"context"
	"sync"

	"github.com/sarchlab/rvstep/emu"
	"github.com/sarchlab/rvstep/timing/cache"
	"github.com/sarchlab/rvstep/timing/latency"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles charged.
	Cycles uint64 `json:"cycles"`
	// Instructions is the number of steps completed.
	Instructions uint64 `json:"instructions"`
	Loads        uint64 `json:"loads"`
	Stores       uint64 `json:"stores"`
	// Branches counts conditional branches and jumps.
	Branches     uint64 `json:"branches"`
	DCacheHits   uint64 `json:"dcache_hits"`
	DCacheMisses uint64 `json:"dcache_misses"`
}

// CPI returns cycles per instruction, or 0 before the first instruction.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Core charges cycles for the steps of an emulator.
// It never changes functional state: registers, memory and the counter are
// owned by the emulator.
type Core struct {
	emulator *emu.Emulator
	latency  *latency.Table
	dcache   *cache.Cache

	dcacheConfig *cache.Config

	mu     sync.Mutex
	stats  Stats
	halted bool
}

// CoreOption is a functional option for configuring the Core.
type CoreOption func(*Core)

// WithLatencyTable sets the latency table used to charge cycles.
func WithLatencyTable(table *latency.Table) CoreOption {
	return func(c *Core) {
		c.latency = table
	}
}

// WithDCache puts a data cache with the given configuration in front of the
// emulator's data memory. Loads and stores are then charged the cache access
// latency instead of the table latency.
func WithDCache(config cache.Config) CoreOption {
	return func(c *Core) {
		c.dcacheConfig = &config
	}
}

// NewCore creates a Core and registers it as an observer of e.
func NewCore(e *emu.Emulator, opts ...CoreOption) *Core {
	c := &Core{
		emulator: e,
		latency:  latency.NewTable(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.dcacheConfig != nil {
		c.dcache = cache.New(*c.dcacheConfig, cache.NewReadOnlyBacking(e.Memory()))
	}

	e.AddObserver(c)

	return c
}

// Emulator returns the observed emulator.
func (c *Core) Emulator() *emu.Emulator {
	return c.emulator
}

// DCache returns the data cache, or nil when none is configured.
func (c *Core) DCache() *cache.Cache {
	return c.dcache
}

// OnStep implements emu.Observer.
func (c *Core) OnStep(s emu.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inst := s.Inst
	cycles := c.latency.GetLatency(&inst)

	switch s.Access.Kind {
	case emu.AccessLoad:
		c.stats.Loads++
		if c.dcache != nil {
			cycles = c.chargeCache(c.dcache.Read(s.Access.Addr))
		}
	case emu.AccessStore:
		c.stats.Stores++
		if c.dcache != nil {
			cycles = c.chargeCache(c.dcache.Write(s.Access.Addr, s.Access.Value))
		}
	}

	if c.latency.IsBranchOp(&inst) {
		c.stats.Branches++
	}

	c.stats.Cycles += cycles
	c.stats.Instructions++
}

func (c *Core) chargeCache(r cache.AccessResult) uint64 {
	if r.Hit {
		c.stats.DCacheHits++
	} else {
		c.stats.DCacheMisses++
	}
	return r.Latency
}

// OnHalt implements emu.Observer.
func (c *Core) OnHalt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.halted = true
}

// Tick executes one step of the emulator.
func (c *Core) Tick() emu.StepResult {
	return c.emulator.Step()
}

// Halted returns true once the emulator has reported halting.
func (c *Core) Halted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.halted
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Run steps the emulator without delay until it halts or faults.
func (c *Core) Run() (Stats, error) {
	_, err := c.emulator.RunToHalt()
	return c.Stats(), err
}

// RunPaced auto-runs the emulator at rate steps per second.
func (c *Core) RunPaced(ctx context.Context, rate float64) (Stats, error) {
	err := c.emulator.Run(ctx, rate)
	return c.Stats(), err
}

// RunCycles steps until at least cycles more cycles have been charged.
// Returns true if still running, false if halted or faulted.
func (c *Core) RunCycles(cycles uint64) bool {
	target := c.Stats().Cycles + cycles
	for c.Stats().Cycles < target {
		result := c.Tick()
		if result.Halted || result.Err != nil {
			return false
		}
	}
	return true
}

// Reset clears statistics and the data cache. The emulator is left alone.
func (c *Core) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats = Stats{}
	c.halted = false
	if c.dcache != nil {
		c.dcache.Reset()
	}
}
