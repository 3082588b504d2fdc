package cache

import (
	"github.com/sarchlab/rvstep/emu"
)

// MemoryBacking adapts emu.Memory to a BackingStore. Cells outside the
// memory read as zero and drop writes.
type MemoryBacking struct {
	memory   *emu.Memory
	readOnly bool
}

// NewMemoryBacking creates a backing that writes evicted lines to memory.
func NewMemoryBacking(memory *emu.Memory) *MemoryBacking {
	return &MemoryBacking{memory: memory}
}

// NewReadOnlyBacking creates a backing that fills lines from memory but
// discards writebacks. Use it when the emulator has already committed every
// store and the cache only supplies timing.
func NewReadOnlyBacking(memory *emu.Memory) *MemoryBacking {
	return &MemoryBacking{memory: memory, readOnly: true}
}

// ReadBlock fetches n words starting at addr.
func (m *MemoryBacking) ReadBlock(addr int32, n int) []int32 {
	words := make([]int32, n)
	for i := range words {
		v, err := m.memory.Read(addr + int32(i))
		if err == nil {
			words[i] = v
		}
	}
	return words
}

// WriteBlock stores words starting at addr.
func (m *MemoryBacking) WriteBlock(addr int32, words []int32) {
	if m.readOnly {
		return
	}
	for i, v := range words {
		_ = m.memory.Write(addr+int32(i), v)
	}
}
