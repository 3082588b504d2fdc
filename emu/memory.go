// Package emu provides functional RV32 instruction stepping.
package emu

import "fmt"

// DefaultMemorySize is the data memory capacity in words.
const DefaultMemorySize = 1024

// Memory is a word-indexed data memory. An address is used directly as the
// cell index: it is neither scaled nor masked.
type Memory struct {
	words []int32
}

// NewMemory creates a zeroed data memory holding size words.
func NewMemory(size int) *Memory {
	if size < 0 {
		size = 0
	}
	return &Memory{words: make([]int32, size)}
}

// Size returns the capacity in words.
func (m *Memory) Size() int {
	return len(m.words)
}

// Read returns the word at addr.
func (m *Memory) Read(addr int32) (int32, error) {
	if err := m.check(addr); err != nil {
		return 0, err
	}
	return m.words[addr], nil
}

// Write stores value at addr.
func (m *Memory) Write(addr, value int32) error {
	if err := m.check(addr); err != nil {
		return err
	}
	m.words[addr] = value
	return nil
}

// Words returns a copy of the memory contents.
func (m *Memory) Words() []int32 {
	out := make([]int32, len(m.words))
	copy(out, m.words)
	return out
}

func (m *Memory) check(addr int32) error {
	if addr < 0 || int(addr) >= len(m.words) {
		return fmt.Errorf("%w: address %d outside [0, %d)", ErrMemoryIndex, addr, len(m.words))
	}
	return nil
}
