// Package emu provides functional RV32 instruction stepping.
package emu

import "fmt"

// NumRegisters is the number of general-purpose registers.
const NumRegisters = 32

// RegFile represents the register file: 32 signed 32-bit cells.
// Every cell is writable, including x0.
type RegFile struct {
	// X holds registers x0-x31.
	X [NumRegisters]int32
}

// ReadReg reads a register value.
func (r *RegFile) ReadReg(reg uint8) (int32, error) {
	if int(reg) >= NumRegisters {
		return 0, fmt.Errorf("%w: x%d", ErrRegisterIndex, reg)
	}
	return r.X[reg], nil
}

// WriteReg writes a value to a register.
func (r *RegFile) WriteReg(reg uint8, value int32) error {
	if int(reg) >= NumRegisters {
		return fmt.Errorf("%w: x%d", ErrRegisterIndex, reg)
	}
	r.X[reg] = value
	return nil
}

// readPair reads two source registers at once.
func (r *RegFile) readPair(rs1, rs2 uint8) (int32, int32, error) {
	a, err := r.ReadReg(rs1)
	if err != nil {
		return 0, 0, err
	}
	b, err := r.ReadReg(rs2)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
