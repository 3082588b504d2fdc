// Package insts provides RV32 instruction definitions and decoding.
//
// This package implements decoding of 32-bit RISC-V machine words into
// structured instruction records. Every word decodes: the fixed field
// positions (opcode, rd, funct3, rs1, rs2, funct7) are always extracted, and
// the immediate is reassembled according to one of four layouts:
//   - U-type: lui, auipc
//   - J-type: jal
//   - B-type: branch
//   - I-type: load, store, op-imm
//
// Any other opcode carries a zero immediate.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x00500093) // op-imm x1, x0, 5
//	fmt.Printf("Op: %v, Rd: %d, Rs1: %d, Imm: %d\n", inst.Opcode, inst.Rd, inst.Rs1, inst.Imm)
package insts
