package insts

// Field encoders build instruction words from their fields. They mask every
// field to its width, so out-of-range arguments wrap instead of bleeding into
// neighbouring fields.

// EncodeR encodes a register-register instruction.
func EncodeR(op Opcode, rd, funct3, rs1, rs2, funct7 uint8) uint32 {
	return uint32(funct7&0x7F)<<25 |
		uint32(rs2&0x1F)<<20 |
		uint32(rs1&0x1F)<<15 |
		uint32(funct3&0x7)<<12 |
		uint32(rd&0x1F)<<7 |
		uint32(op&0x7F)
}

// EncodeI encodes a register-immediate instruction with a 12-bit immediate.
func EncodeI(op Opcode, rd, funct3, rs1 uint8, imm int32) uint32 {
	return (uint32(imm)&0xFFF)<<20 |
		uint32(rs1&0x1F)<<15 |
		uint32(funct3&0x7)<<12 |
		uint32(rd&0x1F)<<7 |
		uint32(op&0x7F)
}

// EncodeS encodes a store with imm[11:5] in bits 31:25 and imm[4:0] in 11:7.
func EncodeS(funct3, rs1, rs2 uint8, imm int32) uint32 {
	u := uint32(imm)
	return ((u>>5)&0x7F)<<25 |
		uint32(rs2&0x1F)<<20 |
		uint32(rs1&0x1F)<<15 |
		uint32(funct3&0x7)<<12 |
		(u&0x1F)<<7 |
		uint32(OpStore)
}

// EncodeB encodes a conditional branch. Bit 0 of imm is dropped.
func EncodeB(funct3, rs1, rs2 uint8, imm int32) uint32 {
	u := uint32(imm)
	return ((u>>12)&0x1)<<31 |
		((u>>5)&0x3F)<<25 |
		uint32(rs2&0x1F)<<20 |
		uint32(rs1&0x1F)<<15 |
		uint32(funct3&0x7)<<12 |
		((u>>1)&0xF)<<8 |
		((u>>11)&0x1)<<7 |
		uint32(OpBranch)
}

// EncodeU encodes lui/auipc. The low 12 bits of imm are dropped.
func EncodeU(op Opcode, rd uint8, imm int32) uint32 {
	return uint32(imm)&0xFFFFF000 |
		uint32(rd&0x1F)<<7 |
		uint32(op&0x7F)
}

// EncodeJ encodes jal. Bit 0 of imm is dropped.
func EncodeJ(rd uint8, imm int32) uint32 {
	u := uint32(imm)
	return ((u>>20)&0x1)<<31 |
		((u>>1)&0x3FF)<<21 |
		((u>>11)&0x1)<<20 |
		((u>>12)&0xFF)<<12 |
		uint32(rd&0x1F)<<7 |
		uint32(OpJAL)
}
