// Package insts provides RV32 instruction definitions and decoding.
package insts

import "fmt"

// Opcode is the 7-bit major opcode in bits [6:0] of an instruction word.
type Opcode uint8

// RV32 major opcodes understood by the decoder.
const (
	OpLoad   Opcode = 0x03 // Loads (I-type)
	OpImm    Opcode = 0x13 // Register-immediate ALU (I-type)
	OpAUIPC  Opcode = 0x17 // Add upper immediate to PC (U-type)
	OpStore  Opcode = 0x23 // Stores (S-type)
	OpReg    Opcode = 0x33 // Register-register ALU (R-type)
	OpLUI    Opcode = 0x37 // Load upper immediate (U-type)
	OpBranch Opcode = 0x63 // Conditional branches (B-type)
	OpJALR   Opcode = 0x67 // Jump and link register (I-type)
	OpJAL    Opcode = 0x6F // Jump and link (J-type)
	OpSystem Opcode = 0x73 // ecall/ebreak/csr (I-type)
)

// String returns the assembler class name of the opcode.
func (o Opcode) String() string {
	switch o {
	case OpLoad:
		return "load"
	case OpImm:
		return "op-imm"
	case OpAUIPC:
		return "auipc"
	case OpStore:
		return "store"
	case OpReg:
		return "op"
	case OpLUI:
		return "lui"
	case OpBranch:
		return "branch"
	case OpJALR:
		return "jalr"
	case OpJAL:
		return "jal"
	case OpSystem:
		return "system"
	default:
		return fmt.Sprintf("opcode(0x%02x)", uint8(o))
	}
}

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR              // Register-register
	FormatI              // Register-immediate, loads, jalr, system
	FormatS              // Stores
	FormatB              // Conditional branches
	FormatU              // Upper immediate
	FormatJ              // Jump and link
)

// Branch comparison selectors carried in funct3.
const (
	Funct3BEQ uint8 = 0x0
	Funct3BNE uint8 = 0x1
	Funct3BLT uint8 = 0x4
	Funct3BGE uint8 = 0x5
)

// ALU operation selectors carried in funct3.
const (
	Funct3AddSub uint8 = 0x0
	Funct3SLL    uint8 = 0x1
	Funct3SLT    uint8 = 0x2
	Funct3XOR    uint8 = 0x4
	Funct3SRLSRA uint8 = 0x5
	Funct3OR     uint8 = 0x6
	Funct3AND    uint8 = 0x7
)

// Instruction represents a decoded RV32 instruction word.
type Instruction struct {
	Word   uint32 // Raw instruction word
	Opcode Opcode // Bits [6:0]
	Format Format // Encoding format implied by the opcode

	Rd     uint8 // Bits [11:7]
	Funct3 uint8 // Bits [14:12]
	Rs1    uint8 // Bits [19:15]
	Rs2    uint8 // Bits [24:20]
	Funct7 uint8 // Bits [31:25]

	// Imm is the reassembled immediate. J-type and B-type immediates are
	// not sign-extended past their top bit.
	Imm int32
}

// String renders the decoded fields in a compact one-line form.
func (i Instruction) String() string {
	return fmt.Sprintf("%v rd=x%d rs1=x%d rs2=x%d funct3=%d funct7=0x%02x imm=%d",
		i.Opcode, i.Rd, i.Rs1, i.Rs2, i.Funct3, i.Funct7, i.Imm)
}

// Decoder decodes RV32 machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new RV32 instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit instruction word. Decoding never fails; an
// unrecognized opcode yields FormatUnknown and a zero immediate.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{}
	d.DecodeInto(word, inst)
	return inst
}

// DecodeInto decodes word into inst, overwriting every field. It does not
// allocate.
func (d *Decoder) DecodeInto(word uint32, inst *Instruction) {
	*inst = Instruction{
		Word:   word,
		Opcode: Opcode(word & 0x7F),
		Rd:     uint8((word >> 7) & 0x1F),
		Funct3: uint8((word >> 12) & 0x7),
		Rs1:    uint8((word >> 15) & 0x1F),
		Rs2:    uint8((word >> 20) & 0x1F),
		Funct7: uint8((word >> 25) & 0x7F),
	}

	inst.Format = formatOf(inst.Opcode)
	inst.Imm = d.immediate(word, inst.Opcode)
}

// immediate selects the immediate layout for the opcode.
func (d *Decoder) immediate(word uint32, op Opcode) int32 {
	switch op {
	case OpLUI, OpAUIPC:
		return immU(word)
	case OpJAL:
		return immJ(word)
	case OpBranch:
		return immB(word)
	case OpLoad, OpStore, OpImm:
		return immI(word)
	default:
		return 0
	}
}

func formatOf(op Opcode) Format {
	switch op {
	case OpLUI, OpAUIPC:
		return FormatU
	case OpJAL:
		return FormatJ
	case OpBranch:
		return FormatB
	case OpLoad, OpImm, OpJALR, OpSystem:
		return FormatI
	case OpStore:
		return FormatS
	case OpReg:
		return FormatR
	default:
		return FormatUnknown
	}
}

// immU keeps bits [31:12] in place.
func immU(word uint32) int32 {
	return int32(word & 0xFFFFF000)
}

// immJ reassembles imm[20|10:1|11|19:12] into a 21-bit value.
func immJ(word uint32) int32 {
	imm := ((word >> 21) & 0x3FF) << 1 // bits 10:1
	imm |= ((word >> 20) & 0x1) << 11  // bit 11
	imm |= ((word >> 12) & 0xFF) << 12 // bits 19:12
	imm |= ((word >> 31) & 0x1) << 20  // bit 20
	return int32(imm)
}

// immB reassembles imm[12|10:5|4:1|11] into a 13-bit value.
func immB(word uint32) int32 {
	imm := ((word >> 8) & 0xF) << 1   // bits 4:1
	imm |= ((word >> 25) & 0x3F) << 5 // bits 10:5
	imm |= ((word >> 7) & 0x1) << 11  // bit 11
	imm |= ((word >> 31) & 0x1) << 12 // bit 12
	return int32(imm)
}

// immI is an arithmetic shift of the whole word, so it sign-extends.
func immI(word uint32) int32 {
	return int32(word) >> 20
}
