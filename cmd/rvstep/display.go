package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/sarchlab/rvstep/emu"
	"github.com/sarchlab/rvstep/insts"
)

const (
	ansiClear   = "\033[H\033[2J"
	ansiReverse = "\033[7m"
	ansiReset   = "\033[0m"
)

// Display renders every published step as a text frame and announces
// completion. It is registered as an emulator observer.
type Display struct {
	out io.Writer

	// interactive redraws frames in place and highlights the written
	// register with reverse video.
	interactive bool
}

// NewDisplay creates a display writing to out.
func NewDisplay(out io.Writer, interactive bool) *Display {
	return &Display{out: out, interactive: interactive}
}

// OnStep implements emu.Observer.
func (d *Display) OnStep(s emu.Snapshot) {
	var b strings.Builder
	if d.interactive {
		b.WriteString(ansiClear)
	}
	b.WriteString(Frame(s, d.interactive))
	_, _ = io.WriteString(d.out, b.String())
}

// OnHalt implements emu.Observer.
func (d *Display) OnHalt() {
	_, _ = fmt.Fprintln(d.out, "Simulation Complete.")
}

// Frame renders the register file, the decoded fields and the current
// instruction of a snapshot.
func Frame(s emu.Snapshot, highlight bool) string {
	var b strings.Builder
	b.WriteString(RenderRegisters(s.Registers, s.Written, highlight))
	b.WriteString("\n")
	b.WriteString(RenderFields(s.Inst))
	b.WriteString("\n")
	b.WriteString(RenderCurrent(s.PC, s.Word))
	b.WriteString("\n")
	return b.String()
}

// RenderRegisters lists x0-x31 as 8-digit hex. The written register, if
// any, is marked with an arrow.
func RenderRegisters(regs [emu.NumRegisters]int32, written int, highlight bool) string {
	var b strings.Builder
	b.WriteString("Register File:\n")
	for i, v := range regs {
		line := fmt.Sprintf("x%d: %08x", i, uint32(v))
		if i == written {
			if highlight {
				line = ansiReverse + line + ansiReset
			}
			line += " <---"
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// RenderFields lists the decoded instruction fields.
func RenderFields(inst insts.Instruction) string {
	var b strings.Builder
	b.WriteString("Instruction Fields:\n")
	fmt.Fprintf(&b, "Opcode: %02x\n", uint8(inst.Opcode))
	fmt.Fprintf(&b, "rd: %d\n", inst.Rd)
	fmt.Fprintf(&b, "funct3: %d\n", inst.Funct3)
	fmt.Fprintf(&b, "rs1: %d\n", inst.Rs1)
	fmt.Fprintf(&b, "rs2: %d\n", inst.Rs2)
	fmt.Fprintf(&b, "funct7: %02x\n", inst.Funct7)
	fmt.Fprintf(&b, "imm: %08x\n", uint32(inst.Imm))
	return b.String()
}

// RenderCurrent shows the counter and raw word of the executed instruction.
func RenderCurrent(pc, word uint32) string {
	return fmt.Sprintf("Currently Executed Instruction:\nPC: %08x\nInstruction: %08x\n", pc, word)
}
