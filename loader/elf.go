// Package loader reads program images for the emulator from RISC-V ELF32
// executables and from hex text files.
package loader

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// MaxProgramWords bounds the instruction image built from executable
// segments. Segments spread further apart than this are rejected.
const MaxProgramWords = 1 << 20

// Segment represents a loadable segment from an ELF binary.
type Segment struct {
	// VirtAddr is the virtual address where this segment should be loaded.
	VirtAddr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program is a loaded program image.
type Program struct {
	// EntryPoint is the ELF entry address. Zero for hex images.
	EntryPoint uint32
	// Base is the address of the first instruction word. Words[i] sits at
	// Base + 4*i in the ELF address space and at 4*i in the emulator.
	Base uint32
	// Segments contains all loadable segments. Empty for hex images.
	Segments []Segment
	// Words is the instruction image, ready for Emulator.LoadProgram.
	Words []uint32
}

// EntryOffset returns the entry point relative to Base. The emulator always
// starts at 0, so a non-zero offset means the image begins with words that
// are not the entry.
func (p *Program) EntryOffset() uint32 {
	return p.EntryPoint - p.Base
}

// LoadELF parses a RISC-V ELF32 executable and builds the instruction image
// from its executable PT_LOAD segments.
func LoadELF(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("not a 32-bit ELF file")
	}

	if f.Machine != elf.EM_RISCV {
		return nil, fmt.Errorf("not a RISC-V ELF file (machine type: %v)", f.Machine)
	}

	if f.Data != elf.ELFDATA2LSB {
		return nil, fmt.Errorf("not a little-endian ELF file")
	}

	prog := &Program{
		EntryPoint: uint32(f.Entry),
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: uint32(phdr.Vaddr),
			Data:     data,
			MemSize:  uint32(phdr.Memsz),
			Flags:    flags,
		})
	}

	if err := prog.buildImage(); err != nil {
		return nil, err
	}

	return prog, nil
}

// buildImage lays the executable segments out as words starting at the
// lowest executable address. Gaps and BSS tails are zero words.
func (p *Program) buildImage() error {
	var text []Segment
	for _, seg := range p.Segments {
		if seg.Flags&SegmentFlagExecute != 0 && seg.MemSize > 0 {
			text = append(text, seg)
		}
	}
	if len(text) == 0 {
		return nil
	}

	sort.Slice(text, func(i, j int) bool { return text[i].VirtAddr < text[j].VirtAddr })

	p.Base = text[0].VirtAddr
	if p.Base%4 != 0 {
		return fmt.Errorf("executable segment at 0x%x is not word aligned", p.Base)
	}

	last := text[len(text)-1]
	span := uint64(last.VirtAddr-p.Base) + uint64(last.MemSize)
	numWords := (span + 3) / 4
	if numWords > MaxProgramWords {
		return fmt.Errorf("executable segments span %d words, limit is %d", numWords, MaxProgramWords)
	}

	p.Words = make([]uint32, numWords)
	for _, seg := range text {
		if seg.VirtAddr%4 != 0 {
			return fmt.Errorf("executable segment at 0x%x is not word aligned", seg.VirtAddr)
		}
		first := (seg.VirtAddr - p.Base) / 4
		for i := 0; i+4 <= len(seg.Data); i += 4 {
			p.Words[first+uint32(i/4)] = binary.LittleEndian.Uint32(seg.Data[i:])
		}
		if rem := len(seg.Data) % 4; rem != 0 {
			var tail [4]byte
			copy(tail[:], seg.Data[len(seg.Data)-rem:])
			p.Words[first+uint32(len(seg.Data)/4)] = binary.LittleEndian.Uint32(tail[:])
		}
	}

	return nil
}
