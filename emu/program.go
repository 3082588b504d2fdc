package emu

// Program is the loaded instruction image. Word i lives at byte address 4*i;
// it is stored contiguously since addresses are always word-aligned and
// issued in order at load time.
type Program struct {
	words []uint32
}

// NewProgram copies words into a new program image.
func NewProgram(words []uint32) *Program {
	p := &Program{words: make([]uint32, len(words))}
	copy(p.words, words)
	return p
}

// Fetch returns the word mapped at pc. The second result is false when no
// instruction is mapped there.
func (p *Program) Fetch(pc uint32) (uint32, bool) {
	if p == nil || pc%4 != 0 {
		return 0, false
	}
	idx := pc / 4
	if uint64(idx) >= uint64(len(p.words)) {
		return 0, false
	}
	return p.words[idx], true
}

// Len returns the number of words in the image.
func (p *Program) Len() int {
	if p == nil {
		return 0
	}
	return len(p.words)
}
