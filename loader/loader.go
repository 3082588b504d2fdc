package loader

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

// Load reads a program image from path. Files starting with the ELF magic
// are loaded as ELF; anything else is parsed as hex text.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open program: %w", err)
	}

	magic := make([]byte, len(elfMagic))
	n, err := io.ReadFull(f, magic)
	_ = f.Close()
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}

	if bytes.Equal(magic[:n], elfMagic) {
		return LoadELF(path)
	}
	return LoadHex(path)
}
