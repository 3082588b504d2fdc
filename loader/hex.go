package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseHex reads one 32-bit word per line. A word may carry a 0x prefix and
// "_" separators. Text after "#" is a comment; blank lines are skipped.
func ParseHex(r io.Reader) ([]uint32, error) {
	var words []uint32

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++

		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		text = strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
		text = strings.ReplaceAll(text, "_", "")

		word, err := strconv.ParseUint(text, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid word %q: %w", line, scanner.Text(), err)
		}
		words = append(words, uint32(word))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hex image: %w", err)
	}

	return words, nil
}

// LoadHex reads a hex text image from path.
func LoadHex(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hex file: %w", err)
	}
	defer func() { _ = f.Close() }()

	words, err := ParseHex(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Program{Words: words}, nil
}
