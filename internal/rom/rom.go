package rom

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// MaxSize is the largest program that fits between the program start (0x200) and the end
// of the 4KB address space.
const MaxSize = 0x1000 - 0x200

var (
	ErrBadPath   = errors.New("bad rom path")
	ErrTruncated = errors.New("truncated rom read")
	ErrTooLarge  = errors.New("rom too large")
	ErrEmpty     = errors.New("rom is empty")
)

// Font holds the glyphs for the digits 0-9, five bytes each. Glyph n starts at n*5.
var Font = [50]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x60, 0xA0, 0x20, 0x20, 0xF0, // 1
	0x60, 0x90, 0x20, 0x40, 0xF0, // 2
	0xE0, 0x10, 0x60, 0x10, 0xE0, // 3
	0x90, 0x90, 0x60, 0x10, 0x10, // 4
	0xF0, 0x80, 0xE0, 0x10, 0xE0, // 5
	0x70, 0x80, 0xF0, 0x90, 0x60, // 6
	0xF0, 0x10, 0x20, 0x40, 0x80, // 7
	0x60, 0x90, 0x60, 0x90, 0x60, // 8
	0x60, 0x90, 0xF0, 0x10, 0x60, // 9
}

// Read reads a raw ROM image: big-endian instruction words with no header.
func Read(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if len(data) > MaxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, MaxSize)
	}
	return data, nil
}

// Load reads the ROM image at path.
func Load(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPath, err)
	}
	defer f.Close()

	data, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}
