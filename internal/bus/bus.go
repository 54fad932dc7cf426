package bus

const (
	Size         = 0x1000 // 4KB addressable memory
	FontStart    = 0x0000
	ProgramStart = 0x0200
)

// Bus is the flat 4KB memory of the machine. Unlike a banked console bus there is no
// mapping: every address below Size is plain RAM.
type Bus struct {
	ram [Size]byte
}

func New() *Bus {
	return &Bus{}
}

// InRange reports whether n bytes starting at addr all lie below Size.
func InRange(addr uint16, n int) bool {
	return n >= 0 && int(addr)+n <= Size
}

func (b *Bus) Read(addr uint16) byte {
	if addr >= Size {
		return 0xFF // unmapped
	}
	return b.ram[addr]
}

func (b *Bus) Write(addr uint16, value byte) {
	if addr < Size {
		b.ram[addr] = value
	}
}

// Read16 returns the big-endian word at addr and addr+1.
func (b *Bus) Read16(addr uint16) uint16 {
	return uint16(b.Read(addr))<<8 | uint16(b.Read(addr+1))
}

// Slice returns a view of n bytes at addr, or nil if the range leaves memory.
func (b *Bus) Slice(addr uint16, n int) []byte {
	if !InRange(addr, n) {
		return nil
	}
	return b.ram[addr : int(addr)+n]
}

// Load copies data into memory at addr. It reports false and writes nothing if the data
// does not fit.
func (b *Bus) Load(addr uint16, data []byte) bool {
	if !InRange(addr, len(data)) {
		return false
	}
	copy(b.ram[addr:], data)
	return true
}
