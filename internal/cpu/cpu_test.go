package cpu

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/timer"
	"github.com/retroenv/retrogolib/assert"
)

type fixedRand struct{ v int }

func (r fixedRand) Intn(n int) int { return r.v % n }

func newCPUWithROM(t *testing.T, words ...uint16) *CPU {
	t.Helper()
	rom := make([]byte, 0, len(words)*2)
	for _, w := range words {
		rom = append(rom, byte(w>>8), byte(w))
	}
	c := New(bus.New(), fixedRand{0xAB})
	assert.NoError(t, c.LoadROM(rom))
	return c
}

func mustStep(t *testing.T, c *CPU, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := c.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
}

// snapshot captures every observable piece of machine state.
type snapshot struct {
	V      [16]byte
	PC, I  uint16
	SP     byte
	Mode   Mode
	Stack  []uint16
	Mem    []byte
	Pixels [display.Height][display.Width]bool
	Timers timer.Timers
}

func snap(c *CPU) snapshot {
	mem := make([]byte, bus.Size)
	copy(mem, c.Bus().Slice(0, bus.Size))
	return snapshot{
		V: c.V, PC: c.PC, I: c.I, SP: c.SP, Mode: c.Mode,
		Stack:  c.Stack(),
		Mem:    mem,
		Pixels: c.Display().Pixels(),
		Timers: c.Timers(),
	}
}

func assertUnchanged(t *testing.T, before snapshot, c *CPU) {
	t.Helper()
	if after := snap(c); !reflect.DeepEqual(before, after) {
		t.Fatalf("state mutated by failed instruction:\nbefore=%+v\nafter=%+v", before.V, after.V)
	}
}

func TestNewResetState(t *testing.T) {
	c := New(nil, nil)
	assert.Equal(t, uint16(0x200), c.PC)
	assert.Equal(t, uint16(0), c.I)
	assert.Equal(t, byte(0), c.SP)
	assert.Equal(t, Stopped, c.Mode)
	assert.Equal(t, [16]byte{}, c.V)
	assert.Equal(t, 0, c.Display().Lit())
}

func TestSetAndAddImmediate(t *testing.T) {
	c := newCPUWithROM(t, 0x6A05, 0x7A03)
	mustStep(t, c, 2)
	assert.Equal(t, byte(8), c.V[0xA])
	assert.Equal(t, uint16(0x204), c.PC)
}

func TestAddImmediateWrapsAndKeepsFlag(t *testing.T) {
	c := newCPUWithROM(t, 0x7102)
	c.V[1] = 0xFF
	c.V[0xF] = 0x55
	mustStep(t, c, 1)
	assert.Equal(t, byte(0x01), c.V[1])
	assert.Equal(t, byte(0x55), c.V[0xF])
}

func TestRegisterALUFlags(t *testing.T) {
	tests := []struct {
		name     string
		op       uint16
		vx, vy   byte
		wantX    byte
		wantFlag byte
	}{
		{"mov", 0x8120, 0x00, 0x42, 0x42, 0x55},
		{"or clears flag", 0x8121, 0x0F, 0xF0, 0xFF, 0},
		{"and clears flag", 0x8122, 0x3C, 0x0F, 0x0C, 0},
		{"xor clears flag", 0x8123, 0xFF, 0x0F, 0xF0, 0},
		{"add no carry", 0x8124, 0x10, 0x20, 0x30, 0},
		{"add carry", 0x8124, 0xFF, 0x02, 0x01, 1},
		{"add carry to zero", 0x8124, 0x80, 0x80, 0x00, 1},
		{"sub no borrow", 0x8125, 0x30, 0x10, 0x20, 1},
		{"sub equal", 0x8125, 0x10, 0x10, 0x00, 1},
		{"sub borrow", 0x8125, 0x10, 0x30, 0xE0, 0},
		{"subn no borrow", 0x8127, 0x10, 0x30, 0x20, 1},
		{"subn equal", 0x8127, 0x22, 0x22, 0x00, 1},
		{"subn borrow", 0x8127, 0x30, 0x10, 0xE0, 0},
		{"shr reads vy, lsb set", 0x8126, 0xFF, 0x05, 0x02, 1},
		{"shr reads vy, lsb clear", 0x8126, 0x01, 0x04, 0x02, 0},
		{"shl reads vy, msb set", 0x812E, 0x00, 0x81, 0x02, 1},
		{"shl reads vy, msb clear", 0x812E, 0xFF, 0x41, 0x82, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCPUWithROM(t, tt.op)
			c.V[1], c.V[2] = tt.vx, tt.vy
			c.V[0xF] = 0x55
			mustStep(t, c, 1)
			assert.Equal(t, tt.wantX, c.V[1])
			assert.Equal(t, tt.wantFlag, c.V[0xF])
			assert.Equal(t, tt.vy, c.V[2])
		})
	}
}

func TestFlagWinsWhenTargetIsVF(t *testing.T) {
	c := newCPUWithROM(t, 0x8F14) // VF += V1
	c.V[0xF] = 0xFF
	c.V[1] = 0x01
	mustStep(t, c, 1)
	assert.Equal(t, byte(1), c.V[0xF])
}

func TestSkips(t *testing.T) {
	tests := []struct {
		name   string
		op     uint16
		v1, v2 byte
		skip   bool
	}{
		{"eq imm taken", 0x3142, 0x42, 0, true},
		{"eq imm not taken", 0x3142, 0x41, 0, false},
		{"ne imm taken", 0x4142, 0x41, 0, true},
		{"ne imm not taken", 0x4142, 0x42, 0, false},
		{"eq reg taken", 0x5120, 7, 7, true},
		{"eq reg not taken", 0x5120, 7, 8, false},
		{"ne reg taken", 0x9120, 7, 8, true},
		{"ne reg not taken", 0x9120, 7, 7, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCPUWithROM(t, tt.op)
			c.V[1], c.V[2] = tt.v1, tt.v2
			mustStep(t, c, 1)
			want := uint16(0x202)
			if tt.skip {
				want = 0x204
			}
			assert.Equal(t, want, c.PC)
		})
	}
}

func TestCallReturn(t *testing.T) {
	// 0200: call 0206; 0202: mov v1,1; 0204: halt; 0206: ret
	c := newCPUWithROM(t, 0x2206, 0x6101, 0x0001, 0x00EE)
	mustStep(t, c, 1)
	assert.Equal(t, uint16(0x206), c.PC)
	assert.Equal(t, []uint16{0x202}, c.Stack())

	mustStep(t, c, 1)
	assert.Equal(t, uint16(0x202), c.PC)
	assert.Equal(t, byte(0), c.SP)

	mustStep(t, c, 2)
	assert.Equal(t, byte(1), c.V[1])
	assert.Equal(t, Stopped, c.Mode)
}

func TestCallDepthLimit(t *testing.T) {
	// each instruction calls the one after it
	words := make([]uint16, StackDepth+1)
	for i := range words {
		words[i] = 0x2000 | uint16(0x202+2*i)
	}
	c := newCPUWithROM(t, words...)
	mustStep(t, c, StackDepth)
	assert.Equal(t, byte(StackDepth), c.SP)

	before := snap(c)
	err := c.Step()
	assert.True(t, errors.Is(err, ErrStackOverflow))
	assertUnchanged(t, before, c)
}

func TestReturnOnEmptyStack(t *testing.T) {
	c := newCPUWithROM(t, 0x00EE)
	before := snap(c)
	err := c.Step()
	assert.True(t, errors.Is(err, ErrStackUnderflow))
	assertUnchanged(t, before, c)
}

func TestJumps(t *testing.T) {
	c := newCPUWithROM(t, 0x1300)
	mustStep(t, c, 1)
	assert.Equal(t, uint16(0x300), c.PC)

	c = newCPUWithROM(t, 0xBFEF)
	c.V[0] = 0x10
	mustStep(t, c, 1)
	assert.Equal(t, uint16(0xFFF), c.PC)
}

func TestJumpWithOffsetOverflow(t *testing.T) {
	c := newCPUWithROM(t, 0xBFF0)
	c.V[0] = 0x10
	before := snap(c)
	err := c.Step()
	assert.True(t, errors.Is(err, ErrAddressOverflow))
	assertUnchanged(t, before, c)
}

func TestFetchOverflow(t *testing.T) {
	c := newCPUWithROM(t)
	c.PC = 0x0FFF
	err := c.Step()
	assert.True(t, errors.Is(err, ErrAddressOverflow))
	assert.Equal(t, uint16(0x0FFF), c.PC)

	// the last full word in memory is still fetchable
	c.Bus().Write(0x0FFE, 0x12)
	c.Bus().Write(0x0FFF, 0x00)
	c.PC = 0x0FFE
	in, ok := c.Next()
	assert.True(t, ok)
	assert.Equal(t, OpJump, in.Op)
	assert.NoError(t, c.Step())
	assert.Equal(t, uint16(0x200), c.PC)
}

func TestInvalidInstructions(t *testing.T) {
	for _, word := range []uint16{0x0000, 0x0123, 0x8008, 0x800F, 0xE000, 0xF0FF} {
		c := newCPUWithROM(t, word)
		before := snap(c)
		err := c.Step()

		var execErr *ExecError
		assert.True(t, errors.As(err, &execErr))
		assert.True(t, errors.Is(err, ErrInvalidInstruction))
		assert.Equal(t, uint16(0x200), execErr.PC)
		assert.Equal(t, word, execErr.Opcode)
		assertUnchanged(t, before, c)
	}
}

func TestStoreBCD(t *testing.T) {
	c := newCPUWithROM(t, 0xF033)
	c.V[0] = 254
	c.I = 0x300
	mustStep(t, c, 1)
	assert.Equal(t, []byte{2, 5, 4}, c.Bus().Slice(0x300, 3))
	assert.Equal(t, uint16(0x300), c.I)
}

func TestStoreBCDOverflow(t *testing.T) {
	c := newCPUWithROM(t, 0xF033)
	c.V[0] = 123
	c.I = 0xFFE
	before := snap(c)
	err := c.Step()
	assert.True(t, errors.Is(err, ErrAddressOverflow))
	assertUnchanged(t, before, c)

	c.I = 0xFFD
	mustStep(t, c, 1)
	assert.Equal(t, []byte{1, 2, 3}, c.Bus().Slice(0xFFD, 3))
}

func TestStoreAndLoadRegistersAdvanceI(t *testing.T) {
	c := newCPUWithROM(t, 0xF355, 0xF365)
	c.V = [16]byte{1, 2, 3, 4, 5}
	c.I = 0x300
	mustStep(t, c, 1)
	assert.Equal(t, []byte{1, 2, 3, 4, 0}, c.Bus().Slice(0x300, 5))
	assert.Equal(t, uint16(0x304), c.I)

	c.V = [16]byte{}
	c.V[4] = 0x99
	c.I = 0x300
	mustStep(t, c, 1)
	assert.Equal(t, [16]byte{1, 2, 3, 4, 0x99}, c.V)
	assert.Equal(t, uint16(0x304), c.I)
}

func TestBlockCopyOverflowIsAtomic(t *testing.T) {
	for _, word := range []uint16{0xF455, 0xF465} {
		c := newCPUWithROM(t, word)
		c.V = [16]byte{9, 9, 9, 9, 9}
		c.I = 0xFFC // five bytes would reach 0x1000
		before := snap(c)
		err := c.Step()
		assert.True(t, errors.Is(err, ErrAddressOverflow))
		assertUnchanged(t, before, c)
	}

	c := newCPUWithROM(t, 0xF455)
	c.V = [16]byte{9, 9, 9, 9, 9}
	c.I = 0xFFB
	mustStep(t, c, 1)
	assert.Equal(t, uint16(0x1000), c.I)
	assert.Equal(t, byte(9), c.Bus().Read(0xFFF))
}

func TestIndexOps(t *testing.T) {
	c := newCPUWithROM(t, 0xA123, 0xF01E, 0xF529)
	c.V[0] = 0x10
	c.V[5] = 7
	mustStep(t, c, 2)
	assert.Equal(t, uint16(0x133), c.I)
	mustStep(t, c, 1)
	assert.Equal(t, uint16(35), c.I)
}

func TestRandomUsesInjectedSource(t *testing.T) {
	c := newCPUWithROM(t, 0xC00F)
	mustStep(t, c, 1)
	assert.Equal(t, byte(0x0B), c.V[0]) // 0xAB & 0x0F

	seeded := New(nil, rand.New(rand.NewSource(42)))
	assert.NoError(t, seeded.LoadROM([]byte{0xC1, 0xF0}))
	mustStep(t, seeded, 1)
	want := byte(rand.New(rand.NewSource(42)).Intn(256)) & 0xF0
	assert.Equal(t, want, seeded.V[1])
}

func TestTimers(t *testing.T) {
	// mov va,0x10; sdt va; sst va; gdt vb
	c := newCPUWithROM(t, 0x6A10, 0xFA15, 0xFA18, 0xFB07)
	mustStep(t, c, 3)
	c.SignalNewFrame()
	mustStep(t, c, 1)
	assert.Equal(t, byte(0x0F), c.V[0xB])
	assert.Equal(t, byte(0x0F), c.Timers().Sound)
}

func TestClearScreen(t *testing.T) {
	c := newCPUWithROM(t, 0xD015, 0x00E0)
	mustStep(t, c, 1) // font area is zero, draw a byte at I=0 anyway
	c.Display().Draw(0, 0, []byte{0xFF})
	mustStep(t, c, 1)
	assert.Equal(t, 0, c.Display().Lit())
}

func TestDrawTwiceAcrossFramesCollides(t *testing.T) {
	c := newCPUWithROM(t, 0xD011, 0xD011)
	c.Bus().Write(0x300, 0xFF)
	c.I = 0x300
	c.V[0], c.V[1] = 4, 3

	mustStep(t, c, 1)
	assert.Equal(t, 8, c.Display().Lit())
	assert.True(t, c.Display().Pixel(4, 3))
	assert.Equal(t, byte(0), c.V[0xF])

	c.SignalNewFrame()
	mustStep(t, c, 1)
	assert.Equal(t, 0, c.Display().Lit())
	assert.Equal(t, byte(1), c.V[0xF])
	assert.Equal(t, uint16(0x204), c.PC)
}

func TestDrawLimitedToOncePerFrame(t *testing.T) {
	c := newCPUWithROM(t, 0xD011, 0xD011)
	c.Bus().Write(0x300, 0xFF)
	c.I = 0x300

	mustStep(t, c, 1)
	before := snap(c)
	for i := 0; i < 3; i++ {
		mustStep(t, c, 1)
		assertUnchanged(t, before, c)
	}
	assert.Equal(t, uint16(0x202), c.PC)

	c.SignalNewFrame()
	mustStep(t, c, 1)
	assert.Equal(t, uint16(0x204), c.PC)
	assert.Equal(t, 0, c.Display().Lit())
}

func TestDrawSpriteOutsideMemory(t *testing.T) {
	c := newCPUWithROM(t, 0xD013)
	c.I = 0xFFE
	before := snap(c)
	err := c.Step()
	assert.True(t, errors.Is(err, ErrAddressOverflow))
	assertUnchanged(t, before, c)

	// a rejected draw does not use up the frame's draw
	c.I = 0xFFD
	mustStep(t, c, 1)
	assert.Equal(t, uint16(0x202), c.PC)
}

func TestDrawReadsOnlyVisibleRows(t *testing.T) {
	c := newCPUWithROM(t, 0xD01F)
	c.V[1] = 30 // two visible rows
	c.I = 0xFFE
	mustStep(t, c, 1)
	assert.Equal(t, uint16(0x202), c.PC)
}

func TestGetKeyStallsUntilRelease(t *testing.T) {
	c := newCPUWithROM(t, 0xF30A, 0x6001)
	c.V[3] = 0x77

	mustStep(t, c, 1)
	assert.Equal(t, WaitingKey, c.Mode)
	before := snap(c)
	for i := 0; i < 5; i++ {
		mustStep(t, c, 1)
		assertUnchanged(t, before, c)
	}
	assert.Equal(t, uint16(0x200), c.PC)

	// held keys do not satisfy the wait, only a release edge does
	c.Keys().SetDown(0xB, true)
	mustStep(t, c, 1)
	assert.Equal(t, uint16(0x200), c.PC)

	c.Keys().Release(0xB)
	mustStep(t, c, 1)
	assert.Equal(t, byte(0xB), c.V[3])
	assert.Equal(t, uint16(0x202), c.PC)
	assert.Equal(t, Running, c.Mode)
	_, pending := c.Keys().Pending()
	assert.False(t, pending)
}

func TestSkipOnKeyState(t *testing.T) {
	c := newCPUWithROM(t, 0xE09E, 0x0000, 0xE0A1)
	c.V[0] = 5
	c.Keys().SetDown(5, true)
	mustStep(t, c, 1)
	assert.Equal(t, uint16(0x204), c.PC)
	mustStep(t, c, 1)
	assert.Equal(t, uint16(0x206), c.PC)

	c = newCPUWithROM(t, 0xE0A1)
	c.V[0] = 5
	mustStep(t, c, 1)
	assert.Equal(t, uint16(0x204), c.PC)
}

func TestLoadROMTooLarge(t *testing.T) {
	c := New(nil, nil)
	err := c.LoadROM(make([]byte, bus.Size-bus.ProgramStart+1))
	assert.True(t, errors.Is(err, ErrAddressOverflow))
	assert.Equal(t, Stopped, c.Mode)

	assert.NoError(t, c.LoadROM(make([]byte, bus.Size-bus.ProgramStart)))
	assert.Equal(t, Running, c.Mode)
}

func TestLoadFont(t *testing.T) {
	c := New(nil, nil)
	assert.NoError(t, c.LoadFont([]byte{0xF0, 0x90}))
	assert.Equal(t, byte(0x90), c.Bus().Read(1))
	assert.Error(t, c.LoadFont(make([]byte, bus.ProgramStart+1)),
		"font of 513 bytes overlaps program area: address overflow")
}
