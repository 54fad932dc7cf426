package cpu

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/timer"
)

const (
	StackDepth = 24
	GlyphSize  = 5 // bytes per font glyph
	flagReg    = 0xF
)

// Mode is the run state of the CPU.
type Mode uint8

const (
	Running Mode = iota
	WaitingKey
	Stopped
)

func (m Mode) String() string {
	switch m {
	case Running:
		return "running"
	case WaitingKey:
		return "waiting-key"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Rand is the random source for the random-AND instruction. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// CPU is the interpreter core. It owns memory, registers, the call stack, both timers,
// the framebuffer and the keypad latch. It is not safe for concurrent use.
type CPU struct {
	V    [16]byte
	PC   uint16
	I    uint16
	SP   byte // number of return addresses on the stack
	Mode Mode

	stack  [StackDepth]uint16
	timers timer.Timers
	// set by a draw, cleared by SignalNewFrame
	drawn bool

	bus  *bus.Bus
	disp *display.Buffer
	keys *keypad.Latch
	rng  Rand
}

// New creates a CPU in reset state: PC at the program start, everything else zero, Stopped.
// A nil bus gets a fresh one; a nil rng gets a time-seeded generator.
func New(b *bus.Bus, rng Rand) *CPU {
	if b == nil {
		b = bus.New()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &CPU{
		PC:   bus.ProgramStart,
		Mode: Stopped,
		bus:  b,
		disp: &display.Buffer{},
		keys: &keypad.Latch{},
		rng:  rng,
	}
}

// Bus exposes memory for loaders, tests and tools.
func (c *CPU) Bus() *bus.Bus { return c.bus }

// Display exposes the framebuffer for rendering.
func (c *CPU) Display() *display.Buffer { return c.disp }

// Keys exposes the keypad latch to the driver.
func (c *CPU) Keys() *keypad.Latch { return c.keys }

// Timers returns a copy of the delay and sound counters.
func (c *CPU) Timers() timer.Timers { return c.timers }

// Stack returns the return addresses currently pushed, oldest first.
func (c *CPU) Stack() []uint16 {
	out := make([]uint16, c.SP)
	copy(out, c.stack[:c.SP])
	return out
}

// LoadFont copies the glyph table to the start of memory.
func (c *CPU) LoadFont(glyphs []byte) error {
	if len(glyphs) > bus.ProgramStart {
		return fmt.Errorf("font of %d bytes overlaps program area: %w", len(glyphs), ErrAddressOverflow)
	}
	c.bus.Load(bus.FontStart, glyphs)
	return nil
}

// LoadROM copies a program to the program area and switches the CPU to Running.
func (c *CPU) LoadROM(rom []byte) error {
	if !c.bus.Load(bus.ProgramStart, rom) {
		return fmt.Errorf("rom of %d bytes does not fit in memory: %w", len(rom), ErrAddressOverflow)
	}
	c.Mode = Running
	return nil
}

// SignalNewFrame is called once per frame by the driver: both timers count down and the
// draw limiter is re-armed.
func (c *CPU) SignalNewFrame() {
	c.drawn = false
	c.timers.Tick()
}

// Next decodes the instruction at PC without executing it.
func (c *CPU) Next() (Instruction, bool) {
	if !bus.InRange(c.PC, 2) {
		return Instruction{}, false
	}
	return DecodeInstruction(c.bus.Read16(c.PC)), true
}

// Step fetches, decodes and executes one instruction. On failure the returned error is an
// *ExecError and no state has changed, PC included.
func (c *CPU) Step() error {
	pc := c.PC
	if !bus.InRange(pc, 2) {
		return &ExecError{PC: pc, Err: ErrAddressOverflow}
	}
	word := c.bus.Read16(pc)
	c.PC += 2
	if err := c.Execute(DecodeInstruction(word)); err != nil {
		c.PC = pc
		return &ExecError{PC: pc, Opcode: word, Err: err}
	}
	return nil
}

// Execute applies one decoded instruction. PC must already point past it.
// Every failure is detected before anything is written.
func (c *CPU) Execute(in Instruction) error {
	x, y := in.X, in.Y
	switch in.Op {
	case OpClearScreen:
		c.disp.Clear()
	case OpReturn:
		if c.SP == 0 {
			return ErrStackUnderflow
		}
		c.SP--
		c.PC = c.stack[c.SP]
	case OpHalt:
		c.Mode = Stopped
	case OpJump:
		c.PC = in.Addr
	case OpCall:
		if int(c.SP) >= StackDepth {
			return ErrStackOverflow
		}
		c.stack[c.SP] = c.PC
		c.SP++
		c.PC = in.Addr
	case OpSkipEqImm:
		c.skipIf(c.V[x] == in.Imm8)
	case OpSkipNeImm:
		c.skipIf(c.V[x] != in.Imm8)
	case OpSkipEqReg:
		c.skipIf(c.V[x] == c.V[y])
	case OpSkipNeReg:
		c.skipIf(c.V[x] != c.V[y])
	case OpSetImm:
		c.V[x] = in.Imm8
	case OpAddImm:
		c.V[x] += in.Imm8
	case OpSetReg:
		c.V[x] = c.V[y]

	// logic ops always clear VF
	case OpOr:
		c.V[x] |= c.V[y]
		c.V[flagReg] = 0
	case OpAnd:
		c.V[x] &= c.V[y]
		c.V[flagReg] = 0
	case OpXor:
		c.V[x] ^= c.V[y]
		c.V[flagReg] = 0

	// VF is written last so it holds the flag even when x is VF
	case OpAddReg:
		sum := uint16(c.V[x]) + uint16(c.V[y])
		c.V[x] = byte(sum)
		c.V[flagReg] = boolToByte(sum > 0xFF)
	case OpSub:
		vx, vy := c.V[x], c.V[y]
		c.V[x] = vx - vy
		c.V[flagReg] = boolToByte(vx >= vy)
	case OpSubN:
		vx, vy := c.V[x], c.V[y]
		c.V[x] = vy - vx
		c.V[flagReg] = boolToByte(vy >= vx)

	// shifts read VY and store into VX
	case OpShiftRight:
		vy := c.V[y]
		c.V[x] = vy >> 1
		c.V[flagReg] = vy & 0x01
	case OpShiftLeft:
		vy := c.V[y]
		c.V[x] = vy << 1
		c.V[flagReg] = vy >> 7

	case OpSetIndex:
		c.I = in.Addr
	case OpJumpOffset:
		target := in.Addr + uint16(c.V[0])
		if target >= bus.Size {
			return ErrAddressOverflow
		}
		c.PC = target
	case OpRandom:
		c.V[x] = byte(c.rng.Intn(256)) & in.Imm8
	case OpDraw:
		return c.draw(in)
	case OpSkipKeyDown:
		c.skipIf(c.keys.IsDown(c.V[x]))
	case OpSkipKeyUp:
		c.skipIf(!c.keys.IsDown(c.V[x]))
	case OpGetDelay:
		c.V[x] = c.timers.Delay
	case OpGetKey:
		key, ok := c.keys.Take()
		if !ok {
			// retry this instruction on every step until a key is released
			c.PC -= 2
			c.Mode = WaitingKey
			return nil
		}
		c.V[x] = key
		if c.Mode == WaitingKey {
			c.Mode = Running
		}
	case OpSetDelay:
		c.timers.Delay = c.V[x]
	case OpSetSound:
		c.timers.Sound = c.V[x]
	case OpAddIndex:
		c.I += uint16(c.V[x])
	case OpFontAddr:
		c.I = uint16(c.V[x]) * GlyphSize
	case OpStoreBCD:
		if !bus.InRange(c.I, 3) {
			return ErrAddressOverflow
		}
		v := c.V[x]
		c.bus.Write(c.I, v/100)
		c.bus.Write(c.I+1, v%100/10)
		c.bus.Write(c.I+2, v%10)
	case OpStoreRegs:
		n := int(x) + 1
		if !bus.InRange(c.I, n) {
			return ErrAddressOverflow
		}
		copy(c.bus.Slice(c.I, n), c.V[:n])
		c.I += uint16(n)
	case OpLoadRegs:
		n := int(x) + 1
		if !bus.InRange(c.I, n) {
			return ErrAddressOverflow
		}
		copy(c.V[:n], c.bus.Slice(c.I, n))
		c.I += uint16(n)
	default:
		return ErrInvalidInstruction
	}
	return nil
}

// draw blits a sprite. Only one draw runs per frame; a second one rewinds PC so the
// instruction is retried after the next SignalNewFrame.
func (c *CPU) draw(in Instruction) error {
	if c.drawn {
		c.PC -= 2
		return nil
	}
	x, y := int(c.V[in.X]), int(c.V[in.Y])
	sprite := c.bus.Slice(c.I, display.VisibleRows(y, int(in.Imm4)))
	if sprite == nil {
		return ErrAddressOverflow
	}
	c.drawn = true
	c.V[flagReg] = boolToByte(c.disp.Draw(x, y, sprite))
	return nil
}

func (c *CPU) skipIf(cond bool) {
	if cond {
		c.PC += 2
	}
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
