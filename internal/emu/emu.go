package emu

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/rom"
	"github.com/retroenv/retrogolib/log"
)

// Keys is the keypad state a frontend hands over once per frame.
type Keys struct {
	Down       [keypad.NumKeys]bool
	Released   byte // key released since the previous frame, valid if HasRelease
	HasRelease bool
}

// Machine drives a CPU at frame granularity: a fixed batch of instructions, then one
// timer tick and a fresh RGBA framebuffer.
type Machine struct {
	cfg     Config
	log     *log.Logger
	cpu     *cpu.CPU
	fb      []byte // RGBA 64x32*4
	rom     []byte
	romPath string
	frame   uint64
	lastErr error
}

func New(cfg Config) *Machine {
	cfg.Defaults()
	m := &Machine{
		cfg: cfg,
		log: cfg.Logger,
		fb:  make([]byte, display.Width*display.Height*4),
	}
	m.cpu = m.newCPU()
	m.render()
	return m
}

func (m *Machine) newCPU() *cpu.CPU {
	var rng cpu.Rand
	if m.cfg.Seed != 0 {
		rng = rand.New(rand.NewSource(m.cfg.Seed))
	}
	c := cpu.New(bus.New(), rng)
	// the font always fits below the program area
	_ = c.LoadFont(rom.Font[:])
	return c
}

// LoadROM replaces the CPU with a fresh one running data from the program start.
func (m *Machine) LoadROM(data []byte) error {
	c := m.newCPU()
	if err := c.LoadROM(data); err != nil {
		return err
	}
	m.cpu = c
	m.rom = append([]byte(nil), data...)
	m.frame = 0
	m.lastErr = nil
	m.render()
	m.log.Info("ROM loaded", log.Int("size", len(data)))
	return nil
}

func (m *Machine) LoadROMFromFile(path string) error {
	data, err := rom.Load(path)
	if err != nil {
		return err
	}
	if err := m.LoadROM(data); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	m.romPath = path
	m.log.Debug("ROM path", log.String("path", path))
	return nil
}

// ROMPath returns the file the current program came from, empty for in-memory ROMs.
func (m *Machine) ROMPath() string { return m.romPath }

// Reset starts the loaded program again on a new CPU. Without a ROM the machine is
// left empty and Stopped.
func (m *Machine) Reset() error {
	if m.rom == nil {
		m.cpu = m.newCPU()
		m.frame = 0
		m.render()
		return nil
	}
	return m.LoadROM(m.rom)
}

// SetKeys publishes the keypad state for the next frame. An edge that was not consumed
// during the previous frame is dropped.
func (m *Machine) SetKeys(k Keys) {
	l := m.cpu.Keys()
	l.SetAll(k.Down)
	if k.HasRelease {
		l.Release(k.Released)
	} else {
		l.ClearReleased()
	}
}

// StepFrame runs up to InstructionsPerFrame instructions, then ticks the timers and
// re-renders. A Stopped machine executes nothing but its timers keep running.
// The returned error is the instruction failure of this frame, if any.
func (m *Machine) StepFrame() error {
	var err error
	for i := 0; i < m.cfg.InstructionsPerFrame && m.Running(); i++ {
		if m.cfg.Trace {
			if in, ok := m.cpu.Next(); ok {
				m.log.Debug("exec",
					log.String("pc", fmt.Sprintf("%03X", m.cpu.PC)),
					log.String("instr", in.String()))
			}
		}
		if err = m.cpu.Step(); err != nil {
			m.fail(err)
			break
		}
	}
	m.cpu.SignalNewFrame()
	m.frame++
	m.render()
	return err
}

func (m *Machine) fail(err error) {
	m.lastErr = err
	var ee *cpu.ExecError
	if errors.As(err, &ee) {
		m.log.Error("Instruction failed", ee.Err,
			log.String("pc", fmt.Sprintf("%03X", ee.PC)),
			log.String("opcode", fmt.Sprintf("%04X", ee.Opcode)))
	} else {
		m.log.Error("Instruction failed", err)
	}
	if m.cfg.StopOnError {
		m.cpu.Mode = cpu.Stopped
		m.log.Warn("Machine stopped", log.Int("frame", int(m.frame)))
	}
}

func (m *Machine) render() {
	m.cpu.Display().RGBA(m.fb, m.cfg.Foreground, m.cfg.Background)
}

// Framebuffer returns the RGBA pixels of the last completed frame. The slice is reused.
func (m *Machine) Framebuffer() []byte { return m.fb }

func (m *Machine) Display() *display.Buffer { return m.cpu.Display() }

func (m *Machine) CPU() *cpu.CPU { return m.cpu }

// Frame is the number of frames stepped since the last load or reset.
func (m *Machine) Frame() uint64 { return m.frame }

// Running reports whether the CPU still executes instructions, including while it
// waits for a key.
func (m *Machine) Running() bool { return m.cpu.Mode != cpu.Stopped }

// Beeping reports whether the sound timer is active.
func (m *Machine) Beeping() bool {
	t := m.cpu.Timers()
	return t.Beeping()
}

// LastError returns the most recent instruction failure since the last load.
func (m *Machine) LastError() error { return m.lastErr }

// Peek reads a memory byte.
func (m *Machine) Peek(addr uint16) byte { return m.cpu.Bus().Read(addr) }

// Register returns the value of register Vx.
func (m *Machine) Register(x int) byte { return m.cpu.V[x&0x0F] }
