package emu

import (
	"image/color"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/config"
	"github.com/retroenv/retrogolib/log"
)

// DefaultInstructionsPerFrame gives roughly 600 instructions per second at 60 frames.
const DefaultInstructionsPerFrame = 10

// Config contains settings that affect emulation behavior.
type Config struct {
	InstructionsPerFrame int
	StopOnError          bool  // switch to Stopped when an instruction fails
	Trace                bool  // log every instruction at debug level
	Seed                 int64 // random source seed, 0 seeds from the clock
	Foreground           color.RGBA
	Background           color.RGBA
	Logger               *log.Logger
}

// DefaultConfig returns the settings used by the command line tools.
func DefaultConfig() Config {
	c := Config{StopOnError: true}
	c.Defaults()
	return c
}

// Defaults fills unset fields. StopOnError is left alone since false is a valid choice.
func (c *Config) Defaults() {
	if c.InstructionsPerFrame <= 0 {
		c.InstructionsPerFrame = DefaultInstructionsPerFrame
	}
	if c.Foreground == (color.RGBA{}) {
		c.Foreground = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	}
	if c.Background == (color.RGBA{}) {
		c.Background = color.RGBA{A: 0xFF}
	}
	if c.Logger == nil {
		c.Logger = config.CreateLogger(false, true)
	}
}
