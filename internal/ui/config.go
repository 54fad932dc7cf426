package ui

import (
	"image/color"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
	"github.com/hajimehoshi/ebiten/v2"
)

// DefaultKeyMap binds keypad keys 0-F to the matching digit and letter keys.
var DefaultKeyMap = [keypad.NumKeys]ebiten.Key{
	ebiten.KeyDigit0, ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3,
	ebiten.KeyDigit4, ebiten.KeyDigit5, ebiten.KeyDigit6, ebiten.KeyDigit7,
	ebiten.KeyDigit8, ebiten.KeyDigit9, ebiten.KeyA, ebiten.KeyB,
	ebiten.KeyC, ebiten.KeyD, ebiten.KeyE, ebiten.KeyF,
}

// Config contains window and input related settings.
type Config struct {
	Title       string // window title
	Scale       int    // integer upscaling factor
	ROMsDir     string // directory to browse for ROMs
	FastForward int    // frames per update while Tab is held
	// KeyMap holds the host key for each keypad key
	KeyMap     [keypad.NumKeys]ebiten.Key
	Foreground color.RGBA // screenshot colors, should match the machine's
	Background color.RGBA
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "chip8emu"
	}
	if c.Scale <= 0 {
		c.Scale = 10
	}
	if c.ROMsDir == "" {
		c.ROMsDir = "roms"
	}
	if c.FastForward <= 1 {
		c.FastForward = 5
	}
	if c.KeyMap == ([keypad.NumKeys]ebiten.Key{}) {
		c.KeyMap = DefaultKeyMap
	}
	if c.Foreground == (color.RGBA{}) {
		c.Foreground = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	}
	if c.Background == (color.RGBA{}) {
		c.Background = color.RGBA{A: 0xFF}
	}
}
