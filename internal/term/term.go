// Package term runs the machine inside a terminal. Two pixel rows share one text line
// using half-block glyphs, and typed characters are turned into short key presses.
package term

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
	"golang.org/x/term"
)

// DefaultHoldFrames is how long a typed key stays down. Terminals report no key-up.
const DefaultHoldFrames = 6

var ErrNotTerminal = errors.New("stdin is not a terminal")

const (
	ctrlC = 0x03
	esc   = 0x1B
)

// Frontend feeds terminal input to a machine and redraws it 60 times per second.
type Frontend struct {
	m    *emu.Machine
	in   *os.File
	out  io.Writer
	hold [keypad.NumKeys]int // frames left before the key is released

	HoldFrames int
}

func New(m *emu.Machine, in *os.File, out io.Writer) *Frontend {
	return &Frontend{m: m, in: in, out: out, HoldFrames: DefaultHoldFrames}
}

// Run puts the terminal in raw mode and drives the machine until ctx is done or the
// user presses Esc or Ctrl-C.
func (f *Frontend) Run(ctx context.Context) error {
	fd := int(f.in.Fd())
	if !term.IsTerminal(fd) {
		return ErrNotTerminal
	}
	if w, h, err := term.GetSize(fd); err == nil && (w < display.Width || h < display.Height/2+1) {
		return fmt.Errorf("terminal is %dx%d, need at least %dx%d", w, h, display.Width, display.Height/2+1)
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("setting raw mode: %w", err)
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	// clear, hide cursor; show it again on exit
	fmt.Fprint(f.out, "\x1b[2J\x1b[?25l")
	defer fmt.Fprint(f.out, "\x1b[?25h\r\n")

	input := make(chan byte, 64)
	done := make(chan struct{})
	defer close(done)
	go readInput(f.in, input, done)

	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()
	w := bufio.NewWriter(f.out)
	for {
		select {
		case <-ctx.Done():
			return nil
		case b, ok := <-input:
			if !ok || b == ctrlC || b == esc {
				return nil
			}
			f.Type(b)
		case <-ticker.C:
			f.m.SetKeys(f.Tick())
			// failures are logged by the machine and show as a frozen screen
			_ = f.m.StepFrame()
			Render(w, f.m.Display())
			f.status(w)
			if err := w.Flush(); err != nil {
				return err
			}
		}
	}
}

// readInput forwards bytes from r until done is closed or r fails. A Read that is
// already blocked only returns with the next keystroke.
func readInput(r io.Reader, out chan<- byte, done <-chan struct{}) {
	defer close(out)
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			select {
			case out <- b:
			case <-done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// KeyFor maps a typed character to a keypad key: 0-9 and a-f, either case.
func KeyFor(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

// Type presses the key for b, or extends its hold when it is already down.
func (f *Frontend) Type(b byte) {
	if k, ok := KeyFor(b); ok {
		f.hold[k] = f.HoldFrames
	}
}

// Tick advances the hold counters by one frame and returns the keypad state for it.
// A key whose hold runs out this frame is reported as released.
func (f *Frontend) Tick() emu.Keys {
	var k emu.Keys
	for i := range f.hold {
		if f.hold[i] == 0 {
			continue
		}
		f.hold[i]--
		if f.hold[i] == 0 {
			// only one release fits in a frame, the lowest key wins
			if !k.HasRelease {
				k.Released = byte(i)
				k.HasRelease = true
			}
		} else {
			k.Down[i] = true
		}
	}
	return k
}

func (f *Frontend) status(w io.Writer) {
	state := "running"
	if !f.m.Running() {
		state = "stopped"
	}
	beep := ""
	if f.m.Beeping() {
		beep = " BEEP"
	}
	fmt.Fprintf(w, "\x1b[K frame %d  %s%s  keys 0-9 a-f, esc quits\r\n", f.m.Frame(), state, beep)
}

// Render draws the display at the top left of the terminal.
func Render(w io.Writer, d *display.Buffer) {
	io.WriteString(w, "\x1b[H")
	line := make([]rune, 0, display.Width)
	for y := 0; y < display.Height; y += 2 {
		line = line[:0]
		for x := 0; x < display.Width; x++ {
			line = append(line, cell(d.Pixel(x, y), d.Pixel(x, y+1)))
		}
		io.WriteString(w, string(line))
		io.WriteString(w, "\r\n")
	}
}

func cell(top, bottom bool) rune {
	switch {
	case top && bottom:
		return '█'
	case top:
		return '▀'
	case bottom:
		return '▄'
	}
	return ' '
}
