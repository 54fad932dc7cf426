package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/config"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/macro"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/snapshot"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/statsview"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/term"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/ui"
	"github.com/retroenv/retrogolib/log"
)

type CLIFlags struct {
	ROMPath  string
	ROMsDir  string
	Scale    int
	Title    string
	IPF      int
	Seed     int64
	Trace    bool
	Continue bool // keep running after an instruction fails
	Debug    bool
	Quiet    bool
	Fg, Bg   string
	Stats    bool
	Terminal bool

	// headless
	Headless bool
	Frames   int
	PNGOut   string
	Expect   string // expected display CRC32 (hex)
	Macro    string // Lua script driving the keypad
}

func parseFlags() CLIFlags {
	var f CLIFlags
	flag.StringVar(&f.ROMPath, "rom", "", "path to ROM (.ch8)")
	flag.StringVar(&f.ROMsDir, "romsdir", "roms", "directory listed by the ROM browser")
	flag.IntVar(&f.Scale, "scale", 10, "window scale")
	flag.StringVar(&f.Title, "title", "chip8emu", "window title")
	flag.IntVar(&f.IPF, "ipf", emu.DefaultInstructionsPerFrame, "instructions per frame")
	flag.Int64Var(&f.Seed, "seed", 0, "random seed, 0 seeds from the clock")
	flag.BoolVar(&f.Trace, "trace", false, "log every instruction (needs -debug)")
	flag.BoolVar(&f.Continue, "continue", false, "keep running after an instruction fails")
	flag.BoolVar(&f.Debug, "debug", false, "enable debug logging")
	flag.BoolVar(&f.Quiet, "quiet", false, "only log errors")
	flag.StringVar(&f.Fg, "fg", "ffffff", "foreground color (hex RGB)")
	flag.StringVar(&f.Bg, "bg", "000000", "background color (hex RGB)")
	flag.BoolVar(&f.Stats, "statsview", false, "serve runtime statistics at "+statsview.URL(""))
	flag.BoolVar(&f.Terminal, "term", false, "run inside the terminal instead of a window")

	// headless options
	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.PNGOut, "outpng", "", "write last frame to PNG at path")
	flag.StringVar(&f.Expect, "expect", "", "assert display CRC32 (hex)")
	flag.StringVar(&f.Macro, "macro", "", "Lua script that drives the keypad in headless mode")
	flag.Parse()
	return f
}

func parseColor(s string) (color.RGBA, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 16, 32)
	if err != nil || len(strings.TrimPrefix(s, "#")) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: byte(v >> 16), G: byte(v >> 8), B: byte(v), A: 0xFF}, nil
}

type headlessOptions struct {
	frames  int
	pngPath string
	expect  string
	macro   string
	fg, bg  color.RGBA
}

func runHeadless(logger *log.Logger, m *emu.Machine, opts headlessOptions) error {
	frames := opts.frames
	if frames <= 0 {
		frames = 1
	}

	var mcr *macro.Macro
	if opts.macro != "" {
		var err error
		if mcr, err = macro.Load(opts.macro, m); err != nil {
			return err
		}
		defer mcr.Close()
	}

	start := time.Now()
	ran := 0
	for ran < frames {
		if mcr != nil {
			keys, quit, err := mcr.Frame(m.Frame())
			if err != nil {
				return err
			}
			m.SetKeys(keys)
			if quit {
				break
			}
		}
		// instruction failures are logged by the machine
		_ = m.StepFrame()
		ran++
	}
	dur := time.Since(start)

	crc := m.Display().Checksum()
	logger.Info("Headless run finished",
		log.Int("frames", ran),
		log.String("elapsed", dur.Truncate(time.Millisecond).String()),
		log.String("fps", fmt.Sprintf("%.2f", float64(ran)/dur.Seconds())),
		log.String("crc32", fmt.Sprintf("%08x", crc)),
		log.String("mode", m.CPU().Mode.String()))

	if opts.pngPath != "" {
		if err := snapshot.Save(opts.pngPath, m.Display(), 1, opts.fg, opts.bg); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		logger.Info("Wrote frame", log.String("path", opts.pngPath))
	}

	if opts.expect != "" {
		// normalize expected hex (allow with/without 0x, upper/lowercase)
		want := strings.TrimPrefix(strings.ToLower(opts.expect), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

func main() {
	f := parseFlags()
	logger := config.CreateLogger(f.Debug, f.Quiet)

	fg, err := parseColor(f.Fg)
	if err != nil {
		logger.Fatal(err.Error())
	}
	bg, err := parseColor(f.Bg)
	if err != nil {
		logger.Fatal(err.Error())
	}

	if f.Stats {
		stop := statsview.Launch("", os.Stderr)
		defer stop()
	}

	m := emu.New(emu.Config{
		InstructionsPerFrame: f.IPF,
		StopOnError:          !f.Continue,
		Trace:                f.Trace,
		Seed:                 f.Seed,
		Foreground:           fg,
		Background:           bg,
		Logger:               logger,
	})
	if f.ROMPath != "" {
		if err := m.LoadROMFromFile(f.ROMPath); err != nil {
			logger.Fatal(err.Error())
		}
	}

	switch {
	case f.Headless:
		if f.ROMPath == "" {
			logger.Fatal("-rom is required in headless mode")
		}
		opts := headlessOptions{
			frames:  f.Frames,
			pngPath: f.PNGOut,
			expect:  f.Expect,
			macro:   f.Macro,
			fg:      fg,
			bg:      bg,
		}
		if err := runHeadless(logger, m, opts); err != nil {
			logger.Fatal(err.Error())
		}

	case f.Terminal:
		if f.ROMPath == "" {
			logger.Fatal("-rom is required in terminal mode")
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()
		if err := term.New(m, os.Stdin, os.Stdout).Run(ctx); err != nil {
			logger.Fatal(err.Error())
		}

	default:
		app := ui.NewApp(ui.Config{
			Title:      f.Title,
			Scale:      f.Scale,
			ROMsDir:    f.ROMsDir,
			Foreground: fg,
			Background: bg,
		}, m)
		if err := app.Run(); err != nil {
			logger.Fatal(err.Error())
		}
	}
}
