package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/config"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/rom"
)

type traceEntry struct {
	pc uint16
	in cpu.Instruction
	v  [16]byte
	i  uint16
	sp byte
}

func (te traceEntry) String() string {
	return fmt.Sprintf("PC=%03X OP=%04X %-18s I=%03X SP=%02d V=% X",
		te.pc, te.in.Raw, te.in.String(), te.i, te.sp, te.v[:])
}

// traceRing keeps the most recent entries.
type traceRing struct {
	entries []traceEntry
	idx     int
	fill    int
}

func newTraceRing(n int) *traceRing {
	if n < 0 {
		n = 0
	}
	return &traceRing{entries: make([]traceEntry, n)}
}

func (r *traceRing) add(te traceEntry) {
	if len(r.entries) == 0 {
		return
	}
	r.entries[r.idx] = te
	r.idx = (r.idx + 1) % len(r.entries)
	if r.fill < len(r.entries) {
		r.fill++
	}
}

// dump prints the entries in chronological order.
func (r *traceRing) dump(w io.Writer) {
	if r.fill == 0 {
		return
	}
	fmt.Fprintf(w, "\n--- recent trace (last %d instructions) ---\n", r.fill)
	start := (r.idx - r.fill + len(r.entries)) % len(r.entries)
	for j := 0; j < r.fill; j++ {
		fmt.Fprintln(w, r.entries[(start+j)%len(r.entries)])
	}
	fmt.Fprintf(w, "--- end trace ---\n")
}

type options struct {
	steps       int
	ipf         int
	trace       bool
	traceOnFail bool
	traceWindow int
	timeout     time.Duration
}

// run steps c until it stops, fails, or a limit is reached. It returns the number of
// executed steps.
func run(c *cpu.CPU, opts options, out io.Writer) (int, error) {
	ring := newTraceRing(opts.traceWindow)
	start := time.Now()
	var deadline time.Time
	if opts.timeout > 0 {
		deadline = start.Add(opts.timeout)
	}
	for i := 0; i < opts.steps; i++ {
		if c.Mode == cpu.Stopped {
			return i, nil
		}
		if opts.ipf > 0 && i > 0 && i%opts.ipf == 0 {
			c.SignalNewFrame()
		}
		if opts.trace || opts.traceOnFail {
			if in, ok := c.Next(); ok {
				te := traceEntry{pc: c.PC, in: in, v: c.V, i: c.I, sp: c.SP}
				if opts.trace {
					fmt.Fprintln(out, te)
				}
				ring.add(te)
			}
		}
		if err := c.Step(); err != nil {
			if opts.traceOnFail {
				ring.dump(out)
			}
			return i, err
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return i + 1, errTimeout
		}
	}
	return opts.steps, nil
}

var errTimeout = errors.New("timeout")

func newRand(seed int64) *rand.Rand { return rand.New(rand.NewSource(seed)) }

func main() {
	romPath := flag.String("rom", "", "path to ROM (.ch8)")
	steps := flag.Int("steps", 1_000_000, "max CPU steps to run")
	ipf := flag.Int("ipf", emu.DefaultInstructionsPerFrame, "steps per frame tick, 0 never ticks")
	seed := flag.Int64("seed", 1, "random seed")
	trace := flag.Bool("trace", false, "print every instruction")
	traceOnFail := flag.Bool("traceOnFail", true, "print a recent trace window when an instruction fails")
	traceWindow := flag.Int("traceWindow", 64, "number of recent instructions to include in 'traceOnFail' dump")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout (e.g. 30s, 2m); 0 disables")
	showDisplay := flag.Bool("display", false, "print the display when done")
	flag.Parse()

	logger := config.CreateLogger(false, false)
	if *romPath == "" {
		logger.Fatal("-rom is required")
	}
	if *traceWindow < 0 {
		logger.Fatal("-traceWindow must not be negative")
	}
	code, err := rom.Load(*romPath)
	if err != nil {
		logger.Fatal(err.Error())
	}

	c := cpu.New(bus.New(), newRand(*seed))
	if err := c.LoadFont(rom.Font[:]); err != nil {
		logger.Fatal(err.Error())
	}
	if err := c.LoadROM(code); err != nil {
		logger.Fatal(err.Error())
	}

	start := time.Now()
	n, err := run(c, options{
		steps:       *steps,
		ipf:         *ipf,
		trace:       *trace,
		traceOnFail: *traceOnFail,
		traceWindow: *traceWindow,
		timeout:     *timeout,
	}, os.Stdout)
	if *showDisplay {
		fmt.Print(c.Display())
	}
	fmt.Printf("\nDone: steps=%d mode=%s elapsed=%s\n", n, c.Mode, time.Since(start).Truncate(time.Millisecond))
	switch {
	case errors.Is(err, errTimeout):
		fmt.Printf("Timeout after %s.\n", time.Since(start).Truncate(time.Millisecond))
		os.Exit(2)
	case err != nil:
		fmt.Printf("Failed: %v\n", err)
		os.Exit(1)
	}
}
