// Command chipc assembles a source file into a ROM image, or lists an existing ROM.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/asm"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/config"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/rom"
	"github.com/retroenv/retrogolib/log"
)

type options struct {
	input   string
	output  string
	listing bool // print address, word and instruction for each word
	disasm  bool // input is a ROM, write reassemblable source
}

func main() {
	var opts options
	flag.StringVar(&opts.output, "o", "", "output file (default: input with .ch8, or stdout for -d)")
	flag.BoolVar(&opts.listing, "l", false, "print a listing of the assembled program")
	flag.BoolVar(&opts.disasm, "d", false, "disassemble a ROM into source")
	quiet := flag.Bool("q", false, "only log errors")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: chipc [options] <file>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := config.CreateLogger(false, *quiet)
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	opts.input = flag.Arg(0)

	var err error
	if opts.disasm {
		err = disassemble(opts, os.Stdout)
	} else {
		err = assemble(logger, opts, os.Stdout)
	}
	if err != nil {
		logger.Fatal(err.Error())
	}
}

func outputPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".ch8"
}

func assemble(logger *log.Logger, opts options, stdout io.Writer) error {
	f, err := os.Open(opts.input)
	if err != nil {
		return err
	}
	defer f.Close()

	code, err := asm.Assemble(f)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.input, err)
	}
	out := opts.output
	if out == "" {
		out = outputPath(opts.input)
	}
	if err := os.WriteFile(out, code, 0o644); err != nil {
		return err
	}
	logger.Info("Assembled", log.String("output", out), log.Int("size", len(code)))
	if opts.listing {
		return asm.Disassemble(stdout, code)
	}
	return nil
}

func disassemble(opts options, stdout io.Writer) error {
	code, err := rom.Load(opts.input)
	if err != nil {
		return err
	}
	if opts.listing {
		return asm.Disassemble(stdout, code)
	}
	if opts.output == "" {
		return asm.Source(stdout, code)
	}
	f, err := os.Create(opts.output)
	if err != nil {
		return err
	}
	if err := asm.Source(f, code); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
