package asm

import (
	"fmt"
	"io"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
)

// Disassemble writes a listing of code, loaded at the program start: address, word and
// the instruction in assembler syntax. A trailing odd byte is listed as data.
func Disassemble(w io.Writer, code []byte) error {
	addr := int(bus.ProgramStart)
	for i := 0; i < len(code); i += 2 {
		var err error
		if i+1 == len(code) {
			_, err = fmt.Fprintf(w, "%03X  %02X    db 0x%02X\n", addr+i, code[i], code[i])
		} else {
			word := uint16(code[i])<<8 | uint16(code[i+1])
			_, err = fmt.Fprintf(w, "%03X  %04X  %s\n", addr+i, word, cpu.DecodeInstruction(word))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Source renders code as assembler input that reassembles to the same bytes.
func Source(w io.Writer, code []byte) error {
	for i := 0; i < len(code); i += 2 {
		var err error
		if i+1 == len(code) {
			_, err = fmt.Fprintf(w, "db 0x%02X\n", code[i])
		} else {
			in := cpu.DecodeInstruction(uint16(code[i])<<8 | uint16(code[i+1]))
			if ignoresLowNibble(in) {
				_, err = fmt.Fprintf(w, "db 0x%02X, 0x%02X\n", code[i], code[i+1])
			} else {
				_, err = fmt.Fprintln(w, in)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ignoresLowNibble reports register compares whose unused low nibble is set. They execute
// like the canonical form but would not reassemble to the same word.
func ignoresLowNibble(in cpu.Instruction) bool {
	return (in.Op == cpu.OpSkipEqReg || in.Op == cpu.OpSkipNeReg) && in.Imm4 != 0
}
