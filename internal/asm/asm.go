// Package asm translates assembly source into a ROM image and back.
//
// A line holds an optional "label:" followed by an optional statement. Comments start
// with '#' or ';'. Operands are registers (v0-vf or v00-v15), the special registers
// i, dt and st, numbers (decimal or 0x hex) and labels. "db" emits raw bytes.
package asm

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/rom"
)

// Error is an assembly failure on a source line.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Msg) }

func errorf(line int, format string, args ...any) *Error {
	return &Error{Line: line, Msg: fmt.Sprintf(format, args...)}
}

var ErrTooLarge = errors.New("program too large")

type argKind uint8

const (
	argReg argKind = iota
	argValue
	argI
	argDT
	argST
)

type operand struct {
	kind  argKind
	reg   byte
	value int
	label string // unresolved value
}

type statement struct {
	line     int
	label    string
	mnemonic string
	args     []operand
	addr     uint16
}

func (s *statement) size() int {
	switch s.mnemonic {
	case "":
		return 0
	case "db":
		return len(s.args)
	}
	return 2
}

// Assemble reads source from r and returns the ROM image, loaded at the program start.
func Assemble(r io.Reader) ([]byte, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}
	return AssembleBytes(src)
}

func AssembleString(src string) ([]byte, error) { return AssembleBytes([]byte(src)) }

func AssembleBytes(src []byte) ([]byte, error) {
	stmts, err := parse(newLexer(src))
	if err != nil {
		return nil, err
	}

	// first pass: addresses and labels
	labels := make(map[string]uint16)
	addr := int(bus.ProgramStart)
	for _, s := range stmts {
		if s.label != "" {
			if _, dup := labels[s.label]; dup {
				return nil, errorf(s.line, "label %q already defined", s.label)
			}
			labels[s.label] = uint16(addr)
		}
		s.addr = uint16(addr)
		addr += s.size()
		if addr-int(bus.ProgramStart) > rom.MaxSize {
			return nil, fmt.Errorf("%w: line %d ends past 0x%03X", ErrTooLarge, s.line, bus.Size-1)
		}
	}

	// second pass: encode
	out := make([]byte, 0, addr-int(bus.ProgramStart))
	for _, s := range stmts {
		for i := range s.args {
			a := &s.args[i]
			if a.label == "" {
				continue
			}
			v, ok := labels[a.label]
			if !ok {
				return nil, errorf(s.line, "undefined label %q", a.label)
			}
			a.value = int(v)
		}
		switch s.mnemonic {
		case "":
		case "db":
			for _, a := range s.args {
				if a.kind != argValue || a.value > 0xFF {
					return nil, errorf(s.line, "db takes byte values")
				}
				out = append(out, byte(a.value))
			}
		default:
			word, err := encode(s)
			if err != nil {
				return nil, err
			}
			out = append(out, byte(word>>8), byte(word))
		}
	}
	return out, nil
}

func parse(l *lexer) ([]*statement, error) {
	var stmts []*statement
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokEOF:
			return stmts, nil
		case tokNewline:
			continue
		case tokIdent:
		default:
			return nil, errorf(tok.line, "unexpected %s", tok.kind)
		}

		s := &statement{line: tok.line}
		next, err := l.next()
		if err != nil {
			return nil, err
		}
		if next.kind == tokColon {
			if _, reserved := parseOperandName(tok.text); reserved {
				return nil, errorf(tok.line, "%q is a register name", tok.text)
			}
			s.label = tok.text
			if tok, err = l.next(); err != nil {
				return nil, err
			}
			if tok.kind == tokNewline || tok.kind == tokEOF {
				stmts = append(stmts, s)
				if tok.kind == tokEOF {
					return stmts, nil
				}
				continue
			}
			if tok.kind != tokIdent {
				return nil, errorf(tok.line, "unexpected %s after label", tok.kind)
			}
			if next, err = l.next(); err != nil {
				return nil, err
			}
		}

		s.mnemonic = strings.ToLower(tok.text)
		if _, ok := forms[s.mnemonic]; !ok && s.mnemonic != "db" {
			return nil, errorf(tok.line, "unknown mnemonic %q", tok.text)
		}
		end, err := parseArgs(l, s, next)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		if end {
			return stmts, nil
		}
	}
}

// parseArgs reads the comma separated operands starting at tok. end reports EOF.
func parseArgs(l *lexer, s *statement, tok token) (end bool, err error) {
	if tok.kind == tokNewline || tok.kind == tokEOF {
		return tok.kind == tokEOF, nil
	}
	for {
		switch tok.kind {
		case tokNumber:
			s.args = append(s.args, operand{kind: argValue, value: tok.val})
		case tokIdent:
			if op, ok := parseOperandName(tok.text); ok {
				s.args = append(s.args, op)
			} else {
				s.args = append(s.args, operand{kind: argValue, label: tok.text})
			}
		default:
			return false, errorf(tok.line, "expected operand, got %s", tok.kind)
		}
		if tok, err = l.next(); err != nil {
			return false, err
		}
		switch tok.kind {
		case tokNewline, tokEOF:
			return tok.kind == tokEOF, nil
		case tokComma:
			if tok, err = l.next(); err != nil {
				return false, err
			}
		default:
			return false, errorf(tok.line, "expected ',' or end of line, got %s", tok.kind)
		}
	}
}

// parseOperandName recognises register operands: vX (hex digit), vNN (decimal 00-15),
// i, dt and st.
func parseOperandName(name string) (operand, bool) {
	n := strings.ToLower(name)
	switch n {
	case "i":
		return operand{kind: argI}, true
	case "dt":
		return operand{kind: argDT}, true
	case "st":
		return operand{kind: argST}, true
	}
	if len(n) < 2 || n[0] != 'v' {
		return operand{}, false
	}
	digits := n[1:]
	switch len(digits) {
	case 1:
		c := digits[0]
		switch {
		case isDigit(c):
			return operand{kind: argReg, reg: c - '0'}, true
		case c >= 'a' && c <= 'f':
			return operand{kind: argReg, reg: c - 'a' + 10}, true
		}
	case 2:
		if isDigit(digits[0]) && isDigit(digits[1]) {
			v := (digits[0]-'0')*10 + digits[1] - '0'
			if v <= 15 {
				return operand{kind: argReg, reg: v}, true
			}
		}
	}
	return operand{}, false
}
