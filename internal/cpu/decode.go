package cpu

import "fmt"

// Fields are the raw bit fields of an instruction word. Decoding never fails; whether a
// combination is executable is decided by the Op assigned in DecodeInstruction.
type Fields struct {
	Raw   uint16
	Class byte   // top nibble
	X     byte   // second nibble
	Y     byte   // third nibble
	Addr  uint16 // low 12 bits
	Imm8  byte   // low byte
	Imm4  byte   // low nibble
}

// Decode splits a 16-bit instruction word into its fields.
func Decode(word uint16) Fields {
	return Fields{
		Raw:   word,
		Class: byte(word >> 12),
		X:     byte(word>>8) & 0x0F,
		Y:     byte(word>>4) & 0x0F,
		Addr:  word & 0x0FFF,
		Imm8:  byte(word),
		Imm4:  byte(word) & 0x0F,
	}
}

// Op identifies the operation an instruction word performs.
type Op uint8

const (
	OpInvalid Op = iota
	OpClearScreen
	OpReturn
	OpHalt
	OpJump
	OpCall
	OpSkipEqImm
	OpSkipNeImm
	OpSkipEqReg
	OpSetImm
	OpAddImm
	OpSetReg
	OpOr
	OpAnd
	OpXor
	OpAddReg
	OpSub
	OpShiftRight
	OpSubN
	OpShiftLeft
	OpSkipNeReg
	OpSetIndex
	OpJumpOffset
	OpRandom
	OpDraw
	OpSkipKeyDown
	OpSkipKeyUp
	OpGetDelay
	OpGetKey
	OpSetDelay
	OpSetSound
	OpAddIndex
	OpFontAddr
	OpStoreBCD
	OpStoreRegs
	OpLoadRegs
)

var opNames = [...]string{
	OpInvalid:     "invalid",
	OpClearScreen: "clr",
	OpReturn:      "ret",
	OpHalt:        "halt",
	OpJump:        "j",
	OpCall:        "call",
	OpSkipEqImm:   "be",
	OpSkipNeImm:   "bne",
	OpSkipEqReg:   "be",
	OpSetImm:      "mov",
	OpAddImm:      "add",
	OpSetReg:      "mov",
	OpOr:          "or",
	OpAnd:         "and",
	OpXor:         "xor",
	OpAddReg:      "add",
	OpSub:         "sub",
	OpShiftRight:  "sr",
	OpSubN:        "subn",
	OpShiftLeft:   "sl",
	OpSkipNeReg:   "bne",
	OpSetIndex:    "mov",
	OpJumpOffset:  "jr",
	OpRandom:      "rand",
	OpDraw:        "draw",
	OpSkipKeyDown: "bkd",
	OpSkipKeyUp:   "bku",
	OpGetDelay:    "gdt",
	OpGetKey:      "gk",
	OpSetDelay:    "sdt",
	OpSetSound:    "sst",
	OpAddIndex:    "add",
	OpFontAddr:    "gca",
	OpStoreBCD:    "sbcd",
	OpStoreRegs:   "sb",
	OpLoadRegs:    "lb",
}

// Mnemonic returns the assembler mnemonic of the operation.
func (o Op) Mnemonic() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return opNames[OpInvalid]
}

// Instruction is a decoded instruction: the operation tag plus the fields it reads.
type Instruction struct {
	Op Op
	Fields
}

// DecodeInstruction decodes word and resolves its operation.
func DecodeInstruction(word uint16) Instruction {
	f := Decode(word)
	return Instruction{Op: resolve(f), Fields: f}
}

func resolve(f Fields) Op {
	switch f.Class {
	case 0x0:
		switch f.Raw {
		case 0x00E0:
			return OpClearScreen
		case 0x00EE:
			return OpReturn
		case 0x0001:
			return OpHalt
		}
	case 0x1:
		return OpJump
	case 0x2:
		return OpCall
	case 0x3:
		return OpSkipEqImm
	case 0x4:
		return OpSkipNeImm
	case 0x5:
		return OpSkipEqReg
	case 0x6:
		return OpSetImm
	case 0x7:
		return OpAddImm
	case 0x8:
		switch f.Imm4 {
		case 0x0:
			return OpSetReg
		case 0x1:
			return OpOr
		case 0x2:
			return OpAnd
		case 0x3:
			return OpXor
		case 0x4:
			return OpAddReg
		case 0x5:
			return OpSub
		case 0x6:
			return OpShiftRight
		case 0x7:
			return OpSubN
		case 0xE:
			return OpShiftLeft
		}
	case 0x9:
		return OpSkipNeReg
	case 0xA:
		return OpSetIndex
	case 0xB:
		return OpJumpOffset
	case 0xC:
		return OpRandom
	case 0xD:
		return OpDraw
	case 0xE:
		switch f.Imm8 {
		case 0x9E:
			return OpSkipKeyDown
		case 0xA1:
			return OpSkipKeyUp
		}
	case 0xF:
		switch f.Imm8 {
		case 0x07:
			return OpGetDelay
		case 0x0A:
			return OpGetKey
		case 0x15:
			return OpSetDelay
		case 0x18:
			return OpSetSound
		case 0x1E:
			return OpAddIndex
		case 0x29:
			return OpFontAddr
		case 0x33:
			return OpStoreBCD
		case 0x55:
			return OpStoreRegs
		case 0x65:
			return OpLoadRegs
		}
	}
	return OpInvalid
}

// String disassembles the instruction into the syntax accepted by the assembler.
// Words that do not decode to an operation are rendered as a data directive.
func (in Instruction) String() string {
	m := in.Op.Mnemonic()
	switch in.Op {
	case OpClearScreen, OpReturn, OpHalt:
		return m
	case OpJump, OpCall, OpJumpOffset:
		return fmt.Sprintf("%s 0x%03X", m, in.Addr)
	case OpSkipEqImm, OpSkipNeImm, OpSetImm, OpAddImm, OpRandom:
		return fmt.Sprintf("%s v%X, 0x%02X", m, in.X, in.Imm8)
	case OpSkipEqReg, OpSkipNeReg, OpSetReg, OpOr, OpAnd, OpXor,
		OpAddReg, OpSub, OpShiftRight, OpSubN, OpShiftLeft:
		return fmt.Sprintf("%s v%X, v%X", m, in.X, in.Y)
	case OpSetIndex:
		return fmt.Sprintf("%s i, 0x%03X", m, in.Addr)
	case OpDraw:
		return fmt.Sprintf("%s v%X, v%X, %d", m, in.X, in.Y, in.Imm4)
	case OpAddIndex:
		return fmt.Sprintf("%s i, v%X", m, in.X)
	case OpSkipKeyDown, OpSkipKeyUp, OpGetDelay, OpGetKey, OpSetDelay,
		OpSetSound, OpFontAddr, OpStoreBCD, OpStoreRegs, OpLoadRegs:
		return fmt.Sprintf("%s v%X", m, in.X)
	}
	return fmt.Sprintf("db 0x%02X, 0x%02X", byte(in.Raw>>8), byte(in.Raw))
}
