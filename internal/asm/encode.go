package asm

import "strings"

// form is one accepted operand shape of a mnemonic. Register operands fill X then Y.
// A value operand takes the remaining low bits: 12 with no register, 8 with one and
// 4 with two.
type form struct {
	args []argKind
	base uint16
}

var (
	none     = []argKind{}
	value    = []argKind{argValue}
	reg      = []argKind{argReg}
	regValue = []argKind{argReg, argValue}
	regReg   = []argKind{argReg, argReg}
)

var forms = map[string][]form{
	"clr":  {{none, 0x00E0}},
	"ret":  {{none, 0x00EE}},
	"halt": {{none, 0x0001}},
	"j":    {{value, 0x1000}},
	"call": {{value, 0x2000}},
	"jr":   {{value, 0xB000}},
	"be":   {{regValue, 0x3000}, {regReg, 0x5000}},
	"bne":  {{regValue, 0x4000}, {regReg, 0x9000}},
	"mov": {
		{regValue, 0x6000},
		{regReg, 0x8000},
		{[]argKind{argI, argValue}, 0xA000},
		{[]argKind{argReg, argDT}, 0xF007},
		{[]argKind{argDT, argReg}, 0xF015},
		{[]argKind{argST, argReg}, 0xF018},
	},
	"add": {
		{regValue, 0x7000},
		{regReg, 0x8004},
		{[]argKind{argI, argReg}, 0xF01E},
	},
	"or":   {{regReg, 0x8001}},
	"and":  {{regReg, 0x8002}},
	"xor":  {{regReg, 0x8003}},
	"sub":  {{regReg, 0x8005}},
	"sr":   {{regReg, 0x8006}},
	"subn": {{regReg, 0x8007}},
	"sl":   {{regReg, 0x800E}},
	"rand": {{regValue, 0xC000}},
	"draw": {{[]argKind{argReg, argReg, argValue}, 0xD000}},
	"bkd":  {{reg, 0xE09E}},
	"bku":  {{reg, 0xE0A1}},
	"gdt":  {{reg, 0xF007}},
	"gk":   {{reg, 0xF00A}},
	"sdt":  {{reg, 0xF015}},
	"sst":  {{reg, 0xF018}},
	"gca":  {{reg, 0xF029}},
	"sbcd": {{reg, 0xF033}},
	"sb":   {{reg, 0xF055}},
	"lb":   {{reg, 0xF065}},
}

func (f form) matches(args []operand) bool {
	if len(f.args) != len(args) {
		return false
	}
	for i, k := range f.args {
		if args[i].kind != k {
			return false
		}
	}
	return true
}

func encode(s *statement) (uint16, error) {
	for _, f := range forms[s.mnemonic] {
		if !f.matches(s.args) {
			continue
		}
		word := f.base
		shift := 8
		for _, a := range s.args {
			if a.kind == argReg {
				word |= uint16(a.reg) << shift
				shift -= 4
			}
		}
		for _, a := range s.args {
			if a.kind != argValue {
				continue
			}
			bits := shift + 4
			if a.value >= 1<<bits {
				return 0, errorf(s.line, "value 0x%X does not fit in %d bits", a.value, bits)
			}
			word |= uint16(a.value)
		}
		return word, nil
	}
	return 0, errorf(s.line, "invalid operands for %s: %s", s.mnemonic, describe(s.args))
}

func describe(args []operand) string {
	if len(args) == 0 {
		return "none"
	}
	names := make([]string, len(args))
	for i, a := range args {
		switch a.kind {
		case argReg:
			names[i] = "register"
		case argValue:
			names[i] = "value"
		case argI:
			names[i] = "i"
		case argDT:
			names[i] = "dt"
		case argST:
			names[i] = "st"
		}
	}
	return strings.Join(names, ", ")
}
