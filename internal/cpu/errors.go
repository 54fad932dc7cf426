package cpu

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInstruction = errors.New("invalid instruction")
	ErrStackOverflow      = errors.New("stack overflow")
	ErrStackUnderflow     = errors.New("stack underflow")
	ErrAddressOverflow    = errors.New("address overflow")
)

// ExecError reports a failed step. The machine state is left as it was before the step.
type ExecError struct {
	PC     uint16 // address of the failing instruction
	Opcode uint16 // zero when the fetch itself failed
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%v at pc=%#04x (opcode %04X)", e.Err, e.PC, e.Opcode)
}

func (e *ExecError) Unwrap() error { return e.Err }
