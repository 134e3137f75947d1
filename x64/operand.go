package x64

import (
	"fmt"

	"github.com/nullreg/x64codec/internal/opcodetable"
)

// OperandTag discriminates the three concrete shapes an Operand may hold.
type OperandTag int

const (
	OperandNone OperandTag = iota
	OperandRegister
	OperandImmediate
	OperandIndirect
)

// Operand is a tagged union over Register, Immediate and IndirectOperand —
// the same closed-set-of-shapes design the teacher uses for instruction
// forms (Design Notes §9), applied here to operand values instead of an
// enum-per-subclass hierarchy.
type Operand struct {
	tag       OperandTag
	register  Register
	immediate Immediate
	indirect  IndirectOperand
}

func RegisterOperand(r Register) Operand {
	return Operand{tag: OperandRegister, register: r}
}

func ImmediateOperand(imm Immediate) Operand {
	return Operand{tag: OperandImmediate, immediate: imm}
}

func IndirectOperandValue(ind IndirectOperand) Operand {
	return Operand{tag: OperandIndirect, indirect: ind}
}

func (o Operand) Tag() OperandTag { return o.tag }
func (o Operand) IsNone() bool    { return o.tag == OperandNone }

// Register returns the wrapped register and true if the operand is a
// register operand.
func (o Operand) Register() (Register, bool) {
	if o.tag != OperandRegister {
		return NullRegister, false
	}
	return o.register, true
}

// Immediate returns the wrapped immediate and true if the operand is an
// immediate operand.
func (o Operand) Immediate() (Immediate, bool) {
	if o.tag != OperandImmediate {
		return Immediate{}, false
	}
	return o.immediate, true
}

// Indirect returns the wrapped memory operand and true if the operand is an
// indirect (memory) operand.
func (o Operand) Indirect() (IndirectOperand, bool) {
	if o.tag != OperandIndirect {
		return IndirectOperand{}, false
	}
	return o.indirect, true
}

func (o Operand) String() string {
	switch o.tag {
	case OperandRegister:
		return o.register.String()
	case OperandImmediate:
		return o.immediate.String()
	case OperandIndirect:
		return fmt.Sprintf("%v", o.indirect)
	default:
		return "<none>"
	}
}

// kind classifies the operand into the opcodetable.OperandKind taxonomy used
// for form selection, returning false when no covered kind matches (a
// register class or width this codec does not encode any form for).
func (o Operand) kind() (opcodetable.OperandKind, bool) {
	switch o.tag {
	case OperandRegister:
		switch o.register.Class() {
		case ClassR8:
			return opcodetable.KindReg8, true
		case ClassR16:
			return opcodetable.KindReg16, true
		case ClassR32:
			return opcodetable.KindReg32, true
		case ClassR64:
			return opcodetable.KindReg64, true
		default:
			return opcodetable.OperandKind{}, false
		}
	case OperandImmediate:
		switch o.immediate.Width() {
		case 8:
			return opcodetable.KindImm8, true
		case 16:
			return opcodetable.KindImm16, true
		case 32:
			return opcodetable.KindImm32, true
		case 64:
			return opcodetable.KindImm64, true
		default:
			return opcodetable.OperandKind{}, false
		}
	case OperandIndirect:
		return opcodetable.OperandKind{Identifier: "mem", Class: "memory", Size: o.indirect.DataWidth()}, true
	default:
		return opcodetable.OperandKind{}, false
	}
}
