package x64

import (
	"fmt"
	"strings"
)

// ToIntelSyntax renders a validated Instruction as Intel-syntax text (lower
// case mnemonic and registers, the form this codec's corpus and FromHex
// both agree on), the inverse of FromIntelSyntax (SPEC_FULL.md §4.G). The
// "lock "/"rep " prefixes and "seg:" overrides it writes are not accepted by
// FromIntelSyntax.
func ToIntelSyntax(inst Instruction) string {
	var b strings.Builder
	if inst.HasLock() {
		b.WriteString("lock ")
	}
	if inst.HasRep() {
		b.WriteString("rep ")
	}
	b.WriteString(strings.ToLower(inst.Mnemonic()))

	operands := inst.Operands()
	for i, op := range operands {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}
		b.WriteString(renderOperand(op, inst))
	}
	return b.String()
}

func renderOperand(op Operand, inst Instruction) string {
	switch op.Tag() {
	case OperandRegister:
		reg, _ := op.Register()
		return strings.ToLower(reg.Name())
	case OperandImmediate:
		imm, _ := op.Immediate()
		return renderImmediate(imm)
	case OperandIndirect:
		ind, _ := op.Indirect()
		return renderIndirect(ind, inst)
	default:
		return ""
	}
}

func renderIndirect(ind IndirectOperand, inst Instruction) string {
	var b strings.Builder
	if size := ind.PointerSize().String(); size != "" {
		b.WriteString(size)
		b.WriteByte(' ')
	}
	if inst.HasSegment() {
		b.WriteString(strings.ToLower(inst.Segment().Name()))
		b.WriteByte(':')
	}
	b.WriteByte('[')

	if ind.IsRIPRelative() {
		b.WriteString("rip")
		if ind.Displacement() != 0 {
			writeSignedDisplacement(&b, ind.Displacement())
		}
		b.WriteByte(']')
		return b.String()
	}

	wroteTerm := false
	if ind.HasBase() {
		b.WriteString(strings.ToLower(ind.Base().Name()))
		wroteTerm = true
	}
	if ind.HasIndex() {
		if wroteTerm {
			b.WriteByte('+')
		}
		b.WriteString(strings.ToLower(ind.Index().Name()))
		if ind.Scale() > 1 {
			fmt.Fprintf(&b, "*%d", ind.Scale())
		}
		wroteTerm = true
	}
	if ind.HasDisplacement() && ind.Displacement() != 0 {
		writeSignedDisplacement(&b, ind.Displacement())
	}
	b.WriteByte(']')
	return b.String()
}

// renderImmediate prints an immediate as unsigned-looking hex of width
// matching its width tag (SPEC_FULL.md §4.G): the raw two's-complement bit
// pattern, not the signed decimal value, so e.g. an imm8 holding -1 renders
// as "0xff".
func renderImmediate(imm Immediate) string {
	digits := int(imm.Width()) / 4
	var mask uint64
	if imm.Width() == 64 {
		mask = ^uint64(0)
	} else {
		mask = 1<<imm.Width() - 1
	}
	bits := uint64(imm.Value()) & mask
	return fmt.Sprintf("0x%0*x", digits, bits)
}

// writeSignedDisplacement prints a memory displacement as a sign character
// followed by its magnitude in hex, zero-padded to its natural encoding
// width: two digits when the value fits a disp8, eight otherwise
// (SPEC_FULL.md §4.G).
func writeSignedDisplacement(b *strings.Builder, disp int32) {
	sign := byte('+')
	mag := int64(disp)
	if disp < 0 {
		sign = '-'
		mag = -mag
	}
	digits := 8
	if disp >= -128 && disp <= 127 {
		digits = 2
	}
	fmt.Fprintf(b, "%c0x%0*x", sign, digits, mag)
}
