package x64

import (
	"errors"
	"testing"
)

func mustMem(t *testing.T, build func(*IndirectOperandBuilder) *IndirectOperandBuilder) Operand {
	t.Helper()
	ind, err := build(NewIndirectOperandBuilder()).Build()
	if err != nil {
		t.Fatalf("building memory operand: %v", err)
	}
	return IndirectOperandValue(ind)
}

// S4: Validator rejects MOV [RAX],[RBX]; MOV 0,RAX (immediate destination);
// MOV RAX,EAX; MOV RAX,imm8; MOV with 0/1/3 operands.
func TestValidateMOV_S4(t *testing.T) {
	memRAX := mustMem(t, func(b *IndirectOperandBuilder) *IndirectOperandBuilder { return b.SetBase(RAX) })
	memRBX := mustMem(t, func(b *IndirectOperandBuilder) *IndirectOperandBuilder { return b.SetBase(RBX) })
	imm0, _ := NewImmediate(32, 0)
	imm8, _ := NewImmediate(8, 1)

	cases := []struct {
		name     string
		operands []Operand
	}{
		{"mem to mem", []Operand{memRAX, memRBX}},
		{"immediate destination", []Operand{ImmediateOperand(imm0), RegisterOperand(RAX)}},
		{"width mismatch", []Operand{RegisterOperand(RAX), RegisterOperand(EAX)}},
		{"imm8 into 64-bit register", []Operand{RegisterOperand(RAX), ImmediateOperand(imm8)}},
		{"zero operands", nil},
		{"one operand", []Operand{RegisterOperand(RAX)}},
		{"three operands", []Operand{RegisterOperand(RAX), RegisterOperand(RBX), RegisterOperand(RCX)}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewInstruction("MOV", c.operands)
			if err == nil {
				t.Errorf("NewInstruction(MOV, %v) succeeded, want error", c.operands)
			} else if !errors.Is(err, ErrInvalidInstruction) {
				t.Errorf("error = %v, want ErrInvalidInstruction", err)
			}
		})
	}
}

func TestValidateMOV_PointerSizeMismatch(t *testing.T) {
	memByteRAX := mustMem(t, func(b *IndirectOperandBuilder) *IndirectOperandBuilder {
		return b.SetPointerSize(PointerSizeByte).SetBase(RAX)
	})
	_, err := NewInstruction("MOV", []Operand{RegisterOperand(RAX), memByteRAX})
	if !errors.Is(err, ErrInvalidInstruction) {
		t.Errorf("NewInstruction(MOV rax, byte ptr [rax]) error = %v, want ErrInvalidInstruction", err)
	}
}

// S5: Validator rejects MOVSXD EAX,EAX (destination not 64-bit); MOVSXD
// RAX,AX (source not covered r/m32 shape); MOVSXD RAX,XMM0; MOVSXD
// RAX,[RAX] with QWORD_PTR (source width mismatch, not r/m32).
func TestValidateMOVSXD_S5(t *testing.T) {
	memRAXQword := mustMem(t, func(b *IndirectOperandBuilder) *IndirectOperandBuilder {
		return b.SetPointerSize(PointerSizeQword).SetBase(RAX)
	})

	cases := []struct {
		name     string
		operands []Operand
	}{
		{"dst not 64-bit", []Operand{RegisterOperand(EAX), RegisterOperand(EAX)}},
		{"src not 32-bit", []Operand{RegisterOperand(RAX), RegisterOperand(AX)}},
		{"src is xmm", []Operand{RegisterOperand(RAX), RegisterOperand(XMM0)}},
		{"src is qword memory", []Operand{RegisterOperand(RAX), memRAXQword}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewInstruction("MOVSXD", c.operands)
			if !errors.Is(err, ErrInvalidInstruction) {
				t.Errorf("NewInstruction(MOVSXD, %v) error = %v, want ErrInvalidInstruction", c.operands, err)
			}
		})
	}
}

// S6: Validator rejects NOP AH; NOP BYTE PTR [RAX]; NOP imm8/16/32/64; NOP
// RAX, RAX.
func TestValidateNOP_S6(t *testing.T) {
	memByteRAX := mustMem(t, func(b *IndirectOperandBuilder) *IndirectOperandBuilder {
		return b.SetPointerSize(PointerSizeByte).SetBase(RAX)
	})
	imm8, _ := NewImmediate(8, 1)

	cases := []struct {
		name     string
		operands []Operand
	}{
		{"8-bit register", []Operand{RegisterOperand(AH)}},
		{"byte ptr memory", []Operand{memByteRAX}},
		{"immediate", []Operand{ImmediateOperand(imm8)}},
		{"two operands", []Operand{RegisterOperand(RAX), RegisterOperand(RAX)}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewInstruction("NOP", c.operands)
			if !errors.Is(err, ErrInvalidInstruction) {
				t.Errorf("NewInstruction(NOP, %v) error = %v, want ErrInvalidInstruction", c.operands, err)
			}
		})
	}
}

// S7: Validator rejects LEA with 0/1/3 operands and LEA AH, QWORD PTR [RAX].
func TestValidateLEA_S7(t *testing.T) {
	memQwordRAX := mustMem(t, func(b *IndirectOperandBuilder) *IndirectOperandBuilder {
		return b.SetPointerSize(PointerSizeQword).SetBase(RAX)
	})

	cases := []struct {
		name     string
		operands []Operand
	}{
		{"zero operands", nil},
		{"one operand", []Operand{RegisterOperand(RAX)}},
		{"three operands", []Operand{RegisterOperand(RAX), memQwordRAX, RegisterOperand(RBX)}},
		{"8-bit destination", []Operand{RegisterOperand(AH), memQwordRAX}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewInstruction("LEA", c.operands)
			if !errors.Is(err, ErrInvalidInstruction) {
				t.Errorf("NewInstruction(LEA, %v) error = %v, want ErrInvalidInstruction", c.operands, err)
			}
		})
	}
}

func TestValidateLEA_Accepts(t *testing.T) {
	mem := mustMem(t, func(b *IndirectOperandBuilder) *IndirectOperandBuilder { return b.SetBase(RAX) })
	if _, err := NewInstruction("LEA", []Operand{RegisterOperand(RCX), mem}); err != nil {
		t.Errorf("NewInstruction(LEA, rcx, [rax]) failed: %v", err)
	}
}
