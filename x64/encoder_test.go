package x64

import (
	"bytes"
	"testing"
)

func TestEncode_LockPrefix(t *testing.T) {
	inst, err := NewInstruction("ADD", []Operand{RegisterOperand(RAX), RegisterOperand(RBX)}, WithLock())
	if err != nil {
		t.Fatalf("NewInstruction: %v", err)
	}
	got, err := Encode(inst, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0xF0, 0x48, 0x01, 0xD8}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode(lock add rax, rbx) = % X, want % X", got, want)
	}
}

func TestEncode_RepPrefix(t *testing.T) {
	inst, err := NewInstruction("MOV", []Operand{RegisterOperand(RAX), RegisterOperand(RBX)}, WithRep())
	if err != nil {
		t.Fatalf("NewInstruction: %v", err)
	}
	got, err := Encode(inst, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0xF3, 0x48, 0x89, 0xD8}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode(rep mov rax, rbx) = % X, want % X", got, want)
	}
}

func TestEncode_SegmentOverride(t *testing.T) {
	mem, err := NewIndirectOperandBuilder().SetBase(RAX).Build()
	if err != nil {
		t.Fatalf("building memory operand: %v", err)
	}
	inst, err := NewInstruction("MOV", []Operand{RegisterOperand(RCX), IndirectOperandValue(mem)}, WithSegment(GS))
	if err != nil {
		t.Fatalf("NewInstruction: %v", err)
	}
	got, err := Encode(inst, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(got) == 0 || got[0] != PrefixGS {
		t.Errorf("Encode(gs-prefixed mov) = % X, want leading GS prefix 0x%02X", got, PrefixGS)
	}
}

func TestEncode_UnknownMnemonic(t *testing.T) {
	if _, err := Encode(Instruction{}, nil); err == nil {
		t.Error("Encode(zero-value Instruction) succeeded, want error")
	}
}

func TestToHex(t *testing.T) {
	inst, err := NewInstruction("MOV", []Operand{RegisterOperand(RAX), RegisterOperand(RBX)})
	if err != nil {
		t.Fatalf("NewInstruction: %v", err)
	}
	hex, err := ToHex(inst, nil)
	if err != nil {
		t.Fatalf("ToHex: %v", err)
	}
	if hex != "4889d8" {
		t.Errorf("ToHex = %q, want %q", hex, "4889d8")
	}
}
