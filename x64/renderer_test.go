package x64

import "testing"

func TestToIntelSyntax_LockPrefix(t *testing.T) {
	inst, err := NewInstruction("ADD", []Operand{RegisterOperand(RAX), RegisterOperand(RBX)}, WithLock())
	if err != nil {
		t.Fatalf("NewInstruction: %v", err)
	}
	got := ToIntelSyntax(inst)
	want := "lock add rax, rbx"
	if got != want {
		t.Errorf("ToIntelSyntax = %q, want %q", got, want)
	}
}

func TestToIntelSyntax_RepPrefix(t *testing.T) {
	inst, err := NewInstruction("MOV", []Operand{RegisterOperand(RAX), RegisterOperand(RBX)}, WithRep())
	if err != nil {
		t.Fatalf("NewInstruction: %v", err)
	}
	got := ToIntelSyntax(inst)
	want := "rep mov rax, rbx"
	if got != want {
		t.Errorf("ToIntelSyntax = %q, want %q", got, want)
	}
}

func TestToIntelSyntax_SegmentOverride(t *testing.T) {
	mem, err := NewIndirectOperandBuilder().SetBase(RAX).Build()
	if err != nil {
		t.Fatalf("building memory operand: %v", err)
	}
	inst, err := NewInstruction("MOV", []Operand{RegisterOperand(RAX), IndirectOperandValue(mem)}, WithSegment(FS))
	if err != nil {
		t.Fatalf("NewInstruction: %v", err)
	}
	got := ToIntelSyntax(inst)
	want := "mov rax, fs:[rax]"
	if got != want {
		t.Errorf("ToIntelSyntax = %q, want %q", got, want)
	}
}

func TestToIntelSyntax_NoOperands(t *testing.T) {
	inst, err := NewInstruction("NOP", nil)
	if err != nil {
		t.Fatalf("NewInstruction: %v", err)
	}
	if got := ToIntelSyntax(inst); got != "nop" {
		t.Errorf("ToIntelSyntax = %q, want %q", got, "nop")
	}
}

func TestToIntelSyntax_NegativeDisplacement(t *testing.T) {
	mem, err := NewIndirectOperandBuilder().SetBase(RBX).SetDisplacement(-8).Build()
	if err != nil {
		t.Fatalf("building memory operand: %v", err)
	}
	inst, err := NewInstruction("MOV", []Operand{RegisterOperand(RAX), IndirectOperandValue(mem)})
	if err != nil {
		t.Fatalf("NewInstruction: %v", err)
	}
	got := ToIntelSyntax(inst)
	want := "mov rax, [rbx-0x08]"
	if got != want {
		t.Errorf("ToIntelSyntax = %q, want %q", got, want)
	}
}
