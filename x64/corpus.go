package x64

// Encoding is one canonical (Instruction, bytes, text) triple, reconstructed
// by hand from the Intel SDM for the covered mnemonic set (SPEC_FULL.md
// §8). X64Encodings is the shared fixture for the round-trip property
// tests: decode(bytes) == Instruction, encode(Instruction) == bytes,
// parse(text) == Instruction, render(Instruction) == text.
type Encoding struct {
	Name  string
	Bytes []byte
	Text  string
	Build func() (Instruction, error)
}

var X64Encodings = []Encoding{
	{
		Name:  "mov r64, r64",
		Bytes: []byte{0x48, 0x89, 0xD8}, // mov rax, rbx
		Text:  "mov rax, rbx",
		Build: func() (Instruction, error) {
			return NewInstruction("MOV", []Operand{RegisterOperand(RAX), RegisterOperand(RBX)})
		},
	},
	{
		Name:  "mov r32, r32 with extended register",
		Bytes: []byte{0x44, 0x89, 0xC0}, // mov eax, r8d
		Text:  "mov eax, r8d",
		Build: func() (Instruction, error) {
			return NewInstruction("MOV", []Operand{RegisterOperand(EAX), RegisterOperand(R8D)})
		},
	},
	{
		Name:  "mov r8, imm8",
		Bytes: []byte{0xB0, 0x2A}, // mov al, 42
		Text:  "mov al, 0x2a",
		Build: func() (Instruction, error) {
			imm, err := NewImmediate(8, 42)
			if err != nil {
				return Instruction{}, err
			}
			return NewInstruction("MOV", []Operand{RegisterOperand(AL), ImmediateOperand(imm)})
		},
	},
	{
		Name:  "mov r64, imm64",
		Bytes: []byte{0x48, 0xB8, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, // mov rax, 1
		Text:  "mov rax, 0x0000000000000001",
		Build: func() (Instruction, error) {
			imm, err := NewImmediate(64, 1)
			if err != nil {
				return Instruction{}, err
			}
			return NewInstruction("MOV", []Operand{RegisterOperand(RAX), ImmediateOperand(imm)})
		},
	},
	{
		Name:  "mov r64, [base+disp8]",
		Bytes: []byte{0x48, 0x8B, 0x43, 0x08}, // mov rax, [rbx+8]
		Text:  "mov rax, [rbx+0x08]",
		Build: func() (Instruction, error) {
			mem, err := NewIndirectOperandBuilder().SetBase(RBX).SetDisplacement(8).Build()
			if err != nil {
				return Instruction{}, err
			}
			return NewInstruction("MOV", []Operand{RegisterOperand(RAX), IndirectOperandValue(mem)})
		},
	},
	{
		Name:  "mov [base+index*scale+disp32], r32",
		Bytes: []byte{0x89, 0x8C, 0x98, 0x00, 0x01, 0x00, 0x00}, // mov [rax+rbx*4+256], ecx
		Text:  "mov [rax+rbx*4+0x00000100], ecx",
		Build: func() (Instruction, error) {
			mem, err := NewIndirectOperandBuilder().SetBase(RAX).SetIndex(RBX).SetScale(4).SetDisplacement(256).Build()
			if err != nil {
				return Instruction{}, err
			}
			return NewInstruction("MOV", []Operand{IndirectOperandValue(mem), RegisterOperand(ECX)})
		},
	},
	{
		Name:  "lea r64, [rip+disp32]",
		Bytes: []byte{0x48, 0x8D, 0x05, 0x10, 0x00, 0x00, 0x00}, // lea rax, [rip+16]
		Text:  "lea rax, [rip+0x10]",
		Build: func() (Instruction, error) {
			mem, err := NewIndirectOperandBuilder().SetRIPRelative(16).Build()
			if err != nil {
				return Instruction{}, err
			}
			return NewInstruction("LEA", []Operand{RegisterOperand(RAX), IndirectOperandValue(mem)})
		},
	},
	{
		Name:  "movzx r32, r/m8",
		Bytes: []byte{0x0F, 0xB6, 0xC3}, // movzx eax, bl
		Text:  "movzx eax, bl",
		Build: func() (Instruction, error) {
			return NewInstruction("MOVZX", []Operand{RegisterOperand(EAX), RegisterOperand(BL)})
		},
	},
	{
		Name:  "movsx r64, r/m16",
		Bytes: []byte{0x48, 0x0F, 0xBF, 0xC3}, // movsx rax, bx
		Text:  "movsx rax, bx",
		Build: func() (Instruction, error) {
			return NewInstruction("MOVSX", []Operand{RegisterOperand(RAX), RegisterOperand(BX)})
		},
	},
	{
		Name:  "movsxd r64, r/m32",
		Bytes: []byte{0x48, 0x63, 0xC3}, // movsxd rax, ebx
		Text:  "movsxd rax, ebx",
		Build: func() (Instruction, error) {
			return NewInstruction("MOVSXD", []Operand{RegisterOperand(RAX), RegisterOperand(EBX)})
		},
	},
	{
		Name:  "nop (no operands)",
		Bytes: []byte{0x90},
		Text:  "nop",
		Build: func() (Instruction, error) {
			return NewInstruction("NOP", nil)
		},
	},
	{
		Name:  "nop r/m32",
		Bytes: []byte{0x0F, 0x1F, 0xC0}, // nop eax
		Text:  "nop eax",
		Build: func() (Instruction, error) {
			return NewInstruction("NOP", []Operand{RegisterOperand(EAX)})
		},
	},
	{
		Name:  "push r64",
		Bytes: []byte{0x50}, // push rax
		Text:  "push rax",
		Build: func() (Instruction, error) {
			return NewInstruction("PUSH", []Operand{RegisterOperand(RAX)})
		},
	},
	{
		Name:  "push imm32",
		Bytes: []byte{0x68, 0x78, 0x56, 0x34, 0x12}, // push 0x12345678
		Text:  "push 0x12345678",
		Build: func() (Instruction, error) {
			imm, err := NewImmediate(32, 0x12345678)
			if err != nil {
				return Instruction{}, err
			}
			return NewInstruction("PUSH", []Operand{ImmediateOperand(imm)})
		},
	},
	{
		Name:  "pop r64",
		Bytes: []byte{0x58}, // pop rax
		Text:  "pop rax",
		Build: func() (Instruction, error) {
			return NewInstruction("POP", []Operand{RegisterOperand(RAX)})
		},
	},
	{
		Name:  "add r/m32, r32",
		Bytes: []byte{0x01, 0xD8}, // add eax, ebx
		Text:  "add eax, ebx",
		Build: func() (Instruction, error) {
			return NewInstruction("ADD", []Operand{RegisterOperand(EAX), RegisterOperand(EBX)})
		},
	},
	{
		Name:  "add r/m64, imm32",
		Bytes: []byte{0x48, 0x81, 0xC0, 0x0A, 0x00, 0x00, 0x00}, // add rax, 10
		Text:  "add rax, 0x0000000a",
		Build: func() (Instruction, error) {
			imm, err := NewImmediate(32, 10)
			if err != nil {
				return Instruction{}, err
			}
			return NewInstruction("ADD", []Operand{RegisterOperand(RAX), ImmediateOperand(imm)})
		},
	},
	{
		Name:  "xchg r/m64, r64",
		Bytes: []byte{0x48, 0x87, 0xD8}, // xchg rax, rbx
		Text:  "xchg rax, rbx",
		Build: func() (Instruction, error) {
			return NewInstruction("XCHG", []Operand{RegisterOperand(RAX), RegisterOperand(RBX)})
		},
	},
}
