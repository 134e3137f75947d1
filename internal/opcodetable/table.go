package opcodetable

// mnemonicKey names every mnemonic this codec covers, used both as the
// Descriptor table key and embedded in decode-table entries.
const (
	MOV    = "MOV"
	MOVZX  = "MOVZX"
	MOVSX  = "MOVSX"
	MOVSXD = "MOVSXD"
	LEA    = "LEA"
	NOP    = "NOP"
	PUSH   = "PUSH"
	POP    = "POP"
	ADD    = "ADD"
	XCHG   = "XCHG"
)

// Mnemonics lists every covered mnemonic in table declaration order.
var Mnemonics = []string{MOV, MOVZX, MOVSX, MOVSXD, LEA, NOP, PUSH, POP, ADD, XCHG}

// Descriptors is the eagerly-initialized, read-only table of every mnemonic's
// encoding forms. It is the single source of truth consulted by both the
// decoder's forward (map, opcode) lookup and the encoder's reverse
// (mnemonic, operand shape) lookup — adapted from the teacher's
// architecture/x86_64/instructions.go var block, generalized with an
// explicit OpcodeMap/Direction/ModRMReg so a single table serves decode too.
var Descriptors = map[string]*Descriptor{
	// Data movement.
	MOV: {
		Mnemonic: MOV,
		Forms: []Form{
			// MOV r/m8, r8 (store form, MR).
			{Operands: []OperandKind{KindRegMem8, KindReg8}, Map: MapPrimary, Opcode: []byte{0x88}, ModRM: true, ModRMReg: -1, Direction: DirRegToRM},
			// MOV r/m16, r16.
			{Operands: []OperandKind{KindRegMem16, KindReg16}, Map: MapPrimary, Opcode: []byte{0x89}, ModRM: true, ModRMReg: -1, Direction: DirRegToRM},
			// MOV r/m32, r32.
			{Operands: []OperandKind{KindRegMem32, KindReg32}, Map: MapPrimary, Opcode: []byte{0x89}, ModRM: true, ModRMReg: -1, Direction: DirRegToRM},
			// MOV r/m64, r64.
			{Operands: []OperandKind{KindRegMem64, KindReg64}, Map: MapPrimary, Opcode: []byte{0x89}, ModRM: true, ModRMReg: -1, Direction: DirRegToRM, RequiresREXW: true},
			// MOV r8, r/m8 (load form, RM) — needed so a decoded [reg, mem] pair renders dst=reg.
			{Operands: []OperandKind{KindReg8, KindRegMem8}, Map: MapPrimary, Opcode: []byte{0x8A}, ModRM: true, ModRMReg: -1, Direction: DirRMToReg},
			{Operands: []OperandKind{KindReg16, KindRegMem16}, Map: MapPrimary, Opcode: []byte{0x8B}, ModRM: true, ModRMReg: -1, Direction: DirRMToReg},
			{Operands: []OperandKind{KindReg32, KindRegMem32}, Map: MapPrimary, Opcode: []byte{0x8B}, ModRM: true, ModRMReg: -1, Direction: DirRMToReg},
			{Operands: []OperandKind{KindReg64, KindRegMem64}, Map: MapPrimary, Opcode: []byte{0x8B}, ModRM: true, ModRMReg: -1, Direction: DirRMToReg, RequiresREXW: true},
			// MOV r8, imm8.
			{Operands: []OperandKind{KindReg8, KindImm8}, Map: MapPrimary, Opcode: []byte{0xB0}, OpcodeAddsReg: true, ImmSize: 8},
			// MOV r32, imm32 / MOV r64, imm64 (immediate width follows REX.W, an
			// irregularity of this specific opcode — see opcodetable.Form docs).
			{Operands: []OperandKind{KindReg32, KindImm32}, Map: MapPrimary, Opcode: []byte{0xB8}, OpcodeAddsReg: true, ImmSize: 32, ImmFollowsREXW: true},
			{Operands: []OperandKind{KindReg64, KindImm64}, Map: MapPrimary, Opcode: []byte{0xB8}, OpcodeAddsReg: true, ImmSize: 64, RequiresREXW: true, ImmFollowsREXW: true},
		},
	},

	MOVZX: {
		Mnemonic: MOVZX,
		Forms: []Form{
			{Operands: []OperandKind{KindReg32, KindRegMem8}, Map: Map0F, Opcode: []byte{0xB6}, ModRM: true, ModRMReg: -1, Direction: DirRMToReg},
			{Operands: []OperandKind{KindReg32, KindRegMem16}, Map: Map0F, Opcode: []byte{0xB7}, ModRM: true, ModRMReg: -1, Direction: DirRMToReg},
			{Operands: []OperandKind{KindReg64, KindRegMem8}, Map: Map0F, Opcode: []byte{0xB6}, ModRM: true, ModRMReg: -1, Direction: DirRMToReg, RequiresREXW: true},
			{Operands: []OperandKind{KindReg64, KindRegMem16}, Map: Map0F, Opcode: []byte{0xB7}, ModRM: true, ModRMReg: -1, Direction: DirRMToReg, RequiresREXW: true},
		},
	},

	MOVSX: {
		Mnemonic: MOVSX,
		Forms: []Form{
			{Operands: []OperandKind{KindReg32, KindRegMem8}, Map: Map0F, Opcode: []byte{0xBE}, ModRM: true, ModRMReg: -1, Direction: DirRMToReg},
			{Operands: []OperandKind{KindReg32, KindRegMem16}, Map: Map0F, Opcode: []byte{0xBF}, ModRM: true, ModRMReg: -1, Direction: DirRMToReg},
			{Operands: []OperandKind{KindReg64, KindRegMem8}, Map: Map0F, Opcode: []byte{0xBE}, ModRM: true, ModRMReg: -1, Direction: DirRMToReg, RequiresREXW: true},
			{Operands: []OperandKind{KindReg64, KindRegMem16}, Map: Map0F, Opcode: []byte{0xBF}, ModRM: true, ModRMReg: -1, Direction: DirRMToReg, RequiresREXW: true},
		},
	},

	// MOVSXD r64, r/m32 — sign-extends a 32-bit source into a 64-bit
	// destination; always REX.W=1 since the destination is always 64-bit.
	MOVSXD: {
		Mnemonic: MOVSXD,
		Forms: []Form{
			{Operands: []OperandKind{KindReg64, KindRegMem32}, Map: MapPrimary, Opcode: []byte{0x63}, ModRM: true, ModRMReg: -1, Direction: DirRMToReg, RequiresREXW: true},
		},
	},

	LEA: {
		Mnemonic: LEA,
		Forms: []Form{
			{Operands: []OperandKind{KindReg32, KindMem}, Map: MapPrimary, Opcode: []byte{0x8D}, ModRM: true, ModRMReg: -1, Direction: DirRMToReg},
			{Operands: []OperandKind{KindReg64, KindMem}, Map: MapPrimary, Opcode: []byte{0x8D}, ModRM: true, ModRMReg: -1, Direction: DirRMToReg, RequiresREXW: true},
		},
	},

	NOP: {
		Mnemonic: NOP,
		Forms: []Form{
			// NOP (no operands).
			{Operands: nil, Map: MapPrimary, Opcode: []byte{0x90}},
			// NOP r/m16 / r/m32 — multi-byte NOP, group 0 of 0F 1F.
			{Operands: []OperandKind{KindRegMem16}, Map: Map0F, Opcode: []byte{0x1F}, ModRM: true, ModRMReg: 0},
			{Operands: []OperandKind{KindRegMem32}, Map: Map0F, Opcode: []byte{0x1F}, ModRM: true, ModRMReg: 0},
		},
	},

	PUSH: {
		Mnemonic: PUSH,
		Forms: []Form{
			{Operands: []OperandKind{KindReg64}, Map: MapPrimary, Opcode: []byte{0x50}, OpcodeAddsReg: true},
			{Operands: []OperandKind{KindImm8}, Map: MapPrimary, Opcode: []byte{0x6A}, ImmSize: 8},
			{Operands: []OperandKind{KindImm32}, Map: MapPrimary, Opcode: []byte{0x68}, ImmSize: 32},
			{Operands: []OperandKind{KindRegMem64}, Map: MapPrimary, Opcode: []byte{0xFF}, ModRM: true, ModRMReg: 6},
		},
	},

	POP: {
		Mnemonic: POP,
		Forms: []Form{
			{Operands: []OperandKind{KindReg64}, Map: MapPrimary, Opcode: []byte{0x58}, OpcodeAddsReg: true},
		},
	},

	ADD: {
		Mnemonic: ADD,
		Forms: []Form{
			{Operands: []OperandKind{KindRegMem8, KindReg8}, Map: MapPrimary, Opcode: []byte{0x00}, ModRM: true, ModRMReg: -1, Direction: DirRegToRM},
			{Operands: []OperandKind{KindRegMem32, KindReg32}, Map: MapPrimary, Opcode: []byte{0x01}, ModRM: true, ModRMReg: -1, Direction: DirRegToRM},
			{Operands: []OperandKind{KindRegMem64, KindReg64}, Map: MapPrimary, Opcode: []byte{0x01}, ModRM: true, ModRMReg: -1, Direction: DirRegToRM, RequiresREXW: true},
			{Operands: []OperandKind{KindRegMem32, KindImm32}, Map: MapPrimary, Opcode: []byte{0x81}, ModRM: true, ModRMReg: 0, ImmSize: 32},
			{Operands: []OperandKind{KindRegMem64, KindImm32}, Map: MapPrimary, Opcode: []byte{0x81}, ModRM: true, ModRMReg: 0, ImmSize: 32, RequiresREXW: true},
		},
	},

	XCHG: {
		Mnemonic: XCHG,
		Forms: []Form{
			{Operands: []OperandKind{KindRegMem8, KindReg8}, Map: MapPrimary, Opcode: []byte{0x86}, ModRM: true, ModRMReg: -1, Direction: DirRegToRM},
			{Operands: []OperandKind{KindRegMem32, KindReg32}, Map: MapPrimary, Opcode: []byte{0x87}, ModRM: true, ModRMReg: -1, Direction: DirRegToRM},
			{Operands: []OperandKind{KindRegMem64, KindReg64}, Map: MapPrimary, Opcode: []byte{0x87}, ModRM: true, ModRMReg: -1, Direction: DirRegToRM, RequiresREXW: true},
		},
	},
}

// DecodeKey identifies a decode-table bucket: which opcode map the byte(s)
// came from and the literal opcode byte sequence within that map.
type DecodeKey struct {
	Map    OpcodeMap
	Opcode string // Form.Opcode bytes, joined, used as a comparable map key
}

// DecodeEntry is one candidate the decoder tries at a given DecodeKey: the
// owning mnemonic and the specific Form. Several mnemonics may share a
// DecodeKey only when they are distinguished by ModR/M.reg (group opcodes);
// the decoder disambiguates using Form.ModRMReg.
type DecodeEntry struct {
	Mnemonic string
	Form     Form
}

// DecodeIndex is the reverse-indexed view of Descriptors built for the
// decoder's forward lookup, computed once at package init from the same
// table the encoder reads, so the two can never drift apart.
var DecodeIndex = buildDecodeIndex()

func buildDecodeIndex() map[DecodeKey][]DecodeEntry {
	index := make(map[DecodeKey][]DecodeEntry)
	for _, mnemonic := range Mnemonics {
		descriptor := Descriptors[mnemonic]
		for _, form := range descriptor.Forms {
			key := DecodeKey{Map: form.Map, Opcode: string(form.Opcode)}
			index[key] = append(index[key], DecodeEntry{Mnemonic: mnemonic, Form: form})
		}
	}
	return index
}
