package opcodetable

// OpcodeMap identifies which opcode-byte map a Form's Opcode bytes are drawn
// from, mirroring the decoder's escape-byte scan (primary, 0x0F two-byte,
// 0x0F 0x38 / 0x0F 0x3A three-byte).
type OpcodeMap int

const (
	MapPrimary OpcodeMap = iota
	Map0F
	Map0F38
	Map0F3A
)

// Direction records which ModR/M field (reg or rm) carries the destination,
// used by the encoder to decide whether the first or second operand feeds
// ModR/M.reg.
type Direction int

const (
	// DirNone - form has no ModR/M-encoded register pair (e.g. opcode+reg, or no operands).
	DirNone Direction = iota
	// DirRegToRM - ModR/M.reg is the source, ModR/M.rm is the destination (MR encoding, e.g. plain MOV store).
	DirRegToRM
	// DirRMToReg - ModR/M.rm is the source, ModR/M.reg is the destination (RM encoding, e.g. LEA, MOVZX).
	DirRMToReg
)

// Form is one encoding variant of a mnemonic: a fixed opcode byte sequence
// plus the operand template and follow-on-byte requirements needed to both
// recognize it while decoding and reconstruct it while encoding.
type Form struct {
	Operands []OperandKind // operand-slot templates, in Intel (dst, src, ...) order
	Map      OpcodeMap
	Opcode   []byte // opcode byte(s) within the map, excluding map-escape bytes
	// OpcodeAddsReg is true when the low 3 bits of the final opcode byte
	// encode a register (e.g. PUSH r64 = 0x50+rd, MOV r32, imm32 = 0xB8+rd).
	OpcodeAddsReg bool
	ModRM         bool // a ModR/M byte follows the opcode
	// ModRMReg, when ModRM is true and OpcodeAddsReg is false, pins ModR/M.reg
	// to a fixed group-opcode extension (e.g. 0xFF /6 for PUSH r/m64); -1 means
	// ModR/M.reg is a genuine register operand, not a group selector.
	ModRMReg int
	Direction Direction
	ImmSize   int // immediate size in bits; 0 if no immediate
	// RequiresREXW marks forms that need REX.W=1 regardless of whether any
	// operand is otherwise REX-extended (the 64-bit operand-size forms).
	RequiresREXW bool
	// ImmFollowsREXW marks the MOV r32/r64, imm irregularity where the
	// immediate width itself (not just the register width) is 64 bits when
	// REX.W is set and 32 bits otherwise, rather than a single fixed ImmSize.
	ImmFollowsREXW bool
}

// Matches reports whether the form's operand template has the same arity and
// per-slot class/size as the supplied kinds (used by encoder form selection).
func (f Form) Matches(operands []OperandKind) bool {
	if len(f.Operands) != len(operands) {
		return false
	}
	for i, want := range f.Operands {
		got := operands[i]
		if want.Class == "register/memory" {
			if got.Class != "register" && got.Class != "memory" {
				return false
			}
			if want.Size != 0 && got.Size != 0 && want.Size != got.Size {
				return false
			}
			continue
		}
		if want.Identifier != got.Identifier {
			return false
		}
	}
	return true
}
