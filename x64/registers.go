package x64

import "fmt"

// RegisterClass is the discriminator of the Register tagged union,
// replacing the teacher's parallel enum-class hierarchy (registers.go) with
// a single closed sum type per Design Notes §9.
type RegisterClass int

const (
	// ClassNone identifies the NullRegister sentinel (SPEC_FULL.md §3): used
	// internally by the decoder before a register class is resolved. It
	// never escapes to a validated Instruction.
	ClassNone RegisterClass = iota
	ClassR8
	ClassR16
	ClassR32
	ClassR64
	ClassXMM
	// ClassSegment covers the six segment-override registers (CS/SS/DS/ES/FS/GS).
	// They never appear in ModR/M or REX encoding — only as the operand of a
	// segment-override prefix byte (SPEC_FULL.md §4.E PREFIXES step) — so
	// Width reports 0 for them rather than a meaningful bit size.
	ClassSegment
)

// Register is a single x86-64 register value: its class, canonical name,
// 3-bit encoding nibble (0-7), whether it is one of the extended R8..R15
// family (requires a REX bit to select), and — for the R8 class only —
// whether it additionally requires REX presence to disambiguate from the
// legacy AH/CH/DH/BH encodings (SPL/BPL/SIL/DIL).
type Register struct {
	class       RegisterClass
	name        string
	nibble      byte
	extension   bool
	needsRexLow bool // R8 class only: true for SPL/BPL/SIL/DIL
}

// NullRegister is the sentinel described in SPEC_FULL.md §3.
var NullRegister = Register{class: ClassNone, name: "<null>"}

func (r Register) Class() RegisterClass { return r.class }
func (r Register) Name() string         { return r.name }
func (r Register) IsNull() bool         { return r.class == ClassNone }

// Width returns the register's width in bits.
func (r Register) Width() int {
	switch r.class {
	case ClassR8:
		return 8
	case ClassR16:
		return 16
	case ClassR32:
		return 32
	case ClassR64:
		return 64
	case ClassXMM:
		return 128
	default:
		return 0
	}
}

var (
	CS = reg(ClassSegment, "cs", 0, false)
	SS = reg(ClassSegment, "ss", 0, false)
	DS = reg(ClassSegment, "ds", 0, false)
	ES = reg(ClassSegment, "es", 0, false)
	FS = reg(ClassSegment, "fs", 0, false)
	GS = reg(ClassSegment, "gs", 0, false)
)

// RequiresExtension reports whether this register is one of R8..R15 (in any
// class), i.e. needs a REX.R/X/B bit to be selected.
func (r Register) RequiresExtension() bool { return r.extension }

// RequiresREXPrefix reports whether a REX prefix byte must be present (even
// REX with no bits set) for this register to be selectable at all: true for
// any extended register, and true for SPL/BPL/SIL/DIL which would otherwise
// decode as AH/CH/DH/BH.
func (r Register) RequiresREXPrefix() bool {
	return r.extension || r.needsRexLow
}

// String renders the canonical lowercase register name.
func (r Register) String() string { return r.name }

func reg(class RegisterClass, name string, nibble byte, extension bool) Register {
	return Register{class: class, name: name, nibble: nibble, extension: extension}
}

// 64-bit general-purpose registers.
var (
	RAX = reg(ClassR64, "rax", 0, false)
	RCX = reg(ClassR64, "rcx", 1, false)
	RDX = reg(ClassR64, "rdx", 2, false)
	RBX = reg(ClassR64, "rbx", 3, false)
	RSP = reg(ClassR64, "rsp", 4, false)
	RBP = reg(ClassR64, "rbp", 5, false)
	RSI = reg(ClassR64, "rsi", 6, false)
	RDI = reg(ClassR64, "rdi", 7, false)
	R8  = reg(ClassR64, "r8", 0, true)
	R9  = reg(ClassR64, "r9", 1, true)
	R10 = reg(ClassR64, "r10", 2, true)
	R11 = reg(ClassR64, "r11", 3, true)
	R12 = reg(ClassR64, "r12", 4, true)
	R13 = reg(ClassR64, "r13", 5, true)
	R14 = reg(ClassR64, "r14", 6, true)
	R15 = reg(ClassR64, "r15", 7, true)
	// RIP is only ever valid as a RIP-relative indirect-operand base (§3); it
	// is never selectable through FromCode since no ModR/M/SIB field
	// encodes it directly (mod=00,rm=101 with no base register is the
	// signal the decoder recognizes instead).
	RIP = reg(ClassR64, "rip", 0xFF, false)
)

// 32-bit general-purpose registers.
var (
	EAX  = reg(ClassR32, "eax", 0, false)
	ECX  = reg(ClassR32, "ecx", 1, false)
	EDX  = reg(ClassR32, "edx", 2, false)
	EBX  = reg(ClassR32, "ebx", 3, false)
	ESP  = reg(ClassR32, "esp", 4, false)
	EBP  = reg(ClassR32, "ebp", 5, false)
	ESI  = reg(ClassR32, "esi", 6, false)
	EDI  = reg(ClassR32, "edi", 7, false)
	R8D  = reg(ClassR32, "r8d", 0, true)
	R9D  = reg(ClassR32, "r9d", 1, true)
	R10D = reg(ClassR32, "r10d", 2, true)
	R11D = reg(ClassR32, "r11d", 3, true)
	R12D = reg(ClassR32, "r12d", 4, true)
	R13D = reg(ClassR32, "r13d", 5, true)
	R14D = reg(ClassR32, "r14d", 6, true)
	R15D = reg(ClassR32, "r15d", 7, true)
	// EIP is only ever valid as a RIP-relative base; see RIP above.
	EIP = reg(ClassR32, "eip", 0xFF, false)
)

// 16-bit general-purpose registers.
var (
	AX   = reg(ClassR16, "ax", 0, false)
	CX   = reg(ClassR16, "cx", 1, false)
	DX   = reg(ClassR16, "dx", 2, false)
	BX   = reg(ClassR16, "bx", 3, false)
	SP   = reg(ClassR16, "sp", 4, false)
	BP   = reg(ClassR16, "bp", 5, false)
	SI   = reg(ClassR16, "si", 6, false)
	DI   = reg(ClassR16, "di", 7, false)
	R8W  = reg(ClassR16, "r8w", 0, true)
	R9W  = reg(ClassR16, "r9w", 1, true)
	R10W = reg(ClassR16, "r10w", 2, true)
	R11W = reg(ClassR16, "r11w", 3, true)
	R12W = reg(ClassR16, "r12w", 4, true)
	R13W = reg(ClassR16, "r13w", 5, true)
	R14W = reg(ClassR16, "r14w", 6, true)
	R15W = reg(ClassR16, "r15w", 7, true)
)

// 8-bit general-purpose registers, low byte.
var (
	AL   = reg(ClassR8, "al", 0, false)
	CL   = reg(ClassR8, "cl", 1, false)
	DL   = reg(ClassR8, "dl", 2, false)
	BL   = reg(ClassR8, "bl", 3, false)
	SPL  = regRexLow("spl", 4)
	BPL  = regRexLow("bpl", 5)
	SIL  = regRexLow("sil", 6)
	DIL  = regRexLow("dil", 7)
	R8B  = reg(ClassR8, "r8b", 0, true)
	R9B  = reg(ClassR8, "r9b", 1, true)
	R10B = reg(ClassR8, "r10b", 2, true)
	R11B = reg(ClassR8, "r11b", 3, true)
	R12B = reg(ClassR8, "r12b", 4, true)
	R13B = reg(ClassR8, "r13b", 5, true)
	R14B = reg(ClassR8, "r14b", 6, true)
	R15B = reg(ClassR8, "r15b", 7, true)
)

// 8-bit general-purpose registers, high byte (legacy; selectable only with
// no REX prefix present — see R8FromCode).
var (
	AH = reg(ClassR8, "ah", 4, false)
	CH = reg(ClassR8, "ch", 5, false)
	DH = reg(ClassR8, "dh", 6, false)
	BH = reg(ClassR8, "bh", 7, false)
)

func regRexLow(name string, nibble byte) Register {
	r := reg(ClassR8, name, nibble, false)
	r.needsRexLow = true
	return r
}

// XMM registers.
var (
	XMM0  = reg(ClassXMM, "xmm0", 0, false)
	XMM1  = reg(ClassXMM, "xmm1", 1, false)
	XMM2  = reg(ClassXMM, "xmm2", 2, false)
	XMM3  = reg(ClassXMM, "xmm3", 3, false)
	XMM4  = reg(ClassXMM, "xmm4", 4, false)
	XMM5  = reg(ClassXMM, "xmm5", 5, false)
	XMM6  = reg(ClassXMM, "xmm6", 6, false)
	XMM7  = reg(ClassXMM, "xmm7", 7, false)
	XMM8  = reg(ClassXMM, "xmm8", 0, true)
	XMM9  = reg(ClassXMM, "xmm9", 1, true)
	XMM10 = reg(ClassXMM, "xmm10", 2, true)
	XMM11 = reg(ClassXMM, "xmm11", 3, true)
	XMM12 = reg(ClassXMM, "xmm12", 4, true)
	XMM13 = reg(ClassXMM, "xmm13", 5, true)
	XMM14 = reg(ClassXMM, "xmm14", 6, true)
	XMM15 = reg(ClassXMM, "xmm15", 7, true)
)

// r8Low, r8High, r8Rex, r8Ext index the R8 class by nibble for each of its
// three disjoint sub-families, used by R8FromCode to resolve the overlap at
// encodings 4-7.
var (
	r8Low  = [4]Register{AL, CL, DL, BL}
	r8High = [4]Register{AH, CH, DH, BH}
	r8Rex  = [4]Register{SPL, BPL, SIL, DIL}
	r8Ext  = [8]Register{R8B, R9B, R10B, R11B, R12B, R13B, R14B, R15B}
)

var (
	r16Table = [8]Register{AX, CX, DX, BX, SP, BP, SI, DI}
	r16Ext   = [8]Register{R8W, R9W, R10W, R11W, R12W, R13W, R14W, R15W}
	r32Table = [8]Register{EAX, ECX, EDX, EBX, ESP, EBP, ESI, EDI}
	r32Ext   = [8]Register{R8D, R9D, R10D, R11D, R12D, R13D, R14D, R15D}
	r64Table = [8]Register{RAX, RCX, RDX, RBX, RSP, RBP, RSI, RDI}
	r64Ext   = [8]Register{R8, R9, R10, R11, R12, R13, R14, R15}
	xmmTable = [8]Register{XMM0, XMM1, XMM2, XMM3, XMM4, XMM5, XMM6, XMM7}
	xmmExt   = [8]Register{XMM8, XMM9, XMM10, XMM11, XMM12, XMM13, XMM14, XMM15}
)

func validNibble(nibble byte) error {
	if nibble > 7 {
		return fmt.Errorf("register encoding nibble %d out of range [0,7]: %w", nibble, ErrInvalidArgument)
	}
	return nil
}

// R8FromCode is the inverse of the R8 instruction encoding (SPEC_FULL.md
// §4.B). With extension=false and nibble in [4,7], rexPresent selects
// between the legacy high-byte registers (AH/CH/DH/BH, rexPresent=false)
// and the REX-only low registers (SPL/BPL/SIL/DIL, rexPresent=true).
func R8FromCode(nibble byte, extension, rexPresent bool) (Register, error) {
	if err := validNibble(nibble); err != nil {
		return NullRegister, err
	}
	if extension {
		return r8Ext[nibble], nil
	}
	if nibble < 4 {
		return r8Low[nibble], nil
	}
	if rexPresent {
		return r8Rex[nibble-4], nil
	}
	return r8High[nibble-4], nil
}

func R16FromCode(nibble byte, extension bool) (Register, error) {
	if err := validNibble(nibble); err != nil {
		return NullRegister, err
	}
	if extension {
		return r16Ext[nibble], nil
	}
	return r16Table[nibble], nil
}

func R32FromCode(nibble byte, extension bool) (Register, error) {
	if err := validNibble(nibble); err != nil {
		return NullRegister, err
	}
	if extension {
		return r32Ext[nibble], nil
	}
	return r32Table[nibble], nil
}

func R64FromCode(nibble byte, extension bool) (Register, error) {
	if err := validNibble(nibble); err != nil {
		return NullRegister, err
	}
	if extension {
		return r64Ext[nibble], nil
	}
	return r64Table[nibble], nil
}

func XMMFromCode(nibble byte, extension bool) (Register, error) {
	if err := validNibble(nibble); err != nil {
		return NullRegister, err
	}
	if extension {
		return xmmExt[nibble], nil
	}
	return xmmTable[nibble], nil
}

// FromCodeInClass dispatches to the class-specific FromCode function. rex8
// only matters when class is ClassR8.
func FromCodeInClass(class RegisterClass, nibble byte, extension, rex8 bool) (Register, error) {
	switch class {
	case ClassR8:
		return R8FromCode(nibble, extension, rex8)
	case ClassR16:
		return R16FromCode(nibble, extension)
	case ClassR32:
		return R32FromCode(nibble, extension)
	case ClassR64:
		return R64FromCode(nibble, extension)
	case ClassXMM:
		return XMMFromCode(nibble, extension)
	default:
		return NullRegister, fmt.Errorf("unknown register class %d: %w", class, ErrInvalidArgument)
	}
}

// ToCode is the inverse of FromCode: the register's 3-bit encoding nibble
// and whether it requires a REX extension bit to express. Passing the null
// sentinel fails with ErrInvalidArgument.
func ToCode(r Register) (nibble byte, extension bool, err error) {
	if r.IsNull() {
		return 0, false, fmt.Errorf("cannot encode NullRegister: %w", ErrInvalidArgument)
	}
	return r.nibble, r.extension, nil
}

// RequiresExtension mirrors Register.RequiresExtension as a free function
// per SPEC_FULL.md §4.B's functional signature; it fails on the null
// sentinel like every other register operation.
func RequiresExtension(r Register) (bool, error) {
	if r.IsNull() {
		return false, fmt.Errorf("cannot inspect NullRegister: %w", ErrInvalidArgument)
	}
	return r.extension, nil
}

// RequiresREXPrefix mirrors Register.RequiresREXPrefix as a free function.
func RequiresREXPrefix(r Register) (bool, error) {
	if r.IsNull() {
		return false, fmt.Errorf("cannot inspect NullRegister: %w", ErrInvalidArgument)
	}
	return r.RequiresREXPrefix(), nil
}

// RegistersByName supports the Intel-syntax parser's register lookup,
// adapted from the teacher's architecture/x86_64/registers.go map of the
// same name.
var RegistersByName = map[string]Register{
	"rax": RAX, "rcx": RCX, "rdx": RDX, "rbx": RBX,
	"rsp": RSP, "rbp": RBP, "rsi": RSI, "rdi": RDI,
	"r8": R8, "r9": R9, "r10": R10, "r11": R11,
	"r12": R12, "r13": R13, "r14": R14, "r15": R15,
	"rip": RIP,

	"eax": EAX, "ecx": ECX, "edx": EDX, "ebx": EBX,
	"esp": ESP, "ebp": EBP, "esi": ESI, "edi": EDI,
	"r8d": R8D, "r9d": R9D, "r10d": R10D, "r11d": R11D,
	"r12d": R12D, "r13d": R13D, "r14d": R14D, "r15d": R15D,
	"eip": EIP,

	"ax": AX, "cx": CX, "dx": DX, "bx": BX,
	"sp": SP, "bp": BP, "si": SI, "di": DI,
	"r8w": R8W, "r9w": R9W, "r10w": R10W, "r11w": R11W,
	"r12w": R12W, "r13w": R13W, "r14w": R14W, "r15w": R15W,

	"al": AL, "cl": CL, "dl": DL, "bl": BL,
	"spl": SPL, "bpl": BPL, "sil": SIL, "dil": DIL,
	"r8b": R8B, "r9b": R9B, "r10b": R10B, "r11b": R11B,
	"r12b": R12B, "r13b": R13B, "r14b": R14B, "r15b": R15B,
	"ah": AH, "ch": CH, "dh": DH, "bh": BH,

	"xmm0": XMM0, "xmm1": XMM1, "xmm2": XMM2, "xmm3": XMM3,
	"xmm4": XMM4, "xmm5": XMM5, "xmm6": XMM6, "xmm7": XMM7,
	"xmm8": XMM8, "xmm9": XMM9, "xmm10": XMM10, "xmm11": XMM11,
	"xmm12": XMM12, "xmm13": XMM13, "xmm14": XMM14, "xmm15": XMM15,

	"cs": CS, "ss": SS, "ds": DS, "es": ES, "fs": FS, "gs": GS,
}
