package x64

import "fmt"

// PointerSize names the size-override keyword an Intel-syntax memory operand
// carries (BYTE PTR, DWORD PTR, ...) when the operand size cannot otherwise
// be inferred from a register operand in the same instruction.
type PointerSize int

const (
	PointerSizeNone PointerSize = iota
	PointerSizeByte
	PointerSizeWord
	PointerSizeDword
	PointerSizeQword
	PointerSizeXmmword
)

func (p PointerSize) String() string {
	switch p {
	case PointerSizeByte:
		return "BYTE PTR"
	case PointerSizeWord:
		return "WORD PTR"
	case PointerSizeDword:
		return "DWORD PTR"
	case PointerSizeQword:
		return "QWORD PTR"
	case PointerSizeXmmword:
		return "XMMWORD PTR"
	default:
		return ""
	}
}

// IndirectOperand is a memory reference: [base + index*scale + displacement],
// any of whose components may be absent, plus an optional RIP-relative form.
// Cross-field invariants (base/index width agreement, valid scale, RSP never
// an index, RIP excludes base/index) are enforced once, atomically, by
// IndirectOperandBuilder.Build — not scattered across callers — following the
// teacher's validate-at-construction discipline for operand types
// (architecture/x86_64/operands.go).
type IndirectOperand struct {
	pointerSize  PointerSize
	base         Register
	index        Register
	scale        int
	displacement int32
	hasDisp      bool
	ripRelative  bool
}

func (o IndirectOperand) PointerSize() PointerSize { return o.pointerSize }
func (o IndirectOperand) Base() Register           { return o.base }
func (o IndirectOperand) Index() Register          { return o.index }
func (o IndirectOperand) Scale() int               { return o.scale }
func (o IndirectOperand) Displacement() int32       { return o.displacement }
func (o IndirectOperand) HasDisplacement() bool    { return o.hasDisp }
func (o IndirectOperand) IsRIPRelative() bool      { return o.ripRelative }

func (o IndirectOperand) HasBase() bool  { return !o.base.IsNull() }
func (o IndirectOperand) HasIndex() bool { return !o.index.IsNull() }

// Width reports the operand's addressing width: 32 for a 32-bit base/index
// pair, 64 for a 64-bit pair or RIP-relative form, 0 if neither is present
// (a bare absolute displacement, not produced by this builder today).
func (o IndirectOperand) Width() int {
	switch {
	case o.ripRelative:
		return 64
	case o.HasBase():
		return o.base.Width()
	case o.HasIndex():
		return o.index.Width()
	default:
		return 0
	}
}

// DataWidth reports the size, in bits, of the value this memory reference
// points to — the BYTE/WORD/DWORD/QWORD PTR annotation, not the 32/64-bit
// addressing width Width reports. It is 0 when the operand carries no
// pointer-size keyword, which form matching treats as "inferred from a
// sibling register operand" rather than a size constraint of its own.
func (o IndirectOperand) DataWidth() int {
	switch o.pointerSize {
	case PointerSizeByte:
		return 8
	case PointerSizeWord:
		return 16
	case PointerSizeDword:
		return 32
	case PointerSizeQword:
		return 64
	case PointerSizeXmmword:
		return 128
	default:
		return 0
	}
}

// IndirectOperandBuilder accumulates memory-operand components and runs
// cross-field validation once at Build, mirroring the teacher's builder
// pattern for multi-field operand construction (Design Notes §9).
type IndirectOperandBuilder struct {
	pointerSize PointerSize
	base        Register
	index       Register
	hasBase     bool
	hasIndex    bool
	scale       int
	displacement int32
	hasDisp     bool
	ripRelative bool
	err         error
}

// NewIndirectOperandBuilder starts a builder with no components set.
func NewIndirectOperandBuilder() *IndirectOperandBuilder {
	return &IndirectOperandBuilder{base: NullRegister, index: NullRegister, scale: 1}
}

func (b *IndirectOperandBuilder) SetPointerSize(size PointerSize) *IndirectOperandBuilder {
	b.pointerSize = size
	return b
}

// SetBase sets the base register. Must be a 32-bit or 64-bit general-purpose
// register; RIP is set via SetRIPRelative instead.
func (b *IndirectOperandBuilder) SetBase(r Register) *IndirectOperandBuilder {
	if b.err != nil {
		return b
	}
	if b.hasBase {
		b.err = fmt.Errorf("base register already set to %s: %w", b.base, ErrInvalidOperand)
		return b
	}
	if r.Class() != ClassR32 && r.Class() != ClassR64 {
		b.err = fmt.Errorf("base register %s must be 32-bit or 64-bit: %w", r, ErrInvalidArgument)
		return b
	}
	b.base = r
	b.hasBase = true
	return b
}

// SetIndex sets the index register. RSP/ESP may never be an index (SDM
// encoding restriction: ModR/M.rm=100 with no index selects "no index").
func (b *IndirectOperandBuilder) SetIndex(r Register) *IndirectOperandBuilder {
	if b.err != nil {
		return b
	}
	if b.hasIndex {
		b.err = fmt.Errorf("index register already set to %s: %w", b.index, ErrInvalidOperand)
		return b
	}
	if r.Class() != ClassR32 && r.Class() != ClassR64 {
		b.err = fmt.Errorf("index register %s must be 32-bit or 64-bit: %w", r, ErrInvalidArgument)
		return b
	}
	if r.Name() == "esp" || r.Name() == "rsp" {
		b.err = fmt.Errorf("%s cannot be used as an index register: %w", r, ErrInvalidOperand)
		return b
	}
	b.index = r
	b.hasIndex = true
	return b
}

// SetScale sets the index scale factor; must be one of 1, 2, 4, 8.
func (b *IndirectOperandBuilder) SetScale(scale int) *IndirectOperandBuilder {
	if b.err != nil {
		return b
	}
	switch scale {
	case 1, 2, 4, 8:
		b.scale = scale
	default:
		b.err = fmt.Errorf("scale must be 1, 2, 4 or 8, got %d: %w", scale, ErrInvalidArgument)
	}
	return b
}

// SetDisplacement sets an explicit signed 32-bit displacement.
func (b *IndirectOperandBuilder) SetDisplacement(disp int32) *IndirectOperandBuilder {
	if b.err != nil {
		return b
	}
	b.displacement = disp
	b.hasDisp = true
	return b
}

// SetRIPRelative marks the operand as [RIP + disp32], mutually exclusive
// with a base or index. A scale set on the builder is not carried into a
// RIP-relative operand.
func (b *IndirectOperandBuilder) SetRIPRelative(disp int32) *IndirectOperandBuilder {
	if b.err != nil {
		return b
	}
	b.ripRelative = true
	b.displacement = disp
	b.hasDisp = true
	return b
}

// Build runs every cross-field invariant and returns the finished operand.
func (b *IndirectOperandBuilder) Build() (IndirectOperand, error) {
	if b.err != nil {
		return IndirectOperand{}, b.err
	}
	hasBase := b.hasBase
	hasIndex := b.hasIndex

	if b.ripRelative {
		if hasBase || hasIndex {
			return IndirectOperand{}, fmt.Errorf("RIP-relative operand cannot also carry a base or index: %w", ErrInvalidOperand)
		}
		return IndirectOperand{
			pointerSize: b.pointerSize,
			base:        NullRegister,
			index:       NullRegister,
			displacement: b.displacement,
			hasDisp:      true,
			ripRelative:  true,
		}, nil
	}

	if !hasBase && !hasIndex {
		return IndirectOperand{}, fmt.Errorf("operand needs a base register, an index register, or RIP-relative form: %w", ErrInvalidOperand)
	}
	if hasBase && hasIndex && b.base.Width() != b.index.Width() {
		return IndirectOperand{}, fmt.Errorf("base %s and index %s must share an address width: %w", b.base, b.index, ErrInvalidOperand)
	}

	return IndirectOperand{
		pointerSize:  b.pointerSize,
		base:         b.base,
		index:        b.index,
		scale:        b.scale,
		displacement: b.displacement,
		hasDisp:      b.hasDisp,
	}, nil
}
