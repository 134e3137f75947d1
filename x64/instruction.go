package x64

import (
	"fmt"

	"github.com/nullreg/x64codec/internal/opcodetable"
)

// maxOperands bounds the operand tuple; no covered mnemonic takes more than two.
const maxOperands = 4

// Instruction is the structured, architecture-independent value that sits
// between raw bytes and Intel-syntax text (SPEC_FULL.md §3/§4.C): a mnemonic,
// 0-4 operands, and the legacy prefixes that modify it. It is always
// constructed through NewInstruction, which runs the Validator synchronously
// so that no caller ever observes a half-valid Instruction, mirroring the
// teacher's validate-in-constructor discipline for its operand types.
type Instruction struct {
	mnemonic string
	operands []Operand
	lock     bool
	rep      bool
	segment  Register // NullRegister when no segment override is present
}

// NewInstruction validates arity against the opcode table and runs the
// per-mnemonic Validator rules before returning a usable Instruction.
func NewInstruction(mnemonic string, operands []Operand, opts ...InstructionOption) (Instruction, error) {
	descriptor, ok := opcodetable.Descriptors[mnemonic]
	if !ok {
		return Instruction{}, fmt.Errorf("unknown mnemonic %q: %w", mnemonic, ErrInvalidInstruction)
	}
	if len(operands) > maxOperands {
		return Instruction{}, fmt.Errorf("%s: too many operands (%d): %w", mnemonic, len(operands), ErrInvalidInstruction)
	}

	inst := Instruction{mnemonic: mnemonic, operands: append([]Operand(nil), operands...), segment: NullRegister}
	for _, opt := range opts {
		opt(&inst)
	}

	if err := Validate(inst); err != nil {
		return Instruction{}, err
	}

	kinds := make([]opcodetable.OperandKind, len(operands))
	for i, op := range operands {
		kind, ok := op.kind()
		if !ok {
			return Instruction{}, fmt.Errorf("%s: operand %d has no covered encoding shape: %w", mnemonic, i, ErrInvalidInstruction)
		}
		kinds[i] = kind
	}
	if _, ok := descriptor.Select(kinds); !ok {
		return Instruction{}, fmt.Errorf("%s: no encoding form matches the given operands: %w", mnemonic, ErrInvalidInstruction)
	}

	return inst, nil
}

// InstructionOption configures optional instruction-level flags (legacy
// prefixes) at construction time.
type InstructionOption func(*Instruction)

func WithLock() InstructionOption {
	return func(i *Instruction) { i.lock = true }
}

func WithRep() InstructionOption {
	return func(i *Instruction) { i.rep = true }
}

func WithSegment(seg Register) InstructionOption {
	return func(i *Instruction) { i.segment = seg }
}

func (i Instruction) Mnemonic() string    { return i.mnemonic }
func (i Instruction) OperandCount() int   { return len(i.operands) }
func (i Instruction) Operands() []Operand { return append([]Operand(nil), i.operands...) }
func (i Instruction) HasLock() bool       { return i.lock }
func (i Instruction) HasRep() bool        { return i.rep }
func (i Instruction) Segment() Register   { return i.segment }
func (i Instruction) HasSegment() bool    { return !i.segment.IsNull() }

// HasNthOperand reports whether operand index n (0-based) exists and returns
// it, analogous to the teacher's accessor-with-presence-bool pattern used
// throughout architecture/x86_64 for optional fields.
func (i Instruction) HasNthOperand(n int) (Operand, bool) {
	if n < 0 || n >= len(i.operands) {
		return Operand{}, false
	}
	return i.operands[n], true
}

func (i Instruction) String() string {
	s := i.mnemonic
	for idx, op := range i.operands {
		if idx == 0 {
			s += " " + op.String()
		} else {
			s += ", " + op.String()
		}
	}
	return s
}
