package x64

import (
	"errors"
	"fmt"
)

// Error taxonomy (SPEC_FULL.md §7). Each variant is a package-level sentinel
// matched with errors.Is; call sites wrap it with fmt.Errorf("...: %w", Err...)
// to attach positional and contextual detail, following the teacher's own
// fmt.Errorf("%w", ...) wrapping convention throughout cmd/cli and v0/kasm.
var (
	// ErrNeedMoreBytes signals that a decode step ran out of input before it
	// could finish; it is not fatal — the caller may retry with more bytes.
	ErrNeedMoreBytes = errors.New("need more bytes")

	// ErrInvalidInstruction signals bytes that encode no known instruction,
	// or a structured Instruction that violates a Validator rule.
	ErrInvalidInstruction = errors.New("invalid instruction")

	// ErrDecodingException signals a structurally corrupt follow-on byte: a
	// reserved or unused bit pattern the opcode table declares illegal.
	ErrDecodingException = errors.New("decoding exception")

	// ErrInvalidHex signals a malformed hex-digit string.
	ErrInvalidHex = errors.New("invalid hex")

	// ErrInvalidSyntax signals an Intel-syntax string that does not match the
	// grammar.
	ErrInvalidSyntax = errors.New("invalid syntax")

	// ErrInvalidArgument signals a violated constructor precondition: a null
	// register passed to a register operation, or an IndirectOperand builder
	// setter rejecting an out-of-range scalar.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidOperand signals an IndirectOperand whose cross-field
	// invariants (base/index width match, RSP/RIP placement, etc.) fail at
	// Build() time. A specialization of ErrInvalidArgument (SPEC_FULL.md §7)
	// rather than an unrelated sentinel: errors.Is(err, ErrInvalidArgument)
	// holds for any IndirectOperand builder failure, while errors.Is(err,
	// ErrInvalidOperand) narrows to the cross-field subset.
	ErrInvalidOperand = fmt.Errorf("invalid operand: %w", ErrInvalidArgument)
)
