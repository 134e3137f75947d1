package x64

import "fmt"

// Immediate is a literal value embedded in an instruction's encoding. Width
// is part of its identity: an 8-bit immediate holding 5 is a distinct value
// from a 32-bit immediate holding 5 (SPEC_FULL.md §3), mirroring the
// teacher's OperandImm8/OperandImm16/OperandImm32/OperandImm64 split in
// architecture/x86_64/operands.go rather than a single widened integer type.
type Immediate struct {
	width uint8
	value int64
}

// NewImmediate constructs an Immediate of the given width, rejecting widths
// other than 8, 16, 32, 64 and values that do not fit in width bits
// (two's-complement, signed).
func NewImmediate(width uint8, value int64) (Immediate, error) {
	lo, hi, err := immediateRange(width)
	if err != nil {
		return Immediate{}, err
	}
	if value < lo || value > hi {
		return Immediate{}, fmt.Errorf("value %d does not fit in %d-bit immediate: %w", value, width, ErrInvalidArgument)
	}
	return Immediate{width: width, value: value}, nil
}

func immediateRange(width uint8) (lo, hi int64, err error) {
	switch width {
	case 8:
		return -1 << 7, 1<<7 - 1, nil
	case 16:
		return -1 << 15, 1<<15 - 1, nil
	case 32:
		return -1 << 31, 1<<31 - 1, nil
	case 64:
		return -1 << 63, 1<<63 - 1, nil
	default:
		return 0, 0, fmt.Errorf("immediate width must be 8, 16, 32 or 64, got %d: %w", width, ErrInvalidArgument)
	}
}

// Width reports the immediate's bit width.
func (i Immediate) Width() uint8 { return i.width }

// Value reports the immediate's signed value.
func (i Immediate) Value() int64 { return i.value }

// Equal reports whether two immediates share both width and value. Two
// Immediates with the same numeric value but different widths are not
// equal.
func (i Immediate) Equal(other Immediate) bool {
	return i.width == other.width && i.value == other.value
}

func (i Immediate) String() string {
	return fmt.Sprintf("%d", i.value)
}
