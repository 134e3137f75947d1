package x64

import (
	"errors"
	"fmt"
	"testing"
)

// Property 4 (SPEC_FULL.md §8): every strict, non-empty prefix of a corpus
// encoding that isn't itself a complete, shorter valid encoding must fail
// with ErrNeedMoreBytes rather than misdecoding or panicking.
func TestDecodeIncompletePrefixNeedsMoreBytes(t *testing.T) {
	for _, enc := range X64Encodings {
		enc := enc
		if len(enc.Bytes) < 2 {
			continue
		}
		t.Run(enc.Name, func(t *testing.T) {
			for n := 1; n < len(enc.Bytes); n++ {
				prefix := enc.Bytes[:n]
				_, consumed, err := Decode(prefix, nil)
				if err == nil {
					if consumed == n {
						continue // prefix happens to be a complete, shorter instruction
					}
					t.Fatalf("Decode(% X) succeeded consuming %d but decoded without signaling completion", prefix, consumed)
				}
				if !errors.Is(err, ErrNeedMoreBytes) {
					t.Fatalf("Decode(% X) = %v, want ErrNeedMoreBytes", prefix, err)
				}
			}
		})
	}
}

func TestDecodeEmptyInput(t *testing.T) {
	_, _, err := Decode(nil, nil)
	if !errors.Is(err, ErrNeedMoreBytes) {
		t.Errorf("Decode(nil) = %v, want ErrNeedMoreBytes", err)
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	// 0xD6 is the undocumented/reserved "SALC" opcode slot, not in the
	// covered set.
	_, _, err := Decode([]byte{0xD6}, nil)
	if err == nil {
		t.Error("Decode(0xD6) succeeded, want an error")
	}
}

func TestFromHex(t *testing.T) {
	insts, err := FromHex("4889d8", nil)
	if err != nil {
		t.Fatalf("FromHex: %v", err)
	}
	if len(insts) != 1 {
		t.Fatalf("FromHex decoded %d instructions, want 1", len(insts))
	}
	want, err := NewInstruction("MOV", []Operand{RegisterOperand(RAX), RegisterOperand(RBX)})
	if err != nil {
		t.Fatalf("NewInstruction: %v", err)
	}
	if insts[0].String() != want.String() {
		t.Errorf("FromHex decoded %s, want %s", insts[0], want)
	}
}

func TestFromHex_InvalidHex(t *testing.T) {
	if _, err := FromHex("zz", nil); !errors.Is(err, ErrInvalidHex) {
		t.Errorf("FromHex(%q) error = %v, want ErrInvalidHex", "zz", err)
	}
	if _, err := FromHex("abc", nil); !errors.Is(err, ErrInvalidHex) {
		t.Errorf("FromHex(%q) error = %v, want ErrInvalidHex", "abc", err)
	}
}

// Property 1/SPEC_FULL.md §4.E: from_hex decodes repeatedly until every byte
// is consumed, returning every instruction in order — not just the first.
func TestFromHex_MultipleInstructions(t *testing.T) {
	movRaxRbx := findEncoding(t, "mov r64, r64")
	pushImm32 := findEncoding(t, "push imm32")

	insts, err := FromHex(hexOf(movRaxRbx.Bytes)+hexOf(pushImm32.Bytes), nil)
	if err != nil {
		t.Fatalf("FromHex: %v", err)
	}
	if len(insts) != 2 {
		t.Fatalf("FromHex decoded %d instructions, want 2", len(insts))
	}
	wantFirst, err := movRaxRbx.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	wantSecond, err := pushImm32.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if insts[0].String() != wantFirst.String() {
		t.Errorf("first decoded %s, want %s", insts[0], wantFirst)
	}
	if insts[1].String() != wantSecond.String() {
		t.Errorf("second decoded %s, want %s", insts[1], wantSecond)
	}
}

// A truncated second instruction fails the whole call with ErrNeedMoreBytes
// (SPEC_FULL.md §8 property 4), even though the first instruction decoded
// cleanly.
func TestFromHex_TruncatedSecondInstruction(t *testing.T) {
	movRaxRbx := findEncoding(t, "mov r64, r64")
	if _, err := FromHex(hexOf(movRaxRbx.Bytes)+"48", nil); !errors.Is(err, ErrNeedMoreBytes) {
		t.Errorf("FromHex with truncated trailing instruction error = %v, want ErrNeedMoreBytes", err)
	}
}

// A recognized group opcode (0xFF, covered here only as PUSH r/m64 at
// ModR/M.reg=6) with a ModR/M.reg that selects no covered group member is a
// corrupt follow-on field within an otherwise-known instruction, not an
// unknown opcode: it must fail with ErrDecodingException specifically, not
// the more general ErrInvalidInstruction.
func TestDecode_ReservedModRMRegFailsWithDecodingException(t *testing.T) {
	_, _, err := Decode([]byte{0xFF, 0xD0}, nil)
	if !errors.Is(err, ErrDecodingException) {
		t.Errorf("Decode(0xFF 0xD0) error = %v, want ErrDecodingException", err)
	}
}

func findEncoding(t *testing.T, name string) Encoding {
	t.Helper()
	for _, enc := range X64Encodings {
		if enc.Name == name {
			return enc
		}
	}
	t.Fatalf("no corpus encoding named %q", name)
	return Encoding{}
}

func hexOf(buf []byte) string {
	return fmt.Sprintf("%x", buf)
}
