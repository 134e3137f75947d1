package x64

import (
	"errors"
	"testing"
)

func TestParseByte(t *testing.T) {
	cases := []struct {
		in      string
		want    byte
		wantErr bool
	}{
		{"00", 0x00, false},
		{"ff", 0xff, false},
		{"FF", 0xff, false},
		{"0f", 0x0f, false},
		{"f", 0, true},
		{"fff", 0, true},
		{"gg", 0, true},
		{"", 0, true},
	}
	for _, c := range cases {
		got, err := ParseByte(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("ParseByte(%q) error = %v, wantErr %v", c.in, err, c.wantErr)
			continue
		}
		if err == nil && got != c.want {
			t.Errorf("ParseByte(%q) = 0x%02X, want 0x%02X", c.in, got, c.want)
		}
		if err != nil && !errors.Is(err, ErrInvalidHex) {
			t.Errorf("ParseByte(%q) error = %v, want ErrInvalidHex", c.in, err)
		}
	}
}

func TestCursor_ReadByte(t *testing.T) {
	c := newCursor([]byte{0x01, 0x02})
	b, err := c.readByte()
	if err != nil || b != 0x01 {
		t.Fatalf("readByte() = %v, %v, want 0x01, nil", b, err)
	}
	if c.remaining() != 1 {
		t.Errorf("remaining() = %d, want 1", c.remaining())
	}
	if _, err := c.readByte(); err != nil {
		t.Fatalf("second readByte: %v", err)
	}
	if _, err := c.readByte(); !errors.Is(err, ErrNeedMoreBytes) {
		t.Errorf("readByte past end: err = %v, want ErrNeedMoreBytes", err)
	}
}

func TestCursor_PeekByte(t *testing.T) {
	c := newCursor([]byte{0xAB})
	b, ok := c.peekByte()
	if !ok || b != 0xAB {
		t.Fatalf("peekByte() = %v, %v, want 0xAB, true", b, ok)
	}
	if c.remaining() != 1 {
		t.Errorf("peekByte advanced the cursor: remaining() = %d, want 1", c.remaining())
	}
	c.pos = len(c.buf)
	if _, ok := c.peekByte(); ok {
		t.Error("peekByte() at end = true, want false")
	}
}

func TestCursor_ReadBytes(t *testing.T) {
	c := newCursor([]byte{0x01, 0x02, 0x03})
	b, err := c.readBytes(2)
	if err != nil || len(b) != 2 || b[0] != 0x01 || b[1] != 0x02 {
		t.Fatalf("readBytes(2) = %v, %v", b, err)
	}
	if _, err := c.readBytes(2); !errors.Is(err, ErrNeedMoreBytes) {
		t.Errorf("readBytes past end: err = %v, want ErrNeedMoreBytes", err)
	}
}

func TestCursor_LittleEndianRoundTrip(t *testing.T) {
	var out []byte
	out = putU16LE(out, 0xABCD)
	out = putU32LE(out, 0x12345678)
	out = putU64LE(out, 0x0102030405060708)

	c := newCursor(out)
	u16, err := c.readU16LE()
	if err != nil || u16 != 0xABCD {
		t.Fatalf("readU16LE() = %v, %v, want 0xABCD", u16, err)
	}
	u32, err := c.readU32LE()
	if err != nil || u32 != 0x12345678 {
		t.Fatalf("readU32LE() = %v, %v, want 0x12345678", u32, err)
	}
	u64, err := c.readU64LE()
	if err != nil || u64 != 0x0102030405060708 {
		t.Fatalf("readU64LE() = %v, %v, want 0x0102030405060708", u64, err)
	}
}

func TestCursor_SignExtension(t *testing.T) {
	c := newCursor([]byte{0x80})
	v, err := c.readS8()
	if err != nil || v != -128 {
		t.Fatalf("readS8() = %v, %v, want -128", v, err)
	}

	c = newCursor([]byte{0x00, 0x80})
	v, err = c.readS16LE()
	if err != nil || v != -32768 {
		t.Fatalf("readS16LE() = %v, %v, want -32768", v, err)
	}

	c = newCursor([]byte{0x00, 0x00, 0x00, 0x80})
	v, err = c.readS32LE()
	if err != nil || v != -2147483648 {
		t.Fatalf("readS32LE() = %v, %v, want -2147483648", v, err)
	}
}

// Property 5 (SPEC_FULL.md §8): ModR/M and SIB field decomposition round
// trips through every 2/3/3-bit field combination.
func TestModRMFieldsRoundTrip(t *testing.T) {
	for mod := byte(0); mod < 4; mod++ {
		for reg := byte(0); reg < 8; reg++ {
			for rm := byte(0); rm < 8; rm++ {
				b := encodeModRM(mod, reg, rm)
				gotMod, gotReg, gotRm := modRMFields(b)
				if gotMod != mod || gotReg != reg || gotRm != rm {
					t.Fatalf("modRMFields(encodeModRM(%d,%d,%d)) = (%d,%d,%d)", mod, reg, rm, gotMod, gotReg, gotRm)
				}
			}
		}
	}
}

func TestSIBFieldsRoundTrip(t *testing.T) {
	for scale := byte(0); scale < 4; scale++ {
		for index := byte(0); index < 8; index++ {
			for base := byte(0); base < 8; base++ {
				b := encodeSIB(scale, index, base)
				gotScale, gotIndex, gotBase := sibFields(b)
				if gotScale != scale || gotIndex != index || gotBase != base {
					t.Fatalf("sibFields(encodeSIB(%d,%d,%d)) = (%d,%d,%d)", scale, index, base, gotScale, gotIndex, gotBase)
				}
			}
		}
	}
}

func TestScaleFromSIBAndBack(t *testing.T) {
	cases := []struct {
		field byte
		scale int
	}{
		{0, 1}, {1, 2}, {2, 4}, {3, 8},
	}
	for _, c := range cases {
		if got := scaleFromSIB(c.field); got != c.scale {
			t.Errorf("scaleFromSIB(%d) = %d, want %d", c.field, got, c.scale)
		}
		if got := sibScaleField(c.scale); got != c.field {
			t.Errorf("sibScaleField(%d) = %d, want %d", c.scale, got, c.field)
		}
	}
}
