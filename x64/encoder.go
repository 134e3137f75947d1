package x64

import (
	"fmt"

	"github.com/nullreg/x64codec/internal/opcodetable"
	"github.com/nullreg/x64codec/internal/trace"
)

// Encode renders a validated Instruction back to its byte encoding. Because
// NewInstruction already ran the Validator and confirmed a matching form
// exists, Encode over a value that only this package's constructors can
// produce never fails on its own account — SPEC_FULL.md §7 calls this out as
// the one operation with no error outcome. It still returns an error to
// cover a zero-value Instruction{} reaching it directly.
func Encode(inst Instruction, sink *trace.Sink) ([]byte, error) {
	descriptor, ok := opcodetable.Descriptors[inst.Mnemonic()]
	if !ok {
		return nil, fmt.Errorf("unknown mnemonic %q: %w", inst.Mnemonic(), ErrInvalidInstruction)
	}
	kinds := make([]opcodetable.OperandKind, len(inst.operands))
	for i, op := range inst.operands {
		kind, ok := op.kind()
		if !ok {
			return nil, fmt.Errorf("%s: operand %d has no covered encoding shape: %w", inst.Mnemonic(), i, ErrInvalidInstruction)
		}
		kinds[i] = kind
	}
	form, ok := descriptor.Select(kinds)
	if !ok {
		return nil, fmt.Errorf("%s: no encoding form matches the given operands: %w", inst.Mnemonic(), ErrInvalidInstruction)
	}

	e := &encodeState{inst: inst, form: form, sink: sink}
	return e.encode()
}

// ToHex is a convenience wrapper returning the lowercase hex-digit rendering
// of Encode's byte output.
func ToHex(inst Instruction, sink *trace.Sink) (string, error) {
	buf, err := Encode(inst, sink)
	if err != nil {
		return "", err
	}
	hex := make([]byte, 0, len(buf)*2)
	const digits = "0123456789abcdef"
	for _, b := range buf {
		hex = append(hex, digits[b>>4], digits[b&0x0F])
	}
	return string(hex), nil
}

type encodeState struct {
	inst Instruction
	form opcodetable.Form
	sink *trace.Sink
	out  []byte

	rex      REX
	needsREX bool
}

// encode emits the legacy prefixes in the fixed order decided in
// SPEC_FULL.md §9 (LOCK, REP, segment override, operand-size override,
// address-size override), then REX — a total order requiring no
// per-instruction decision — followed by opcode, ModR/M/SIB/displacement and
// immediate.
func (e *encodeState) encode() ([]byte, error) {
	e.emitLegacyPrefixes()

	opRegField, rmField, rexR, rexX, rexB, isMemRM, err := e.resolveOperands()
	if err != nil {
		return nil, err
	}
	e.rex = REX{W: e.form.RequiresREXW, R: rexR, X: rexX, B: rexB}
	if e.anyOperandNeedsRex() {
		e.needsREX = true
	}
	if e.rex.W || e.rex.R || e.rex.X || e.rex.B {
		e.needsREX = true
	}
	if e.needsREX {
		e.out = append(e.out, EncodeREX(e.rex))
		e.sink.Record("rex", len(e.out)-1, "%s", e.rex)
	}

	e.emitOpcode(opRegField)

	if e.form.ModRM {
		e.emitModRMAndOperand(opRegField, rmField, isMemRM)
	}

	if e.form.ImmSize > 0 {
		if err := e.emitImmediate(); err != nil {
			return nil, err
		}
	}

	e.sink.Record("assemble", len(e.out), "encoded %s as % X", e.inst, e.out)
	return e.out, nil
}

func (e *encodeState) emitLegacyPrefixes() {
	if e.inst.HasLock() {
		e.out = append(e.out, PrefixLock)
	}
	if e.inst.HasRep() {
		e.out = append(e.out, PrefixRep)
	}
	if e.inst.HasSegment() {
		e.out = append(e.out, segmentPrefixByte(e.inst.Segment()))
	}
	if formWidth(e.form) == 16 {
		e.out = append(e.out, PrefixOperandSize)
	}
	if operand, ok := e.firstIndirectOperand(); ok && operand.Width() == 32 {
		e.out = append(e.out, PrefixAddressSize)
	}
}

func (e *encodeState) firstIndirectOperand() (IndirectOperand, bool) {
	for _, op := range e.inst.operands {
		if ind, ok := op.Indirect(); ok {
			return ind, true
		}
	}
	return IndirectOperand{}, false
}

func segmentPrefixByte(seg Register) byte {
	switch seg.Name() {
	case "cs":
		return PrefixCS
	case "ss":
		return PrefixSS
	case "ds":
		return PrefixDS
	case "es":
		return PrefixES
	case "fs":
		return PrefixFS
	case "gs":
		return PrefixGS
	default:
		return 0
	}
}

// anyOperandNeedsRex reports whether any register operand (SPL/BPL/SIL/DIL,
// or R8-R15 in any class) forces a REX prefix to be present even with no
// other bit set.
func (e *encodeState) anyOperandNeedsRex() bool {
	for _, op := range e.inst.operands {
		if reg, ok := op.Register(); ok && reg.RequiresREXPrefix() {
			return true
		}
		if ind, ok := op.Indirect(); ok {
			if ind.HasBase() && ind.Base().RequiresREXPrefix() {
				return true
			}
			if ind.HasIndex() && ind.Index().RequiresREXPrefix() {
				return true
			}
		}
	}
	return false
}

// resolveOperands walks the instruction's operands against the selected
// form, producing the ModR/M.reg nibble (or the opcode-folded register
// nibble), the rm-side register/memory, and the REX extension bits each
// contributes.
func (e *encodeState) resolveOperands() (regField byte, rmOperand Operand, rexR, rexX, rexB bool, isMemRM bool, err error) {
	regSlot, rmSlot := -1, -1
	switch e.form.Direction {
	case opcodetable.DirRegToRM:
		regSlot, rmSlot = 1, 0
	case opcodetable.DirRMToReg:
		regSlot, rmSlot = 0, 1
	}

	if e.form.OpcodeAddsReg {
		reg, ok := e.inst.operands[0].Register()
		if !ok {
			return 0, Operand{}, false, false, false, false, fmt.Errorf("%s: opcode-folded operand must be a register: %w", e.inst.Mnemonic(), ErrInvalidInstruction)
		}
		nibble, extension, err := ToCode(reg)
		if err != nil {
			return 0, Operand{}, false, false, false, false, err
		}
		return nibble, Operand{}, false, false, extension, false, nil
	}

	if regSlot >= 0 {
		reg, ok := e.inst.operands[regSlot].Register()
		if !ok {
			return 0, Operand{}, false, false, false, false, fmt.Errorf("%s: operand %d must be a register: %w", e.inst.Mnemonic(), regSlot, ErrInvalidInstruction)
		}
		nibble, extension, err := ToCode(reg)
		if err != nil {
			return 0, Operand{}, false, false, false, false, err
		}
		regField, rexR = nibble, extension
	} else if e.form.ModRM && e.form.ModRMReg >= 0 {
		regField = byte(e.form.ModRMReg)
	}

	if len(e.inst.operands) == 0 {
		return regField, Operand{}, rexR, false, false, false, nil
	}
	rmIndex := rmSlot
	if rmIndex < 0 {
		rmIndex = 0
	}
	rmOperand = e.inst.operands[rmIndex]

	if ind, ok := rmOperand.Indirect(); ok {
		isMemRM = true
		if ind.HasIndex() {
			if _, ext, _ := ToCode(ind.Index()); ext {
				rexX = true
			}
		}
		if ind.HasBase() {
			if _, ext, _ := ToCode(ind.Base()); ext {
				rexB = true
			}
		}
	} else if reg, ok := rmOperand.Register(); ok {
		if _, ext, err := ToCode(reg); err == nil {
			rexB = ext
		}
	}

	return regField, rmOperand, rexR, rexX, rexB, isMemRM, nil
}

func (e *encodeState) emitOpcode(regField byte) {
	switch e.form.Map {
	case opcodetable.Map0F:
		e.out = append(e.out, 0x0F)
	case opcodetable.Map0F38:
		e.out = append(e.out, 0x0F, 0x38)
	case opcodetable.Map0F3A:
		e.out = append(e.out, 0x0F, 0x3A)
	}
	opcode := e.form.Opcode[0]
	if e.form.OpcodeAddsReg {
		opcode = (opcode &^ 0x07) | (regField & 0x07)
	}
	e.out = append(e.out, opcode)
	e.sink.Record("opcode", len(e.out)-1, "0x%02X", opcode)
}

func (e *encodeState) emitModRMAndOperand(regField byte, rmOperand Operand, isMemRM bool) {
	if !isMemRM {
		reg, _ := rmOperand.Register()
		nibble, _, _ := ToCode(reg)
		e.out = append(e.out, encodeModRM(0b11, regField, nibble))
		e.sink.Record("modrm", len(e.out)-1, "mod=11 reg=%d rm=%d", regField, nibble)
		return
	}

	ind, _ := rmOperand.Indirect()
	if ind.IsRIPRelative() {
		e.out = append(e.out, encodeModRM(0b00, regField, 0b101))
		e.out = putU32LE(e.out, uint32(ind.Displacement()))
		e.sink.Record("modrm", len(e.out)-5, "mod=00 reg=%d rm=101 (RIP-relative)", regField)
		return
	}

	needsSIB := ind.HasIndex() || (ind.HasBase() && indexFromBase(ind.Base()) == 0b100)
	mod := modForDisplacement(ind)
	if needsSIB && !ind.HasBase() {
		// SIB.base=101 with mod=00 selects "no base, disp32 follows the SIB".
		mod = 0b00
	}

	var rm byte = 0b100
	if !needsSIB {
		baseNibble, _, _ := ToCode(ind.Base())
		rm = baseNibble & 0x7
	}
	if !ind.HasBase() && !needsSIB {
		// Absolute/no-base addressing is not produced by this builder today;
		// defensive fallback keeps encoding total over any future caller.
		mod, rm = 0b00, 0b101
	}

	e.out = append(e.out, encodeModRM(mod, regField, rm))
	e.sink.Record("modrm", len(e.out)-1, "mod=%d reg=%d rm=%d", mod, regField, rm)

	if needsSIB {
		var indexNibble byte = 0b100
		var scaleField byte
		if ind.HasIndex() {
			nib, _, _ := ToCode(ind.Index())
			indexNibble = nib & 0x7
			scaleField = sibScaleField(ind.Scale())
		}
		var baseNibble byte = 0b101
		if ind.HasBase() {
			nib, _, _ := ToCode(ind.Base())
			baseNibble = nib & 0x7
		}
		e.out = append(e.out, encodeSIB(scaleField, indexNibble, baseNibble))
		e.sink.Record("sib", len(e.out)-1, "scale=%d index=%d base=%d", scaleField, indexNibble, baseNibble)
		if !ind.HasBase() {
			e.out = putU32LE(e.out, uint32(ind.Displacement()))
		}
	}

	if (ind.HasBase() || needsSIB) && mod != 0b00 {
		if mod == 0b01 {
			e.out = append(e.out, byte(int8(ind.Displacement())))
		} else {
			e.out = putU32LE(e.out, uint32(ind.Displacement()))
		}
	}
}

// indexFromBase reports the 3-bit nibble of a base register, used only to
// detect the RSP/R12 "requires SIB to be addressed at all" encoding quirk.
func indexFromBase(base Register) byte {
	nibble, _, _ := ToCode(base)
	return nibble & 0x7
}

// modForDisplacement picks the ModR/M.mod field for a base-present operand:
// mod=01 for a displacement that fits in 8 bits, mod=10 otherwise, mod=00
// for no displacement at all (unless the base is RBP/R13, which has no
// mod=00 encoding and always carries at least a disp8).
func modForDisplacement(ind IndirectOperand) byte {
	if !ind.HasDisplacement() {
		if ind.HasBase() {
			nibble := indexFromBase(ind.Base())
			if nibble == 0b101 {
				return 0b01
			}
		}
		return 0b00
	}
	if ind.Displacement() >= -128 && ind.Displacement() <= 127 {
		return 0b01
	}
	return 0b10
}

func (e *encodeState) emitImmediate() error {
	imm, ok := e.lastOperandImmediate()
	if !ok {
		return fmt.Errorf("%s: form requires an immediate operand: %w", e.inst.Mnemonic(), ErrInvalidInstruction)
	}
	size := e.form.ImmSize
	if e.form.ImmFollowsREXW && e.rex.W {
		size = 64
	}
	start := len(e.out)
	switch size {
	case 8:
		e.out = append(e.out, byte(int8(imm.Value())))
	case 16:
		e.out = putU16LE(e.out, uint16(int16(imm.Value())))
	case 32:
		e.out = putU32LE(e.out, uint32(int32(imm.Value())))
	case 64:
		e.out = putU64LE(e.out, uint64(imm.Value()))
	}
	e.sink.Record("immediate", start, "imm%d=%d", size, imm.Value())
	return nil
}

func (e *encodeState) lastOperandImmediate() (Immediate, bool) {
	if len(e.inst.operands) == 0 {
		return Immediate{}, false
	}
	return e.inst.operands[len(e.inst.operands)-1].Immediate()
}
