package x64

import (
	"fmt"

	"github.com/nullreg/x64codec/internal/opcodetable"
	"github.com/nullreg/x64codec/internal/trace"
)

// Decode runs the full decode state machine over buf — PREFIXES, REX,
// OPCODE, MODR/M, SIB, DISPLACEMENT, IMMEDIATE, ASSEMBLE (SPEC_FULL.md
// §4.E) — and returns the decoded Instruction plus the number of bytes it
// consumed. sink may be nil; every stage records its progress on it.
func Decode(buf []byte, sink *trace.Sink) (Instruction, int, error) {
	c := newCursor(buf)
	d := &decodeState{cursor: c, sink: sink}

	if err := d.readPrefixes(); err != nil {
		return Instruction{}, 0, err
	}
	if err := d.readREX(); err != nil {
		return Instruction{}, 0, err
	}
	if err := d.readOpcode(); err != nil {
		return Instruction{}, 0, err
	}
	entry, err := d.resolveEntry()
	if err != nil {
		return Instruction{}, 0, err
	}
	if err := d.readModRMAndSIB(entry.Form); err != nil {
		return Instruction{}, 0, err
	}
	if err := d.readDisplacement(entry.Form); err != nil {
		return Instruction{}, 0, err
	}
	if err := d.readImmediate(entry.Form); err != nil {
		return Instruction{}, 0, err
	}

	inst, err := d.assemble(entry)
	if err != nil {
		return Instruction{}, 0, err
	}
	d.sink.Record("assemble", d.cursor.pos, "decoded %s", inst)
	return inst, d.cursor.pos, nil
}

// FromHex parses a hex-digit string (pairs of digits, no separators or "0x"
// prefixes) into bytes and decodes it repeatedly until every byte is
// consumed, returning the full list of instructions (SPEC_FULL.md §4.E:
// "decode repeatedly until len is consumed, returning the list"). A trailing
// instruction that is cut short fails the whole call with ErrNeedMoreBytes,
// per §8 property 4.
func FromHex(hexStr string, sink *trace.Sink) ([]Instruction, error) {
	if len(hexStr)%2 != 0 {
		return nil, fmt.Errorf("hex string has odd length: %w", ErrInvalidHex)
	}
	buf := make([]byte, len(hexStr)/2)
	for i := range buf {
		b, err := ParseByte(hexStr[2*i : 2*i+2])
		if err != nil {
			return nil, err
		}
		buf[i] = b
	}
	return DecodeAll(buf, sink)
}

// DecodeAll runs Decode repeatedly over buf until every byte is consumed,
// accumulating the decoded instructions in order (SPEC_FULL.md §4.E
// from_hex). An empty buf decodes to an empty, non-nil slice.
func DecodeAll(buf []byte, sink *trace.Sink) ([]Instruction, error) {
	instructions := []Instruction{}
	offset := 0
	for len(buf) > 0 {
		inst, n, err := Decode(buf, sink)
		if err != nil {
			return nil, fmt.Errorf("offset %d: %w", offset, err)
		}
		instructions = append(instructions, inst)
		buf = buf[n:]
		offset += n
	}
	return instructions, nil
}

// decodeState carries the mutable progress of one Decode call through the
// state-machine stages.
type decodeState struct {
	cursor *cursor
	sink   *trace.Sink

	lock        bool
	rep         bool
	repne       bool
	segment     Register
	operandSize bool // 0x66 seen
	addressSize bool // 0x67 seen

	rex       REX
	hasREX    bool
	opcodeMap opcodetable.OpcodeMap
	opcode    []byte

	hasModRM   bool
	mod        byte
	regField   byte
	rmField    byte
	hasSIB     bool
	scale      byte
	indexField byte
	baseField  byte

	hasDisp      bool
	disp32       int32
	ripRelative  bool

	immediate Immediate
	hasImm    bool
}

// readPrefixes consumes legacy prefix bytes, silently overwriting duplicates
// within the same group (SPEC_FULL.md §4.E step PREFIXES).
func (d *decodeState) readPrefixes() error {
	for {
		b, ok := d.cursor.peekByte()
		if !ok {
			return nil
		}
		switch b {
		case PrefixLock:
			d.lock = true
		case PrefixRepNE:
			d.repne = true
		case PrefixRep:
			d.rep = true
		case PrefixOperandSize:
			d.operandSize = true
		case PrefixAddressSize:
			d.addressSize = true
		case PrefixCS, PrefixSS, PrefixDS, PrefixES, PrefixFS, PrefixGS:
			d.segment = segmentPrefixRegister(b)
		default:
			return nil
		}
		if _, err := d.cursor.readByte(); err != nil {
			return err
		}
		d.sink.Record("prefixes", d.cursor.pos-1, "legacy prefix 0x%02X", b)
	}
}

func (d *decodeState) readREX() error {
	b, ok := d.cursor.peekByte()
	if !ok || !IsREXPrefix(b) {
		return nil
	}
	if _, err := d.cursor.readByte(); err != nil {
		return err
	}
	rex, err := DecodeREX(b)
	if err != nil {
		return err
	}
	d.hasREX = true
	d.rex = rex
	d.sink.Record("rex", d.cursor.pos-1, "%s", d.rex)
	return nil
}

// readOpcode scans the map-escape byte (0x0F, then 0x0F38/0x0F3A) followed
// by the terminal opcode byte(s). This codec's covered forms use at most a
// single opcode byte within any map.
func (d *decodeState) readOpcode() error {
	b, err := d.cursor.readByte()
	if err != nil {
		return err
	}
	if b != 0x0F {
		d.opcodeMap = opcodetable.MapPrimary
		d.opcode = []byte{b}
		d.sink.Record("opcode", d.cursor.pos-1, "primary opcode 0x%02X", b)
		return nil
	}
	second, err := d.cursor.readByte()
	if err != nil {
		return err
	}
	switch second {
	case 0x38:
		opcode, err := d.cursor.readByte()
		if err != nil {
			return err
		}
		d.opcodeMap = opcodetable.Map0F38
		d.opcode = []byte{opcode}
	case 0x3A:
		opcode, err := d.cursor.readByte()
		if err != nil {
			return err
		}
		d.opcodeMap = opcodetable.Map0F3A
		d.opcode = []byte{opcode}
	default:
		d.opcodeMap = opcodetable.Map0F
		d.opcode = []byte{second}
	}
	d.sink.Record("opcode", d.cursor.pos-1, "map %v opcode 0x%02X", d.opcodeMap, d.opcode[0])
	return nil
}

// resolvedEntry pairs a matched decode table entry with the opcode-low-bits
// register nibble extracted when the entry's form folds a register into the
// opcode byte itself (OpcodeAddsReg).
type resolvedEntry struct {
	opcodetable.DecodeEntry
	opcodeRegNibble byte
}

// resolveEntry looks up the decode table by (map, opcode bytes). Forms whose
// final opcode byte folds in a register (OpcodeAddsReg) are identified by
// their masked base byte, since the literal byte varies with the register;
// every other form is identified by its exact byte (SPEC_FULL.md §4.E OPCODE
// step).
func (d *decodeState) resolveEntry() (resolvedEntry, error) {
	opcodeByte := d.opcode[0]
	exactKey := opcodetable.DecodeKey{Map: d.opcodeMap, Opcode: string(d.opcode)}
	maskedKey := opcodetable.DecodeKey{Map: d.opcodeMap, Opcode: string([]byte{opcodeByte &^ 0x07})}
	nibble := opcodeByte & 0x07

	var addRegCandidates, exactCandidates []opcodetable.DecodeEntry
	for _, entry := range opcodetable.DecodeIndex[maskedKey] {
		if entry.Form.OpcodeAddsReg {
			addRegCandidates = append(addRegCandidates, entry)
		}
	}
	for _, entry := range opcodetable.DecodeIndex[exactKey] {
		if !entry.Form.OpcodeAddsReg {
			exactCandidates = append(exactCandidates, entry)
		}
	}

	if len(addRegCandidates) > 0 {
		entry, err := d.pickByREXW(addRegCandidates)
		if err != nil {
			return resolvedEntry{}, err
		}
		return resolvedEntry{DecodeEntry: entry, opcodeRegNibble: nibble}, nil
	}
	if len(exactCandidates) > 0 {
		entry, err := d.pickCandidate(exactCandidates)
		if err != nil {
			return resolvedEntry{}, err
		}
		return resolvedEntry{DecodeEntry: entry}, nil
	}

	return resolvedEntry{}, fmt.Errorf("offset %d: unsupported opcode map %v byte 0x%02X: %w", d.cursor.pos, d.opcodeMap, opcodeByte, ErrInvalidInstruction)
}

// pickByREXW disambiguates OpcodeAddsReg candidates that differ only by
// operand width (e.g. MOV r32, imm32 vs MOV r64, imm64 both at 0xB8+rd) by
// REX.W presence.
func (d *decodeState) pickByREXW(candidates []opcodetable.DecodeEntry) (opcodetable.DecodeEntry, error) {
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	wantW := d.hasREX && d.rex.W
	for _, entry := range candidates {
		if entry.Form.RequiresREXW == wantW {
			return entry, nil
		}
	}
	return candidates[0], nil
}

// desiredOperandWidth reports the register width implied by the prefixes
// seen so far: REX.W selects 64-bit, otherwise the 0x66 operand-size
// override selects 16-bit, otherwise the long-mode default of 32-bit
// (SPEC_FULL.md §4.E PREFIXES/REX steps).
func (d *decodeState) desiredOperandWidth() int {
	switch {
	case d.hasREX && d.rex.W:
		return 64
	case d.operandSize:
		return 16
	default:
		return 32
	}
}

// formWidth reports the register/register-memory operand width a form's
// template commits to, or 0 if every slot is width-agnostic (e.g. an 8-bit
// form, or a bare-immediate form).
func formWidth(form opcodetable.Form) int {
	for _, operand := range form.Operands {
		if operand.Size != 0 && operand.Class != "immediate" {
			return operand.Size
		}
	}
	return 0
}

// pickCandidate disambiguates same-(map,opcode) entries that are not
// distinguished by OpcodeAddsReg. Two disambiguators apply, in order:
// operand width, inferred from REX.W/0x66 via desiredOperandWidth, for the
// many forms whose only difference is a 16/32/64-bit register-operand width
// sharing one opcode byte (e.g. MOV r/m16,r16, r/m32,r32 and r/m64,r64 all
// at 0x89); and ModR/M.reg, peeked without consuming the byte, for genuine
// group opcodes at a fixed width (e.g. PUSH r/m64 at 0xFF /6 against sibling
// group-5 members this codec does not cover).
func (d *decodeState) pickCandidate(candidates []opcodetable.DecodeEntry) (opcodetable.DecodeEntry, error) {
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	want := d.desiredOperandWidth()
	var byWidth []opcodetable.DecodeEntry
	for _, entry := range candidates {
		if w := formWidth(entry.Form); w == 0 || w == want {
			byWidth = append(byWidth, entry)
		}
	}
	if len(byWidth) == 1 {
		return byWidth[0], nil
	}
	if len(byWidth) > 0 {
		candidates = byWidth
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	b, ok := d.cursor.peekByte()
	if !ok {
		return opcodetable.DecodeEntry{}, fmt.Errorf("offset %d: need ModR/M byte to disambiguate: %w", d.cursor.pos, ErrNeedMoreBytes)
	}
	_, regField, _ := modRMFields(b)
	for _, entry := range candidates {
		if entry.Form.ModRMReg == int(regField) {
			return entry, nil
		}
	}
	// The opcode byte itself matched a covered group opcode; ModR/M.reg
	// selects which group member, so a reg value with no corresponding
	// entry is a reserved/unused bit pattern within an otherwise-recognized
	// instruction (SPEC_FULL.md §4.E "corrupt follow-on fields"), not an
	// unknown opcode.
	return opcodetable.DecodeEntry{}, fmt.Errorf("offset %d: ModR/M.reg=%d does not match any covered form: %w", d.cursor.pos, regField, ErrDecodingException)
}

func (d *decodeState) readModRMAndSIB(form opcodetable.Form) error {
	if !form.ModRM {
		return nil
	}
	b, err := d.cursor.readByte()
	if err != nil {
		return err
	}
	d.hasModRM = true
	d.mod, d.regField, d.rmField = modRMFields(b)
	d.sink.Record("modrm", d.cursor.pos-1, "mod=%d reg=%d rm=%d", d.mod, d.regField, d.rmField)
	if form.ModRMReg >= 0 && int(d.regField) != form.ModRMReg {
		return fmt.Errorf("offset %d: ModR/M.reg=%d does not match any covered form: %w", d.cursor.pos-1, d.regField, ErrDecodingException)
	}

	if d.mod == 0b00 && d.rmField == 0b101 {
		d.ripRelative = true
		return nil
	}
	if d.mod != 0b11 && d.rmField == 0b100 {
		sib, err := d.cursor.readByte()
		if err != nil {
			return err
		}
		d.hasSIB = true
		d.scale, d.indexField, d.baseField = sibFields(sib)
		d.sink.Record("sib", d.cursor.pos-1, "scale=%d index=%d base=%d", d.scale, d.indexField, d.baseField)
	}
	return nil
}

func (d *decodeState) readDisplacement(form opcodetable.Form) error {
	if !d.hasModRM {
		return nil
	}
	if d.ripRelative {
		v, err := d.cursor.readS32LE()
		if err != nil {
			return err
		}
		d.hasDisp = true
		d.disp32 = int32(v)
		d.sink.Record("displacement", d.cursor.pos-4, "rip-relative disp32=%d", d.disp32)
		return nil
	}
	switch d.mod {
	case 0b00:
		if d.hasSIB && d.baseField == 0b101 {
			v, err := d.cursor.readS32LE()
			if err != nil {
				return err
			}
			d.hasDisp = true
			d.disp32 = int32(v)
			d.sink.Record("displacement", d.cursor.pos-4, "disp32=%d (no base)", d.disp32)
		}
	case 0b01:
		v, err := d.cursor.readS8()
		if err != nil {
			return err
		}
		d.hasDisp = true
		d.disp32 = int32(v)
		d.sink.Record("displacement", d.cursor.pos-1, "disp8=%d", d.disp32)
	case 0b10:
		v, err := d.cursor.readS32LE()
		if err != nil {
			return err
		}
		d.hasDisp = true
		d.disp32 = int32(v)
		d.sink.Record("displacement", d.cursor.pos-4, "disp32=%d", d.disp32)
	}
	return nil
}

func (d *decodeState) readImmediate(form opcodetable.Form) error {
	size := form.ImmSize
	if form.ImmFollowsREXW && d.hasREX && d.rex.W {
		size = 64
	}
	if size == 0 {
		return nil
	}
	start := d.cursor.pos
	var value int64
	var err error
	switch size {
	case 8:
		value, err = d.cursor.readS8()
	case 16:
		value, err = d.cursor.readS16LE()
	case 32:
		value, err = d.cursor.readS32LE()
	case 64:
		value, err = d.cursor.readS64LE()
	}
	if err != nil {
		return err
	}
	imm, err := NewImmediate(uint8(size), value)
	if err != nil {
		return err
	}
	d.hasImm = true
	d.immediate = imm
	d.sink.Record("immediate", start, "imm%d=%d", size, value)
	return nil
}

// assemble builds the final Instruction from the accumulated decode state,
// resolving register classes, the ModR/M-selected memory/register operand,
// and the opcode-folded register, per the matched form's operand template.
func (d *decodeState) assemble(entry resolvedEntry) (Instruction, error) {
	form := entry.Form
	operands := make([]Operand, len(form.Operands))

	regClassOf := func(size int) RegisterClass {
		switch size {
		case 8:
			return ClassR8
		case 16:
			return ClassR16
		case 32:
			return ClassR32
		case 64:
			return ClassR64
		default:
			return ClassNone
		}
	}

	regSlot, rmSlot := -1, -1
	switch form.Direction {
	case opcodetable.DirRegToRM:
		regSlot, rmSlot = 1, 0
	case opcodetable.DirRMToReg:
		regSlot, rmSlot = 0, 1
	}

	if form.OpcodeAddsReg {
		kind := form.Operands[0]
		class := regClassOf(kind.Size)
		extension := d.hasREX && d.rex.B
		reg, err := FromCodeInClass(class, entry.opcodeRegNibble, extension, d.hasREX)
		if err != nil {
			return Instruction{}, err
		}
		operands[0] = RegisterOperand(reg)
		if len(form.Operands) > 1 && form.ImmSize > 0 {
			if !d.hasImm {
				return Instruction{}, fmt.Errorf("offset %d: missing immediate: %w", d.cursor.pos, ErrNeedMoreBytes)
			}
			operands[1] = ImmediateOperand(d.immediate)
		}
	} else if form.ModRM {
		if regSlot >= 0 {
			kind := form.Operands[regSlot]
			class := regClassOf(kind.Size)
			extension := d.hasREX && d.rex.R
			reg, err := FromCodeInClass(class, d.regField, extension, d.hasREX)
			if err != nil {
				return Instruction{}, err
			}
			operands[regSlot] = RegisterOperand(reg)
		}
		rmOperand, err := d.resolveRM(form.Operands[rmIndexOrZero(rmSlot, form)])
		if err != nil {
			return Instruction{}, err
		}
		if rmSlot >= 0 {
			operands[rmSlot] = rmOperand
		} else {
			// Forms with no register slot (e.g. NOP r/m16, PUSH r/m64) use the
			// single remaining operand slot for the r/m operand.
			operands[0] = rmOperand
		}
		if form.ImmSize > 0 {
			if !d.hasImm {
				return Instruction{}, fmt.Errorf("offset %d: missing immediate: %w", d.cursor.pos, ErrNeedMoreBytes)
			}
			operands[len(operands)-1] = ImmediateOperand(d.immediate)
		}
	} else if form.ImmSize > 0 && len(operands) > 0 {
		// Immediate-only forms (e.g. PUSH imm32) carry no register at all.
		if !d.hasImm {
			return Instruction{}, fmt.Errorf("offset %d: missing immediate: %w", d.cursor.pos, ErrNeedMoreBytes)
		}
		operands[len(operands)-1] = ImmediateOperand(d.immediate)
	}

	opts := []InstructionOption{}
	if d.lock {
		opts = append(opts, WithLock())
	}
	if d.rep || d.repne {
		opts = append(opts, WithRep())
	}
	if !d.segment.IsNull() {
		opts = append(opts, WithSegment(d.segment))
	}
	return NewInstruction(entry.Mnemonic, operands, opts...)
}

// rmIndexOrZero returns the template slot describing the r/m operand: either
// the computed rmSlot, or slot 0 when the form carries no register slot at
// all (e.g. NOP r/m16).
func rmIndexOrZero(rmSlot int, form opcodetable.Form) int {
	if rmSlot >= 0 {
		return rmSlot
	}
	return 0
}

// resolveRM builds the register-or-memory operand named by the current
// ModR/M (and, if present, SIB and displacement) state.
func (d *decodeState) resolveRM(kind opcodetable.OperandKind) (Operand, error) {
	if d.ripRelative {
		builder := NewIndirectOperandBuilder().SetRIPRelative(d.disp32)
		ind, err := builder.Build()
		if err != nil {
			return Operand{}, err
		}
		return IndirectOperandValue(ind), nil
	}

	if d.mod == 0b11 {
		class := rmRegisterClass(kind)
		extension := d.hasREX && d.rex.B
		reg, err := FromCodeInClass(class, d.rmField, extension, d.hasREX)
		if err != nil {
			return Operand{}, err
		}
		return RegisterOperand(reg), nil
	}

	builder := NewIndirectOperandBuilder()
	addrClass := ClassR64
	if d.addressSize {
		addrClass = ClassR32
	}

	if d.hasSIB {
		if d.indexField != 0b100 {
			extension := d.hasREX && d.rex.X
			idx, err := FromCodeInClass(addrClass, d.indexField, extension, d.hasREX)
			if err != nil {
				return Operand{}, err
			}
			builder.SetIndex(idx).SetScale(scaleFromSIB(d.scale))
		}
		if !(d.mod == 0b00 && d.baseField == 0b101) {
			extension := d.hasREX && d.rex.B
			base, err := FromCodeInClass(addrClass, d.baseField, extension, d.hasREX)
			if err != nil {
				return Operand{}, err
			}
			builder.SetBase(base)
		}
	} else {
		extension := d.hasREX && d.rex.B
		base, err := FromCodeInClass(addrClass, d.rmField, extension, d.hasREX)
		if err != nil {
			return Operand{}, err
		}
		builder.SetBase(base)
	}

	if d.hasDisp {
		builder.SetDisplacement(d.disp32)
	}
	ind, err := builder.Build()
	if err != nil {
		return Operand{}, err
	}
	return IndirectOperandValue(ind), nil
}

// rmRegisterClass picks the register class for a ModR/M.rm operand that
// turned out to be a direct register (mod==11), from the form's declared
// register/memory kind.
func rmRegisterClass(kind opcodetable.OperandKind) RegisterClass {
	switch kind.Size {
	case 8:
		return ClassR8
	case 16:
		return ClassR16
	case 32:
		return ClassR32
	case 64:
		return ClassR64
	default:
		return ClassR64
	}
}
