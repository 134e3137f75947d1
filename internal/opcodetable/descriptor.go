package opcodetable

// Descriptor is all known encodings of a single mnemonic, adapted from the
// teacher's asm.Instruction: a mnemonic plus its Forms.
type Descriptor struct {
	Mnemonic string
	Forms    []Form
}

func (d *Descriptor) formsByOperandKind(kind OperandKind) []Form {
	var matched []Form
	for _, form := range d.Forms {
		for _, operand := range form.Operands {
			if operand.Identifier == kind.Identifier {
				matched = append(matched, form)
				break
			}
		}
	}
	return matched
}

// FormsFor returns the forms that accept the given operand kind in any slot,
// computed on each call so the shared Descriptors table is never written
// after package initialization. Returns nil when no form mentions it.
func (d *Descriptor) FormsFor(kind OperandKind) []Form {
	return d.formsByOperandKind(kind)
}

// Select returns the first form whose operand template matches the supplied
// operand kinds exactly (arity and per-slot class/size), or false.
func (d *Descriptor) Select(operands []OperandKind) (Form, bool) {
	for _, form := range d.Forms {
		if form.Matches(operands) {
			return form, true
		}
	}
	return Form{}, false
}
