package btvm

import (
	"fmt"

	"github.com/chazu/arbor/pkg/bt"
)

// LeafFunc is a host-supplied action or condition invoked by OpRun. It
// receives the executing thread and the shared fact store and reports
// an outcome; Running suspends the thread at the invoking instruction.
type LeafFunc func(t *Thread, facts bt.Blackboard) bt.Outcome

// DecoratorFunc is a host-supplied transform invoked by OpRunDecorator.
// It receives the thread's settled outcome so far and returns the
// outcome that replaces it.
type DecoratorFunc func(t *Thread, facts bt.Blackboard, current bt.Outcome) bt.Outcome

// Program is an assembled behavior program: instruction cells plus the
// three side tables operands index into. Immutable once built; any
// number of VMs and threads may share one Program.
type Program struct {
	Code       []uint16
	Leaves     []LeafFunc
	Decorators []DecoratorFunc
	Strings    []string
}

// Validate walks the code section checking that every instruction is a
// known opcode, is fully contained in the code section, and that every
// table operand is in range. Branch targets must land inside the code
// section or exactly at its end.
func (p *Program) Validate() error {
	pc := 0
	for pc < len(p.Code) {
		op := Op(p.Code[pc])
		info, ok := opInfoTable[op]
		if !ok {
			return fmt.Errorf("btvm: unknown opcode 0x%04X at %04X", uint16(op), pc)
		}
		if pc+info.Width > len(p.Code) {
			return fmt.Errorf("btvm: truncated %s at %04X", info.Name, pc)
		}
		switch op {
		case OpRun:
			if idx := p.Code[pc+1]; int(idx) >= len(p.Leaves) {
				return fmt.Errorf("btvm: %s at %04X: leaf index %d out of range (%d leaves)", info.Name, pc, idx, len(p.Leaves))
			}
		case OpRunDecorator:
			if idx := p.Code[pc+1]; int(idx) >= len(p.Decorators) {
				return fmt.Errorf("btvm: %s at %04X: decorator index %d out of range (%d decorators)", info.Name, pc, idx, len(p.Decorators))
			}
		case OpCheckFact, OpRemoveFact, OpLog:
			if idx := p.Code[pc+1]; int(idx) >= len(p.Strings) {
				return fmt.Errorf("btvm: %s at %04X: string index %d out of range (%d strings)", info.Name, pc, idx, len(p.Strings))
			}
		case OpBranchFailure, OpBranchSuccess:
			target := pc + int(int16(p.Code[pc+1]))
			if target < 0 || target > len(p.Code) {
				return fmt.Errorf("btvm: %s at %04X: target %d outside code section", info.Name, pc, target)
			}
		}
		pc += info.Width
	}
	return nil
}

// Assembler builds a Program incrementally. Table entries are added
// first (or as they are referenced) and instructions emitted in order;
// forward branches are emitted with a placeholder and patched once the
// target offset is known.
type Assembler struct {
	code        []uint16
	leaves      []LeafFunc
	decorators  []DecoratorFunc
	strings     []string
	stringIndex map[string]uint16
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{
		code:        make([]uint16, 0, 64),
		stringIndex: make(map[string]uint16),
	}
}

// AddLeaf registers a leaf callable and returns its table index.
func (a *Assembler) AddLeaf(fn LeafFunc) uint16 {
	idx := uint16(len(a.leaves))
	a.leaves = append(a.leaves, fn)
	return idx
}

// AddDecorator registers a decorator callable and returns its table index.
func (a *Assembler) AddDecorator(fn DecoratorFunc) uint16 {
	idx := uint16(len(a.decorators))
	a.decorators = append(a.decorators, fn)
	return idx
}

// AddString interns a string constant and returns its table index.
// Duplicate values share one slot.
func (a *Assembler) AddString(value string) uint16 {
	if idx, ok := a.stringIndex[value]; ok {
		return idx
	}
	idx := uint16(len(a.strings))
	a.strings = append(a.strings, value)
	a.stringIndex[value] = idx
	return idx
}

// Emit appends an instruction and returns its cell offset.
func (a *Assembler) Emit(op Op, operands ...uint16) int {
	offset := len(a.code)
	a.code = append(a.code, uint16(op))
	a.code = append(a.code, operands...)
	return offset
}

// EmitBranch emits a branch instruction with a placeholder offset.
// Returns the instruction's cell offset for later patching.
func (a *Assembler) EmitBranch(op Op) int {
	return a.Emit(op, 0xFFFF)
}

// PatchBranch patches the branch at the given offset to target the
// current end of code. Offsets are signed and relative to the branch
// opcode cell.
func (a *Assembler) PatchBranch(at int) {
	a.code[at+1] = uint16(int16(len(a.code) - at))
}

// PatchBranchTo patches the branch at the given offset to a specific
// cell offset.
func (a *Assembler) PatchBranchTo(at, target int) {
	a.code[at+1] = uint16(int16(target - at))
}

// CurrentOffset returns the cell offset the next instruction will be
// emitted at. Useful as a thread start offset.
func (a *Assembler) CurrentOffset() int {
	return len(a.code)
}

// Build finalizes the program and validates it.
func (a *Assembler) Build() (*Program, error) {
	p := &Program{
		Code:       a.code,
		Leaves:     a.leaves,
		Decorators: a.decorators,
		Strings:    a.strings,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
