package btvm

import "fmt"

// Op is a bytecode instruction. Code is laid out as 16-bit cells: the
// opcode occupies one cell and is followed by zero or one operand cells
// (a table index or a signed branch offset measured in cells).
type Op uint16

const (
	// ========================================================================
	// Invocation (0x00-0x0F)
	// ========================================================================

	OpRun          Op = 0x00 // Invoke leaf: OpRun <leafIndex:u16>
	OpRunThread    Op = 0x01 // Drive another thread one tick: OpRunThread <threadIndex:u16>
	OpRunDecorator Op = 0x02 // Invoke decorator over current outcome: OpRunDecorator <decoratorIndex:u16>

	// ========================================================================
	// Control flow (0x10-0x1F)
	// ========================================================================

	OpBranchFailure Op = 0x10 // Jump if current is Failure: OpBranchFailure <offset:i16>
	OpBranchSuccess Op = 0x11 // Jump if current is Success: OpBranchSuccess <offset:i16>

	// ========================================================================
	// Outcome register (0x20-0x2F)
	// ========================================================================

	OpSetFailure Op = 0x20 // current = Failure
	OpSetSuccess Op = 0x21 // current = Success
	OpNegate     Op = 0x22 // Swap Success and Failure in current

	// ========================================================================
	// Facts (0x30-0x3F)
	// ========================================================================

	OpCheckFact  Op = 0x30 // current = Success if fact exists, else Failure: OpCheckFact <stringIndex:u16>
	OpRemoveFact Op = 0x31 // Remove fact, current = Success: OpRemoveFact <stringIndex:u16>

	// ========================================================================
	// Debug (0xF0-0xFF)
	// ========================================================================

	OpBreak Op = 0xF0 // Invoke the Break trace hook, outcome untouched
	OpLog   Op = 0xF1 // Emit string through the Log trace hook: OpLog <stringIndex:u16>
)

// OpInfo provides metadata about each opcode for disassembly and
// program validation.
type OpInfo struct {
	Name  string // Human-readable name
	Width int    // Total instruction width in cells, opcode included
}

var opInfoTable = map[Op]OpInfo{
	OpRun:          {"RUN", 2},
	OpRunThread:    {"RUN_THREAD", 2},
	OpRunDecorator: {"RUN_DECORATOR", 2},

	OpBranchFailure: {"BRANCH_FAILURE", 2},
	OpBranchSuccess: {"BRANCH_SUCCESS", 2},

	OpSetFailure: {"SET_FAILURE", 1},
	OpSetSuccess: {"SET_SUCCESS", 1},
	OpNegate:     {"NEGATE", 1},

	OpCheckFact:  {"CHECK_FACT", 2},
	OpRemoveFact: {"REMOVE_FACT", 2},

	OpBreak: {"BREAK", 1},
	OpLog:   {"LOG", 2},
}

// GetOpInfo returns metadata for an opcode. Unrecognized opcodes get a
// width of 1 and a name marking them unknown.
func GetOpInfo(op Op) OpInfo {
	if info, ok := opInfoTable[op]; ok {
		return info
	}
	return OpInfo{Name: fmt.Sprintf("UNKNOWN(0x%04X)", uint16(op)), Width: 1}
}

// String returns the human-readable name of an opcode.
func (op Op) String() string {
	return GetOpInfo(op).Name
}

// Width returns the total instruction width in cells.
func (op Op) Width() int {
	return GetOpInfo(op).Width
}

// IsBranch returns true if this opcode is a branch instruction.
func (op Op) IsBranch() bool {
	return op == OpBranchFailure || op == OpBranchSuccess
}

// AllOps returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOps() []Op {
	ops := make([]Op, 0, len(opInfoTable))
	for op := range opInfoTable {
		ops = append(ops, op)
	}
	return ops
}

// OpCount returns the number of defined opcodes.
func OpCount() int {
	return len(opInfoTable)
}
