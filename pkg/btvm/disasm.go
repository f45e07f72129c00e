package btvm

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the whole program.
func (p *Program) Disassemble() string {
	return p.DisassembleWithName("")
}

// DisassembleWithName returns a human-readable listing with a name header.
func (p *Program) DisassembleWithName(name string) string {
	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; %d cells, %d leaves, %d decorators\n",
		len(p.Code), len(p.Leaves), len(p.Decorators)))

	if len(p.Strings) > 0 {
		sb.WriteString("; Strings:\n")
		for i, s := range p.Strings {
			display := s
			if len(display) > 40 {
				display = display[:37] + "..."
			}
			display = strings.ReplaceAll(display, "\n", "\\n")
			display = strings.ReplaceAll(display, "\t", "\\t")
			sb.WriteString(fmt.Sprintf(";   [%3d] %q\n", i, display))
		}
	}

	sb.WriteString("; Code:\n")
	pc := 0
	for pc < len(p.Code) {
		line, width := p.disassembleInstruction(pc)
		sb.WriteString(fmt.Sprintf("%04X  %s\n", pc, line))
		pc += width
	}

	return sb.String()
}

// DisassembleInstruction returns a human-readable representation of the
// single instruction at the given cell offset.
func (p *Program) DisassembleInstruction(pc int) string {
	line, _ := p.disassembleInstruction(pc)
	return line
}

func (p *Program) disassembleInstruction(pc int) (string, int) {
	if pc >= len(p.Code) {
		return "<end of code>", 0
	}

	op := Op(p.Code[pc])
	info := GetOpInfo(op)
	if pc+info.Width > len(p.Code) {
		return fmt.Sprintf("%s <truncated>", info.Name), len(p.Code) - pc
	}

	switch op {
	case OpRun, OpRunThread, OpRunDecorator:
		return fmt.Sprintf("%s %d", info.Name, p.Code[pc+1]), info.Width

	case OpBranchFailure, OpBranchSuccess:
		delta := int16(p.Code[pc+1])
		return fmt.Sprintf("%s %+d (-> %04X)", info.Name, delta, pc+int(delta)), info.Width

	case OpCheckFact, OpRemoveFact, OpLog:
		idx := p.Code[pc+1]
		val := ""
		if int(idx) < len(p.Strings) {
			val = p.Strings[idx]
			if len(val) > 20 {
				val = val[:17] + "..."
			}
		}
		return fmt.Sprintf("%s %d ; %q", info.Name, idx, val), info.Width

	default:
		return info.Name, info.Width
	}
}

// DisassembleToLines returns the code listing as a slice of lines.
func (p *Program) DisassembleToLines() []string {
	var lines []string
	pc := 0
	for pc < len(p.Code) {
		line, width := p.disassembleInstruction(pc)
		lines = append(lines, fmt.Sprintf("%04X  %s", pc, line))
		pc += width
	}
	return lines
}

// InstructionCount returns the number of instructions in the program.
// Note: this iterates through all code, so it's O(n).
func (p *Program) InstructionCount() int {
	count := 0
	pc := 0
	for pc < len(p.Code) {
		pc += Op(p.Code[pc]).Width()
		count++
	}
	return count
}
