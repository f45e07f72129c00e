package btvm

import (
	"github.com/tliron/commonlog"

	"github.com/chazu/arbor/pkg/bt"
)

// StepResult is the per-instruction driver signal returned by Step. It
// tells the driving loop whether to keep stepping; the thread's settled
// outcome lives in Thread.Current, not here.
type StepResult uint8

const (
	// StepContinue means the instruction completed and the next one
	// can be executed in the same tick.
	StepContinue StepResult = iota

	// StepSuspend means a leaf or decorator reported Running. The pc
	// still points at the invoking instruction; the next Tick re-runs it.
	StepSuspend

	// StepDone means the thread ran off the end of the code section.
	// The pc has been reset to the thread's start offset.
	StepDone

	// StepHalt means the thread hit an unrecoverable fault (unknown
	// opcode, out-of-range operand, or a leaf reporting Invalid). The
	// thread stays halted until Reset.
	StepHalt
)

// TraceHooks receives the VM's debug instructions. Either hook may be
// nil: Break then does nothing, and Log falls back to the package
// logger.
type TraceHooks struct {
	Break func(t *Thread)
	Log   func(t *Thread, message string)
}

var log = commonlog.GetLogger("arbor.btvm")

// VM executes one Program over one fact store with any number of
// threads. Single caller only; see the package comment.
type VM struct {
	prog    *Program
	facts   bt.Blackboard
	threads []*Thread

	// Hooks handles OpBreak and OpLog. Zero value routes OpLog to the
	// package logger at info level.
	Hooks TraceHooks
}

// New creates a VM over the program and fact store. A nil store gets a
// fresh in-memory board.
func New(prog *Program, facts bt.Blackboard) *VM {
	if facts == nil {
		facts = bt.NewMapBoard()
	}
	return &VM{prog: prog, facts: facts}
}

// Facts returns the shared fact store.
func (vm *VM) Facts() bt.Blackboard { return vm.facts }

// Program returns the shared program.
func (vm *VM) Program() *Program { return vm.prog }

// AddThread creates a thread whose cursor starts (and resets to) the
// given cell offset. The thread's table index is what OpRunThread
// operands refer to.
func (vm *VM) AddThread(start int) *Thread {
	t := &Thread{vm: vm, index: len(vm.threads), start: start, pc: start}
	vm.threads = append(vm.threads, t)
	return t
}

// ThreadCount returns the number of threads registered on the VM.
func (vm *VM) ThreadCount() int { return len(vm.threads) }

// Thread is a mutable execution cursor over the VM's shared program.
type Thread struct {
	vm      *VM
	index   int
	start   int
	pc      int
	current bt.Outcome
	halted  bool
	active  bool // set while a Tick is driving this thread
}

// Index returns the thread's position in the VM's thread table.
func (t *Thread) Index() int { return t.index }

// PC returns the thread's program counter in cells.
func (t *Thread) PC() int { return t.pc }

// Start returns the thread's fixed start offset.
func (t *Thread) Start() int { return t.start }

// Current returns the settled outcome so far.
func (t *Thread) Current() bt.Outcome { return t.current }

// Halted reports whether the thread hit an unrecoverable fault.
func (t *Thread) Halted() bool { return t.halted }

// Reset rewinds the thread to its start offset and clears any halt.
func (t *Thread) Reset() {
	t.pc = t.start
	t.current = bt.Invalid
	t.halted = false
}

func (t *Thread) halt() StepResult {
	t.current = bt.Invalid
	t.halted = true
	return StepHalt
}

// operand returns the cell following the opcode at pc, or false if the
// instruction is truncated.
func (t *Thread) operand() (uint16, bool) {
	code := t.vm.prog.Code
	if t.pc+1 >= len(code) {
		return 0, false
	}
	return code[t.pc+1], true
}

// Step executes exactly one instruction at the thread's pc and reports
// how the driving loop should proceed. Most callers want Tick instead.
func (t *Thread) Step() StepResult {
	if t.halted {
		return StepHalt
	}
	code := t.vm.prog.Code
	if t.pc < 0 {
		return t.halt()
	}
	if t.pc >= len(code) {
		t.pc = t.start
		return StepDone
	}

	switch op := Op(code[t.pc]); op {
	case OpRun:
		idx, ok := t.operand()
		if !ok || int(idx) >= len(t.vm.prog.Leaves) {
			return t.halt()
		}
		return t.settle(t.vm.prog.Leaves[idx](t, t.vm.facts))

	case OpRunDecorator:
		idx, ok := t.operand()
		if !ok || int(idx) >= len(t.vm.prog.Decorators) {
			return t.halt()
		}
		return t.settle(t.vm.prog.Decorators[idx](t, t.vm.facts, t.current))

	case OpRunThread:
		idx, ok := t.operand()
		if !ok || int(idx) >= len(t.vm.threads) {
			return t.halt()
		}
		sub := t.vm.threads[idx]
		if sub == t || sub.active {
			// Recursive thread invocation has no well-defined resume
			// point; treat it as a structural fault.
			return t.halt()
		}
		out := sub.Tick()
		if sub.halted {
			return t.halt()
		}
		t.current = out
		if out == bt.Running {
			// Leave pc on this instruction so the next tick resumes
			// the subroutine thread where it suspended.
			return StepSuspend
		}
		t.pc += 2
		return StepContinue

	case OpBranchFailure, OpBranchSuccess:
		off, ok := t.operand()
		if !ok {
			return t.halt()
		}
		taken := (op == OpBranchFailure && t.current == bt.Failure) ||
			(op == OpBranchSuccess && t.current == bt.Success)
		if taken {
			t.pc += int(int16(off))
		} else {
			t.pc += 2
		}
		return StepContinue

	case OpSetFailure:
		t.current = bt.Failure
		t.pc++
		return StepContinue

	case OpSetSuccess:
		t.current = bt.Success
		t.pc++
		return StepContinue

	case OpNegate:
		switch t.current {
		case bt.Success:
			t.current = bt.Failure
		case bt.Failure:
			t.current = bt.Success
		}
		t.pc++
		return StepContinue

	case OpCheckFact:
		name, ok := t.stringOperand()
		if !ok {
			return t.halt()
		}
		if t.vm.facts.FactExists(name) {
			t.current = bt.Success
		} else {
			t.current = bt.Failure
		}
		t.pc += 2
		return StepContinue

	case OpRemoveFact:
		name, ok := t.stringOperand()
		if !ok {
			return t.halt()
		}
		t.vm.facts.RemoveFact(name)
		t.current = bt.Success
		t.pc += 2
		return StepContinue

	case OpBreak:
		if t.vm.Hooks.Break != nil {
			t.vm.Hooks.Break(t)
		}
		t.pc++
		return StepContinue

	case OpLog:
		msg, ok := t.stringOperand()
		if !ok {
			return t.halt()
		}
		if t.vm.Hooks.Log != nil {
			t.vm.Hooks.Log(t, msg)
		} else {
			log.Infof("thread %d: %s", t.index, msg)
		}
		t.pc += 2
		return StepContinue

	default:
		return t.halt()
	}
}

// settle records a leaf or decorator result. Running suspends with the
// pc unchanged; Invalid is a structural fault and halts the thread.
func (t *Thread) settle(out bt.Outcome) StepResult {
	switch out {
	case bt.Running:
		t.current = bt.Running
		return StepSuspend
	case bt.Invalid:
		return t.halt()
	default:
		t.current = out
		t.pc += 2
		return StepContinue
	}
}

func (t *Thread) stringOperand() (string, bool) {
	idx, ok := t.operand()
	if !ok || int(idx) >= len(t.vm.prog.Strings) {
		return "", false
	}
	return t.vm.prog.Strings[idx], true
}

// Tick drives the thread until it suspends on a Running leaf, reaches
// the natural end of its encoding, or halts, and returns the settled
// outcome. A suspended thread keeps its pc, so the next Tick resumes at
// the suspended instruction; a completed thread's pc is back at its
// start offset.
func (t *Thread) Tick() bt.Outcome {
	if t.halted {
		return bt.Invalid
	}
	t.active = true
	defer func() { t.active = false }()

	for {
		switch t.Step() {
		case StepContinue:
			// keep going
		case StepSuspend, StepDone:
			return t.current
		case StepHalt:
			return bt.Invalid
		}
	}
}
