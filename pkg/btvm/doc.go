// Package btvm executes behavior programs compiled to a compact 16-bit
// bytecode. It is an alternative backend to the interpreted trees in
// package bt: instead of walking a node graph, a host assembles a
// Program (instruction cells plus leaf, decorator and string side
// tables) once and drives one or more Threads over it.
//
// A Thread is an execution cursor: a program counter, a fixed start
// offset it resets to, and the settled outcome so far. Any number of
// threads may share one immutable Program and one fact store; a thread
// never owns facts of its own. Threads can invoke each other as
// subroutines through the run-thread instruction, which is how reusable
// sub-programs are expressed.
//
// The external contract mirrors bt's tick model. Tick steps a thread
// instruction by instruction until a leaf or decorator reports Running
// (the thread suspends with its pc still at that instruction, so the
// next Tick re-runs it), until the program's natural end (the pc resets
// to the thread's start, ready for the next cycle), or until the thread
// halts. A halted thread reports Invalid on every subsequent Tick until
// Reset is called; halting covers unrecognized opcodes, out-of-range
// operands and leaves that report Invalid.
//
// Everything here is single-threaded-cooperative in the same sense as
// package bt: no goroutines, no locking, one driving caller per VM.
package btvm
