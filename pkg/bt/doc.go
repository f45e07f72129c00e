// Package bt implements a tick-driven behavior tree engine.
//
// A tree is described declaratively as a graph of Node values (built with the
// constructor functions in this package or loaded from a definition file),
// compiled once through a Registry into an executable form, and then driven by
// the host calling Tree.Tick once per control cycle. Every tick produces one
// of four outcomes:
//
//   - Success / Failure: the normal results of conditions and actions
//   - Running: the subtree is in progress; tick again next cycle
//   - Invalid: a structural or configuration problem (empty composite,
//     missing callable, unresolved reference); never coerced to Failure
//
// Shared state lives in a Blackboard, a flat string-to-string fact store.
// Node parameters are never assumed to be literal: they pass through a small
// indirection protocol before use. A token starting with '#' names a scope
// variable (introduced by a Scope node), a token starting with '@' names a
// fact whose value is the real fact name, and anything else is taken as-is.
// Resolution is recursive with a fixed depth bound, so a self-referential
// fact degrades to Invalid instead of looping forever.
//
// The engine is single-threaded by contract. Nothing here spawns goroutines:
// a Parallel node evaluates every child within one synchronous tick, and the
// only suspension point is the tick boundary itself. If a Blackboard is
// shared between trees the caller is responsible for serializing access.
//
// Hosts extend the tree with Leaf and Decorate nodes carrying callables;
// built-in node kinds are compiled through an explicit Registry value so
// independent rule sets can coexist in one process.
package bt
