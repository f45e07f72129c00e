package bt

import (
	"sort"
	"strconv"
)

// LeafFunc is a host-supplied action or condition. It receives the tree it
// runs in and the node's parameter strings, still unresolved; most leaves
// pass parameters through Tree.Resolve before use.
type LeafFunc func(t *Tree, params []string) Outcome

// DecoratorFunc is a host-supplied decorator. The callable decides whether
// and how often to tick the child.
type DecoratorFunc func(t *Tree, child *Subtree, params []string) Outcome

// Built-in node kinds understood by NewRegistry.
const (
	KindSequence        = "Sequence"
	KindSelector        = "Selector"
	KindParallel        = "Parallel"
	KindUntilTrue       = "UntilTrue"
	KindUntilFalse      = "UntilFalse"
	KindReturnTrue      = "ReturnTrue"
	KindReturnFalse     = "ReturnFalse"
	KindNegate          = "Negate"
	KindRepeat          = "Repeat"
	KindFactExists      = "FactExists"
	KindRemoveFact      = "RemoveFact"
	KindSetFactConst    = "SetFactConst"
	KindFactEqualsConst = "FactEqualsConst"
	KindScope           = "Scope"
	KindStrategy        = "Strategy"
	KindDecision        = "Decision"
)

// Node is the immutable, declarative description of a tree node. Build a
// graph of Node values with the constructors below, then compile it once
// through a Registry. Kind is empty for inline leaf and decorator nodes;
// Ref is a debug label with no behavioral significance.
type Node struct {
	Kind      string
	Ref       string
	Children  []Node
	Params    []string
	Leaf      LeafFunc
	Decorator DecoratorFunc
}

// WithRef returns a copy of the node carrying a debug label.
func (n Node) WithRef(ref string) Node {
	n.Ref = ref
	return n
}

// Leaf wraps a host callable as a leaf node.
func Leaf(fn LeafFunc, params ...string) Node {
	return Node{Leaf: fn, Params: params}
}

// Decorate wraps a host decorator callable around a single child.
func Decorate(fn DecoratorFunc, child Node, params ...string) Node {
	return Node{Decorator: fn, Children: []Node{child}, Params: params}
}

// Sequence ticks children in order and stops on the first outcome that is
// not Success.
func Sequence(children ...Node) Node {
	return Node{Kind: KindSequence, Children: children}
}

// Selector ticks children in order and stops on the first outcome that is
// not Failure.
func Selector(children ...Node) Node {
	return Node{Kind: KindSelector, Children: children}
}

// Parallel ticks every child each tick with the default success threshold of
// len(children)-1.
func Parallel(children ...Node) Node {
	return Node{Kind: KindParallel, Children: children}
}

// ParallelThreshold ticks every child each tick, succeeding once threshold
// children have succeeded.
func ParallelThreshold(threshold int, children ...Node) Node {
	return Node{
		Kind:     KindParallel,
		Children: children,
		Params:   []string{strconv.Itoa(threshold)},
	}
}

// UntilTrue runs children like a sequence while they keep failing, returning
// Running after a full pass.
func UntilTrue(children ...Node) Node {
	return Node{Kind: KindUntilTrue, Children: children}
}

// UntilFalse runs children like a sequence while they keep succeeding,
// returning Running after a full pass.
func UntilFalse(children ...Node) Node {
	return Node{Kind: KindUntilFalse, Children: children}
}

// ReturnTrue forces a settled child outcome to Success.
func ReturnTrue(child Node) Node {
	return Node{Kind: KindReturnTrue, Children: []Node{child}}
}

// ReturnFalse forces a settled child outcome to Failure.
func ReturnFalse(child Node) Node {
	return Node{Kind: KindReturnFalse, Children: []Node{child}}
}

// Negate swaps Success and Failure.
func Negate(child Node) Node {
	return Node{Kind: KindNegate, Children: []Node{child}}
}

// Repeat ticks the child up to count times, stopping early on Running or
// Invalid.
func Repeat(count int, child Node) Node {
	return Node{
		Kind:     KindRepeat,
		Children: []Node{child},
		Params:   []string{strconv.Itoa(count)},
	}
}

// FactExists succeeds if the named fact is on the blackboard.
func FactExists(name string) Node {
	return Node{Kind: KindFactExists, Params: []string{name}}
}

// RemoveFact removes the named fact, succeeding.
func RemoveFact(name string) Node {
	return Node{Kind: KindRemoveFact, Params: []string{name}}
}

// SetFactConst stores value under name. Both operands pass through
// indirection resolution.
func SetFactConst(name, value string) Node {
	return Node{Kind: KindSetFactConst, Params: []string{name, value}}
}

// FactEqualsConst succeeds if the named fact currently holds value.
func FactEqualsConst(name, value string) Node {
	return Node{Kind: KindFactEqualsConst, Params: []string{name, value}}
}

// Scope introduces a scope frame for the duration of the child's tick. Each
// vars entry maps a scope variable name to a reference token, resolved on
// entry. Keys are ordered deterministically.
func Scope(vars map[string]string, child Node) Node {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	params := make([]string, 0, len(vars)*2)
	for _, name := range names {
		params = append(params, name, vars[name])
	}
	return Node{Kind: KindScope, Children: []Node{child}, Params: params}
}

// Strategy pairs a condition with an action. Strategies are only meaningful
// as the direct children of a Decision node.
func Strategy(condition, action Node) Node {
	return Node{Kind: KindStrategy, Children: []Node{condition, action}}
}

// Decision scans its strategies in order, running the action of the first
// strategy whose condition succeeds and latching it while Running.
func Decision(strategies ...Node) Node {
	return Node{Kind: KindDecision, Children: strategies}
}
