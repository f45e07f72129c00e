package bt

// The compiled tree is a closed set of node variants dispatched by a single
// evaluation function, rather than an open interface hierarchy. Hosts extend
// behavior through leaf and decorator callables, never by adding variants.

type nodeKind uint8

const (
	kindLeaf nodeKind = iota
	kindDecorate
	kindSequence
	kindSelector
	kindParallel
	kindUntilTrue
	kindUntilFalse
	kindReturnTrue
	kindReturnFalse
	kindNegate
	kindRepeat
	kindFactExists
	kindRemoveFact
	kindSetFactConst
	kindFactEqualsConst
	kindScope
	kindDecision
)

type scopeParam struct {
	name string
	ref  string
}

type strategy struct {
	condition *rnode
	action    *rnode
}

// rnode is one compiled node. Created at compile time and owned exclusively
// by its parent; the only across-tick mutable state is the decision latch.
type rnode struct {
	kind     nodeKind
	ref      string
	children []*rnode
	params   []string

	leaf      LeafFunc
	decorator DecoratorFunc

	threshold   int // parallel: successes required
	count       int // repeat: iterations
	scopeParams []scopeParam

	strategies []strategy
	current    int // decision: index of the latched strategy, -1 when none
}

// Subtree is the handle a decorator callable receives for its compiled
// child.
type Subtree struct {
	node *rnode
}

// Tick evaluates the wrapped child against the tree.
func (s *Subtree) Tick(t *Tree) Outcome {
	if s == nil {
		return Invalid
	}
	return t.eval(s.node)
}

// eval executes one tick of a compiled node.
func (t *Tree) eval(n *rnode) Outcome {
	if n == nil {
		return Invalid
	}
	switch n.kind {
	case kindLeaf:
		if n.leaf == nil {
			return Invalid
		}
		return n.leaf(t, n.params)

	case kindDecorate:
		if n.decorator == nil || len(n.children) != 1 {
			return Invalid
		}
		return n.decorator(t, &Subtree{node: n.children[0]}, n.params)

	case kindSequence:
		if len(n.children) == 0 {
			return Invalid
		}
		for _, c := range n.children {
			if c == nil {
				return Invalid
			}
			if out := t.eval(c); out != Success {
				return out
			}
		}
		return Success

	case kindSelector:
		if len(n.children) == 0 {
			return Invalid
		}
		for _, c := range n.children {
			if c == nil {
				return Invalid
			}
			if out := t.eval(c); out != Failure {
				return out
			}
		}
		return Failure

	case kindParallel:
		if len(n.children) == 0 {
			return Invalid
		}
		var nSuccess, nFailure int
		for _, c := range n.children {
			if c == nil {
				return Invalid
			}
			switch t.eval(c) {
			case Invalid:
				return Invalid
			case Success:
				nSuccess++
			case Failure:
				nFailure++
			}
		}
		if nSuccess >= n.threshold {
			return Success
		}
		if nFailure > len(n.children)-n.threshold {
			return Failure
		}
		return Running

	case kindUntilTrue:
		// Repeat while children keep failing; a full pass is still in
		// progress.
		if len(n.children) == 0 {
			return Invalid
		}
		for _, c := range n.children {
			if c == nil {
				return Invalid
			}
			if out := t.eval(c); out != Failure {
				return out
			}
		}
		return Running

	case kindUntilFalse:
		// Repeat while children keep succeeding.
		if len(n.children) == 0 {
			return Invalid
		}
		for _, c := range n.children {
			if c == nil {
				return Invalid
			}
			if out := t.eval(c); out != Success {
				return out
			}
		}
		return Running

	case kindReturnTrue, kindReturnFalse:
		if len(n.children) != 1 || n.children[0] == nil {
			return Invalid
		}
		child := n.children[0]
		out := t.eval(child)
		if out != Success && out != Failure {
			return out
		}
		if n.kind == kindReturnTrue {
			return Success
		}
		return Failure

	case kindNegate:
		if len(n.children) != 1 || n.children[0] == nil {
			return Invalid
		}
		child := n.children[0]
		switch out := t.eval(child); out {
		case Success:
			return Failure
		case Failure:
			return Success
		default:
			return out
		}

	case kindRepeat:
		if len(n.children) != 1 || n.children[0] == nil {
			return Invalid
		}
		child := n.children[0]
		out := Invalid
		for i := 0; i < n.count; i++ {
			out = t.eval(child)
			if out == Running || out == Invalid {
				return out
			}
		}
		return out

	case kindFactExists:
		name, ok := t.Resolve(n.params[0])
		if !ok {
			return Invalid
		}
		if t.board.FactExists(name) {
			return Success
		}
		return Failure

	case kindRemoveFact:
		name, ok := t.Resolve(n.params[0])
		if !ok {
			return Invalid
		}
		t.board.RemoveFact(name)
		return Success

	case kindSetFactConst:
		name, ok := t.Resolve(n.params[0])
		if !ok {
			return Invalid
		}
		value, ok := t.Resolve(n.params[1])
		if !ok {
			return Invalid
		}
		t.board.SetFact(name, value)
		return Success

	case kindFactEqualsConst:
		name, ok := t.Resolve(n.params[0])
		if !ok {
			return Invalid
		}
		want, ok := t.Resolve(n.params[1])
		if !ok {
			return Invalid
		}
		have, ok := t.board.GetFact(name)
		if !ok {
			return Invalid
		}
		if have == want {
			return Success
		}
		return Failure

	case kindScope:
		if len(n.children) != 1 || n.children[0] == nil {
			return Invalid
		}
		child := n.children[0]
		frame := make(map[string]string, len(n.scopeParams))
		for _, p := range n.scopeParams {
			v, ok := t.Resolve(p.ref)
			if !ok {
				// No frame was pushed, nothing to unwind.
				return Invalid
			}
			frame[p.name] = v
		}
		t.pushScope(frame)
		defer t.popScope()
		return t.eval(child)

	case kindDecision:
		if len(n.strategies) == 0 {
			return Invalid
		}
		if n.current >= 0 {
			s := n.strategies[n.current]
			out := t.eval(s.action)
			if out != Running {
				n.current = -1
			}
			return out
		}
		for i := range n.strategies {
			s := n.strategies[i]
			switch cond := t.eval(s.condition); cond {
			case Success:
				out := t.eval(s.action)
				if out == Running {
					n.current = i
				}
				return out
			case Failure:
				// Try the next strategy.
			default:
				return cond
			}
		}
		return Invalid
	}
	return Invalid
}
