package bt

// Tree owns exactly one compiled root, a blackboard handle, and a stack of
// scope frames. The blackboard may be shared between trees; the scope stack
// never is.
type Tree struct {
	root   *rnode
	board  Blackboard
	scopes []map[string]string
}

// NewTree compiles a descriptor against the registry and binds it to the
// given blackboard. A nil board gets a fresh in-memory MapBoard.
func (r *Registry) NewTree(root Node, board Blackboard) (*Tree, error) {
	compiled, err := r.compile(root)
	if err != nil {
		return nil, err
	}
	if board == nil {
		board = NewMapBoard()
	}
	return &Tree{root: compiled, board: board}, nil
}

// Tick evaluates the whole tree once. Call it once per control cycle.
func (t *Tree) Tick() Outcome {
	if t.root == nil {
		return Invalid
	}
	return t.eval(t.root)
}

// Blackboard returns the fact store the tree is bound to.
func (t *Tree) Blackboard() Blackboard {
	return t.board
}

// ScopeVar looks a variable up in the innermost scope frame only; outer
// frames are shadowed entirely while an inner scope is active.
func (t *Tree) ScopeVar(name string) (string, bool) {
	if len(t.scopes) == 0 {
		return "", false
	}
	v, ok := t.scopes[len(t.scopes)-1][name]
	return v, ok
}

func (t *Tree) pushScope(frame map[string]string) {
	t.scopes = append(t.scopes, frame)
}

func (t *Tree) popScope() {
	if len(t.scopes) > 0 {
		t.scopes = t.scopes[:len(t.scopes)-1]
	}
}
