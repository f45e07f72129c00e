package bt

import (
	"fmt"
	"strconv"
)

// Registry maps node kinds to compiled forms. It is an explicit value rather
// than a package-level singleton so independent rule sets can coexist; build
// one with NewRegistry and reuse it for as many trees as needed.
type Registry struct {
	ctors map[string]ctorFunc
}

type ctorFunc func(r *Registry, n Node) (*rnode, error)

// NewRegistry returns a registry populated with the built-in node kinds.
func NewRegistry() *Registry {
	r := &Registry{ctors: make(map[string]ctorFunc)}
	r.ctors[KindSequence] = compileComposite(kindSequence)
	r.ctors[KindSelector] = compileComposite(kindSelector)
	r.ctors[KindUntilTrue] = compileComposite(kindUntilTrue)
	r.ctors[KindUntilFalse] = compileComposite(kindUntilFalse)
	r.ctors[KindParallel] = compileParallel
	r.ctors[KindReturnTrue] = compileSingleChild(kindReturnTrue)
	r.ctors[KindReturnFalse] = compileSingleChild(kindReturnFalse)
	r.ctors[KindNegate] = compileSingleChild(kindNegate)
	r.ctors[KindRepeat] = compileRepeat
	r.ctors[KindFactExists] = compileFactParams(kindFactExists, 1)
	r.ctors[KindRemoveFact] = compileFactParams(kindRemoveFact, 1)
	r.ctors[KindSetFactConst] = compileFactParams(kindSetFactConst, 2)
	r.ctors[KindFactEqualsConst] = compileFactParams(kindFactEqualsConst, 2)
	r.ctors[KindScope] = compileScope
	r.ctors[KindDecision] = compileDecision
	return r
}

// compile turns a descriptor into its executable form, depth-first. An
// unbuildable descriptor is a configuration error, not a runtime failure.
func (r *Registry) compile(n Node) (*rnode, error) {
	if n.Leaf != nil {
		return &rnode{kind: kindLeaf, ref: n.Ref, leaf: n.Leaf, params: n.Params, current: -1}, nil
	}
	if n.Decorator != nil {
		if len(n.Children) != 1 {
			return nil, fmt.Errorf("bt: decorator %q needs exactly one child, got %d", n.Ref, len(n.Children))
		}
		child, err := r.compile(n.Children[0])
		if err != nil {
			return nil, err
		}
		return &rnode{
			kind:      kindDecorate,
			ref:       n.Ref,
			decorator: n.Decorator,
			children:  []*rnode{child},
			params:    n.Params,
			current:   -1,
		}, nil
	}
	ctor, ok := r.ctors[n.Kind]
	if !ok {
		return nil, fmt.Errorf("bt: unknown node kind %q", n.Kind)
	}
	return ctor(r, n)
}

func (r *Registry) compileChildren(n Node) ([]*rnode, error) {
	children := make([]*rnode, len(n.Children))
	for i, c := range n.Children {
		compiled, err := r.compile(c)
		if err != nil {
			return nil, err
		}
		children[i] = compiled
	}
	return children, nil
}

func compileComposite(kind nodeKind) ctorFunc {
	return func(r *Registry, n Node) (*rnode, error) {
		children, err := r.compileChildren(n)
		if err != nil {
			return nil, err
		}
		return &rnode{kind: kind, ref: n.Ref, children: children, current: -1}, nil
	}
}

func compileParallel(r *Registry, n Node) (*rnode, error) {
	children, err := r.compileChildren(n)
	if err != nil {
		return nil, err
	}
	threshold := len(children) - 1
	if len(n.Params) > 0 {
		threshold, err = strconv.Atoi(n.Params[0])
		if err != nil {
			return nil, fmt.Errorf("bt: parallel threshold %q: %w", n.Params[0], err)
		}
	}
	return &rnode{kind: kindParallel, ref: n.Ref, children: children, threshold: threshold, current: -1}, nil
}

func compileSingleChild(kind nodeKind) ctorFunc {
	return func(r *Registry, n Node) (*rnode, error) {
		if len(n.Children) != 1 {
			return nil, fmt.Errorf("bt: %s needs exactly one child, got %d", n.Kind, len(n.Children))
		}
		child, err := r.compile(n.Children[0])
		if err != nil {
			return nil, err
		}
		return &rnode{kind: kind, ref: n.Ref, children: []*rnode{child}, current: -1}, nil
	}
}

func compileRepeat(r *Registry, n Node) (*rnode, error) {
	if len(n.Children) != 1 {
		return nil, fmt.Errorf("bt: Repeat needs exactly one child, got %d", len(n.Children))
	}
	if len(n.Params) != 1 {
		return nil, fmt.Errorf("bt: Repeat needs a count parameter")
	}
	count, err := strconv.Atoi(n.Params[0])
	if err != nil {
		return nil, fmt.Errorf("bt: repeat count %q: %w", n.Params[0], err)
	}
	child, err := r.compile(n.Children[0])
	if err != nil {
		return nil, err
	}
	return &rnode{kind: kindRepeat, ref: n.Ref, children: []*rnode{child}, count: count, current: -1}, nil
}

func compileFactParams(kind nodeKind, nParams int) ctorFunc {
	return func(r *Registry, n Node) (*rnode, error) {
		if len(n.Params) != nParams {
			return nil, fmt.Errorf("bt: %s needs %d parameter(s), got %d", n.Kind, nParams, len(n.Params))
		}
		return &rnode{kind: kind, ref: n.Ref, params: n.Params, current: -1}, nil
	}
}

func compileScope(r *Registry, n Node) (*rnode, error) {
	if len(n.Children) != 1 {
		return nil, fmt.Errorf("bt: Scope needs exactly one child, got %d", len(n.Children))
	}
	if len(n.Params)%2 != 0 {
		return nil, fmt.Errorf("bt: Scope parameters must be name/reference pairs")
	}
	child, err := r.compile(n.Children[0])
	if err != nil {
		return nil, err
	}
	params := make([]scopeParam, 0, len(n.Params)/2)
	for i := 0; i+1 < len(n.Params); i += 2 {
		params = append(params, scopeParam{name: n.Params[i], ref: n.Params[i+1]})
	}
	return &rnode{kind: kindScope, ref: n.Ref, children: []*rnode{child}, scopeParams: params, current: -1}, nil
}

func compileDecision(r *Registry, n Node) (*rnode, error) {
	strategies := make([]strategy, 0, len(n.Children))
	for i, c := range n.Children {
		if c.Kind != KindStrategy {
			return nil, fmt.Errorf("bt: Decision child %d is %q, want Strategy", i, c.Kind)
		}
		if len(c.Children) != 2 {
			return nil, fmt.Errorf("bt: Strategy needs a condition and an action, got %d children", len(c.Children))
		}
		condition, err := r.compile(c.Children[0])
		if err != nil {
			return nil, err
		}
		action, err := r.compile(c.Children[1])
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, strategy{condition: condition, action: action})
	}
	return &rnode{kind: kindDecision, ref: n.Ref, strategies: strategies, current: -1}, nil
}
