// Package btdef loads behavior-tree definitions from TOML files and
// builds them into executable trees. A definition names the tree, seeds
// starting facts, and describes the node graph; host-specific actions
// are referenced by name and bound at build time through a Bindings
// table.
package btdef

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chazu/arbor/pkg/bt"
	"github.com/chazu/arbor/pkg/btexpr"
)

// Def is the top-level shape of a tree definition file.
type Def struct {
	Tree  TreeMeta          `toml:"tree"`
	Facts map[string]string `toml:"facts"`
	Root  NodeDef           `toml:"root"`
}

// TreeMeta carries the definition's identifying metadata.
type TreeMeta struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

// NodeDef describes one node in the definition graph. Which fields are
// meaningful depends on Kind; Build reports a descriptive error when a
// required field is missing.
type NodeDef struct {
	Kind      string            `toml:"kind"`
	Ref       string            `toml:"ref"`
	Params    []string          `toml:"params"`
	Leaf      string            `toml:"leaf"`      // bindings-table name, kind "leaf"
	Expr      string            `toml:"expr"`      // boolean expression, kind "condition"
	Count     int               `toml:"count"`     // kind "repeat"
	Threshold int               `toml:"threshold"` // kind "parallel", 0 means default
	Vars      map[string]string `toml:"vars"`      // kind "scope"
	Children  []NodeDef         `toml:"children"`
}

// Bindings maps definition-file names to host callables.
type Bindings struct {
	Leaves     map[string]bt.LeafFunc
	Decorators map[string]bt.DecoratorFunc
}

// Load reads and parses a definition file.
func Load(path string) (*Def, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses definition bytes.
func Parse(data []byte) (*Def, error) {
	var d Def
	if err := toml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("btdef: parse error: %w", err)
	}
	if d.Root.Kind == "" {
		return nil, fmt.Errorf("btdef: definition has no root node")
	}
	return &d, nil
}

// Build compiles the definition into a tree bound to the given fact
// store, seeding the definition's starting facts first. A nil store
// gets a fresh in-memory board; nil Bindings allows only kinds that
// need no host callables.
func (d *Def) Build(reg *bt.Registry, board bt.Blackboard, binds Bindings) (*bt.Tree, error) {
	root, err := buildNode(d.Root, binds)
	if err != nil {
		return nil, fmt.Errorf("btdef: tree %q: %w", d.Tree.Name, err)
	}
	if board == nil {
		board = bt.NewMapBoard()
	}
	for name, value := range d.Facts {
		board.SetFact(name, value)
	}
	return reg.NewTree(root, board)
}

func buildNode(nd NodeDef, binds Bindings) (bt.Node, error) {
	kind := strings.ToLower(nd.Kind)

	// Decision children are strategy blocks, not nodes in their own
	// right; the decision case walks them itself.
	var children []bt.Node
	if kind != "decision" {
		children = make([]bt.Node, 0, len(nd.Children))
		for i, cd := range nd.Children {
			child, err := buildNode(cd, binds)
			if err != nil {
				return bt.Node{}, fmt.Errorf("%s child %d: %w", nd.Kind, i, err)
			}
			children = append(children, child)
		}
	}

	one := func() (bt.Node, error) {
		if len(children) != 1 {
			return bt.Node{}, fmt.Errorf("%s needs exactly one child, has %d", nd.Kind, len(children))
		}
		return children[0], nil
	}

	var n bt.Node
	switch kind {
	case "sequence":
		n = bt.Sequence(children...)
	case "selector":
		n = bt.Selector(children...)
	case "parallel":
		if nd.Threshold > 0 {
			n = bt.ParallelThreshold(nd.Threshold, children...)
		} else {
			n = bt.Parallel(children...)
		}
	case "until-true":
		n = bt.UntilTrue(children...)
	case "until-false":
		n = bt.UntilFalse(children...)

	case "return-true":
		child, err := one()
		if err != nil {
			return bt.Node{}, err
		}
		n = bt.ReturnTrue(child)
	case "return-false":
		child, err := one()
		if err != nil {
			return bt.Node{}, err
		}
		n = bt.ReturnFalse(child)
	case "negate":
		child, err := one()
		if err != nil {
			return bt.Node{}, err
		}
		n = bt.Negate(child)
	case "repeat":
		child, err := one()
		if err != nil {
			return bt.Node{}, err
		}
		if nd.Count < 1 {
			return bt.Node{}, fmt.Errorf("repeat needs count >= 1, has %d", nd.Count)
		}
		n = bt.Repeat(nd.Count, child)

	case "scope":
		child, err := one()
		if err != nil {
			return bt.Node{}, err
		}
		n = bt.Scope(nd.Vars, child)

	case "fact-exists":
		n = bt.Node{Kind: bt.KindFactExists, Params: nd.Params}
	case "remove-fact":
		n = bt.Node{Kind: bt.KindRemoveFact, Params: nd.Params}
	case "set-fact":
		n = bt.Node{Kind: bt.KindSetFactConst, Params: nd.Params}
	case "fact-equals":
		n = bt.Node{Kind: bt.KindFactEqualsConst, Params: nd.Params}

	case "leaf":
		if nd.Leaf == "" {
			return bt.Node{}, fmt.Errorf("leaf node has no leaf name")
		}
		fn, ok := binds.Leaves[nd.Leaf]
		if !ok {
			return bt.Node{}, fmt.Errorf("unbound leaf %q", nd.Leaf)
		}
		n = bt.Leaf(fn, nd.Params...)

	case "decorator":
		child, err := one()
		if err != nil {
			return bt.Node{}, err
		}
		if nd.Leaf == "" {
			return bt.Node{}, fmt.Errorf("decorator node has no name")
		}
		fn, ok := binds.Decorators[nd.Leaf]
		if !ok {
			return bt.Node{}, fmt.Errorf("unbound decorator %q", nd.Leaf)
		}
		n = bt.Decorate(fn, child, nd.Params...)

	case "condition":
		if nd.Expr == "" {
			return bt.Node{}, fmt.Errorf("condition node has no expr")
		}
		fn, err := btexpr.Condition(nd.Expr)
		if err != nil {
			return bt.Node{}, err
		}
		n = bt.Leaf(fn)

	case "decision":
		strategies := make([]bt.Node, 0, len(nd.Children))
		for i, cd := range nd.Children {
			if !strings.EqualFold(cd.Kind, "strategy") {
				return bt.Node{}, fmt.Errorf("decision child %d is %q, want strategy", i, cd.Kind)
			}
			if len(cd.Children) != 2 {
				return bt.Node{}, fmt.Errorf("strategy %d needs condition and action children, has %d", i, len(cd.Children))
			}
			cond, err := buildNode(cd.Children[0], binds)
			if err != nil {
				return bt.Node{}, fmt.Errorf("strategy %d condition: %w", i, err)
			}
			action, err := buildNode(cd.Children[1], binds)
			if err != nil {
				return bt.Node{}, fmt.Errorf("strategy %d action: %w", i, err)
			}
			strategies = append(strategies, bt.Strategy(cond, action))
		}
		n = bt.Decision(strategies...)

	default:
		return bt.Node{}, fmt.Errorf("unknown node kind %q", nd.Kind)
	}

	if nd.Ref != "" {
		n = n.WithRef(nd.Ref)
	}
	return n, nil
}

// ParseIntParam is a helper for host leaves whose parameters carry
// numbers; it resolves nothing, just converts.
func ParseIntParam(params []string, i int) (int, error) {
	if i >= len(params) {
		return 0, fmt.Errorf("btdef: missing parameter %d", i)
	}
	v, err := strconv.Atoi(params[i])
	if err != nil {
		return 0, fmt.Errorf("btdef: parameter %d: %w", i, err)
	}
	return v, nil
}
