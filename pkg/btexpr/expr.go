// Package btexpr builds behavior-tree leaves from expr-lang
// expressions. Expressions are compiled once, at tree-construction
// time, and evaluated natively on every tick against the tree's fact
// store.
//
// The expression environment exposes three functions:
//
//	fact(name)   - the fact's value as a string, "" if absent
//	exists(name) - whether the fact is present
//	num(name)    - the fact's value parsed as a float, 0 if absent or unparseable
//
// Fact names go through the tree's reference resolution, so "#target"
// and "@slot" indirection work inside expressions the same way they do
// in node parameters.
package btexpr

import (
	"fmt"
	"strconv"

	"github.com/expr-lang/expr"

	"github.com/chazu/arbor/pkg/bt"
)

type exprEnv struct {
	Fact   func(name string) string  `expr:"fact"`
	Exists func(name string) bool    `expr:"exists"`
	Num    func(name string) float64 `expr:"num"`
}

func envFor(t *bt.Tree) exprEnv {
	lookup := func(name string) (string, bool) {
		resolved, ok := t.Resolve(name)
		if !ok {
			return "", false
		}
		return t.Blackboard().GetFact(resolved)
	}
	return exprEnv{
		Fact: func(name string) string {
			v, _ := lookup(name)
			return v
		},
		Exists: func(name string) bool {
			resolved, ok := t.Resolve(name)
			if !ok {
				return false
			}
			return t.Blackboard().FactExists(resolved)
		},
		Num: func(name string) float64 {
			v, ok := lookup(name)
			if !ok {
				return 0
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return 0
			}
			return f
		},
	}
}

// Condition compiles a boolean expression into a leaf. The leaf returns
// Success when the expression is true, Failure when false, and Invalid
// if evaluation fails at tick time.
func Condition(src string) (bt.LeafFunc, error) {
	program, err := expr.Compile(src,
		expr.Env(exprEnv{}),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("btexpr: compile %q: %w", src, err)
	}
	return func(t *bt.Tree, _ []string) bt.Outcome {
		out, err := expr.Run(program, envFor(t))
		if err != nil {
			return bt.Invalid
		}
		if out.(bool) {
			return bt.Success
		}
		return bt.Failure
	}, nil
}

// ScoreFunc computes a numeric score against a fact store.
type ScoreFunc func(facts bt.Blackboard) (float64, error)

// Score compiles a numeric expression for utility scoring. Unlike
// Condition the expression runs against a bare fact store, with no
// scope frames, so fact names are taken literally.
func Score(src string) (ScoreFunc, error) {
	program, err := expr.Compile(src,
		expr.Env(exprEnv{}),
		expr.AsFloat64(),
	)
	if err != nil {
		return nil, fmt.Errorf("btexpr: compile %q: %w", src, err)
	}
	return func(facts bt.Blackboard) (float64, error) {
		out, err := expr.Run(program, boardEnv(facts))
		if err != nil {
			return 0, fmt.Errorf("btexpr: eval %q: %w", src, err)
		}
		return out.(float64), nil
	}, nil
}

// Predicate compiles a boolean expression for use outside a tree, e.g.
// as a utility-selector condition. Fact names are taken literally.
func Predicate(src string) (func(facts bt.Blackboard) (bool, error), error) {
	program, err := expr.Compile(src,
		expr.Env(exprEnv{}),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("btexpr: compile %q: %w", src, err)
	}
	return func(facts bt.Blackboard) (bool, error) {
		out, err := expr.Run(program, boardEnv(facts))
		if err != nil {
			return false, fmt.Errorf("btexpr: eval %q: %w", src, err)
		}
		return out.(bool), nil
	}, nil
}

func boardEnv(facts bt.Blackboard) exprEnv {
	return exprEnv{
		Fact: func(name string) string {
			v, _ := facts.GetFact(name)
			return v
		},
		Exists: facts.FactExists,
		Num: func(name string) float64 {
			v, ok := facts.GetFact(name)
			if !ok {
				return 0
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return 0
			}
			return f
		},
	}
}

// MustCondition is Condition but panics on compile error. Intended for
// statically-known expressions in tree literals.
func MustCondition(src string) bt.LeafFunc {
	leaf, err := Condition(src)
	if err != nil {
		panic(err)
	}
	return leaf
}
