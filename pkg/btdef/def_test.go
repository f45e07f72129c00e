package btdef

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/arbor/pkg/bt"
)

const patrolDef = `
[tree]
name = "patrol"
description = "shoot while ammo lasts, otherwise reload"

[facts]
ammo = "3"

[root]
kind = "selector"

[[root.children]]
kind = "sequence"

[[root.children.children]]
kind = "condition"
expr = 'num("ammo") > 0'

[[root.children.children]]
kind = "leaf"
leaf = "shoot"

[[root.children]]
kind = "set-fact"
params = ["intent", "reload"]
`

func buildPatrol(t *testing.T, facts map[string]string, shots *int) (*bt.Tree, bt.Blackboard) {
	t.Helper()
	d, err := Parse([]byte(patrolDef))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	board := bt.NewMapBoard()
	for k, v := range facts {
		board.SetFact(k, v)
	}
	tree, err := d.Build(bt.NewRegistry(), board, Bindings{
		Leaves: map[string]bt.LeafFunc{
			"shoot": func(*bt.Tree, []string) bt.Outcome {
				*shots++
				return bt.Success
			},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tree, board
}

func TestBuildAndTick(t *testing.T) {
	shots := 0
	tree, board := buildPatrol(t, nil, &shots)

	if out := tree.Tick(); out != bt.Success {
		t.Fatalf("Tick() = %s, want Success", out)
	}
	if shots != 1 {
		t.Errorf("shoot ran %d times, want 1", shots)
	}
	if board.FactExists("intent") {
		t.Error("reload branch ran with ammo available")
	}
	if v, _ := board.GetFact("ammo"); v != "3" {
		t.Errorf("seeded fact ammo = %q, want 3", v)
	}
}

func TestBuildFallbackBranch(t *testing.T) {
	shots := 0
	// Explicit facts override the definition's seeds.
	tree, board := buildPatrol(t, map[string]string{"ammo": "0"}, &shots)

	// Definition seeds run after the host's, so re-zero it.
	board.SetFact("ammo", "0")
	if out := tree.Tick(); out != bt.Success {
		t.Fatalf("Tick() = %s, want Success", out)
	}
	if shots != 0 {
		t.Errorf("shoot ran %d times with no ammo", shots)
	}
	if v, _ := board.GetFact("intent"); v != "reload" {
		t.Errorf("intent = %q, want reload", v)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patrol.toml")
	if err := os.WriteFile(path, []byte(patrolDef), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Tree.Name != "patrol" {
		t.Errorf("tree name = %q, want patrol", d.Tree.Name)
	}
	if d.Facts["ammo"] != "3" {
		t.Errorf("facts = %v", d.Facts)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load of missing file succeeded")
	}
}

func TestScopeDefinition(t *testing.T) {
	const src = `
[root]
kind = "scope"

[root.vars]
target = "enemy1"

[[root.children]]
kind = "fact-exists"
params = ["#target"]
`
	d, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	board := bt.NewMapBoard()
	board.SetFact("enemy1", "alive")
	tree, err := d.Build(bt.NewRegistry(), board, Bindings{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if out := tree.Tick(); out != bt.Success {
		t.Errorf("Tick() = %s, want Success", out)
	}
}

func TestDecisionDefinition(t *testing.T) {
	const src = `
[root]
kind = "decision"

[[root.children]]
kind = "strategy"

[[root.children.children]]
kind = "fact-exists"
params = ["threat"]

[[root.children.children]]
kind = "set-fact"
params = ["intent", "fight"]

[[root.children]]
kind = "strategy"

[[root.children.children]]
kind = "return-true"

[[root.children.children.children]]
kind = "fact-exists"
params = ["anything"]

[[root.children.children]]
kind = "set-fact"
params = ["intent", "wander"]
`
	d, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	board := bt.NewMapBoard()
	tree, err := d.Build(bt.NewRegistry(), board, Bindings{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if out := tree.Tick(); out != bt.Success {
		t.Fatalf("Tick() = %s, want Success", out)
	}
	if v, _ := board.GetFact("intent"); v != "wander" {
		t.Errorf("intent = %q, want wander", v)
	}
}

func TestDecisionNestedInComposite(t *testing.T) {
	// Strategy blocks are only valid under a decision; the builder must
	// not try them as standalone nodes while walking the outer tree.
	const src = `
[root]
kind = "sequence"

[[root.children]]
kind = "decision"

[[root.children.children]]
kind = "strategy"

[[root.children.children.children]]
kind = "return-true"

[[root.children.children.children.children]]
kind = "fact-exists"
params = ["anything"]

[[root.children.children.children]]
kind = "set-fact"
params = ["mode", "idle"]

[[root.children]]
kind = "fact-equals"
params = ["mode", "idle"]
`
	d, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	board := bt.NewMapBoard()
	tree, err := d.Build(bt.NewRegistry(), board, Bindings{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if out := tree.Tick(); out != bt.Success {
		t.Fatalf("Tick() = %s, want Success", out)
	}
	if v, _ := board.GetFact("mode"); v != "idle" {
		t.Errorf("mode = %q, want idle", v)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"no root", "[tree]\nname = \"x\"\n", "no root"},
		{"bad toml", "[root\n", "parse error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			if err == nil {
				t.Fatal("Parse succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown kind", "[root]\nkind = \"teleport\"\n", "unknown node kind"},
		{"unbound leaf", "[root]\nkind = \"leaf\"\nleaf = \"fly\"\n", "unbound leaf"},
		{"repeat without count", "[root]\nkind = \"repeat\"\n\n[[root.children]]\nkind = \"return-true\"\n\n[[root.children.children]]\nkind = \"fact-exists\"\nparams = [\"x\"]\n", "count"},
		{"negate arity", "[root]\nkind = \"negate\"\n", "exactly one child"},
		{"decision non-strategy child", "[root]\nkind = \"decision\"\n\n[[root.children]]\nkind = \"sequence\"\n", "want strategy"},
		{"condition without expr", "[root]\nkind = \"condition\"\n", "no expr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse([]byte(tt.src))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			_, err = d.Build(bt.NewRegistry(), nil, Bindings{})
			if err == nil {
				t.Fatal("Build succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q, want substring %q", err, tt.want)
			}
		})
	}
}
