package btexpr

import (
	"testing"

	"github.com/chazu/arbor/pkg/bt"
)

func newTree(t *testing.T, root bt.Node, board bt.Blackboard) *bt.Tree {
	t.Helper()
	tree, err := bt.NewRegistry().NewTree(root, board)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	return tree
}

func TestConditionAgainstFacts(t *testing.T) {
	board := bt.NewMapBoard()
	board.SetFact("health", "40")
	board.SetFact("state", "fleeing")

	tests := []struct {
		src  string
		want bt.Outcome
	}{
		{`num("health") < 50`, bt.Success},
		{`num("health") >= 50`, bt.Failure},
		{`fact("state") == "fleeing"`, bt.Success},
		{`exists("mana") || exists("state")`, bt.Success},
		{`exists("missing")`, bt.Failure},
		{`num("missing") == 0`, bt.Success},
	}
	for _, tt := range tests {
		leaf, err := Condition(tt.src)
		if err != nil {
			t.Fatalf("Condition(%q): %v", tt.src, err)
		}
		tree := newTree(t, bt.Leaf(leaf), board)
		if out := tree.Tick(); out != tt.want {
			t.Errorf("%s = %s, want %s", tt.src, out, tt.want)
		}
	}
}

func TestConditionResolvesIndirection(t *testing.T) {
	board := bt.NewMapBoard()
	board.SetFact("slot", "ammo")
	board.SetFact("ammo", "7")

	leaf, err := Condition(`num("@slot") == 7`)
	if err != nil {
		t.Fatalf("Condition: %v", err)
	}
	tree := newTree(t, bt.Leaf(leaf), board)
	if out := tree.Tick(); out != bt.Success {
		t.Errorf("indirect condition = %s, want Success", out)
	}
}

func TestConditionCompileError(t *testing.T) {
	if _, err := Condition(`num("health" <`); err == nil {
		t.Error("malformed expression compiled")
	}
}

func TestConditionInsideSequence(t *testing.T) {
	board := bt.NewMapBoard()
	board.SetFact("ammo", "0")

	leaf, err := Condition(`num("ammo") > 0`)
	if err != nil {
		t.Fatalf("Condition: %v", err)
	}
	tree := newTree(t, bt.Selector(
		bt.Leaf(leaf),
		bt.SetFactConst("intent", "reload"),
	), board)

	if out := tree.Tick(); out != bt.Success {
		t.Fatalf("Tick() = %s, want Success", out)
	}
	if v, _ := board.GetFact("intent"); v != "reload" {
		t.Errorf("intent = %q, want reload", v)
	}
}

func TestScore(t *testing.T) {
	board := bt.NewMapBoard()
	board.SetFact("threat", "3")

	score, err := Score(`num("threat") * 10.0`)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	got, err := score(board)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if got != 30 {
		t.Errorf("score = %v, want 30", got)
	}
}

func TestPredicate(t *testing.T) {
	board := bt.NewMapBoard()
	board.SetFact("cover", "near")

	pred, err := Predicate(`fact("cover") == "near"`)
	if err != nil {
		t.Fatalf("Predicate: %v", err)
	}
	ok, err := pred(board)
	if err != nil {
		t.Fatalf("pred: %v", err)
	}
	if !ok {
		t.Error("pred = false, want true")
	}
}

func TestMustConditionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustCondition did not panic on bad source")
		}
	}()
	MustCondition(`((`)
}
