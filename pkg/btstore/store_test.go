package btstore

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/chazu/arbor/pkg/bt"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "facts.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFactCRUD(t *testing.T) {
	s := openStore(t)

	if s.FactExists("health") {
		t.Error("fresh store has facts")
	}
	s.SetFact("health", "100")
	if v, ok := s.GetFact("health"); !ok || v != "100" {
		t.Errorf("GetFact = %q, %v", v, ok)
	}

	s.SetFact("health", "60")
	if v, _ := s.GetFact("health"); v != "60" {
		t.Errorf("overwrite: GetFact = %q, want 60", v)
	}

	s.RemoveFact("health")
	if s.FactExists("health") {
		t.Error("fact present after removal")
	}
	s.RemoveFact("health") // absent, not an error

	if err := s.Err(); err != nil {
		t.Errorf("Err() = %v after clean CRUD", err)
	}
}

func TestPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.SetFact("home", "base-7")
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if v, ok := s2.GetFact("home"); !ok || v != "base-7" {
		t.Errorf("after reopen GetFact = %q, %v", v, ok)
	}
}

func TestTreeRunsAgainstStore(t *testing.T) {
	s := openStore(t)
	s.SetFact("threat", "high")

	tree, err := bt.NewRegistry().NewTree(bt.Sequence(
		bt.FactExists("threat"),
		bt.SetFactConst("intent", "retreat"),
	), s)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	if out := tree.Tick(); out != bt.Success {
		t.Fatalf("Tick() = %s, want Success", out)
	}
	if v, _ := s.GetFact("intent"); v != "retreat" {
		t.Errorf("intent = %q, want retreat", v)
	}
}

func TestSnapshotRestore(t *testing.T) {
	s := openStore(t)
	s.SetFact("ammo", "5")
	s.SetFact("pos", "12,9")

	id, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if id == "" {
		t.Fatal("empty snapshot id")
	}

	s.SetFact("ammo", "0")
	s.RemoveFact("pos")
	s.SetFact("panic", "yes")

	if err := s.Restore(id); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	facts, err := s.Facts()
	if err != nil {
		t.Fatalf("Facts: %v", err)
	}
	want := map[string]string{"ammo": "5", "pos": "12,9"}
	if len(facts) != len(want) {
		t.Fatalf("facts = %v, want %v", facts, want)
	}
	for k, v := range want {
		if facts[k] != v {
			t.Errorf("fact %s = %q, want %q", k, facts[k], v)
		}
	}
}

func TestSnapshotListAndDelete(t *testing.T) {
	s := openStore(t)
	s.SetFact("k", "v")

	id1, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	id2, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	infos, err := s.Snapshots()
	if err != nil {
		t.Fatalf("Snapshots: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(infos))
	}
	if infos[0].TakenAt.Before(infos[1].TakenAt) {
		t.Error("snapshots not newest-first")
	}

	if err := s.DeleteSnapshot(id1); err != nil {
		t.Fatalf("DeleteSnapshot: %v", err)
	}
	if err := s.DeleteSnapshot(id1); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("second delete = %v, want ErrSnapshotNotFound", err)
	}
	if err := s.Restore(id2); err != nil {
		t.Errorf("Restore surviving snapshot: %v", err)
	}
}

func TestRestoreUnknownSnapshot(t *testing.T) {
	s := openStore(t)
	if err := s.Restore("no-such-id"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("Restore = %v, want ErrSnapshotNotFound", err)
	}
}

func TestCount(t *testing.T) {
	s := openStore(t)
	for _, name := range []string{"a", "b", "c"} {
		s.SetFact(name, "1")
	}
	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}
