package btvm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/chazu/arbor/pkg/bt"
)

func TestProgramWireRoundTrip(t *testing.T) {
	a := NewAssembler()
	l := a.AddLeaf(leafOf(bt.Failure))
	key := a.AddString("alerted")
	a.Emit(OpRun, l)
	br := a.EmitBranch(OpBranchFailure)
	a.Emit(OpCheckFact, key)
	a.PatchBranch(br)
	p := mustBuild(t, a)

	data, err := MarshalProgram(p)
	if err != nil {
		t.Fatalf("MarshalProgram: %v", err)
	}

	got, err := UnmarshalProgram(data, []LeafFunc{leafOf(bt.Failure)}, nil)
	if err != nil {
		t.Fatalf("UnmarshalProgram: %v", err)
	}
	if len(got.Code) != len(p.Code) {
		t.Fatalf("code length %d, want %d", len(got.Code), len(p.Code))
	}
	for i := range p.Code {
		if got.Code[i] != p.Code[i] {
			t.Errorf("code[%d] = %d, want %d", i, got.Code[i], p.Code[i])
		}
	}
	if len(got.Strings) != 1 || got.Strings[0] != "alerted" {
		t.Errorf("strings = %v, want [alerted]", got.Strings)
	}

	// The rebound program must execute.
	vm := New(got, nil)
	if out := vm.AddThread(0).Tick(); out != bt.Failure {
		t.Errorf("Tick() = %s, want Failure", out)
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	a := NewAssembler()
	a.AddString("b")
	a.AddString("a")
	a.Emit(OpSetSuccess)
	p := mustBuild(t, a)

	d1, err := MarshalProgram(p)
	if err != nil {
		t.Fatalf("MarshalProgram: %v", err)
	}
	d2, err := MarshalProgram(p)
	if err != nil {
		t.Fatalf("MarshalProgram: %v", err)
	}
	if !bytes.Equal(d1, d2) {
		t.Error("two encodings of the same program differ")
	}
}

func TestUnmarshalRejectsTableMismatch(t *testing.T) {
	a := NewAssembler()
	l := a.AddLeaf(leafOf(bt.Success))
	a.Emit(OpRun, l)
	data, err := MarshalProgram(mustBuild(t, a))
	if err != nil {
		t.Fatalf("MarshalProgram: %v", err)
	}

	if _, err := UnmarshalProgram(data, nil, nil); err == nil {
		t.Error("missing leaves accepted")
	} else if !strings.Contains(err.Error(), "leaves") {
		t.Errorf("error %q does not mention leaves", err)
	}

	if _, err := UnmarshalProgram(data, []LeafFunc{leafOf(bt.Success)}, []DecoratorFunc{nil}); err == nil {
		t.Error("extra decorators accepted")
	}
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	if _, err := UnmarshalProgram([]byte{0xFF, 0x00, 0x01}, nil, nil); err == nil {
		t.Error("garbage bytes accepted")
	}
}
