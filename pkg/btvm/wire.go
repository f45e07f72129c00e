package btvm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical options so that equal programs always
// encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("btvm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// wireProgram is the serialized shape of a Program. Callables cannot
// cross the wire; only their table sizes do, so the receiving side can
// verify it supplies the same number of leaves and decorators the code
// was assembled against.
type wireProgram struct {
	Code           []uint16 `cbor:"code"`
	LeafCount      int      `cbor:"leaves"`
	DecoratorCount int      `cbor:"decorators"`
	Strings        []string `cbor:"strings"`
}

// MarshalProgram serializes a program to CBOR bytes. Leaf and decorator
// callables are represented by their table counts only.
func MarshalProgram(p *Program) ([]byte, error) {
	return cborEncMode.Marshal(&wireProgram{
		Code:           p.Code,
		LeafCount:      len(p.Leaves),
		DecoratorCount: len(p.Decorators),
		Strings:        p.Strings,
	})
}

// UnmarshalProgram deserializes a program from CBOR bytes, rebinding
// the host-supplied leaf and decorator tables. The tables must match
// the counts the program was assembled with, and the result must pass
// validation.
func UnmarshalProgram(data []byte, leaves []LeafFunc, decorators []DecoratorFunc) (*Program, error) {
	var w wireProgram
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("btvm: unmarshal program: %w", err)
	}
	if len(leaves) != w.LeafCount {
		return nil, fmt.Errorf("btvm: program expects %d leaves, host supplied %d", w.LeafCount, len(leaves))
	}
	if len(decorators) != w.DecoratorCount {
		return nil, fmt.Errorf("btvm: program expects %d decorators, host supplied %d", w.DecoratorCount, len(decorators))
	}
	p := &Program{
		Code:       w.Code,
		Leaves:     leaves,
		Decorators: decorators,
		Strings:    w.Strings,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
