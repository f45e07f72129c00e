package bt

// Blackboard is the fact store consumed by the engine. The host may supply
// any implementation honoring these four operations; facts are plain strings
// with no typing and no expiry. Implementations are not required to be safe
// for concurrent use: the engine is single-caller-driven, and a board shared
// across trees must be serialized by the caller.
type Blackboard interface {
	// SetFact stores value under name, creating the fact if needed.
	SetFact(name, value string)
	// GetFact returns the value of a fact, reporting whether it exists.
	GetFact(name string) (string, bool)
	// RemoveFact deletes a fact. Removing a missing fact is a no-op.
	RemoveFact(name string)
	// FactExists reports whether a fact is present.
	FactExists(name string) bool
}

// MapBoard is the default Blackboard: a plain in-memory map.
type MapBoard struct {
	facts map[string]string
}

// NewMapBoard returns an empty in-memory blackboard.
func NewMapBoard() *MapBoard {
	return &MapBoard{facts: make(map[string]string)}
}

func (b *MapBoard) SetFact(name, value string) {
	b.facts[name] = value
}

func (b *MapBoard) GetFact(name string) (string, bool) {
	v, ok := b.facts[name]
	return v, ok
}

func (b *MapBoard) RemoveFact(name string) {
	delete(b.facts, name)
}

func (b *MapBoard) FactExists(name string) bool {
	_, ok := b.facts[name]
	return ok
}

// Len returns the number of facts on the board.
func (b *MapBoard) Len() int {
	return len(b.facts)
}
