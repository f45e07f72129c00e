package bt

// maxResolveDepth bounds recursive indirection so a self-referential fact or
// scope variable resolves to a failure instead of looping forever.
const maxResolveDepth = 32

// Resolve turns a parameter token into a concrete value or fact name.
//
//   - ""        -> failure, nothing is addressable
//   - "#name"   -> look name up in the innermost scope frame, then resolve
//     the retrieved value as a token again
//   - "@token"  -> resolve token to an intermediate name, then read that
//     fact's value from the blackboard (one direct lookup, not recursive)
//   - anything else is returned unchanged
//
// Nodes call this for every parameter before use; a parameter is never
// assumed to be literal.
func (t *Tree) Resolve(token string) (string, bool) {
	return t.resolve(token, 0)
}

func (t *Tree) resolve(token string, depth int) (string, bool) {
	if token == "" || depth >= maxResolveDepth {
		return "", false
	}
	switch token[0] {
	case '#':
		v, ok := t.ScopeVar(token[1:])
		if !ok {
			return "", false
		}
		return t.resolve(v, depth+1)
	case '@':
		name, ok := t.resolve(token[1:], depth+1)
		if !ok {
			return "", false
		}
		return t.board.GetFact(name)
	}
	return token, true
}
