package bt

import "fmt"

// Outcome is the result of ticking a node or a whole tree.
type Outcome uint8

const (
	// Invalid signals a structural or configuration error: an empty
	// composite, a missing callable, an unresolvable reference. It
	// propagates upward unchanged and is never reinterpreted as Failure.
	Invalid Outcome = iota

	// Success means the node's condition held or its action completed.
	Success

	// Failure means the node's condition did not hold or its action could
	// not complete. Composites treat it differently from Invalid.
	Failure

	// Running means the node is still in progress and should be ticked
	// again on the next control cycle.
	Running
)

// String returns a human-readable name for the outcome.
func (o Outcome) String() string {
	switch o {
	case Invalid:
		return "Invalid"
	case Success:
		return "Success"
	case Failure:
		return "Failure"
	case Running:
		return "Running"
	default:
		return fmt.Sprintf("Outcome(%d)", uint8(o))
	}
}
