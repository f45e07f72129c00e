package utility

import (
	"github.com/chazu/arbor/pkg/bt"
	"github.com/chazu/arbor/pkg/btexpr"
)

// FactCondition compiles a boolean expression into a Condition that
// evaluates against the given fact store. Evaluation errors read as
// false.
func FactCondition(facts bt.Blackboard, src string) (Condition, error) {
	pred, err := btexpr.Predicate(src)
	if err != nil {
		return nil, err
	}
	return func() bool {
		ok, err := pred(facts)
		return err == nil && ok
	}, nil
}

// FactScore compiles a numeric expression into a Score that evaluates
// against the given fact store. Evaluation errors read as zero.
func FactScore(facts bt.Blackboard, src string) (Score, error) {
	fn, err := btexpr.Score(src)
	if err != nil {
		return nil, err
	}
	return func() float64 {
		v, err := fn(facts)
		if err != nil {
			return 0
		}
		return v
	}, nil
}

// Always is a condition that always holds.
func Always() bool { return true }
