// Package utility implements utility-AI action selection: a flat list
// of (qualifier, action) pairs where each qualifier computes a numeric
// score from its scorers and the highest-scoring pair's action runs.
// It is an independent decision primitive, an alternative to behavior
// trees for choices that are better expressed as weighted scoring than
// as tree structure; nothing here ticks a tree.
package utility

// Condition gates a scorer: a scorer only contributes its score while
// its condition holds.
type Condition func() bool

// Score produces a scorer's current value.
type Score func() float64

// Scorer is one weighted input to a qualifier.
type Scorer struct {
	Condition Condition
	Score     Score
}

// NewScorer builds a scorer with a fixed score.
func NewScorer(score float64, cond Condition) Scorer {
	return Scorer{Condition: cond, Score: func() float64 { return score }}
}

// NewDynamicScorer builds a scorer whose score is recomputed on every
// evaluation.
func NewDynamicScorer(score Score, cond Condition) Scorer {
	return Scorer{Condition: cond, Score: score}
}

// Negate returns a condition that inverts the given one.
func Negate(cond Condition) Condition {
	return func() bool { return !cond() }
}

// QualifierType selects how a qualifier combines its scorers.
type QualifierType int

const (
	// TypeDefaultAction marks the selector's fallback pair.
	TypeDefaultAction QualifierType = iota

	// TypeFixedScore always scores the qualifier's threshold value.
	TypeFixedScore

	// TypeAllOrNothing sums every scorer, but scores zero the moment
	// any scorer's condition fails.
	TypeAllOrNothing

	// TypeSumOfChildren sums the scorers whose conditions hold.
	TypeSumOfChildren

	// TypeSumWhileAboveThreshold sums passing scorers in order,
	// stopping at the first one that scores below the threshold.
	TypeSumWhileAboveThreshold
)

func (t QualifierType) String() string {
	switch t {
	case TypeDefaultAction:
		return "default-action"
	case TypeFixedScore:
		return "fixed-score"
	case TypeAllOrNothing:
		return "all-or-nothing"
	case TypeSumOfChildren:
		return "sum-of-children"
	case TypeSumWhileAboveThreshold:
		return "sum-while-above-threshold"
	default:
		return "unknown"
	}
}

// Qualifier scores a candidate action.
type Qualifier struct {
	Name      string
	Type      QualifierType
	Threshold float64
	Scorers   []Scorer
}

// FixedScore creates a qualifier that always scores the given value.
func FixedScore(name string, score float64) Qualifier {
	return Qualifier{Name: name, Type: TypeFixedScore, Threshold: score}
}

// AllOrNothing creates a qualifier that scores the sum of its scorers,
// or zero if any scorer's condition fails.
func AllOrNothing(name string, threshold float64, scorers ...Scorer) Qualifier {
	return Qualifier{Name: name, Type: TypeAllOrNothing, Threshold: threshold, Scorers: scorers}
}

// SumOfChildren creates a qualifier that sums every passing scorer.
func SumOfChildren(name string, scorers ...Scorer) Qualifier {
	return Qualifier{Name: name, Type: TypeSumOfChildren, Scorers: scorers}
}

// SumWhileAboveThreshold creates a qualifier that sums passing scorers
// in order, returning the partial sum once a passing scorer's value
// drops below the threshold.
func SumWhileAboveThreshold(name string, threshold float64, scorers ...Scorer) Qualifier {
	return Qualifier{Name: name, Type: TypeSumWhileAboveThreshold, Threshold: threshold, Scorers: scorers}
}

func defaultAction() Qualifier {
	return Qualifier{Name: "Default Action", Type: TypeDefaultAction}
}

// Score computes the qualifier's current value.
func (q Qualifier) Score() float64 {
	switch q.Type {
	case TypeDefaultAction, TypeFixedScore:
		return q.Threshold

	case TypeAllOrNothing:
		sum := 0.0
		for _, s := range q.Scorers {
			if !s.Condition() {
				return 0
			}
			sum += s.Score()
		}
		return sum

	case TypeSumOfChildren:
		sum := 0.0
		for _, s := range q.Scorers {
			if s.Condition() {
				sum += s.Score()
			}
		}
		return sum

	case TypeSumWhileAboveThreshold:
		sum := 0.0
		for _, s := range q.Scorers {
			if !s.Condition() {
				continue
			}
			score := s.Score()
			if score < q.Threshold {
				return sum
			}
			sum += score
		}
		return sum

	default:
		return 0
	}
}

// Action is what a selected pair performs.
type Action func()

// Choice pairs a qualifier with the action it qualifies.
type Choice struct {
	Qualifier Qualifier
	Action    Action
}

// Selector evaluates its choices and runs the best one.
type Selector struct {
	Choices []Choice
	Default Choice
}

// NewSelector builds a selector with a fallback action that runs when
// no qualifier scores above zero. A nil fallback does nothing.
func NewSelector(fallback Action, choices ...Choice) *Selector {
	if fallback == nil {
		fallback = func() {}
	}
	return &Selector{
		Choices: choices,
		Default: Choice{Qualifier: defaultAction(), Action: fallback},
	}
}

// Eval scores every choice and performs the action of the
// highest-scoring one; ties keep the earlier choice, and the fallback
// wins when nothing beats its score of zero.
func (s *Selector) Eval() {
	chosen := &s.Default
	best := s.Default.Qualifier.Score()

	for i := range s.Choices {
		if score := s.Choices[i].Qualifier.Score(); score > best {
			best = score
			chosen = &s.Choices[i]
		}
	}
	if chosen.Action != nil {
		chosen.Action()
	}
}

// Select returns the selector's evaluation as an Action, so a selector
// can itself be a choice's action inside another selector.
func (s *Selector) Select() Action {
	return s.Eval
}
