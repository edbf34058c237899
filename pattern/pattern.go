package pattern

import "reflect"

// Kind identifies which of the five pattern variants a Pattern value holds.
type Kind string

const (
	KindSequence        Kind = "sequence"
	KindParallelization Kind = "parallelization"
	KindAlternative     Kind = "alternative"
	KindRepetition       Kind = "repetition"
	KindCommand         Kind = "command"
)

// Pattern is the closed sum type of the five workflow pattern variants.
// Only one group of fields is meaningful for any given Kind:
//
//	Sequence, Parallelization, Alternative: Children
//	Repetition:                             Child, Exit
//	Command:                                Argv
//
// Pattern values are immutable once constructed; live execution state lives
// in the State tree produced by Instantiate.
type Pattern struct {
	Kind     Kind
	Children []Pattern
	Child    *Pattern
	Exit     *Pattern
	Argv     []string
}

// NewSequence builds a Sequence pattern: children run one after another,
// left to right, and the whole thing fails as soon as one child fails.
func NewSequence(children ...Pattern) Pattern {
	return Pattern{Kind: KindSequence, Children: children}
}

// NewParallelization builds a Parallelization pattern: all children start
// together and the composite succeeds only if every child succeeds.
func NewParallelization(children ...Pattern) Pattern {
	return Pattern{Kind: KindParallelization, Children: children}
}

// NewAlternative builds an Alternative pattern: all children start
// together and the composite succeeds if exactly one child succeeds.
func NewAlternative(children ...Pattern) Pattern {
	return Pattern{Kind: KindAlternative, Children: children}
}

// NewRepetition builds a Repetition pattern: child is restarted from
// scratch, alongside a fresh exit instance, each time child has succeeded
// and exit has failed.
func NewRepetition(child, exit Pattern) Pattern {
	return Pattern{Kind: KindRepetition, Child: &child, Exit: &exit}
}

// NewCommand builds a Command pattern: a single OS process, spawned with
// argv exactly as given.
func NewCommand(argv ...string) Pattern {
	return Pattern{Kind: KindCommand, Argv: append([]string(nil), argv...)}
}

// Equal reports structural equality between two patterns. Used by tests and
// by round-trip deserialization assertions.
func (p Pattern) Equal(other Pattern) bool {
	return reflect.DeepEqual(p, other)
}

// Instantiate produces a fresh, unstarted State tree for this pattern.
// Panics if p.Kind is not one of the five known kinds — an unrecognized
// Kind can only arise from hand-built Pattern values, since Deserialize
// rejects unknown type tags before a Pattern is ever constructed.
func (p Pattern) Instantiate() State {
	switch p.Kind {
	case KindSequence:
		return newSequenceState(p)
	case KindParallelization:
		return newParallelState(p)
	case KindAlternative:
		return newAlternativeState(p)
	case KindRepetition:
		return newRepetitionState(p)
	case KindCommand:
		return newCommandState(p)
	default:
		panic("pattern: " + string(p.Kind) + ": " + ErrUnknownPattern.Error())
	}
}
