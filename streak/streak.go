package streak

import "errors"

// Face represents the outcome of a single binary trial.
type Face int

const (
	Tail Face = iota
	Head
)

func (f Face) String() string {
	switch f {
	case Tail:
		return "Tail"
	case Head:
		return "Head"
	default:
		return "Unknown"
	}
}

// Other returns the opposite face.
func (f Face) Other() Face {
	if f == Head {
		return Tail
	}
	return Head
}

// ErrInvalidLength indicates a negative sequence length.
var ErrInvalidLength = errors.New("length must be non-negative")

// ErrInvalidBound indicates a negative run bound.
var ErrInvalidBound = errors.New("run bound must be non-negative")

// ErrInvalidProbability indicates a head probability outside [0, 1].
var ErrInvalidProbability = errors.New("head probability must be between 0 and 1")

// ErrInvalidCount indicates a negative toss count.
var ErrInvalidCount = errors.New("toss count must be non-negative")

// ErrEmptySequence indicates an empty sequence was passed to the run analyzer.
var ErrEmptySequence = errors.New("sequence must contain at least one toss")

// TossRequest describes a request to simulate a sequence of coin tosses.
type TossRequest struct {
	Count           int
	HeadProbability float64
	Seed            int64
}

// TossResult captures the outcome of a simulated toss sequence.
type TossResult struct {
	Tosses []Face
	Heads  int
	Seed   int64
}

// RunSummary describes the longest run found in a toss sequence.
type RunSummary struct {
	Length int
	Face   Face
}
