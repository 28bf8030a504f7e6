package streak

import (
	"math"
	"math/rand"
)

// Toss simulates a sequence of independent coin tosses.
//
// # Determinism
//
// Toss is deterministic with respect to the Seed field on TossRequest. Given
// the same Seed, Count, and HeadProbability, Toss will always produce the
// same TossResult. Callers wanting unpredictable sequences supply a fresh
// seed per call.
//
// Each position is an independent Bernoulli trial: Head with probability
// HeadProbability, Tail otherwise. The Heads field counts the Head tosses,
// and Seed echoes the seed the sequence was generated from so the result
// stays reproducible after the request is gone.
//
// Constraints and errors
//
//   - Count must be non-negative, otherwise ErrInvalidCount is returned.
//     A zero Count yields an empty sequence.
//   - HeadProbability must lie in [0, 1], otherwise ErrInvalidProbability
//     is returned.
func Toss(request TossRequest) (TossResult, error) {
	if request.Count < 0 {
		return TossResult{}, ErrInvalidCount
	}
	if math.IsNaN(request.HeadProbability) || request.HeadProbability < 0 || request.HeadProbability > 1 {
		return TossResult{}, ErrInvalidProbability
	}

	rng := rand.New(rand.NewSource(request.Seed))
	tosses := make([]Face, request.Count)
	heads := 0
	for i := range tosses {
		if rng.Float64() < request.HeadProbability {
			tosses[i] = Head
			heads++
		}
	}

	return TossResult{
		Tosses: tosses,
		Heads:  heads,
		Seed:   request.Seed,
	}, nil
}
