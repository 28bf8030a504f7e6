package streak

import (
	"math"
	"math/big"
)

// FairProbability returns the probability that n fair-coin tosses contain no
// Head run longer than maxRun.
//
// The value is computed exactly as Count(n, maxRun) / 2^n with rational
// arithmetic before the final conversion to float64, so no precision is lost
// to intermediate rounding. The result is 1 whenever maxRun >= length and
// shrinks to the all-Tail probability 1/2^n at maxRun = 0.
//
// Constraints and errors are those of Count.
func FairProbability(length, maxRun int) (float64, error) {
	count, err := Count(length, maxRun)
	if err != nil {
		return 0, err
	}
	return fairRatio(count, length), nil
}

// FairProbabilityEither returns the probability that n fair-coin tosses
// contain no run of either face longer than maxRun.
//
// Constraints and errors are those of CountEither.
func FairProbabilityEither(length, maxRun int) (float64, error) {
	count, err := CountEither(length, maxRun)
	if err != nil {
		return 0, err
	}
	return fairRatio(count, length), nil
}

// fairRatio converts a sequence count into a probability against the 2^n
// equally likely fair-coin sequences of that length.
func fairRatio(count *big.Int, length int) float64 {
	space := new(big.Int).Lsh(big.NewInt(1), uint(length))
	ratio, _ := new(big.Rat).SetFrac(count, space).Float64()
	return ratio
}

// BiasedProbability returns the probability that n tosses of a coin with the
// given head probability contain no Head run longer than maxRun. Tail runs
// are unconstrained, matching Count rather than CountEither.
//
// # Algorithm
//
// The evaluation walks the sequence one position at a time, tracking the
// probability mass sitting at each trailing-Head-run length between 0 and
// maxRun. A Tail returns all mass to run length zero; a Head advances mass
// by one run length, and mass already at maxRun is dropped when a Head
// lands on it. The surviving mass after n positions is the result.
//
// # Fair-coin agreement
//
// For headProbability = 0.5 the result agrees with FairProbability for every
// length and bound, since both weigh each sequence equally. It agrees with
// FairProbabilityEither only when maxRun >= length, where both are exactly
// 1; for tighter bounds the either-face formulation excludes more sequences
// and yields a strictly smaller value.
//
// Constraints and errors
//
//   - length must be non-negative, otherwise ErrInvalidLength is returned.
//   - maxRun must be non-negative, otherwise ErrInvalidBound is returned.
//   - headProbability must lie in [0, 1], otherwise ErrInvalidProbability
//     is returned.
func BiasedProbability(length, maxRun int, headProbability float64) (float64, error) {
	if length < 0 {
		return 0, ErrInvalidLength
	}
	if maxRun < 0 {
		return 0, ErrInvalidBound
	}
	if math.IsNaN(headProbability) || headProbability < 0 || headProbability > 1 {
		return 0, ErrInvalidProbability
	}

	if maxRun >= length {
		return 1, nil
	}

	tailProbability := 1 - headProbability
	mass := make([]float64, maxRun+1)
	next := make([]float64, maxRun+1)
	mass[0] = 1

	for i := 0; i < length; i++ {
		for r := range next {
			next[r] = 0
		}
		for r, m := range mass {
			if m == 0 {
				continue
			}
			next[0] += m * tailProbability
			if r < maxRun {
				next[r+1] += m * headProbability
			}
		}
		mass, next = next, mass
	}

	valid := 0.0
	for _, m := range mass {
		valid += m
	}
	return valid, nil
}
