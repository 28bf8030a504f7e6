package streak

import "math/big"

// Count returns the exact number of length-n binary sequences whose longest
// run of Head does not exceed maxRun. Tail runs are unconstrained.
//
// # Recurrence
//
// Writing A(n) for the count at a fixed bound k, every sequence of length
// n <= k satisfies the bound, so A(n) = 2^n there. A longer sequence starts
// with j Heads (0 <= j <= k) followed by one Tail and then any valid
// remainder, which gives
//
//	A(n) = A(n-1) + A(n-2) + ... + A(n-k-1)
//
// For maxRun = 1 this is the Fibonacci recurrence; for maxRun = 0 only the
// all-Tail sequence survives and the count stays at one.
//
// Counts grow exponentially in length, so the result is an arbitrary
// precision integer.
//
// Constraints and errors
//
//   - length must be non-negative, otherwise ErrInvalidLength is returned.
//   - maxRun must be non-negative, otherwise ErrInvalidBound is returned.
func Count(length, maxRun int) (*big.Int, error) {
	if length < 0 {
		return nil, ErrInvalidLength
	}
	if maxRun < 0 {
		return nil, ErrInvalidBound
	}

	if length <= maxRun {
		return new(big.Int).Lsh(big.NewInt(1), uint(length)), nil
	}

	counts := make([]*big.Int, length+1)
	for n := 0; n <= maxRun; n++ {
		counts[n] = new(big.Int).Lsh(big.NewInt(1), uint(n))
	}
	for n := maxRun + 1; n <= length; n++ {
		total := new(big.Int)
		for j := 1; j <= maxRun+1; j++ {
			total.Add(total, counts[n-j])
		}
		counts[n] = total
	}

	return counts[length], nil
}

// CountEither returns the exact number of length-n binary sequences in which
// no run of either face exceeds maxRun.
//
// Every such sequence is determined by its run lengths and its starting
// face: the run lengths form a composition of the length into parts between
// 1 and maxRun, and the faces alternate from the chosen start. Two starting
// faces per composition gives twice the composition count for any non-empty
// length.
//
// CountEither(0, k) is 1 (the empty sequence) and CountEither(n, 0) is 0 for
// n >= 1, since any toss at all forms a run of length one.
//
// Constraints and errors are the same as for Count.
func CountEither(length, maxRun int) (*big.Int, error) {
	if length < 0 {
		return nil, ErrInvalidLength
	}
	if maxRun < 0 {
		return nil, ErrInvalidBound
	}

	if length == 0 {
		return big.NewInt(1), nil
	}

	// compositions[n] counts the ways to write n as an ordered sum of
	// parts between 1 and maxRun.
	compositions := make([]*big.Int, length+1)
	compositions[0] = big.NewInt(1)
	for n := 1; n <= length; n++ {
		total := new(big.Int)
		for part := 1; part <= maxRun && part <= n; part++ {
			total.Add(total, compositions[n-part])
		}
		compositions[n] = total
	}

	return new(big.Int).Lsh(compositions[length], 1), nil
}
