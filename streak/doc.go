// Package streak computes exact counts and probabilities for the longest run
// of consecutive identical outcomes in sequences of independent binary trials,
// and provides a companion simulator and run analyzer.
//
// # Core Mechanics
//
// A toss sequence is an ordered list of Face values (Tail or Head) produced by
// independent Bernoulli trials. A run is a maximal consecutive subsequence of
// identical faces. The package answers questions of the form "how likely is it
// that n tosses contain no run longer than k?" in two distinct formulations:
//   - Head-restricted: only runs of Head are bounded; Tail runs may be
//     arbitrarily long. This is the formulation used for biased coins.
//   - Either-face: runs of both faces are bounded. This is the symmetric
//     formulation natural for fair coins.
//
// The two formulations disagree for most inputs, so they are exposed as
// separately named operations (Count vs CountEither, FairProbability vs
// FairProbabilityEither) rather than a single switch-driven entry point.
//
// # Features
//
//   - Counting: exact sequence counts under a run bound, in arbitrary
//     precision (Count, CountEither).
//   - Probability: exact fair-coin probabilities derived from counts, and a
//     dynamic-programming evaluation for biased coins (FairProbability,
//     FairProbabilityEither, BiasedProbability).
//   - Simulation: deterministic seeded toss generation (Toss).
//   - Analysis: longest-run extraction from an observed sequence, overall or
//     restricted to one face (LongestRun, LongestRunOf).
//
// All operations are pure functions over value types; nothing is shared or
// retained across calls, so concurrent callers need no coordination.
package streak
