// Package domain implements experiment orchestration for the streak service.
//
// An experiment is one simulate-and-measure run: toss a seeded sequence,
// analyze its longest run, and keep the outcome as a record that can be
// persisted and listed. A batch repeats the same trial many times and
// summarizes how the empirical longest-run distribution sits against the
// exact theory from the streak package.
package domain
