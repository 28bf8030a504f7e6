// Package random provides cryptographic seed generation helpers.
//
// Simulations in this repository are deterministic with respect to a caller
// supplied seed. When a caller has no seed to replay, NewSeed draws a fresh
// high-entropy one from crypto/rand so independent runs stay independent.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
