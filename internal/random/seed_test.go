package random

import "testing"

// TestNewSeedProducesDistinctValues ensures consecutive seeds differ. Two
// equal 64-bit draws in a row would point at a broken entropy source.
func TestNewSeedProducesDistinctValues(t *testing.T) {
	first, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed returned error: %v", err)
	}
	second, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed returned error: %v", err)
	}
	if first == second {
		t.Fatalf("consecutive seeds both %d", first)
	}
}
