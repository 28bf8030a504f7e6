package streak

import (
	"errors"
	"testing"
)

// TestLongestRun checks run extraction across representative sequences.
func TestLongestRun(t *testing.T) {
	tcs := []struct {
		name   string
		tosses []Face
		want   RunSummary
	}{
		{
			name:   "tail run wins when longer",
			tosses: []Face{Head, Head, Tail, Tail, Tail, Head},
			want:   RunSummary{Length: 3, Face: Tail},
		},
		{
			name:   "single head",
			tosses: []Face{Head},
			want:   RunSummary{Length: 1, Face: Head},
		},
		{
			name:   "single tail",
			tosses: []Face{Tail},
			want:   RunSummary{Length: 1, Face: Tail},
		},
		{
			name:   "all one face",
			tosses: []Face{Tail, Tail, Tail, Tail, Tail},
			want:   RunSummary{Length: 5, Face: Tail},
		},
		{
			name:   "head run wins when longer",
			tosses: []Face{Tail, Head, Head, Head, Tail},
			want:   RunSummary{Length: 3, Face: Head},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LongestRun(tc.tosses)
			if err != nil {
				t.Fatalf("LongestRun returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("LongestRun = %+v, want %+v", got, tc.want)
			}
		})
	}
}

// TestLongestRunPrefersHeadOnTie ensures the documented tie-break holds no
// matter which face appears first.
func TestLongestRunPrefersHeadOnTie(t *testing.T) {
	tcs := [][]Face{
		{Head, Tail},
		{Tail, Head},
		{Tail, Tail, Head, Head},
		{Head, Head, Tail, Tail},
		{Head, Tail, Head, Tail},
	}

	for _, tosses := range tcs {
		got, err := LongestRun(tosses)
		if err != nil {
			t.Fatalf("LongestRun(%v) returned error: %v", tosses, err)
		}
		if got.Face != Head {
			t.Fatalf("LongestRun(%v) face = %v, want Head on tie", tosses, got.Face)
		}
	}
}

// TestLongestRunEmptySequence ensures the analyzer rejects sequences with
// nothing to scan.
func TestLongestRunEmptySequence(t *testing.T) {
	_, err := LongestRun(nil)
	if !errors.Is(err, ErrEmptySequence) {
		t.Fatalf("LongestRun(nil) error = %v, want %v", err, ErrEmptySequence)
	}
	_, err = LongestRun([]Face{})
	if !errors.Is(err, ErrEmptySequence) {
		t.Fatalf("LongestRun(empty) error = %v, want %v", err, ErrEmptySequence)
	}
}

// TestLongestRunOf checks the face-restricted analyzer.
func TestLongestRunOf(t *testing.T) {
	tcs := []struct {
		name   string
		tosses []Face
		face   Face
		want   RunSummary
	}{
		{
			name:   "head run inside longer tail sequence",
			tosses: []Face{Head, Head, Tail, Tail, Tail, Head},
			face:   Head,
			want:   RunSummary{Length: 2, Face: Head},
		},
		{
			name:   "single head",
			tosses: []Face{Head},
			face:   Head,
			want:   RunSummary{Length: 1, Face: Head},
		},
		{
			name:   "face absent",
			tosses: []Face{Tail, Tail, Tail},
			face:   Head,
			want:   RunSummary{Length: 0, Face: Head},
		},
		{
			name:   "empty sequence",
			tosses: nil,
			face:   Tail,
			want:   RunSummary{Length: 0, Face: Tail},
		},
		{
			name:   "tail restricted",
			tosses: []Face{Tail, Head, Tail, Tail, Head},
			face:   Tail,
			want:   RunSummary{Length: 2, Face: Tail},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got := LongestRunOf(tc.tosses, tc.face)
			if got != tc.want {
				t.Fatalf("LongestRunOf = %+v, want %+v", got, tc.want)
			}
		})
	}
}

// TestLongestRunOfSimulatedAllTails runs the simulator and analyzer
// together: a zero-bias sequence must report a full tail run and no head
// run at all.
func TestLongestRunOfSimulatedAllTails(t *testing.T) {
	result, err := Toss(TossRequest{Count: 10, HeadProbability: 0, Seed: 3})
	if err != nil {
		t.Fatalf("Toss returned error: %v", err)
	}

	overall, err := LongestRun(result.Tosses)
	if err != nil {
		t.Fatalf("LongestRun returned error: %v", err)
	}
	if overall.Length != 10 || overall.Face != Tail {
		t.Fatalf("LongestRun = %+v, want length 10 of Tail", overall)
	}

	heads := LongestRunOf(result.Tosses, Head)
	if heads.Length != 0 || heads.Face != Head {
		t.Fatalf("LongestRunOf(Head) = %+v, want length 0 of Head", heads)
	}
}

// TestFaceString ensures face labels are stable.
func TestFaceString(t *testing.T) {
	if Tail.String() != "Tail" {
		t.Fatalf("Tail.String() = %q, want %q", Tail.String(), "Tail")
	}
	if Head.String() != "Head" {
		t.Fatalf("Head.String() = %q, want %q", Head.String(), "Head")
	}
	if Face(7).String() != "Unknown" {
		t.Fatalf("Face(7).String() = %q, want %q", Face(7).String(), "Unknown")
	}
	if Head.Other() != Tail || Tail.Other() != Head {
		t.Fatalf("Other() does not swap faces")
	}
}
