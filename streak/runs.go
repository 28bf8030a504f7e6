package streak

// LongestRun scans a toss sequence and reports the longest run of identical
// faces together with the face that attained it.
//
// When both faces attain the same maximal run length, Head wins the tie.
// The tie-break is a deliberate, documented policy rather than an artifact
// of scan order, and callers may rely on it.
//
// An empty sequence returns ErrEmptySequence since there is no face to
// report. Use LongestRunOf when a zero-length answer for a known face is
// acceptable.
func LongestRun(tosses []Face) (RunSummary, error) {
	if len(tosses) == 0 {
		return RunSummary{}, ErrEmptySequence
	}

	head := LongestRunOf(tosses, Head)
	tail := LongestRunOf(tosses, Tail)
	if head.Length >= tail.Length {
		return head, nil
	}
	return tail, nil
}

// LongestRunOf scans a toss sequence and reports the longest run of the
// given face. A sequence without that face, including the empty sequence,
// reports length zero.
func LongestRunOf(tosses []Face, face Face) RunSummary {
	longest := 0
	current := 0
	for _, toss := range tosses {
		if toss != face {
			current = 0
			continue
		}
		current++
		if current > longest {
			longest = current
		}
	}

	return RunSummary{
		Length: longest,
		Face:   face,
	}
}
