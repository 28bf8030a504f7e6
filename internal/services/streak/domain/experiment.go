package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/longrun/internal/id"
	"github.com/louisbranch/longrun/streak"
)

var (
	// ErrInvalidTossCount indicates an experiment without tosses.
	ErrInvalidTossCount = errors.New("experiments need at least one toss")
	// ErrInvalidTrials indicates a batch without trials.
	ErrInvalidTrials = errors.New("batches need at least one trial")
)

// Experiment records one simulate-and-measure run: the toss parameters, the
// head tally, and the longest runs the sequence produced. LongestRun spans
// both faces; LongestHeadRun restricts the measurement to Heads, the
// quantity the counting and probability engines bound.
type Experiment struct {
	ID              string
	Label           string
	TossCount       int
	HeadProbability float64
	Seed            int64
	Heads           int
	LongestRun      int
	LongestFace     streak.Face
	LongestHeadRun  int
	CreatedAt       time.Time
}

// CreateExperimentInput describes the parameters for a new experiment.
type CreateExperimentInput struct {
	Label           string
	TossCount       int
	HeadProbability float64
	Seed            int64
}

// CreateExperiment tosses a fresh sequence and records its longest run under
// a generated ID. The sequence itself is not retained; the seed is, so any
// caller can regenerate it.
func CreateExperiment(input CreateExperimentInput, now func() time.Time, idGenerator func() (string, error)) (Experiment, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	if input.TossCount <= 0 {
		return Experiment{}, ErrInvalidTossCount
	}

	result, err := streak.Toss(streak.TossRequest{
		Count:           input.TossCount,
		HeadProbability: input.HeadProbability,
		Seed:            input.Seed,
	})
	if err != nil {
		return Experiment{}, err
	}
	summary, err := streak.LongestRun(result.Tosses)
	if err != nil {
		return Experiment{}, err
	}
	headRun := streak.LongestRunOf(result.Tosses, streak.Head)

	newID, err := idGenerator()
	if err != nil {
		return Experiment{}, fmt.Errorf("generate experiment id: %w", err)
	}

	return Experiment{
		ID:              newID,
		Label:           strings.TrimSpace(input.Label),
		TossCount:       input.TossCount,
		HeadProbability: input.HeadProbability,
		Seed:            result.Seed,
		Heads:           result.Heads,
		LongestRun:      summary.Length,
		LongestFace:     summary.Face,
		LongestHeadRun:  headRun.Length,
		CreatedAt:       now().UTC(),
	}, nil
}
