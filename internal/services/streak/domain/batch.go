package domain

import (
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/louisbranch/longrun/streak"
)

// BatchRequest describes a batch of independent toss trials.
type BatchRequest struct {
	Trials          int
	TossCount       int
	HeadProbability float64
	MaxRun          int
	Seed            int64
}

// BatchResult summarizes the longest Head runs observed across a batch and
// sets them against the exact theory for the same parameters.
type BatchResult struct {
	Trials          int
	TossCount       int
	HeadProbability float64
	MaxRun          int
	Seed            int64

	MeanLongestRun   float64
	StdDevLongestRun float64
	MinLongestRun    int
	MaxLongestRun    int

	// WithinBoundShare is the fraction of trials whose longest Head run
	// stayed within MaxRun; PredictedWithinBound is the exact probability
	// of that event for one trial.
	WithinBoundShare     float64
	PredictedWithinBound float64

	// TotalHeads counts Heads across every toss of the batch, and HeadsCDF
	// places that tally on the binomial distribution it was drawn from.
	TotalHeads int
	HeadsCDF   float64

	// RunLengthCounts tallies trials by their longest Head run length.
	// Counts sum to Trials.
	RunLengthCounts map[int]int
}

// RunBatch executes independent toss trials and summarizes their longest
// Head runs.
//
// Trial seeds derive deterministically from the request seed, so a batch is
// reproducible the same way a single toss sequence is.
func RunBatch(request BatchRequest) (BatchResult, error) {
	if request.Trials <= 0 {
		return BatchResult{}, ErrInvalidTrials
	}
	if request.TossCount <= 0 {
		return BatchResult{}, ErrInvalidTossCount
	}

	predicted, err := streak.BiasedProbability(request.TossCount, request.MaxRun, request.HeadProbability)
	if err != nil {
		return BatchResult{}, err
	}

	lengths := make([]float64, 0, request.Trials)
	runLengths := make(map[int]int)
	withinBound := 0
	totalHeads := 0
	minRun := 0
	maxRun := 0
	for trial := 0; trial < request.Trials; trial++ {
		result, err := streak.Toss(streak.TossRequest{
			Count:           request.TossCount,
			HeadProbability: request.HeadProbability,
			Seed:            request.Seed + int64(trial),
		})
		if err != nil {
			return BatchResult{}, err
		}

		headRun := streak.LongestRunOf(result.Tosses, streak.Head)
		lengths = append(lengths, float64(headRun.Length))
		runLengths[headRun.Length]++
		if headRun.Length <= request.MaxRun {
			withinBound++
		}
		totalHeads += result.Heads
		if trial == 0 || headRun.Length < minRun {
			minRun = headRun.Length
		}
		if headRun.Length > maxRun {
			maxRun = headRun.Length
		}
	}

	stddev := 0.0
	if len(lengths) > 1 {
		stddev = stat.StdDev(lengths, nil)
	}

	totalTosses := request.Trials * request.TossCount
	headsDist := distuv.Binomial{N: float64(totalTosses), P: request.HeadProbability}

	return BatchResult{
		Trials:               request.Trials,
		TossCount:            request.TossCount,
		HeadProbability:      request.HeadProbability,
		MaxRun:               request.MaxRun,
		Seed:                 request.Seed,
		MeanLongestRun:       stat.Mean(lengths, nil),
		StdDevLongestRun:     stddev,
		MinLongestRun:        minRun,
		MaxLongestRun:        maxRun,
		WithinBoundShare:     float64(withinBound) / float64(request.Trials),
		PredictedWithinBound: predicted,
		TotalHeads:           totalHeads,
		HeadsCDF:             headsDist.CDF(float64(totalHeads)),
		RunLengthCounts:      runLengths,
	}, nil
}
