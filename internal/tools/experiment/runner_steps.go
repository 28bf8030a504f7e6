package experiment

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/louisbranch/longrun/internal/services/streak/domain"
	"github.com/louisbranch/longrun/streak"
)

func (r *Runner) runStep(ctx context.Context, state *planState, step Step) error {
	var results map[string]any
	var err error
	switch step.Kind {
	case "toss":
		results, err = r.runToss(ctx, state, step.Args)
	case "batch":
		results, err = r.runBatch(step.Args)
	case "count", "either_count":
		results, err = r.runCount(step.Kind, step.Args)
	case "fair_probability", "either_probability", "biased_probability":
		results, err = r.runProbability(step.Kind, step.Args)
	case "longest_run":
		results, err = r.runLongestRun(state, step.Args)
	default:
		return r.failf("unknown step %q", step.Kind)
	}
	if err != nil {
		return err
	}
	return r.checkExpectations(step.Args, results)
}

func (r *Runner) runToss(ctx context.Context, state *planState, args map[string]any) (map[string]any, error) {
	count, _ := readInt(args, "n")
	headProbability := optionalFloat(args, "p", 0.5)
	seed, err := r.resolveSeed(args)
	if err != nil {
		return nil, err
	}

	result, err := streak.Toss(streak.TossRequest{
		Count:           count,
		HeadProbability: headProbability,
		Seed:            seed,
	})
	if err != nil {
		return nil, fmt.Errorf("toss: %w", err)
	}
	summary, err := streak.LongestRun(result.Tosses)
	if err != nil {
		return nil, fmt.Errorf("toss: %w", err)
	}

	sequence := sequenceString(result.Tosses)
	state.lastTosses = sequence

	results := map[string]any{
		"seed":         result.Seed,
		"heads":        result.Heads,
		"tails":        count - result.Heads,
		"sequence":     sequence,
		"longest_run":  summary.Length,
		"longest_face": summary.Face.String(),
		"head_run":     streak.LongestRunOf(result.Tosses, streak.Head).Length,
	}

	if r.store != nil {
		experiment, err := domain.CreateExperiment(domain.CreateExperimentInput{
			Label:           optionalString(args, "label", ""),
			TossCount:       count,
			HeadProbability: headProbability,
			Seed:            seed,
		}, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("record experiment: %w", err)
		}
		if err := r.store.CreateExperiment(ctx, experiment); err != nil {
			return nil, fmt.Errorf("record experiment: %w", err)
		}
		results["experiment_id"] = experiment.ID
	}

	return results, nil
}

func (r *Runner) runBatch(args map[string]any) (map[string]any, error) {
	trials, _ := readInt(args, "trials")
	count, _ := readInt(args, "n")
	seed, err := r.resolveSeed(args)
	if err != nil {
		return nil, err
	}

	result, err := domain.RunBatch(domain.BatchRequest{
		Trials:          trials,
		TossCount:       count,
		HeadProbability: optionalFloat(args, "p", 0.5),
		MaxRun:          optionalInt(args, "k", 0),
		Seed:            seed,
	})
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}

	return map[string]any{
		"seed":                   result.Seed,
		"mean_longest_run":       result.MeanLongestRun,
		"stddev_longest_run":     result.StdDevLongestRun,
		"min_longest_run":        result.MinLongestRun,
		"max_longest_run":        result.MaxLongestRun,
		"within_bound_share":     result.WithinBoundShare,
		"predicted_within_bound": result.PredictedWithinBound,
		"total_heads":            result.TotalHeads,
		"heads_cdf":              result.HeadsCDF,
	}, nil
}

func (r *Runner) runCount(kind string, args map[string]any) (map[string]any, error) {
	length, _ := readInt(args, "n")
	maxRun, _ := readInt(args, "k")

	var count *big.Int
	var err error
	if kind == "either_count" {
		count, err = streak.CountEither(length, maxRun)
	} else {
		count, err = streak.Count(length, maxRun)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}

	total := new(big.Int).Lsh(big.NewInt(1), uint(length))
	return map[string]any{
		"count": bigIntValue(count),
		"total": bigIntValue(total),
	}, nil
}

func (r *Runner) runProbability(kind string, args map[string]any) (map[string]any, error) {
	length, _ := readInt(args, "n")
	maxRun, _ := readInt(args, "k")

	var probability float64
	var err error
	switch kind {
	case "fair_probability":
		probability, err = streak.FairProbability(length, maxRun)
	case "either_probability":
		probability, err = streak.FairProbabilityEither(length, maxRun)
	default:
		probability, err = streak.BiasedProbability(length, maxRun, optionalFloat(args, "p", 0.5))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}

	return map[string]any{
		"probability":        probability,
		"exceed_probability": 1 - probability,
	}, nil
}

func (r *Runner) runLongestRun(state *planState, args map[string]any) (map[string]any, error) {
	text := optionalString(args, "faces", "")
	if text == "" {
		text = state.lastTosses
	}
	if text == "" {
		return nil, r.failf("longest_run needs faces or a prior toss step")
	}

	faces, err := parseFaces(text)
	if err != nil {
		return nil, err
	}
	summary, err := streak.LongestRun(faces)
	if err != nil {
		return nil, fmt.Errorf("longest_run: %w", err)
	}

	return map[string]any{
		"longest_run":  summary.Length,
		"longest_face": summary.Face.String(),
		"head_run":     streak.LongestRunOf(faces, streak.Head).Length,
		"tail_run":     streak.LongestRunOf(faces, streak.Tail).Length,
	}, nil
}

func (r *Runner) resolveSeed(args map[string]any) (int64, error) {
	if seed, ok := readInt64(args, "seed"); ok {
		return seed, nil
	}
	seed, err := r.newSeed()
	if err != nil {
		return 0, fmt.Errorf("generate seed: %w", err)
	}
	return seed, nil
}

// bigIntValue keeps counts as integers while they fit and falls back to the
// decimal string once they outgrow int64.
func bigIntValue(value *big.Int) any {
	if value.IsInt64() {
		return value.Int64()
	}
	return value.String()
}

func sequenceString(tosses []streak.Face) string {
	var b strings.Builder
	b.Grow(len(tosses))
	for _, toss := range tosses {
		if toss == streak.Head {
			b.WriteByte('H')
		} else {
			b.WriteByte('T')
		}
	}
	return b.String()
}

func parseFaces(text string) ([]streak.Face, error) {
	trimmed := strings.TrimSpace(text)
	faces := make([]streak.Face, 0, len(trimmed))
	for _, letter := range strings.ToUpper(trimmed) {
		switch letter {
		case 'H':
			faces = append(faces, streak.Head)
		case 'T':
			faces = append(faces, streak.Tail)
		default:
			return nil, fmt.Errorf("faces must contain only H and T, got %q", letter)
		}
	}
	return faces, nil
}
