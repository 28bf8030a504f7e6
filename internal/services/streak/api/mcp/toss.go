package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/longrun/internal/platform/timeouts"
	"github.com/louisbranch/longrun/internal/random"
	"github.com/louisbranch/longrun/internal/services/streak/domain"
	"github.com/louisbranch/longrun/internal/services/streak/storage"
	"github.com/louisbranch/longrun/streak"
)

// TossInput represents the MCP tool input for toss simulations.
type TossInput struct {
	Count           int      `json:"count" jsonschema:"number of tosses to simulate"`
	HeadProbability *float64 `json:"head_probability,omitempty" jsonschema:"per-toss head probability (default 0.5)"`
	Seed            *int64   `json:"seed,omitempty" jsonschema:"seed to replay; omit for a fresh random seed"`
	Label           string   `json:"label,omitempty" jsonschema:"optional label for the recorded experiment"`
}

// TossResult represents the MCP tool output for toss simulations.
type TossResult struct {
	Count           int     `json:"count" jsonschema:"number of tosses simulated"`
	HeadProbability float64 `json:"head_probability" jsonschema:"per-toss head probability the sequence was drawn with"`
	Seed            int64   `json:"seed" jsonschema:"seed the sequence was generated from; replay it to regenerate"`
	Heads           int     `json:"heads" jsonschema:"number of Head tosses"`
	Tails           int     `json:"tails" jsonschema:"number of Tail tosses"`
	Sequence        string  `json:"sequence" jsonschema:"the tosses in order, one letter per toss (H or T)"`
	LongestRun      int     `json:"longest_run" jsonschema:"length of the longest run of identical faces"`
	LongestFace     string  `json:"longest_face" jsonschema:"face that attained the longest run (Head wins ties)"`
	LongestHeadRun  int     `json:"longest_head_run" jsonschema:"length of the longest run of Heads alone"`
	ExperimentID    string  `json:"experiment_id,omitempty" jsonschema:"identifier of the recorded experiment, when a store is configured"`
}

// TossTool defines the MCP tool schema for toss simulations.
func TossTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "streak_toss",
		Description: "Simulates a toss sequence, measures its longest run, and records the experiment",
	}
}

// TossHandler executes a toss simulation request.
//
// When a store is configured the simulation is also recorded as an
// experiment; domain.CreateExperiment replays the same seed, so the stored
// record always matches the sequence reported here. A nil store skips
// recording, a nil newSeed falls back to random.NewSeed.
func TossHandler(store storage.ExperimentStore, newSeed func() (int64, error)) mcp.ToolHandlerFor[TossInput, TossResult] {
	if newSeed == nil {
		newSeed = random.NewSeed
	}

	return func(ctx context.Context, _ *mcp.CallToolRequest, input TossInput) (*mcp.CallToolResult, TossResult, error) {
		if input.Count <= 0 {
			return nil, TossResult{}, fmt.Errorf("toss failed: %w", domain.ErrInvalidTossCount)
		}

		headProbability := 0.5
		if input.HeadProbability != nil {
			headProbability = *input.HeadProbability
		}

		seed, err := seedFor(input.Seed, newSeed)
		if err != nil {
			return nil, TossResult{}, err
		}

		tossed, err := streak.Toss(streak.TossRequest{
			Count:           input.Count,
			HeadProbability: headProbability,
			Seed:            seed,
		})
		if err != nil {
			return nil, TossResult{}, fmt.Errorf("toss failed: %w", err)
		}
		summary, err := streak.LongestRun(tossed.Tosses)
		if err != nil {
			return nil, TossResult{}, fmt.Errorf("toss failed: %w", err)
		}

		result := TossResult{
			Count:           input.Count,
			HeadProbability: headProbability,
			Seed:            tossed.Seed,
			Heads:           tossed.Heads,
			Tails:           input.Count - tossed.Heads,
			Sequence:        sequenceString(tossed.Tosses),
			LongestRun:      summary.Length,
			LongestFace:     summary.Face.String(),
			LongestHeadRun:  streak.LongestRunOf(tossed.Tosses, streak.Head).Length,
		}

		if store != nil {
			experiment, err := domain.CreateExperiment(domain.CreateExperimentInput{
				Label:           input.Label,
				TossCount:       input.Count,
				HeadProbability: headProbability,
				Seed:            seed,
			}, nil, nil)
			if err != nil {
				return nil, TossResult{}, fmt.Errorf("record experiment: %w", err)
			}

			storeCtx, cancel := context.WithTimeout(ctx, timeouts.Store)
			defer cancel()
			if err := store.CreateExperiment(storeCtx, experiment); err != nil {
				return nil, TossResult{}, fmt.Errorf("record experiment: %w", err)
			}
			result.ExperimentID = experiment.ID
		}

		return nil, result, nil
	}
}

// seedFor resolves the seed a simulation should run under: the explicit one
// when the caller supplied it, a fresh random one otherwise.
func seedFor(explicit *int64, newSeed func() (int64, error)) (int64, error) {
	if explicit != nil {
		return *explicit, nil
	}
	seed, err := newSeed()
	if err != nil {
		return 0, fmt.Errorf("generate seed: %w", err)
	}
	return seed, nil
}

// sequenceString renders tosses as a compact string, one letter per toss.
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
