package mcp

import (
	"context"
	"fmt"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/longrun/internal/random"
	"github.com/louisbranch/longrun/internal/services/streak/domain"
)

// BatchInput represents the MCP tool input for batch simulations.
type BatchInput struct {
	Trials          int      `json:"trials" jsonschema:"number of independent toss sequences to simulate"`
	TossCount       int      `json:"toss_count" jsonschema:"number of tosses per trial"`
	HeadProbability *float64 `json:"head_probability,omitempty" jsonschema:"per-toss head probability (default 0.5)"`
	MaxRun          int      `json:"max_run" jsonschema:"run bound the trials are measured against"`
	Seed            *int64   `json:"seed,omitempty" jsonschema:"seed to replay; omit for a fresh random seed"`
}

// BatchResult represents the MCP tool output for batch simulations.
type BatchResult struct {
	Trials          int     `json:"trials" jsonschema:"number of trials simulated"`
	TossCount       int     `json:"toss_count" jsonschema:"number of tosses per trial"`
	HeadProbability float64 `json:"head_probability" jsonschema:"per-toss head probability"`
	MaxRun          int     `json:"max_run" jsonschema:"run bound the trials were measured against"`
	Seed            int64   `json:"seed" jsonschema:"seed the batch was generated from; replay it to regenerate"`

	MeanLongestRun   float64 `json:"mean_longest_run" jsonschema:"mean longest Head run across trials"`
	StdDevLongestRun float64 `json:"stddev_longest_run" jsonschema:"sample standard deviation of the longest Head run"`
	MinLongestRun    int     `json:"min_longest_run" jsonschema:"shortest longest-Head-run observed"`
	MaxLongestRun    int     `json:"max_longest_run" jsonschema:"longest longest-Head-run observed"`

	WithinBoundShare     float64 `json:"within_bound_share" jsonschema:"fraction of trials whose longest Head run stayed within max_run"`
	PredictedWithinBound float64 `json:"predicted_within_bound" jsonschema:"exact single-trial probability of staying within max_run"`

	TotalHeads int     `json:"total_heads" jsonschema:"Heads counted across every toss of the batch"`
	HeadsCDF   float64 `json:"heads_cdf" jsonschema:"binomial CDF of total_heads, for spotting a miscalibrated coin"`

	RunLengthCounts map[string]int `json:"run_length_counts" jsonschema:"trial counts keyed by longest Head run length"`
}

// BatchTool defines the MCP tool schema for batch simulations.
func BatchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "streak_batch",
		Description: "Simulates repeated toss sequences and summarizes their longest runs against exact theory",
	}
}

// BatchHandler executes a batch simulation request. A nil newSeed falls back
// to random.NewSeed.
func BatchHandler(newSeed func() (int64, error)) mcp.ToolHandlerFor[BatchInput, BatchResult] {
	if newSeed == nil {
		newSeed = random.NewSeed
	}

	return func(ctx context.Context, _ *mcp.CallToolRequest, input BatchInput) (*mcp.CallToolResult, BatchResult, error) {
		headProbability := 0.5
		if input.HeadProbability != nil {
			headProbability = *input.HeadProbability
		}

		seed, err := seedFor(input.Seed, newSeed)
		if err != nil {
			return nil, BatchResult{}, err
		}

		batch, err := domain.RunBatch(domain.BatchRequest{
			Trials:          input.Trials,
			TossCount:       input.TossCount,
			HeadProbability: headProbability,
			MaxRun:          input.MaxRun,
			Seed:            seed,
		})
		if err != nil {
			return nil, BatchResult{}, fmt.Errorf("batch failed: %w", err)
		}

		runLengths := make(map[string]int, len(batch.RunLengthCounts))
		for length, count := range batch.RunLengthCounts {
			runLengths[strconv.Itoa(length)] = count
		}

		result := BatchResult{
			Trials:               batch.Trials,
			TossCount:            batch.TossCount,
			HeadProbability:      batch.HeadProbability,
			MaxRun:               batch.MaxRun,
			Seed:                 batch.Seed,
			MeanLongestRun:       batch.MeanLongestRun,
			StdDevLongestRun:     batch.StdDevLongestRun,
			MinLongestRun:        batch.MinLongestRun,
			MaxLongestRun:        batch.MaxLongestRun,
			WithinBoundShare:     batch.WithinBoundShare,
			PredictedWithinBound: batch.PredictedWithinBound,
			TotalHeads:           batch.TotalHeads,
			HeadsCDF:             batch.HeadsCDF,
			RunLengthCounts:      runLengths,
		}
		return nil, result, nil
	}
}
