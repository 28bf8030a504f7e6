package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/longrun/streak"
)

// Probability model labels. FairModel and EitherModel evaluate the exact
// fair-coin probability for the heads-only and either-face bounds;
// BiasedModel evaluates the heads-only bound for an arbitrary head
// probability.
const (
	FairModel   = "fair"
	EitherModel = "either"
	BiasedModel = "biased"
)

// ProbabilityInput represents the MCP tool input for run-bound probabilities.
type ProbabilityInput struct {
	Length          int      `json:"length" jsonschema:"number of tosses in the sequence"`
	MaxRun          int      `json:"max_run" jsonschema:"maximum allowed run length"`
	Model           string   `json:"model,omitempty" jsonschema:"probability model (fair, either, biased; default fair)"`
	HeadProbability *float64 `json:"head_probability,omitempty" jsonschema:"per-toss head probability, only used by the biased model (default 0.5)"`
}

// ProbabilityResult represents the MCP tool output for run-bound probabilities.
type ProbabilityResult struct {
	Length            int     `json:"length" jsonschema:"number of tosses in the sequence"`
	MaxRun            int     `json:"max_run" jsonschema:"maximum allowed run length"`
	Model             string  `json:"model" jsonschema:"probability model the result was computed under"`
	HeadProbability   float64 `json:"head_probability" jsonschema:"per-toss head probability the result was computed under"`
	Probability       float64 `json:"probability" jsonschema:"probability that the longest bounded run stays within max_run"`
	ExceedProbability float64 `json:"exceed_probability" jsonschema:"probability that some bounded run exceeds max_run"`
}

// ProbabilityTool defines the MCP tool schema for run-bound probabilities.
func ProbabilityTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "streak_probability",
		Description: "Evaluates the probability that a toss sequence keeps its longest run within a bound",
	}
}

// ProbabilityHandler executes a probability request.
func ProbabilityHandler() mcp.ToolHandlerFor[ProbabilityInput, ProbabilityResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ProbabilityInput) (*mcp.CallToolResult, ProbabilityResult, error) {
		model, err := parseModel(input.Model)
		if err != nil {
			return nil, ProbabilityResult{}, err
		}
		if model != BiasedModel && input.HeadProbability != nil {
			return nil, ProbabilityResult{}, fmt.Errorf("head_probability is only used by the biased model")
		}

		headProbability := 0.5
		if input.HeadProbability != nil {
			headProbability = *input.HeadProbability
		}

		var probability float64
		switch model {
		case FairModel:
			probability, err = streak.FairProbability(input.Length, input.MaxRun)
		case EitherModel:
			probability, err = streak.FairProbabilityEither(input.Length, input.MaxRun)
		case BiasedModel:
			probability, err = streak.BiasedProbability(input.Length, input.MaxRun, headProbability)
		}
		if err != nil {
			return nil, ProbabilityResult{}, fmt.Errorf("probability failed: %w", err)
		}

		result := ProbabilityResult{
			Length:            input.Length,
			MaxRun:            input.MaxRun,
			Model:             model,
			HeadProbability:   headProbability,
			Probability:       probability,
			ExceedProbability: 1 - probability,
		}
		return nil, result, nil
	}
}

func parseModel(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", FairModel:
		return FairModel, nil
	case EitherModel:
		return EitherModel, nil
	case BiasedModel:
		return BiasedModel, nil
	default:
		return "", fmt.Errorf("model %q is not supported (use fair, either, or biased)", value)
	}
}
