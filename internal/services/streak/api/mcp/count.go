package mcp

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/longrun/streak"
)

// Formulation labels for run-bound counting. HeadsFormulation bounds only
// runs of Head; EitherFormulation bounds runs of both faces.
const (
	HeadsFormulation  = "heads"
	EitherFormulation = "either"
)

// CountInput represents the MCP tool input for exact sequence counts.
type CountInput struct {
	Length      int    `json:"length" jsonschema:"number of tosses in the sequence"`
	MaxRun      int    `json:"max_run" jsonschema:"maximum allowed run length"`
	Formulation string `json:"formulation,omitempty" jsonschema:"which runs are bounded (heads or either, default heads)"`
}

// CountResult represents the MCP tool output for exact sequence counts.
//
// Count is a decimal string because the exact counts outgrow JSON numbers
// long before they outgrow interesting sequence lengths.
type CountResult struct {
	Length      int    `json:"length" jsonschema:"number of tosses in the sequence"`
	MaxRun      int    `json:"max_run" jsonschema:"maximum allowed run length"`
	Formulation string `json:"formulation" jsonschema:"which runs are bounded"`
	Count       string `json:"count" jsonschema:"exact count of sequences within the bound, as a decimal string"`
	Total       string `json:"total" jsonschema:"total number of length-n sequences, as a decimal string"`
}

// CountTool defines the MCP tool schema for exact sequence counts.
func CountTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "streak_count",
		Description: "Counts binary toss sequences whose longest run stays within a bound",
	}
}

// CountHandler executes an exact count request.
func CountHandler() mcp.ToolHandlerFor[CountInput, CountResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CountInput) (*mcp.CallToolResult, CountResult, error) {
		formulation, err := parseFormulation(input.Formulation)
		if err != nil {
			return nil, CountResult{}, err
		}

		count, err := countFor(formulation, input.Length, input.MaxRun)
		if err != nil {
			return nil, CountResult{}, fmt.Errorf("count failed: %w", err)
		}

		result := CountResult{
			Length:      input.Length,
			MaxRun:      input.MaxRun,
			Formulation: formulation,
			Count:       count.String(),
			Total:       sequenceSpace(input.Length).String(),
		}
		return nil, result, nil
	}
}

func parseFormulation(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", HeadsFormulation:
		return HeadsFormulation, nil
	case EitherFormulation:
		return EitherFormulation, nil
	default:
		return "", fmt.Errorf("formulation %q is not supported (use heads or either)", value)
	}
}

func countFor(formulation string, length, maxRun int) (*big.Int, error) {
	if formulation == EitherFormulation {
		return streak.CountEither(length, maxRun)
	}
	return streak.Count(length, maxRun)
}

// sequenceSpace returns 2^length, the number of binary sequences of that
// length.
func sequenceSpace(length int) *big.Int {
	if length < 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Lsh(big.NewInt(1), uint(length))
}
