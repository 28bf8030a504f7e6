package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/longrun/internal/platform/timeouts"
	"github.com/louisbranch/longrun/internal/services/streak/storage"
)

// recentExperimentLimit bounds how many records the recent listing returns.
const recentExperimentLimit = 10

// ExperimentEntry represents a readable experiment record entry.
type ExperimentEntry struct {
	ID              string  `json:"id"`
	Label           string  `json:"label,omitempty"`
	TossCount       int     `json:"toss_count"`
	HeadProbability float64 `json:"head_probability"`
	Seed            int64   `json:"seed"`
	Heads           int     `json:"heads"`
	LongestRun      int     `json:"longest_run"`
	LongestFace     string  `json:"longest_face"`
	LongestHeadRun  int     `json:"longest_head_run"`
	CreatedAt       string  `json:"created_at"`
}

// RecentExperimentsPayload represents the MCP resource payload for the
// recent experiment listing.
type RecentExperimentsPayload struct {
	Experiments []ExperimentEntry `json:"experiments"`
}

// RecentExperimentsResource defines the readable listing of recent
// experiment records.
func RecentExperimentsResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "recent_experiments",
		Title:       "Recent experiments",
		Description: "Readable listing of recently recorded toss experiments",
		MIMEType:    "application/json",
		URI:         "experiments://recent",
	}
}

// RecentExperimentsHandler serves the recent experiment listing.
func RecentExperimentsHandler(store storage.ExperimentStore) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if store == nil {
			return nil, fmt.Errorf("experiment store is not configured")
		}

		uri := RecentExperimentsResource().URI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}

		runCtx, cancel := context.WithTimeout(ctx, timeouts.Store)
		defer cancel()

		experiments, err := store.RecentExperiments(runCtx, recentExperimentLimit)
		if err != nil {
			return nil, fmt.Errorf("experiment list failed: %w", err)
		}

		payload := RecentExperimentsPayload{}
		for _, experiment := range experiments {
			payload.Experiments = append(payload.Experiments, ExperimentEntry{
				ID:              experiment.ID,
				Label:           experiment.Label,
				TossCount:       experiment.TossCount,
				HeadProbability: experiment.HeadProbability,
				Seed:            experiment.Seed,
				Heads:           experiment.Heads,
				LongestRun:      experiment.LongestRun,
				LongestFace:     experiment.LongestFace.String(),
				LongestHeadRun:  experiment.LongestHeadRun,
				CreatedAt:       experiment.CreatedAt.Format(time.RFC3339),
			})
		}

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal experiment list: %w", err)
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(data),
				},
			},
		}, nil
	}
}
