package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	streakmcp "github.com/louisbranch/longrun/internal/services/streak/api/mcp"
	"github.com/louisbranch/longrun/internal/services/streak/storage"
)

// registerTools wires the streak tool handlers into the MCP server, each
// wrapped in a span named after its tool.
func registerTools(mcpServer *mcp.Server, store storage.ExperimentStore) {
	count := streakmcp.CountTool()
	mcp.AddTool(mcpServer, count, streakmcp.Traced(count.Name, streakmcp.CountHandler()))

	probability := streakmcp.ProbabilityTool()
	mcp.AddTool(mcpServer, probability, streakmcp.Traced(probability.Name, streakmcp.ProbabilityHandler()))

	toss := streakmcp.TossTool()
	mcp.AddTool(mcpServer, toss, streakmcp.Traced(toss.Name, streakmcp.TossHandler(store, nil)))

	batch := streakmcp.BatchTool()
	mcp.AddTool(mcpServer, batch, streakmcp.Traced(batch.Name, streakmcp.BatchHandler(nil)))
}

// registerResources wires the readable experiment listings into the MCP
// server.
func registerResources(mcpServer *mcp.Server, store storage.ExperimentStore) {
	mcpServer.AddResource(streakmcp.RecentExperimentsResource(), streakmcp.RecentExperimentsHandler(store))
}
