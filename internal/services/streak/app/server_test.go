package server

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	streakmcp "github.com/louisbranch/longrun/internal/services/streak/api/mcp"
)

// startSession connects an MCP client to a freshly built server over
// in-memory transports and returns the client session.
func startSession(t *testing.T, dbPath string) *mcp.ClientSession {
	t.Helper()

	server, err := New(dbPath)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.mcpServer.Connect(context.Background(), serverTransport, nil)
	if err != nil {
		t.Fatalf("connect server: %v", err)
	}
	t.Cleanup(func() {
		_ = serverSession.Wait()
		_ = server.Close()
	})

	client := mcp.NewClient(&mcp.Implementation{Name: "streak-test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(context.Background(), clientTransport, nil)
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })

	return session
}

// decodeStructuredContent re-marshals a tool result's structured content into
// the typed result the handler produced.
func decodeStructuredContent[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()

	var out T
	data, err := json.Marshal(result.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal structured content: %v", err)
	}
	return out
}

func TestServerListsToolsAndResources(t *testing.T) {
	session := startSession(t, "")

	tools, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"streak_count", "streak_probability", "streak_toss", "streak_batch"} {
		if !names[want] {
			t.Errorf("tool %q is not registered", want)
		}
	}

	resources, err := session.ListResources(context.Background(), nil)
	if err != nil {
		t.Fatalf("list resources: %v", err)
	}
	if len(resources.Resources) != 1 {
		t.Fatalf("resources = %d, want 1", len(resources.Resources))
	}
	if got := resources.Resources[0].URI; got != "experiments://recent" {
		t.Errorf("resource uri = %q, want experiments://recent", got)
	}
}

func TestServerCountTool(t *testing.T) {
	session := startSession(t, "")

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "streak_count",
		Arguments: map[string]any{"length": 4, "max_run": 2},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}

	count := decodeStructuredContent[streakmcp.CountResult](t, result)
	if count.Count != "13" {
		t.Errorf("count = %s, want 13", count.Count)
	}
	if count.Total != "16" {
		t.Errorf("total = %s, want 16", count.Total)
	}
}

func TestServerToolInputError(t *testing.T) {
	session := startSession(t, "")

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "streak_count",
		Arguments: map[string]any{"length": -1, "max_run": 2},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for negative length")
	}
}

func TestServerTossPersistsExperiment(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "streak.db")
	session := startSession(t, dbPath)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "streak_toss",
		Arguments: map[string]any{"count": 12, "seed": 9, "label": "integration"},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}

	toss := decodeStructuredContent[streakmcp.TossResult](t, result)
	if toss.ExperimentID == "" {
		t.Fatal("expected experiment id when store is configured")
	}
	if len(toss.Sequence) != 12 {
		t.Errorf("sequence length = %d, want 12", len(toss.Sequence))
	}

	read, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: "experiments://recent"})
	if err != nil {
		t.Fatalf("read resource: %v", err)
	}
	if len(read.Contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(read.Contents))
	}

	var payload streakmcp.RecentExperimentsPayload
	if err := json.Unmarshal([]byte(read.Contents[0].Text), &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(payload.Experiments) != 1 {
		t.Fatalf("experiments = %d, want 1", len(payload.Experiments))
	}
	entry := payload.Experiments[0]
	if entry.ID != toss.ExperimentID {
		t.Errorf("experiment id = %q, want %q", entry.ID, toss.ExperimentID)
	}
	if entry.Label != "integration" {
		t.Errorf("label = %q, want integration", entry.Label)
	}
	if entry.Seed != 9 {
		t.Errorf("seed = %d, want 9", entry.Seed)
	}
}

func TestServerResourceWithoutStore(t *testing.T) {
	session := startSession(t, "")

	_, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: "experiments://recent"})
	if err == nil {
		t.Fatal("expected error when no store is configured")
	}
}

func TestRunRejectsUnknownTransport(t *testing.T) {
	err := Run(context.Background(), Config{Transport: "pigeon"})
	if err == nil {
		t.Fatal("expected error for unknown transport")
	}
}

func TestRunHTTPStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, Config{Transport: TransportHTTP, HTTPAddr: "localhost:0"})
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}
