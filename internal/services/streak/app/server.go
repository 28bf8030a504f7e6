package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/longrun/internal/services/streak/storage"
	"github.com/louisbranch/longrun/internal/services/streak/storage/sqlite"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Longrun Streak MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves MCP over a streamable HTTP endpoint.
	TransportHTTP TransportKind = "http"
)

// Config configures the streak MCP server.
type Config struct {
	Transport TransportKind
	HTTPAddr  string // HTTP server address for the HTTP transport. Defaults to localhost:8081.
	DBPath    string // SQLite path for the experiment store. Empty disables persistence.
}

// Server hosts the streak MCP server.
type Server struct {
	mcpServer *mcp.Server
	store     *sqlite.Store
}

// New creates a configured streak server. A non-empty dbPath opens the
// SQLite experiment store there, creating parent directories as needed;
// an empty one runs the tools without persistence and leaves the experiment
// resource reporting that no store is configured.
func New(dbPath string) (*Server, error) {
	var store *sqlite.Store
	if strings.TrimSpace(dbPath) != "" {
		opened, err := openExperimentStore(dbPath)
		if err != nil {
			return nil, err
		}
		store = opened
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	server := &Server{mcpServer: mcpServer, store: store}
	registerTools(mcpServer, server.experimentStore())
	registerResources(mcpServer, server.experimentStore())

	return server, nil
}

// Run creates and serves a streak server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}

	switch cfg.Transport {
	case TransportStdio:
		return runWithTransport(ctx, cfg, &mcp.StdioTransport{})
	case TransportHTTP:
		return runWithHTTPTransport(ctx, cfg)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

// runWithTransport creates a server and serves it over the provided transport.
func runWithTransport(ctx context.Context, cfg Config, transport mcp.Transport) error {
	server, err := New(cfg.DBPath)
	if err != nil {
		return err
	}
	return server.serveWithTransport(ctx, transport)
}

// Serve starts the streak server on stdio and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// serveWithTransport starts the MCP server using the provided transport. The
// server and its store share a single exit path so cleanup behavior is the
// same for stdio and HTTP runs.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	closeErr := s.Close()
	if closeErr != nil {
		if err == nil {
			return fmt.Errorf("close experiment store: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close experiment store: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// Close releases the experiment store held by the server.
func (s *Server) Close() error {
	if s == nil || s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return err
	}
	s.store = nil
	return nil
}

// experimentStore exposes the store as its interface, or nil when the server
// runs without persistence. Handlers check the interface against nil, so a
// typed nil pointer must not leak into it.
func (s *Server) experimentStore() storage.ExperimentStore {
	if s == nil || s.store == nil {
		return nil
	}
	return s.store
}

func openExperimentStore(path string) (*sqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open experiment store: %w", err)
	}
	return store, nil
}
