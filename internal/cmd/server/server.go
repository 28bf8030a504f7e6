// Package server parses streak server flags and selects stdio or HTTP
// transport.
package server

import (
	"context"
	"flag"

	"github.com/louisbranch/longrun/internal/platform/cmd"
	streakapp "github.com/louisbranch/longrun/internal/services/streak/app"
)

// Config holds streak server command configuration.
type Config struct {
	Transport string `env:"LONGRUN_TRANSPORT" envDefault:"stdio"`
	HTTPAddr  string `env:"LONGRUN_HTTP_ADDR" envDefault:"localhost:8081"`
	DBPath    string `env:"LONGRUN_DB_PATH"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := cmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "transport type: stdio or http")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite path for the experiment store (empty disables persistence)")
	if err := cmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the streak MCP server.
func Run(ctx context.Context, cfg Config) error {
	return cmd.RunWithTelemetry(ctx, cmd.ServiceServer, func(ctx context.Context) error {
		return streakapp.Run(ctx, streakapp.Config{
			Transport: streakapp.TransportKind(cfg.Transport),
			HTTPAddr:  cfg.HTTPAddr,
			DBPath:    cfg.DBPath,
		})
	})
}
