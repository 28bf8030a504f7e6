// Package experiment parses experiment command flags and runs Lua plans
// against the streak domain.
package experiment

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"time"

	"github.com/louisbranch/longrun/internal/platform/cmd"
	"github.com/louisbranch/longrun/internal/tools/experiment"
)

// Config holds experiment command configuration.
type Config struct {
	Plan       string        `env:"LONGRUN_PLAN_FILE"`
	Assertions bool          `env:"LONGRUN_PLAN_ASSERT"  envDefault:"true"`
	Verbose    bool          `env:"LONGRUN_PLAN_VERBOSE"`
	Timeout    time.Duration `env:"LONGRUN_PLAN_TIMEOUT" envDefault:"10s"`
	DBPath     string        `env:"LONGRUN_DB_PATH"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := cmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Plan, "plan", cfg.Plan, "path to plan lua file")
	fs.BoolVar(&cfg.Assertions, "assert", cfg.Assertions, "enable assertions (disable to log expectations)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout per step")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite path for recording toss experiments (empty disables persistence)")
	if err := cmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the experiment command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.Plan == "" {
		return errors.New("plan path is required")
	}

	mode := experiment.AssertionStrict
	if !cfg.Assertions {
		mode = experiment.AssertionLogOnly
	}

	logger := log.New(errOut, "", 0)
	return cmd.RunWithTelemetry(ctx, cmd.ServiceExperiment, func(ctx context.Context) error {
		return experiment.RunFile(ctx, experiment.Config{
			Timeout:    cfg.Timeout,
			Assertions: mode,
			Verbose:    cfg.Verbose,
			Logger:     logger,
			DBPath:     cfg.DBPath,
		}, cfg.Plan)
	})
}
