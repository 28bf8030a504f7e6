package experiment

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/louisbranch/longrun/internal/random"
	"github.com/louisbranch/longrun/internal/services/streak/storage"
	"github.com/louisbranch/longrun/internal/services/streak/storage/sqlite"
)

// Config controls how plans run.
type Config struct {
	// Timeout bounds each individual step.
	Timeout time.Duration
	// Assertions selects whether failed expectations stop the run.
	Assertions AssertionMode
	// Verbose logs each step before it runs.
	Verbose bool
	// Logger receives step and expectation logs. Defaults to stderr.
	Logger *log.Logger
	// DBPath persists toss experiments when set.
	DBPath string
}

// DefaultConfig returns the runner defaults used by the experiment command.
func DefaultConfig() Config {
	return Config{
		Timeout:    10 * time.Second,
		Assertions: AssertionStrict,
	}
}

// Runner executes experiment plans against the streak domain in-process.
type Runner struct {
	store      storage.ExperimentStore
	sqlite     *sqlite.Store
	assertions Assertions
	logger     *log.Logger
	verbose    bool
	timeout    time.Duration
	newSeed    func() (int64, error)
}

type runnerDeps struct {
	store   storage.ExperimentStore
	newSeed func() (int64, error)
}

// NewRunner builds a runner from cfg, opening the experiment store when a
// database path is configured. Close releases the store.
func NewRunner(cfg Config) (*Runner, error) {
	runner := newRunnerWithDeps(cfg, runnerDeps{})
	if cfg.DBPath != "" {
		store, err := openExperimentStore(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		runner.sqlite = store
		runner.store = store
	}
	return runner, nil
}

func newRunnerWithDeps(cfg Config, deps runnerDeps) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	newSeed := deps.newSeed
	if newSeed == nil {
		newSeed = random.NewSeed
	}
	return &Runner{
		store:      deps.store,
		assertions: Assertions{Mode: cfg.Assertions, Logger: logger},
		logger:     logger,
		verbose:    cfg.Verbose,
		timeout:    timeout,
		newSeed:    newSeed,
	}
}

func openExperimentStore(path string) (*sqlite.Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
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

// Close releases the experiment store, if one was opened.
func (r *Runner) Close() error {
	if r.sqlite == nil {
		return nil
	}
	store := r.sqlite
	r.sqlite = nil
	r.store = nil
	if err := store.Close(); err != nil {
		return fmt.Errorf("close experiment store: %w", err)
	}
	return nil
}

// RunFile loads the plan at path and runs it.
func RunFile(ctx context.Context, cfg Config, path string) error {
	plan, err := LoadPlanFromFile(path)
	if err != nil {
		return err
	}
	runner, err := NewRunner(cfg)
	if err != nil {
		return err
	}
	defer runner.Close()
	return runner.RunPlan(ctx, plan)
}

// planState carries results forward between steps. A longest_run step
// without explicit faces reuses the most recent toss sequence.
type planState struct {
	lastTosses string
}

// RunPlan executes every step of the plan in order. Each step gets its own
// timeout. Failures name the step index and kind.
func (r *Runner) RunPlan(ctx context.Context, plan *Plan) error {
	if plan == nil {
		return fmt.Errorf("plan is nil")
	}
	r.logf("plan %q: %d steps", plan.Name, len(plan.Steps))

	state := &planState{}
	for index, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.logf("step %d (%s)", index+1, step.Kind)

		stepCtx, cancel := context.WithTimeout(ctx, r.timeout)
		err := r.runStep(stepCtx, state, step)
		cancel()
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", index+1, step.Kind, err)
		}
	}
	return nil
}

func (r *Runner) logf(format string, args ...any) {
	if !r.verbose || r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}
