package scenario

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/louisbranch/lancerflow/internal/core/dice"
	"github.com/louisbranch/lancerflow/internal/services/flow/app"
)

// Config controls scenario execution.
type Config struct {
	// DataDir holds the per-scenario stores; empty uses a temporary dir.
	DataDir    string
	Locale     string
	Timeout    time.Duration
	Assertions AssertionMode
	Verbose    bool
	Logger     *log.Logger
}

// DefaultConfig returns default runner configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:    10 * time.Second,
		Assertions: AssertionStrict,
	}
}

// Runner executes Lua scenarios against a fresh document store each.
type Runner struct {
	cfg        Config
	assertions Assertions
	logger     *log.Logger
	verbose    bool
	timeout    time.Duration
	newApp     appFactory
}

// NewRunner prepares a scenario runner.
func NewRunner(cfg Config) *Runner {
	return newRunnerWithDeps(cfg, runnerDeps{newApp: app.New})
}

// newRunnerWithDeps builds a Runner from pre-built dependencies.
// Config defaults (logger, timeout) are applied here so they are testable.
func newRunnerWithDeps(cfg Config, deps runnerDeps) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Runner{
		cfg:        cfg,
		assertions: Assertions{Mode: cfg.Assertions, Logger: logger},
		logger:     logger,
		verbose:    cfg.Verbose,
		timeout:    timeout,
		newApp:     deps.newApp,
	}
}

// RunFile loads and executes a scenario file.
func RunFile(ctx context.Context, cfg Config, path string) error {
	scenario, err := LoadScenarioFromFile(path)
	if err != nil {
		return err
	}
	return NewRunner(cfg).RunScenario(ctx, scenario)
}

// RunScenario executes the scenario steps.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) (err error) {
	if scenario == nil {
		return errors.New("scenario is required")
	}
	dir := r.cfg.DataDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "lancerflow-scenario-*")
		if err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}

	appCfg := app.Config{
		DBPath: filepath.Join(dir, sanitize(scenario.Name)+".db"),
		Seed:   scenario.Seed,
		Locale: r.cfg.Locale,
	}
	if r.verbose {
		appCfg.Logger = r.logger
	}
	if len(scenario.Dice) > 0 {
		appCfg.Dice = dice.NewSequence(scenario.Dice...)
	}
	a, err := r.newApp(ctx, appCfg)
	if err != nil {
		return fmt.Errorf("open app: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close app: %w", closeErr)
		}
	}()

	r.logf("scenario start: %s (%d steps, seed %d)", scenario.Name, len(scenario.Steps), a.Seed)
	state := &scenarioState{app: a}
	for index, step := range scenario.Steps {
		stepNumber := index + 1
		r.logf("step %d/%d start: %s", stepNumber, len(scenario.Steps), step.Kind)
		stepStart := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, r.timeout)
		err := r.safeStep(stepCtx, state, step)
		cancel()
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", stepNumber, step.Kind, err)
		}
		r.logf("step %d/%d done: %s (%s)", stepNumber, len(scenario.Steps), step.Kind, time.Since(stepStart))
	}
	r.logf("scenario done: %s", scenario.Name)
	return nil
}

// safeStep turns dice exhaustion panics into step errors.
func (r *Runner) safeStep(ctx context.Context, state *scenarioState, step Step) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()
	return r.runStep(ctx, state, step)
}

func (r *Runner) logf(format string, args ...any) {
	if !r.verbose || r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}

func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "scenario"
	}
	return string(out)
}
