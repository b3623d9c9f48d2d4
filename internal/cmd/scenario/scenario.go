package scenario

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"time"

	platformcmd "github.com/louisbranch/lancerflow/internal/platform/cmd"
	"github.com/louisbranch/lancerflow/internal/tools/scenario"
)

// Config holds scenario command configuration.
type Config struct {
	Scenario   string        `env:"LANCERFLOW_SCENARIO_FILE"`
	DataDir    string        `env:"LANCERFLOW_SCENARIO_DATA_DIR"`
	Locale     string        `env:"LANCERFLOW_LOCALE"           envDefault:"en-US"`
	Assertions bool          `env:"LANCERFLOW_SCENARIO_ASSERT"  envDefault:"true"`
	Verbose    bool          `env:"LANCERFLOW_SCENARIO_VERBOSE"`
	Timeout    time.Duration `env:"LANCERFLOW_SCENARIO_TIMEOUT" envDefault:"10s"`
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "path to scenario lua file")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for scenario stores (default: temporary)")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for notices")
	fs.BoolVar(&cfg.Assertions, "assert", cfg.Assertions, "enable assertions (disable to log expectations)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout per step")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the scenario command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.Scenario == "" {
		return errors.New("scenario path is required")
	}

	mode := scenario.AssertionStrict
	if !cfg.Assertions {
		mode = scenario.AssertionLogOnly
	}

	logger := log.New(errOut, "", 0)
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceScenario, func(ctx context.Context) error {
		if err := scenario.RunFile(ctx, scenario.Config{
			DataDir:    cfg.DataDir,
			Locale:     cfg.Locale,
			Timeout:    cfg.Timeout,
			Assertions: mode,
			Verbose:    cfg.Verbose,
			Logger:     logger,
		}, cfg.Scenario); err != nil {
			return err
		}
		_, err := io.WriteString(out, "scenario passed\n")
		return err
	})
}
