package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/lancerflow/internal/platform/config"
	"github.com/louisbranch/lancerflow/internal/platform/otel"
)

// telemetryFlushTimeout bounds the final span flush on exit.
const telemetryFlushTimeout = 5 * time.Second

// Service identifiers for command startup telemetry and CLI naming consistency.
const (
	ServiceFlow     = "flow"
	ServiceMCP      = "mcp"
	ServiceScenario = "scenario"
	ServiceSeed     = "seed"
	ServiceWeb      = "web"
)

// StoreConfig is the document store and dice configuration shared by the
// commands that open a store.
type StoreConfig struct {
	DBPath    string `env:"LANCERFLOW_DB_PATH"    envDefault:"data/lancerflow.db"`
	CacheSize int    `env:"LANCERFLOW_CACHE_SIZE" envDefault:"1024"`
	Locale    string `env:"LANCERFLOW_LOCALE"     envDefault:"en-US"`
	Seed      int64  `env:"LANCERFLOW_DICE_SEED"`
}

// RegisterFlags binds StoreConfig fields to flags, keeping env values as
// defaults.
func (c *StoreConfig) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.DBPath, "db", c.DBPath, "path to the sqlite document store")
	fs.IntVar(&c.CacheSize, "cache-size", c.CacheSize, "resolved document cache entries")
	fs.StringVar(&c.Locale, "locale", c.Locale, "locale for cards and notices")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "dice seed (0 = random)")
}

// ParseConfig loads environment defaults into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry installs the tracer provider for service, runs run and
// flushes spans afterwards, even when run fails.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return fmt.Errorf("%s telemetry: %w", service, err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryFlushTimeout)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()
	return run(ctx)
}
