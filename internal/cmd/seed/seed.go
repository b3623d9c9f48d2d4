// Package seed loads actor and item fixtures into the flow document store.
package seed

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	platformcmd "github.com/louisbranch/lancerflow/internal/platform/cmd"
	"github.com/louisbranch/lancerflow/internal/services/flow/storage/sqlite"
	"github.com/louisbranch/lancerflow/internal/tools/docseed"
)

// Config holds seed command configuration.
type Config struct {
	Store   platformcmd.StoreConfig
	File    string `env:"LANCERFLOW_SEED_FILE"`
	Verbose bool
}

// ParseConfig parses env and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Store.RegisterFlags(fs)
	fs.StringVar(&cfg.File, "file", cfg.File, "fixture file (.json, .yaml or .yml)")
	fs.BoolVar(&cfg.Verbose, "v", false, "verbose output")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run loads the fixture file into the store.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.File == "" {
		return errors.New("fixture file is required")
	}
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceSeed, func(ctx context.Context) error {
		return seedFile(ctx, cfg, out, errOut)
	})
}

func seedFile(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	file, err := os.Open(cfg.File)
	if err != nil {
		return fmt.Errorf("open fixture: %w", err)
	}
	defer file.Close()

	fixture, err := docseed.Decode(file, docseed.FormatForPath(cfg.File))
	if err != nil {
		return fmt.Errorf("decode %s: %w", cfg.File, err)
	}

	store, err := sqlite.Open(cfg.Store.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := docseed.Apply(ctx, store, fixture)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		for _, actor := range fixture.Actors {
			fmt.Fprintf(errOut, "actor %s %s\n", actor.UUID, actor.Name)
		}
		for _, item := range fixture.Items {
			fmt.Fprintf(errOut, "item %s %s\n", item.UUID, item.Name)
		}
	}
	_, err = fmt.Fprintf(out, "seeded %d actors and %d items into %s\n", summary.Actors, summary.Items, cfg.Store.DBPath)
	return err
}
