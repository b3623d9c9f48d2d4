// Package mcp parses MCP command flags and serves the tools over stdio.
package mcp

import (
	"context"
	"flag"
	"io"
	"log"

	platformcmd "github.com/louisbranch/lancerflow/internal/platform/cmd"
	"github.com/louisbranch/lancerflow/internal/services/flow/api/mcptools"
	"github.com/louisbranch/lancerflow/internal/services/flow/app"
)

// Config holds MCP command configuration.
type Config struct {
	Store platformcmd.StoreConfig
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg.Store); err != nil {
		return Config{}, err
	}
	cfg.Store.RegisterFlags(fs)
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run serves the MCP tools on stdio until ctx is done. Logs go to errOut
// because stdout carries the protocol.
func Run(ctx context.Context, cfg Config, errOut io.Writer) error {
	if errOut == nil {
		errOut = io.Discard
	}
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceMCP, func(ctx context.Context) error {
		a, err := app.New(ctx, app.Config{
			DBPath:    cfg.Store.DBPath,
			CacheSize: cfg.Store.CacheSize,
			Seed:      cfg.Store.Seed,
			Locale:    cfg.Store.Locale,
			Logger:    log.New(errOut, "[MCP] ", log.LstdFlags),
		})
		if err != nil {
			return err
		}
		defer a.Close()
		return mcptools.Serve(ctx, a)
	})
}
