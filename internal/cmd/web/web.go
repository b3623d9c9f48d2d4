// Package web parses web command flags and serves tech attack flows over HTTP.
package web

import (
	"context"
	"flag"
	"io"
	"log"

	platformcmd "github.com/louisbranch/lancerflow/internal/platform/cmd"
	flowweb "github.com/louisbranch/lancerflow/internal/services/flow/api/web"
	"github.com/louisbranch/lancerflow/internal/services/flow/app"
)

// Config holds the web command configuration.
type Config struct {
	Store    platformcmd.StoreConfig
	HTTPAddr string `env:"LANCERFLOW_WEB_HTTP_ADDR" envDefault:"localhost:8086"`
}

// ParseConfig parses env and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Store.RegisterFlags(fs)
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run serves HTTP until ctx is done.
func Run(ctx context.Context, cfg Config, errOut io.Writer) error {
	if errOut == nil {
		errOut = io.Discard
	}
	logger := log.New(errOut, "[WEB] ", log.LstdFlags)
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceWeb, func(ctx context.Context) error {
		a, err := app.New(ctx, app.Config{
			DBPath:    cfg.Store.DBPath,
			CacheSize: cfg.Store.CacheSize,
			Seed:      cfg.Store.Seed,
			Locale:    cfg.Store.Locale,
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		defer a.Close()
		server := flowweb.Server{Addr: cfg.HTTPAddr, Handler: flowweb.NewHandler(a, logger), Logger: logger}
		return server.Run(ctx)
	})
}
