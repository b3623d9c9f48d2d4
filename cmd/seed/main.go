// Package main loads actor and item fixtures into the local document store.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/lancerflow/internal/platform/config"

	seedcmd "github.com/louisbranch/lancerflow/internal/cmd/seed"
)

func main() {
	config.ExitIf(config.LoadDotEnv(), "load .env")
	cfg, err := seedcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := seedcmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
