// Package main runs a tech attack flow from the terminal.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	flowcmd "github.com/louisbranch/lancerflow/internal/cmd/flow"
	"github.com/louisbranch/lancerflow/internal/platform/config"
)

func main() {
	config.ExitIf(config.LoadDotEnv(), "load .env")
	cfg, err := flowcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	log.SetPrefix("[FLOW] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := flowcmd.Run(ctx, cfg, os.Stdin, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
