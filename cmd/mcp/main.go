package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	mcpcmd "github.com/louisbranch/lancerflow/internal/cmd/mcp"
	"github.com/louisbranch/lancerflow/internal/platform/config"
)

// main serves the flow tools over MCP stdio.
func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("load env: %v", err)
	}
	cfg, err := mcpcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[MCP] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mcpcmd.Run(ctx, cfg, os.Stderr); err != nil {
		log.Fatalf("failed to serve MCP: %v", err)
	}
}
