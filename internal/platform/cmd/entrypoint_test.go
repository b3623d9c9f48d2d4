package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type testConfig struct {
	Address string `env:"CMD_TEST_ADDRESS" envDefault:"127.0.0.1:8080"`
	Mode    string `env:"CMD_TEST_MODE" envDefault:"server"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("CMD_TEST_ADDRESS", "env:9000")
	t.Setenv("CMD_TEST_MODE", "env-mode")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfgRef := testConfig{}
	if err := ParseConfig(&cfgRef); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfgRef.Address, "address", cfgRef.Address, "address")
	fs.StringVar(&cfgRef.Mode, "mode", cfgRef.Mode, "mode")

	if err := ParseArgs(fs, []string{"-address", "flag:9001"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfgRef.Address != "flag:9001" {
		t.Fatalf("expected flag value for address, got %q", cfgRef.Address)
	}
	if cfgRef.Mode != "env-mode" {
		t.Fatalf("expected env default mode, got %q", cfgRef.Mode)
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	if err := RunWithTelemetry(nil, "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(nil, ServiceFlow, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	t.Setenv("LANCERFLOW_OTEL_ENDPOINT", "")
	t.Setenv("LANCERFLOW_OTEL_STDOUT", "")
	want := errors.New("store closed")
	ran := false
	err := RunWithTelemetry(context.Background(), ServiceSeed, func(context.Context) error {
		ran = true
		return want
	})
	if !ran || !errors.Is(err, want) {
		t.Fatalf("ran = %v, err = %v", ran, err)
	}
}

func TestStoreConfigEnvAndFlags(t *testing.T) {
	t.Setenv("LANCERFLOW_DB_PATH", "env.db")
	t.Setenv("LANCERFLOW_DICE_SEED", "11")

	var cfg StoreConfig
	fs := flag.NewFlagSet("store", flag.ContinueOnError)
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.RegisterFlags(fs)
	if err := ParseArgs(fs, []string{"-locale", "pt-BR"}); err != nil {
		t.Fatalf("parse args: %v", err)
	}
	if cfg.DBPath != "env.db" || cfg.Seed != 11 || cfg.Locale != "pt-BR" || cfg.CacheSize != 1024 {
		t.Fatalf("cfg = %+v", cfg)
	}
}
