// Package flow parses the interactive tech attack command and runs it.
package flow

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	platformcmd "github.com/louisbranch/lancerflow/internal/platform/cmd"
	"github.com/louisbranch/lancerflow/internal/services/flow/app"
	"github.com/louisbranch/lancerflow/internal/services/flow/hud"
	"github.com/louisbranch/lancerflow/internal/services/flow/macro"
	"github.com/louisbranch/lancerflow/internal/services/flow/negotiate"
	"github.com/louisbranch/lancerflow/internal/services/flow/render"
	"github.com/louisbranch/lancerflow/internal/services/flow/tech"
)

// Subcommands.
const (
	CommandTech  = "tech"
	CommandMacro = "macro"
	CommandToken = "token"
)

// Config holds flow command configuration.
type Config struct {
	Store      platformcmd.StoreConfig
	Command    string
	SourceID   string
	ActionPath string
	Token      string
	Title      string
	Targets    []string
	// Yes skips the accuracy/difficulty prompt.
	Yes     bool
	Verbose bool
}

// ParseConfig parses env, the subcommand and its flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg.Store); err != nil {
		return Config{}, err
	}
	if len(args) == 0 {
		return Config{}, fmt.Errorf("subcommand is required: %s, %s or %s", CommandTech, CommandMacro, CommandToken)
	}
	cfg.Command = args[0]
	switch cfg.Command {
	case CommandTech, CommandMacro, CommandToken:
	default:
		return Config{}, fmt.Errorf("unknown subcommand %q", cfg.Command)
	}

	var targets string
	cfg.Store.RegisterFlags(fs)
	fs.StringVar(&cfg.SourceID, "source", "", "actor or item id making the attack")
	fs.StringVar(&cfg.ActionPath, "action", "", "dot path of an item action, e.g. system.actions.0")
	fs.StringVar(&cfg.Token, "token", "", "encoded macro invocation")
	fs.StringVar(&cfg.Title, "title", "", "title of the generated token")
	fs.StringVar(&targets, "targets", "", "comma separated target actor ids")
	fs.BoolVar(&cfg.Yes, "yes", false, "roll without the accuracy/difficulty prompt")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "log flow state transitions")
	if err := platformcmd.ParseArgs(fs, args[1:]); err != nil {
		return Config{}, err
	}
	cfg.Targets = splitIDs(targets)

	switch {
	case cfg.Command != CommandMacro && cfg.SourceID == "":
		return Config{}, errors.New("-source is required")
	case cfg.Command == CommandMacro && cfg.Token == "":
		return Config{}, errors.New("-token is required")
	}
	return cfg, nil
}

// Run executes the subcommand. The prompt reads from in and draws on out;
// cards go to out and notices to errOut.
func Run(ctx context.Context, cfg Config, in io.Reader, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.Command == CommandToken {
		token, err := macro.PrepareToken(cfg.Title, cfg.SourceID, cfg.ActionPath)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, token)
		return err
	}

	appCfg := app.Config{
		DBPath:    cfg.Store.DBPath,
		CacheSize: cfg.Store.CacheSize,
		Seed:      cfg.Store.Seed,
		Locale:    cfg.Store.Locale,
	}
	if cfg.Verbose {
		appCfg.Logger = log.New(errOut, "", log.LstdFlags)
	}
	a, err := app.New(ctx, appCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var negotiator tech.Negotiator = negotiate.Confirm
	if !cfg.Yes {
		negotiator = hud.Negotiator{In: in, Out: out, Locale: a.Locale}
	}
	session := app.Session{
		Targets:    a.SelectTargets(cfg.Targets),
		Negotiator: negotiator,
		Renderer:   a.Text,
		Notifier:   &render.TextNotifier{Out: errOut},
	}

	var result tech.Result
	switch cfg.Command {
	case CommandTech:
		o, err := a.Orchestrator(session)
		if err != nil {
			return err
		}
		result, err = o.Prepare(ctx, tech.PrepareRequest{SourceID: cfg.SourceID, ActionPath: cfg.ActionPath})
		if err != nil {
			return err
		}
	case CommandMacro:
		registry, err := a.Macros(session)
		if err != nil {
			return err
		}
		result, err = registry.Dispatch(ctx, cfg.Token)
		if err != nil {
			return err
		}
	}
	if result.Done() {
		_, err = fmt.Fprintln(out, result.Rendered)
		return err
	}
	return nil
}

func splitIDs(value string) []string {
	var ids []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}
