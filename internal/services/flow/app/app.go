// Package app wires the document store, cache, dice and renderers into
// tech attack orchestrators.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/louisbranch/lancerflow/internal/core/dice"
	"github.com/louisbranch/lancerflow/internal/platform/random"
	"github.com/louisbranch/lancerflow/internal/services/flow/accdiff"
	"github.com/louisbranch/lancerflow/internal/services/flow/macro"
	"github.com/louisbranch/lancerflow/internal/services/flow/negotiate"
	"github.com/louisbranch/lancerflow/internal/services/flow/render"
	"github.com/louisbranch/lancerflow/internal/services/flow/storage/cache"
	"github.com/louisbranch/lancerflow/internal/services/flow/storage/sqlite"
	"github.com/louisbranch/lancerflow/internal/services/flow/tech"
)

// DefaultLocale is used when Config.Locale is empty.
const DefaultLocale = "en-US"

// Config configures an App.
type Config struct {
	DBPath    string
	CacheSize int
	// Seed fixes the dice source; zero picks a random seed.
	Seed   int64
	Locale string
	Logger *log.Logger
	// Dice overrides the seeded source, e.g. with a dice.Sequence.
	Dice dice.Source
}

// App owns the long-lived collaborators shared by every flow.
type App struct {
	Store  *sqlite.Store
	Docs   *cache.Resolver
	HTML   *render.HTML
	Text   *render.Text
	Seed   int64
	Locale string

	dice   dice.Source
	logger *log.Logger
}

// New opens the store and builds the shared collaborators.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return nil, errors.New("app: db path is required")
	}
	locale := cfg.Locale
	if locale == "" {
		locale = DefaultLocale
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	source := cfg.Dice
	seed := cfg.Seed
	if source == nil {
		resolved, err := random.ResolveSeed(cfg.Seed)
		if err != nil {
			return nil, fmt.Errorf("resolve seed: %w", err)
		}
		seed = resolved
		source = dice.NewSource(seed)
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = cache.DefaultSize
	}
	docs, err := cache.New(store, size)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("build cache: %w", err)
	}
	logger.Printf("store %s opened, dice seed %d", cfg.DBPath, seed)

	return &App{
		Store:  store,
		Docs:   docs,
		HTML:   render.NewHTML(locale),
		Text:   render.NewText(locale),
		Seed:   seed,
		Locale: locale,
		dice:   source,
		logger: logger,
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	return a.Store.Close()
}

// Session holds the per-request collaborators. Zero fields fall back to no
// targets, auto-confirm negotiation, the HTML renderer and log notices.
type Session struct {
	Targets    tech.TargetProvider
	Negotiator tech.Negotiator
	Renderer   tech.Renderer
	Notifier   tech.Notifier
}

// Orchestrator builds an orchestrator for one request.
func (a *App) Orchestrator(s Session) (*tech.Orchestrator, error) {
	if s.Targets == nil {
		s.Targets = tech.StaticTargets(nil)
	}
	if s.Negotiator == nil {
		s.Negotiator = negotiate.Confirm
	}
	if s.Renderer == nil {
		s.Renderer = a.HTML
	}
	if s.Notifier == nil {
		s.Notifier = render.LogNotifier{Logger: a.logger}
	}
	return tech.New(tech.Deps{
		Resolver:   a.Docs,
		Updater:    a.Docs,
		Targets:    s.Targets,
		Negotiator: s.Negotiator,
		Renderer:   s.Renderer,
		Notifier:   s.Notifier,
		Dice:       a.dice,
		Logger:     a.logger,
		Locale:     a.Locale,
	})
}

// Macros builds a macro registry over a fresh orchestrator.
func (a *App) Macros(s Session) (*macro.Registry, error) {
	o, err := a.Orchestrator(s)
	if err != nil {
		return nil, err
	}
	return macro.NewRegistry(o)
}

// SelectTargets resolves actor ids into a target provider. The ids are
// looked up on every call so a reroll sees current defenses.
func (a *App) SelectTargets(ids []string) tech.TargetProvider {
	ids = append([]string(nil), ids...)
	return tech.TargetsFunc(func(ctx context.Context) ([]accdiff.TargetRef, error) {
		return a.Store.Targets(ctx, ids)
	})
}
