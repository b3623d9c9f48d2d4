package scenario

import (
	"context"

	"github.com/louisbranch/lancerflow/internal/services/flow/app"
)

// appFactory opens the App a scenario runs against.
type appFactory func(ctx context.Context, cfg app.Config) (*app.App, error)

// runnerDeps bundles injectable dependencies for runner construction.
type runnerDeps struct {
	newApp appFactory
}
