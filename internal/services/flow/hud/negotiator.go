package hud

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/louisbranch/lancerflow/internal/services/flow/accdiff"
	"github.com/louisbranch/lancerflow/internal/services/flow/tech"
)

// Negotiator runs the prompt on a terminal.
type Negotiator struct {
	In     io.Reader
	Out    io.Writer
	Locale string
	// Options are passed to tea.NewProgram after the input/output options.
	Options []tea.ProgramOption
}

// Negotiate shows ad and blocks until the operator confirms or cancels.
func (n Negotiator) Negotiate(ctx context.Context, kind tech.Kind, ad accdiff.AccDiff) (accdiff.AccDiff, error) {
	if kind != tech.KindAttack {
		return accdiff.AccDiff{}, fmt.Errorf("hud: unsupported negotiation kind %q", kind)
	}
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if n.In != nil {
		opts = append(opts, tea.WithInput(n.In))
	}
	if n.Out != nil {
		opts = append(opts, tea.WithOutput(n.Out))
	}
	opts = append(opts, n.Options...)

	program := tea.NewProgram(NewModel(ad, LabelsFor(n.Locale)), opts...)
	final, err := program.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, tea.ErrProgramKilled) {
			return accdiff.AccDiff{}, ctxErr
		}
		return accdiff.AccDiff{}, fmt.Errorf("hud: %w", err)
	}
	model, ok := final.(Model)
	if !ok {
		return accdiff.AccDiff{}, fmt.Errorf("hud: unexpected model %T", final)
	}
	if model.Cancelled() || !model.Confirmed() {
		return accdiff.AccDiff{}, tech.ErrCancelled
	}
	return model.AccDiff(), nil
}

var _ tech.Negotiator = Negotiator{}
