package app

import (
	"context"

	"github.com/louisbranch/lancerflow/internal/services/flow/accdiff"
	"github.com/louisbranch/lancerflow/internal/services/flow/negotiate"
	"github.com/louisbranch/lancerflow/internal/services/flow/render"
	"github.com/louisbranch/lancerflow/internal/services/flow/tech"
)

// Request carries the non-interactive inputs of one flow: the selected
// targets and the accuracy/difficulty edits to apply when negotiating.
type Request struct {
	TargetIDs []string
	Base      *accdiff.Edit
	Edits     map[string]accdiff.Edit
	Cancel    bool
	// Renderer overrides the HTML card renderer.
	Renderer tech.Renderer
}

// Response is a flow result plus the notices it raised.
type Response struct {
	Result  tech.Result
	Notices []tech.Notice
}

func (a *App) session(req Request, notices tech.Notifier) Session {
	return Session{
		Targets:    a.SelectTargets(req.TargetIDs),
		Negotiator: negotiate.Preset{Base: req.Base, Targets: req.Edits, Cancel: req.Cancel},
		Renderer:   req.Renderer,
		Notifier:   notices,
	}
}

// TechAttack runs a tech attack from sourceID.
func (a *App) TechAttack(ctx context.Context, sourceID, actionPath string, req Request) (Response, error) {
	var notices render.Collector
	o, err := a.Orchestrator(a.session(req, &notices))
	if err != nil {
		return Response{}, err
	}
	result, err := o.Prepare(ctx, tech.PrepareRequest{SourceID: sourceID, ActionPath: actionPath})
	return Response{Result: result, Notices: notices.Notices()}, err
}

// RunMacro dispatches an encoded invocation.
func (a *App) RunMacro(ctx context.Context, token string, req Request) (Response, error) {
	var notices render.Collector
	registry, err := a.Macros(a.session(req, &notices))
	if err != nil {
		return Response{}, err
	}
	result, err := registry.Dispatch(ctx, token)
	return Response{Result: result, Notices: notices.Notices()}, err
}
