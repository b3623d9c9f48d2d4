// Package macro binds encoded invocations to the tech attack flow.
//
// Two functions are registered: prepareTechMacro with arguments
// [sourceID, actionPath|null] and rollTechMacro with arguments
// [params, reroll]. Tokens that cannot be decoded, or that carry the wrong
// argument shape, are rejected through the orchestrator so the operator is
// notified the same way as for any other precondition failure.
package macro

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/louisbranch/lancerflow/internal/platform/errors"
	"github.com/louisbranch/lancerflow/internal/services/flow/invocation"
	"github.com/louisbranch/lancerflow/internal/services/flow/tech"
)

// PrepareTitle labels prepare invocations.
const PrepareTitle = "TechAttackMacro"

// Registry dispatches tech attack invocations.
type Registry struct {
	orchestrator *tech.Orchestrator
	registry     *invocation.Registry[tech.Result]
}

// NewRegistry registers the tech attack functions against o.
func NewRegistry(o *tech.Orchestrator) (*Registry, error) {
	if o == nil {
		return nil, errors.New("macro registry: orchestrator is required")
	}
	r := &Registry{orchestrator: o, registry: invocation.NewRegistry[tech.Result]()}
	if err := r.registry.Register(tech.FnPrepare, r.prepare); err != nil {
		return nil, err
	}
	if err := r.registry.Register(tech.FnRoll, r.roll); err != nil {
		return nil, err
	}
	return r, nil
}

// Functions lists the registered function ids.
func (r *Registry) Functions() []string { return r.registry.Functions() }

// Dispatch decodes token and runs it. Malformed tokens and unknown
// functions produce an aborted Result rather than an error.
func (r *Registry) Dispatch(ctx context.Context, token string) (tech.Result, error) {
	result, err := r.registry.Dispatch(ctx, token)
	if err == nil {
		return result, nil
	}
	var decodeErr *invocation.DecodeError
	if errors.As(err, &decodeErr) {
		return r.orchestrator.Reject(ctx, apperrors.Wrap(apperrors.CodeInvocationMalformed, "decode invocation", err)), nil
	}
	if errors.Is(err, invocation.ErrUnknownFunction) {
		inv, _ := invocation.Decode(token)
		return r.orchestrator.Reject(ctx, apperrors.WrapWithMetadata(apperrors.CodeInvocationUnknownFunction,
			"dispatch invocation", map[string]string{"Fn": inv.Fn}, err)), nil
	}
	return result, err
}

// Invoke runs an already decoded invocation.
func (r *Registry) Invoke(ctx context.Context, inv invocation.Invocation) (tech.Result, error) {
	result, err := r.registry.Invoke(ctx, inv)
	if errors.Is(err, invocation.ErrUnknownFunction) {
		return r.orchestrator.Reject(ctx, apperrors.WrapWithMetadata(apperrors.CodeInvocationUnknownFunction,
			"dispatch invocation", map[string]string{"Fn": inv.Fn}, err)), nil
	}
	return result, err
}

func (r *Registry) prepare(ctx context.Context, inv invocation.Invocation) (tech.Result, error) {
	if len(inv.Args) < 1 || len(inv.Args) > 2 {
		return r.shape(ctx, inv, fmt.Errorf("want 1 or 2 args, got %d", len(inv.Args))), nil
	}
	var req tech.PrepareRequest
	if err := invocation.DecodeArg(inv, 0, &req.SourceID); err != nil {
		return r.shape(ctx, inv, err), nil
	}
	if req.SourceID == "" {
		return r.shape(ctx, inv, errors.New("source id is required")), nil
	}
	if len(inv.Args) == 2 && inv.Args[1] != nil {
		if err := invocation.DecodeArg(inv, 1, &req.ActionPath); err != nil {
			return r.shape(ctx, inv, err), nil
		}
	}
	return r.orchestrator.Prepare(ctx, req)
}

func (r *Registry) roll(ctx context.Context, inv invocation.Invocation) (tech.Result, error) {
	if len(inv.Args) < 1 || len(inv.Args) > 2 {
		return r.shape(ctx, inv, fmt.Errorf("want 1 or 2 args, got %d", len(inv.Args))), nil
	}
	var params tech.AttackRollParameters
	if err := invocation.DecodeArg(inv, 0, &params); err != nil {
		return r.shape(ctx, inv, err), nil
	}
	if params.Title == "" {
		return r.shape(ctx, inv, errors.New("params: title is required")), nil
	}
	reroll := false
	if len(inv.Args) == 2 && inv.Args[1] != nil {
		if err := invocation.DecodeArg(inv, 1, &reroll); err != nil {
			return r.shape(ctx, inv, err), nil
		}
	}
	return r.orchestrator.Roll(ctx, params, reroll)
}

func (r *Registry) shape(ctx context.Context, inv invocation.Invocation, cause error) tech.Result {
	return r.orchestrator.Reject(ctx, apperrors.WrapWithMetadata(apperrors.CodeInvocationShape,
		"invocation arguments", map[string]string{"Fn": inv.Fn}, cause))
}

// PrepareToken encodes an invocation that starts a tech attack from
// sourceID. An empty actionPath is encoded as null.
func PrepareToken(title, sourceID, actionPath string) (string, error) {
	if title == "" {
		title = PrepareTitle
	}
	var path any
	if actionPath != "" {
		path = actionPath
	}
	return invocation.Encode(invocation.Invocation{
		Title: title,
		Fn:    tech.FnPrepare,
		Args:  []any{sourceID, path},
	})
}
