package tech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/lancerflow/internal/core/dice"
	"github.com/louisbranch/lancerflow/internal/core/encoding"
	apperrors "github.com/louisbranch/lancerflow/internal/platform/errors"
	"github.com/louisbranch/lancerflow/internal/platform/id"
	"github.com/louisbranch/lancerflow/internal/services/flow/accdiff"
	"github.com/louisbranch/lancerflow/internal/services/flow/attack"
	"github.com/louisbranch/lancerflow/internal/services/flow/invocation"
	"github.com/louisbranch/lancerflow/internal/services/flow/storage"
	"github.com/louisbranch/lancerflow/internal/systems/lancer"
)

const tracerName = "github.com/louisbranch/lancerflow/internal/services/flow/tech"

// Invocation function ids handled by the macro registry.
const (
	FnPrepare = "prepareTechMacro"
	FnRoll    = "rollTechMacro"
)

// RerollTitle labels reroll invocations.
const RerollTitle = "RollMacro"

// Deps are the collaborators an Orchestrator drives.
type Deps struct {
	Resolver   Resolver
	Updater    Updater
	Targets    TargetProvider
	Negotiator Negotiator
	Renderer   Renderer
	Notifier   Notifier
	Dice       dice.Source

	// Optional.
	Logger *log.Logger
	Tracer trace.Tracer
	Locale string
	NewID  func() (string, error)
}

// Orchestrator runs tech attack flows. It holds no per-flow state, so one
// value can serve concurrent flows as long as its collaborators can.
type Orchestrator struct {
	deps   Deps
	roller attack.Roller
	logger *log.Logger
	tracer trace.Tracer
	newID  func() (string, error)
}

// New validates deps and builds an Orchestrator.
func New(deps Deps) (*Orchestrator, error) {
	switch {
	case deps.Resolver == nil:
		return nil, errors.New("tech orchestrator: resolver is required")
	case deps.Updater == nil:
		return nil, errors.New("tech orchestrator: updater is required")
	case deps.Targets == nil:
		return nil, errors.New("tech orchestrator: target provider is required")
	case deps.Negotiator == nil:
		return nil, errors.New("tech orchestrator: negotiator is required")
	case deps.Renderer == nil:
		return nil, errors.New("tech orchestrator: renderer is required")
	case deps.Notifier == nil:
		return nil, errors.New("tech orchestrator: notifier is required")
	case deps.Dice == nil:
		return nil, errors.New("tech orchestrator: dice source is required")
	}
	o := &Orchestrator{
		deps:   deps,
		roller: attack.Roller{Source: deps.Dice},
		logger: deps.Logger,
		tracer: deps.Tracer,
		newID:  deps.NewID,
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard, "", 0)
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	if o.newID == nil {
		o.newID = id.NewID
	}
	return o, nil
}

// PrepareRequest starts a flow from a document identifier. ActionPath
// optionally selects an item action, e.g. "system.actions.0".
type PrepareRequest struct {
	SourceID   string
	ActionPath string
}

// Prepare runs the full flow from source resolution to rendering.
func (o *Orchestrator) Prepare(ctx context.Context, req PrepareRequest) (Result, error) {
	f, ctx, err := o.begin(ctx, "tech.prepare")
	if err != nil {
		return Result{}, err
	}
	defer f.end()
	f.span.SetAttributes(attribute.String("flow.source_id", req.SourceID))

	f.enter(StateResolvingSource)
	res, err := o.deps.Resolver.Resolve(ctx, req.SourceID)
	if errors.Is(err, storage.ErrNotFound) {
		return f.abort(ctx, AbortPrecondition, apperrors.WrapWithMetadata(apperrors.CodeFlowSourceMissing,
			fmt.Sprintf("resolve %s", req.SourceID), map[string]string{"Source": req.SourceID}, err)), nil
	}
	if err != nil {
		return f.fail(fmt.Errorf("resolve source %s: %w", req.SourceID, err))
	}
	if res.Actor == nil {
		return f.abort(ctx, AbortPrecondition, apperrors.WithMetadata(apperrors.CodeFlowSourceMissing,
			fmt.Sprintf("no actor for %s", req.SourceID), map[string]string{"Source": req.SourceID})), nil
	}
	src, err := ResolveSource(res, req.ActionPath)
	if err != nil {
		if domainErr, ok := apperrors.As(err); ok {
			return f.abort(ctx, AbortPrecondition, domainErr), nil
		}
		return f.fail(err)
	}
	f.span.SetAttributes(attribute.String("flow.source_kind", fmt.Sprintf("%T", src)))

	f.enter(StateBuildingParameters)
	targets, ok, err := f.currentTargets(ctx)
	if err != nil || !ok {
		return f.result, err
	}
	params := src.Parameters(targets)
	f.result.Params = &params
	o.logger.Printf("flow %s: %s flat bonus %d, %d target(s)", f.result.FlowID, params.Title, params.FlatBonus, len(params.AccDiff.Targets))

	negotiated, ok, err := f.negotiate(ctx, params.AccDiff)
	if err != nil || !ok {
		return f.result, err
	}
	params.AccDiff = negotiated
	f.result.Params = &params

	if err := params.AccDiff.Validate(); err != nil {
		return f.abort(ctx, AbortComputation, apperrors.Wrap(apperrors.CodeFlowAccDiffInvalid, "negotiated accuracy/difficulty", err)), nil
	}

	if item := src.RechargeItem(); item != nil {
		f.enter(StateConsumingResource)
		if err := o.deps.Updater.Update(ctx, item.UUID, map[string]any{"system.charged": false}); err != nil {
			return f.fail(fmt.Errorf("uncharge %s: %w", item.UUID, err))
		}
		o.logger.Printf("flow %s: uncharged %s", f.result.FlowID, item.UUID)
	}

	return f.compute(ctx, params)
}

// Roll computes and renders params. With reroll set, the target list is
// refreshed from the TargetProvider and negotiated again first.
func (o *Orchestrator) Roll(ctx context.Context, params AttackRollParameters, reroll bool) (Result, error) {
	f, ctx, err := o.begin(ctx, "tech.roll")
	if err != nil {
		return Result{}, err
	}
	defer f.end()
	f.span.SetAttributes(attribute.Bool("flow.reroll", reroll))
	if digest, err := encoding.Digest(params); err == nil {
		f.span.SetAttributes(attribute.String("flow.params_digest", digest))
	}
	params.AccDiff = params.AccDiff.Clone()
	f.result.Params = &params

	if reroll {
		targets, ok, err := f.currentTargets(ctx)
		if err != nil || !ok {
			return f.result, err
		}
		params.AccDiff.ReplaceTargets(targets)
		negotiated, ok, err := f.negotiate(ctx, params.AccDiff)
		if err != nil || !ok {
			return f.result, err
		}
		params.AccDiff = negotiated
	}
	return f.compute(ctx, params)
}

// Reject reports an invocation that never reached the flow, such as a
// malformed token or wrong argument shape.
func (o *Orchestrator) Reject(ctx context.Context, err *apperrors.Error) Result {
	f, ctx, beginErr := o.begin(ctx, "tech.reject")
	if beginErr != nil {
		return Result{State: StateAborted, Trace: []State{StateAborted}}
	}
	defer f.end()
	return f.abort(ctx, AbortPrecondition, err)
}

// RerollToken encodes the invocation that rerolls params.
func RerollToken(params AttackRollParameters) (string, error) {
	return invocation.Encode(invocation.Invocation{
		Title: RerollTitle,
		Fn:    FnRoll,
		Args:  []any{params, true},
	})
}

// flow tracks one execution.
type flow struct {
	o      *Orchestrator
	span   trace.Span
	result Result
}

func (o *Orchestrator) begin(ctx context.Context, name string) (*flow, context.Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, ctx, err
	}
	flowID, err := o.newID()
	if err != nil {
		return nil, ctx, fmt.Errorf("flow id: %w", err)
	}
	ctx, span := o.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("flow.id", flowID)))
	return &flow{o: o, span: span, result: Result{FlowID: flowID}}, ctx, nil
}

func (f *flow) end() {
	f.span.SetAttributes(attribute.String("flow.state", string(f.result.State)))
	f.span.End()
}

func (f *flow) enter(state State) {
	f.result.State = state
	f.result.Trace = append(f.result.Trace, state)
	f.span.AddEvent("flow.state", trace.WithAttributes(attribute.String("state", string(state))))
	f.o.logger.Printf("flow %s: %s", f.result.FlowID, state)
}

// currentTargets reports ok=false when the flow aborted. A selected target
// that no longer exists is the operator's problem, not an infrastructure one.
func (f *flow) currentTargets(ctx context.Context) ([]accdiff.TargetRef, bool, error) {
	targets, err := f.o.deps.Targets.CurrentTargets(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		f.abort(ctx, AbortPrecondition, apperrors.Wrap(apperrors.CodeFlowTargetMissing, "current targets", err))
		return nil, false, nil
	}
	if err != nil {
		_, err = f.fail(fmt.Errorf("current targets: %w", err))
		return nil, false, err
	}
	return targets, true, nil
}

// negotiate reports ok=false when the flow aborted.
func (f *flow) negotiate(ctx context.Context, ad accdiff.AccDiff) (accdiff.AccDiff, bool, error) {
	f.enter(StateNegotiating)
	negotiated, err := f.o.deps.Negotiator.Negotiate(ctx, KindAttack, ad.Clone())
	if errors.Is(err, ErrCancelled) {
		f.abort(ctx, AbortUser, nil)
		return accdiff.AccDiff{}, false, nil
	}
	if errors.Is(err, accdiff.ErrInvalid) {
		f.abort(ctx, AbortPrecondition, apperrors.Wrap(apperrors.CodeFlowEditInvalid, "negotiate", err))
		return accdiff.AccDiff{}, false, nil
	}
	if err != nil {
		_, err = f.fail(fmt.Errorf("negotiate: %w", err))
		return accdiff.AccDiff{}, false, err
	}
	if !negotiated.SameTargets(ad) {
		f.abort(ctx, AbortPrecondition, apperrors.New(apperrors.CodeFlowTargetsChanged, "negotiator changed the target set"))
		return accdiff.AccDiff{}, false, nil
	}
	return negotiated, true, nil
}

func (f *flow) compute(ctx context.Context, params AttackRollParameters) (Result, error) {
	f.enter(StateComputing)
	specs, err := attack.AttackRolls(params.FlatBonus, params.AccDiff)
	if err != nil {
		return f.abort(ctx, AbortComputation, apperrors.Wrap(apperrors.CodeFlowAccDiffInvalid, "attack rolls", err)), nil
	}
	outcomes, err := f.o.roller.RollAll(specs, params.AttackType)
	if err != nil {
		return f.fail(fmt.Errorf("roll: %w", err))
	}
	f.result.Outcomes = outcomes
	f.result.Params = &params

	f.enter(StateRendering)
	token, err := RerollToken(params)
	if err != nil {
		return f.fail(err)
	}
	payload := Payload{
		Title:            params.Title,
		AttackType:       params.AttackType,
		Effect:           params.Effect,
		Tags:             append([]lancer.Tag{}, params.Tags...),
		Outcomes:         outcomes,
		RerollInvocation: token,
	}
	f.result.Payload = &payload
	rendered, err := f.o.deps.Renderer.Render(ctx, params.Speaker, TemplateID, payload)
	if err != nil {
		return f.fail(fmt.Errorf("render %s: %w", TemplateID, err))
	}
	f.result.Rendered = rendered

	f.enter(StateDone)
	return f.result, nil
}

// abort ends the flow without side effects. Non-user aborts notify.
func (f *flow) abort(ctx context.Context, kind AbortKind, cause *apperrors.Error) Result {
	at := f.result.State
	f.enter(StateAborted)
	abort := &Abort{Kind: kind, At: at}
	if cause != nil {
		abort.Code = cause.Code
		abort.Reason = cause.Error()
	}
	f.result.Abort = abort
	f.span.SetAttributes(attribute.String("flow.abort", string(kind)))

	if kind == AbortUser {
		f.o.logger.Printf("flow %s: cancelled at %s", f.result.FlowID, at)
		return f.result
	}
	notice := f.o.notice(cause)
	f.result.Notice = &notice
	f.o.logger.Printf("flow %s: aborted at %s: %s (%s)", f.result.FlowID, at, abort.Reason, abort.Code)
	f.o.deps.Notifier.Notify(ctx, notice)
	return f.result
}

func (f *flow) fail(err error) (Result, error) {
	f.span.RecordError(err)
	f.span.SetStatus(codes.Error, err.Error())
	f.o.logger.Printf("flow %s: failed at %s: %v", f.result.FlowID, f.result.State, err)
	return f.result, err
}

func (o *Orchestrator) notice(cause *apperrors.Error) Notice {
	if cause == nil {
		cause = apperrors.New(apperrors.CodeUnknown, "unknown failure")
	}
	level := NoticeError
	if cause.Code == apperrors.CodeFlowFeatureNotCharged {
		level = NoticeWarn
	}
	return Notice{
		Level:   level,
		Code:    cause.Code,
		Message: cause.Localized(o.deps.Locale),
	}
}
