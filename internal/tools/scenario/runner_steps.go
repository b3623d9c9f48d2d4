package scenario

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/louisbranch/lancerflow/internal/services/flow/accdiff"
	"github.com/louisbranch/lancerflow/internal/services/flow/app"
	"github.com/louisbranch/lancerflow/internal/services/flow/attack"
	"github.com/louisbranch/lancerflow/internal/services/flow/tech"
	"github.com/louisbranch/lancerflow/internal/systems/lancer"
)

func (r *Runner) runStep(ctx context.Context, state *scenarioState, step Step) error {
	switch step.Kind {
	case stepMech, stepNPC, stepDeployable:
		return r.runActorStep(ctx, state, step)
	case stepFeature, stepSystem:
		return r.runItemStep(ctx, state, step)
	case stepSelect:
		ids, err := stringList(step.Args["ids"])
		if err != nil {
			return fmt.Errorf("select: %w", err)
		}
		state.targets = ids
		return nil
	case stepTechAttack:
		return r.runTechAttackStep(ctx, state, step.Args)
	case stepReroll:
		return r.runRerollStep(ctx, state, step.Args)
	case stepExpectCharged:
		return r.runExpectChargedStep(ctx, state, step.Args)
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

func (r *Runner) runActorStep(ctx context.Context, state *scenarioState, step Step) error {
	args := step.Args
	id, err := requiredString(args, "id")
	if err != nil {
		return err
	}
	actor := lancer.Actor{
		UUID: id,
		Name: optionalString(args, "name", id),
		Type: lancer.ActorType(step.Kind),
		System: lancer.ActorSystem{
			TechAttack: optionalInt(args, "tech_attack", 0),
			EDefense:   optionalInt(args, "edef", 8),
			Evasion:    optionalInt(args, "evasion", 8),
		},
	}
	if step.Kind == stepNPC {
		actor.System.Tier = optionalInt(args, "tier", 1)
	}
	if frame := optionalString(args, "frame", ""); frame != "" {
		actor.System.Loadout.Frame = &lancer.FrameRef{LID: frame}
	}
	return state.app.Store.PutActor(ctx, actor)
}

func (r *Runner) runItemStep(ctx context.Context, state *scenarioState, step Step) error {
	args := step.Args
	id, err := requiredString(args, "id")
	if err != nil {
		return err
	}
	item := lancer.Item{
		UUID:      id,
		Name:      optionalString(args, "name", id),
		ActorUUID: optionalString(args, "owner", ""),
		System: lancer.ItemSystem{
			Charged:      optionalBool(args, "charged", true),
			TierOverride: optionalInt(args, "tier_override", 0),
			Effect:       optionalString(args, "effect", ""),
		},
	}
	if step.Kind == stepFeature {
		item.Type = lancer.ItemNPCFeature
	} else {
		item.Type = lancer.ItemMechSystem
	}
	if item.System.Accuracy, err = intList(args["accuracy"]); err != nil {
		return fmt.Errorf("accuracy: %w", err)
	}
	if item.System.AttackBonus, err = intList(args["attack_bonus"]); err != nil {
		return fmt.Errorf("attack_bonus: %w", err)
	}
	tags, err := stringList(args["tags"])
	if err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	for _, tag := range tags {
		item.System.Tags = append(item.System.Tags, lancer.Tag{LID: tag})
	}
	if optionalBool(args, "recharge", false) {
		item.System.Tags = append(item.System.Tags, lancer.Tag{LID: lancer.TagRecharge, Val: "5"})
	}
	if item.System.Actions, err = actionList(args["actions"]); err != nil {
		return fmt.Errorf("actions: %w", err)
	}
	return state.app.Store.PutItem(ctx, item)
}

func (r *Runner) runTechAttackStep(ctx context.Context, state *scenarioState, args map[string]any) error {
	source, err := requiredString(args, "source")
	if err != nil {
		return err
	}
	req, err := r.negotiation(state, args)
	if err != nil {
		return err
	}
	resp, err := state.app.TechAttack(ctx, source, optionalString(args, "action", ""), req)
	if err != nil {
		return err
	}
	state.last = &resp
	r.logf("tech attack %s: %s", source, describe(resp.Result))
	return r.expectResult(resp, args["expect"])
}

func (r *Runner) runRerollStep(ctx context.Context, state *scenarioState, args map[string]any) error {
	last, ok := state.lastResult()
	if !ok || last.Payload == nil {
		return errors.New("reroll needs a completed tech attack")
	}
	req, err := r.negotiation(state, args)
	if err != nil {
		return err
	}
	resp, err := state.app.RunMacro(ctx, last.Payload.RerollInvocation, req)
	if err != nil {
		return err
	}
	state.last = &resp
	r.logf("reroll: %s", describe(resp.Result))
	return r.expectResult(resp, args["expect"])
}

func (r *Runner) runExpectChargedStep(ctx context.Context, state *scenarioState, args map[string]any) error {
	id, err := requiredString(args, "id")
	if err != nil {
		return err
	}
	want := optionalBool(args, "charged", true)
	item, err := state.app.Store.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if item.System.Charged != want {
		return r.assertions.Failf("item %s charged = %v, want %v", id, item.System.Charged, want)
	}
	return nil
}

// negotiation reads base and per-target edits plus cancel from args.
func (r *Runner) negotiation(state *scenarioState, args map[string]any) (app.Request, error) {
	req := app.Request{TargetIDs: state.targets, Cancel: optionalBool(args, "cancel", false)}
	if raw, ok := args["base"]; ok {
		edit, err := editFrom(raw)
		if err != nil {
			return app.Request{}, fmt.Errorf("base: %w", err)
		}
		req.Base = &edit
	}
	if raw, ok := args["targets"]; ok {
		edits, ok := raw.(map[string]any)
		if !ok {
			return app.Request{}, errors.New("targets must be a table keyed by target id")
		}
		req.Edits = make(map[string]accdiff.Edit, len(edits))
		for id, value := range edits {
			edit, err := editFrom(value)
			if err != nil {
				return app.Request{}, fmt.Errorf("target %s: %w", id, err)
			}
			req.Edits[id] = edit
		}
	}
	return req, nil
}

// expectResult checks an expect table: state, code, notice, outcomes,
// hit and total (both keyed by target id, "none" for the untargeted roll).
func (r *Runner) expectResult(resp app.Response, raw any) error {
	if raw == nil {
		return nil
	}
	expect, ok := raw.(map[string]any)
	if !ok {
		return errors.New("expect must be a table")
	}
	result := resp.Result
	if want, ok := expect["state"].(string); ok && string(result.State) != want {
		if err := r.assertions.Failf("state = %s, want %s", result.State, want); err != nil {
			return err
		}
	}
	if want, ok := expect["code"].(string); ok {
		got := ""
		if result.Abort != nil {
			got = string(result.Abort.Code)
		}
		if got != want {
			if err := r.assertions.Failf("abort code = %q, want %q", got, want); err != nil {
				return err
			}
		}
	}
	if want, ok := expect["notice"].(string); ok && !hasNotice(resp.Notices, want) {
		if err := r.assertions.Failf("no notice containing %q in %v", want, resp.Notices); err != nil {
			return err
		}
	}
	if want, ok := expect["outcomes"].(int); ok && len(result.Outcomes) != want {
		if err := r.assertions.Failf("outcomes = %d, want %d", len(result.Outcomes), want); err != nil {
			return err
		}
	}
	byTarget := outcomesByTarget(result.Outcomes)
	if hits, ok := expect["hit"].(map[string]any); ok {
		for _, id := range sortedKeys(hits) {
			outcome, found := byTarget[id]
			want, _ := hits[id].(bool)
			if !found || outcome.Hit != want {
				if err := r.assertions.Failf("hit[%s] = %v (found %v), want %v", id, outcome.Hit, found, want); err != nil {
					return err
				}
			}
		}
	}
	if totals, ok := expect["total"].(map[string]any); ok {
		for _, id := range sortedKeys(totals) {
			outcome, found := byTarget[id]
			want, _ := totals[id].(int)
			if !found || outcome.Total != want {
				if err := r.assertions.Failf("total[%s] = %d (found %v), want %d", id, outcome.Total, found, want); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func outcomesByTarget(outcomes []attack.Outcome) map[string]attack.Outcome {
	out := make(map[string]attack.Outcome, len(outcomes))
	for _, outcome := range outcomes {
		key := "none"
		if outcome.Target != nil {
			key = outcome.Target.ID
		}
		out[key] = outcome
	}
	return out
}

func hasNotice(notices []tech.Notice, fragment string) bool {
	for _, notice := range notices {
		if strings.Contains(notice.Message, fragment) {
			return true
		}
	}
	return false
}

func describe(result tech.Result) string {
	if result.Abort != nil {
		return fmt.Sprintf("%s (%s at %s)", result.State, result.Abort.Kind, result.Abort.At)
	}
	parts := make([]string, 0, len(result.Outcomes))
	for _, outcome := range result.Outcomes {
		parts = append(parts, fmt.Sprintf("%s=%d", outcome.Formula, outcome.Total))
	}
	return fmt.Sprintf("%s [%s]", result.State, strings.Join(parts, " "))
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
