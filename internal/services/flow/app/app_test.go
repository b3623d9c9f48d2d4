package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/lancerflow/internal/core/dice"
	"github.com/louisbranch/lancerflow/internal/services/flow/accdiff"
	"github.com/louisbranch/lancerflow/internal/services/flow/macro"
	"github.com/louisbranch/lancerflow/internal/services/flow/render"
	"github.com/louisbranch/lancerflow/internal/services/flow/tech"
	"github.com/louisbranch/lancerflow/internal/systems/lancer"
)

func newApp(t *testing.T, faces ...int) *App {
	t.Helper()
	a, err := New(context.Background(), Config{
		DBPath: filepath.Join(t.TempDir(), "flow.db"),
		Dice:   dice.NewSequence(faces...),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func seedDocs(t *testing.T, a *App) {
	t.Helper()
	ctx := context.Background()
	docs := []lancer.Actor{
		{UUID: "n1", Name: "Hive", Type: lancer.ActorNPC, System: lancer.ActorSystem{Tier: 1, TechAttack: 1, EDefense: 8}},
		{UUID: "t1", Name: "Drone", Type: lancer.ActorNPC, System: lancer.ActorSystem{Tier: 1, EDefense: 10, Evasion: 6}},
	}
	for _, actor := range docs {
		if err := a.Store.PutActor(ctx, actor); err != nil {
			t.Fatalf("put actor: %v", err)
		}
	}
	item := lancer.Item{
		UUID: "f1", Name: "Spike", Type: lancer.ItemNPCFeature, ActorUUID: "n1",
		System: lancer.ItemSystem{Charged: true, Tags: []lancer.Tag{{LID: lancer.TagRecharge, Val: "5"}}, AttackBonus: []int{2}},
	}
	if err := a.Store.PutItem(ctx, item); err != nil {
		t.Fatalf("put item: %v", err)
	}
}

func TestNewRequiresDBPath(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewResolvesSeedAndLocale(t *testing.T) {
	a, err := New(context.Background(), Config{DBPath: filepath.Join(t.TempDir(), "flow.db"), Seed: 42})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()
	if a.Seed != 42 || a.Locale != DefaultLocale {
		t.Fatalf("seed = %d locale = %s", a.Seed, a.Locale)
	}
}

func TestFeatureFlowUnchargesThroughCache(t *testing.T) {
	a := newApp(t, 4, 5)
	seedDocs(t, a)
	var notices render.Collector
	o, err := a.Orchestrator(Session{Targets: a.SelectTargets([]string{"t1"}), Notifier: &notices})
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}

	result, err := o.Prepare(context.Background(), tech.PrepareRequest{SourceID: "f1"})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if !result.Done() || result.Outcomes[0].Total != 11 || !result.Outcomes[0].Hit {
		t.Fatalf("result = %+v", result)
	}
	if !strings.Contains(result.Rendered, `data-macro="`) {
		t.Fatalf("rendered = %s", result.Rendered)
	}
	item, err := a.Store.GetItem(context.Background(), "f1")
	if err != nil || item.System.Charged {
		t.Fatalf("item = %+v, err = %v", item, err)
	}

	again, err := o.Prepare(context.Background(), tech.PrepareRequest{SourceID: "f1"})
	if err != nil {
		t.Fatalf("prepare again: %v", err)
	}
	if again.State != tech.StateAborted || len(notices.Notices()) != 1 {
		t.Fatalf("again = %+v, notices = %v", again, notices.Notices())
	}
	if got := notices.Notices()[0]; got.Level != tech.NoticeWarn || got.Message != "Feature Spike is not charged!" {
		t.Fatalf("notice = %+v", got)
	}
}

func TestMacrosDispatchPrepareToken(t *testing.T) {
	a := newApp(t, 1, 2)
	seedDocs(t, a)
	registry, err := a.Macros(Session{Renderer: a.Text})
	if err != nil {
		t.Fatalf("macros: %v", err)
	}
	token, err := macro.PrepareToken("", "n1", "")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	result, err := registry.Dispatch(context.Background(), token)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !result.Done() || len(result.Outcomes) != 1 || result.Outcomes[0].Target != nil {
		t.Fatalf("result = %+v", result)
	}
	if !strings.Contains(result.Rendered, tech.BasicTechTitle) {
		t.Fatalf("rendered = %s", result.Rendered)
	}
}

func TestSelectTargetsMissingActor(t *testing.T) {
	a := newApp(t)
	if _, err := a.SelectTargets([]string{"ghost"}).CurrentTargets(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestTechAttackAndRunMacro(t *testing.T) {
	a := newApp(t, 2, 3, 6, 6)
	seedDocs(t, a)
	req := Request{TargetIDs: []string{"t1"}, Base: &accdiff.Edit{Difficulty: 1}}

	resp, err := a.TechAttack(context.Background(), "n1", "", req)
	if err != nil {
		t.Fatalf("tech attack: %v", err)
	}
	// 2+3, +1 tech attack, -1 difficulty against e-defense 10.
	if !resp.Result.Done() || resp.Result.Outcomes[0].Total != 5 || resp.Result.Outcomes[0].Hit {
		t.Fatalf("result = %+v", resp.Result)
	}

	rerolled, err := a.RunMacro(context.Background(), resp.Result.Payload.RerollInvocation, Request{TargetIDs: []string{"t1"}})
	if err != nil {
		t.Fatalf("run macro: %v", err)
	}
	// The roll-wide difficulty travels with the reroll token.
	if !rerolled.Result.Done() || rerolled.Result.Outcomes[0].Total != 12 || !rerolled.Result.Outcomes[0].Hit {
		t.Fatalf("rerolled = %+v", rerolled.Result)
	}
}

func TestRunMacroMalformedCollectsNotice(t *testing.T) {
	a := newApp(t)
	resp, err := a.RunMacro(context.Background(), "not a token", Request{})
	if err != nil {
		t.Fatalf("run macro: %v", err)
	}
	if resp.Result.State != tech.StateAborted || len(resp.Notices) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestTechAttackCancel(t *testing.T) {
	a := newApp(t)
	seedDocs(t, a)
	resp, err := a.TechAttack(context.Background(), "f1", "", Request{Cancel: true})
	if err != nil {
		t.Fatalf("tech attack: %v", err)
	}
	if resp.Result.Abort == nil || resp.Result.Abort.Kind != tech.AbortUser || len(resp.Notices) != 0 {
		t.Fatalf("resp = %+v", resp)
	}
	item, _ := a.Store.GetItem(context.Background(), "f1")
	if !item.System.Charged {
		t.Fatal("cancelled flow consumed the charge")
	}
}
