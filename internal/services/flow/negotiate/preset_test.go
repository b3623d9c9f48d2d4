package negotiate

import (
	"context"
	"errors"
	"testing"

	"github.com/louisbranch/lancerflow/internal/services/flow/accdiff"
	"github.com/louisbranch/lancerflow/internal/services/flow/tech"
)

func sampleAccDiff() accdiff.AccDiff {
	return accdiff.FromParams("BASIC TECH", nil, []accdiff.TargetRef{{ID: "a"}, {ID: "b"}}, 1)
}

func TestPresetAppliesEditsToCopy(t *testing.T) {
	ad := sampleAccDiff()
	preset := Preset{
		Base:    &accdiff.Edit{Accuracy: 1},
		Targets: map[string]accdiff.Edit{"b": {Difficulty: 1, Cover: accdiff.CoverHard}},
	}
	got, err := preset.Negotiate(context.Background(), tech.KindAttack, ad)
	if err != nil {
		t.Fatalf("negotiate: %v", err)
	}
	if got.Base.Accuracy != 1 {
		t.Fatalf("base = %+v", got.Base)
	}
	b := got.Targets[1].Ref
	if net := got.NetModifierFor(&b); net != 1+1-1-2 {
		t.Fatalf("net for b = %d", net)
	}
	if ad.Base.Accuracy != 0 || ad.Targets[1].Edit != (accdiff.Edit{}) {
		t.Fatal("preset mutated its input")
	}
	if !got.SameTargets(ad) {
		t.Fatal("preset changed the target set")
	}
}

func TestPresetCancel(t *testing.T) {
	_, err := Preset{Cancel: true}.Negotiate(context.Background(), tech.KindAttack, sampleAccDiff())
	if !errors.Is(err, tech.ErrCancelled) {
		t.Fatalf("err = %v", err)
	}
}

func TestPresetUnknownTarget(t *testing.T) {
	preset := Preset{Targets: map[string]accdiff.Edit{"z": {Accuracy: 1}}}
	_, err := preset.Negotiate(context.Background(), tech.KindAttack, sampleAccDiff())
	if !errors.Is(err, accdiff.ErrInvalid) {
		t.Fatalf("err = %v", err)
	}
}

func TestConfirmKeepsAccDiff(t *testing.T) {
	ad := sampleAccDiff()
	got, err := Confirm.Negotiate(context.Background(), tech.KindAttack, ad)
	if err != nil {
		t.Fatalf("negotiate: %v", err)
	}
	if got.NetModifierFor(nil) != ad.NetModifierFor(nil) || !got.SameTargets(ad) {
		t.Fatalf("confirm changed state: %+v", got)
	}
}

func TestPresetHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Confirm.Negotiate(ctx, tech.KindAttack, sampleAccDiff()); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
