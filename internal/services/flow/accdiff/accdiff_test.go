package accdiff

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/louisbranch/lancerflow/internal/systems/lancer"
)

func refs(ids ...string) []TargetRef {
	out := make([]TargetRef, 0, len(ids))
	for _, id := range ids {
		out = append(out, TargetRef{ID: id, Name: "Target " + id, EDefense: 8, Evasion: 10})
	}
	return out
}

func TestFromParams(t *testing.T) {
	tags := []lancer.Tag{{LID: lancer.TagAccurate}, {LID: lancer.TagSeeking}, {LID: lancer.TagLimited, Val: "2"}}
	ad := FromParams("BASIC TECH", tags, refs("a", "b", "a"), 1)

	if ad.Title != "BASIC TECH" {
		t.Fatalf("title = %q", ad.Title)
	}
	if !ad.Accurate || ad.Inaccurate || !ad.Seeking {
		t.Fatalf("tag flags = accurate %v inaccurate %v seeking %v", ad.Accurate, ad.Inaccurate, ad.Seeking)
	}
	if ad.BaseAccuracy != 1 {
		t.Fatalf("base accuracy = %d, want 1", ad.BaseAccuracy)
	}
	if got := ad.TargetIDs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("targets = %v, want deduplicated [a b]", got)
	}

	tags[0].LID = "mutated"
	if ad.SourceTags[0].LID != lancer.TagAccurate {
		t.Fatal("expected source tags to be copied")
	}
}

func TestFromParamsNegativeExtraBecomesDifficulty(t *testing.T) {
	ad := FromParams("x", nil, nil, -2)
	if ad.BaseAccuracy != 0 || ad.BaseDifficulty != 2 {
		t.Fatalf("base = %d/%d, want 0/2", ad.BaseAccuracy, ad.BaseDifficulty)
	}
	if err := ad.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if ad.Targets == nil {
		t.Fatal("expected empty, non-nil target list")
	}
}

func TestReplaceTargetsPreservesOverlap(t *testing.T) {
	ad := FromParams("x", nil, refs("A", "B"), 0)
	ad, err := ad.SetEdit("A", Edit{Accuracy: 2, Difficulty: 1, Cover: CoverSoft})
	if err != nil {
		t.Fatalf("set edit: %v", err)
	}
	ad, err = ad.SetEdit("B", Edit{Accuracy: 1})
	if err != nil {
		t.Fatalf("set edit: %v", err)
	}

	fresh := refs("A", "C")
	fresh[0].EDefense = 12
	ad.ReplaceTargets(fresh)

	if got := ad.TargetIDs(); !reflect.DeepEqual(got, []string{"A", "C"}) {
		t.Fatalf("targets = %v", got)
	}
	if edit, _ := ad.EditFor("A"); edit != (Edit{Accuracy: 2, Difficulty: 1, Cover: CoverSoft}) {
		t.Fatalf("edit for A = %+v", edit)
	}
	if _, ok := ad.EditFor("B"); ok {
		t.Fatal("expected no edit entry for B")
	}
	if edit, ok := ad.EditFor("C"); !ok || edit != (Edit{}) {
		t.Fatalf("edit for C = %+v, %v", edit, ok)
	}
	if ad.Targets[0].Ref.EDefense != 12 {
		t.Fatal("expected refreshed defenses for surviving target")
	}
}

func TestNetModifierArithmetic(t *testing.T) {
	ad := FromParams("x", nil, refs("t"), 2)
	ad, err := ad.SetEdit("t", Edit{Difficulty: 1})
	if err != nil {
		t.Fatalf("set edit: %v", err)
	}
	target := ad.Targets[0].Ref
	if got := ad.NetModifierFor(&target); got != 1 {
		t.Fatalf("net for target = %d, want 1", got)
	}

	noTargets := FromParams("x", nil, nil, 2)
	if got := noTargets.NetModifierFor(nil); got != 2 {
		t.Fatalf("unconditional net = %d, want 2", got)
	}
}

func TestNetModifierContributions(t *testing.T) {
	target := TargetRef{ID: "t"}
	tests := []struct {
		name string
		ad   AccDiff
		want int
	}{
		{name: "zero", ad: AccDiff{}, want: 0},
		{name: "per source and base edit", ad: AccDiff{PerSourceModifier: 1, Base: Edit{Accuracy: 1, Difficulty: 3}}, want: -1},
		{name: "accurate tag", ad: AccDiff{Accurate: true}, want: 1},
		{name: "inaccurate tag", ad: AccDiff{Inaccurate: true}, want: -1},
		{name: "soft cover", ad: AccDiff{Targets: []Target{{Ref: target, Edit: Edit{Cover: CoverSoft}}}}, want: -1},
		{name: "hard cover", ad: AccDiff{Targets: []Target{{Ref: target, Edit: Edit{Cover: CoverHard}}}}, want: -2},
		{name: "base cover applies to targets", ad: AccDiff{Base: Edit{Cover: CoverSoft}, Targets: []Target{{Ref: target}}}, want: -1},
		{name: "seeking ignores cover", ad: AccDiff{Seeking: true, Targets: []Target{{Ref: target, Edit: Edit{Cover: CoverHard}}}}, want: 0},
		{name: "target edits", ad: AccDiff{BaseDifficulty: 1, Targets: []Target{{Ref: target, Edit: Edit{Accuracy: 3, Difficulty: 1}}}}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ad.NetModifierFor(&target); got != tt.want {
				t.Fatalf("net = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNetModifierUnknownTargetUsesUnconditional(t *testing.T) {
	ad := AccDiff{BaseAccuracy: 1, Targets: []Target{{Ref: TargetRef{ID: "a"}, Edit: Edit{Accuracy: 5}}}}
	stranger := TargetRef{ID: "z"}
	if got := ad.NetModifierFor(&stranger); got != 1 {
		t.Fatalf("net = %d, want 1", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	ad := FromParams("x", []lancer.Tag{{LID: lancer.TagAccurate}}, refs("a"), 0)
	clone := ad.Clone()
	clone.Targets[0].Edit.Accuracy = 3
	clone.SourceTags[0].LID = "changed"
	if ad.Targets[0].Edit.Accuracy != 0 || ad.SourceTags[0].LID != lancer.TagAccurate {
		t.Fatal("clone shares state with original")
	}
}

func TestSetEditUnknownTarget(t *testing.T) {
	ad := FromParams("x", nil, refs("a"), 0)
	if _, err := ad.SetEdit("b", Edit{}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		ad   AccDiff
		ok   bool
	}{
		{name: "valid", ad: FromParams("x", nil, refs("a", "b"), 1), ok: true},
		{name: "empty target id", ad: AccDiff{Targets: []Target{{Ref: TargetRef{}}}}},
		{name: "duplicate ids", ad: AccDiff{Targets: []Target{{Ref: TargetRef{ID: "a"}}, {Ref: TargetRef{ID: "a"}}}}},
		{name: "negative base accuracy", ad: AccDiff{BaseAccuracy: -1}},
		{name: "unknown base cover", ad: AccDiff{Base: Edit{Cover: "total"}}},
		{name: "unknown target cover", ad: AccDiff{Targets: []Target{{Ref: TargetRef{ID: "a"}, Edit: Edit{Cover: "partial"}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ad.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestSameTargets(t *testing.T) {
	ab := FromParams("x", nil, refs("a", "b"), 0)
	ba := FromParams("x", nil, refs("b", "a"), 0)
	ac := FromParams("x", nil, refs("a", "c"), 0)
	a := FromParams("x", nil, refs("a"), 0)
	if !ab.SameTargets(ba) {
		t.Fatal("expected order-insensitive match")
	}
	if ab.SameTargets(ac) || ab.SameTargets(a) {
		t.Fatal("expected different target sets to differ")
	}

	raised := ab.Clone()
	raised.Targets[0].Ref.EDefense += 4
	if ab.SameTargets(raised) {
		t.Fatal("expected a changed defense to count as a different target")
	}
	edited, _ := ab.SetEdit("a", Edit{Accuracy: 2})
	if !ab.SameTargets(edited) {
		t.Fatal("expected edits to leave the target set unchanged")
	}
	aa := FromParams("x", nil, refs("a", "b"), 0)
	aa.Targets[1] = aa.Targets[0]
	if ab.SameTargets(aa) {
		t.Fatal("expected a repeated target to differ")
	}
}

func TestCoverCycle(t *testing.T) {
	c := CoverNone
	var seen []Cover
	for i := 0; i < 3; i++ {
		c = c.Next()
		seen = append(seen, c)
	}
	if !reflect.DeepEqual(seen, []Cover{CoverSoft, CoverHard, CoverNone}) {
		t.Fatalf("cycle = %v", seen)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	ad := FromParams("BASIC TECH", []lancer.Tag{{LID: lancer.TagSeeking}}, refs("a"), 1)
	ad, _ = ad.SetEdit("a", Edit{Accuracy: 1, Cover: CoverHard})
	data, err := json.Marshal(ad)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got AccDiff
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(got, ad) {
		t.Fatalf("round trip = %+v, want %+v", got, ad)
	}
}
