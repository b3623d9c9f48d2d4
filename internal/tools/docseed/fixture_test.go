package docseed

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/lancerflow/internal/services/flow/storage/sqlite"
	"github.com/louisbranch/lancerflow/internal/systems/lancer"
)

const yamlFixture = `
actors:
  - uuid: n1
    name: Hive
    type: npc
    system:
      tier: 2
      tech_attack: 1
      edef: 8
      evasion: 8
items:
  - uuid: f1
    name: Spike
    type: npc_feature
    actor_uuid: n1
    system:
      charged: true
      accuracy: [0, 1, 2]
      attack_bonus: [1, 2, 3]
      tags:
        - lid: tg_recharge
          val: "5"
`

func TestDecodeYAML(t *testing.T) {
	fixture, err := Decode(strings.NewReader(yamlFixture), FormatYAML)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fixture.Actors) != 1 || fixture.Actors[0].System.Tier != 2 {
		t.Fatalf("actors = %+v", fixture.Actors)
	}
	item := fixture.Items[0]
	if !item.System.Charged || !item.IsRecharge() || item.System.AttackBonus[1] != 2 {
		t.Fatalf("item = %+v", item)
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown field", `{"actors": [], "weapons": []}`},
		{"missing uuid", `{"actors": [{"name": "x"}]}`},
		{"duplicate", `{"actors": [{"uuid": "a"}], "items": [{"uuid": "a"}]}`},
		{"orphan owner", `{"items": [{"uuid": "i", "actor_uuid": "ghost"}]}`},
		{"not json", `actors: []`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tt.input), FormatJSON); !errors.Is(err, ErrInvalidFixture) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestFormatForPath(t *testing.T) {
	if FormatForPath("a/b.YML") != FormatYAML || FormatForPath("x.yaml") != FormatYAML || FormatForPath("x.json") != FormatJSON {
		t.Fatal("unexpected format mapping")
	}
}

func TestApplyLoadsStore(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "docs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	fixture, err := Decode(strings.NewReader(yamlFixture), FormatYAML)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	summary, err := Apply(context.Background(), store, fixture)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if summary != (Summary{Actors: 1, Items: 1}) {
		t.Fatalf("summary = %+v", summary)
	}
	res, err := store.Resolve(context.Background(), "f1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Actor == nil || res.Actor.Type != lancer.ActorNPC || res.Item.Name != "Spike" {
		t.Fatalf("resolved = %+v", res)
	}
}
