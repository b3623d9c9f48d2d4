package tech

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/louisbranch/lancerflow/internal/core/dice"
	"github.com/louisbranch/lancerflow/internal/services/flow/accdiff"
	"github.com/louisbranch/lancerflow/internal/services/flow/storage"
	"github.com/louisbranch/lancerflow/internal/systems/lancer"
)

// calls records collaborator calls in order across fakes.
type calls struct {
	mu  sync.Mutex
	log []string
}

func (c *calls) add(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = append(c.log, fmt.Sprintf(format, args...))
}

func (c *calls) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.log...)
}

type fakeDocs struct {
	calls  *calls
	actors map[string]lancer.Actor
	items  map[string]lancer.Item
	err    error
}

func newFakeDocs(c *calls) *fakeDocs {
	return &fakeDocs{calls: c, actors: map[string]lancer.Actor{}, items: map[string]lancer.Item{}}
}

func (d *fakeDocs) Resolve(_ context.Context, id string) (Resolved, error) {
	d.calls.add("resolve %s", id)
	if d.err != nil {
		return Resolved{}, d.err
	}
	if actor, ok := d.actors[id]; ok {
		return Resolved{Actor: &actor}, nil
	}
	item, ok := d.items[id]
	if !ok {
		return Resolved{}, storage.ErrNotFound
	}
	res := Resolved{Item: &item}
	if actor, ok := d.actors[item.ActorUUID]; ok {
		res.Actor = &actor
	}
	return res, nil
}

func (d *fakeDocs) Update(_ context.Context, uuid string, patch map[string]any) error {
	d.calls.add("update %s %v", uuid, patch)
	item, ok := d.items[uuid]
	if !ok {
		return storage.ErrNotFound
	}
	if charged, ok := patch["system.charged"].(bool); ok {
		item.System.Charged = charged
	}
	d.items[uuid] = item
	return nil
}

type fakeNegotiator struct {
	calls *calls
	edit  func(ad accdiff.AccDiff) (accdiff.AccDiff, error)
	seen  []accdiff.AccDiff
}

func (n *fakeNegotiator) Negotiate(_ context.Context, kind Kind, ad accdiff.AccDiff) (accdiff.AccDiff, error) {
	n.calls.add("negotiate %s %d", kind, len(ad.Targets))
	n.seen = append(n.seen, ad.Clone())
	if n.edit == nil {
		return ad, nil
	}
	return n.edit(ad)
}

func cancelNegotiation(accdiff.AccDiff) (accdiff.AccDiff, error) {
	return accdiff.AccDiff{}, ErrCancelled
}

type fakeRenderer struct {
	calls    *calls
	err      error
	payloads []Payload
	speakers []Speaker
}

func (r *fakeRenderer) Render(_ context.Context, speaker Speaker, templateID string, payload Payload) (string, error) {
	r.calls.add("render %s", templateID)
	if r.err != nil {
		return "", r.err
	}
	r.payloads = append(r.payloads, payload)
	r.speakers = append(r.speakers, speaker)
	return "card:" + payload.Title, nil
}

type fakeNotifier struct {
	notices []Notice
}

func (n *fakeNotifier) Notify(_ context.Context, notice Notice) {
	n.notices = append(n.notices, notice)
}

type harness struct {
	calls      *calls
	docs       *fakeDocs
	targets    []accdiff.TargetRef
	targetsErr error
	negotiator *fakeNegotiator
	renderer   *fakeRenderer
	notifier   *fakeNotifier
	dice       *dice.Sequence
}

func newHarness(faces ...int) *harness {
	c := &calls{}
	return &harness{
		calls:      c,
		docs:       newFakeDocs(c),
		negotiator: &fakeNegotiator{calls: c},
		renderer:   &fakeRenderer{calls: c},
		notifier:   &fakeNotifier{},
		dice:       dice.NewSequence(faces...),
	}
}

func (h *harness) deps() Deps {
	n := 0
	return Deps{
		Resolver: h.docs,
		Updater:  h.docs,
		Targets: TargetsFunc(func(context.Context) ([]accdiff.TargetRef, error) {
			if h.targetsErr != nil {
				return nil, h.targetsErr
			}
			return append([]accdiff.TargetRef{}, h.targets...), nil
		}),
		Negotiator: h.negotiator,
		Renderer:   h.renderer,
		Notifier:   h.notifier,
		Dice:       h.dice,
		NewID: func() (string, error) {
			n++
			return fmt.Sprintf("flow-%d", n), nil
		},
	}
}

func (h *harness) orchestrator() *Orchestrator {
	o, err := New(h.deps())
	if err != nil {
		panic(err)
	}
	return o
}

func (h *harness) updates() int {
	count := 0
	for _, call := range h.calls.all() {
		if len(call) > 6 && call[:6] == "update" {
			count++
		}
	}
	return count
}

var errBoom = errors.New("boom")

func mech(uuid string, techAttack int, frame string) lancer.Actor {
	a := lancer.Actor{UUID: uuid, Name: "Mech " + uuid, Type: lancer.ActorMech, System: lancer.ActorSystem{TechAttack: techAttack, EDefense: 10, Evasion: 8}}
	if frame != "" {
		a.System.Loadout.Frame = &lancer.FrameRef{LID: frame}
	}
	return a
}

func npc(uuid string, tier int) lancer.Actor {
	return lancer.Actor{UUID: uuid, Name: "NPC " + uuid, Type: lancer.ActorNPC, System: lancer.ActorSystem{Tier: tier, TechAttack: 1, EDefense: 8, Evasion: 8}}
}
