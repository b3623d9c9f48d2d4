package tech

import (
	"context"
	"errors"

	"github.com/louisbranch/lancerflow/internal/services/flow/accdiff"
	"github.com/louisbranch/lancerflow/internal/systems/lancer"
)

// TemplateID names the card template tech attacks render with.
const TemplateID = "tech-attack-card"

// ErrCancelled is returned by a Negotiator when the operator backs out.
var ErrCancelled = errors.New("negotiation cancelled")

// Kind selects the negotiation surface variant.
type Kind string

// KindAttack negotiates an attack roll.
const KindAttack Kind = "attack"

// Resolved is the pair of documents an identifier points at. Item is nil
// when the identifier names an actor.
type Resolved struct {
	Actor *lancer.Actor
	Item  *lancer.Item
}

// Resolver loads the documents behind an identifier. Unknown identifiers
// return storage.ErrNotFound.
type Resolver interface {
	Resolve(ctx context.Context, id string) (Resolved, error)
}

// Updater applies a dot-path patch to a stored document.
type Updater interface {
	Update(ctx context.Context, uuid string, patch map[string]any) error
}

// TargetProvider reports the operator's live target selection.
type TargetProvider interface {
	CurrentTargets(ctx context.Context) ([]accdiff.TargetRef, error)
}

// Negotiator presents an AccDiff to the operator and returns the edited copy.
// It must not change the target set.
type Negotiator interface {
	Negotiate(ctx context.Context, kind Kind, ad accdiff.AccDiff) (accdiff.AccDiff, error)
}

// Renderer turns a payload into output attributed to speaker.
type Renderer interface {
	Render(ctx context.Context, speaker Speaker, templateID string, payload Payload) (string, error)
}

// Notifier shows notices to the operator.
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

// TargetsFunc adapts a function to TargetProvider.
type TargetsFunc func(ctx context.Context) ([]accdiff.TargetRef, error)

// CurrentTargets calls f.
func (f TargetsFunc) CurrentTargets(ctx context.Context) ([]accdiff.TargetRef, error) {
	return f(ctx)
}

// StaticTargets is a TargetProvider with a fixed selection.
type StaticTargets []accdiff.TargetRef

// CurrentTargets returns a copy of the selection.
func (s StaticTargets) CurrentTargets(context.Context) ([]accdiff.TargetRef, error) {
	return append([]accdiff.TargetRef{}, s...), nil
}
