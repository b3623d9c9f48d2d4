package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/lancerflow/internal/services/flow/accdiff"
	"github.com/louisbranch/lancerflow/internal/systems/lancer"
)

var (
	// ErrNotFound indicates a requested document is missing.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidPatch indicates a patch that would corrupt a document.
	ErrInvalidPatch = errors.New("invalid document patch")
)

// DocumentStore persists actor and item documents.
type DocumentStore interface {
	PutActor(ctx context.Context, actor lancer.Actor) error
	PutItem(ctx context.Context, item lancer.Item) error
	GetActor(ctx context.Context, uuid string) (lancer.Actor, error)
	GetItem(ctx context.Context, uuid string) (lancer.Item, error)
	ListActors(ctx context.Context) ([]lancer.Actor, error)
	ListItems(ctx context.Context, actorUUID string) ([]lancer.Item, error)
	// Update applies a dot-path patch, e.g. {"system.charged": false}.
	Update(ctx context.Context, uuid string, patch map[string]any) error
}

// TargetStore turns actor ids into attack targets.
type TargetStore interface {
	Targets(ctx context.Context, ids []string) ([]accdiff.TargetRef, error)
}

// TargetFromActor builds the target reference an attack checks against.
func TargetFromActor(actor lancer.Actor) accdiff.TargetRef {
	return accdiff.TargetRef{
		ID:       actor.UUID,
		Name:     actor.Name,
		EDefense: actor.System.EDefense,
		Evasion:  actor.System.Evasion,
	}
}
