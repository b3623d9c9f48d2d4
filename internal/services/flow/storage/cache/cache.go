// Package cache keeps recently resolved documents in memory in front of a
// slower Resolver.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/louisbranch/lancerflow/internal/services/flow/tech"
	"github.com/louisbranch/lancerflow/internal/systems/lancer"
)

// DefaultSize is the number of identifiers kept when no size is configured.
const DefaultSize = 1024

// Backend is the store the cache reads through and writes to.
type Backend interface {
	tech.Resolver
	tech.Updater
}

// Resolver caches Resolve results and invalidates them on Update.
type Resolver struct {
	backend Backend
	entries *lru.Cache[string, tech.Resolved]

	// gen counts invalidations. A miss only stores its backend read when no
	// invalidation ran while the read was in flight.
	mu  sync.Mutex
	gen uint64
}

// New wraps backend with an LRU cache of size entries.
func New(backend Backend, size int) (*Resolver, error) {
	if backend == nil {
		return nil, errors.New("cache backend is required")
	}
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, tech.Resolved](size)
	if err != nil {
		return nil, fmt.Errorf("create resolve cache: %w", err)
	}
	return &Resolver{backend: backend, entries: entries}, nil
}

// Resolve returns a cached copy or loads from the backend. Misses are not cached.
func (r *Resolver) Resolve(ctx context.Context, id string) (tech.Resolved, error) {
	if err := ctx.Err(); err != nil {
		return tech.Resolved{}, err
	}
	if cached, ok := r.entries.Get(id); ok {
		return cloneResolved(cached), nil
	}
	r.mu.Lock()
	gen := r.gen
	r.mu.Unlock()

	res, err := r.backend.Resolve(ctx, id)
	if err != nil {
		return tech.Resolved{}, err
	}

	r.mu.Lock()
	if r.gen == gen {
		r.entries.Add(id, cloneResolved(res))
	}
	r.mu.Unlock()
	return res, nil
}

// Update writes through and drops every cached entry that includes uuid.
func (r *Resolver) Update(ctx context.Context, uuid string, patch map[string]any) error {
	err := r.backend.Update(ctx, uuid, patch)
	r.Invalidate(uuid)
	return err
}

// Invalidate drops cached entries that reference uuid as actor or item.
func (r *Resolver) Invalidate(uuid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	for _, key := range r.entries.Keys() {
		res, ok := r.entries.Peek(key)
		if !ok {
			continue
		}
		if key == uuid || references(res, uuid) {
			r.entries.Remove(key)
		}
	}
}

// Len reports the number of cached identifiers.
func (r *Resolver) Len() int {
	return r.entries.Len()
}

func references(res tech.Resolved, uuid string) bool {
	if res.Actor != nil && res.Actor.UUID == uuid {
		return true
	}
	return res.Item != nil && res.Item.UUID == uuid
}

// cloneResolved copies documents so callers cannot mutate cached values.
func cloneResolved(res tech.Resolved) tech.Resolved {
	var out tech.Resolved
	if res.Actor != nil {
		actor := *res.Actor
		if actor.System.Loadout.Frame != nil {
			frame := *actor.System.Loadout.Frame
			actor.System.Loadout.Frame = &frame
		}
		out.Actor = &actor
	}
	if res.Item != nil {
		item := *res.Item
		item.System.Tags = append([]lancer.Tag(nil), item.System.Tags...)
		item.System.Accuracy = append([]int(nil), item.System.Accuracy...)
		item.System.AttackBonus = append([]int(nil), item.System.AttackBonus...)
		item.System.Actions = append([]lancer.Action(nil), item.System.Actions...)
		out.Item = &item
	}
	return out
}

var (
	_ tech.Resolver = (*Resolver)(nil)
	_ tech.Updater  = (*Resolver)(nil)
)
