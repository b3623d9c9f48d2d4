package invocation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownFunction indicates no handler is registered for a function id.
var ErrUnknownFunction = errors.New("unknown invocation function")

// Handler runs a decoded invocation.
type Handler[R any] func(ctx context.Context, inv Invocation) (R, error)

// Registry dispatches invocations to handlers by function id.
type Registry[R any] struct {
	mu       sync.RWMutex
	handlers map[string]Handler[R]
}

// NewRegistry returns an empty registry.
func NewRegistry[R any]() *Registry[R] {
	return &Registry[R]{handlers: make(map[string]Handler[R])}
}

// Register binds fn to h. Registering the same fn twice is an error.
func (r *Registry[R]) Register(fn string, h Handler[R]) error {
	if fn == "" {
		return errors.New("register invocation: fn is required")
	}
	if h == nil {
		return fmt.Errorf("register invocation %s: handler is required", fn)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[fn]; exists {
		return fmt.Errorf("register invocation %s: already registered", fn)
	}
	r.handlers[fn] = h
	return nil
}

// Functions lists registered function ids in sorted order.
func (r *Registry[R]) Functions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch decodes token and invokes its handler. Malformed tokens return a
// *DecodeError.
func (r *Registry[R]) Dispatch(ctx context.Context, token string) (R, error) {
	inv, err := Decode(token)
	if err != nil {
		var zero R
		return zero, err
	}
	return r.Invoke(ctx, inv)
}

// Invoke runs the handler registered for inv.Fn.
func (r *Registry[R]) Invoke(ctx context.Context, inv Invocation) (R, error) {
	r.mu.RLock()
	h, ok := r.handlers[inv.Fn]
	r.mu.RUnlock()
	if !ok {
		var zero R
		return zero, fmt.Errorf("%w: %s", ErrUnknownFunction, inv.Fn)
	}
	return h(ctx, inv)
}
