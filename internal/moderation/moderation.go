// Package moderation keeps the admin lists in sync with the backend. Each
// mutation is a single API call; the local list is patched only after it succeeds.
package moderation

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrCancelled is returned when the Confirmer declined a destructive action.
	ErrCancelled = errors.New("action cancelled")
	// ErrStale is returned by a load whose result was dropped because a newer
	// load or a reset happened while it was in flight.
	ErrStale = errors.New("stale response dropped")
	// ErrUnknownItem is returned when the id is not in the loaded list.
	ErrUnknownItem = errors.New("item not in the loaded list")
)

// Confirmer asks the operator before a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AutoConfirm approves without asking.
var AutoConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) {
	return true, nil
})

// confirm treats a nil Confirmer as a refusal.
func confirm(ctx context.Context, c Confirmer, prompt string) error {
	if c == nil {
		return ErrCancelled
	}
	ok, err := c.Confirm(ctx, prompt)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}

// generation guards a list against late responses.
type generation struct {
	mu sync.Mutex
	n  uint64
}

func (g *generation) next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return g.n
}

func (g *generation) current(n uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n == n
}
