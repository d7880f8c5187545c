package spawn

import (
	"context"
	"fmt"
	"sort"

	"github.com/mirkobrombin/go-tspawn/v1/cell"
	"github.com/mirkobrombin/go-tspawn/v1/errors"
)

// Env holds the bindings of one task. It is only valid while the task body
// runs.
type Env struct {
	plan   *Plan
	all    []binding
	locks  []binding
	held   int
	byVar  map[Var]binding
	byName map[string][]binding
}

// Len returns the number of bindings.
func (e *Env) Len() int { return len(e.all) }

// Names returns the names of the named bindings, sorted.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.byName))
	for n := range e.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (e *Env) lookup(v Var) binding {
	if e == nil {
		return nil
	}
	return e.byVar[v]
}

// acquire takes the locks in declaration order. On failure the locks taken so
// far are released.
func (e *Env) acquire(ctx context.Context) error {
	for i, b := range e.locks {
		if err := b.acquire(ctx); err != nil {
			e.unlock()
			return fmt.Errorf("bind %s: %w", label(e.plan.vars[e.plan.locks[i]], e.plan.locks[i]), err)
		}
		e.held++
	}
	return nil
}

// unlock releases held guards in reverse order.
func (e *Env) unlock() {
	for i := e.held - 1; i >= 0; i-- {
		e.locks[i].unlock()
	}
	e.held = 0
}

// drop releases the duplicated handles in reverse order.
func (e *Env) drop() {
	for i := len(e.all) - 1; i >= 0; i-- {
		e.all[i].drop()
	}
}

func find[B binding](e *Env, name string, mode Mode) (B, error) {
	var zero B
	bs, ok := e.byName[name]
	if !ok {
		return zero, fmt.Errorf("%w: %q", errors.ErrUnboundVar, name)
	}
	for _, b := range bs {
		if tb, ok := b.(B); ok {
			return tb, nil
		}
	}
	return zero, fmt.Errorf("%w: %q is not bound as %s of this type", errors.ErrTypeMismatch, name, mode)
}

// CellOf returns the handle bound as name in Owned mode.
func CellOf[T any](e *Env, name string) (*cell.Cell[T], error) {
	b, err := find[*ownBinding[T]](e, name, Owned)
	if err != nil {
		return nil, err
	}
	return b.c, nil
}

// ReaderOf returns the read guard bound as name.
func ReaderOf[T any](e *Env, name string) (*cell.ReadGuard[T], error) {
	b, err := find[*refBinding[T]](e, name, Shared)
	if err != nil {
		return nil, err
	}
	return b.g, nil
}

// WriterOf returns the write guard bound as name.
func WriterOf[T any](e *Env, name string) (*cell.WriteGuard[T], error) {
	b, err := find[*mutBinding[T]](e, name, Exclusive)
	if err != nil {
		return nil, err
	}
	return b.g, nil
}
