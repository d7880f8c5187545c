package spawn

import (
	"context"
	"fmt"

	"github.com/mirkobrombin/go-tspawn/v1/cell"
	"github.com/mirkobrombin/go-tspawn/v1/errors"
)

// Var is one entry of a launch list: a cell and the mode it is bound with.
// Create vars with Own, Ref or Mut.
type Var interface {
	Mode() Mode
	Name() string

	// key identifies the shared value, nil when there is none.
	key() any
	// duplicate takes a new handle for one task. It fails when the cell was
	// dropped after the var was compiled.
	duplicate() (binding, error)
}

// binding is the per-task state of a Var.
type binding interface {
	mode() Mode
	acquire(ctx context.Context) error
	unlock()
	drop()
}

// OwnVar binds a duplicate handle.
type OwnVar[T any] struct {
	name string
	c    *cell.Cell[T]
}

// Own declares c to be bound as a fresh handle. The task may read and write
// through it; writes reach the shared value.
func Own[T any](c *cell.Cell[T]) *OwnVar[T] {
	return &OwnVar[T]{c: c}
}

// Named sets the name used in declarations, logs and Env lookups.
func (v *OwnVar[T]) Named(name string) *OwnVar[T] {
	v.name = name
	return v
}

// Mode implements Var.
func (v *OwnVar[T]) Mode() Mode { return Owned }

// Name implements Var.
func (v *OwnVar[T]) Name() string { return v.name }

func (v *OwnVar[T]) key() any {
	if v == nil || v.c == nil {
		return nil
	}
	if s := v.c.AsRaw(); s != nil {
		return s
	}
	return nil
}

func (v *OwnVar[T]) duplicate() (binding, error) {
	c, err := dup(v, v.c)
	if err != nil {
		return nil, err
	}
	return &ownBinding[T]{c: c}, nil
}

// In returns the handle bound for the task running with env.
func (v *OwnVar[T]) In(env *Env) *cell.Cell[T] {
	b, ok := env.lookup(v).(*ownBinding[T])
	if !ok {
		panic(unbound(v))
	}
	return b.c
}

// RefVar binds a read guard.
type RefVar[T any] struct {
	name string
	c    *cell.Cell[T]
}

// Ref declares c to be bound as a read guard held for the whole task.
func Ref[T any](c *cell.Cell[T]) *RefVar[T] {
	return &RefVar[T]{c: c}
}

// Named sets the name used in declarations, logs and Env lookups.
func (v *RefVar[T]) Named(name string) *RefVar[T] {
	v.name = name
	return v
}

// Mode implements Var.
func (v *RefVar[T]) Mode() Mode { return Shared }

// Name implements Var.
func (v *RefVar[T]) Name() string { return v.name }

func (v *RefVar[T]) key() any {
	if v == nil || v.c == nil {
		return nil
	}
	if s := v.c.AsRaw(); s != nil {
		return s
	}
	return nil
}

func (v *RefVar[T]) duplicate() (binding, error) {
	c, err := dup(v, v.c)
	if err != nil {
		return nil, err
	}
	return &refBinding[T]{c: c}, nil
}

// In returns the read guard held by the task running with env.
func (v *RefVar[T]) In(env *Env) *cell.ReadGuard[T] {
	b, ok := env.lookup(v).(*refBinding[T])
	if !ok {
		panic(unbound(v))
	}
	return b.g
}

// MutVar binds the write guard.
type MutVar[T any] struct {
	name string
	c    *cell.Cell[T]
}

// Mut declares c to be bound as the write guard held for the whole task.
func Mut[T any](c *cell.Cell[T]) *MutVar[T] {
	return &MutVar[T]{c: c}
}

// Named sets the name used in declarations, logs and Env lookups.
func (v *MutVar[T]) Named(name string) *MutVar[T] {
	v.name = name
	return v
}

// Mode implements Var.
func (v *MutVar[T]) Mode() Mode { return Exclusive }

// Name implements Var.
func (v *MutVar[T]) Name() string { return v.name }

func (v *MutVar[T]) key() any {
	if v == nil || v.c == nil {
		return nil
	}
	if s := v.c.AsRaw(); s != nil {
		return s
	}
	return nil
}

func (v *MutVar[T]) duplicate() (binding, error) {
	c, err := dup(v, v.c)
	if err != nil {
		return nil, err
	}
	return &mutBinding[T]{c: c}, nil
}

// In returns the write guard held by the task running with env.
func (v *MutVar[T]) In(env *Env) *cell.WriteGuard[T] {
	b, ok := env.lookup(v).(*mutBinding[T])
	if !ok {
		panic(unbound(v))
	}
	return b.g
}

func dup[T any](v Var, c *cell.Cell[T]) (*cell.Cell[T], error) {
	d, ok := c.TryDup()
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrDropped, label(v, -1))
	}
	return d, nil
}

func unbound(v Var) error {
	return fmt.Errorf("%w: %s", errors.ErrUnboundVar, label(v, -1))
}

// label renders v the way it is written in a declaration. Unnamed vars are
// shown by position.
func label(v Var, pos int) string {
	name := v.Name()
	if name == "" {
		if pos < 0 {
			name = "_"
		} else {
			name = fmt.Sprintf("#%d", pos)
		}
	}
	return v.Mode().prefix() + name
}

type ownBinding[T any] struct {
	c *cell.Cell[T]
}

func (b *ownBinding[T]) mode() Mode                    { return Owned }
func (b *ownBinding[T]) acquire(context.Context) error { return nil }
func (b *ownBinding[T]) unlock()                       {}
func (b *ownBinding[T]) drop()                         { b.c.Drop() }

type refBinding[T any] struct {
	c *cell.Cell[T]
	g *cell.ReadGuard[T]
}

func (b *refBinding[T]) mode() Mode { return Shared }

func (b *refBinding[T]) acquire(ctx context.Context) error {
	g, err := b.c.ReadContext(ctx)
	if err != nil {
		return err
	}
	b.g = g
	return nil
}

func (b *refBinding[T]) unlock() {
	if b.g != nil {
		b.g.Release()
	}
}

func (b *refBinding[T]) drop() { b.c.Drop() }

type mutBinding[T any] struct {
	c *cell.Cell[T]
	g *cell.WriteGuard[T]
}

func (b *mutBinding[T]) mode() Mode { return Exclusive }

func (b *mutBinding[T]) acquire(ctx context.Context) error {
	g, err := b.c.WriteContext(ctx)
	if err != nil {
		return err
	}
	b.g = g
	return nil
}

func (b *mutBinding[T]) unlock() {
	if b.g != nil {
		b.g.Release()
	}
}

func (b *mutBinding[T]) drop() { b.c.Drop() }
