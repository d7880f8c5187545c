package spawn

import (
	"fmt"
	"strings"

	"github.com/mirkobrombin/go-tspawn/v1/errors"
)

// Plan is a compiled launch list. It records, in declaration order, which
// handles are duplicated and which of the duplicates are then locked.
// A Plan is immutable and may be used for any number of launches.
type Plan struct {
	vars  []Var
	dups  []int
	locks []int
}

// Compile validates vars and folds them into a Plan. Each entry appends a
// duplicate, and Ref and Mut entries also append a lock acquisition on that
// duplicate. An empty list is valid.
//
// Compile rejects nil entries, entries without a live cell, unknown modes and
// a cell that appears twice where either entry is Mut or both are Ref: such a
// task would wait on its own lock.
func Compile(vars ...Var) (*Plan, error) {
	p := &Plan{vars: make([]Var, 0, len(vars))}
	seen := make(map[any][]Mode, len(vars))
	for i, v := range vars {
		if err := p.push(i, v, seen); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Plan) push(pos int, v Var, seen map[any][]Mode) error {
	if v == nil {
		return fmt.Errorf("%w: entry #%d is nil", errors.ErrInvalidBinding, pos)
	}
	k := v.key()
	if k == nil {
		return fmt.Errorf("%w: entry #%d has no live cell", errors.ErrInvalidBinding, pos)
	}
	m := v.Mode()
	if !m.valid() {
		return fmt.Errorf("%w: entry #%d has %v", errors.ErrInvalidBinding, pos, m)
	}
	for _, prev := range seen[k] {
		if conflicts(prev, m) {
			return fmt.Errorf("%w: %s binds a cell already bound as %s", errors.ErrConflictingBinding, label(v, pos), prev)
		}
	}
	seen[k] = append(seen[k], m)

	idx := len(p.vars)
	p.vars = append(p.vars, v)
	p.dups = append(p.dups, idx)
	if m != Owned {
		p.locks = append(p.locks, idx)
	}
	return nil
}

// Len returns the number of bound variables.
func (p *Plan) Len() int { return len(p.vars) }

// Vars returns the variables in declaration order.
func (p *Plan) Vars() []Var {
	return append([]Var(nil), p.vars...)
}

// Locks returns the number of guards the plan acquires.
func (p *Plan) Locks() int { return len(p.locks) }

// String renders the plan as a declaration, e.g. "a, ref b, mut c".
func (p *Plan) String() string {
	parts := make([]string, len(p.vars))
	for i, v := range p.vars {
		parts[i] = label(v, i)
	}
	return strings.Join(parts, ", ")
}

// bind duplicates every handle in declaration order. No lock is taken. If a
// cell was dropped since Compile, the duplicates taken so far are dropped
// and the error is returned.
func (p *Plan) bind() (*Env, error) {
	env := &Env{
		plan:   p,
		byVar:  make(map[Var]binding, len(p.vars)),
		byName: make(map[string][]binding),
	}
	for _, i := range p.dups {
		v := p.vars[i]
		b, err := v.duplicate()
		if err != nil {
			env.drop()
			return nil, fmt.Errorf("bind %s: %w", label(v, i), err)
		}
		env.all = append(env.all, b)
		env.byVar[v] = b
		if n := v.Name(); n != "" {
			env.byName[n] = append(env.byName[n], b)
		}
	}
	for _, i := range p.locks {
		env.locks = append(env.locks, env.all[i])
	}
	return env, nil
}
