package spawn

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mirkobrombin/go-tspawn/v1/cell"
	"github.com/mirkobrombin/go-tspawn/v1/errors"
)

type entry struct {
	bind func(m Mode, name string) Var
	drop func()
}

// Scope maps names to cells so launches can be declared as text. The scope
// keeps its own handle to every declared cell until Undeclare.
type Scope struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{entries: make(map[string]entry)}
}

// Declare registers c under name. The name must be an identifier other than
// ref or mut and must not already be declared.
func Declare[T any](s *Scope, name string, c *cell.Cell[T]) error {
	if !validName(name) {
		return fmt.Errorf("%w: invalid name %q", errors.ErrSyntax, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("%w: %q", errors.ErrDuplicateName, name)
	}
	h := c.Dup()
	s.entries[name] = entry{
		bind: func(m Mode, name string) Var {
			switch m {
			case Shared:
				return Ref(h).Named(name)
			case Exclusive:
				return Mut(h).Named(name)
			default:
				return Own(h).Named(name)
			}
		},
		drop: h.Drop,
	}
	return nil
}

// Undeclare removes name from the scope and drops the scope's handle.
func (s *Scope) Undeclare(name string) {
	s.mu.Lock()
	e, ok := s.entries[name]
	delete(s.entries, name)
	s.mu.Unlock()
	if ok {
		e.drop()
	}
}

// Names returns the declared names, sorted.
func (s *Scope) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.entries))
	for n := range s.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve turns parsed declarations into vars bound to the scope's cells.
func (s *Scope) Resolve(decls []Decl) ([]Var, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vars := make([]Var, 0, len(decls))
	for _, d := range decls {
		e, ok := s.entries[d.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", errors.ErrUnknownName, d.Name)
		}
		vars = append(vars, e.bind(d.Mode, d.Name))
	}
	return vars, nil
}
