package spawn

import (
	"fmt"

	"github.com/mirkobrombin/go-tspawn/v1/errors"
)

// Mode is the access mode of a bound variable.
type Mode int

const (
	// Owned binds a duplicate handle without locking.
	Owned Mode = iota
	// Shared binds a read guard.
	Shared
	// Exclusive binds the write guard.
	Exclusive
)

// String returns the declaration keyword for m, "own" for Owned.
func (m Mode) String() string {
	switch m {
	case Owned:
		return "own"
	case Shared:
		return "ref"
	case Exclusive:
		return "mut"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) valid() bool {
	return m >= Owned && m <= Exclusive
}

// prefix is the modifier as written in a declaration.
func (m Mode) prefix() string {
	if m == Owned {
		return ""
	}
	return m.String() + " "
}

// ParseMode parses a declaration modifier. The empty string and "own" mean
// Owned.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "own":
		return Owned, nil
	case "ref":
		return Shared, nil
	case "mut":
		return Exclusive, nil
	}
	return 0, fmt.Errorf("%w: unknown modifier %q", errors.ErrSyntax, s)
}

// conflicts reports whether binding the same cell in modes a and b within one
// task would block the task on itself.
func conflicts(a, b Mode) bool {
	if a == Exclusive || b == Exclusive {
		return true
	}
	return a == Shared && b == Shared
}
