package errors

import "errors"

var (
	// ErrInvalidBinding is returned when a launch list contains a nil
	// variable, a variable without a cell or an unknown mode.
	ErrInvalidBinding = errors.New("tspawn: invalid binding")
	// ErrConflictingBinding is returned when the same cell is bound more than
	// once in one launch list in modes that would deadlock the task.
	ErrConflictingBinding = errors.New("tspawn: conflicting binding")
	// ErrSyntax is returned for malformed textual launch declarations.
	ErrSyntax = errors.New("tspawn: syntax error")
	// ErrUnknownName is returned when a declaration names a cell the scope
	// does not know about.
	ErrUnknownName = errors.New("tspawn: unknown name")
	// ErrDuplicateName is returned when a name is declared twice in a scope.
	ErrDuplicateName = errors.New("tspawn: duplicate name")
	// ErrUnboundVar is returned when a task body looks up a name that was not
	// bound for the task.
	ErrUnboundVar = errors.New("tspawn: variable not bound")
	// ErrTypeMismatch is returned when a bound variable is accessed with a
	// different value type or mode than it was bound with.
	ErrTypeMismatch = errors.New("tspawn: type mismatch")
	// ErrTaskPanicked wraps the value recovered from a panicking task.
	ErrTaskPanicked = errors.New("tspawn: task panicked")
	// ErrDropped is the panic value raised when a dropped cell handle is used.
	ErrDropped = errors.New("tspawn: use of dropped cell handle")
	// ErrGuardReleased is the panic value raised when a released guard is used.
	ErrGuardReleased = errors.New("tspawn: use of released guard")
)
