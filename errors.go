package progdiff

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvedVariable indicates the resolver could not supply a value
	// for a referenced variable id.
	ErrUnresolvedVariable = errors.New("progdiff: unresolved variable")
	// ErrNilExpr indicates a nil node where an expression was required.
	ErrNilExpr = errors.New("progdiff: nil expression")
)

// UnresolvedVariableError reports the id the resolver could not bind.
// It matches ErrUnresolvedVariable under errors.Is.
type UnresolvedVariableError struct {
	ID ID
}

func (e *UnresolvedVariableError) Error() string {
	return fmt.Sprintf("progdiff: unresolved variable x%d", e.ID)
}

func (e *UnresolvedVariableError) Is(target error) bool {
	return target == ErrUnresolvedVariable
}
