package wizard

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid wizard transition")
	ErrNoValidRows       = errors.New("no valid rows to import")
	ErrBusy              = errors.New("wizard request already in flight")
	ErrTimeout           = errors.New("backend call timed out")
	ErrUnavailable       = errors.New("backend unavailable")
)

// TransitionError reports an operation attempted from a stage that does not
// allow it.
type TransitionError struct {
	Op   string
	From Stage
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s while in %s stage", e.Op, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
